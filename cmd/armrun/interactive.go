package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emustack/armjit/exec"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	pcStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type monitorState int

const (
	stateMonitor monitorState = iota
	stateEdit
)

type monitorModel struct {
	err      error
	exec     *exec.Executor
	svc      *haltSVC
	filename string
	addr     uint32
	entry    uint32
	budget   uint64
	status   string
	input    textinput.Model
	state    monitorState
	loaded   bool
}

type imageLoadedMsg struct {
	err error
}

type ranMsg struct {
	err  error
	used uint64
}

func newMonitorModel(filename string, addr, entry uint32, budget uint64) *monitorModel {
	ti := textinput.New()
	ti.Placeholder = "r0=0x42, pc=0x1000, ticks=500"
	ti.Prompt = "set: "
	ti.Width = 40

	return &monitorModel{
		filename: filename,
		addr:     addr,
		entry:    entry,
		budget:   budget,
		input:    ti,
	}
}

func (m *monitorModel) Init() tea.Cmd {
	return m.load
}

func (m *monitorModel) load() tea.Msg {
	m.svc = &haltSVC{}
	e, err := exec.New(exec.Config{SVC: m.svc, Ticks: 0, DirectMap: true})
	if err != nil {
		return imageLoadedMsg{err: err}
	}
	if err := loadImage(e.Core(), m.filename, m.addr); err != nil {
		e.Close()
		return imageLoadedMsg{err: err}
	}
	m.exec = e
	return imageLoadedMsg{}
}

func (m *monitorModel) runFor(ticks uint64) tea.Cmd {
	return func() tea.Msg {
		m.exec.SetTicks(ticks)
		err := m.exec.Run(context.Background())
		return ranMsg{err: err, used: ticks - m.exec.Ticks()}
	}
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateEdit {
			switch msg.String() {
			case "enter":
				m.applyInput()
				m.state = stateMonitor
				return m, nil
			case "esc":
				m.state = stateMonitor
				return m, nil
			default:
				var cmd tea.Cmd
				m.input, cmd = m.input.Update(msg)
				return m, cmd
			}
		}

		switch msg.String() {
		case "ctrl+c", "q":
			if m.exec != nil {
				m.exec.Close()
			}
			return m, tea.Quit

		case "r":
			if m.loaded {
				m.status = "running..."
				return m, m.runFor(m.budget)
			}

		case "n":
			if m.loaded {
				return m, m.runFor(1)
			}

		case "c":
			if m.loaded {
				m.exec.Core().Regs()[15] = m.entry
				m.status = "pc reset to entry"
			}

		case "e":
			if m.loaded {
				m.input.SetValue("")
				m.input.Focus()
				m.state = stateEdit
			}
		}

	case imageLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.loaded = true
		m.exec.Core().Regs()[15] = m.entry
		m.status = "image loaded"

	case ranMsg:
		if msg.err != nil {
			m.status = errStyle.Render(fmt.Sprintf("stopped: %v", msg.err))
		} else {
			m.status = okStyle.Render(fmt.Sprintf("ran %d ticks", msg.used))
		}
	}

	return m, nil
}

// applyInput parses assignments like "r3=0x10" or "ticks=100".
func (m *monitorModel) applyInput() {
	core := m.exec.Core()
	for _, kv := range strings.Split(m.input.Value(), ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			m.status = errStyle.Render(fmt.Sprintf("bad assignment %q", kv))
			return
		}
		v, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 0, 64)
		if err != nil {
			m.status = errStyle.Render(fmt.Sprintf("bad value %q", kv))
			return
		}
		key := strings.TrimSpace(parts[0])
		if strings.EqualFold(key, "ticks") {
			m.budget = v
			continue
		}
		idx, err := regIndex(key)
		if err != nil {
			m.status = errStyle.Render(err.Error())
			return
		}
		core.Regs()[idx] = uint32(v)
	}
	m.status = "applied"
}

func (m *monitorModel) View() string {
	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Loading image..."
	}

	core := m.exec.Core()
	r := core.Regs()
	names := []string{
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc",
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("ARM Monitor"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	for i := range r {
		cell := fmt.Sprintf("%s=%08x", labelStyle.Render(fmt.Sprintf("%3s", names[i])), r[i])
		if i == 15 {
			cell = pcStyle.Render(fmt.Sprintf("%3s=%08x", names[i], r[i]))
		}
		b.WriteString(cell)
		b.WriteString("  ")
		if i%4 == 3 {
			b.WriteString("\n")
		}
	}
	b.WriteString(fmt.Sprintf("\n%s=%08x  %s=%08x  budget: %d\n",
		labelStyle.Render("cpsr"), core.Cpsr(),
		labelStyle.Render("fpscr"), core.Fpscr(), m.budget))

	b.WriteString("\nCode at pc:\n")
	pc := r[15] &^ 3
	for i := uint32(0); i < 4; i++ {
		addr := pc + i*4
		word, err := core.Read32(addr)
		if err != nil {
			b.WriteString(fmt.Sprintf("  %08x: %s\n", addr, helpStyle.Render("unmapped")))
			continue
		}
		marker := "  "
		if addr == r[15] {
			marker = "> "
		}
		b.WriteString(fmt.Sprintf("%s%08x: %08x\n", marker, addr, word))
	}

	if len(m.svc.calls) > 0 {
		b.WriteString(fmt.Sprintf("\nSVC trace: %v\n", m.svc.calls))
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.state == stateEdit {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter apply • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("r run • n step • e set register • c reset pc • q quit"))
	}
	return b.String()
}

func runInteractive(filename string, addr, entry uint32, budget uint64) error {
	if entry == 0 {
		entry = addr
	}
	p := tea.NewProgram(newMonitorModel(filename, addr, entry, budget), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
