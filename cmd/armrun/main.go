package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/emustack/armjit/engine"
	"github.com/emustack/armjit/exec"
)

func main() {
	var (
		image       = flag.String("image", "", "Path to flat ARM binary image")
		addr        = flag.Uint("addr", 0, "Guest address to load the image at")
		entry       = flag.Uint("entry", 0, "Entry point (defaults to the load address)")
		ticks       = flag.Uint64("ticks", 1_000_000, "Cycle budget for the run")
		regs        = flag.String("regs", "", "Initial registers (r0=1,r1=0x10,...)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI monitor")
		verbose     = flag.Bool("v", false, "Log engine internals to stderr")
	)
	flag.Parse()

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer l.Sync()
		engine.SetLogger(l)
	}

	if *image == "" {
		fmt.Fprintln(os.Stderr, "Usage: armrun -image <file.bin> [-addr a] [-entry e] [-ticks n] [-regs r0=1,...]")
		fmt.Fprintln(os.Stderr, "       armrun -image <file.bin> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*image, uint32(*addr), uint32(*entry), *ticks); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*image, uint32(*addr), uint32(*entry), *ticks, *regs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// haltSVC stops the guest on any system call and remembers which ones
// fired. Good enough for bare-metal test images.
type haltSVC struct {
	calls []uint32
}

func (s *haltSVC) HandleSVC(core *exec.Core, swi uint32) {
	s.calls = append(s.calls, swi)
	core.Halt()
}

func run(image string, addr, entry uint32, ticks uint64, regSpec string) error {
	ctx := context.Background()

	svc := &haltSVC{}
	e, err := exec.New(exec.Config{SVC: svc, Ticks: ticks, DirectMap: true})
	if err != nil {
		return fmt.Errorf("create executor: %w", err)
	}
	defer e.Close()

	core := e.Core()
	if err := loadImage(core, image, addr); err != nil {
		return err
	}

	if err := applyRegs(core, regSpec); err != nil {
		return err
	}
	if entry == 0 {
		entry = addr
	}
	core.Regs()[15] = entry

	fmt.Printf("Image: %s\n", image)
	fmt.Printf("Entry: %#x, budget: %d ticks\n\n", entry, ticks)

	runErr := e.Run(ctx)

	printState(os.Stdout, core, e.Ticks())
	if len(svc.calls) > 0 {
		fmt.Printf("\nSVC trace: %v\n", svc.calls)
	}
	if runErr != nil {
		return fmt.Errorf("run: %w", runErr)
	}
	return nil
}

// loadImage maps enough zeroed RAM for the image and copies it in.
func loadImage(core *exec.Core, path string, addr uint32) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if addr%engine.PageSize != 0 {
		return fmt.Errorf("load address %#x is not page-aligned", addr)
	}

	pages := uint32((len(data) + engine.PageSize - 1) / engine.PageSize)
	if pages == 0 {
		pages = 1
	}
	if err := core.Map(addr, pages, false); err != nil {
		return fmt.Errorf("map image: %w", err)
	}
	for i, b := range data {
		if err := core.Write8(addr+uint32(i), b); err != nil {
			return fmt.Errorf("copy image: %w", err)
		}
	}
	return nil
}

// applyRegs parses "r0=1,r1=0x10,pc=0x8000" into the register file.
func applyRegs(core *exec.Core, spec string) error {
	if spec == "" {
		return nil
	}
	for _, kv := range strings.Split(spec, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("bad register assignment %q", kv)
		}
		idx, err := regIndex(parts[0])
		if err != nil {
			return err
		}
		v, err := strconv.ParseUint(parts[1], 0, 32)
		if err != nil {
			return fmt.Errorf("bad register value %q: %w", kv, err)
		}
		core.Regs()[idx] = uint32(v)
	}
	return nil
}

func regIndex(name string) (int, error) {
	switch strings.ToLower(name) {
	case "sp":
		return 13, nil
	case "lr":
		return 14, nil
	case "pc":
		return 15, nil
	}
	if strings.HasPrefix(name, "r") || strings.HasPrefix(name, "R") {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 0 && n <= 15 {
			return n, nil
		}
	}
	return 0, fmt.Errorf("unknown register %q", name)
}

var regNameStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#87CEEB"))

func printState(w *os.File, core *exec.Core, ticksLeft uint64) {
	colored := term.IsTerminal(int(w.Fd()))
	name := func(s string) string {
		if colored {
			return regNameStyle.Render(s)
		}
		return s
	}

	names := []string{
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc",
	}
	r := core.Regs()
	for i := range r {
		fmt.Fprintf(w, "%s=%08x  ", name(fmt.Sprintf("%3s", names[i])), r[i])
		if i%4 == 3 {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(w, "%s=%08x  %s=%08x  ticks left: %d\n",
		name("cpsr"), core.Cpsr(), name("fpscr"), core.Fpscr(), ticksLeft)
}
