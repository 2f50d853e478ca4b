package memory

import (
	"encoding/binary"
	"sort"

	"github.com/emustack/armjit/engine"
	"github.com/emustack/armjit/errors"
)

const pageMask = engine.PageSize - 1

// IOPage handles accesses to a memory-mapped IO region. Offsets are
// relative to the span start; b holds the access bytes, little-endian.
type IOPage interface {
	Read(offset uint32, b []byte)
	Write(offset uint32, b []byte)
}

// span is one mapped region, page-aligned and sized in whole pages.
type span struct {
	startPage uint32
	pages     uint32
	readOnly  bool
	backing   []byte // nil for IO spans
	io        IOPage
}

// Memory is a span-based guest address space: page-aligned RAM and IO
// regions over a sparse 32-bit range. Accesses are forced to natural
// alignment, matching the engine's direct path.
//
// Not safe for concurrent use; the bridge's execution model is
// single-threaded.
type Memory struct {
	spans []*span // sorted by startPage, non-overlapping
}

func New() *Memory {
	return &Memory{}
}

// lookup returns the span covering page, or nil.
func (m *Memory) lookup(page uint32) *span {
	i := sort.Search(len(m.spans), func(i int) bool {
		return m.spans[i].startPage > page
	})
	if i == 0 {
		return nil
	}
	s := m.spans[i-1]
	if s.startPage+s.pages <= page {
		return nil
	}
	return s
}

func (m *Memory) insert(s *span) error {
	for p := s.startPage; p < s.startPage+s.pages; p++ {
		if m.lookup(p) != nil {
			return errors.InvalidInput(errors.PhaseMemory, "mapping overlaps an existing span")
		}
	}
	i := sort.Search(len(m.spans), func(i int) bool {
		return m.spans[i].startPage > s.startPage
	})
	m.spans = append(m.spans, nil)
	copy(m.spans[i+1:], m.spans[i:])
	m.spans[i] = s
	return nil
}

// Map backs [addr, addr+pages*PageSize) with zeroed RAM. addr must be
// page-aligned and the range must not overlap an existing span.
func (m *Memory) Map(addr uint32, pages uint32, readOnly bool) error {
	if addr&pageMask != 0 {
		return errors.InvalidInput(errors.PhaseMemory, "mapping address is not page-aligned")
	}
	if pages == 0 {
		return errors.InvalidInput(errors.PhaseMemory, "mapping needs at least one page")
	}
	return m.insert(&span{
		startPage: addr >> engine.PageBits,
		pages:     pages,
		readOnly:  readOnly,
		backing:   make([]byte, pages<<engine.PageBits),
	})
}

// MapIO routes [addr, addr+pages*PageSize) to handler.
func (m *Memory) MapIO(addr uint32, pages uint32, handler IOPage) error {
	if addr&pageMask != 0 {
		return errors.InvalidInput(errors.PhaseMemory, "mapping address is not page-aligned")
	}
	if pages == 0 || handler == nil {
		return errors.InvalidInput(errors.PhaseMemory, "IO mapping needs pages and a handler")
	}
	return m.insert(&span{
		startPage: addr >> engine.PageBits,
		pages:     pages,
		io:        handler,
	})
}

// IsMapped reports whether any span covers addr.
func (m *Memory) IsMapped(addr uint32) bool {
	return m.lookup(addr>>engine.PageBits) != nil
}

// IsReadOnly reports whether addr lies in a read-only span. Unmapped
// addresses report false.
func (m *Memory) IsReadOnly(addr uint32) bool {
	s := m.lookup(addr >> engine.PageBits)
	return s != nil && s.readOnly
}

// offset converts addr to a byte offset within s, aligned to size.
func (s *span) offset(addr, size uint32) uint32 {
	page := addr >> engine.PageBits
	return (page-s.startPage)<<engine.PageBits | (addr & pageMask &^ (size - 1))
}

func (m *Memory) access(addr, size uint32) (*span, uint32, error) {
	s := m.lookup(addr >> engine.PageBits)
	if s == nil {
		return nil, 0, errors.Unmapped(errors.PhaseMemory, addr)
	}
	return s, s.offset(addr, size), nil
}

func (m *Memory) read(addr, size uint32, b []byte) error {
	s, off, err := m.access(addr, size)
	if err != nil {
		return err
	}
	if s.io != nil {
		s.io.Read(off, b)
		return nil
	}
	copy(b, s.backing[off:])
	return nil
}

func (m *Memory) write(addr, size uint32, b []byte) error {
	s, off, err := m.access(addr, size)
	if err != nil {
		return err
	}
	if s.io != nil {
		s.io.Write(off, b)
		return nil
	}
	copy(s.backing[off:], b)
	return nil
}

func (m *Memory) Read8(addr uint32) (uint8, error) {
	var b [1]byte
	err := m.read(addr, 1, b[:])
	return b[0], err
}

func (m *Memory) Read16(addr uint32) (uint16, error) {
	var b [2]byte
	err := m.read(addr, 2, b[:])
	return binary.LittleEndian.Uint16(b[:]), err
}

func (m *Memory) Read32(addr uint32) (uint32, error) {
	var b [4]byte
	err := m.read(addr, 4, b[:])
	return binary.LittleEndian.Uint32(b[:]), err
}

func (m *Memory) Read64(addr uint32) (uint64, error) {
	var b [8]byte
	err := m.read(addr, 8, b[:])
	return binary.LittleEndian.Uint64(b[:]), err
}

func (m *Memory) Write8(addr uint32, v uint8) error {
	return m.write(addr, 1, []byte{v})
}

func (m *Memory) Write16(addr uint32, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return m.write(addr, 2, b[:])
}

func (m *Memory) Write32(addr uint32, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return m.write(addr, 4, b[:])
}

func (m *Memory) Write64(addr uint32, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return m.write(addr, 8, b[:])
}

// FillPageTable installs every writable RAM span into pt so the engine
// can access it directly, bypassing callback dispatch. IO and read-only
// spans stay on the callback path.
func (m *Memory) FillPageTable(pt *engine.PageTable) {
	for _, s := range m.spans {
		if s.io != nil || s.readOnly {
			continue
		}
		for p := uint32(0); p < s.pages; p++ {
			off := p << engine.PageBits
			pt[s.startPage+p] = s.backing[off : off+engine.PageSize]
		}
	}
}
