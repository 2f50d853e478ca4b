package interp

import (
	"go.uber.org/zap"

	"github.com/emustack/armjit/engine"
)

// op is one translated instruction. Every op is responsible for its own
// register-file updates, including the PC.
type op func(j *Jit)

type block struct {
	start uint32
	ops   []op
}

// Blocks end at branches, traps and SVCs, or after this many
// instructions.
const maxBlockLen = 16

const thumbBit = 1 << 5

// translate builds and caches the block starting at start. Coprocessor
// compile queries run here, once, and their results are baked into the
// ops. IsReadOnlyMemory decides whether the block needs store
// invalidation tracking.
func (j *Jit) translate(start uint32) (*block, error) {
	if j.cpsr&thumbBit != 0 {
		// No Thumb decoder is wired; hand the instruction to the
		// interpreter fallback and stop, in case the handler returns.
		b := &block{start: start, ops: []op{func(j *Jit) {
			j.cfg.Callbacks.InterpreterFallback(start, 1)
			j.halted = true
		}}}
		return b, nil
	}

	b := &block{start: start}
	pc := start
	for len(b.ops) < maxBlockLen {
		instr := j.read32(pc)
		o, end, err := j.decode(pc, instr)
		if err != nil {
			return nil, err
		}
		b.ops = append(b.ops, o)
		pc += 4
		if end {
			break
		}
	}

	j.blocks[start] = b
	if !j.cfg.Callbacks.IsReadOnlyMemory(start) {
		for page := start >> engine.PageBits; page <= (pc-1)>>engine.PageBits; page++ {
			j.writablePages[page] = append(j.writablePages[page], start)
		}
	}

	engine.Logger().Debug("translated block",
		zap.Uint32("pc", start), zap.Int("instructions", len(b.ops)))
	return b, nil
}

// reg reads register r as an operand at pc; the PC operand reads as the
// instruction address plus 8.
func (j *Jit) reg(r, pc uint32) uint32 {
	if r == 15 {
		return pc + 8
	}
	return j.regs[r]
}

func undefOp(pc uint32, exc engine.Exception) op {
	return func(j *Jit) {
		j.cfg.Callbacks.ExceptionRaised(pc, exc)
		j.regs[15] = pc + 4
	}
}

// decode translates one A32 instruction word into an op. The second
// result reports whether the instruction ends its block. Instructions
// outside the supported subset become undefined-instruction traps.
func (j *Jit) decode(pc, instr uint32) (op, bool, error) {
	cond := instr >> 28
	two := cond == 0xF

	if cond != 0xE && !two {
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	}

	switch {
	case (instr>>21)&0x7F == 0x62:
		return j.decodeTwoWordMove(pc, instr, two)
	case (instr>>24)&0xF == 0xE:
		if (instr>>4)&1 == 0 {
			return j.decodeInternalOperation(pc, instr, two)
		}
		return j.decodeOneWordMove(pc, instr, two)
	case (instr>>25)&0x7 == 0b110:
		return j.decodeWordsTransfer(pc, instr, two)
	case two:
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	case (instr>>24)&0xF == 0xF:
		swi := instr & 0xFFFFFF
		return func(j *Jit) {
			j.cfg.Callbacks.CallSVC(swi)
			j.regs[15] = pc + 4
		}, true, nil
	case (instr>>25)&0x7 == 0b101:
		return decodeBranch(pc, instr), true, nil
	case (instr>>26)&0x3 == 0b01:
		return j.decodeSingleTransfer(pc, instr)
	case (instr>>26)&0x3 == 0b00:
		return j.decodeDataProcessing(pc, instr)
	default:
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	}
}

func decodeBranch(pc, instr uint32) op {
	offset := uint32(int32(instr<<8) >> 6)
	target := pc + 8 + offset
	link := (instr>>24)&1 == 1
	return func(j *Jit) {
		if link {
			j.regs[14] = pc + 4
		}
		j.regs[15] = target
	}
}

func (j *Jit) decodeSingleTransfer(pc, instr uint32) (op, bool, error) {
	immediate := (instr>>25)&1 == 0
	pre := (instr>>24)&1 == 1
	up := (instr>>23)&1 == 1
	byteWidth := (instr>>22)&1 == 1
	writeback := (instr>>21)&1 == 1
	load := (instr>>20)&1 == 1
	rn := (instr >> 16) & 0xF
	rd := (instr >> 12) & 0xF
	imm := instr & 0xFFF

	// Register offsets, writeback and PC destinations are outside the
	// supported subset.
	if !immediate || !pre || writeback || rd == 15 {
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	}

	return func(j *Jit) {
		addr := j.reg(rn, pc)
		if up {
			addr += imm
		} else {
			addr -= imm
		}
		switch {
		case load && byteWidth:
			j.regs[rd] = uint32(j.read8(addr))
		case load:
			j.regs[rd] = j.read32(addr)
		case byteWidth:
			j.write8(addr, uint8(j.regs[rd]))
		default:
			j.write32(addr, j.regs[rd])
		}
		j.regs[15] = pc + 4
	}, false, nil
}

// Data-processing opcodes in the supported subset.
const (
	opSub = 0x2
	opAdd = 0x4
	opMov = 0xD
)

func (j *Jit) decodeDataProcessing(pc, instr uint32) (op, bool, error) {
	immediate := (instr>>25)&1 == 1
	opcode := (instr >> 21) & 0xF
	setFlags := (instr>>20)&1 == 1
	rn := (instr >> 16) & 0xF
	rd := (instr >> 12) & 0xF

	if opcode != opMov && opcode != opAdd && opcode != opSub {
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	}
	if rd == 15 {
		return undefOp(pc, engine.ExceptionUnpredictableInstruction), true, nil
	}

	// operand2 evaluates the shifter operand and its carry-out.
	var operand2 func(j *Jit) (uint32, bool)
	switch {
	case immediate:
		rot := (instr >> 8) & 0xF
		imm := instr & 0xFF
		val := imm>>(2*rot) | imm<<(32-2*rot)
		carry := rot != 0 && val>>31 == 1
		operand2 = func(*Jit) (uint32, bool) { return val, carry }
	case (instr>>4)&1 == 0 && (instr>>5)&0x3 == 0: // LSL by immediate
		rm := instr & 0xF
		shift := (instr >> 7) & 0x1F
		operand2 = func(j *Jit) (uint32, bool) {
			v := j.reg(rm, pc)
			if shift == 0 {
				return v, false
			}
			return v << shift, (v>>(32-shift))&1 == 1
		}
	default:
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	}

	return func(j *Jit) {
		v, carry := operand2(j)
		var result uint32
		switch opcode {
		case opMov:
			result = v
		case opAdd:
			result = j.reg(rn, pc) + v
		case opSub:
			result = j.reg(rn, pc) - v
		}
		j.regs[rd] = result
		if setFlags {
			j.setNZC(result, carry)
		}
		j.regs[15] = pc + 4
	}, false, nil
}

const (
	flagN = 1 << 31
	flagZ = 1 << 30
	flagC = 1 << 29
)

func (j *Jit) setNZC(result uint32, carry bool) {
	j.cpsr &^= flagN | flagZ | flagC
	if result>>31 == 1 {
		j.cpsr |= flagN
	}
	if result == 0 {
		j.cpsr |= flagZ
	}
	if carry {
		j.cpsr |= flagC
	}
}
