package interp

import (
	"github.com/emustack/armjit/engine"
	"github.com/emustack/armjit/errors"
)

// slot returns the coprocessor addressed by instr, or nil when the
// number is uninstalled. Uninstalled coprocessors raise the standard
// undefined-instruction trap at the instruction's address.
func (j *Jit) slot(instr uint32) engine.Coprocessor {
	return j.cfg.Coprocessors[(instr>>8)&0xF]
}

// decodeInternalOperation handles CDP/CDP2. The baked callback receives
// the full instruction word as its first operand.
func (j *Jit) decodeInternalOperation(pc, instr uint32, two bool) (op, bool, error) {
	cp := j.slot(instr)
	if cp == nil {
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	}

	opc1 := (instr >> 20) & 0xF
	crn := engine.Reg((instr >> 16) & 0xF)
	crd := engine.Reg((instr >> 12) & 0xF)
	opc2 := (instr >> 5) & 0x7
	crm := engine.Reg(instr & 0xF)

	cb, ok := cp.CompileInternalOperation(two, opc1, crd, crn, crm, opc2).Get()
	if !ok {
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	}
	return func(j *Jit) {
		cb.Fn(j, cb.Data, instr, 0)
		j.regs[15] = pc + 4
	}, false, nil
}

// decodeOneWordMove handles MCR/MRC and their two-variants: one word
// between core register Rt and the coprocessor.
func (j *Jit) decodeOneWordMove(pc, instr uint32, two bool) (op, bool, error) {
	cp := j.slot(instr)
	if cp == nil {
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	}

	load := (instr>>20)&1 == 1 // MRC
	opc1 := (instr >> 21) & 0x7
	crn := engine.Reg((instr >> 16) & 0xF)
	rt := (instr >> 12) & 0xF
	opc2 := (instr >> 5) & 0x7
	crm := engine.Reg(instr & 0xF)

	var res engine.OneWordResult
	var name string
	if load {
		res = cp.CompileGetOneWord(two, opc1, crn, crm, opc2)
		name = "CompileGetOneWord"
	} else {
		res = cp.CompileSendOneWord(two, opc1, crn, crm, opc2)
		name = "CompileSendOneWord"
	}
	if !res.Valid() {
		return nil, false, errors.InvalidVariant(errors.PhaseCoproc, name)
	}

	switch res.Tag() {
	case engine.TagNone:
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	case engine.TagCallback:
		cb, _ := res.Callback()
		if load {
			return func(j *Jit) {
				j.regs[rt] = uint32(cb.Fn(j, cb.Data, 0, 0))
				j.regs[15] = pc + 4
			}, false, nil
		}
		return func(j *Jit) {
			cb.Fn(j, cb.Data, j.regs[rt], 0)
			j.regs[15] = pc + 4
		}, false, nil
	default: // TagAccess
		ptr, _ := res.Access()
		if load {
			return func(j *Jit) {
				j.regs[rt] = *ptr
				j.regs[15] = pc + 4
			}, false, nil
		}
		return func(j *Jit) {
			*ptr = j.regs[rt]
			j.regs[15] = pc + 4
		}, false, nil
	}
}

// decodeTwoWordMove handles MCRR/MRRC and their two-variants: a word
// pair between Rt/Rt2 and the coprocessor, moved as one unit.
func (j *Jit) decodeTwoWordMove(pc, instr uint32, two bool) (op, bool, error) {
	cp := j.slot(instr)
	if cp == nil {
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	}

	load := (instr>>20)&1 == 1 // MRRC
	rt2 := (instr >> 16) & 0xF
	rt := (instr >> 12) & 0xF
	opc := (instr >> 4) & 0xF
	crm := engine.Reg(instr & 0xF)

	var res engine.TwoWordsResult
	var name string
	if load {
		res = cp.CompileGetTwoWords(two, opc, crm)
		name = "CompileGetTwoWords"
	} else {
		res = cp.CompileSendTwoWords(two, opc, crm)
		name = "CompileSendTwoWords"
	}
	if !res.Valid() {
		return nil, false, errors.InvalidVariant(errors.PhaseCoproc, name)
	}

	switch res.Tag() {
	case engine.TagNone:
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	case engine.TagCallback:
		cb, _ := res.Callback()
		if load {
			return func(j *Jit) {
				v := cb.Fn(j, cb.Data, 0, 0)
				j.regs[rt] = uint32(v)
				j.regs[rt2] = uint32(v >> 32)
				j.regs[15] = pc + 4
			}, false, nil
		}
		return func(j *Jit) {
			cb.Fn(j, cb.Data, j.regs[rt], j.regs[rt2])
			j.regs[15] = pc + 4
		}, false, nil
	default: // TagAccess
		pair, _ := res.Access()
		if load {
			return func(j *Jit) {
				j.regs[rt] = *pair[0]
				j.regs[rt2] = *pair[1]
				j.regs[15] = pc + 4
			}, false, nil
		}
		return func(j *Jit) {
			*pair[0] = j.regs[rt]
			*pair[1] = j.regs[rt2]
			j.regs[15] = pc + 4
		}, false, nil
	}
}

// decodeWordsTransfer handles LDC/STC block transfers. The baked
// callback receives the transfer address as its first operand.
func (j *Jit) decodeWordsTransfer(pc, instr uint32, two bool) (op, bool, error) {
	cp := j.slot(instr)
	if cp == nil {
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	}

	pre := (instr>>24)&1 == 1
	up := (instr>>23)&1 == 1
	long := (instr>>22)&1 == 1
	writeback := (instr>>21)&1 == 1
	load := (instr>>20)&1 == 1
	rn := (instr >> 16) & 0xF
	crd := engine.Reg((instr >> 12) & 0xF)
	imm8 := instr & 0xFF

	option := engine.None[uint8]()
	if !pre && !writeback {
		if !up {
			return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
		}
		// Unindexed form: the immediate is an addressing option, not an
		// offset.
		option = engine.Some(uint8(imm8))
	}

	var cb engine.Callback
	var ok bool
	if load {
		cb, ok = cp.CompileLoadWords(two, long, crd, option).Get()
	} else {
		cb, ok = cp.CompileStoreWords(two, long, crd, option).Get()
	}
	if !ok {
		return undefOp(pc, engine.ExceptionUndefinedInstruction), true, nil
	}

	offset := imm8 * 4
	return func(j *Jit) {
		base := j.reg(rn, pc)
		addr := base
		if pre {
			if up {
				addr = base + offset
			} else {
				addr = base - offset
			}
		}
		cb.Fn(j, cb.Data, addr, 0)
		if writeback && rn != 15 {
			if pre {
				j.regs[rn] = addr
			} else if up {
				j.regs[rn] = base + offset
			} else {
				j.regs[rn] = base - offset
			}
		}
		j.regs[15] = pc + 4
	}, false, nil
}
