// decode.go - instruction field extraction and opcode/function constants
// for the MIPS-subset ISA. Field layouts and sign-extension rules follow
// spec.md §4.3 exactly; the R-form function codes are disambiguated per
// that section's table where the original source had colliding arms.

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package cpu

// Opcodes (bits 31-26 of the instruction word).
const (
	opR     = 0x00 // register-format instructions, dispatched by function code
	opJ     = 0x02
	opJAL   = 0x03
	opBEQ   = 0x04
	opBNE   = 0x05
	opBLEZ  = 0x06
	opBGTZ  = 0x07
	opADDI  = 0x08
	opADDIU = 0x09
	opSLTI  = 0x0A
	opSLTIU = 0x0B
	opANDI  = 0x0C
	opORI   = 0x0D
	opXORI  = 0x0E
	opLLO   = 0x18
	opLHI   = 0x19
	opTRAP  = 0x1A
	opLB    = 0x20
	opLH    = 0x21
	opLW    = 0x23
	opLBU   = 0x24
	opLHU   = 0x25
	opSB    = 0x28
	opSH    = 0x29
	opSW    = 0x2B
)

// R-form function codes (bits 5-0 when opcode == opR).
const (
	fnSLL   = 0x00
	fnSRL   = 0x02
	fnSRA   = 0x03
	fnSLLV  = 0x04
	fnSRLV  = 0x06
	fnSRAV  = 0x07
	fnJR    = 0x08
	fnJALR  = 0x09
	fnMFHI  = 0x10
	fnMTHI  = 0x11
	fnMFLO  = 0x12
	fnMTLO  = 0x13
	fnMULT  = 0x18
	fnMULTU = 0x19
	fnDIV   = 0x1A
	fnDIVU  = 0x1B
	fnADD   = 0x20
	fnADDU  = 0x21
	fnSUB   = 0x22
	fnSUBU  = 0x23
	fnAND   = 0x24
	fnOR    = 0x25
	fnXOR   = 0x26
	fnNOR   = 0x27
	fnSLTU  = 0x29
	fnSLT   = 0x2A
)

type fields struct {
	rs, rt, rd, sh, fn uint32
	imm16              uint32
	addr26             uint32
}

func decode(op uint32) fields {
	return fields{
		rs:     (op >> 21) & 0x1F,
		rt:     (op >> 16) & 0x1F,
		rd:     (op >> 11) & 0x1F,
		sh:     (op >> 6) & 0x1F,
		fn:     op & 0x3F,
		imm16:  op & 0xFFFF,
		addr26: op & 0x03FFFFFF,
	}
}

// immSigned sign-extends a 16-bit immediate: ((imm16 << 16) as i32) >> 16.
func immSigned(imm16 uint32) int32 {
	return int32(imm16<<16) >> 16
}

// immBranch sign-extends and scales a 16-bit branch/offset immediate by 4:
// ((imm16 << 16) as i32) >> 14.
func immBranch(imm16 uint32) int32 {
	return int32(imm16<<16) >> 14
}

// immUnsigned zero-extends a 16-bit immediate.
func immUnsigned(imm16 uint32) uint32 {
	return imm16 & 0xFFFF
}

// immUpper places a 16-bit immediate in the high half of a word.
func immUpper(imm16 uint32) uint32 {
	return imm16 << 16
}

// jumpOffset turns a 26-bit jump target field into a signed, word-scaled
// PC-relative offset: ((addr26 << 6) as i32) >> 4.
func jumpOffset(addr26 uint32) int32 {
	return int32(addr26<<6) >> 4
}
