package classfile

import "fmt"

// Opcode is a JVM bytecode opcode.
type Opcode byte

// Constant opcodes
const (
	OpNop        Opcode = 0x00
	OpAconstNull Opcode = 0x01
	OpIconstM1   Opcode = 0x02
	OpIconst0    Opcode = 0x03
	OpIconst1    Opcode = 0x04
	OpIconst2    Opcode = 0x05
	OpIconst3    Opcode = 0x06
	OpIconst4    Opcode = 0x07
	OpIconst5    Opcode = 0x08
	OpLconst0    Opcode = 0x09
	OpLconst1    Opcode = 0x0A
	OpFconst0    Opcode = 0x0B
	OpFconst1    Opcode = 0x0C
	OpFconst2    Opcode = 0x0D
	OpDconst0    Opcode = 0x0E
	OpDconst1    Opcode = 0x0F
	OpBipush     Opcode = 0x10
	OpSipush     Opcode = 0x11
	OpLdc        Opcode = 0x12
	OpLdcW       Opcode = 0x13
	OpLdc2W      Opcode = 0x14
)

// Load opcodes
const (
	OpIload  Opcode = 0x15
	OpLload  Opcode = 0x16
	OpFload  Opcode = 0x17
	OpDload  Opcode = 0x18
	OpAload  Opcode = 0x19
	OpIload0 Opcode = 0x1A
	OpLload0 Opcode = 0x1E
	OpFload0 Opcode = 0x22
	OpDload0 Opcode = 0x26
	OpAload0 Opcode = 0x2A
	OpIaload Opcode = 0x2E
	OpLaload Opcode = 0x2F
	OpFaload Opcode = 0x30
	OpDaload Opcode = 0x31
	OpAaload Opcode = 0x32
	OpBaload Opcode = 0x33
	OpCaload Opcode = 0x34
	OpSaload Opcode = 0x35
)

// Store opcodes
const (
	OpIstore  Opcode = 0x36
	OpLstore  Opcode = 0x37
	OpFstore  Opcode = 0x38
	OpDstore  Opcode = 0x39
	OpAstore  Opcode = 0x3A
	OpIstore0 Opcode = 0x3B
	OpLstore0 Opcode = 0x3F
	OpFstore0 Opcode = 0x43
	OpDstore0 Opcode = 0x47
	OpAstore0 Opcode = 0x4B
	OpIastore Opcode = 0x4F
	OpLastore Opcode = 0x50
	OpFastore Opcode = 0x51
	OpDastore Opcode = 0x52
	OpAastore Opcode = 0x53
	OpBastore Opcode = 0x54
	OpCastore Opcode = 0x55
	OpSastore Opcode = 0x56
)

// Stack opcodes
const (
	OpPop    Opcode = 0x57
	OpPop2   Opcode = 0x58
	OpDup    Opcode = 0x59
	OpDupX1  Opcode = 0x5A
	OpDupX2  Opcode = 0x5B
	OpDup2   Opcode = 0x5C
	OpDup2X1 Opcode = 0x5D
	OpDup2X2 Opcode = 0x5E
	OpSwap   Opcode = 0x5F
)

// Arithmetic opcodes
const (
	OpIadd  Opcode = 0x60
	OpLadd  Opcode = 0x61
	OpFadd  Opcode = 0x62
	OpDadd  Opcode = 0x63
	OpIsub  Opcode = 0x64
	OpLsub  Opcode = 0x65
	OpFsub  Opcode = 0x66
	OpDsub  Opcode = 0x67
	OpImul  Opcode = 0x68
	OpLmul  Opcode = 0x69
	OpFmul  Opcode = 0x6A
	OpDmul  Opcode = 0x6B
	OpIdiv  Opcode = 0x6C
	OpLdiv  Opcode = 0x6D
	OpFdiv  Opcode = 0x6E
	OpDdiv  Opcode = 0x6F
	OpIrem  Opcode = 0x70
	OpLrem  Opcode = 0x71
	OpFrem  Opcode = 0x72
	OpDrem  Opcode = 0x73
	OpIneg  Opcode = 0x74
	OpLneg  Opcode = 0x75
	OpFneg  Opcode = 0x76
	OpDneg  Opcode = 0x77
	OpIshl  Opcode = 0x78
	OpLshl  Opcode = 0x79
	OpIshr  Opcode = 0x7A
	OpLshr  Opcode = 0x7B
	OpIushr Opcode = 0x7C
	OpLushr Opcode = 0x7D
	OpIand  Opcode = 0x7E
	OpLand  Opcode = 0x7F
	OpIor   Opcode = 0x80
	OpLor   Opcode = 0x81
	OpIxor  Opcode = 0x82
	OpLxor  Opcode = 0x83
	OpIinc  Opcode = 0x84
)

// Conversion and comparison opcodes
const (
	OpI2l   Opcode = 0x85
	OpI2f   Opcode = 0x86
	OpI2d   Opcode = 0x87
	OpL2i   Opcode = 0x88
	OpL2f   Opcode = 0x89
	OpL2d   Opcode = 0x8A
	OpF2i   Opcode = 0x8B
	OpF2l   Opcode = 0x8C
	OpF2d   Opcode = 0x8D
	OpD2i   Opcode = 0x8E
	OpD2l   Opcode = 0x8F
	OpD2f   Opcode = 0x90
	OpI2b   Opcode = 0x91
	OpI2c   Opcode = 0x92
	OpI2s   Opcode = 0x93
	OpLcmp  Opcode = 0x94
	OpFcmpl Opcode = 0x95
	OpFcmpg Opcode = 0x96
	OpDcmpl Opcode = 0x97
	OpDcmpg Opcode = 0x98
)

// Control opcodes
const (
	OpIfeq      Opcode = 0x99
	OpIfne      Opcode = 0x9A
	OpIflt      Opcode = 0x9B
	OpIfge      Opcode = 0x9C
	OpIfgt      Opcode = 0x9D
	OpIfle      Opcode = 0x9E
	OpIfIcmpeq  Opcode = 0x9F
	OpIfIcmpne  Opcode = 0xA0
	OpIfIcmplt  Opcode = 0xA1
	OpIfIcmpge  Opcode = 0xA2
	OpIfIcmpgt  Opcode = 0xA3
	OpIfIcmple  Opcode = 0xA4
	OpIfAcmpeq  Opcode = 0xA5
	OpIfAcmpne  Opcode = 0xA6
	OpGoto      Opcode = 0xA7
	OpIreturn   Opcode = 0xAC
	OpLreturn   Opcode = 0xAD
	OpFreturn   Opcode = 0xAE
	OpDreturn   Opcode = 0xAF
	OpAreturn   Opcode = 0xB0
	OpReturn    Opcode = 0xB1
	OpIfnull    Opcode = 0xC6
	OpIfnonnull Opcode = 0xC7
	OpGotoW     Opcode = 0xC8
)

// Reference opcodes
const (
	OpGetstatic       Opcode = 0xB2
	OpPutstatic       Opcode = 0xB3
	OpGetfield        Opcode = 0xB4
	OpPutfield        Opcode = 0xB5
	OpInvokevirtual   Opcode = 0xB6
	OpInvokespecial   Opcode = 0xB7
	OpInvokestatic    Opcode = 0xB8
	OpInvokeinterface Opcode = 0xB9
	OpNew             Opcode = 0xBB
	OpNewarray        Opcode = 0xBC
	OpAnewarray       Opcode = 0xBD
	OpArraylength     Opcode = 0xBE
	OpAthrow          Opcode = 0xBF
	OpCheckcast       Opcode = 0xC0
	OpInstanceof      Opcode = 0xC1
	OpMonitorenter    Opcode = 0xC2
	OpMonitorexit     Opcode = 0xC3
	OpWide            Opcode = 0xC4
)

// OpcodeKind groups opcodes by the instruction element that carries them.
type OpcodeKind byte

const (
	KindUnsupportedOp OpcodeKind = iota
	KindOperator
	KindConstant
	KindPush
	KindLoad
	KindStore
	KindIncrement
	KindBranch
	KindReturn
	KindField
	KindInvoke
	KindType
	KindNewPrimitiveArray
)

type opcodeInfo struct {
	name  string
	kind  OpcodeKind
	delta int8 // stack slots after minus before; variable kinds compute it
}

var opcodeTable [256]opcodeInfo

func def(op Opcode, name string, kind OpcodeKind, delta int8) {
	opcodeTable[op] = opcodeInfo{name: name, kind: kind, delta: delta}
}

func init() {
	def(OpNop, "nop", KindOperator, 0)
	def(OpAconstNull, "aconst_null", KindConstant, 1)
	for i, n := range []string{"iconst_m1", "iconst_0", "iconst_1", "iconst_2", "iconst_3", "iconst_4", "iconst_5"} {
		def(OpIconstM1+Opcode(i), n, KindConstant, 1)
	}
	def(OpLconst0, "lconst_0", KindConstant, 2)
	def(OpLconst1, "lconst_1", KindConstant, 2)
	def(OpFconst0, "fconst_0", KindConstant, 1)
	def(OpFconst1, "fconst_1", KindConstant, 1)
	def(OpFconst2, "fconst_2", KindConstant, 1)
	def(OpDconst0, "dconst_0", KindConstant, 2)
	def(OpDconst1, "dconst_1", KindConstant, 2)
	def(OpBipush, "bipush", KindPush, 1)
	def(OpSipush, "sipush", KindPush, 1)
	def(OpLdc, "ldc", KindConstant, 1)
	def(OpLdcW, "ldc_w", KindConstant, 1)
	def(OpLdc2W, "ldc2_w", KindConstant, 2)

	for i, p := range []string{"i", "l", "f", "d", "a"} {
		w := int8(1)
		if p == "l" || p == "d" {
			w = 2
		}
		def(OpIload+Opcode(i), p+"load", KindLoad, w)
		def(OpIstore+Opcode(i), p+"store", KindStore, -w)
		for n := 0; n < 4; n++ {
			def(OpIload0+Opcode(4*i+n), fmt.Sprintf("%sload_%d", p, n), KindLoad, w)
			def(OpIstore0+Opcode(4*i+n), fmt.Sprintf("%sstore_%d", p, n), KindStore, -w)
		}
	}
	arrays := []struct {
		p     string
		load  int8
		store int8
	}{{"i", -1, -3}, {"l", 0, -4}, {"f", -1, -3}, {"d", 0, -4}, {"a", -1, -3}, {"b", -1, -3}, {"c", -1, -3}, {"s", -1, -3}}
	for i, a := range arrays {
		def(OpIaload+Opcode(i), a.p+"aload", KindOperator, a.load)
		def(OpIastore+Opcode(i), a.p+"astore", KindOperator, a.store)
	}

	def(OpPop, "pop", KindOperator, -1)
	def(OpPop2, "pop2", KindOperator, -2)
	def(OpDup, "dup", KindOperator, 1)
	def(OpDupX1, "dup_x1", KindOperator, 1)
	def(OpDupX2, "dup_x2", KindOperator, 1)
	def(OpDup2, "dup2", KindOperator, 2)
	def(OpDup2X1, "dup2_x1", KindOperator, 2)
	def(OpDup2X2, "dup2_x2", KindOperator, 2)
	def(OpSwap, "swap", KindOperator, 0)

	// binary arithmetic: i, l, f, d in turn
	for i, name := range []string{"add", "sub", "mul", "div", "rem"} {
		def(OpIadd+Opcode(4*i), "i"+name, KindOperator, -1)
		def(OpLadd+Opcode(4*i), "l"+name, KindOperator, -2)
		def(OpFadd+Opcode(4*i), "f"+name, KindOperator, -1)
		def(OpDadd+Opcode(4*i), "d"+name, KindOperator, -2)
	}
	def(OpIneg, "ineg", KindOperator, 0)
	def(OpLneg, "lneg", KindOperator, 0)
	def(OpFneg, "fneg", KindOperator, 0)
	def(OpDneg, "dneg", KindOperator, 0)
	def(OpIshl, "ishl", KindOperator, -1)
	def(OpLshl, "lshl", KindOperator, -1)
	def(OpIshr, "ishr", KindOperator, -1)
	def(OpLshr, "lshr", KindOperator, -1)
	def(OpIushr, "iushr", KindOperator, -1)
	def(OpLushr, "lushr", KindOperator, -1)
	def(OpIand, "iand", KindOperator, -1)
	def(OpLand, "land", KindOperator, -2)
	def(OpIor, "ior", KindOperator, -1)
	def(OpLor, "lor", KindOperator, -2)
	def(OpIxor, "ixor", KindOperator, -1)
	def(OpLxor, "lxor", KindOperator, -2)
	def(OpIinc, "iinc", KindIncrement, 0)

	def(OpI2l, "i2l", KindOperator, 1)
	def(OpI2f, "i2f", KindOperator, 0)
	def(OpI2d, "i2d", KindOperator, 1)
	def(OpL2i, "l2i", KindOperator, -1)
	def(OpL2f, "l2f", KindOperator, -1)
	def(OpL2d, "l2d", KindOperator, 0)
	def(OpF2i, "f2i", KindOperator, 0)
	def(OpF2l, "f2l", KindOperator, 1)
	def(OpF2d, "f2d", KindOperator, 1)
	def(OpD2i, "d2i", KindOperator, -1)
	def(OpD2l, "d2l", KindOperator, 0)
	def(OpD2f, "d2f", KindOperator, -1)
	def(OpI2b, "i2b", KindOperator, 0)
	def(OpI2c, "i2c", KindOperator, 0)
	def(OpI2s, "i2s", KindOperator, 0)
	def(OpLcmp, "lcmp", KindOperator, -3)
	def(OpFcmpl, "fcmpl", KindOperator, -1)
	def(OpFcmpg, "fcmpg", KindOperator, -1)
	def(OpDcmpl, "dcmpl", KindOperator, -3)
	def(OpDcmpg, "dcmpg", KindOperator, -3)

	for i, name := range []string{"ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle"} {
		def(OpIfeq+Opcode(i), name, KindBranch, -1)
	}
	for i, name := range []string{"if_icmpeq", "if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple", "if_acmpeq", "if_acmpne"} {
		def(OpIfIcmpeq+Opcode(i), name, KindBranch, -2)
	}
	def(OpGoto, "goto", KindBranch, 0)
	def(OpGotoW, "goto_w", KindBranch, 0)
	def(OpIfnull, "ifnull", KindBranch, -1)
	def(OpIfnonnull, "ifnonnull", KindBranch, -1)

	def(OpIreturn, "ireturn", KindReturn, -1)
	def(OpLreturn, "lreturn", KindReturn, -2)
	def(OpFreturn, "freturn", KindReturn, -1)
	def(OpDreturn, "dreturn", KindReturn, -2)
	def(OpAreturn, "areturn", KindReturn, -1)
	def(OpReturn, "return", KindReturn, 0)
	def(OpAthrow, "athrow", KindReturn, -1)

	def(OpGetstatic, "getstatic", KindField, 0)
	def(OpPutstatic, "putstatic", KindField, 0)
	def(OpGetfield, "getfield", KindField, 0)
	def(OpPutfield, "putfield", KindField, 0)
	def(OpInvokevirtual, "invokevirtual", KindInvoke, 0)
	def(OpInvokespecial, "invokespecial", KindInvoke, 0)
	def(OpInvokestatic, "invokestatic", KindInvoke, 0)
	def(OpInvokeinterface, "invokeinterface", KindInvoke, 0)

	def(OpNew, "new", KindType, 1)
	def(OpNewarray, "newarray", KindNewPrimitiveArray, 0)
	def(OpAnewarray, "anewarray", KindType, 0)
	def(OpArraylength, "arraylength", KindOperator, 0)
	def(OpCheckcast, "checkcast", KindType, 0)
	def(OpInstanceof, "instanceof", KindType, 0)
	def(OpMonitorenter, "monitorenter", KindOperator, -1)
	def(OpMonitorexit, "monitorexit", KindOperator, -1)
}

func (op Opcode) String() string {
	if n := opcodeTable[op].name; n != "" {
		return n
	}
	return fmt.Sprintf("opcode(0x%02x)", byte(op))
}

// Kind returns the instruction group of op, or KindUnsupportedOp.
func (op Opcode) Kind() OpcodeKind {
	return opcodeTable[op].kind
}

// OpcodeByName looks up an opcode by its mnemonic.
func OpcodeByName(name string) (Opcode, bool) {
	for i := range opcodeTable {
		if opcodeTable[i].name == name {
			return Opcode(i), true
		}
	}
	return 0, false
}

// unconditional reports whether control never falls through op.
func (op Opcode) unconditional() bool {
	return op == OpGoto || op == OpGotoW || op.Kind() == KindReturn
}

// genericLoadStore maps xload_n / xstore_n to xload / xstore and the slot n.
func genericLoadStore(op Opcode) (Opcode, int, bool) {
	switch {
	case op >= OpIload0 && op < OpIload0+20:
		n := int(op - OpIload0)
		return OpIload + Opcode(n/4), n % 4, true
	case op >= OpIstore0 && op < OpIstore0+20:
		n := int(op - OpIstore0)
		return OpIstore + Opcode(n/4), n % 4, true
	}
	return op, 0, false
}

// slotWidth returns the local slots taken by the value a load or store moves.
func slotWidth(op Opcode) int {
	switch op {
	case OpLload, OpDload, OpLstore, OpDstore:
		return 2
	}
	return 1
}
