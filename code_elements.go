package classfile

import (
	"fmt"
	"math"
)

// Instruction is a code element that encodes to bytecode.
type Instruction interface {
	CodeElement
	Opcode() Opcode
}

// OperatorInstruction is an instruction without operands, such as iadd or
// arraylength. Returns and athrow are operators too.
type OperatorInstruction struct {
	Op Opcode
}

// LoadStoreInstruction moves a local variable to or from the stack. Op is the
// generic form (iload, astore, ...); the compact and wide encodings are chosen
// from Slot.
type LoadStoreInstruction struct {
	Op   Opcode
	Slot int
}

// IncrementInstruction is iinc.
type IncrementInstruction struct {
	Slot  int
	Delta int
}

// PushInstruction is bipush or sipush.
type PushInstruction struct {
	Op    Opcode
	Value int
}

// ConstantInstruction loads a constant. Value is nil (aconst_null), int32,
// int64, float32, float64, string or ClassConstant. A zero Op selects the
// shortest encoding for Value.
type ConstantInstruction struct {
	Value any
	Op    Opcode
}

// ClassConstant is a class literal loaded by ldc.
type ClassConstant struct {
	Name string
}

// BranchInstruction is a conditional or unconditional jump to Target.
type BranchInstruction struct {
	Target Label
	Op     Opcode
}

// TypeInstruction is new, anewarray, checkcast or instanceof on Class.
type TypeInstruction struct {
	Class string
	Op    Opcode
}

// NewPrimitiveArrayInstruction is newarray with an atype code (4 boolean .. 11 long).
type NewPrimitiveArrayInstruction struct {
	TypeCode byte
}

// FieldInstruction accesses a field.
type FieldInstruction struct {
	Owner string
	Name  string
	Desc  string
	Op    Opcode
}

// InvokeInstruction invokes a method. Interface selects an
// InterfaceMethodref for invokestatic and invokespecial; invokeinterface
// always uses one.
type InvokeInstruction struct {
	Owner     string
	Name      string
	Desc      string
	Op        Opcode
	Interface bool
}

// LabelTarget binds Label to the position of the next instruction.
type LabelTarget struct {
	Label Label
}

// ExceptionCatch is an exception table entry. An empty CatchType catches any
// throwable.
type ExceptionCatch struct {
	Start     Label
	End       Label
	Handler   Label
	CatchType string
}

// LocalVariable is a LocalVariableTable entry.
type LocalVariable struct {
	Start Label
	End   Label
	Name  string
	Desc  string
	Slot  int
}

// LineNumber marks the source line of the instructions that follow.
type LineNumber struct {
	Line int
}

func (OperatorInstruction) element()          {}
func (LoadStoreInstruction) element()         {}
func (IncrementInstruction) element()         {}
func (PushInstruction) element()              {}
func (ConstantInstruction) element()          {}
func (BranchInstruction) element()            {}
func (TypeInstruction) element()              {}
func (NewPrimitiveArrayInstruction) element() {}
func (FieldInstruction) element()             {}
func (InvokeInstruction) element()            {}
func (LabelTarget) element()                  {}
func (ExceptionCatch) element()               {}
func (LocalVariable) element()                {}
func (LineNumber) element()                   {}

func (OperatorInstruction) codeElement()          {}
func (LoadStoreInstruction) codeElement()         {}
func (IncrementInstruction) codeElement()         {}
func (PushInstruction) codeElement()              {}
func (ConstantInstruction) codeElement()          {}
func (BranchInstruction) codeElement()            {}
func (TypeInstruction) codeElement()              {}
func (NewPrimitiveArrayInstruction) codeElement() {}
func (FieldInstruction) codeElement()             {}
func (InvokeInstruction) codeElement()            {}
func (LabelTarget) codeElement()                  {}
func (ExceptionCatch) codeElement()               {}
func (LocalVariable) codeElement()                {}
func (LineNumber) codeElement()                   {}

func (i OperatorInstruction) Opcode() Opcode        { return i.Op }
func (i LoadStoreInstruction) Opcode() Opcode       { return i.Op }
func (IncrementInstruction) Opcode() Opcode         { return OpIinc }
func (i PushInstruction) Opcode() Opcode            { return i.Op }
func (i BranchInstruction) Opcode() Opcode          { return i.Op }
func (i TypeInstruction) Opcode() Opcode            { return i.Op }
func (NewPrimitiveArrayInstruction) Opcode() Opcode { return OpNewarray }
func (i FieldInstruction) Opcode() Opcode           { return i.Op }
func (i InvokeInstruction) Opcode() Opcode          { return i.Op }

// Opcode returns Op, or the encoding Value selects when Op is zero.
func (i ConstantInstruction) Opcode() Opcode {
	if i.Op != 0 {
		return i.Op
	}
	return constantOpcode(i.Value)
}

// ConstantOf returns a constant load of v in its shortest encoding.
func ConstantOf(v any) ConstantInstruction {
	return ConstantInstruction{Value: v}
}

// constantOpcode picks the intrinsic opcode for v, else ldc or ldc2_w.
func constantOpcode(v any) Opcode {
	switch v := v.(type) {
	case nil:
		return OpAconstNull
	case int32:
		if v >= -1 && v <= 5 {
			return Opcode(int32(OpIconst0) + v)
		}
	case int64:
		if v == 0 || v == 1 {
			return OpLconst0 + Opcode(v)
		}
		return OpLdc2W
	case float32:
		if (v == 0 && !math.Signbit(float64(v))) || v == 1 || v == 2 {
			return OpFconst0 + Opcode(v)
		}
	case float64:
		if (v == 0 && !math.Signbit(v)) || v == 1 {
			return OpDconst0 + Opcode(v)
		}
		return OpLdc2W
	}
	return OpLdc
}

// intrinsicConstant returns the value an intrinsic constant opcode pushes.
func intrinsicConstant(op Opcode) (any, bool) {
	switch {
	case op == OpAconstNull:
		return nil, true
	case op >= OpIconstM1 && op <= OpIconst5:
		return int32(op) - int32(OpIconst0), true
	case op == OpLconst0 || op == OpLconst1:
		return int64(op - OpLconst0), true
	case op >= OpFconst0 && op <= OpFconst2:
		return float32(op - OpFconst0), true
	case op == OpDconst0 || op == OpDconst1:
		return float64(op - OpDconst0), true
	}
	return nil, false
}

// Load returns a load of slot with the generic opcode op (iload .. aload).
func Load(op Opcode, slot int) LoadStoreInstruction {
	return LoadStoreInstruction{Op: op, Slot: slot}
}

// Store returns a store to slot with the generic opcode op (istore .. astore).
func Store(op Opcode, slot int) LoadStoreInstruction {
	return LoadStoreInstruction{Op: op, Slot: slot}
}

func (i InvokeInstruction) String() string {
	return fmt.Sprintf("%s %s.%s%s", i.Op, i.Owner, i.Name, i.Desc)
}

func (i FieldInstruction) String() string {
	return fmt.Sprintf("%s %s.%s:%s", i.Op, i.Owner, i.Name, i.Desc)
}
