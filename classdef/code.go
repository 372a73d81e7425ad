package classdef

import (
	"strings"

	"github.com/wippyai/classfile"
	cferrors "github.com/wippyai/classfile/errors"
)

// newarray atype codes by element type name.
var arrayTypes = map[string]byte{
	"boolean": 4,
	"char":    5,
	"float":   6,
	"double":  7,
	"byte":    8,
	"short":   9,
	"int":     10,
	"long":    11,
}

// code emits a code body. Labels are named by the definition and allocated
// on first mention, so a branch may refer to a label bound later.
func (s scope) code(cb classfile.CodeBuilder, body []Instruction) error {
	labels := make(map[string]classfile.Label)
	label := func(name string) classfile.Label {
		l, ok := labels[name]
		if !ok {
			l = cb.NewLabel()
			labels[name] = l
		}
		return l
	}

	for i := range body {
		in := &body[i]
		switch n := in.entries(); {
		case n == 0:
			return s.fail(in.Pos, "empty code entry")
		case n > 1:
			return s.fail(in.Pos, "code entry mixes %d of op, label, line, catch, local, attribute", n)
		}

		switch {
		case in.Label != "":
			cb.LabelBinding(label(in.Label))
		case in.Line != 0:
			cb.With(classfile.LineNumber{Line: in.Line})
		case in.Catch != nil:
			c := in.Catch
			if c.Start == "" || c.End == "" || c.Handler == "" {
				return s.fail(in.Pos, "catch needs start, end and handler labels")
			}
			cb.ExceptionCatch(label(c.Start), label(c.End), label(c.Handler), c.Type)
		case in.Local != nil:
			l := in.Local
			if l.Start == "" || l.End == "" {
				return s.fail(in.Pos, "local %s needs start and end labels", l.Name)
			}
			cb.LocalVariable(l.Slot, l.Name, l.Desc, label(l.Start), label(l.End))
		case in.Attribute != nil:
			e, err := s.attribute(in.Attribute)
			if err != nil {
				return err
			}
			if err := classfile.WithElement(cb, e); err != nil {
				return s.locate(err, in.Pos)
			}
		default:
			insn, err := s.instruction(in, label)
			if err != nil {
				return err
			}
			cb.With(insn)
		}
	}
	return nil
}

func (in *Instruction) entries() int {
	n := 0
	for _, set := range []bool{in.Op != "", in.Label != "", in.Line != 0, in.Catch != nil, in.Local != nil, in.Attribute != nil} {
		if set {
			n++
		}
	}
	return n
}

func (s scope) instruction(in *Instruction, label func(string) classfile.Label) (classfile.Instruction, error) {
	op, ok := classfile.OpcodeByName(in.Op)
	if !ok {
		return nil, s.fail(in.Pos, "unknown opcode %q", in.Op)
	}

	switch op.Kind() {
	case classfile.KindOperator, classfile.KindReturn:
		return classfile.OperatorInstruction{Op: op}, nil
	case classfile.KindConstant:
		if in.Constant == nil {
			switch op {
			case classfile.OpLdc, classfile.OpLdcW, classfile.OpLdc2W:
				return nil, s.fail(in.Pos, "%s needs a constant", op)
			}
			return classfile.ConstantInstruction{Op: op}, nil
		}
		v, err := s.constant(in.Constant, in.Pos)
		if err != nil {
			return nil, err
		}
		return classfile.ConstantInstruction{Op: op, Value: v}, nil
	case classfile.KindPush:
		if in.Value == nil {
			return nil, s.fail(in.Pos, "%s needs a value", op)
		}
		return classfile.PushInstruction{Op: op, Value: *in.Value}, nil
	case classfile.KindLoad, classfile.KindStore:
		if in.Slot == nil {
			// xload_n and xstore_n carry their slot.
			if !strings.Contains(in.Op, "_") {
				return nil, s.fail(in.Pos, "%s needs a slot", op)
			}
			return classfile.LoadStoreInstruction{Op: op}, nil
		}
		return classfile.LoadStoreInstruction{Op: op, Slot: *in.Slot}, nil
	case classfile.KindIncrement:
		if in.Slot == nil {
			return nil, s.fail(in.Pos, "iinc needs a slot")
		}
		return classfile.IncrementInstruction{Slot: *in.Slot, Delta: in.Delta}, nil
	case classfile.KindBranch:
		if in.Target == "" {
			return nil, s.fail(in.Pos, "%s needs a target label", op)
		}
		return classfile.BranchInstruction{Op: op, Target: label(in.Target)}, nil
	case classfile.KindField:
		return classfile.FieldInstruction{Op: op, Owner: in.Owner, Name: in.Name, Desc: in.Desc}, nil
	case classfile.KindInvoke:
		return classfile.InvokeInstruction{Op: op, Owner: in.Owner, Name: in.Name, Desc: in.Desc, Interface: in.Interface}, nil
	case classfile.KindType:
		if in.Class == "" {
			return nil, s.fail(in.Pos, "%s needs a class", op)
		}
		return classfile.TypeInstruction{Op: op, Class: in.Class}, nil
	case classfile.KindNewPrimitiveArray:
		code, ok := arrayTypes[in.Type]
		if !ok {
			return nil, s.fail(in.Pos, "newarray: unknown element type %q", in.Type)
		}
		return classfile.NewPrimitiveArrayInstruction{TypeCode: code}, nil
	}
	return nil, cferrors.New(cferrors.PhaseParse, cferrors.KindUnsupported).
		Path(s.path...).
		Value(in.Op).
		Detail("line %d: opcode %s is not supported", in.Pos, in.Op).
		Build()
}
