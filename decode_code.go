package classfile

import (
	"go.uber.org/zap"

	"github.com/wippyai/classfile/constantpool"
	cferrors "github.com/wippyai/classfile/errors"
	"github.com/wippyai/classfile/internal/binary"
)

type decodedInsn struct {
	in Instruction
	pc int
}

// code decodes a Code attribute into elements. Instructions outside the
// supported set fail with KindUnsupported so the caller can keep the
// attribute raw. StackMapTable is dropped: frames are not modelled.
func (p *parser) code(data []byte) (*CodeModel, error) {
	r := binary.FromBytes(data)
	if err := r.Skip(4); err != nil { // max_stack, max_locals are recomputed
		return nil, err
	}
	length, err := r.ReadU4()
	if err != nil {
		return nil, err
	}
	code, err := r.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}
	labels := NewLabelTable(p.arena)

	insns, err := p.instructions(code, labels)
	if err != nil {
		return nil, err
	}

	var catches []CodeElement
	n, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(n); i++ {
		var raw [4]uint16
		for j := range raw {
			if raw[j], err = r.ReadU2(); err != nil {
				return nil, err
			}
		}
		var catchType string
		if raw[3] != 0 {
			if catchType, err = constantpool.ClassNameAt(p.pool, raw[3]); err != nil {
				return nil, err
			}
		}
		catches = append(catches, ExceptionCatch{
			Start:     labels.LabelAt(int(raw[0])),
			End:       labels.LabelAt(int(raw[1])),
			Handler:   labels.LabelAt(int(raw[2])),
			CatchType: catchType,
		})
	}

	lines := make(map[int][]int)
	var trailing []CodeElement
	err = p.attributes(r, func(name string, data []byte) error {
		switch name {
		case AttrLineNumberTable:
			return p.lineNumbers(data, lines)
		case AttrLocalVariableTable:
			locals, err := p.localVariables(data, labels)
			if err != nil {
				return err
			}
			trailing = append(trailing, locals...)
			return nil
		case AttrStackMapTable:
			Logger().Debug("dropping stack map frames", zap.String("class", p.thisClass))
			return nil
		case AttrRuntimeVisibleTypeAnnotations, AttrRuntimeInvisibleTypeAnnotations:
			list, err := DecodeTypeAnnotations(data, p.pool, labels)
			if err != nil {
				return err
			}
			trailing = append(trailing, TypeAnnotationsAttribute{Annotations: list, Visible: name == AttrRuntimeVisibleTypeAnnotations})
			return nil
		}
		if !p.dropUnknown {
			trailing = append(trailing, BoundCustomAttribute(name, data, p.pool))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c := &CodeModel{}
	c.elements = append(c.elements, catches...)
	for _, d := range insns {
		if l, ok := labels.boundAt(d.pc); ok {
			c.elements = append(c.elements, LabelTarget{Label: l})
		}
		for _, line := range lines[d.pc] {
			c.elements = append(c.elements, LineNumber{Line: line})
		}
		c.elements = append(c.elements, d.in)
	}
	if l, ok := labels.boundAt(len(code)); ok {
		c.elements = append(c.elements, LabelTarget{Label: l})
	}
	c.elements = append(c.elements, trailing...)
	return c, nil
}

func (p *parser) instructions(code []byte, labels *LabelTable) ([]decodedInsn, error) {
	r := binary.FromBytes(code)
	var out []decodedInsn
	for r.Position() < len(code) {
		pc := r.Position()
		in, err := p.instruction(r, pc, labels)
		if err != nil {
			return nil, err
		}
		out = append(out, decodedInsn{in: in, pc: pc})
	}
	return out, nil
}

func (p *parser) instruction(r *binary.Reader, pc int, labels *LabelTable) (Instruction, error) {
	b, err := r.ReadU1()
	if err != nil {
		return nil, err
	}
	op := Opcode(b)
	if op == OpWide {
		return p.wide(r)
	}
	switch op.Kind() {
	case KindOperator, KindReturn:
		return OperatorInstruction{Op: op}, nil
	case KindConstant:
		if v, ok := intrinsicConstant(op); ok {
			return ConstantInstruction{Op: op, Value: v}, nil
		}
		var idx uint16
		if op == OpLdc {
			b, err := r.ReadU1()
			if err != nil {
				return nil, err
			}
			idx = uint16(b)
		} else if idx, err = r.ReadU2(); err != nil {
			return nil, err
		}
		v, err := p.loadable(idx)
		if err != nil {
			return nil, err
		}
		return ConstantInstruction{Op: op, Value: v}, nil
	case KindPush:
		if op == OpBipush {
			v, err := r.ReadS1()
			return PushInstruction{Op: op, Value: int(v)}, err
		}
		v, err := r.ReadS2()
		return PushInstruction{Op: op, Value: int(v)}, err
	case KindLoad, KindStore:
		if g, n, compact := genericLoadStore(op); compact {
			return LoadStoreInstruction{Op: g, Slot: n}, nil
		}
		slot, err := r.ReadU1()
		return LoadStoreInstruction{Op: op, Slot: int(slot)}, err
	case KindIncrement:
		slot, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		delta, err := r.ReadS1()
		return IncrementInstruction{Slot: int(slot), Delta: int(delta)}, err
	case KindBranch:
		var off int
		if op == OpGotoW {
			v, err := r.ReadU4()
			if err != nil {
				return nil, err
			}
			off = int(int32(v))
		} else {
			v, err := r.ReadS2()
			if err != nil {
				return nil, err
			}
			off = int(v)
		}
		return BranchInstruction{Op: op, Target: labels.LabelAt(pc + off)}, nil
	case KindType:
		idx, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		name, err := constantpool.ClassNameAt(p.pool, idx)
		if err != nil {
			return nil, err
		}
		return TypeInstruction{Op: op, Class: name}, nil
	case KindNewPrimitiveArray:
		t, err := r.ReadU1()
		return NewPrimitiveArrayInstruction{TypeCode: t}, err
	case KindField:
		idx, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		m, err := constantpool.MemberAt(p.pool, idx)
		if err != nil {
			return nil, err
		}
		return FieldInstruction{Op: op, Owner: m.Owner, Name: m.Name, Desc: m.Desc}, nil
	case KindInvoke:
		idx, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		if op == OpInvokeinterface {
			if err := r.Skip(2); err != nil {
				return nil, err
			}
		}
		m, err := constantpool.MemberAt(p.pool, idx)
		if err != nil {
			return nil, err
		}
		return InvokeInstruction{
			Op:        op,
			Owner:     m.Owner,
			Name:      m.Name,
			Desc:      m.Desc,
			Interface: m.Kind == constantpool.TagInterfaceMethodref,
		}, nil
	}
	return nil, cferrors.New(cferrors.PhaseDecode, cferrors.KindUnsupported).
		Path(p.thisClass).
		Value(op).
		Detail("instruction %s at pc %d", op, pc).
		Build()
}

func (p *parser) wide(r *binary.Reader) (Instruction, error) {
	b, err := r.ReadU1()
	if err != nil {
		return nil, err
	}
	op := Opcode(b)
	slot, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	switch op.Kind() {
	case KindIncrement:
		delta, err := r.ReadS2()
		return IncrementInstruction{Slot: int(slot), Delta: int(delta)}, err
	case KindLoad, KindStore:
		if _, _, compact := genericLoadStore(op); !compact {
			return LoadStoreInstruction{Op: op, Slot: int(slot)}, nil
		}
	}
	return nil, cferrors.New(cferrors.PhaseDecode, cferrors.KindUnsupported).
		Path(p.thisClass).
		Value(op).
		Detail("wide %s", op).
		Build()
}

func (p *parser) lineNumbers(data []byte, lines map[int][]int) error {
	r := binary.FromBytes(data)
	n, err := r.ReadU2()
	if err != nil {
		return err
	}
	for i := 0; i < int(n); i++ {
		pc, err := r.ReadU2()
		if err != nil {
			return err
		}
		line, err := r.ReadU2()
		if err != nil {
			return err
		}
		lines[int(pc)] = append(lines[int(pc)], int(line))
	}
	return nil
}

func (p *parser) localVariables(data []byte, labels *LabelTable) ([]CodeElement, error) {
	r := binary.FromBytes(data)
	n, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	out := make([]CodeElement, 0, n)
	for i := 0; i < int(n); i++ {
		var raw [5]uint16
		for j := range raw {
			if raw[j], err = r.ReadU2(); err != nil {
				return nil, err
			}
		}
		name, err := constantpool.Utf8At(p.pool, raw[2])
		if err != nil {
			return nil, err
		}
		desc, err := constantpool.Utf8At(p.pool, raw[3])
		if err != nil {
			return nil, err
		}
		out = append(out, LocalVariable{
			Start: labels.LabelAt(int(raw[0])),
			End:   labels.LabelAt(int(raw[0]) + int(raw[1])),
			Name:  name,
			Desc:  desc,
			Slot:  int(raw[4]),
		})
	}
	return out, nil
}
