package classfile

import (
	"math"

	cferrors "github.com/wippyai/classfile/errors"
	"github.com/wippyai/classfile/internal/binary"
)

type branchFixup struct {
	label  Label
	insn   int // offset of the branch opcode
	at     int // offset of the branch operand
	wide   bool
	opcode Opcode
}

// simOp is an instruction as the stack simulation sees it.
type simOp struct {
	op     Opcode
	delta  int
	target Label
	branch bool
}

type lineEntry struct {
	pc   int
	line int
}

// codeEncoder serializes one method body in a single pass. Branch operands
// are written as placeholders and patched once every label is bound.
type codeEncoder struct {
	*encoder
	path       []string
	w          *binary.Writer
	labels     *LabelTable
	fixups     []branchFixup
	ops        []simOp
	labelIndex map[Label]int
	maxLocals  int
	catches    []ExceptionCatch
	locals     []LocalVariable
	lines      []lineEntry
	attrs      []Element
}

func (e *encoder) encodeCode(m *MethodModel, flags AccessFlag, c *CodeModel) ([]byte, error) {
	args, _, err := methodSlots(m.Desc)
	if err != nil {
		return nil, err
	}
	if !flags.Has(AccStatic) {
		args++
	}
	ce := &codeEncoder{
		encoder:    e,
		path:       e.methodPath(m, AttrCode),
		w:          binary.NewWriter(),
		labels:     NewLabelTable(nil),
		labelIndex: make(map[Label]int),
		maxLocals:  args,
	}
	for _, el := range c.elements {
		if err := ce.element(el); err != nil {
			return nil, err
		}
	}
	if ce.w.Len() == 0 || ce.w.Len() > 0xFFFF {
		return nil, cferrors.New(cferrors.PhaseEncode, cferrors.KindInvalidData).
			Path(ce.path...).
			Value(ce.w.Len()).
			Detail("code length %d outside 1..65535", ce.w.Len()).
			Build()
	}
	if err := ce.patchBranches(); err != nil {
		return nil, err
	}
	maxStack, err := ce.maxStack()
	if err != nil {
		return nil, err
	}
	if maxStack > 0xFFFF || ce.maxLocals > 0xFFFF {
		return nil, cferrors.Overflow(cferrors.PhaseEncode, ce.path, max(maxStack, ce.maxLocals), "max_stack/max_locals")
	}

	out := binary.NewWriter()
	out.WriteU2(uint16(maxStack))
	out.WriteU2(uint16(ce.maxLocals))
	out.WriteU4(uint32(ce.w.Len()))
	out.WriteBytes(ce.w.Bytes())
	if err := ce.writeExceptionTable(out); err != nil {
		return nil, err
	}

	var attrs []attribute
	if len(ce.lines) > 0 {
		a, err := ce.lineNumberTable()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	if len(ce.locals) > 0 {
		a, err := ce.localVariableTable()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	for _, el := range ce.attrs {
		a, ok, err := e.attribute(el, ce.labels)
		if err != nil {
			return nil, err
		}
		if ok {
			attrs = append(attrs, a)
		}
	}
	if err := e.writeAttributes(out, attrs); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (ce *codeEncoder) element(el CodeElement) error {
	switch el := el.(type) {
	case LabelTarget:
		if el.Label.IsZero() {
			return ce.invalid("LabelTarget", "zero label")
		}
		if _, bound := ce.labels.LabelOffset(el.Label); bound {
			return ce.invalid("LabelTarget", "label "+el.Label.String()+" bound twice")
		}
		ce.labels.Bind(el.Label, ce.w.Len())
		ce.labelIndex[el.Label] = len(ce.ops)
		return nil
	case ExceptionCatch:
		ce.catches = append(ce.catches, el)
		return nil
	case LocalVariable:
		ce.locals = append(ce.locals, el)
		ce.useLocal(el.Slot, fieldSlots(el.Desc))
		return nil
	case LineNumber:
		ce.lines = append(ce.lines, lineEntry{pc: ce.w.Len(), line: el.Line})
		return nil
	case TypeAnnotationsAttribute, CustomAttribute:
		ce.attrs = append(ce.attrs, el)
		return nil
	case Instruction:
		return ce.instruction(el)
	}
	return ce.invalid(ElementName(el), "unsupported code element")
}

func (ce *codeEncoder) instruction(in Instruction) error {
	switch in := in.(type) {
	case OperatorInstruction:
		if k := in.Op.Kind(); k != KindOperator && k != KindReturn {
			return ce.wrongOpcode("OperatorInstruction", in.Op)
		}
		ce.emit(in.Op, int(opcodeTable[in.Op].delta))
	case LoadStoreInstruction:
		return ce.loadStore(in)
	case IncrementInstruction:
		if in.Slot < 0 || in.Slot > 0xFFFF || in.Delta < math.MinInt16 || in.Delta > math.MaxInt16 {
			return cferrors.Overflow(cferrors.PhaseEncode, ce.path, in, "iinc operands")
		}
		ce.useLocal(in.Slot, 1)
		if in.Slot > 0xFF || in.Delta < math.MinInt8 || in.Delta > math.MaxInt8 {
			ce.w.Byte(byte(OpWide))
			ce.emit(OpIinc, 0)
			ce.w.WriteU2(uint16(in.Slot))
			ce.w.WriteU2(uint16(int16(in.Delta)))
			return nil
		}
		ce.emit(OpIinc, 0)
		ce.w.WriteU1(uint8(in.Slot))
		ce.w.WriteU1(uint8(int8(in.Delta)))
	case PushInstruction:
		switch in.Op {
		case OpBipush:
			if in.Value < math.MinInt8 || in.Value > math.MaxInt8 {
				return cferrors.Overflow(cferrors.PhaseEncode, ce.path, in.Value, "bipush operand")
			}
			ce.emit(in.Op, 1)
			ce.w.WriteU1(uint8(int8(in.Value)))
		case OpSipush:
			if in.Value < math.MinInt16 || in.Value > math.MaxInt16 {
				return cferrors.Overflow(cferrors.PhaseEncode, ce.path, in.Value, "sipush operand")
			}
			ce.emit(in.Op, 1)
			ce.w.WriteU2(uint16(int16(in.Value)))
		default:
			return ce.wrongOpcode("PushInstruction", in.Op)
		}
	case ConstantInstruction:
		return ce.constant(in)
	case BranchInstruction:
		if in.Op.Kind() != KindBranch {
			return ce.wrongOpcode("BranchInstruction", in.Op)
		}
		pos := ce.w.Len()
		ce.ops = append(ce.ops, simOp{op: in.Op, delta: int(opcodeTable[in.Op].delta), target: in.Target, branch: true})
		ce.w.Byte(byte(in.Op))
		fix := branchFixup{label: in.Target, insn: pos, at: ce.w.Len(), opcode: in.Op, wide: in.Op == OpGotoW}
		ce.fixups = append(ce.fixups, fix)
		if fix.wide {
			ce.w.WriteU4(0)
		} else {
			ce.w.WriteU2(0)
		}
	case TypeInstruction:
		if in.Op.Kind() != KindType {
			return ce.wrongOpcode("TypeInstruction", in.Op)
		}
		idx, err := ce.pool.Class(in.Class)
		if err != nil {
			return err
		}
		ce.emit(in.Op, int(opcodeTable[in.Op].delta))
		ce.w.WriteU2(idx)
	case NewPrimitiveArrayInstruction:
		if in.TypeCode < 4 || in.TypeCode > 11 {
			return ce.invalid("NewPrimitiveArrayInstruction", "atype outside 4..11")
		}
		ce.emit(OpNewarray, 0)
		ce.w.WriteU1(in.TypeCode)
	case FieldInstruction:
		return ce.field(in)
	case InvokeInstruction:
		return ce.invoke(in)
	default:
		return ce.invalid(ElementName(in), "unsupported instruction")
	}
	return nil
}

func (ce *codeEncoder) emit(op Opcode, delta int) {
	ce.ops = append(ce.ops, simOp{op: op, delta: delta})
	ce.w.Byte(byte(op))
}

func (ce *codeEncoder) loadStore(in LoadStoreInstruction) error {
	op, slot := in.Op, in.Slot
	if g, n, compact := genericLoadStore(op); compact {
		op, slot = g, n
	}
	var base Opcode
	switch {
	case op >= OpIload && op <= OpAload:
		base = OpIload0 + 4*(op-OpIload)
	case op >= OpIstore && op <= OpAstore:
		base = OpIstore0 + 4*(op-OpIstore)
	default:
		return ce.wrongOpcode("LoadStoreInstruction", in.Op)
	}
	if slot < 0 || slot > 0xFFFF {
		return cferrors.Overflow(cferrors.PhaseEncode, ce.path, slot, "local slot")
	}
	width := slotWidth(op)
	ce.useLocal(slot, width)
	delta := int(opcodeTable[op].delta)
	switch {
	case slot <= 3:
		ce.emit(base+Opcode(slot), delta)
	case slot <= 0xFF:
		ce.emit(op, delta)
		ce.w.WriteU1(uint8(slot))
	default:
		ce.w.Byte(byte(OpWide))
		ce.emit(op, delta)
		ce.w.WriteU2(uint16(slot))
	}
	return nil
}

func (ce *codeEncoder) constant(in ConstantInstruction) error {
	op := in.Opcode()
	if v, ok := intrinsicConstant(op); ok {
		if in.Value != nil && v != in.Value {
			return ce.invalid("ConstantInstruction", op.String()+" does not push the given value")
		}
		ce.emit(op, int(opcodeTable[op].delta))
		return nil
	}
	wide := false
	switch in.Value.(type) {
	case int64, float64:
		wide = true
	}
	switch op {
	case OpLdc, OpLdcW:
		if wide {
			return ce.wrongOpcode("ConstantInstruction", op)
		}
	case OpLdc2W:
		if !wide {
			return ce.wrongOpcode("ConstantInstruction", op)
		}
	default:
		return ce.wrongOpcode("ConstantInstruction", op)
	}
	idx, err := ce.constantIndex(in.Value)
	if err != nil {
		return err
	}
	if op == OpLdc && idx > 0xFF {
		op = OpLdcW
	}
	ce.emit(op, int(opcodeTable[op].delta))
	if op == OpLdc {
		ce.w.WriteU1(uint8(idx))
	} else {
		ce.w.WriteU2(idx)
	}
	return nil
}

func (ce *codeEncoder) field(in FieldInstruction) error {
	size := fieldSlots(in.Desc)
	var delta int
	switch in.Op {
	case OpGetstatic:
		delta = size
	case OpPutstatic:
		delta = -size
	case OpGetfield:
		delta = size - 1
	case OpPutfield:
		delta = -size - 1
	default:
		return ce.wrongOpcode("FieldInstruction", in.Op)
	}
	idx, err := ce.pool.FieldRef(in.Owner, in.Name, in.Desc)
	if err != nil {
		return err
	}
	ce.emit(in.Op, delta)
	ce.w.WriteU2(idx)
	return nil
}

func (ce *codeEncoder) invoke(in InvokeInstruction) error {
	if in.Op.Kind() != KindInvoke {
		return ce.wrongOpcode("InvokeInstruction", in.Op)
	}
	args, ret, err := methodSlots(in.Desc)
	if err != nil {
		return err
	}
	delta := ret - args
	if in.Op != OpInvokestatic {
		delta--
	}
	var idx uint16
	if in.Interface || in.Op == OpInvokeinterface {
		idx, err = ce.pool.InterfaceMethodRef(in.Owner, in.Name, in.Desc)
	} else {
		idx, err = ce.pool.MethodRef(in.Owner, in.Name, in.Desc)
	}
	if err != nil {
		return err
	}
	ce.emit(in.Op, delta)
	ce.w.WriteU2(idx)
	if in.Op == OpInvokeinterface {
		ce.w.WriteU1(uint8(args + 1))
		ce.w.WriteU1(0)
	}
	return nil
}

func (ce *codeEncoder) useLocal(slot, width int) {
	if n := slot + width; n > ce.maxLocals {
		ce.maxLocals = n
	}
}

func (ce *codeEncoder) patchBranches() error {
	for _, f := range ce.fixups {
		target, ok := ce.labels.LabelOffset(f.label)
		if !ok {
			return cferrors.UnresolvedLabel(ce.path, f.opcode.String())
		}
		off := target - f.insn
		if f.wide {
			ce.w.PatchU4(f.at, uint32(int32(off)))
			continue
		}
		if off < math.MinInt16 || off > math.MaxInt16 {
			return cferrors.Overflow(cferrors.PhaseEncode, ce.path, off, f.opcode.String()+" offset")
		}
		ce.w.PatchU2(f.at, uint16(int16(off)))
	}
	return nil
}

// maxStack simulates operand stack depth over every reachable instruction.
// Exception handlers start with the thrown reference on the stack.
func (ce *codeEncoder) maxStack() (int, error) {
	depth := make([]int, len(ce.ops))
	for i := range depth {
		depth[i] = -1
	}
	var work []int
	enter := func(i, d int) error {
		if i >= len(ce.ops) {
			return nil
		}
		switch depth[i] {
		case -1:
			depth[i] = d
			work = append(work, i)
		case d:
		default:
			return ce.invalid(ce.ops[i].op.String(), "inconsistent stack height at merge point")
		}
		return nil
	}
	if err := enter(0, 0); err != nil {
		return 0, err
	}
	for _, c := range ce.catches {
		if i, ok := ce.labelIndex[c.Handler]; ok {
			if err := enter(i, 1); err != nil {
				return 0, err
			}
		}
	}

	best := 0
	for len(work) > 0 {
		i := work[len(work)-1]
		work = work[:len(work)-1]
		op := ce.ops[i]
		before := depth[i]
		after := before + op.delta
		if after < 0 {
			return 0, ce.invalid(op.op.String(), "operand stack underflow")
		}
		best = max(best, before, after)
		if op.branch {
			j, ok := ce.labelIndex[op.target]
			if !ok {
				return 0, cferrors.UnresolvedLabel(ce.path, op.op.String())
			}
			if err := enter(j, after); err != nil {
				return 0, err
			}
		}
		if !op.op.unconditional() {
			if err := enter(i+1, after); err != nil {
				return 0, err
			}
		}
	}
	return best, nil
}

func (ce *codeEncoder) offset(l Label, what string) (int, error) {
	off, ok := ce.labels.LabelOffset(l)
	if !ok {
		return 0, cferrors.UnresolvedLabel(ce.path, what)
	}
	return off, nil
}

func (ce *codeEncoder) writeExceptionTable(w *binary.Writer) error {
	if err := ce.checkCount(len(ce.catches), "exception_table_length"); err != nil {
		return err
	}
	w.WriteU2(uint16(len(ce.catches)))
	for _, c := range ce.catches {
		start, err := ce.offset(c.Start, "exception table")
		if err != nil {
			return err
		}
		end, err := ce.offset(c.End, "exception table")
		if err != nil {
			return err
		}
		handler, err := ce.offset(c.Handler, "exception table")
		if err != nil {
			return err
		}
		if start >= end {
			return ce.invalid("ExceptionCatch", "empty protected range")
		}
		var typeIdx uint16
		if c.CatchType != "" {
			if typeIdx, err = ce.pool.Class(c.CatchType); err != nil {
				return err
			}
		}
		w.WriteU2(uint16(start))
		w.WriteU2(uint16(end))
		w.WriteU2(uint16(handler))
		w.WriteU2(typeIdx)
	}
	return nil
}

func (ce *codeEncoder) lineNumberTable() (attribute, error) {
	if err := ce.checkCount(len(ce.lines), "line_number_table_length"); err != nil {
		return attribute{}, err
	}
	w := binary.NewWriter()
	w.WriteU2(uint16(len(ce.lines)))
	for _, l := range ce.lines {
		if l.line < 0 || l.line > 0xFFFF {
			return attribute{}, cferrors.Overflow(cferrors.PhaseEncode, ce.path, l.line, "line_number")
		}
		w.WriteU2(uint16(l.pc))
		w.WriteU2(uint16(l.line))
	}
	return attribute{name: AttrLineNumberTable, data: w.Bytes()}, nil
}

func (ce *codeEncoder) localVariableTable() (attribute, error) {
	if err := ce.checkCount(len(ce.locals), "local_variable_table_length"); err != nil {
		return attribute{}, err
	}
	w := binary.NewWriter()
	w.WriteU2(uint16(len(ce.locals)))
	for _, lv := range ce.locals {
		start, err := ce.offset(lv.Start, AttrLocalVariableTable)
		if err != nil {
			return attribute{}, err
		}
		end, err := ce.offset(lv.End, AttrLocalVariableTable)
		if err != nil {
			return attribute{}, err
		}
		if end < start {
			return attribute{}, ce.invalid("LocalVariable", "end precedes start")
		}
		if lv.Slot < 0 || lv.Slot > 0xFFFF {
			return attribute{}, cferrors.Overflow(cferrors.PhaseEncode, ce.path, lv.Slot, "local slot")
		}
		nameIdx, err := ce.pool.Utf8(lv.Name)
		if err != nil {
			return attribute{}, err
		}
		descIdx, err := ce.pool.Utf8(lv.Desc)
		if err != nil {
			return attribute{}, err
		}
		w.WriteU2(uint16(start))
		w.WriteU2(uint16(end - start))
		w.WriteU2(nameIdx)
		w.WriteU2(descIdx)
		w.WriteU2(uint16(lv.Slot))
	}
	return attribute{name: AttrLocalVariableTable, data: w.Bytes()}, nil
}

func (ce *codeEncoder) invalid(element, detail string) error {
	return cferrors.New(cferrors.PhaseEncode, cferrors.KindInvalidData).
		Path(ce.path...).
		Element(element).
		Detail("%s", detail).
		Build()
}

func (ce *codeEncoder) wrongOpcode(element string, op Opcode) error {
	return cferrors.New(cferrors.PhaseEncode, cferrors.KindInvalidInput).
		Path(ce.path...).
		Element(element).
		Value(op).
		Detail("opcode %s not valid here", op).
		Build()
}
