package classfile

import (
	"fmt"

	"github.com/wippyai/classfile/constantpool"
	cferrors "github.com/wippyai/classfile/errors"
)

// Builder is the contract every level builder satisfies. With integrates one
// element and returns the builder itself. The unexported chain method keeps
// the set of builders closed: transform resolution uses it to create the
// intermediate builders of a chain.
type Builder[E Element, B any] interface {
	With(e E) B
	ConstantPool() *constantpool.Builder
	CanWriteDirect(src constantpool.Pool) bool
	chain(sink func(E)) B
}

// AnyBuilder is a builder of any level.
type AnyBuilder interface {
	ConstantPool() *constantpool.Builder
	CanWriteDirect(src constantpool.Pool) bool
}

// ClassBuilder builds a class.
type ClassBuilder interface {
	With(e ClassElement) ClassBuilder
	ConstantPool() *constantpool.Builder
	CanWriteDirect(src constantpool.Pool) bool

	// ThisClass returns the internal name of the class being built.
	ThisClass() string
	WithVersion(major, minor uint16) ClassBuilder
	WithFlags(flags AccessFlag) ClassBuilder
	WithSuperclass(name string) ClassBuilder
	WithInterfaces(names ...string) ClassBuilder
	// WithField adds a field whose elements handler supplies. handler may be nil.
	WithField(name, desc string, flags AccessFlag, handler func(FieldBuilder)) ClassBuilder
	// WithMethod adds a method whose elements handler supplies. handler may be nil.
	WithMethod(name, desc string, flags AccessFlag, handler func(MethodBuilder)) ClassBuilder
	// TransformField adds a copy of f rewritten by t.
	TransformField(f *FieldModel, t FieldTransform) error
	// TransformMethod adds a copy of m rewritten by t.
	TransformMethod(m *MethodModel, t MethodTransform) error

	chain(sink func(ClassElement)) ClassBuilder
}

// FieldBuilder builds a field.
type FieldBuilder interface {
	With(e FieldElement) FieldBuilder
	ConstantPool() *constantpool.Builder
	CanWriteDirect(src constantpool.Pool) bool

	WithFlags(flags AccessFlag) FieldBuilder

	chain(sink func(FieldElement)) FieldBuilder
}

// MethodBuilder builds a method.
type MethodBuilder interface {
	With(e MethodElement) MethodBuilder
	ConstantPool() *constantpool.Builder
	CanWriteDirect(src constantpool.Pool) bool

	// MethodName and MethodDesc identify the method being built.
	MethodName() string
	MethodDesc() string
	WithFlags(flags AccessFlag) MethodBuilder
	// WithCode adds a body whose elements handler supplies.
	WithCode(handler func(CodeBuilder)) MethodBuilder
	// TransformCode adds a copy of c rewritten by t.
	TransformCode(c *CodeModel, t CodeTransform) error

	chain(sink func(MethodElement)) MethodBuilder
}

// CodeBuilder builds a method body.
type CodeBuilder interface {
	With(e CodeElement) CodeBuilder
	ConstantPool() *constantpool.Builder
	CanWriteDirect(src constantpool.Pool) bool

	// NewLabel allocates a label from the build's arena.
	NewLabel() Label
	// LabelBinding binds l to the position of the next instruction.
	LabelBinding(l Label) CodeBuilder
	Operator(op Opcode) CodeBuilder
	LoadLocal(op Opcode, slot int) CodeBuilder
	StoreLocal(op Opcode, slot int) CodeBuilder
	Constant(v any) CodeBuilder
	Branch(op Opcode, target Label) CodeBuilder
	Goto(target Label) CodeBuilder
	Return() CodeBuilder
	FieldAccess(op Opcode, owner, name, desc string) CodeBuilder
	Invoke(op Opcode, owner, name, desc string) CodeBuilder
	New(class string) CodeBuilder
	ExceptionCatch(start, end, handler Label, catchType string) CodeBuilder
	LocalVariable(slot int, name, desc string, start, end Label) CodeBuilder

	chain(sink func(CodeElement)) CodeBuilder
}

// buildEnv is shared by every builder of one top-level build.
type buildEnv struct {
	pool   *constantpool.Builder
	labels *LabelArena
}

func newBuildEnv(pool *constantpool.Builder) *buildEnv {
	if pool == nil {
		pool = constantpool.NewBuilder()
	}
	return &buildEnv{pool: pool, labels: &LabelArena{}}
}

func (env *buildEnv) ConstantPool() *constantpool.Builder {
	return env.pool
}

func (env *buildEnv) CanWriteDirect(src constantpool.Pool) bool {
	return env.pool.CanWriteDirect(src)
}

type classBuilder struct {
	*buildEnv
	sink      func(ClassElement)
	thisClass string
}

func newClassBuilder(env *buildEnv, m *ClassModel) *classBuilder {
	return &classBuilder{
		buildEnv:  env,
		thisClass: m.ThisClass,
		sink:      func(e ClassElement) { m.elements = append(m.elements, e) },
	}
}

func (b *classBuilder) With(e ClassElement) ClassBuilder {
	b.sink(e)
	return b
}

func (b *classBuilder) chain(sink func(ClassElement)) ClassBuilder {
	return &classBuilder{buildEnv: b.buildEnv, sink: sink, thisClass: b.thisClass}
}

func (b *classBuilder) ThisClass() string {
	return b.thisClass
}

func (b *classBuilder) WithVersion(major, minor uint16) ClassBuilder {
	return b.With(ClassVersion{Major: major, Minor: minor})
}

func (b *classBuilder) WithFlags(flags AccessFlag) ClassBuilder {
	return b.With(AccessFlags{Flags: flags})
}

func (b *classBuilder) WithSuperclass(name string) ClassBuilder {
	return b.With(Superclass{Name: name})
}

func (b *classBuilder) WithInterfaces(names ...string) ClassBuilder {
	return b.With(Interfaces{Names: names})
}

func (b *classBuilder) WithField(name, desc string, flags AccessFlag, handler func(FieldBuilder)) ClassBuilder {
	f := &FieldModel{Name: name, Desc: desc}
	fb := newFieldBuilder(b.buildEnv, f)
	fb.WithFlags(flags)
	if handler != nil {
		handler(fb)
	}
	return b.With(f)
}

func (b *classBuilder) WithMethod(name, desc string, flags AccessFlag, handler func(MethodBuilder)) ClassBuilder {
	m := &MethodModel{Name: name, Desc: desc}
	mb := newMethodBuilder(b.buildEnv, m)
	mb.WithFlags(flags)
	if handler != nil {
		handler(mb)
	}
	return b.With(m)
}

func (b *classBuilder) TransformField(f *FieldModel, t FieldTransform) error {
	out := &FieldModel{Name: f.Name, Desc: f.Desc}
	if err := Resolve(t, FieldBuilder(newFieldBuilder(b.buildEnv, out))).Run(f.Elements()); err != nil {
		return err
	}
	b.With(out)
	return nil
}

func (b *classBuilder) TransformMethod(m *MethodModel, t MethodTransform) error {
	out := &MethodModel{Name: m.Name, Desc: m.Desc}
	if err := Resolve(t, MethodBuilder(newMethodBuilder(b.buildEnv, out))).Run(m.Elements()); err != nil {
		return err
	}
	b.With(out)
	return nil
}

type fieldBuilder struct {
	*buildEnv
	sink func(FieldElement)
}

func newFieldBuilder(env *buildEnv, f *FieldModel) *fieldBuilder {
	return &fieldBuilder{
		buildEnv: env,
		sink:     func(e FieldElement) { f.elements = append(f.elements, e) },
	}
}

func (b *fieldBuilder) With(e FieldElement) FieldBuilder {
	b.sink(e)
	return b
}

func (b *fieldBuilder) chain(sink func(FieldElement)) FieldBuilder {
	return &fieldBuilder{buildEnv: b.buildEnv, sink: sink}
}

func (b *fieldBuilder) WithFlags(flags AccessFlag) FieldBuilder {
	return b.With(AccessFlags{Flags: flags})
}

type methodBuilder struct {
	*buildEnv
	sink func(MethodElement)
	name string
	desc string
}

func newMethodBuilder(env *buildEnv, m *MethodModel) *methodBuilder {
	return &methodBuilder{
		buildEnv: env,
		name:     m.Name,
		desc:     m.Desc,
		sink:     func(e MethodElement) { m.elements = append(m.elements, e) },
	}
}

func (b *methodBuilder) With(e MethodElement) MethodBuilder {
	b.sink(e)
	return b
}

func (b *methodBuilder) chain(sink func(MethodElement)) MethodBuilder {
	return &methodBuilder{buildEnv: b.buildEnv, sink: sink, name: b.name, desc: b.desc}
}

func (b *methodBuilder) MethodName() string { return b.name }
func (b *methodBuilder) MethodDesc() string { return b.desc }

func (b *methodBuilder) WithFlags(flags AccessFlag) MethodBuilder {
	return b.With(AccessFlags{Flags: flags})
}

func (b *methodBuilder) WithCode(handler func(CodeBuilder)) MethodBuilder {
	c := &CodeModel{}
	if handler != nil {
		handler(newCodeBuilder(b.buildEnv, c))
	}
	return b.With(c)
}

func (b *methodBuilder) TransformCode(c *CodeModel, t CodeTransform) error {
	out := &CodeModel{}
	if err := Resolve(t, CodeBuilder(newCodeBuilder(b.buildEnv, out))).Run(c.Elements()); err != nil {
		return err
	}
	b.With(out)
	return nil
}

type codeBuilder struct {
	*buildEnv
	sink func(CodeElement)
}

func newCodeBuilder(env *buildEnv, c *CodeModel) *codeBuilder {
	return &codeBuilder{
		buildEnv: env,
		sink:     func(e CodeElement) { c.elements = append(c.elements, e) },
	}
}

func (b *codeBuilder) With(e CodeElement) CodeBuilder {
	b.sink(e)
	return b
}

func (b *codeBuilder) chain(sink func(CodeElement)) CodeBuilder {
	return &codeBuilder{buildEnv: b.buildEnv, sink: sink}
}

func (b *codeBuilder) NewLabel() Label {
	return b.labels.NewLabel()
}

func (b *codeBuilder) LabelBinding(l Label) CodeBuilder {
	return b.With(LabelTarget{Label: l})
}

func (b *codeBuilder) Operator(op Opcode) CodeBuilder {
	return b.With(OperatorInstruction{Op: op})
}

func (b *codeBuilder) LoadLocal(op Opcode, slot int) CodeBuilder {
	return b.With(Load(op, slot))
}

func (b *codeBuilder) StoreLocal(op Opcode, slot int) CodeBuilder {
	return b.With(Store(op, slot))
}

func (b *codeBuilder) Constant(v any) CodeBuilder {
	return b.With(ConstantOf(v))
}

func (b *codeBuilder) Branch(op Opcode, target Label) CodeBuilder {
	return b.With(BranchInstruction{Op: op, Target: target})
}

func (b *codeBuilder) Goto(target Label) CodeBuilder {
	return b.Branch(OpGoto, target)
}

func (b *codeBuilder) Return() CodeBuilder {
	return b.Operator(OpReturn)
}

func (b *codeBuilder) FieldAccess(op Opcode, owner, name, desc string) CodeBuilder {
	return b.With(FieldInstruction{Op: op, Owner: owner, Name: name, Desc: desc})
}

func (b *codeBuilder) Invoke(op Opcode, owner, name, desc string) CodeBuilder {
	return b.With(InvokeInstruction{Op: op, Owner: owner, Name: name, Desc: desc, Interface: op == OpInvokeinterface})
}

func (b *codeBuilder) New(class string) CodeBuilder {
	return b.With(TypeInstruction{Op: OpNew, Class: class})
}

func (b *codeBuilder) ExceptionCatch(start, end, handler Label, catchType string) CodeBuilder {
	return b.With(ExceptionCatch{Start: start, End: end, Handler: handler, CatchType: catchType})
}

func (b *codeBuilder) LocalVariable(slot int, name, desc string, start, end Label) CodeBuilder {
	return b.With(LocalVariable{Slot: slot, Name: name, Desc: desc, Start: start, End: end})
}

// WithElement integrates e into b when b's level accepts it. It is the entry
// point for elements whose level is only known at run time; a mismatch is a
// KindChannelMismatch error and b is left unchanged.
func WithElement(b AnyBuilder, e Element) error {
	switch b := b.(type) {
	case ClassBuilder:
		if ce, ok := e.(ClassElement); ok {
			b.With(ce)
			return nil
		}
		return cferrors.ChannelMismatch(ElementName(e), "class")
	case FieldBuilder:
		if fe, ok := e.(FieldElement); ok {
			b.With(fe)
			return nil
		}
		return cferrors.ChannelMismatch(ElementName(e), "field")
	case MethodBuilder:
		if me, ok := e.(MethodElement); ok {
			b.With(me)
			return nil
		}
		return cferrors.ChannelMismatch(ElementName(e), "method")
	case CodeBuilder:
		if ce, ok := e.(CodeElement); ok {
			b.With(ce)
			return nil
		}
		return cferrors.ChannelMismatch(ElementName(e), "code")
	}
	return cferrors.InvalidInput(cferrors.PhaseBuild, fmt.Sprintf("unknown builder %T", b))
}
