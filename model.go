package classfile

import (
	"iter"
	"slices"

	"github.com/wippyai/classfile/constantpool"
)

// ClassModel is a class as an ordered sequence of class elements. Models
// come from Parse or from a build and are read-only once returned.
type ClassModel struct {
	pool      constantpool.Pool
	ThisClass string
	elements  []ClassElement
}

// Elements iterates the class elements in order.
func (m *ClassModel) Elements() iter.Seq[ClassElement] {
	return slices.Values(m.elements)
}

// ElementList returns a copy of the class elements.
func (m *ClassModel) ElementList() []ClassElement {
	return slices.Clone(m.elements)
}

// ConstantPool returns the pool the model's bound attributes refer to: the
// parsed pool of a class file, or the pool builder of the build.
func (m *ClassModel) ConstantPool() constantpool.Pool {
	return m.pool
}

// Version returns the last ClassVersion element, or the default version.
func (m *ClassModel) Version() ClassVersion {
	v := ClassVersion{Major: DefaultMajorVersion, Minor: DefaultMinorVersion}
	for _, e := range m.elements {
		if cv, ok := e.(ClassVersion); ok {
			v = cv
		}
	}
	return v
}

// Flags returns the class access flags.
func (m *ClassModel) Flags() AccessFlag {
	return lastFlags(m.elements, AccPublic|AccSuper)
}

// Superclass returns the superclass internal name. java/lang/Object has none.
func (m *ClassModel) Superclass() (string, bool) {
	name, found := "", false
	for _, e := range m.elements {
		if s, ok := e.(Superclass); ok {
			name, found = s.Name, true
		}
	}
	if found {
		return name, name != ""
	}
	if m.ThisClass == "java/lang/Object" {
		return "", false
	}
	return "java/lang/Object", true
}

// Interfaces returns the direct superinterfaces.
func (m *ClassModel) Interfaces() []string {
	var names []string
	for _, e := range m.elements {
		if i, ok := e.(Interfaces); ok {
			names = i.Names
		}
	}
	return names
}

// Fields returns the field models in order.
func (m *ClassModel) Fields() []*FieldModel {
	return collect[*FieldModel](m.elements)
}

// Methods returns the method models in order.
func (m *ClassModel) Methods() []*MethodModel {
	return collect[*MethodModel](m.elements)
}

// FieldModel is a field as an ordered sequence of field elements.
type FieldModel struct {
	Name     string
	Desc     string
	elements []FieldElement
}

// Elements iterates the field elements in order.
func (f *FieldModel) Elements() iter.Seq[FieldElement] {
	return slices.Values(f.elements)
}

// ElementList returns a copy of the field elements.
func (f *FieldModel) ElementList() []FieldElement {
	return slices.Clone(f.elements)
}

// Flags returns the field access flags.
func (f *FieldModel) Flags() AccessFlag {
	return lastFlags(f.elements, 0)
}

// MethodModel is a method as an ordered sequence of method elements.
type MethodModel struct {
	Name     string
	Desc     string
	elements []MethodElement
}

// Elements iterates the method elements in order.
func (m *MethodModel) Elements() iter.Seq[MethodElement] {
	return slices.Values(m.elements)
}

// ElementList returns a copy of the method elements.
func (m *MethodModel) ElementList() []MethodElement {
	return slices.Clone(m.elements)
}

// Flags returns the method access flags.
func (m *MethodModel) Flags() AccessFlag {
	return lastFlags(m.elements, 0)
}

// Code returns the method body, if the method has one.
func (m *MethodModel) Code() (*CodeModel, bool) {
	var code *CodeModel
	for _, e := range m.elements {
		if c, ok := e.(*CodeModel); ok {
			code = c
		}
	}
	return code, code != nil
}

// CodeModel is a method body as an ordered sequence of code elements.
type CodeModel struct {
	elements []CodeElement
}

// Elements iterates the code elements in order.
func (c *CodeModel) Elements() iter.Seq[CodeElement] {
	return slices.Values(c.elements)
}

// ElementList returns a copy of the code elements.
func (c *CodeModel) ElementList() []CodeElement {
	return slices.Clone(c.elements)
}

// Instructions returns the instructions of the body, without pseudo elements.
func (c *CodeModel) Instructions() []Instruction {
	return collect[Instruction](c.elements)
}

func (*FieldModel) element()      {}
func (*FieldModel) classElement() {}

func (*MethodModel) element()      {}
func (*MethodModel) classElement() {}

func (*CodeModel) element()       {}
func (*CodeModel) methodElement() {}

func collect[T any, E any](elements []E) []T {
	var out []T
	for _, e := range elements {
		if t, ok := any(e).(T); ok {
			out = append(out, t)
		}
	}
	return out
}

func lastFlags[E any](elements []E, def AccessFlag) AccessFlag {
	flags := def
	for _, e := range elements {
		if f, ok := any(e).(AccessFlags); ok {
			flags = f.Flags
		}
	}
	return flags
}
