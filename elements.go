package classfile

import (
	"fmt"

	"github.com/wippyai/classfile/constantpool"
)

// Element is one semantic fragment of a class file. The set of elements is
// closed: each level accepts exactly the types that implement its channel
// interface.
type Element interface {
	element()
}

// ClassElement is an element a ClassBuilder accepts.
type ClassElement interface {
	Element
	classElement()
}

// FieldElement is an element a FieldBuilder accepts.
type FieldElement interface {
	Element
	fieldElement()
}

// MethodElement is an element a MethodBuilder accepts.
type MethodElement interface {
	Element
	methodElement()
}

// CodeElement is an element a CodeBuilder accepts.
type CodeElement interface {
	Element
	codeElement()
}

// ClassVersion sets the class file major and minor version.
type ClassVersion struct {
	Major uint16
	Minor uint16
}

// Default class file version, Java 8.
const (
	DefaultMajorVersion = 52
	DefaultMinorVersion = 0
)

// AccessFlags sets the access flags of a class, field or method.
type AccessFlags struct {
	Flags AccessFlag
}

// Superclass sets the superclass by internal name.
type Superclass struct {
	Name string
}

// Interfaces sets the direct superinterfaces by internal name.
type Interfaces struct {
	Names []string
}

// SourceFile is the SourceFile attribute.
type SourceFile struct {
	Name string
}

// Signature is the Signature attribute carrying a generic signature.
type Signature struct {
	Value string
}

// Synthetic is the Synthetic attribute.
type Synthetic struct{}

// Deprecated is the Deprecated attribute.
type Deprecated struct{}

// AnnotationsAttribute is RuntimeVisibleAnnotations when Visible is set and
// RuntimeInvisibleAnnotations otherwise.
type AnnotationsAttribute struct {
	Annotations []Annotation
	Visible     bool
}

// TypeAnnotationsAttribute is RuntimeVisibleTypeAnnotations when Visible is
// set and RuntimeInvisibleTypeAnnotations otherwise. On the code level its
// targets may reference labels of the enclosing code.
type TypeAnnotationsAttribute struct {
	Annotations []TypeAnnotation
	Visible     bool
}

// ConstantValue is the ConstantValue attribute of a field. Value is one of
// int32, int64, float32, float64 or string.
type ConstantValue struct {
	Value any
}

// Exceptions is the Exceptions attribute of a method.
type Exceptions struct {
	Names []string
}

// CustomAttribute is an attribute the model does not interpret. Its payload
// may hold constant pool indices; in that case it is bound to the pool those
// indices refer to and can only be written into a pool that can reuse them.
type CustomAttribute struct {
	pool constantpool.Pool
	Name string
	Data []byte
}

// NewCustomAttribute creates an attribute whose payload is pool independent.
func NewCustomAttribute(name string, data []byte) CustomAttribute {
	return CustomAttribute{Name: name, Data: data}
}

// BoundCustomAttribute creates an attribute whose payload holds indices into pool.
func BoundCustomAttribute(name string, data []byte, pool constantpool.Pool) CustomAttribute {
	return CustomAttribute{Name: name, Data: data, pool: pool}
}

// Pool returns the constant pool the payload is bound to, or nil.
func (a CustomAttribute) Pool() constantpool.Pool {
	return a.pool
}

func (ClassVersion) element()             {}
func (AccessFlags) element()              {}
func (Superclass) element()               {}
func (Interfaces) element()               {}
func (SourceFile) element()               {}
func (Signature) element()                {}
func (Synthetic) element()                {}
func (Deprecated) element()               {}
func (AnnotationsAttribute) element()     {}
func (TypeAnnotationsAttribute) element() {}
func (ConstantValue) element()            {}
func (Exceptions) element()               {}
func (CustomAttribute) element()          {}

func (ClassVersion) classElement()             {}
func (AccessFlags) classElement()              {}
func (Superclass) classElement()               {}
func (Interfaces) classElement()               {}
func (SourceFile) classElement()               {}
func (Signature) classElement()                {}
func (Synthetic) classElement()                {}
func (Deprecated) classElement()               {}
func (AnnotationsAttribute) classElement()     {}
func (TypeAnnotationsAttribute) classElement() {}
func (CustomAttribute) classElement()          {}

func (AccessFlags) fieldElement()              {}
func (Signature) fieldElement()                {}
func (Synthetic) fieldElement()                {}
func (Deprecated) fieldElement()               {}
func (AnnotationsAttribute) fieldElement()     {}
func (TypeAnnotationsAttribute) fieldElement() {}
func (ConstantValue) fieldElement()            {}
func (CustomAttribute) fieldElement()          {}

func (AccessFlags) methodElement()              {}
func (Signature) methodElement()                {}
func (Synthetic) methodElement()                {}
func (Deprecated) methodElement()               {}
func (AnnotationsAttribute) methodElement()     {}
func (TypeAnnotationsAttribute) methodElement() {}
func (Exceptions) methodElement()               {}
func (CustomAttribute) methodElement()          {}

func (TypeAnnotationsAttribute) codeElement() {}
func (CustomAttribute) codeElement()          {}

// ElementName returns a short display name for e.
func ElementName(e Element) string {
	switch e := e.(type) {
	case *FieldModel:
		return "Field " + e.Name + ":" + e.Desc
	case *MethodModel:
		return "Method " + e.Name + e.Desc
	case *CodeModel:
		return "Code"
	case CustomAttribute:
		return "Attribute " + e.Name
	case Instruction:
		return e.Opcode().String()
	case nil:
		return "<nil>"
	}
	name := fmt.Sprintf("%T", e)
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
