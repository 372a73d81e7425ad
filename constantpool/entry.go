package constantpool

import (
	"fmt"
	"math"
)

// Tag identifies the kind of a constant pool entry (JVMS 4.4).
type Tag byte

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

func (t Tag) String() string {
	switch t {
	case TagUtf8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldref:
		return "Fieldref"
	case TagMethodref:
		return "Methodref"
	case TagInterfaceMethodref:
		return "InterfaceMethodref"
	case TagNameAndType:
		return "NameAndType"
	case TagMethodHandle:
		return "MethodHandle"
	case TagMethodType:
		return "MethodType"
	case TagDynamic:
		return "Dynamic"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	case TagModule:
		return "Module"
	case TagPackage:
		return "Package"
	default:
		return fmt.Sprintf("Tag(%d)", byte(t))
	}
}

// Entry is one constant pool entry. Entries are comparable values so that a
// pool can intern them by equality.
type Entry interface {
	Tag() Tag
}

// Utf8 is a CONSTANT_Utf8 entry.
type Utf8 struct {
	Value string
}

// Integer is a CONSTANT_Integer entry.
type Integer struct {
	Value int32
}

// Float is a CONSTANT_Float entry, stored as raw bits so NaN interns correctly.
type Float struct {
	Bits uint32
}

// Long is a CONSTANT_Long entry. It occupies two pool slots.
type Long struct {
	Value int64
}

// Double is a CONSTANT_Double entry. It occupies two pool slots.
type Double struct {
	Bits uint64
}

// Class is a CONSTANT_Class entry referring to a Utf8 internal name.
type Class struct {
	NameIndex uint16
}

// String is a CONSTANT_String entry referring to a Utf8 value.
type String struct {
	Utf8Index uint16
}

// NameAndType is a CONSTANT_NameAndType entry.
type NameAndType struct {
	NameIndex uint16
	TypeIndex uint16
}

// MemberRef covers CONSTANT_Fieldref, CONSTANT_Methodref and CONSTANT_InterfaceMethodref.
type MemberRef struct {
	Kind             Tag
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// MethodHandle is a CONSTANT_MethodHandle entry.
type MethodHandle struct {
	RefKind  uint8
	RefIndex uint16
}

// MethodType is a CONSTANT_MethodType entry.
type MethodType struct {
	DescIndex uint16
}

// Dynamic covers CONSTANT_Dynamic and CONSTANT_InvokeDynamic.
type Dynamic struct {
	Kind             Tag
	BootstrapIndex   uint16
	NameAndTypeIndex uint16
}

// Module is a CONSTANT_Module entry.
type Module struct {
	NameIndex uint16
}

// Package is a CONSTANT_Package entry.
type Package struct {
	NameIndex uint16
}

func (Utf8) Tag() Tag         { return TagUtf8 }
func (Integer) Tag() Tag      { return TagInteger }
func (Float) Tag() Tag        { return TagFloat }
func (Long) Tag() Tag         { return TagLong }
func (Double) Tag() Tag       { return TagDouble }
func (Class) Tag() Tag        { return TagClass }
func (String) Tag() Tag       { return TagString }
func (NameAndType) Tag() Tag  { return TagNameAndType }
func (m MemberRef) Tag() Tag  { return m.Kind }
func (MethodHandle) Tag() Tag { return TagMethodHandle }
func (MethodType) Tag() Tag   { return TagMethodType }
func (d Dynamic) Tag() Tag    { return d.Kind }
func (Module) Tag() Tag       { return TagModule }
func (Package) Tag() Tag      { return TagPackage }

// FloatOf returns the Float entry for v.
func FloatOf(v float32) Float {
	return Float{Bits: math.Float32bits(v)}
}

// DoubleOf returns the Double entry for v.
func DoubleOf(v float64) Double {
	return Double{Bits: math.Float64bits(v)}
}

// Value returns the float value of the entry.
func (f Float) Value() float32 {
	return math.Float32frombits(f.Bits)
}

// Value returns the double value of the entry.
func (d Double) Value() float64 {
	return math.Float64frombits(d.Bits)
}

// width returns the number of pool slots taken by e.
func width(e Entry) int {
	switch e.(type) {
	case Long, Double:
		return 2
	default:
		return 1
	}
}
