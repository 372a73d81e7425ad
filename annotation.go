package classfile

import (
	"fmt"

	"github.com/wippyai/classfile/constantpool"
	cferrors "github.com/wippyai/classfile/errors"
	"github.com/wippyai/classfile/internal/binary"
)

// Annotation is one annotation: the annotation interface descriptor and its
// element-value pairs in declaration order.
type Annotation struct {
	Class    string
	Elements []AnnotationElement
}

// AnnotationElement is a name/value pair of an annotation.
type AnnotationElement struct {
	Value AnnotationValue
	Name  string
}

// AnnotationOf creates an annotation for the interface descriptor classDesc.
func AnnotationOf(classDesc string, elements ...AnnotationElement) Annotation {
	return Annotation{Class: classDesc, Elements: elements}
}

// ElementOf creates an annotation element.
func ElementOf(name string, value AnnotationValue) AnnotationElement {
	return AnnotationElement{Name: name, Value: value}
}

// AnnotationValue is an element_value. The tag byte selects the variant.
type AnnotationValue interface {
	Tag() byte
	isAnnotationValue()
}

type (
	// IntValue is an int constant ('I').
	IntValue struct{ Value int32 }
	// ByteValue is a byte constant ('B').
	ByteValue struct{ Value int8 }
	// CharValue is a char constant ('C').
	CharValue struct{ Value uint16 }
	// ShortValue is a short constant ('S').
	ShortValue struct{ Value int16 }
	// LongValue is a long constant ('J').
	LongValue struct{ Value int64 }
	// FloatValue is a float constant ('F').
	FloatValue struct{ Value float32 }
	// DoubleValue is a double constant ('D').
	DoubleValue struct{ Value float64 }
	// BooleanValue is a boolean constant ('Z').
	BooleanValue struct{ Value bool }
	// StringValue is a string constant ('s').
	StringValue struct{ Value string }
	// EnumValue is an enum constant ('e'): the enum type descriptor and constant name.
	EnumValue struct{ Class, Constant string }
	// ClassValue is a class literal ('c') given as a return descriptor.
	ClassValue struct{ Desc string }
	// ArrayValue is an array of values ('[').
	ArrayValue struct{ Values []AnnotationValue }
	// NestedValue is an annotation used as a value ('@').
	NestedValue struct{ Annotation Annotation }
)

func (IntValue) Tag() byte     { return 'I' }
func (ByteValue) Tag() byte    { return 'B' }
func (CharValue) Tag() byte    { return 'C' }
func (ShortValue) Tag() byte   { return 'S' }
func (LongValue) Tag() byte    { return 'J' }
func (FloatValue) Tag() byte   { return 'F' }
func (DoubleValue) Tag() byte  { return 'D' }
func (BooleanValue) Tag() byte { return 'Z' }
func (StringValue) Tag() byte  { return 's' }
func (EnumValue) Tag() byte    { return 'e' }
func (ClassValue) Tag() byte   { return 'c' }
func (ArrayValue) Tag() byte   { return '[' }
func (NestedValue) Tag() byte  { return '@' }

func (IntValue) isAnnotationValue()     {}
func (ByteValue) isAnnotationValue()    {}
func (CharValue) isAnnotationValue()    {}
func (ShortValue) isAnnotationValue()   {}
func (LongValue) isAnnotationValue()    {}
func (FloatValue) isAnnotationValue()   {}
func (DoubleValue) isAnnotationValue()  {}
func (BooleanValue) isAnnotationValue() {}
func (StringValue) isAnnotationValue()  {}
func (EnumValue) isAnnotationValue()    {}
func (ClassValue) isAnnotationValue()   {}
func (ArrayValue) isAnnotationValue()   {}
func (NestedValue) isAnnotationValue()  {}

func writeAnnotation(w *binary.Writer, pool *constantpool.Builder, a Annotation) error {
	typeIdx, err := pool.Utf8(a.Class)
	if err != nil {
		return err
	}
	if len(a.Elements) > 0xFFFF {
		return cferrors.Overflow(cferrors.PhaseEncode, []string{a.Class}, len(a.Elements), "num_element_value_pairs")
	}
	w.WriteU2(typeIdx)
	w.WriteU2(uint16(len(a.Elements)))
	for _, e := range a.Elements {
		nameIdx, err := pool.Utf8(e.Name)
		if err != nil {
			return err
		}
		w.WriteU2(nameIdx)
		if err := writeElementValue(w, pool, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func writeElementValue(w *binary.Writer, pool *constantpool.Builder, v AnnotationValue) error {
	if v == nil {
		return cferrors.InvalidInput(cferrors.PhaseEncode, "nil annotation value")
	}
	var (
		idx uint16
		err error
	)
	w.Byte(v.Tag())
	switch v := v.(type) {
	case IntValue:
		idx, err = pool.Integer(v.Value)
	case ByteValue:
		idx, err = pool.Integer(int32(v.Value))
	case CharValue:
		idx, err = pool.Integer(int32(v.Value))
	case ShortValue:
		idx, err = pool.Integer(int32(v.Value))
	case LongValue:
		idx, err = pool.Long(v.Value)
	case FloatValue:
		idx, err = pool.Float(v.Value)
	case DoubleValue:
		idx, err = pool.Double(v.Value)
	case BooleanValue:
		b := int32(0)
		if v.Value {
			b = 1
		}
		idx, err = pool.Integer(b)
	case StringValue:
		idx, err = pool.Utf8(v.Value)
	case ClassValue:
		idx, err = pool.Utf8(v.Desc)
	case EnumValue:
		typeIdx, err := pool.Utf8(v.Class)
		if err != nil {
			return err
		}
		nameIdx, err := pool.Utf8(v.Constant)
		if err != nil {
			return err
		}
		w.WriteU2(typeIdx)
		w.WriteU2(nameIdx)
		return nil
	case ArrayValue:
		if len(v.Values) > 0xFFFF {
			return cferrors.Overflow(cferrors.PhaseEncode, []string{"array_value"}, len(v.Values), "num_values")
		}
		w.WriteU2(uint16(len(v.Values)))
		for _, item := range v.Values {
			if err := writeElementValue(w, pool, item); err != nil {
				return err
			}
		}
		return nil
	case NestedValue:
		return writeAnnotation(w, pool, v.Annotation)
	default:
		return cferrors.Unsupported(cferrors.PhaseEncode, fmt.Sprintf("annotation value %T", v))
	}
	if err != nil {
		return err
	}
	w.WriteU2(idx)
	return nil
}

func readAnnotation(r *binary.Reader, pool constantpool.Pool) (Annotation, error) {
	typeIdx, err := r.ReadU2()
	if err != nil {
		return Annotation{}, err
	}
	class, err := constantpool.Utf8At(pool, typeIdx)
	if err != nil {
		return Annotation{}, err
	}
	n, err := r.ReadU2()
	if err != nil {
		return Annotation{}, err
	}
	a := Annotation{Class: class}
	for i := 0; i < int(n); i++ {
		nameIdx, err := r.ReadU2()
		if err != nil {
			return Annotation{}, err
		}
		name, err := constantpool.Utf8At(pool, nameIdx)
		if err != nil {
			return Annotation{}, err
		}
		v, err := readElementValue(r, pool)
		if err != nil {
			return Annotation{}, err
		}
		a.Elements = append(a.Elements, AnnotationElement{Name: name, Value: v})
	}
	return a, nil
}

func readElementValue(r *binary.Reader, pool constantpool.Pool) (AnnotationValue, error) {
	tag, err := r.ReadU1()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 'e':
		typeIdx, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		class, err := constantpool.Utf8At(pool, typeIdx)
		if err != nil {
			return nil, err
		}
		constant, err := constantpool.Utf8At(pool, nameIdx)
		if err != nil {
			return nil, err
		}
		return EnumValue{Class: class, Constant: constant}, nil
	case '[':
		n, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		values := make([]AnnotationValue, 0, n)
		for i := 0; i < int(n); i++ {
			v, err := readElementValue(r, pool)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return ArrayValue{Values: values}, nil
	case '@':
		a, err := readAnnotation(r, pool)
		if err != nil {
			return nil, err
		}
		return NestedValue{Annotation: a}, nil
	}

	idx, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 's', 'c':
		s, err := constantpool.Utf8At(pool, idx)
		if err != nil {
			return nil, err
		}
		if tag == 's' {
			return StringValue{Value: s}, nil
		}
		return ClassValue{Desc: s}, nil
	}
	e, err := pool.EntryAt(idx)
	if err != nil {
		return nil, err
	}
	switch c := e.(type) {
	case constantpool.Integer:
		switch tag {
		case 'I':
			return IntValue{Value: c.Value}, nil
		case 'Z':
			return BooleanValue{Value: c.Value != 0}, nil
		case 'B':
			return ByteValue{Value: int8(c.Value)}, nil
		case 'C':
			return CharValue{Value: uint16(c.Value)}, nil
		case 'S':
			return ShortValue{Value: int16(c.Value)}, nil
		}
	case constantpool.Long:
		if tag == 'J' {
			return LongValue{Value: c.Value}, nil
		}
	case constantpool.Float:
		if tag == 'F' {
			return FloatValue{Value: c.Value()}, nil
		}
	case constantpool.Double:
		if tag == 'D' {
			return DoubleValue{Value: c.Value()}, nil
		}
	}
	return nil, cferrors.New(cferrors.PhaseDecode, cferrors.KindInvalidData).
		Path("element_value").
		Value(tag).
		Detail("tag %q with %s constant", tag, e.Tag()).
		Build()
}
