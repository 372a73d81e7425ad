package classfile

import (
	"fmt"
	"math"

	"github.com/wippyai/classfile/constantpool"
	cferrors "github.com/wippyai/classfile/errors"
	"github.com/wippyai/classfile/internal/binary"
)

// Magic is the class file magic number.
const Magic = 0xCAFEBABE

// Attribute names written by the encoder.
const (
	AttrCode                            = "Code"
	AttrConstantValue                   = "ConstantValue"
	AttrExceptions                      = "Exceptions"
	AttrSourceFile                      = "SourceFile"
	AttrSignature                       = "Signature"
	AttrSynthetic                       = "Synthetic"
	AttrDeprecated                      = "Deprecated"
	AttrLineNumberTable                 = "LineNumberTable"
	AttrLocalVariableTable              = "LocalVariableTable"
	AttrStackMapTable                   = "StackMapTable"
	AttrRuntimeVisibleAnnotations       = "RuntimeVisibleAnnotations"
	AttrRuntimeInvisibleAnnotations     = "RuntimeInvisibleAnnotations"
	AttrRuntimeVisibleTypeAnnotations   = "RuntimeVisibleTypeAnnotations"
	AttrRuntimeInvisibleTypeAnnotations = "RuntimeInvisibleTypeAnnotations"
)

type attribute struct {
	name string
	data []byte
}

// singletonAttributes may appear at most once per class, field or method.
var singletonAttributes = map[string]bool{
	AttrCode:                               true,
	AttrConstantValue:                      true,
	AttrExceptions:                         true,
	AttrSourceFile:                         true,
	AttrSignature:                          true,
	AttrSynthetic:                          true,
	AttrDeprecated:                         true,
	AttrStackMapTable:                      true,
	AttrRuntimeVisibleAnnotations:          true,
	AttrRuntimeInvisibleAnnotations:        true,
	AttrRuntimeVisibleTypeAnnotations:      true,
	AttrRuntimeInvisibleTypeAnnotations:    true,
	"RuntimeVisibleParameterAnnotations":   true,
	"RuntimeInvisibleParameterAnnotations": true,
	"AnnotationDefault":                    true,
	"InnerClasses":                         true,
	"EnclosingMethod":                      true,
	"SourceDebugExtension":                 true,
	"BootstrapMethods":                     true,
	"MethodParameters":                     true,
	"Module":                               true,
	"ModulePackages":                       true,
	"ModuleMainClass":                      true,
	"NestHost":                             true,
	"NestMembers":                          true,
	"Record":                               true,
	"PermittedSubclasses":                  true,
}

// lastWins drops every earlier occurrence of a singleton attribute, matching
// the last-element-wins model queries. Other attributes keep their order.
func lastWins(attrs []attribute) []attribute {
	last := make(map[string]int)
	for i, a := range attrs {
		if singletonAttributes[a.name] {
			last[a.name] = i
		}
	}
	if len(last) == 0 {
		return attrs
	}
	out := attrs[:0:0]
	for i, a := range attrs {
		if j, ok := last[a.name]; ok && j != i {
			continue
		}
		out = append(out, a)
	}
	return out
}

// encoder serializes one class into one pool builder.
type encoder struct {
	pool      *constantpool.Builder
	thisClass string
}

// encodeClass serializes m. Every entry is interned into pool, which is then
// written ahead of the class body.
func encodeClass(m *ClassModel, pool *constantpool.Builder) ([]byte, error) {
	e := &encoder{pool: pool, thisClass: m.ThisClass}
	body := binary.NewWriter()

	thisIdx, err := pool.Class(m.ThisClass)
	if err != nil {
		return nil, err
	}
	var superIdx uint16
	if super, ok := m.Superclass(); ok {
		if superIdx, err = pool.Class(super); err != nil {
			return nil, err
		}
	}
	body.WriteU2(uint16(m.Flags()))
	body.WriteU2(thisIdx)
	body.WriteU2(superIdx)

	ifaces := m.Interfaces()
	if err := e.checkCount(len(ifaces), "interfaces_count"); err != nil {
		return nil, err
	}
	body.WriteU2(uint16(len(ifaces)))
	for _, name := range ifaces {
		idx, err := pool.Class(name)
		if err != nil {
			return nil, err
		}
		body.WriteU2(idx)
	}

	fields := m.Fields()
	if err := e.checkCount(len(fields), "fields_count"); err != nil {
		return nil, err
	}
	body.WriteU2(uint16(len(fields)))
	for _, f := range fields {
		if err := e.writeField(body, f); err != nil {
			return nil, err
		}
	}

	methods := m.Methods()
	if err := e.checkCount(len(methods), "methods_count"); err != nil {
		return nil, err
	}
	body.WriteU2(uint16(len(methods)))
	for _, mm := range methods {
		if err := e.writeMethod(body, mm); err != nil {
			return nil, err
		}
	}

	var attrs []attribute
	for _, el := range m.elements {
		a, ok, err := e.attribute(el, nil)
		if err != nil {
			return nil, err
		}
		if ok {
			attrs = append(attrs, a)
		}
	}
	if err := e.writeAttributes(body, lastWins(attrs)); err != nil {
		return nil, err
	}

	v := m.Version()
	out := binary.NewWriter()
	out.WriteU4(Magic)
	out.WriteU2(v.Minor)
	out.WriteU2(v.Major)
	pool.WriteTo(out)
	out.WriteBytes(body.Bytes())
	return out.Bytes(), nil
}

func (e *encoder) writeField(w *binary.Writer, f *FieldModel) error {
	nameIdx, err := e.pool.Utf8(f.Name)
	if err != nil {
		return err
	}
	descIdx, err := e.pool.Utf8(f.Desc)
	if err != nil {
		return err
	}
	w.WriteU2(uint16(f.Flags()))
	w.WriteU2(nameIdx)
	w.WriteU2(descIdx)

	var attrs []attribute
	for _, el := range f.elements {
		a, ok, err := e.attribute(el, nil)
		if err != nil {
			return err
		}
		if ok {
			attrs = append(attrs, a)
		}
	}
	return e.writeAttributes(w, lastWins(attrs))
}

func (e *encoder) writeMethod(w *binary.Writer, m *MethodModel) error {
	nameIdx, err := e.pool.Utf8(m.Name)
	if err != nil {
		return err
	}
	descIdx, err := e.pool.Utf8(m.Desc)
	if err != nil {
		return err
	}
	flags := m.Flags()
	w.WriteU2(uint16(flags))
	w.WriteU2(nameIdx)
	w.WriteU2(descIdx)

	body, _ := m.Code()
	var attrs []attribute
	for _, el := range m.elements {
		if c, ok := el.(*CodeModel); ok {
			if c != body {
				continue
			}
			data, err := e.encodeCode(m, flags, c)
			if err != nil {
				return err
			}
			attrs = append(attrs, attribute{name: AttrCode, data: data})
			continue
		}
		a, ok, err := e.attribute(el, nil)
		if err != nil {
			return err
		}
		if ok {
			attrs = append(attrs, a)
		}
	}
	return e.writeAttributes(w, lastWins(attrs))
}

func (e *encoder) writeAttributes(w *binary.Writer, attrs []attribute) error {
	if err := e.checkCount(len(attrs), "attributes_count"); err != nil {
		return err
	}
	w.WriteU2(uint16(len(attrs)))
	for _, a := range attrs {
		idx, err := e.pool.Utf8(a.name)
		if err != nil {
			return err
		}
		if uint64(len(a.data)) > math.MaxUint32 {
			return cferrors.Overflow(cferrors.PhaseEncode, []string{e.thisClass, a.name}, len(a.data), "attribute_length")
		}
		w.WriteU2(idx)
		w.WriteU4(uint32(len(a.data)))
		w.WriteBytes(a.data)
	}
	return nil
}

// attribute encodes an attribute element. ok is false for elements that are
// not attributes.
func (e *encoder) attribute(el Element, labels LabelResolver) (attribute, bool, error) {
	w := binary.NewWriter()
	var name string
	switch a := el.(type) {
	case SourceFile:
		name = AttrSourceFile
		if err := e.writeUtf8(w, a.Name); err != nil {
			return attribute{}, false, err
		}
	case Signature:
		name = AttrSignature
		if err := e.writeUtf8(w, a.Value); err != nil {
			return attribute{}, false, err
		}
	case Synthetic:
		name = AttrSynthetic
	case Deprecated:
		name = AttrDeprecated
	case AnnotationsAttribute:
		name = AttrRuntimeInvisibleAnnotations
		if a.Visible {
			name = AttrRuntimeVisibleAnnotations
		}
		if err := e.checkCount(len(a.Annotations), "num_annotations"); err != nil {
			return attribute{}, false, err
		}
		w.WriteU2(uint16(len(a.Annotations)))
		for _, an := range a.Annotations {
			if err := writeAnnotation(w, e.pool, an); err != nil {
				return attribute{}, false, err
			}
		}
	case TypeAnnotationsAttribute:
		name = AttrRuntimeInvisibleTypeAnnotations
		if a.Visible {
			name = AttrRuntimeVisibleTypeAnnotations
		}
		if err := writeTypeAnnotations(w, e.pool, a.Annotations, labels); err != nil {
			return attribute{}, false, err
		}
	case ConstantValue:
		name = AttrConstantValue
		idx, err := e.constantIndex(a.Value)
		if err != nil {
			return attribute{}, false, err
		}
		w.WriteU2(idx)
	case Exceptions:
		name = AttrExceptions
		if err := e.checkCount(len(a.Names), "number_of_exceptions"); err != nil {
			return attribute{}, false, err
		}
		w.WriteU2(uint16(len(a.Names)))
		for _, n := range a.Names {
			idx, err := e.pool.Class(n)
			if err != nil {
				return attribute{}, false, err
			}
			w.WriteU2(idx)
		}
	case CustomAttribute:
		if a.pool != nil && !e.pool.CanWriteDirect(a.pool) {
			return attribute{}, false, cferrors.New(cferrors.PhaseEncode, cferrors.KindUnsupported).
				Path(e.thisClass, a.Name).
				Element("CustomAttribute").
				Detail("payload is bound to a constant pool this class cannot reuse").
				Build()
		}
		return attribute{name: a.Name, data: a.Data}, true, nil
	default:
		return attribute{}, false, nil
	}
	return attribute{name: name, data: w.Bytes()}, true, nil
}

func (e *encoder) writeUtf8(w *binary.Writer, s string) error {
	idx, err := e.pool.Utf8(s)
	if err != nil {
		return err
	}
	w.WriteU2(idx)
	return nil
}

// constantIndex interns a loadable constant.
func (e *encoder) constantIndex(v any) (uint16, error) {
	switch v := v.(type) {
	case int32:
		return e.pool.Integer(v)
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return 0, cferrors.Overflow(cferrors.PhaseEncode, []string{e.thisClass}, v, "int")
		}
		return e.pool.Integer(int32(v))
	case int64:
		return e.pool.Long(v)
	case float32:
		return e.pool.Float(v)
	case float64:
		return e.pool.Double(v)
	case string:
		return e.pool.String(v)
	case ClassConstant:
		return e.pool.Class(v.Name)
	}
	return 0, cferrors.New(cferrors.PhaseEncode, cferrors.KindInvalidInput).
		Path(e.thisClass).
		Value(v).
		Detail("%T is not a loadable constant", v).
		Build()
}

func (e *encoder) checkCount(n int, what string) error {
	if n > 0xFFFF {
		return cferrors.Overflow(cferrors.PhaseEncode, []string{e.thisClass}, n, what)
	}
	return nil
}

func (e *encoder) methodPath(m *MethodModel, parts ...string) []string {
	return append([]string{e.thisClass, fmt.Sprintf("%s%s", m.Name, m.Desc)}, parts...)
}
