package classdef

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf16"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/classfile"
	cferrors "github.com/wippyai/classfile/errors"
)

// Parse decodes a YAML class definition. Unknown top-level keys are
// rejected.
func Parse(data []byte) (*Class, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var def Class
	if err := dec.Decode(&def); err != nil {
		return nil, cferrors.ParseFailed("class definition", err)
	}
	if def.Name == "" {
		return nil, cferrors.InvalidInput(cferrors.PhaseParse, "class definition has no name")
	}
	return &def, nil
}

// LoadFile reads and parses the class definition at path.
func LoadFile(path string) (*Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cferrors.Wrap(cferrors.PhaseParse, cferrors.KindNotFound, err, "read "+path)
	}
	return Parse(data)
}

// BuildModel builds def into a class model with cf.
func BuildModel(cf *classfile.ClassFile, def *Class) (*classfile.ClassModel, error) {
	if def.Name == "" {
		return nil, cferrors.InvalidInput(cferrors.PhaseParse, "class definition has no name")
	}
	var err error
	m := cf.BuildModel(def.Name, func(cb classfile.ClassBuilder) {
		err = Apply(cb, def)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Build builds def with cf and serializes it.
func Build(cf *classfile.ClassFile, def *Class) ([]byte, error) {
	m, err := BuildModel(cf, def)
	if err != nil {
		return nil, err
	}
	return cf.Encode(m)
}

// Apply feeds everything def declares except its name into cb, stopping at
// the first error.
func Apply(cb classfile.ClassBuilder, def *Class) error {
	s := scope{path: []string{def.Name}}
	if def.Version != nil {
		cb.WithVersion(def.Version.Major, def.Version.Minor)
	}
	if len(def.Flags) > 0 {
		flags, err := s.flags(def.Flags)
		if err != nil {
			return err
		}
		cb.WithFlags(flags)
	}
	if def.Super != "" {
		cb.WithSuperclass(def.Super)
	}
	if len(def.Interfaces) > 0 {
		cb.WithInterfaces(def.Interfaces...)
	}
	if err := s.attributes(cb, def.Attributes); err != nil {
		return err
	}

	for _, f := range def.Fields {
		fs := s.child(f.Name)
		flags, err := fs.flags(f.Flags)
		if err != nil {
			return err
		}
		cb.WithField(f.Name, f.Desc, flags, func(fb classfile.FieldBuilder) {
			err = fs.attributes(fb, f.Attributes)
		})
		if err != nil {
			return err
		}
	}

	for _, m := range def.Methods {
		ms := s.child(m.Name + m.Desc)
		flags, err := ms.flags(m.Flags)
		if err != nil {
			return err
		}
		cb.WithMethod(m.Name, m.Desc, flags, func(mb classfile.MethodBuilder) {
			if err = ms.attributes(mb, m.Attributes); err != nil || len(m.Code) == 0 {
				return
			}
			mb.WithCode(func(code classfile.CodeBuilder) {
				err = ms.child("Code").code(code, m.Code)
			})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

type scope struct {
	path []string
}

func (s scope) child(name string) scope {
	return scope{path: append(s.path[:len(s.path):len(s.path)], name)}
}

func (s scope) fail(line int, format string, args ...any) error {
	b := cferrors.New(cferrors.PhaseParse, cferrors.KindInvalidData).Path(s.path...)
	if line > 0 {
		return b.Detail("line %d: %s", line, fmt.Sprintf(format, args...)).Build()
	}
	return b.Detail(format, args...).Build()
}

// locate attaches the definition path and line to a builder error.
func (s scope) locate(err error, line int) error {
	var e *cferrors.Error
	if errors.As(err, &e) && len(e.Path) == 0 {
		e.Path = s.path
		if line > 0 {
			e.Detail = fmt.Sprintf("line %d: %s", line, e.Detail)
		}
	}
	return err
}

func (s scope) flags(names Flags) (classfile.AccessFlag, error) {
	var flags classfile.AccessFlag
	for _, name := range names {
		f, ok := classfile.ParseAccessFlag(name)
		if !ok {
			return 0, s.fail(0, "unknown access flag %q", name)
		}
		flags |= f
	}
	return flags, nil
}

func (s scope) attributes(b classfile.AnyBuilder, attrs []Attribute) error {
	for i := range attrs {
		e, err := s.attribute(&attrs[i])
		if err != nil {
			return err
		}
		if err := classfile.WithElement(b, e); err != nil {
			return s.locate(err, attrs[i].Line)
		}
	}
	return nil
}

func (s scope) attribute(a *Attribute) (classfile.Element, error) {
	switch strings.ToLower(a.Kind) {
	case "sourcefile":
		return classfile.SourceFile{Name: a.Value}, nil
	case "signature":
		return classfile.Signature{Value: a.Value}, nil
	case "synthetic":
		return classfile.Synthetic{}, nil
	case "deprecated":
		return classfile.Deprecated{}, nil
	case "constantvalue":
		if a.Constant == nil {
			return nil, s.fail(a.Line, "ConstantValue needs a constant")
		}
		v, err := s.constant(a.Constant, a.Line)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(classfile.ClassConstant); ok {
			return nil, s.fail(a.Line, "ConstantValue cannot hold a class")
		}
		return classfile.ConstantValue{Value: v}, nil
	case "exceptions":
		return classfile.Exceptions{Names: a.Names}, nil
	case "annotations":
		anns := make([]classfile.Annotation, 0, len(a.Annotations))
		for i := range a.Annotations {
			ann, err := s.annotation(&a.Annotations[i], a.Line)
			if err != nil {
				return nil, err
			}
			anns = append(anns, ann)
		}
		return classfile.AnnotationsAttribute{Visible: a.Visible, Annotations: anns}, nil
	case "custom":
		if a.Name == "" {
			return nil, s.fail(a.Line, "custom attribute has no name")
		}
		data, err := hex.DecodeString(strings.Join(strings.Fields(a.Data), ""))
		if err != nil {
			return nil, s.fail(a.Line, "custom attribute %s: %v", a.Name, err)
		}
		return classfile.NewCustomAttribute(a.Name, data), nil
	}
	return nil, cferrors.New(cferrors.PhaseParse, cferrors.KindUnsupported).
		Path(s.path...).
		Value(a.Kind).
		Detail("line %d: unknown attribute kind %q", a.Line, a.Kind).
		Build()
}

func (s scope) constant(c *Constant, line int) (any, error) {
	var values []any
	if c.Int != nil {
		values = append(values, *c.Int)
	}
	if c.Long != nil {
		values = append(values, *c.Long)
	}
	if c.Float != nil {
		values = append(values, *c.Float)
	}
	if c.Double != nil {
		values = append(values, *c.Double)
	}
	if c.String != nil {
		values = append(values, *c.String)
	}
	if c.Class != nil {
		values = append(values, classfile.ClassConstant{Name: *c.Class})
	}
	if len(values) != 1 {
		return nil, s.fail(line, "constant must set exactly one value, got %d", len(values))
	}
	return values[0], nil
}

func (s scope) annotation(a *Annotation, line int) (classfile.Annotation, error) {
	if a.Desc == "" {
		return classfile.Annotation{}, s.fail(line, "annotation has no desc")
	}
	ann := classfile.AnnotationOf(a.Desc)
	for i := range a.Elements {
		el := &a.Elements[i]
		if el.Name == "" {
			return classfile.Annotation{}, s.fail(line, "element %d of %s has no name", i, a.Desc)
		}
		v, err := s.annotationValue(el, line)
		if err != nil {
			return classfile.Annotation{}, err
		}
		ann.Elements = append(ann.Elements, classfile.ElementOf(el.Name, v))
	}
	return ann, nil
}

func (s scope) annotationValue(v *AnnotationValue, line int) (classfile.AnnotationValue, error) {
	var out []classfile.AnnotationValue
	if v.Int != nil {
		out = append(out, classfile.IntValue{Value: *v.Int})
	}
	if v.Byte != nil {
		out = append(out, classfile.ByteValue{Value: *v.Byte})
	}
	if v.Short != nil {
		out = append(out, classfile.ShortValue{Value: *v.Short})
	}
	if v.Char != nil {
		units := utf16.Encode([]rune(*v.Char))
		if len(units) != 1 {
			return nil, s.fail(line, "char value %q is not a single UTF-16 unit", *v.Char)
		}
		out = append(out, classfile.CharValue{Value: units[0]})
	}
	if v.Long != nil {
		out = append(out, classfile.LongValue{Value: *v.Long})
	}
	if v.Float != nil {
		out = append(out, classfile.FloatValue{Value: *v.Float})
	}
	if v.Double != nil {
		out = append(out, classfile.DoubleValue{Value: *v.Double})
	}
	if v.Bool != nil {
		out = append(out, classfile.BooleanValue{Value: *v.Bool})
	}
	if v.String != nil {
		out = append(out, classfile.StringValue{Value: *v.String})
	}
	if v.Enum != nil {
		out = append(out, classfile.EnumValue{Class: v.Enum.Type, Constant: v.Enum.Constant})
	}
	if v.Class != nil {
		out = append(out, classfile.ClassValue{Desc: *v.Class})
	}
	if v.Annotation != nil {
		nested, err := s.annotation(v.Annotation, line)
		if err != nil {
			return nil, err
		}
		out = append(out, classfile.NestedValue{Annotation: nested})
	}
	if v.Array != nil {
		arr := classfile.ArrayValue{Values: make([]classfile.AnnotationValue, 0, len(v.Array))}
		for i := range v.Array {
			item, err := s.annotationValue(&v.Array[i], line)
			if err != nil {
				return nil, err
			}
			arr.Values = append(arr.Values, item)
		}
		out = append(out, arr)
	}
	if len(out) != 1 {
		return nil, s.fail(line, "annotation value %q must set exactly one value, got %d", v.Name, len(out))
	}
	return out[0], nil
}
