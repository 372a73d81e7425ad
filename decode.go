package classfile

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/classfile/constantpool"
	cferrors "github.com/wippyai/classfile/errors"
	"github.com/wippyai/classfile/internal/binary"
)

// parser turns class file bytes into a model. Attributes it does not
// interpret become CustomAttribute elements bound to the parsed pool.
type parser struct {
	pool        *constantpool.Table
	arena       *LabelArena
	thisClass   string
	dropUnknown bool
}

func parseClass(data []byte, dropUnknown bool) (*ClassModel, error) {
	r := binary.FromBytes(data)
	magic, err := r.ReadU4()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, cferrors.New(cferrors.PhaseDecode, cferrors.KindInvalidData).
			Value(magic).
			Detail("bad magic 0x%08x", magic).
			Build()
	}
	minor, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	major, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	pool, err := constantpool.Read(r)
	if err != nil {
		return nil, r.WrapError("constant_pool", err)
	}

	p := &parser{pool: pool, arena: &LabelArena{}, dropUnknown: dropUnknown}
	flags, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError("access_flags", err)
	}
	thisIdx, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError("this_class", err)
	}
	if p.thisClass, err = constantpool.ClassNameAt(pool, thisIdx); err != nil {
		return nil, err
	}
	superIdx, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError("super_class", err)
	}
	var super string
	if superIdx != 0 {
		if super, err = constantpool.ClassNameAt(pool, superIdx); err != nil {
			return nil, err
		}
	}

	m := &ClassModel{ThisClass: p.thisClass, pool: pool}
	m.elements = append(m.elements,
		ClassVersion{Major: major, Minor: minor},
		AccessFlags{Flags: AccessFlag(flags)},
		Superclass{Name: super},
	)

	ifaces, err := p.classList(r)
	if err != nil {
		return nil, r.WrapError("interfaces", err)
	}
	if len(ifaces) > 0 {
		m.elements = append(m.elements, Interfaces{Names: ifaces})
	}

	nf, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError("fields", err)
	}
	for i := 0; i < int(nf); i++ {
		f, err := p.field(r)
		if err != nil {
			return nil, r.WrapError("fields", err)
		}
		m.elements = append(m.elements, f)
	}

	nm, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError("methods", err)
	}
	for i := 0; i < int(nm); i++ {
		mm, err := p.method(r)
		if err != nil {
			return nil, r.WrapError("methods", err)
		}
		m.elements = append(m.elements, mm)
	}

	err = p.attributes(r, func(name string, data []byte) error {
		el, err := p.classAttribute(name, data)
		if err != nil || el == nil {
			return err
		}
		m.elements = append(m.elements, el)
		return nil
	})
	if err != nil {
		return nil, r.WrapError("attributes", err)
	}
	return m, nil
}

func (p *parser) classList(r *binary.Reader) ([]string, error) {
	n, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	var names []string
	for i := 0; i < int(n); i++ {
		idx, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		name, err := constantpool.ClassNameAt(p.pool, idx)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// member reads access_flags, name_index and descriptor_index.
func (p *parser) member(r *binary.Reader) (AccessFlag, string, string, error) {
	flags, err := r.ReadU2()
	if err != nil {
		return 0, "", "", err
	}
	nameIdx, err := r.ReadU2()
	if err != nil {
		return 0, "", "", err
	}
	descIdx, err := r.ReadU2()
	if err != nil {
		return 0, "", "", err
	}
	name, err := constantpool.Utf8At(p.pool, nameIdx)
	if err != nil {
		return 0, "", "", err
	}
	desc, err := constantpool.Utf8At(p.pool, descIdx)
	if err != nil {
		return 0, "", "", err
	}
	return AccessFlag(flags), name, desc, nil
}

func (p *parser) field(r *binary.Reader) (*FieldModel, error) {
	flags, name, desc, err := p.member(r)
	if err != nil {
		return nil, err
	}
	f := &FieldModel{Name: name, Desc: desc}
	f.elements = append(f.elements, AccessFlags{Flags: flags})
	err = p.attributes(r, func(attr string, data []byte) error {
		if attr == AttrConstantValue {
			v, err := p.constantValue(data)
			if err != nil {
				return err
			}
			f.elements = append(f.elements, ConstantValue{Value: v})
			return nil
		}
		el, err := p.commonAttribute(attr, data)
		if err != nil || el == nil {
			return err
		}
		if fe, ok := el.(FieldElement); ok {
			f.elements = append(f.elements, fe)
		}
		return nil
	})
	return f, err
}

func (p *parser) method(r *binary.Reader) (*MethodModel, error) {
	flags, name, desc, err := p.member(r)
	if err != nil {
		return nil, err
	}
	m := &MethodModel{Name: name, Desc: desc}
	m.elements = append(m.elements, AccessFlags{Flags: flags})
	err = p.attributes(r, func(attr string, data []byte) error {
		switch attr {
		case AttrCode:
			code, err := p.code(data)
			if err != nil {
				var cfErr *cferrors.Error
				if !errors.As(err, &cfErr) || cfErr.Kind != cferrors.KindUnsupported {
					return err
				}
				Logger().Debug("keeping undecodable code as raw attribute",
					zap.String("class", p.thisClass),
					zap.String("method", name+desc),
					zap.Error(err))
				m.elements = append(m.elements, BoundCustomAttribute(AttrCode, data, p.pool))
				return nil
			}
			m.elements = append(m.elements, code)
			return nil
		case AttrExceptions:
			names, err := p.classList(binary.FromBytes(data))
			if err != nil {
				return err
			}
			m.elements = append(m.elements, Exceptions{Names: names})
			return nil
		}
		el, err := p.commonAttribute(attr, data)
		if err != nil || el == nil {
			return err
		}
		if me, ok := el.(MethodElement); ok {
			m.elements = append(m.elements, me)
		}
		return nil
	})
	return m, err
}

// attributes reads an attributes table and hands each raw attribute to fn.
func (p *parser) attributes(r *binary.Reader, fn func(name string, data []byte) error) error {
	n, err := r.ReadU2()
	if err != nil {
		return err
	}
	for i := 0; i < int(n); i++ {
		nameIdx, err := r.ReadU2()
		if err != nil {
			return err
		}
		length, err := r.ReadU4()
		if err != nil {
			return err
		}
		data, err := r.ReadBytes(int(length))
		if err != nil {
			return err
		}
		name, err := constantpool.Utf8At(p.pool, nameIdx)
		if err != nil {
			return err
		}
		if err := fn(name, data); err != nil {
			return cferrors.Wrap(cferrors.PhaseDecode, cferrors.KindInvalidData, err, "attribute "+name)
		}
	}
	return nil
}

func (p *parser) classAttribute(name string, data []byte) (ClassElement, error) {
	if name == AttrSourceFile {
		s, err := p.utf8Payload(data)
		if err != nil {
			return nil, err
		}
		return SourceFile{Name: s}, nil
	}
	el, err := p.commonAttribute(name, data)
	if err != nil || el == nil {
		return nil, err
	}
	ce, _ := el.(ClassElement)
	return ce, nil
}

// commonAttribute decodes attributes every member level shares. Unknown
// attributes become bound custom attributes, or nil when dropped.
func (p *parser) commonAttribute(name string, data []byte) (Element, error) {
	switch name {
	case AttrSignature:
		s, err := p.utf8Payload(data)
		if err != nil {
			return nil, err
		}
		return Signature{Value: s}, nil
	case AttrSynthetic:
		return Synthetic{}, nil
	case AttrDeprecated:
		return Deprecated{}, nil
	case AttrRuntimeVisibleAnnotations, AttrRuntimeInvisibleAnnotations:
		list, err := p.annotations(data)
		if err != nil {
			return nil, err
		}
		return AnnotationsAttribute{Annotations: list, Visible: name == AttrRuntimeVisibleAnnotations}, nil
	case AttrRuntimeVisibleTypeAnnotations, AttrRuntimeInvisibleTypeAnnotations:
		list, err := DecodeTypeAnnotations(data, p.pool, nil)
		if err != nil {
			return nil, err
		}
		return TypeAnnotationsAttribute{Annotations: list, Visible: name == AttrRuntimeVisibleTypeAnnotations}, nil
	}
	if p.dropUnknown {
		return nil, nil
	}
	return BoundCustomAttribute(name, slices.Clone(data), p.pool), nil
}

func (p *parser) utf8Payload(data []byte) (string, error) {
	idx, err := binary.FromBytes(data).ReadU2()
	if err != nil {
		return "", err
	}
	return constantpool.Utf8At(p.pool, idx)
}

func (p *parser) annotations(data []byte) ([]Annotation, error) {
	r := binary.FromBytes(data)
	n, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	list := make([]Annotation, 0, n)
	for i := 0; i < int(n); i++ {
		a, err := readAnnotation(r, p.pool)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, nil
}

func (p *parser) constantValue(data []byte) (any, error) {
	idx, err := binary.FromBytes(data).ReadU2()
	if err != nil {
		return nil, err
	}
	return p.loadable(idx)
}

// loadable resolves a constant pool entry that ldc or ConstantValue can refer to.
func (p *parser) loadable(idx uint16) (any, error) {
	e, err := p.pool.EntryAt(idx)
	if err != nil {
		return nil, err
	}
	switch c := e.(type) {
	case constantpool.Integer:
		return c.Value, nil
	case constantpool.Long:
		return c.Value, nil
	case constantpool.Float:
		return c.Value(), nil
	case constantpool.Double:
		return c.Value(), nil
	case constantpool.String:
		return constantpool.Utf8At(p.pool, c.Utf8Index)
	case constantpool.Class:
		name, err := constantpool.Utf8At(p.pool, c.NameIndex)
		if err != nil {
			return nil, err
		}
		return ClassConstant{Name: name}, nil
	}
	return nil, cferrors.Unsupported(cferrors.PhaseDecode, fmt.Sprintf("loadable constant %s", e.Tag()))
}
