package classfile

import (
	"fmt"

	cferrors "github.com/wippyai/classfile/errors"
	"github.com/wippyai/classfile/internal/binary"
)

// TypePathKind is the type_path_kind of one path step.
type TypePathKind byte

const (
	TypePathArray        TypePathKind = 0 // deeper in an array type
	TypePathInnerType    TypePathKind = 1 // deeper in a nested type
	TypePathWildcard     TypePathKind = 2 // on the bound of a wildcard
	TypePathTypeArgument TypePathKind = 3 // on a type argument
)

func (k TypePathKind) String() string {
	switch k {
	case TypePathArray:
		return "ARRAY"
	case TypePathInnerType:
		return "INNER_TYPE"
	case TypePathWildcard:
		return "WILDCARD"
	case TypePathTypeArgument:
		return "TYPE_ARGUMENT"
	default:
		return fmt.Sprintf("TypePathKind(%d)", byte(k))
	}
}

// TypePathComponent is one step into a compound type.
type TypePathComponent struct {
	kind              TypePathKind
	typeArgumentIndex uint8
}

// Interned components for the kinds that carry no index.
var (
	PathArray     = &TypePathComponent{kind: TypePathArray}
	PathInnerType = &TypePathComponent{kind: TypePathInnerType}
	PathWildcard  = &TypePathComponent{kind: TypePathWildcard}
)

// TypePathOf returns the component for kind and index. ARRAY, INNER_TYPE and
// WILDCARD return shared singletons and require index 0. It panics with an
// *errors.Error on an unknown kind or an index that cannot apply.
func TypePathOf(kind TypePathKind, typeArgumentIndex int) *TypePathComponent {
	c, err := typePathOf(kind, typeArgumentIndex)
	if err != nil {
		panic(err)
	}
	return c
}

func typePathOf(kind TypePathKind, typeArgumentIndex int) (*TypePathComponent, error) {
	if kind == TypePathTypeArgument {
		if typeArgumentIndex < 0 || typeArgumentIndex > 0xFF {
			return nil, cferrors.Overflow(cferrors.PhaseBuild, []string{"type_argument_index"}, typeArgumentIndex, "u1")
		}
		return &TypePathComponent{kind: kind, typeArgumentIndex: uint8(typeArgumentIndex)}, nil
	}
	if typeArgumentIndex != 0 {
		return nil, cferrors.New(cferrors.PhaseBuild, cferrors.KindInvalidInput).
			Element("TypePathComponent").
			Value(typeArgumentIndex).
			Detail("%s path step takes no type argument index", kind).
			Build()
	}
	switch kind {
	case TypePathArray:
		return PathArray, nil
	case TypePathInnerType:
		return PathInnerType, nil
	case TypePathWildcard:
		return PathWildcard, nil
	}
	return nil, cferrors.New(cferrors.PhaseBuild, cferrors.KindInvalidInput).
		Element("TypePathComponent").
		Value(kind).
		Detail("unknown type path kind %d", byte(kind)).
		Build()
}

// PathTypeArgument returns a TYPE_ARGUMENT step.
func PathTypeArgument(index int) *TypePathComponent {
	return TypePathOf(TypePathTypeArgument, index)
}

// Kind returns the step kind.
func (c *TypePathComponent) Kind() TypePathKind { return c.kind }

// TypeArgumentIndex returns the type argument index; always 0 except for TYPE_ARGUMENT.
func (c *TypePathComponent) TypeArgumentIndex() int { return int(c.typeArgumentIndex) }

func (c *TypePathComponent) String() string {
	if c.kind == TypePathTypeArgument {
		return fmt.Sprintf("%s(%d)", c.kind, c.typeArgumentIndex)
	}
	return c.kind.String()
}

func writeTypePath(w *binary.Writer, path []*TypePathComponent) error {
	if len(path) > 0xFF {
		return cferrors.Overflow(cferrors.PhaseEncode, []string{"type_path"}, len(path), "path_length")
	}
	w.WriteU1(uint8(len(path)))
	for i, c := range path {
		if c == nil {
			return cferrors.New(cferrors.PhaseEncode, cferrors.KindInvalidInput).
				Path("type_path", fmt.Sprintf("path[%d]", i)).
				Detail("nil path component").
				Build()
		}
		w.WriteU1(uint8(c.kind))
		w.WriteU1(c.typeArgumentIndex)
	}
	return nil
}

func readTypePath(r *binary.Reader) ([]*TypePathComponent, error) {
	n, err := r.ReadU1()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	path := make([]*TypePathComponent, 0, n)
	for i := 0; i < int(n); i++ {
		kind, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		idx, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		c, err := typePathOf(TypePathKind(kind), int(idx))
		if err != nil {
			return nil, cferrors.Wrap(cferrors.PhaseDecode, cferrors.KindInvalidData, err, fmt.Sprintf("type_path[%d]", i))
		}
		path = append(path, c)
	}
	return path, nil
}

// EncodeTypePath returns path_length followed by (kind, index) pairs.
func EncodeTypePath(path []*TypePathComponent) ([]byte, error) {
	w := binary.NewWriter()
	if err := writeTypePath(w, path); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeTypePath parses a type_path and returns the bytes consumed.
func DecodeTypePath(data []byte) ([]*TypePathComponent, int, error) {
	r := binary.FromBytes(data)
	path, err := readTypePath(r)
	if err != nil {
		return nil, 0, err
	}
	return path, r.Position(), nil
}
