package classfile

import (
	"github.com/wippyai/classfile/constantpool"
	cferrors "github.com/wippyai/classfile/errors"
	"github.com/wippyai/classfile/internal/binary"
)

// TypeAnnotation is an annotation on a type usage: where the type occurs
// (Target), which part of a compound type is meant (Path, empty for the type
// itself) and the annotation.
type TypeAnnotation struct {
	Target     TargetInfo
	Path       []*TypePathComponent
	Annotation Annotation
}

// TypeAnnotationOf creates a type annotation.
func TypeAnnotationOf(target TargetInfo, path []*TypePathComponent, a Annotation) TypeAnnotation {
	return TypeAnnotation{Target: target, Path: path, Annotation: a}
}

// EncodeTypeAnnotation serializes ta, interning names into pool and resolving
// code positions through labels.
func EncodeTypeAnnotation(ta TypeAnnotation, pool *constantpool.Builder, labels LabelResolver) ([]byte, error) {
	w := binary.NewWriter()
	if err := writeTypeAnnotation(w, pool, ta, labels); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeTypeAnnotation parses one type_annotation and returns the bytes consumed.
func DecodeTypeAnnotation(data []byte, pool constantpool.Pool, labels *LabelTable) (TypeAnnotation, int, error) {
	r := binary.FromBytes(data)
	ta, err := readTypeAnnotation(r, pool, labels)
	if err != nil {
		return TypeAnnotation{}, 0, err
	}
	return ta, r.Position(), nil
}

func writeTypeAnnotation(w *binary.Writer, pool *constantpool.Builder, ta TypeAnnotation, labels LabelResolver) error {
	if err := writeTargetInfo(w, ta.Target, labels); err != nil {
		return err
	}
	if err := writeTypePath(w, ta.Path); err != nil {
		return err
	}
	return writeAnnotation(w, pool, ta.Annotation)
}

func readTypeAnnotation(r *binary.Reader, pool constantpool.Pool, labels *LabelTable) (TypeAnnotation, error) {
	ti, err := readTargetInfo(r, labels)
	if err != nil {
		return TypeAnnotation{}, err
	}
	path, err := readTypePath(r)
	if err != nil {
		return TypeAnnotation{}, err
	}
	a, err := readAnnotation(r, pool)
	if err != nil {
		return TypeAnnotation{}, err
	}
	return TypeAnnotation{Target: ti, Path: path, Annotation: a}, nil
}

// writeTypeAnnotations writes a Runtime[In]VisibleTypeAnnotations body.
func writeTypeAnnotations(w *binary.Writer, pool *constantpool.Builder, list []TypeAnnotation, labels LabelResolver) error {
	if len(list) > 0xFFFF {
		return cferrors.Overflow(cferrors.PhaseEncode, []string{"type_annotations"}, len(list), "num_annotations")
	}
	w.WriteU2(uint16(len(list)))
	for _, ta := range list {
		if err := writeTypeAnnotation(w, pool, ta, labels); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTypeAnnotations parses a Runtime[In]VisibleTypeAnnotations attribute body.
func DecodeTypeAnnotations(data []byte, pool constantpool.Pool, labels *LabelTable) ([]TypeAnnotation, error) {
	r := binary.FromBytes(data)
	n, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	out := make([]TypeAnnotation, 0, n)
	for i := 0; i < int(n); i++ {
		ta, err := readTypeAnnotation(r, pool, labels)
		if err != nil {
			return nil, err
		}
		out = append(out, ta)
	}
	return out, nil
}
