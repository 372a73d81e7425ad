package classfile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wippyai/classfile/constantpool"
	"github.com/wippyai/classfile/internal/binary"
)

func TestAnnotationRoundTrip(t *testing.T) {
	a := AnnotationOf("Lcom/example/Meta;",
		ElementOf("i", IntValue{Value: -7}),
		ElementOf("b", ByteValue{Value: -1}),
		ElementOf("c", CharValue{Value: 'x'}),
		ElementOf("s", ShortValue{Value: 300}),
		ElementOf("j", LongValue{Value: 1 << 40}),
		ElementOf("f", FloatValue{Value: 1.5}),
		ElementOf("d", DoubleValue{Value: -2.25}),
		ElementOf("z", BooleanValue{Value: true}),
		ElementOf("str", StringValue{Value: "héllo"}),
		ElementOf("e", EnumValue{Class: "Ljava/lang/annotation/RetentionPolicy;", Constant: "RUNTIME"}),
		ElementOf("k", ClassValue{Desc: "Ljava/lang/String;"}),
		ElementOf("arr", ArrayValue{Values: []AnnotationValue{IntValue{Value: 1}, StringValue{Value: "two"}}}),
		ElementOf("nested", NestedValue{Annotation: AnnotationOf("Lcom/example/Inner;")}),
	)

	pool := constantpool.NewBuilder()
	w := binary.NewWriter()
	if err := writeAnnotation(w, pool, a); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := binary.FromBytes(w.Bytes())
	got, err := readAnnotation(r, pool)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if r.Position() != w.Len() {
		t.Errorf("consumed %d of %d bytes", r.Position(), w.Len())
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("annotation mismatch (-want +got):\n%s", diff)
	}
}

func TestElementValueTagMismatch(t *testing.T) {
	pool := constantpool.NewBuilder()
	idx, err := pool.Long(5)
	if err != nil {
		t.Fatal(err)
	}
	w := binary.NewWriter()
	w.Byte('I')
	w.WriteU2(idx)
	if _, err := readElementValue(binary.FromBytes(w.Bytes()), pool); err == nil {
		t.Error("expected error for int tag pointing at a long constant")
	}
}

func TestTypeAnnotationRoundTrip(t *testing.T) {
	arena := &LabelArena{}
	at := arena.NewLabel()
	labels := NewLabelTable(arena)
	labels.Bind(at, 9)

	ta := TypeAnnotationOf(OfCastExpr(at, 0),
		[]*TypePathComponent{PathArray, PathTypeArgument(1)},
		AnnotationOf("Lcom/example/NonNull;", ElementOf("value", BooleanValue{Value: true})))

	pool := constantpool.NewBuilder()
	data, err := EncodeTypeAnnotation(ta, pool, labels)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded := NewLabelTable(nil)
	got, n, err := DecodeTypeAnnotation(data, pool, decoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(data) {
		t.Errorf("consumed %d, want %d", n, len(data))
	}
	cast, ok := got.Target.(TypeArgumentTarget)
	if !ok {
		t.Fatalf("target = %T", got.Target)
	}
	if off, _ := decoded.LabelOffset(cast.Target()); off != 9 {
		t.Errorf("target offset = %d, want 9", off)
	}
	if len(got.Path) != 2 || got.Path[0] != PathArray || got.Path[1].TypeArgumentIndex() != 1 {
		t.Errorf("path = %v", got.Path)
	}
	if diff := cmp.Diff(ta.Annotation, got.Annotation); diff != "" {
		t.Errorf("annotation mismatch (-want +got):\n%s", diff)
	}

	w := binary.NewWriter()
	if err := writeTypeAnnotations(w, pool, []TypeAnnotation{ta, ta}, labels); err != nil {
		t.Fatalf("write list: %v", err)
	}
	list, err := DecodeTypeAnnotations(w.Bytes(), pool, NewLabelTable(nil))
	if err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("decoded %d annotations, want 2", len(list))
	}
}
