package classfile

import (
	"errors"
	"testing"

	cferrors "github.com/wippyai/classfile/errors"
)

func TestTargetTypeTable(t *testing.T) {
	all := AllTargetTypes()
	if len(all) != 22 {
		t.Fatalf("AllTargetTypes() has %d entries, want 22", len(all))
	}
	seen := make(map[byte]bool)
	for _, tt := range all {
		if seen[tt.Tag()] {
			t.Errorf("duplicate tag 0x%02x", tt.Tag())
		}
		seen[tt.Tag()] = true
		if !tt.Valid() {
			t.Errorf("%s not valid", tt)
		}
	}

	tests := []struct {
		tt   TargetType
		tag  byte
		size int
	}{
		{TargetClassTypeParameter, 0x00, 2},
		{TargetClassExtends, 0x10, 3},
		{TargetMethodTypeParameterBound, 0x12, 3},
		{TargetField, 0x13, 1},
		{TargetMethodFormalParameter, 0x16, 2},
		{TargetThrows, 0x17, 3},
		{TargetLocalVariable, 0x40, -1},
		{TargetResourceVariable, 0x41, -1},
		{TargetExceptionParameter, 0x42, 3},
		{TargetNew, 0x44, 3},
		{TargetCast, 0x47, 4},
		{TargetMethodReferenceTypeArgument, 0x4B, 4},
	}
	for _, tc := range tests {
		t.Run(tc.tt.String(), func(t *testing.T) {
			if tc.tt.Tag() != tc.tag {
				t.Errorf("Tag() = 0x%02x, want 0x%02x", tc.tt.Tag(), tc.tag)
			}
			if got := tc.tt.SizeIfFixed(); got != tc.size {
				t.Errorf("SizeIfFixed() = %d, want %d", got, tc.size)
			}
		})
	}

	if TargetType(0x20).Valid() {
		t.Error("0x20 should not be a valid target type")
	}
}

// constructAll tries every shape constructor with tt and returns how many succeeded.
func constructAll(t *testing.T, tt TargetType, l Label) int {
	t.Helper()
	attempts := []error{
		func() error { _, err := NewTypeParameterTarget(tt, 1); return err }(),
		func() error { _, err := NewSupertypeTarget(tt, 2); return err }(),
		func() error { _, err := NewTypeParameterBoundTarget(tt, 1, 0); return err }(),
		func() error { _, err := NewEmptyTarget(tt); return err }(),
		func() error { _, err := NewFormalParameterTarget(tt, 3); return err }(),
		func() error { _, err := NewThrowsTarget(tt, 0); return err }(),
		func() error { _, err := NewLocalVarTarget(tt, nil); return err }(),
		func() error { _, err := NewCatchTarget(tt, 4); return err }(),
		func() error { _, err := NewOffsetTarget(tt, l); return err }(),
		func() error { _, err := NewTypeArgumentTarget(tt, l, 0); return err }(),
	}
	ok := 0
	for _, err := range attempts {
		if err == nil {
			ok++
			continue
		}
		if !errors.Is(err, &cferrors.Error{Phase: cferrors.PhaseBuild, Kind: cferrors.KindShapeMismatch}) {
			t.Errorf("%s: unexpected error %v", tt, err)
		}
	}
	return ok
}

func TestShapeConstructorBijection(t *testing.T) {
	l := (&LabelArena{}).NewLabel()
	total := 0
	for _, tt := range AllTargetTypes() {
		n := constructAll(t, tt, l)
		if n != 1 {
			t.Errorf("%s accepted by %d constructors, want 1", tt, n)
		}
		total += n
	}
	if total != 22 {
		t.Errorf("total successes = %d, want 22", total)
	}

	if n := constructAll(t, TargetType(0x30), l); n != 0 {
		t.Errorf("undefined target type accepted by %d constructors", n)
	}
}

func TestShapeMismatchError(t *testing.T) {
	_, err := NewOffsetTarget(TargetCast, Label{})
	if err == nil {
		t.Fatal("expected shape mismatch")
	}
	var ce *cferrors.Error
	if !errors.As(err, &ce) {
		t.Fatalf("error %T is not *errors.Error", err)
	}
	if ce.Kind != cferrors.KindShapeMismatch || ce.Element != "OffsetTarget" || ce.Value != "CAST" {
		t.Errorf("error = %+v", ce)
	}
}

func TestTargetInfoRoundTrip(t *testing.T) {
	arena := &LabelArena{}
	start, end, at := arena.NewLabel(), arena.NewLabel(), arena.NewLabel()
	labels := NewLabelTable(arena)
	labels.Bind(start, 4)
	labels.Bind(end, 20)
	labels.Bind(at, 12)

	tests := []struct {
		name string
		ti   TargetInfo
	}{
		{"class type parameter", OfClassTypeParameter(3)},
		{"method type parameter", OfMethodTypeParameter(0)},
		{"superclass", OfSuperclass()},
		{"interface", OfClassExtends(1)},
		{"class bound", OfClassTypeParameterBound(1, 2)},
		{"method bound", OfMethodTypeParameterBound(0, 0)},
		{"field", OfField()},
		{"return", OfMethodReturn()},
		{"receiver", OfMethodReceiver()},
		{"formal parameter", OfMethodFormalParameter(255)},
		{"throws", OfThrows(65535)},
		{"local variable", OfLocalVariable(LocalVarTargetInfo{Start: start, End: end, Slot: 2})},
		{"resource variable", OfResourceVariable(
			LocalVarTargetInfo{Start: start, End: at, Slot: 1},
			LocalVarTargetInfo{Start: at, End: end, Slot: 3},
		)},
		{"empty local table", OfLocalVariable()},
		{"exception parameter", OfExceptionParameter(7)},
		{"instanceof", OfInstanceofExpr(at)},
		{"new", OfNewExpr(start)},
		{"constructor reference", OfConstructorReference(at)},
		{"method reference", OfMethodReference(at)},
		{"cast", OfCastExpr(at, 1)},
		{"constructor invocation", OfConstructorInvocationTypeArgument(at, 0)},
		{"method invocation", OfMethodInvocationTypeArgument(end, 2)},
		{"constructor reference arg", OfConstructorReferenceTypeArgument(at, 0)},
		{"method reference arg", OfMethodReferenceTypeArgument(at, 5)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := EncodeTargetInfo(tc.ti, labels)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if len(data) != tc.ti.Size() {
				t.Errorf("encoded %d bytes, Size() = %d", len(data), tc.ti.Size())
			}
			if fixed := tc.ti.TargetType().SizeIfFixed(); fixed >= 0 && fixed != len(data) {
				t.Errorf("encoded %d bytes, SizeIfFixed() = %d", len(data), fixed)
			}
			if data[0] != tc.ti.TargetType().Tag() {
				t.Errorf("first byte 0x%02x, want tag 0x%02x", data[0], tc.ti.TargetType().Tag())
			}

			decodedLabels := NewLabelTable(nil)
			got, n, err := DecodeTargetInfo(data, decodedLabels)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if n != len(data) {
				t.Errorf("consumed %d bytes, want %d", n, len(data))
			}
			if got.TargetType() != tc.ti.TargetType() {
				t.Errorf("TargetType() = %s, want %s", got.TargetType(), tc.ti.TargetType())
			}

			again, err := EncodeTargetInfo(got, decodedLabels)
			if err != nil {
				t.Fatalf("re-encode: %v", err)
			}
			if string(again) != string(data) {
				t.Errorf("re-encoded % x, want % x", again, data)
			}
		})
	}
}

func TestTargetInfoAccessors(t *testing.T) {
	if !OfSuperclass().IsSuperclass() || OfClassExtends(0).IsSuperclass() {
		t.Error("IsSuperclass mismatch")
	}
	b := OfMethodTypeParameterBound(2, 3)
	if b.TypeParameterIndex() != 2 || b.BoundIndex() != 3 {
		t.Errorf("bound target = %d/%d", b.TypeParameterIndex(), b.BoundIndex())
	}
	l := (&LabelArena{}).NewLabel()
	c := OfCastExpr(l, 4)
	if c.Target() != l || c.TypeArgumentIndex() != 4 {
		t.Errorf("cast target = %v/%d", c.Target(), c.TypeArgumentIndex())
	}

	info := []LocalVarTargetInfo{{Start: l, End: l, Slot: 1}}
	lv := OfLocalVariable(info...)
	info[0].Slot = 9
	if lv.Table()[0].Slot != 1 {
		t.Error("local variable table aliases caller slice")
	}
}

func TestTargetInfoOverflow(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"type parameter", func() { OfClassTypeParameter(256) }},
		{"negative formal parameter", func() { OfMethodFormalParameter(-1) }},
		{"supertype", func() { OfClassExtends(0x10000) }},
		{"throws", func() { OfThrows(70000) }},
		{"type argument", func() { OfCastExpr(Label{}, 300) }},
		{"constructor", func() { _, _ = NewTypeParameterTarget(TargetClassTypeParameter, 1000) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected panic")
				}
				err, ok := r.(*cferrors.Error)
				if !ok || err.Kind != cferrors.KindOverflow {
					t.Errorf("panic value = %v", r)
				}
			}()
			tc.fn()
		})
	}
}

func TestTargetInfoEncodeErrors(t *testing.T) {
	arena := &LabelArena{}
	bound, unbound := arena.NewLabel(), arena.NewLabel()
	labels := NewLabelTable(arena)
	labels.Bind(bound, 8)

	t.Run("unresolved offset", func(t *testing.T) {
		_, err := EncodeTargetInfo(OfNewExpr(unbound), labels)
		if !errors.Is(err, &cferrors.Error{Phase: cferrors.PhaseEncode, Kind: cferrors.KindUnresolvedLabel}) {
			t.Errorf("err = %v, want unresolved label", err)
		}
	})

	t.Run("zero label", func(t *testing.T) {
		_, err := EncodeTargetInfo(OfCastExpr(Label{}, 0), labels)
		if !errors.Is(err, &cferrors.Error{Phase: cferrors.PhaseEncode, Kind: cferrors.KindUnresolvedLabel}) {
			t.Errorf("err = %v, want unresolved label", err)
		}
	})

	t.Run("empty live range", func(t *testing.T) {
		_, err := EncodeTargetInfo(OfLocalVariable(LocalVarTargetInfo{Start: bound, End: bound}), labels)
		if !errors.Is(err, &cferrors.Error{Phase: cferrors.PhaseEncode, Kind: cferrors.KindInvalidData}) {
			t.Errorf("err = %v, want invalid data", err)
		}
	})

	t.Run("unknown tag", func(t *testing.T) {
		_, _, err := DecodeTargetInfo([]byte{0x20, 0x00}, NewLabelTable(nil))
		if !errors.Is(err, &cferrors.Error{Phase: cferrors.PhaseDecode, Kind: cferrors.KindInvalidData}) {
			t.Errorf("err = %v, want invalid data", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		if _, _, err := DecodeTargetInfo([]byte{byte(TargetThrows), 0x00}, nil); err == nil {
			t.Error("expected error for truncated throws target")
		}
	})
}

func TestDecodeEmptyLiveRange(t *testing.T) {
	data := []byte{
		byte(TargetResourceVariable),
		0x00, 0x01, // table_length
		0x00, 0x05, 0x00, 0x00, 0x00, 0x02, // start 5, length 0, index 2
	}
	_, _, err := DecodeTargetInfo(data, NewLabelTable(nil))
	if !errors.Is(err, &cferrors.Error{Phase: cferrors.PhaseDecode, Kind: cferrors.KindInvalidData}) {
		t.Errorf("err = %v, want decode invalid data", err)
	}
}

func TestDecodeLocalVarRanges(t *testing.T) {
	data := []byte{
		byte(TargetLocalVariable),
		0x00, 0x01, // table_length
		0x00, 0x05, 0x00, 0x0A, 0x00, 0x02, // start 5, length 10, index 2
	}
	labels := NewLabelTable(nil)
	ti, n, err := DecodeTargetInfo(data, labels)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(data) {
		t.Errorf("consumed %d, want %d", n, len(data))
	}
	lv, ok := ti.(LocalVarTarget)
	if !ok {
		t.Fatalf("decoded %T, want LocalVarTarget", ti)
	}
	table := lv.Table()
	if len(table) != 1 {
		t.Fatalf("table has %d entries", len(table))
	}
	start, _ := labels.LabelOffset(table[0].Start)
	end, _ := labels.LabelOffset(table[0].End)
	if start != 5 || end != 15 || table[0].Slot != 2 {
		t.Errorf("range = [%d,%d) slot %d, want [5,15) slot 2", start, end, table[0].Slot)
	}
}
