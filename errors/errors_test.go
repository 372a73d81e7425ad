package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseEncode,
				Kind:    KindUnresolvedLabel,
				Path:    []string{"com/example/Foo", "run", "Code"},
				Element: "OffsetTarget",
				Detail:  "label never bound",
			},
			contains: []string{"[encode]", "unresolved_label", "com/example/Foo.run.Code", "OffsetTarget", "label never bound"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInvalidData,
				Detail: "read class",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "invalid_data", "read class", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseBuild,
		Kind:  KindChannelMismatch,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseBuild, Kind: KindChannelMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindChannelMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseBuild, Kind: KindShapeMismatch}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseBuild, Kind: KindChannelMismatch}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEncode, KindOverflow).
		Path("Foo", "bar").
		Element("ThrowsTarget").
		Value(70000).
		Cause(cause).
		Detail("index %d exceeds %s", 70000, "u2").
		Build()

	if err.Phase != PhaseEncode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseEncode)
	}
	if err.Kind != KindOverflow {
		t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
	}
	if len(err.Path) != 2 || err.Path[0] != "Foo" || err.Path[1] != "bar" {
		t.Errorf("Path = %v, want [Foo bar]", err.Path)
	}
	if err.Element != "ThrowsTarget" {
		t.Errorf("Element = %v, want ThrowsTarget", err.Element)
	}
	if err.Value != 70000 {
		t.Errorf("Value = %v, want 70000", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "index 70000 exceeds u2" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"ShapeMismatch", ShapeMismatch("OffsetTarget", "CAST"), PhaseBuild, KindShapeMismatch},
		{"ChannelMismatch", ChannelMismatch("SourceFile", "field"), PhaseBuild, KindChannelMismatch},
		{"UnresolvedLabel", UnresolvedLabel([]string{"m"}, "LocalVariableTable"), PhaseEncode, KindUnresolvedLabel},
		{"TraversalState", TraversalState("started twice"), PhaseTransform, KindTraversalState},
		{"Overflow", Overflow(PhaseBuild, nil, 300, "u1"), PhaseBuild, KindOverflow},
		{"OutOfBounds", OutOfBounds(PhaseDecode, nil, 10, 5), PhaseDecode, KindOutOfBounds},
		{"InvalidData", InvalidData(PhaseDecode, nil, "bad magic"), PhaseDecode, KindInvalidData},
		{"Unsupported", Unsupported(PhaseEncode, "wide locals"), PhaseEncode, KindUnsupported},
		{"NotFound", NotFound(PhaseResolve, "class", "Foo"), PhaseResolve, KindNotFound},
		{"InvalidInput", InvalidInput(PhaseParse, "unknown op"), PhaseParse, KindInvalidInput},
		{"Load", Load("read", errors.New("x")), PhaseLoad, KindInvalidData},
		{"ParseFailed", ParseFailed("yaml", errors.New("x")), PhaseParse, KindInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
		})
	}

	t.Run("ShapeMismatch detail", func(t *testing.T) {
		err := ShapeMismatch("OffsetTarget", "CAST")
		if !strings.Contains(err.Error(), "CAST") {
			t.Errorf("message %q should name the target type", err.Error())
		}
	})

	t.Run("Overflow value", func(t *testing.T) {
		err := Overflow(PhaseEncode, []string{"val"}, 300, "u1")
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})
}
