package classfile

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	cferrors "github.com/wippyai/classfile/errors"
)

var errTraversal = &cferrors.Error{Phase: cferrors.PhaseTransform, Kind: cferrors.KindTraversalState}

// newTestClassBuilder returns a builder that appends into the returned model.
func newTestClassBuilder(thisClass string) (ClassBuilder, *ClassModel) {
	env := newBuildEnv(nil)
	m := &ClassModel{ThisClass: thisClass, pool: env.pool}
	return newClassBuilder(env, m), m
}

func elementNames[E Element](elements []E) []string {
	names := make([]string, 0, len(elements))
	for _, e := range elements {
		names = append(names, ElementName(e))
	}
	return names
}

func recorder(name string, log *[]string) ClassTransform {
	return ClassHooks{
		OnStart: func(ClassBuilder) error {
			*log = append(*log, name+".start")
			return nil
		},
		OnAccept: func(b ClassBuilder, e ClassElement) error {
			*log = append(*log, name+".accept "+ElementName(e))
			b.With(e)
			return nil
		},
		OnEnd: func(ClassBuilder) error {
			*log = append(*log, name+".end")
			return nil
		},
	}
}

func TestAndThenHookOrder(t *testing.T) {
	var log []string
	emitter := ClassHooks{
		OnStart: func(b ClassBuilder) error {
			log = append(log, "a.start")
			b.With(Synthetic{})
			return nil
		},
		OnAccept: func(b ClassBuilder, e ClassElement) error {
			log = append(log, "a.accept "+ElementName(e))
			b.With(e)
			return nil
		},
		OnEnd: func(b ClassBuilder) error {
			log = append(log, "a.end")
			b.With(Deprecated{})
			return nil
		},
	}

	b, out := newTestClassBuilder("T")
	src := []ClassElement{SourceFile{Name: "T.java"}}
	if err := Resolve(AndThen(emitter, recorder("b", &log)), b).Run(slices.Values(src)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"b.start",
		"a.start",
		"b.accept Synthetic",
		"a.accept SourceFile",
		"b.accept SourceFile",
		"a.end",
		"b.accept Deprecated",
		"b.end",
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("hook order mismatch (-want +got):\n%s", diff)
	}
	if got := elementNames(out.elements); !slices.Equal(got, []string{"Synthetic", "SourceFile", "Deprecated"}) {
		t.Errorf("output = %v", got)
	}
}

func TestChainAssociativity(t *testing.T) {
	rename := ClassHooks{OnAccept: func(b ClassBuilder, e ClassElement) error {
		if s, ok := e.(SourceFile); ok {
			b.With(SourceFile{Name: s.Name + "+a"})
			return nil
		}
		b.With(e)
		return nil
	}}
	dropSynthetic := Dropping[ClassElement, ClassBuilder](func(e ClassElement) bool {
		_, ok := e.(Synthetic)
		return ok
	})
	appendDeprecated := EndHandler[ClassElement, ClassBuilder](func(b ClassBuilder) error {
		b.With(Deprecated{})
		return nil
	})
	src := []ClassElement{Synthetic{}, SourceFile{Name: "X.java"}, Signature{Value: "<T:Ljava/lang/Object;>Ljava/lang/Object;"}}

	run := func(t *testing.T, tr ClassTransform) []ClassElement {
		t.Helper()
		b, out := newTestClassBuilder("X")
		if err := Resolve(tr, b).Run(slices.Values(src)); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return out.elements
	}

	left := run(t, AndThen(AndThen(rename, dropSynthetic), appendDeprecated))
	right := run(t, AndThen(rename, AndThen(dropSynthetic, appendDeprecated)))
	folded := run(t, Chain(rename, dropSynthetic, appendDeprecated))

	want := []ClassElement{SourceFile{Name: "X.java+a"}, src[2], Deprecated{}}
	for name, got := range map[string][]ClassElement{"left": left, "right": right, "folded": folded} {
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s grouping mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestChainEmptyIsIdentity(t *testing.T) {
	src := []ClassElement{ClassVersion{Major: 61}, SourceFile{Name: "I.java"}}
	b, out := newTestClassBuilder("I")
	if err := Resolve(Chain[ClassElement, ClassBuilder](), b).Run(slices.Values(src)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff(src, out.elements); diff != "" {
		t.Errorf("identity mismatch (-want +got):\n%s", diff)
	}
}

func TestStartHandlerOnEmptyStream(t *testing.T) {
	b, out := newTestClassBuilder("E")
	tr := AndThen(
		StartHandler[ClassElement, ClassBuilder](func(b ClassBuilder) error {
			b.With(SourceFile{Name: "E.java"})
			return nil
		}),
		EndHandler[ClassElement, ClassBuilder](func(b ClassBuilder) error {
			b.With(Deprecated{})
			return nil
		}),
	)
	if err := Resolve(tr, b).Run(slices.Values([]ClassElement(nil))); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := elementNames(out.elements); !slices.Equal(got, []string{"SourceFile", "Deprecated"}) {
		t.Errorf("output = %v", got)
	}
}

// counter emits the number of elements it saw as a SourceFile at the end.
type counter struct {
	seen int
}

func (c *counter) Accept(b ClassBuilder, e ClassElement) error {
	c.seen++
	b.With(e)
	return nil
}

func (c *counter) AtStart(ClassBuilder) error { return nil }

func (c *counter) AtEnd(b ClassBuilder) error {
	b.With(SourceFile{Name: strings.Repeat("x", c.seen)})
	return nil
}

func TestStatefulFreshInstance(t *testing.T) {
	made := 0
	tr := Stateful(func() ClassTransform {
		made++
		return &counter{}
	})
	src := []ClassElement{Synthetic{}, Deprecated{}}

	for i := 0; i < 3; i++ {
		b, out := newTestClassBuilder("S")
		if err := Resolve(tr, b).Run(slices.Values(src)); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		last := out.elements[len(out.elements)-1]
		if sf, ok := last.(SourceFile); !ok || sf.Name != "xx" {
			t.Errorf("run %d: last element = %#v, want count of 2", i, last)
		}
	}
	if made != 3 {
		t.Errorf("factory called %d times, want 3", made)
	}
}

func TestStatefulReuseGuard(t *testing.T) {
	shared := &counter{}
	tr := Stateful(func() ClassTransform { return shared })

	b1, _ := newTestClassBuilder("A")
	r1 := Resolve(tr, b1)
	if err := r1.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	b2, _ := newTestClassBuilder("B")
	r2 := Resolve(tr, b2)
	if err := r2.Start(); !errors.Is(err, errTraversal) {
		t.Fatalf("second Start err = %v, want traversal state error", err)
	}
	if r2.State() != Failed {
		t.Errorf("second traversal state = %s, want failed", r2.State())
	}

	if err := r1.End(); err != nil {
		t.Fatalf("first End: %v", err)
	}

	b3, _ := newTestClassBuilder("C")
	if err := Resolve(tr, b3).Run(slices.Values([]ClassElement{Synthetic{}})); !errors.Is(err, errTraversal) {
		t.Errorf("third run err = %v, want traversal state error after the first traversal ended", err)
	}
}

func TestStatefulSequentialReuse(t *testing.T) {
	shared := &counter{}
	tr := Stateful(func() ClassTransform { return shared })
	src := []ClassElement{Synthetic{}, Deprecated{}}

	b1, _ := newTestClassBuilder("A")
	if err := Resolve(tr, b1).Run(slices.Values(src)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if shared.seen != 2 {
		t.Fatalf("seen after first run = %d, want 2", shared.seen)
	}

	b2, out := newTestClassBuilder("B")
	err := Resolve(tr, b2).Run(slices.Values(src))
	if !errors.Is(err, errTraversal) {
		t.Fatalf("second run err = %v, want traversal state error", err)
	}
	if shared.seen != 2 {
		t.Errorf("seen after rejected run = %d, state leaked into the second traversal", shared.seen)
	}
	if len(out.elements) != 0 {
		t.Errorf("rejected run emitted %v", elementNames(out.elements))
	}
}

func TestStatefulInChain(t *testing.T) {
	shared := &counter{}
	inner := Stateful(func() ClassTransform { return shared })
	tr := AndThen(inner, inner)

	b, _ := newTestClassBuilder("D")
	err := Resolve(tr, b).Run(slices.Values([]ClassElement{Synthetic{}}))
	if !errors.Is(err, errTraversal) {
		t.Errorf("err = %v, want traversal state error for one instance in two links", err)
	}
}

func TestResolvedStateMachine(t *testing.T) {
	tests := []struct {
		name  string
		drive func(r *Resolved[ClassElement]) error
		state TraversalState
	}{
		{"accept before start", func(r *Resolved[ClassElement]) error {
			return r.Accept(Synthetic{})
		}, NotStarted},
		{"end before start", func(r *Resolved[ClassElement]) error {
			return r.End()
		}, NotStarted},
		{"start twice", func(r *Resolved[ClassElement]) error {
			if err := r.Start(); err != nil {
				return err
			}
			return r.Start()
		}, Started},
		{"accept after end", func(r *Resolved[ClassElement]) error {
			if err := r.Start(); err != nil {
				return err
			}
			if err := r.End(); err != nil {
				return err
			}
			return r.Accept(Synthetic{})
		}, Ended},
		{"end twice", func(r *Resolved[ClassElement]) error {
			if err := r.Start(); err != nil {
				return err
			}
			if err := r.Accept(Synthetic{}); err != nil {
				return err
			}
			if err := r.End(); err != nil {
				return err
			}
			return r.End()
		}, Ended},
		{"rerun", func(r *Resolved[ClassElement]) error {
			if err := r.Run(slices.Values([]ClassElement{Synthetic{}})); err != nil {
				return err
			}
			return r.Run(slices.Values([]ClassElement{Synthetic{}}))
		}, Ended},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, _ := newTestClassBuilder("M")
			r := Resolve(Identity[ClassElement, ClassBuilder](), b)
			if err := tc.drive(r); !errors.Is(err, errTraversal) {
				t.Errorf("err = %v, want traversal state error", err)
			}
			if r.State() != tc.state {
				t.Errorf("state = %s, want %s", r.State(), tc.state)
			}
		})
	}
}

func TestTransformFailureKeepsPartialOutput(t *testing.T) {
	boom := errors.New("boom")
	tr := ClassTransformFunc(func(b ClassBuilder, e ClassElement) error {
		if _, ok := e.(Deprecated); ok {
			return boom
		}
		b.With(e)
		return nil
	})
	b, out := newTestClassBuilder("F")
	r := Resolve[ClassElement, ClassBuilder](tr, b)
	err := r.Run(slices.Values([]ClassElement{Synthetic{}, Deprecated{}, SourceFile{Name: "F.java"}}))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if r.State() != Failed {
		t.Errorf("state = %s, want failed", r.State())
	}
	if got := elementNames(out.elements); !slices.Equal(got, []string{"Synthetic"}) {
		t.Errorf("partial output = %v", got)
	}
	if err := r.Accept(Synthetic{}); !errors.Is(err, errTraversal) {
		t.Errorf("Accept after failure err = %v", err)
	}
}

func TestDownstreamErrorAbortsUpstream(t *testing.T) {
	boom := errors.New("downstream")
	upstreamCalls := 0
	up := ClassHooks{OnAccept: func(b ClassBuilder, e ClassElement) error {
		upstreamCalls++
		b.With(e)
		return nil
	}}
	down := ClassHooks{OnAccept: func(ClassBuilder, ClassElement) error { return boom }}

	b, _ := newTestClassBuilder("G")
	err := Resolve(AndThen(up, down), b).Run(slices.Values([]ClassElement{Synthetic{}, Deprecated{}}))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want downstream error", err)
	}
	if upstreamCalls != 1 {
		t.Errorf("upstream accepted %d elements after abort, want 1", upstreamCalls)
	}
}

func TestUnresolvedCompositeDirectCall(t *testing.T) {
	b, _ := newTestClassBuilder("U")
	tr := AndThen(Identity[ClassElement, ClassBuilder](), Identity[ClassElement, ClassBuilder]())
	if err := tr.Accept(b, Synthetic{}); !errors.Is(err, errTraversal) {
		t.Errorf("direct Accept err = %v", err)
	}
}

func TestWithElementChannels(t *testing.T) {
	env := newBuildEnv(nil)
	f := &FieldModel{Name: "x", Desc: "I"}
	fb := newFieldBuilder(env, f)

	err := WithElement(fb, SourceFile{Name: "A.java"})
	if !errors.Is(err, &cferrors.Error{Phase: cferrors.PhaseBuild, Kind: cferrors.KindChannelMismatch}) {
		t.Fatalf("err = %v, want channel mismatch", err)
	}
	if len(f.elements) != 0 {
		t.Errorf("field builder changed on mismatch: %v", elementNames(f.elements))
	}

	tests := []struct {
		name    string
		builder AnyBuilder
		element Element
		wantErr bool
	}{
		{"signature on field", fb, Signature{Value: "TT;"}, false},
		{"constant value on field", fb, ConstantValue{Value: int32(1)}, false},
		{"exceptions on field", fb, Exceptions{Names: []string{"java/io/IOException"}}, true},
		{"instruction on method", newMethodBuilder(env, &MethodModel{}), OperatorInstruction{Op: OpNop}, true},
		{"exceptions on method", newMethodBuilder(env, &MethodModel{}), Exceptions{}, false},
		{"instruction on code", newCodeBuilder(env, &CodeModel{}), OperatorInstruction{Op: OpNop}, false},
		{"deprecated on code", newCodeBuilder(env, &CodeModel{}), Deprecated{}, true},
		{"source file on class", newClassBuilder(env, &ClassModel{}), SourceFile{}, false},
		{"custom on code", newCodeBuilder(env, &CodeModel{}), NewCustomAttribute("X", nil), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := WithElement(tc.builder, tc.element)
			if (err != nil) != tc.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestTransformingLevels(t *testing.T) {
	cf := New(Options{})
	m := cf.BuildModel("com/example/Calc", func(cb ClassBuilder) {
		cb.WithField("total", "I", AccPrivate, nil)
		cb.WithMethod("sub", "(II)I", AccPublic|AccStatic, func(mb MethodBuilder) {
			mb.WithCode(func(code CodeBuilder) {
				code.LoadLocal(OpIload, 0).
					LoadLocal(OpIload, 1).
					Operator(OpIadd).
					Operator(OpIreturn)
			})
		})
	})

	fix := TransformingMethods(TransformingMethodBodies(CodeTransformFunc(func(b CodeBuilder, e CodeElement) error {
		if op, ok := e.(OperatorInstruction); ok && op.Op == OpIadd {
			b.Operator(OpIsub)
			return nil
		}
		b.With(e)
		return nil
	})))
	private := TransformingFields(FieldHooks{OnEnd: func(b FieldBuilder) error {
		b.WithFlags(AccPrivate | AccFinal)
		return nil
	}})

	out, err := cf.TransformModel(m, Chain(fix, private))
	if err != nil {
		t.Fatalf("TransformModel: %v", err)
	}

	fields := out.Fields()
	if len(fields) != 1 || fields[0].Flags() != AccPrivate|AccFinal {
		t.Errorf("fields = %v", elementNames(out.ElementList()))
	}
	methods := out.Methods()
	if len(methods) != 1 {
		t.Fatalf("methods = %d", len(methods))
	}
	code, ok := methods[0].Code()
	if !ok {
		t.Fatal("method lost its code")
	}
	want := []string{"iload", "iload", "isub", "ireturn"}
	if got := elementNames(code.Instructions()); !slices.Equal(got, want) {
		t.Errorf("instructions = %v, want %v", got, want)
	}

	orig, _ := m.Methods()[0].Code()
	if got := elementNames(orig.Instructions()); got[2] != "iadd" {
		t.Errorf("source model changed: %v", got)
	}
}

func TestDropFieldsAndAppendMethod(t *testing.T) {
	cf := New(Options{})
	m := cf.BuildModel("com/example/Foo", func(cb ClassBuilder) {
		cb.WithField("count", "I", AccPrivate, nil)
		cb.WithMethod("foo", "()V", AccPublic, func(mb MethodBuilder) {
			mb.WithCode(func(code CodeBuilder) { code.Return() })
		})
		cb.WithField("name", "Ljava/lang/String;", AccPrivate, nil)
	})

	tr := ClassHooks{
		OnAccept: func(b ClassBuilder, e ClassElement) error {
			if _, ok := e.(*FieldModel); !ok {
				b.With(e)
			}
			return nil
		},
		OnEnd: func(b ClassBuilder) error {
			b.WithMethod("bar", "()V", AccPublic, func(mb MethodBuilder) {
				mb.WithCode(func(code CodeBuilder) { code.Return() })
			})
			return nil
		},
	}
	data, err := cf.Transform(m, tr)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	parsed, err := cf.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n := len(parsed.Fields()); n != 0 {
		t.Errorf("fields = %d, want 0", n)
	}
	var names []string
	for _, mm := range parsed.Methods() {
		names = append(names, mm.Name)
	}
	if !slices.Equal(names, []string{"foo", "bar"}) {
		t.Errorf("methods = %v, want [foo bar]", names)
	}
}
