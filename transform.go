package classfile

import (
	"reflect"
	"sync"

	cferrors "github.com/wippyai/classfile/errors"
)

// Transform rewrites a stream of elements into a builder. Accept is called
// once per source element, in source order; AtStart runs before the first
// element and AtEnd after the last, also for empty streams. Each hook may
// call b.With any number of times. A returned error aborts the traversal.
//
// The builder type pins the channel: a ClassTransform can only be resolved
// against a ClassBuilder.
type Transform[E Element, B Builder[E, B]] interface {
	Accept(b B, e E) error
	AtStart(b B) error
	AtEnd(b B) error
}

type (
	ClassTransform  = Transform[ClassElement, ClassBuilder]
	FieldTransform  = Transform[FieldElement, FieldBuilder]
	MethodTransform = Transform[MethodElement, MethodBuilder]
	CodeTransform   = Transform[CodeElement, CodeBuilder]
)

// TransformFunc adapts a function to a transform without start or end hooks.
type TransformFunc[E Element, B Builder[E, B]] func(b B, e E) error

func (f TransformFunc[E, B]) Accept(b B, e E) error { return f(b, e) }
func (f TransformFunc[E, B]) AtStart(B) error       { return nil }
func (f TransformFunc[E, B]) AtEnd(B) error         { return nil }

type (
	ClassTransformFunc  = TransformFunc[ClassElement, ClassBuilder]
	FieldTransformFunc  = TransformFunc[FieldElement, FieldBuilder]
	MethodTransformFunc = TransformFunc[MethodElement, MethodBuilder]
	CodeTransformFunc   = TransformFunc[CodeElement, CodeBuilder]
)

// Hooks is a transform assembled from optional functions. A nil OnAccept
// forwards every element unchanged.
type Hooks[E Element, B Builder[E, B]] struct {
	OnStart  func(b B) error
	OnAccept func(b B, e E) error
	OnEnd    func(b B) error
}

func (h Hooks[E, B]) Accept(b B, e E) error {
	if h.OnAccept == nil {
		b.With(e)
		return nil
	}
	return h.OnAccept(b, e)
}

func (h Hooks[E, B]) AtStart(b B) error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart(b)
}

func (h Hooks[E, B]) AtEnd(b B) error {
	if h.OnEnd == nil {
		return nil
	}
	return h.OnEnd(b)
}

type (
	ClassHooks  = Hooks[ClassElement, ClassBuilder]
	FieldHooks  = Hooks[FieldElement, FieldBuilder]
	MethodHooks = Hooks[MethodElement, MethodBuilder]
	CodeHooks   = Hooks[CodeElement, CodeBuilder]
)

// Identity forwards every element unchanged.
func Identity[E Element, B Builder[E, B]]() Transform[E, B] {
	return Hooks[E, B]{}
}

// Dropping forwards every element for which drop returns false.
func Dropping[E Element, B Builder[E, B]](drop func(E) bool) Transform[E, B] {
	return Hooks[E, B]{OnAccept: func(b B, e E) error {
		if !drop(e) {
			b.With(e)
		}
		return nil
	}}
}

// EndHandler forwards every element and runs end after the last one.
func EndHandler[E Element, B Builder[E, B]](end func(b B) error) Transform[E, B] {
	return Hooks[E, B]{OnEnd: end}
}

// StartHandler forwards every element and runs start before the first one.
func StartHandler[E Element, B Builder[E, B]](start func(b B) error) Transform[E, B] {
	return Hooks[E, B]{OnStart: start}
}

// AndThen chains two transforms: elements flow through first, whose builder
// feeds second, whose builder is the destination.
//
// Hooks run so that every link is started before it can receive an element
// and ended only after its upstream has ended: AtStart runs from the
// destination end of the chain backwards, AtEnd from the source end forwards.
// Elements emitted by an upstream AtEnd reach every downstream link before
// that link's AtEnd runs.
func AndThen[E Element, B Builder[E, B]](first, second Transform[E, B]) Transform[E, B] {
	return &chained[E, B]{first: first, second: second}
}

// Chain folds ts left to right with AndThen. An empty chain is Identity.
func Chain[E Element, B Builder[E, B]](ts ...Transform[E, B]) Transform[E, B] {
	if len(ts) == 0 {
		return Identity[E, B]()
	}
	t := ts[0]
	for _, next := range ts[1:] {
		t = AndThen(t, next)
	}
	return t
}

// Stateful creates a transform whose state lives in instances made by
// factory. Every Resolve calls factory once, so each traversal sees a fresh
// instance. A factory that returns a pointer this transform has already bound
// to any traversal, live or finished, makes the new traversal fail at start.
func Stateful[E Element, B Builder[E, B]](factory func() Transform[E, B]) Transform[E, B] {
	return &stateful[E, B]{factory: factory, seen: make(map[any]struct{})}
}

// hooks is a transform bound to its builder.
type hooks[E Element] struct {
	accept  func(E) error
	start   func() error
	end     func() error
	release func()
}

// resolvable is implemented by transforms that need more than binding their
// methods to a builder.
type resolvable[E Element, B Builder[E, B]] interface {
	resolve(b B) hooks[E]
}

func bind[E Element, B Builder[E, B]](t Transform[E, B], b B) hooks[E] {
	if r, ok := t.(resolvable[E, B]); ok {
		return r.resolve(b)
	}
	return hooks[E]{
		accept:  func(e E) error { return t.Accept(b, e) },
		start:   func() error { return t.AtStart(b) },
		end:     func() error { return t.AtEnd(b) },
		release: func() {},
	}
}

type chained[E Element, B Builder[E, B]] struct {
	first  Transform[E, B]
	second Transform[E, B]
}

func (c *chained[E, B]) resolve(b B) hooks[E] {
	down := bind(c.second, b)
	mid := b.chain(func(e E) {
		if err := down.accept(e); err != nil {
			panic(abortError{err: err})
		}
	})
	up := bind(c.first, mid)
	return hooks[E]{
		accept: up.accept,
		start: func() error {
			if err := down.start(); err != nil {
				return err
			}
			return up.start()
		},
		end: func() error {
			if err := up.end(); err != nil {
				return err
			}
			return down.end()
		},
		release: func() {
			up.release()
			down.release()
		},
	}
}

func (c *chained[E, B]) Accept(B, E) error { return unresolved("chained") }
func (c *chained[E, B]) AtStart(B) error   { return unresolved("chained") }
func (c *chained[E, B]) AtEnd(B) error     { return unresolved("chained") }

type stateful[E Element, B Builder[E, B]] struct {
	factory func() Transform[E, B]
	// seen holds every pointer instance ever bound. It is never pruned, so
	// an instance handed out twice fails even after its first traversal ended.
	seen map[any]struct{}
	mu   sync.Mutex
}

func (s *stateful[E, B]) resolve(b B) hooks[E] {
	inst := s.factory()
	if key, tracked := instanceKey(inst); tracked {
		s.mu.Lock()
		_, reused := s.seen[key]
		if !reused {
			s.seen[key] = struct{}{}
		}
		s.mu.Unlock()
		if reused {
			err := cferrors.TraversalState("stateful transform instance was already bound to a traversal")
			fail := func() error { return err }
			return hooks[E]{
				accept:  func(E) error { return err },
				start:   fail,
				end:     fail,
				release: func() {},
			}
		}
	}
	return bind(inst, b)
}

func (s *stateful[E, B]) Accept(B, E) error { return unresolved("stateful") }
func (s *stateful[E, B]) AtStart(B) error   { return unresolved("stateful") }
func (s *stateful[E, B]) AtEnd(B) error     { return unresolved("stateful") }

// instanceKey identifies pointer instances. The key is the pointer itself so a
// recorded instance stays reachable and its address cannot be reused. Other
// values are not tracked.
func instanceKey(t any) (any, bool) {
	v := reflect.ValueOf(t)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, false
	}
	return t, true
}

func unresolved(kind string) error {
	return cferrors.TraversalState(kind + " transform invoked directly; use Resolve")
}

// TransformingFields lifts a field transform to the class level: every field
// is rebuilt through t, other elements are forwarded.
func TransformingFields(t FieldTransform) ClassTransform {
	return ClassHooks{OnAccept: func(b ClassBuilder, e ClassElement) error {
		if f, ok := e.(*FieldModel); ok {
			return b.TransformField(f, t)
		}
		b.With(e)
		return nil
	}}
}

// TransformingMethods lifts a method transform to the class level.
func TransformingMethods(t MethodTransform) ClassTransform {
	return ClassHooks{OnAccept: func(b ClassBuilder, e ClassElement) error {
		if m, ok := e.(*MethodModel); ok {
			return b.TransformMethod(m, t)
		}
		b.With(e)
		return nil
	}}
}

// TransformingMethodBodies lifts a code transform to the method level.
func TransformingMethodBodies(t CodeTransform) MethodTransform {
	return MethodHooks{OnAccept: func(b MethodBuilder, e MethodElement) error {
		if c, ok := e.(*CodeModel); ok {
			return b.TransformCode(c, t)
		}
		b.With(e)
		return nil
	}}
}
