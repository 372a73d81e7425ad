package classfile

import (
	"iter"

	cferrors "github.com/wippyai/classfile/errors"
)

// TraversalState is the position of a resolved transform in its single traversal.
type TraversalState uint8

const (
	NotStarted TraversalState = iota
	Started
	Accepting
	Ended
	Failed
)

func (s TraversalState) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Started:
		return "started"
	case Accepting:
		return "accepting"
	case Ended:
		return "ended"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Resolved is a transform bound to a destination builder, ready for exactly
// one traversal: Start, any number of Accept calls, End. Calls out of that
// order fail with KindTraversalState. After an error the traversal is over;
// the destination keeps the elements integrated before the failure and
// should be discarded.
//
// A Resolved is not safe for concurrent use.
type Resolved[E Element] struct {
	h     hooks[E]
	state TraversalState
}

// Resolve binds t to b. Chains create their intermediate builders here and
// stateful transforms get their fresh instance.
func Resolve[E Element, B Builder[E, B]](t Transform[E, B], b B) *Resolved[E] {
	return &Resolved[E]{h: bind(t, b)}
}

// State returns the traversal state.
func (r *Resolved[E]) State() TraversalState {
	return r.state
}

// Start runs the start hooks.
func (r *Resolved[E]) Start() error {
	if r.state != NotStarted {
		return r.misuse("start")
	}
	r.state = Started
	return r.step(r.h.start)
}

// Accept feeds one source element.
func (r *Resolved[E]) Accept(e E) error {
	if r.state != Started && r.state != Accepting {
		return r.misuse("accept")
	}
	r.state = Accepting
	return r.step(func() error { return r.h.accept(e) })
}

// End runs the end hooks and completes the traversal.
func (r *Resolved[E]) End() error {
	if r.state != Started && r.state != Accepting {
		return r.misuse("end")
	}
	if err := r.step(r.h.end); err != nil {
		return err
	}
	r.state = Ended
	r.h.release()
	return nil
}

// Run drives a complete traversal of seq.
func (r *Resolved[E]) Run(seq iter.Seq[E]) error {
	if err := r.Start(); err != nil {
		return err
	}
	for e := range seq {
		if err := r.Accept(e); err != nil {
			return err
		}
	}
	return r.End()
}

func (r *Resolved[E]) step(fn func() error) error {
	err := recoverAbort(fn)
	if err != nil {
		r.state = Failed
		r.h.release()
	}
	return err
}

func (r *Resolved[E]) misuse(op string) error {
	return cferrors.TraversalState(op + " called in state " + r.state.String())
}

// abortError carries a downstream error out through user code that called
// With on an intermediate builder of a chain.
type abortError struct {
	err error
}

func recoverAbort(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			a, ok := p.(abortError)
			if !ok {
				panic(p)
			}
			err = a.err
		}
	}()
	return fn()
}
