package hierarchy

import (
	"slices"

	cferrors "github.com/wippyai/classfile/errors"
)

// maxDepth bounds superclass walks so a cyclic resolver cannot loop forever.
const maxDepth = 256

// Hierarchy answers subtype questions on top of a Resolver. It follows only
// superclass links: interfaces are treated like java/lang/Object, which is
// how the verifier merges reference types.
type Hierarchy struct {
	r Resolver
}

// New creates a Hierarchy over r.
func New(r Resolver) *Hierarchy {
	return &Hierarchy{r: r}
}

// Info resolves name, failing with KindNotFound when the resolver does not
// know it.
func (h *Hierarchy) Info(name string) (Info, error) {
	name = InternalName(name)
	info, err := h.r.ClassInfo(name)
	if err != nil {
		return Info{}, err
	}
	if !info.Known() {
		return Info{}, cferrors.NotFound(cferrors.PhaseResolve, "class", name)
	}
	return info, nil
}

// Superclasses returns name followed by its superclasses up to and
// including java/lang/Object.
func (h *Hierarchy) Superclasses(name string) ([]string, error) {
	name = InternalName(name)
	chain := []string{name}
	for len(chain) <= maxDepth {
		info, err := h.Info(name)
		if err != nil {
			return nil, err
		}
		super, ok := info.Superclass()
		if !ok {
			return chain, nil
		}
		if slices.Contains(chain, super) {
			return nil, cferrors.New(cferrors.PhaseResolve, cferrors.KindInvalidData).
				Path(chain...).
				Value(super).
				Detail("superclass cycle through %s", super).
				Build()
		}
		chain = append(chain, super)
		name = super
	}
	return nil, cferrors.Overflow(cferrors.PhaseResolve, chain[:1], len(chain), "superclass depth")
}

// IsAssignableFrom reports whether a value of class from can be stored in a
// variable of type to. Every class is assignable to an interface type.
func (h *Hierarchy) IsAssignableFrom(to, from string) (bool, error) {
	to, from = InternalName(to), InternalName(from)
	if to == from || to == ObjectClass {
		return true, nil
	}
	target, err := h.Info(to)
	if err != nil {
		return false, err
	}
	if target.IsInterface() {
		return true, nil
	}
	chain, err := h.Superclasses(from)
	if err != nil {
		return false, err
	}
	return slices.Contains(chain, to), nil
}

// CommonSuperclass returns the most specific class both a and b extend.
// If either is an interface the answer is java/lang/Object.
func (h *Hierarchy) CommonSuperclass(a, b string) (string, error) {
	a, b = InternalName(a), InternalName(b)
	if a == b {
		return a, nil
	}
	for _, name := range []string{a, b} {
		info, err := h.Info(name)
		if err != nil {
			return "", err
		}
		if info.IsInterface() {
			return ObjectClass, nil
		}
	}
	left, err := h.Superclasses(a)
	if err != nil {
		return "", err
	}
	right, err := h.Superclasses(b)
	if err != nil {
		return "", err
	}
	for _, name := range left {
		if slices.Contains(right, name) {
			return name, nil
		}
	}
	return ObjectClass, nil
}
