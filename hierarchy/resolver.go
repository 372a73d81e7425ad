package hierarchy

import (
	"sync"

	"go.uber.org/zap"
)

// Resolver looks up the hierarchy entry of a class by internal name.
// Descriptors and binary names are accepted too; see InternalName.
type Resolver interface {
	ClassInfo(name string) (Info, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(name string) (Info, error)

func (f ResolverFunc) ClassInfo(name string) (Info, error) { return f(name) }

// OrElse asks r first and other only when r does not know the class. An
// error from r is returned without consulting other.
func OrElse(r, other Resolver) Resolver {
	return ResolverFunc(func(name string) (Info, error) {
		info, err := r.ClassInfo(name)
		if err != nil || info.Known() {
			return info, err
		}
		return other.ClassInfo(name)
	})
}

// Chain combines resolvers with OrElse in order.
func Chain(rs ...Resolver) Resolver {
	if len(rs) == 0 {
		return Of(nil, nil)
	}
	r := rs[0]
	for _, next := range rs[1:] {
		r = OrElse(r, next)
	}
	return r
}

// Cache stores resolver answers. Implementations decide their own thread
// safety; Cached adds none.
type Cache interface {
	Load(name string) (Info, bool)
	Store(name string, info Info)
}

// MapCache is a Cache over a plain map. It is not safe for concurrent use.
type MapCache map[string]Info

func (c MapCache) Load(name string) (Info, bool) {
	info, ok := c[name]
	return info, ok
}

func (c MapCache) Store(name string, info Info) {
	c[name] = info
}

// SyncMapCache is a Cache safe for concurrent use.
type SyncMapCache struct {
	m sync.Map
}

func (c *SyncMapCache) Load(name string) (Info, bool) {
	v, ok := c.m.Load(name)
	if !ok {
		return Info{}, false
	}
	return v.(Info), true
}

func (c *SyncMapCache) Store(name string, info Info) {
	c.m.Store(name, info)
}

// Cached wraps r with an append-only cache. A miss queries r and stores the
// answer, Unknown included; a hit never queries r again, even if r would now
// answer differently. Errors are returned and not stored.
func Cached(r Resolver, cache Cache) Resolver {
	return ResolverFunc(func(name string) (Info, error) {
		name = InternalName(name)
		if info, ok := cache.Load(name); ok {
			return info, nil
		}
		info, err := r.ClassInfo(name)
		if err != nil {
			return Info{}, err
		}
		Logger().Debug("hierarchy cache miss", zap.String("class", name), zap.Stringer("info", info))
		cache.Store(name, info)
		return info, nil
	})
}

// Of returns a resolver over fixed tables: every name in interfaces is an
// interface, every key of classToSuper a class with the mapped superclass
// ("" for none). Names are normalized with InternalName.
func Of(interfaces []string, classToSuper map[string]string) Resolver {
	table := make(map[string]Info, len(interfaces)+len(classToSuper))
	for name, super := range classToSuper {
		table[InternalName(name)] = Class(super)
	}
	for _, name := range interfaces {
		table[InternalName(name)] = Interface()
	}
	return ResolverFunc(func(name string) (Info, error) {
		return table[InternalName(name)], nil
	})
}
