package hierarchy_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cferrors "github.com/wippyai/classfile/errors"
	"github.com/wippyai/classfile/hierarchy"
)

// spy counts lookups and answers from a mutable table.
type spy struct {
	mu    sync.Mutex
	calls map[string]int
	table map[string]hierarchy.Info
	err   error
}

func newSpy() *spy {
	return &spy{calls: map[string]int{}, table: map[string]hierarchy.Info{}}
}

func (s *spy) ClassInfo(name string) (hierarchy.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	if s.err != nil {
		return hierarchy.Info{}, s.err
	}
	return s.table[name], nil
}

func TestInternalName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"java/lang/String", "java/lang/String"},
		{"java.lang.String", "java/lang/String"},
		{"Ljava/lang/String;", "java/lang/String"},
		{"[Ljava/lang/String;", "[Ljava/lang/String;"},
		{"Foo", "Foo"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hierarchy.InternalName(tt.in), tt.in)
	}
}

func TestInfo(t *testing.T) {
	assert.False(t, hierarchy.Unknown.Known())
	_, ok := hierarchy.Unknown.Superclass()
	assert.False(t, ok)
	assert.Equal(t, "unknown", hierarchy.Unknown.String())

	c := hierarchy.Class("java.lang.Number")
	assert.Equal(t, hierarchy.KindClass, c.Kind())
	super, ok := c.Superclass()
	assert.True(t, ok)
	assert.Equal(t, "java/lang/Number", super)
	assert.Equal(t, "class extends java/lang/Number", c.String())

	root := hierarchy.Class("")
	_, ok = root.Superclass()
	assert.False(t, ok)
	assert.True(t, root.Known())

	i := hierarchy.Interface()
	assert.True(t, i.IsInterface())
	super, ok = i.Superclass()
	assert.True(t, ok)
	assert.Equal(t, hierarchy.ObjectClass, super)
	assert.Equal(t, "interface", hierarchy.KindInterface.String())
}

func TestOf(t *testing.T) {
	r := hierarchy.Of(
		[]string{"com.example.Shape"},
		map[string]string{"com/example/Circle": "com/example/Base", "com/example/Base": hierarchy.ObjectClass},
	)

	info, err := r.ClassInfo("com/example/Shape")
	require.NoError(t, err)
	assert.True(t, info.IsInterface())

	info, err = r.ClassInfo("Lcom/example/Circle;")
	require.NoError(t, err)
	assert.Equal(t, hierarchy.Class("com/example/Base"), info)

	info, err = r.ClassInfo("com/example/Missing")
	require.NoError(t, err)
	assert.Equal(t, hierarchy.Unknown, info)
}

func TestOrElseShortCircuits(t *testing.T) {
	first, second := newSpy(), newSpy()
	first.table["A"] = hierarchy.Class("B")
	second.table["A"] = hierarchy.Interface()
	second.table["C"] = hierarchy.Interface()
	r := hierarchy.OrElse(first, second)

	info, err := r.ClassInfo("A")
	require.NoError(t, err)
	assert.Equal(t, hierarchy.Class("B"), info)
	assert.Zero(t, second.calls["A"], "second consulted although first knew A")

	info, err = r.ClassInfo("C")
	require.NoError(t, err)
	assert.True(t, info.IsInterface())
	assert.Equal(t, 1, first.calls["C"])
	assert.Equal(t, 1, second.calls["C"])

	boom := errors.New("boom")
	first.err = boom
	_, err = r.ClassInfo("C")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, second.calls["C"], "second consulted after an error")
}

func TestChain(t *testing.T) {
	info, err := hierarchy.Chain().ClassInfo("A")
	require.NoError(t, err)
	assert.False(t, info.Known())

	r := hierarchy.Chain(
		hierarchy.Of(nil, map[string]string{"A": "B"}),
		hierarchy.Of(nil, map[string]string{"B": "C", "A": "X"}),
		hierarchy.Of([]string{"C"}, nil),
	)
	for name, want := range map[string]hierarchy.Info{
		"A": hierarchy.Class("B"),
		"B": hierarchy.Class("C"),
		"C": hierarchy.Interface(),
		"D": hierarchy.Unknown,
	} {
		got, err := r.ClassInfo(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestCachedIsAppendOnly(t *testing.T) {
	caches := map[string]func() hierarchy.Cache{
		"map":     func() hierarchy.Cache { return hierarchy.MapCache{} },
		"syncmap": func() hierarchy.Cache { return &hierarchy.SyncMapCache{} },
	}
	for name, newCache := range caches {
		t.Run(name, func(t *testing.T) {
			delegate := newSpy()
			delegate.table["A"] = hierarchy.Class("B")
			r := hierarchy.Cached(delegate, newCache())

			for range 3 {
				info, err := r.ClassInfo("A")
				require.NoError(t, err)
				assert.Equal(t, hierarchy.Class("B"), info)
			}
			assert.Equal(t, 1, delegate.calls["A"])

			// A changed delegate answer is not observed.
			delegate.table["A"] = hierarchy.Interface()
			info, err := r.ClassInfo("A")
			require.NoError(t, err)
			assert.Equal(t, hierarchy.Class("B"), info)

			// Unknown is an answer and is cached too.
			_, err = r.ClassInfo("U")
			require.NoError(t, err)
			delegate.table["U"] = hierarchy.Interface()
			info, err = r.ClassInfo("U")
			require.NoError(t, err)
			assert.False(t, info.Known())
			assert.Equal(t, 1, delegate.calls["U"])

			// Errors are not.
			delegate.err = errors.New("offline")
			_, err = r.ClassInfo("E")
			require.Error(t, err)
			delegate.err = nil
			delegate.table["E"] = hierarchy.Class("")
			info, err = r.ClassInfo("E")
			require.NoError(t, err)
			assert.True(t, info.Known())
			assert.Equal(t, 2, delegate.calls["E"])
		})
	}
}

func TestCachedNormalizesNames(t *testing.T) {
	delegate := newSpy()
	delegate.table["java/lang/String"] = hierarchy.Class(hierarchy.ObjectClass)
	cache := hierarchy.MapCache{}
	r := hierarchy.Cached(delegate, cache)

	for _, name := range []string{"java.lang.String", "Ljava/lang/String;", "java/lang/String"} {
		info, err := r.ClassInfo(name)
		require.NoError(t, err)
		assert.True(t, info.Known())
	}
	assert.Equal(t, 1, delegate.calls["java/lang/String"])
	assert.Len(t, cache, 1)
}

func TestSyncMapCacheConcurrent(t *testing.T) {
	delegate := newSpy()
	delegate.table["A"] = hierarchy.Class("B")
	r := hierarchy.Cached(delegate, &hierarchy.SyncMapCache{})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := r.ClassInfo("A")
			assert.NoError(t, err)
			assert.Equal(t, hierarchy.Class("B"), info)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, delegate.calls["A"], 1)
}

func TestDefault(t *testing.T) {
	r := hierarchy.Default()
	tests := []struct {
		name  string
		kind  hierarchy.Kind
		super string
	}{
		{"java/lang/Object", hierarchy.KindClass, ""},
		{"java/lang/String", hierarchy.KindClass, hierarchy.ObjectClass},
		{"java/lang/RuntimeException", hierarchy.KindClass, "java/lang/Exception"},
		{"java/lang/Runnable", hierarchy.KindInterface, hierarchy.ObjectClass},
		{"java/util/List", hierarchy.KindInterface, hierarchy.ObjectClass},
		{"com/example/Nope", hierarchy.KindUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := r.ClassInfo(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, info.Kind())
			super, _ := info.Superclass()
			assert.Equal(t, tt.super, super)
		})
	}
}

func isKind(err error, phase cferrors.Phase, kind cferrors.Kind) bool {
	return errors.Is(err, &cferrors.Error{Phase: phase, Kind: kind})
}
