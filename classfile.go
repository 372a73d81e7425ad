package classfile

import (
	"go.uber.org/zap"

	"github.com/wippyai/classfile/constantpool"
)

// Options configures a ClassFile context.
type Options struct {
	// FreshPool makes transforms write into an empty constant pool instead of
	// one seeded from the source class. Seeding keeps every source index
	// valid, so attributes bound to the source pool can be copied verbatim.
	FreshPool bool
	// DropUnknownAttributes makes Parse skip attributes the model does not
	// interpret instead of keeping them as CustomAttribute elements.
	DropUnknownAttributes bool
}

// ClassFile parses, builds and transforms classes. A ClassFile holds only
// options and is safe for concurrent use; the models and builders it hands
// out are not.
type ClassFile struct {
	opts Options
}

// New creates a ClassFile context.
func New(opts Options) *ClassFile {
	return &ClassFile{opts: opts}
}

// Parse decodes class file bytes into a model.
func (cf *ClassFile) Parse(data []byte) (*ClassModel, error) {
	m, err := parseClass(data, cf.opts.DropUnknownAttributes)
	if err != nil {
		return nil, err
	}
	Logger().Debug("parsed class",
		zap.String("class", m.ThisClass),
		zap.Int("elements", len(m.elements)),
		zap.Int("pool", m.pool.Size()))
	return m, nil
}

// BuildModel builds a class model for thisClass from the elements handler
// supplies.
func (cf *ClassFile) BuildModel(thisClass string, handler func(ClassBuilder)) *ClassModel {
	env := newBuildEnv(nil)
	m := &ClassModel{ThisClass: thisClass, pool: env.pool}
	handler(newClassBuilder(env, m))
	return m
}

// Build builds and encodes a class.
func (cf *ClassFile) Build(thisClass string, handler func(ClassBuilder)) ([]byte, error) {
	return cf.Encode(cf.BuildModel(thisClass, handler))
}

// TransformModel feeds the elements of m through t into a new class model.
func (cf *ClassFile) TransformModel(m *ClassModel, t ClassTransform) (*ClassModel, error) {
	pool, err := cf.poolFor(m)
	if err != nil {
		return nil, err
	}
	env := newBuildEnv(pool)
	out := &ClassModel{ThisClass: m.ThisClass, pool: pool}
	Logger().Debug("transform start", zap.String("class", m.ThisClass), zap.Int("elements", len(m.elements)))
	if err := Resolve(t, ClassBuilder(newClassBuilder(env, out))).Run(m.Elements()); err != nil {
		Logger().Debug("transform failed", zap.String("class", m.ThisClass), zap.Error(err))
		return nil, err
	}
	Logger().Debug("transform end", zap.String("class", m.ThisClass), zap.Int("elements", len(out.elements)))
	return out, nil
}

// Transform transforms m and encodes the result.
func (cf *ClassFile) Transform(m *ClassModel, t ClassTransform) ([]byte, error) {
	out, err := cf.TransformModel(m, t)
	if err != nil {
		return nil, err
	}
	return cf.Encode(out)
}

// Encode serializes m. Models from BuildModel and TransformModel encode into
// the pool their builders used; parsed models encode into a pool chosen by
// the FreshPool option. Encoding interns into that pool, so a model must not
// be encoded concurrently with itself.
func (cf *ClassFile) Encode(m *ClassModel) ([]byte, error) {
	pool, ok := m.pool.(*constantpool.Builder)
	if !ok {
		var err error
		if pool, err = cf.poolFor(m); err != nil {
			return nil, err
		}
	}
	data, err := encodeClass(m, pool)
	if err != nil {
		Logger().Debug("encode failed", zap.String("class", m.ThisClass), zap.Error(err))
		return nil, err
	}
	Logger().Debug("encoded class",
		zap.String("class", m.ThisClass),
		zap.Int("bytes", len(data)),
		zap.Int("pool", pool.Size()))
	return data, nil
}

// poolFor returns the pool a class derived from m writes into.
func (cf *ClassFile) poolFor(m *ClassModel) (*constantpool.Builder, error) {
	if cf.opts.FreshPool || m.pool == nil {
		return constantpool.NewBuilder(), nil
	}
	return constantpool.NewBuilderFrom(m.pool)
}
