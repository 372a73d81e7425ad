package hierarchy

import (
	"errors"
	"io/fs"
	"path"

	"go.uber.org/zap"

	"github.com/wippyai/classfile/constantpool"
	cferrors "github.com/wippyai/classfile/errors"
	"github.com/wippyai/classfile/internal/binary"
)

const (
	classMagic   = 0xCAFEBABE
	accInterface = 0x0200
)

// Header is the identifying part of a class file.
type Header struct {
	Name string
	Info Info
}

// ReadHeader parses the magic, version, constant pool, access flags and
// this/super entries of class file bytes. The rest of the class is not read.
func ReadHeader(data []byte) (Header, error) {
	r := binary.FromBytes(data)
	magic, err := r.ReadU4()
	if err != nil {
		return Header{}, cferrors.Load("read class header", r.WrapError("magic", err))
	}
	if magic != classMagic {
		return Header{}, cferrors.New(cferrors.PhaseLoad, cferrors.KindInvalidData).
			Value(magic).
			Detail("bad magic 0x%08x", magic).
			Build()
	}
	if err := r.Skip(4); err != nil {
		return Header{}, cferrors.Load("read class version", err)
	}
	pool, err := constantpool.Read(r)
	if err != nil {
		return Header{}, cferrors.Load("read constant pool", err)
	}

	var fields [3]uint16 // access_flags, this_class, super_class
	for i := range fields {
		if fields[i], err = r.ReadU2(); err != nil {
			return Header{}, cferrors.Load("read class header", r.WrapError("this/super", err))
		}
	}
	name, err := constantpool.ClassNameAt(pool, fields[1])
	if err != nil {
		return Header{}, cferrors.Load("resolve this_class", err)
	}
	if fields[0]&accInterface != 0 {
		return Header{Name: name, Info: Interface()}, nil
	}
	var super string
	if fields[2] != 0 {
		if super, err = constantpool.ClassNameAt(pool, fields[2]); err != nil {
			return Header{}, cferrors.Load("resolve super_class", err)
		}
	}
	return Header{Name: name, Info: Class(super)}, nil
}

// Loader returns the class file bytes of a class. A class it cannot find is
// reported as (nil, nil) or as an error wrapping fs.ErrNotExist.
type Loader func(name string) ([]byte, error)

// OfClassData returns a resolver that reads class headers from load.
func OfClassData(load Loader) Resolver {
	return ResolverFunc(func(name string) (Info, error) {
		name = InternalName(name)
		data, err := load(name)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && data == nil) {
			return Unknown, nil
		}
		if err != nil {
			return Info{}, cferrors.Load("load "+name, err)
		}
		h, err := ReadHeader(data)
		if err != nil {
			return Info{}, err
		}
		if h.Name != name {
			return Info{}, cferrors.New(cferrors.PhaseLoad, cferrors.KindInvalidData).
				Path(name).
				Value(h.Name).
				Detail("class bytes declare %s", h.Name).
				Build()
		}
		Logger().Debug("read class header", zap.String("class", name), zap.Stringer("info", h.Info))
		return h.Info, nil
	})
}

// OfFS returns a resolver reading name.class files from fsys, laid out by
// package directory as in a class path root or an extracted jar.
func OfFS(fsys fs.FS) Resolver {
	return OfClassData(func(name string) ([]byte, error) {
		return fs.ReadFile(fsys, path.Clean(name)+".class")
	})
}
