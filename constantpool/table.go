package constantpool

import (
	"fmt"

	cferrors "github.com/wippyai/classfile/errors"
	"github.com/wippyai/classfile/internal/binary"
)

// Table is a read-only constant pool parsed from class file bytes.
type Table struct {
	entries []Entry
}

// Size returns constant_pool_count.
func (t *Table) Size() int {
	return len(t.entries)
}

// EntryAt returns the entry at index.
func (t *Table) EntryAt(index uint16) (Entry, error) {
	return entryAt(t.entries, index)
}

// Read parses constant_pool_count and the entries that follow it.
func Read(r *binary.Reader) (*Table, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, r.WrapError("constant pool count", err)
	}
	if count == 0 {
		return nil, cferrors.InvalidData(cferrors.PhaseDecode, []string{"constant_pool"}, "constant_pool_count is zero")
	}
	t := &Table{entries: make([]Entry, 1, count)}
	for len(t.entries) < int(count) {
		e, err := readEntry(r)
		if err != nil {
			return nil, r.WrapError(fmt.Sprintf("constant pool entry #%d", len(t.entries)), err)
		}
		t.entries = append(t.entries, e)
		if width(e) == 2 {
			t.entries = append(t.entries, nil)
		}
	}
	if len(t.entries) != int(count) {
		return nil, cferrors.InvalidData(cferrors.PhaseDecode, []string{"constant_pool"}, "wide entry overruns constant_pool_count")
	}
	return t, nil
}

func readEntry(r *binary.Reader) (Entry, error) {
	tag, err := r.ReadU1()
	if err != nil {
		return nil, err
	}
	switch Tag(tag) {
	case TagUtf8:
		n, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		data, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		s, err := DecodeModifiedUTF8(data)
		if err != nil {
			return nil, err
		}
		return Utf8{Value: s}, nil
	case TagInteger:
		v, err := r.ReadU4()
		return Integer{Value: int32(v)}, err
	case TagFloat:
		v, err := r.ReadU4()
		return Float{Bits: v}, err
	case TagLong:
		v, err := r.ReadU8()
		return Long{Value: int64(v)}, err
	case TagDouble:
		v, err := r.ReadU8()
		return Double{Bits: v}, err
	case TagClass:
		v, err := r.ReadU2()
		return Class{NameIndex: v}, err
	case TagString:
		v, err := r.ReadU2()
		return String{Utf8Index: v}, err
	case TagModule:
		v, err := r.ReadU2()
		return Module{NameIndex: v}, err
	case TagPackage:
		v, err := r.ReadU2()
		return Package{NameIndex: v}, err
	case TagMethodType:
		v, err := r.ReadU2()
		return MethodType{DescIndex: v}, err
	case TagNameAndType:
		a, b, err := readPair(r)
		return NameAndType{NameIndex: a, TypeIndex: b}, err
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		a, b, err := readPair(r)
		return MemberRef{Kind: Tag(tag), ClassIndex: a, NameAndTypeIndex: b}, err
	case TagDynamic, TagInvokeDynamic:
		a, b, err := readPair(r)
		return Dynamic{Kind: Tag(tag), BootstrapIndex: a, NameAndTypeIndex: b}, err
	case TagMethodHandle:
		kind, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		ref, err := r.ReadU2()
		return MethodHandle{RefKind: kind, RefIndex: ref}, err
	default:
		return nil, cferrors.New(cferrors.PhaseDecode, cferrors.KindInvalidData).
			Value(tag).
			Detail("unknown constant pool tag %d", tag).
			Build()
	}
}

func readPair(r *binary.Reader) (uint16, uint16, error) {
	a, err := r.ReadU2()
	if err != nil {
		return 0, 0, err
	}
	b, err := r.ReadU2()
	return a, b, err
}
