package constantpool

import (
	"fmt"

	cferrors "github.com/wippyai/classfile/errors"
)

// Pool is a readable constant pool.
type Pool interface {
	// Size returns constant_pool_count: one more than the highest valid index.
	Size() int
	// EntryAt returns the entry at a 1-based index.
	EntryAt(index uint16) (Entry, error)
}

// Utf8At returns the string stored in the Utf8 entry at index.
func Utf8At(p Pool, index uint16) (string, error) {
	e, err := p.EntryAt(index)
	if err != nil {
		return "", err
	}
	u, ok := e.(Utf8)
	if !ok {
		return "", wrongTag(index, TagUtf8, e.Tag())
	}
	return u.Value, nil
}

// ClassNameAt returns the internal name referred to by the Class entry at index.
func ClassNameAt(p Pool, index uint16) (string, error) {
	e, err := p.EntryAt(index)
	if err != nil {
		return "", err
	}
	c, ok := e.(Class)
	if !ok {
		return "", wrongTag(index, TagClass, e.Tag())
	}
	return Utf8At(p, c.NameIndex)
}

// Member is a resolved field or method reference.
type Member struct {
	Owner string
	Name  string
	Desc  string
	Kind  Tag
}

// MemberAt resolves the Fieldref, Methodref or InterfaceMethodref at index.
func MemberAt(p Pool, index uint16) (Member, error) {
	e, err := p.EntryAt(index)
	if err != nil {
		return Member{}, err
	}
	ref, ok := e.(MemberRef)
	if !ok {
		return Member{}, wrongTag(index, TagMethodref, e.Tag())
	}
	owner, err := ClassNameAt(p, ref.ClassIndex)
	if err != nil {
		return Member{}, err
	}
	nt, err := p.EntryAt(ref.NameAndTypeIndex)
	if err != nil {
		return Member{}, err
	}
	nat, ok := nt.(NameAndType)
	if !ok {
		return Member{}, wrongTag(ref.NameAndTypeIndex, TagNameAndType, nt.Tag())
	}
	name, err := Utf8At(p, nat.NameIndex)
	if err != nil {
		return Member{}, err
	}
	desc, err := Utf8At(p, nat.TypeIndex)
	if err != nil {
		return Member{}, err
	}
	return Member{Owner: owner, Name: name, Desc: desc, Kind: ref.Kind}, nil
}

func wrongTag(index uint16, want, got Tag) error {
	return cferrors.New(cferrors.PhaseDecode, cferrors.KindInvalidData).
		Path(fmt.Sprintf("#%d", index)).
		Value(got).
		Detail("expected %s entry, found %s", want, got).
		Build()
}

func slotError(index uint16, size int) error {
	return cferrors.OutOfBounds(cferrors.PhaseDecode, []string{"constant_pool"}, int(index), size)
}

// entryAt is shared index validation for slice-backed pools.
func entryAt(entries []Entry, index uint16) (Entry, error) {
	if index == 0 || int(index) >= len(entries) {
		return nil, slotError(index, len(entries))
	}
	e := entries[index]
	if e == nil {
		return nil, cferrors.InvalidData(cferrors.PhaseDecode, []string{"constant_pool"},
			fmt.Sprintf("index %d is the unusable upper slot of a wide entry", index))
	}
	return e, nil
}
