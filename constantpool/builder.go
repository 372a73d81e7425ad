package constantpool

import (
	cferrors "github.com/wippyai/classfile/errors"
	"github.com/wippyai/classfile/internal/binary"
)

// maxSlots is the largest constant_pool_count a class file can carry.
const maxSlots = 0xFFFF

// Builder is an interning constant pool under construction. It is not safe
// for concurrent writers; one build owns one Builder.
type Builder struct {
	parent  Pool
	seeded  int
	lookup  map[Entry]uint16
	entries []Entry
}

// NewBuilder creates an empty pool builder.
func NewBuilder() *Builder {
	return &Builder{
		entries: []Entry{nil},
		lookup:  make(map[Entry]uint16),
	}
}

// NewBuilderFrom creates a builder that starts with every entry of parent at
// the same index. Entries of parent can then be written verbatim.
func NewBuilderFrom(parent Pool) (*Builder, error) {
	b := NewBuilder()
	b.parent = parent
	b.seeded = parent.Size()
	for i := 1; i < parent.Size(); {
		e, err := parent.EntryAt(uint16(i))
		if err != nil {
			return nil, err
		}
		idx := uint16(len(b.entries))
		b.entries = append(b.entries, e)
		if width(e) == 2 {
			b.entries = append(b.entries, nil)
		}
		if _, dup := b.lookup[e]; !dup {
			b.lookup[e] = idx
		}
		i += width(e)
	}
	return b, nil
}

// Size returns constant_pool_count.
func (b *Builder) Size() int {
	return len(b.entries)
}

// EntryAt returns the entry at index.
func (b *Builder) EntryAt(index uint16) (Entry, error) {
	return entryAt(b.entries, index)
}

// Parent returns the pool this builder was seeded from, or nil.
func (b *Builder) Parent() Pool {
	return b.parent
}

// CanWriteDirect reports whether indices taken from src are valid in this
// pool without re-interning. That holds for b itself and for any pool on its
// parent chain whose entries were all copied when the next link was seeded.
// A false answer is always safe.
func (b *Builder) CanWriteDirect(src Pool) bool {
	if src == nil {
		return false
	}
	if src == Pool(b) {
		return true
	}
	for cur := b; cur.parent != nil; {
		if src == cur.parent {
			return src.Size() <= cur.seeded
		}
		next, ok := cur.parent.(*Builder)
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

// Add interns e and returns its index.
func (b *Builder) Add(e Entry) (uint16, error) {
	if idx, ok := b.lookup[e]; ok {
		return idx, nil
	}
	if u, ok := e.(Utf8); ok {
		if n := EncodedLen(u.Value); n > 0xFFFF {
			return 0, cferrors.Overflow(cferrors.PhaseEncode, []string{"constant_pool", "Utf8"}, n, "u2 length")
		}
	}
	if len(b.entries)+width(e) > maxSlots {
		return 0, cferrors.Overflow(cferrors.PhaseEncode, []string{"constant_pool"}, len(b.entries)+width(e), "constant_pool_count")
	}
	idx := uint16(len(b.entries))
	b.entries = append(b.entries, e)
	if width(e) == 2 {
		b.entries = append(b.entries, nil)
	}
	b.lookup[e] = idx
	return idx, nil
}

// Utf8 interns a Utf8 entry.
func (b *Builder) Utf8(s string) (uint16, error) {
	return b.Add(Utf8{Value: s})
}

// Class interns a Class entry for an internal name such as "java/lang/Object".
func (b *Builder) Class(internalName string) (uint16, error) {
	n, err := b.Utf8(internalName)
	if err != nil {
		return 0, err
	}
	return b.Add(Class{NameIndex: n})
}

// String interns a String entry.
func (b *Builder) String(s string) (uint16, error) {
	n, err := b.Utf8(s)
	if err != nil {
		return 0, err
	}
	return b.Add(String{Utf8Index: n})
}

// Integer interns an Integer entry.
func (b *Builder) Integer(v int32) (uint16, error) {
	return b.Add(Integer{Value: v})
}

// Float interns a Float entry.
func (b *Builder) Float(v float32) (uint16, error) {
	return b.Add(FloatOf(v))
}

// Long interns a Long entry.
func (b *Builder) Long(v int64) (uint16, error) {
	return b.Add(Long{Value: v})
}

// Double interns a Double entry.
func (b *Builder) Double(v float64) (uint16, error) {
	return b.Add(DoubleOf(v))
}

// NameAndType interns a NameAndType entry.
func (b *Builder) NameAndType(name, desc string) (uint16, error) {
	n, err := b.Utf8(name)
	if err != nil {
		return 0, err
	}
	d, err := b.Utf8(desc)
	if err != nil {
		return 0, err
	}
	return b.Add(NameAndType{NameIndex: n, TypeIndex: d})
}

// FieldRef interns a Fieldref entry.
func (b *Builder) FieldRef(owner, name, desc string) (uint16, error) {
	return b.memberRef(TagFieldref, owner, name, desc)
}

// MethodRef interns a Methodref entry.
func (b *Builder) MethodRef(owner, name, desc string) (uint16, error) {
	return b.memberRef(TagMethodref, owner, name, desc)
}

// InterfaceMethodRef interns an InterfaceMethodref entry.
func (b *Builder) InterfaceMethodRef(owner, name, desc string) (uint16, error) {
	return b.memberRef(TagInterfaceMethodref, owner, name, desc)
}

func (b *Builder) memberRef(kind Tag, owner, name, desc string) (uint16, error) {
	c, err := b.Class(owner)
	if err != nil {
		return 0, err
	}
	nt, err := b.NameAndType(name, desc)
	if err != nil {
		return 0, err
	}
	return b.Add(MemberRef{Kind: kind, ClassIndex: c, NameAndTypeIndex: nt})
}

// WriteTo writes constant_pool_count followed by every entry.
func (b *Builder) WriteTo(w *binary.Writer) {
	w.WriteU2(uint16(len(b.entries)))
	for _, e := range b.entries[1:] {
		if e == nil {
			continue
		}
		writeEntry(w, e)
	}
}

func writeEntry(w *binary.Writer, e Entry) {
	w.Byte(byte(e.Tag()))
	switch v := e.(type) {
	case Utf8:
		data := EncodeModifiedUTF8(v.Value)
		w.WriteU2(uint16(len(data)))
		w.WriteBytes(data)
	case Integer:
		w.WriteU4(uint32(v.Value))
	case Float:
		w.WriteU4(v.Bits)
	case Long:
		w.WriteU8(uint64(v.Value))
	case Double:
		w.WriteU8(v.Bits)
	case Class:
		w.WriteU2(v.NameIndex)
	case String:
		w.WriteU2(v.Utf8Index)
	case NameAndType:
		w.WriteU2(v.NameIndex)
		w.WriteU2(v.TypeIndex)
	case MemberRef:
		w.WriteU2(v.ClassIndex)
		w.WriteU2(v.NameAndTypeIndex)
	case MethodHandle:
		w.WriteU1(v.RefKind)
		w.WriteU2(v.RefIndex)
	case MethodType:
		w.WriteU2(v.DescIndex)
	case Dynamic:
		w.WriteU2(v.BootstrapIndex)
		w.WriteU2(v.NameAndTypeIndex)
	case Module:
		w.WriteU2(v.NameIndex)
	case Package:
		w.WriteU2(v.NameIndex)
	}
}
