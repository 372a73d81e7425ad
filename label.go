package classfile

import "fmt"

// Label is a position in code that is not final yet. Labels are handles into
// a LabelArena; a label gets a bytecode offset only when the code array that
// binds it (via LabelTarget) is serialized.
type Label struct {
	arena *LabelArena
	index uint32
}

// IsZero reports whether l was never allocated.
func (l Label) IsZero() bool {
	return l.arena == nil
}

func (l Label) String() string {
	if l.arena == nil {
		return "L?"
	}
	return fmt.Sprintf("L%d", l.index)
}

// LabelArena allocates labels. One arena serves every code builder of a
// top-level build so labels stay unique when elements move between builders.
// An arena is not safe for concurrent use.
type LabelArena struct {
	next uint32
}

// NewLabel allocates a fresh label.
func (a *LabelArena) NewLabel() Label {
	a.next++
	return Label{arena: a, index: a.next}
}

// LabelResolver maps labels to final bytecode offsets.
type LabelResolver interface {
	LabelOffset(l Label) (int, bool)
}

// LabelTable is a two-way label/offset map. The code serializer binds labels
// as it emits LabelTarget elements; parsers use LabelAt to mint labels for
// offsets found in class file bytes.
type LabelTable struct {
	arena    *LabelArena
	offsets  map[Label]int
	byOffset map[int]Label
}

// NewLabelTable creates an empty table that mints labels from arena.
func NewLabelTable(arena *LabelArena) *LabelTable {
	if arena == nil {
		arena = &LabelArena{}
	}
	return &LabelTable{
		arena:    arena,
		offsets:  make(map[Label]int),
		byOffset: make(map[int]Label),
	}
}

// Bind records the offset of l. The first label bound at an offset is the one
// LabelAt returns for it.
func (t *LabelTable) Bind(l Label, offset int) {
	t.offsets[l] = offset
	if _, ok := t.byOffset[offset]; !ok {
		t.byOffset[offset] = l
	}
}

// LabelOffset returns the bound offset of l.
func (t *LabelTable) LabelOffset(l Label) (int, bool) {
	if t == nil {
		return 0, false
	}
	off, ok := t.offsets[l]
	return off, ok
}

// LabelAt returns the label bound at offset, minting and binding one if none is.
func (t *LabelTable) LabelAt(offset int) Label {
	if l, ok := t.byOffset[offset]; ok {
		return l
	}
	l := t.arena.NewLabel()
	t.Bind(l, offset)
	return l
}

// boundAt returns the first label bound at offset without minting one.
func (t *LabelTable) boundAt(offset int) (Label, bool) {
	l, ok := t.byOffset[offset]
	return l, ok
}
