// Package hierarchy answers "what is the superclass of X, and is X an
// interface" for stack map computation and assignability checks.
//
// A Resolver maps an internal class name to an Info. Not knowing a class is
// a normal answer (Unknown), not an error; errors are reserved for lookups
// that failed, such as unreadable class bytes.
package hierarchy

import "strings"

// ObjectClass is the root of every class hierarchy.
const ObjectClass = "java/lang/Object"

// Kind tells what a resolver knows about a class.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindClass
	KindInterface
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	}
	return "unknown"
}

// Info is the hierarchy entry of one class. The zero value is Unknown.
type Info struct {
	superclass string
	kind       Kind
}

// Unknown is the answer for a class the resolver has no entry for.
var Unknown = Info{}

// Class describes a class with the given superclass. An empty superclass
// means the class has none, which only holds for java/lang/Object.
func Class(superclass string) Info {
	return Info{kind: KindClass, superclass: InternalName(superclass)}
}

// Interface describes an interface. Interfaces report java/lang/Object as
// their superclass.
func Interface() Info {
	return Info{kind: KindInterface, superclass: ObjectClass}
}

// Kind returns what is known about the class.
func (i Info) Kind() Kind { return i.kind }

// Known reports whether the resolver had an entry.
func (i Info) Known() bool { return i.kind != KindUnknown }

// IsInterface reports whether the class is an interface.
func (i Info) IsInterface() bool { return i.kind == KindInterface }

// Superclass returns the superclass internal name, if there is one.
func (i Info) Superclass() (string, bool) {
	return i.superclass, i.kind != KindUnknown && i.superclass != ""
}

func (i Info) String() string {
	switch i.kind {
	case KindClass:
		if i.superclass == "" {
			return "class (no superclass)"
		}
		return "class extends " + i.superclass
	case KindInterface:
		return "interface"
	}
	return "unknown"
}

// InternalName accepts an internal name (java/lang/String), a field
// descriptor (Ljava/lang/String;) or a binary name (java.lang.String) and
// returns the internal name. Array descriptors are returned unchanged.
func InternalName(name string) string {
	if strings.HasPrefix(name, "[") {
		return name
	}
	if len(name) > 2 && name[0] == 'L' && name[len(name)-1] == ';' {
		name = name[1 : len(name)-1]
	}
	return strings.ReplaceAll(name, ".", "/")
}
