package classfile

import "strings"

// AccessFlag is a bit set of JVM access and property flags.
type AccessFlag uint16

const (
	AccPublic       AccessFlag = 0x0001
	AccPrivate      AccessFlag = 0x0002
	AccProtected    AccessFlag = 0x0004
	AccStatic       AccessFlag = 0x0008
	AccFinal        AccessFlag = 0x0010
	AccSuper        AccessFlag = 0x0020 // class
	AccSynchronized AccessFlag = 0x0020 // method
	AccVolatile     AccessFlag = 0x0040 // field
	AccBridge       AccessFlag = 0x0040 // method
	AccTransient    AccessFlag = 0x0080 // field
	AccVarargs      AccessFlag = 0x0080 // method
	AccNative       AccessFlag = 0x0100
	AccInterface    AccessFlag = 0x0200
	AccAbstract     AccessFlag = 0x0400
	AccStrict       AccessFlag = 0x0800
	AccSynthetic    AccessFlag = 0x1000
	AccAnnotation   AccessFlag = 0x2000
	AccEnum         AccessFlag = 0x4000
	AccModule       AccessFlag = 0x8000
)

// Has reports whether every bit of mask is set.
func (f AccessFlag) Has(mask AccessFlag) bool {
	return f&mask == mask
}

var flagNames = []struct {
	flag AccessFlag
	name string
}{
	{AccPublic, "public"},
	{AccPrivate, "private"},
	{AccProtected, "protected"},
	{AccStatic, "static"},
	{AccFinal, "final"},
	{AccSuper, "super"},
	{AccVolatile, "volatile"},
	{AccTransient, "transient"},
	{AccNative, "native"},
	{AccInterface, "interface"},
	{AccAbstract, "abstract"},
	{AccStrict, "strict"},
	{AccSynthetic, "synthetic"},
	{AccAnnotation, "annotation"},
	{AccEnum, "enum"},
	{AccModule, "module"},
}

// String renders the flags using class-level names for shared bits.
func (f AccessFlag) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " ")
}

// ParseAccessFlag resolves a flag name as printed by String, plus the
// method-level aliases synchronized, bridge and varargs.
func ParseAccessFlag(name string) (AccessFlag, bool) {
	switch name {
	case "synchronized":
		return AccSynchronized, true
	case "bridge":
		return AccBridge, true
	case "varargs":
		return AccVarargs, true
	}
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return 0, false
}
