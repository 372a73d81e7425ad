package classfile

import (
	cferrors "github.com/wippyai/classfile/errors"
)

// fieldSlots returns the stack or local slots a value of descriptor desc takes.
func fieldSlots(desc string) int {
	if desc == "" {
		return 0
	}
	switch desc[0] {
	case 'J', 'D':
		return 2
	case 'V':
		return 0
	}
	return 1
}

// methodSlots returns the argument and return slots of a method descriptor.
func methodSlots(desc string) (args, ret int, err error) {
	if len(desc) < 3 || desc[0] != '(' {
		return 0, 0, badDescriptor(desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		start := i
		for i < len(desc) && desc[i] == '[' {
			i++
		}
		if i >= len(desc) {
			return 0, 0, badDescriptor(desc)
		}
		switch desc[i] {
		case 'L':
			for i < len(desc) && desc[i] != ';' {
				i++
			}
			if i >= len(desc) {
				return 0, 0, badDescriptor(desc)
			}
		case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		default:
			return 0, 0, badDescriptor(desc)
		}
		i++
		if i-start > 1 && desc[start] == '[' {
			args++
		} else {
			args += fieldSlots(desc[start:i])
		}
	}
	if i >= len(desc)-1 {
		return 0, 0, badDescriptor(desc)
	}
	return args, fieldSlots(desc[i+1:]), nil
}

func badDescriptor(desc string) error {
	return cferrors.New(cferrors.PhaseEncode, cferrors.KindInvalidInput).
		Value(desc).
		Detail("malformed method descriptor %q", desc).
		Build()
}

// InternalName converts a class descriptor such as "Ljava/lang/String;" to an
// internal name. Other strings are returned unchanged.
func InternalName(desc string) string {
	if len(desc) > 2 && desc[0] == 'L' && desc[len(desc)-1] == ';' {
		return desc[1 : len(desc)-1]
	}
	return desc
}

// Descriptor converts an internal name to a class descriptor. Array
// descriptors are returned unchanged.
func Descriptor(internalName string) string {
	if len(internalName) > 0 && internalName[0] == '[' {
		return internalName
	}
	return "L" + internalName + ";"
}
