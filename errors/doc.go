// Package errors provides the structured error type shared by the classfile
// packages.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). An Error carries the element path that led to it, the element
// name involved, the offending value and a cause chain.
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindOverflow).
//		Path("com/example/Foo", "run", "Code").
//		Element("PushInstruction").
//		Value(300).
//		Detail("bipush operand out of range").
//		Build()
//
// Or a convenience constructor for common patterns:
//
//	err := errors.ShapeMismatch("OffsetTarget", "CAST")
//	err := errors.OutOfBounds(errors.PhaseDecode, path, 10, 5)
//
// Two errors match under errors.Is when phase and kind are equal.
package errors
