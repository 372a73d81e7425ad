package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseBuild     Phase = "build"     // element integration into builders
	PhaseTransform Phase = "transform" // transform resolution and traversal
	PhaseEncode    Phase = "encode"    // model to class file bytes
	PhaseDecode    Phase = "decode"    // class file bytes to model
	PhaseResolve   Phase = "resolve"   // class hierarchy lookup
	PhaseLoad      Phase = "load"      // class data loading
	PhaseParse     Phase = "parse"     // declarative class definitions
)

// Kind categorizes the error
type Kind string

const (
	KindShapeMismatch   Kind = "shape_mismatch"
	KindChannelMismatch Kind = "channel_mismatch"
	KindUnresolvedLabel Kind = "unresolved_label"
	KindTraversalState  Kind = "traversal_state"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindInvalidData     Kind = "invalid_data"
	KindUnsupported     Kind = "unsupported"
	KindOverflow        Kind = "overflow"
	KindNotFound        Kind = "not_found"
	KindInvalidInput    Kind = "invalid_input"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Element string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Element != "" {
		b.WriteString(": element ")
		b.WriteString(e.Element)
	}

	if e.Detail != "" {
		if e.Element != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location path, e.g. class, method, attribute
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Element sets the element type name
func (b *Builder) Element(name string) *Builder {
	b.err.Element = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// ShapeMismatch creates an error for a target info shape built with a tag it does not serve
func ShapeMismatch(shape, targetType string) *Error {
	return &Error{
		Phase:   PhaseBuild,
		Kind:    KindShapeMismatch,
		Element: shape,
		Detail:  fmt.Sprintf("target type %s is not served by %s", targetType, shape),
		Value:   targetType,
	}
}

// ChannelMismatch creates an error for an element fed to a builder of another level
func ChannelMismatch(element, channel string) *Error {
	return &Error{
		Phase:   PhaseBuild,
		Kind:    KindChannelMismatch,
		Element: element,
		Detail:  fmt.Sprintf("not accepted by %s builder", channel),
	}
}

// UnresolvedLabel creates an error for a label with no bound position at serialization
func UnresolvedLabel(path []string, what string) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindUnresolvedLabel,
		Path:   path,
		Detail: fmt.Sprintf("unresolved label in %s", what),
	}
}

// TraversalState creates an error for a resolved transform driven out of order or reused
func TraversalState(detail string) *Error {
	return &Error{
		Phase:  PhaseTransform,
		Kind:   KindTraversalState,
		Detail: detail,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a class data loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
