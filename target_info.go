package classfile

import (
	"fmt"

	cferrors "github.com/wippyai/classfile/errors"
	"github.com/wippyai/classfile/internal/binary"
)

// TargetType identifies which kind of type usage a type annotation targets.
// The numeric value is the target_type byte of JVMS 4.7.20.
type TargetType byte

const (
	TargetClassTypeParameter                TargetType = 0x00
	TargetMethodTypeParameter               TargetType = 0x01
	TargetClassExtends                      TargetType = 0x10
	TargetClassTypeParameterBound           TargetType = 0x11
	TargetMethodTypeParameterBound          TargetType = 0x12
	TargetField                             TargetType = 0x13
	TargetMethodReturn                      TargetType = 0x14
	TargetMethodReceiver                    TargetType = 0x15
	TargetMethodFormalParameter             TargetType = 0x16
	TargetThrows                            TargetType = 0x17
	TargetLocalVariable                     TargetType = 0x40
	TargetResourceVariable                  TargetType = 0x41
	TargetExceptionParameter                TargetType = 0x42
	TargetInstanceof                        TargetType = 0x43
	TargetNew                               TargetType = 0x44
	TargetConstructorReference              TargetType = 0x45
	TargetMethodReference                   TargetType = 0x46
	TargetCast                              TargetType = 0x47
	TargetConstructorInvocationTypeArgument TargetType = 0x48
	TargetMethodInvocationTypeArgument      TargetType = 0x49
	TargetConstructorReferenceTypeArgument  TargetType = 0x4A
	TargetMethodReferenceTypeArgument       TargetType = 0x4B
)

// TargetShape names the target_info union member a target type uses.
type TargetShape byte

const (
	ShapeTypeParameter TargetShape = iota + 1
	ShapeSupertype
	ShapeTypeParameterBound
	ShapeEmpty
	ShapeFormalParameter
	ShapeThrows
	ShapeLocalVar
	ShapeCatch
	ShapeOffset
	ShapeTypeArgument
)

var shapeNames = map[TargetShape]string{
	ShapeTypeParameter:      "TypeParameterTarget",
	ShapeSupertype:          "SupertypeTarget",
	ShapeTypeParameterBound: "TypeParameterBoundTarget",
	ShapeEmpty:              "EmptyTarget",
	ShapeFormalParameter:    "FormalParameterTarget",
	ShapeThrows:             "ThrowsTarget",
	ShapeLocalVar:           "LocalVarTarget",
	ShapeCatch:              "CatchTarget",
	ShapeOffset:             "OffsetTarget",
	ShapeTypeArgument:       "TypeArgumentTarget",
}

func (s TargetShape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("TargetShape(%d)", byte(s))
}

// shapeSizes holds the encoded size of each shape including the tag byte,
// or -1 when the size depends on the payload.
var shapeSizes = map[TargetShape]int{
	ShapeTypeParameter:      2,
	ShapeSupertype:          3,
	ShapeTypeParameterBound: 3,
	ShapeEmpty:              1,
	ShapeFormalParameter:    2,
	ShapeThrows:             3,
	ShapeLocalVar:           -1,
	ShapeCatch:              3,
	ShapeOffset:             3,
	ShapeTypeArgument:       4,
}

type targetTypeInfo struct {
	name  string
	shape TargetShape
}

var targetTypes = map[TargetType]targetTypeInfo{
	TargetClassTypeParameter:                {"CLASS_TYPE_PARAMETER", ShapeTypeParameter},
	TargetMethodTypeParameter:               {"METHOD_TYPE_PARAMETER", ShapeTypeParameter},
	TargetClassExtends:                      {"CLASS_EXTENDS", ShapeSupertype},
	TargetClassTypeParameterBound:           {"CLASS_TYPE_PARAMETER_BOUND", ShapeTypeParameterBound},
	TargetMethodTypeParameterBound:          {"METHOD_TYPE_PARAMETER_BOUND", ShapeTypeParameterBound},
	TargetField:                             {"FIELD", ShapeEmpty},
	TargetMethodReturn:                      {"METHOD_RETURN", ShapeEmpty},
	TargetMethodReceiver:                    {"METHOD_RECEIVER", ShapeEmpty},
	TargetMethodFormalParameter:             {"METHOD_FORMAL_PARAMETER", ShapeFormalParameter},
	TargetThrows:                            {"THROWS", ShapeThrows},
	TargetLocalVariable:                     {"LOCAL_VARIABLE", ShapeLocalVar},
	TargetResourceVariable:                  {"RESOURCE_VARIABLE", ShapeLocalVar},
	TargetExceptionParameter:                {"EXCEPTION_PARAMETER", ShapeCatch},
	TargetInstanceof:                        {"INSTANCEOF", ShapeOffset},
	TargetNew:                               {"NEW", ShapeOffset},
	TargetConstructorReference:              {"CONSTRUCTOR_REFERENCE", ShapeOffset},
	TargetMethodReference:                   {"METHOD_REFERENCE", ShapeOffset},
	TargetCast:                              {"CAST", ShapeTypeArgument},
	TargetConstructorInvocationTypeArgument: {"CONSTRUCTOR_INVOCATION_TYPE_ARGUMENT", ShapeTypeArgument},
	TargetMethodInvocationTypeArgument:      {"METHOD_INVOCATION_TYPE_ARGUMENT", ShapeTypeArgument},
	TargetConstructorReferenceTypeArgument:  {"CONSTRUCTOR_REFERENCE_TYPE_ARGUMENT", ShapeTypeArgument},
	TargetMethodReferenceTypeArgument:       {"METHOD_REFERENCE_TYPE_ARGUMENT", ShapeTypeArgument},
}

// AllTargetTypes returns every defined target type in tag order.
func AllTargetTypes() []TargetType {
	return []TargetType{
		TargetClassTypeParameter, TargetMethodTypeParameter,
		TargetClassExtends, TargetClassTypeParameterBound, TargetMethodTypeParameterBound,
		TargetField, TargetMethodReturn, TargetMethodReceiver,
		TargetMethodFormalParameter, TargetThrows,
		TargetLocalVariable, TargetResourceVariable, TargetExceptionParameter,
		TargetInstanceof, TargetNew, TargetConstructorReference, TargetMethodReference,
		TargetCast, TargetConstructorInvocationTypeArgument, TargetMethodInvocationTypeArgument,
		TargetConstructorReferenceTypeArgument, TargetMethodReferenceTypeArgument,
	}
}

// Tag returns the JVMS target_type value.
func (t TargetType) Tag() byte {
	return byte(t)
}

// Valid reports whether t is a defined target type.
func (t TargetType) Valid() bool {
	_, ok := targetTypes[t]
	return ok
}

// Shape returns the target_info shape t is encoded with.
func (t TargetType) Shape() TargetShape {
	return targetTypes[t].shape
}

// SizeIfFixed returns the encoded size of the target_type byte plus its
// target_info, or -1 for the variable-length local variable table.
func (t TargetType) SizeIfFixed() int {
	info, ok := targetTypes[t]
	if !ok {
		return -1
	}
	return shapeSizes[info.shape]
}

func (t TargetType) String() string {
	if info, ok := targetTypes[t]; ok {
		return info.name
	}
	return fmt.Sprintf("TargetType(0x%02x)", byte(t))
}

// TargetInfo identifies the annotated type usage. The set of implementations
// is closed; values can only be made through the constructors in this file.
type TargetInfo interface {
	TargetType() TargetType
	// Size returns the encoded size including the target_type byte.
	Size() int
	isTargetInfo()
}

// TypeParameterTarget selects a type parameter declaration of a class or method.
type TypeParameterTarget struct {
	tt    TargetType
	index uint8
}

// SupertypeTarget selects the superclass (index 65535) or one of the interfaces.
type SupertypeTarget struct {
	index uint16
}

// TypeParameterBoundTarget selects a bound of a type parameter.
type TypeParameterBoundTarget struct {
	tt        TargetType
	typeParam uint8
	bound     uint8
}

// EmptyTarget selects the type of a field, method return or receiver.
type EmptyTarget struct {
	tt TargetType
}

// FormalParameterTarget selects the type of a formal parameter.
type FormalParameterTarget struct {
	index uint8
}

// ThrowsTarget selects an entry of the throws clause.
type ThrowsTarget struct {
	index uint16
}

// LocalVarTarget selects a local variable by its live ranges.
type LocalVarTarget struct {
	tt    TargetType
	table []LocalVarTargetInfo
}

// LocalVarTargetInfo is one live range of a local variable: the variable lives
// in Slot from Start (inclusive) to End (exclusive).
type LocalVarTargetInfo struct {
	Start Label
	End   Label
	Slot  int
}

// CatchTarget selects the type in an exception handler.
type CatchTarget struct {
	index uint16
}

// OffsetTarget selects the type of an instanceof, new or member reference
// expression at a code position.
type OffsetTarget struct {
	tt     TargetType
	target Label
}

// TypeArgumentTarget selects a type argument of a cast or generic invocation.
type TypeArgumentTarget struct {
	tt     TargetType
	target Label
	index  uint8
}

func (TypeParameterTarget) isTargetInfo()      {}
func (SupertypeTarget) isTargetInfo()          {}
func (TypeParameterBoundTarget) isTargetInfo() {}
func (EmptyTarget) isTargetInfo()              {}
func (FormalParameterTarget) isTargetInfo()    {}
func (ThrowsTarget) isTargetInfo()             {}
func (LocalVarTarget) isTargetInfo()           {}
func (CatchTarget) isTargetInfo()              {}
func (OffsetTarget) isTargetInfo()             {}
func (TypeArgumentTarget) isTargetInfo()       {}

func (t TypeParameterTarget) TargetType() TargetType      { return t.tt }
func (SupertypeTarget) TargetType() TargetType            { return TargetClassExtends }
func (t TypeParameterBoundTarget) TargetType() TargetType { return t.tt }
func (t EmptyTarget) TargetType() TargetType              { return t.tt }
func (FormalParameterTarget) TargetType() TargetType      { return TargetMethodFormalParameter }
func (ThrowsTarget) TargetType() TargetType               { return TargetThrows }
func (t LocalVarTarget) TargetType() TargetType           { return t.tt }
func (CatchTarget) TargetType() TargetType                { return TargetExceptionParameter }
func (t OffsetTarget) TargetType() TargetType             { return t.tt }
func (t TypeArgumentTarget) TargetType() TargetType       { return t.tt }

func (TypeParameterTarget) Size() int      { return 2 }
func (SupertypeTarget) Size() int          { return 3 }
func (TypeParameterBoundTarget) Size() int { return 3 }
func (EmptyTarget) Size() int              { return 1 }
func (FormalParameterTarget) Size() int    { return 2 }
func (ThrowsTarget) Size() int             { return 3 }
func (t LocalVarTarget) Size() int         { return 3 + 6*len(t.table) }
func (CatchTarget) Size() int              { return 3 }
func (OffsetTarget) Size() int             { return 3 }
func (TypeArgumentTarget) Size() int       { return 4 }

// TypeParameterIndex returns the index of the type parameter declaration.
func (t TypeParameterTarget) TypeParameterIndex() int { return int(t.index) }

// SupertypeIndex returns the interface index, or SuperclassIndex.
func (t SupertypeTarget) SupertypeIndex() int { return int(t.index) }

// IsSuperclass reports whether the target is the extends clause.
func (t SupertypeTarget) IsSuperclass() bool { return t.index == SuperclassIndex }

// TypeParameterIndex returns the index of the bounded type parameter.
func (t TypeParameterBoundTarget) TypeParameterIndex() int { return int(t.typeParam) }

// BoundIndex returns the index of the bound.
func (t TypeParameterBoundTarget) BoundIndex() int { return int(t.bound) }

// FormalParameterIndex returns the parameter index.
func (t FormalParameterTarget) FormalParameterIndex() int { return int(t.index) }

// ThrowsTargetIndex returns the index into the Exceptions attribute.
func (t ThrowsTarget) ThrowsTargetIndex() int { return int(t.index) }

// Table returns a copy of the live ranges.
func (t LocalVarTarget) Table() []LocalVarTargetInfo {
	return append([]LocalVarTargetInfo(nil), t.table...)
}

// ExceptionTableIndex returns the index into the exception table.
func (t CatchTarget) ExceptionTableIndex() int { return int(t.index) }

// Target returns the code position of the expression.
func (t OffsetTarget) Target() Label { return t.target }

// Target returns the code position of the expression.
func (t TypeArgumentTarget) Target() Label { return t.target }

// TypeArgumentIndex returns the index of the type argument.
func (t TypeArgumentTarget) TypeArgumentIndex() int { return int(t.index) }

// SuperclassIndex is the supertype index denoting the extends clause.
const SuperclassIndex = 0xFFFF

func checkU1(what string, v int) uint8 {
	if v < 0 || v > 0xFF {
		panic(cferrors.Overflow(cferrors.PhaseBuild, []string{what}, v, "u1"))
	}
	return uint8(v)
}

func checkU2(what string, v int) uint16 {
	if v < 0 || v > 0xFFFF {
		panic(cferrors.Overflow(cferrors.PhaseBuild, []string{what}, v, "u2"))
	}
	return uint16(v)
}

func checkShape(tt TargetType, shape TargetShape) error {
	if !tt.Valid() || tt.Shape() != shape {
		return cferrors.ShapeMismatch(shape.String(), tt.String())
	}
	return nil
}

// Shape constructors. Each accepts only the target types its shape serves and
// reports any other as a shape mismatch.

// NewTypeParameterTarget creates a type parameter target.
func NewTypeParameterTarget(tt TargetType, typeParameterIndex int) (TypeParameterTarget, error) {
	if err := checkShape(tt, ShapeTypeParameter); err != nil {
		return TypeParameterTarget{}, err
	}
	return TypeParameterTarget{tt: tt, index: checkU1("type_parameter_index", typeParameterIndex)}, nil
}

// NewSupertypeTarget creates a supertype target.
func NewSupertypeTarget(tt TargetType, supertypeIndex int) (SupertypeTarget, error) {
	if err := checkShape(tt, ShapeSupertype); err != nil {
		return SupertypeTarget{}, err
	}
	return SupertypeTarget{index: checkU2("supertype_index", supertypeIndex)}, nil
}

// NewTypeParameterBoundTarget creates a type parameter bound target.
func NewTypeParameterBoundTarget(tt TargetType, typeParameterIndex, boundIndex int) (TypeParameterBoundTarget, error) {
	if err := checkShape(tt, ShapeTypeParameterBound); err != nil {
		return TypeParameterBoundTarget{}, err
	}
	return TypeParameterBoundTarget{
		tt:        tt,
		typeParam: checkU1("type_parameter_index", typeParameterIndex),
		bound:     checkU1("bound_index", boundIndex),
	}, nil
}

// NewEmptyTarget creates an empty target.
func NewEmptyTarget(tt TargetType) (EmptyTarget, error) {
	if err := checkShape(tt, ShapeEmpty); err != nil {
		return EmptyTarget{}, err
	}
	return EmptyTarget{tt: tt}, nil
}

// NewFormalParameterTarget creates a formal parameter target.
func NewFormalParameterTarget(tt TargetType, formalParameterIndex int) (FormalParameterTarget, error) {
	if err := checkShape(tt, ShapeFormalParameter); err != nil {
		return FormalParameterTarget{}, err
	}
	return FormalParameterTarget{index: checkU1("formal_parameter_index", formalParameterIndex)}, nil
}

// NewThrowsTarget creates a throws target.
func NewThrowsTarget(tt TargetType, throwsTypeIndex int) (ThrowsTarget, error) {
	if err := checkShape(tt, ShapeThrows); err != nil {
		return ThrowsTarget{}, err
	}
	return ThrowsTarget{index: checkU2("throws_type_index", throwsTypeIndex)}, nil
}

// NewLocalVarTarget creates a local variable target.
func NewLocalVarTarget(tt TargetType, table []LocalVarTargetInfo) (LocalVarTarget, error) {
	if err := checkShape(tt, ShapeLocalVar); err != nil {
		return LocalVarTarget{}, err
	}
	return LocalVarTarget{tt: tt, table: append([]LocalVarTargetInfo(nil), table...)}, nil
}

// NewCatchTarget creates an exception parameter target.
func NewCatchTarget(tt TargetType, exceptionTableIndex int) (CatchTarget, error) {
	if err := checkShape(tt, ShapeCatch); err != nil {
		return CatchTarget{}, err
	}
	return CatchTarget{index: checkU2("exception_table_index", exceptionTableIndex)}, nil
}

// NewOffsetTarget creates an offset target.
func NewOffsetTarget(tt TargetType, target Label) (OffsetTarget, error) {
	if err := checkShape(tt, ShapeOffset); err != nil {
		return OffsetTarget{}, err
	}
	return OffsetTarget{tt: tt, target: target}, nil
}

// NewTypeArgumentTarget creates a type argument target.
func NewTypeArgumentTarget(tt TargetType, target Label, typeArgumentIndex int) (TypeArgumentTarget, error) {
	if err := checkShape(tt, ShapeTypeArgument); err != nil {
		return TypeArgumentTarget{}, err
	}
	return TypeArgumentTarget{tt: tt, target: target, index: checkU1("type_argument_index", typeArgumentIndex)}, nil
}

// Per-tag constructors. These cannot mismatch; they panic with an
// *errors.Error when an index does not fit its field.

// OfClassTypeParameter targets a type parameter of a generic class.
func OfClassTypeParameter(typeParameterIndex int) TypeParameterTarget {
	return TypeParameterTarget{tt: TargetClassTypeParameter, index: checkU1("type_parameter_index", typeParameterIndex)}
}

// OfMethodTypeParameter targets a type parameter of a generic method.
func OfMethodTypeParameter(typeParameterIndex int) TypeParameterTarget {
	return TypeParameterTarget{tt: TargetMethodTypeParameter, index: checkU1("type_parameter_index", typeParameterIndex)}
}

// OfClassExtends targets the superclass (SuperclassIndex) or an interface.
func OfClassExtends(supertypeIndex int) SupertypeTarget {
	return SupertypeTarget{index: checkU2("supertype_index", supertypeIndex)}
}

// OfSuperclass targets the extends clause.
func OfSuperclass() SupertypeTarget {
	return SupertypeTarget{index: SuperclassIndex}
}

// OfClassTypeParameterBound targets a bound of a class type parameter.
func OfClassTypeParameterBound(typeParameterIndex, boundIndex int) TypeParameterBoundTarget {
	return TypeParameterBoundTarget{
		tt:        TargetClassTypeParameterBound,
		typeParam: checkU1("type_parameter_index", typeParameterIndex),
		bound:     checkU1("bound_index", boundIndex),
	}
}

// OfMethodTypeParameterBound targets a bound of a method type parameter.
func OfMethodTypeParameterBound(typeParameterIndex, boundIndex int) TypeParameterBoundTarget {
	return TypeParameterBoundTarget{
		tt:        TargetMethodTypeParameterBound,
		typeParam: checkU1("type_parameter_index", typeParameterIndex),
		bound:     checkU1("bound_index", boundIndex),
	}
}

// OfField targets the type of a field declaration.
func OfField() EmptyTarget { return EmptyTarget{tt: TargetField} }

// OfMethodReturn targets the return type of a method.
func OfMethodReturn() EmptyTarget { return EmptyTarget{tt: TargetMethodReturn} }

// OfMethodReceiver targets the receiver type of a method.
func OfMethodReceiver() EmptyTarget { return EmptyTarget{tt: TargetMethodReceiver} }

// OfMethodFormalParameter targets a formal parameter type.
func OfMethodFormalParameter(formalParameterIndex int) FormalParameterTarget {
	return FormalParameterTarget{index: checkU1("formal_parameter_index", formalParameterIndex)}
}

// OfThrows targets an entry of the throws clause.
func OfThrows(throwsTypeIndex int) ThrowsTarget {
	return ThrowsTarget{index: checkU2("throws_type_index", throwsTypeIndex)}
}

// OfLocalVariable targets a local variable declaration.
func OfLocalVariable(table ...LocalVarTargetInfo) LocalVarTarget {
	return LocalVarTarget{tt: TargetLocalVariable, table: append([]LocalVarTargetInfo(nil), table...)}
}

// OfResourceVariable targets a try-with-resources variable.
func OfResourceVariable(table ...LocalVarTargetInfo) LocalVarTarget {
	return LocalVarTarget{tt: TargetResourceVariable, table: append([]LocalVarTargetInfo(nil), table...)}
}

// OfExceptionParameter targets the type of an exception handler parameter.
func OfExceptionParameter(exceptionTableIndex int) CatchTarget {
	return CatchTarget{index: checkU2("exception_table_index", exceptionTableIndex)}
}

// OfInstanceofExpr targets an instanceof expression.
func OfInstanceofExpr(target Label) OffsetTarget {
	return OffsetTarget{tt: TargetInstanceof, target: target}
}

// OfNewExpr targets a new expression.
func OfNewExpr(target Label) OffsetTarget {
	return OffsetTarget{tt: TargetNew, target: target}
}

// OfConstructorReference targets a constructor reference (::new).
func OfConstructorReference(target Label) OffsetTarget {
	return OffsetTarget{tt: TargetConstructorReference, target: target}
}

// OfMethodReference targets a method reference (::name).
func OfMethodReference(target Label) OffsetTarget {
	return OffsetTarget{tt: TargetMethodReference, target: target}
}

// OfCastExpr targets a type in a cast expression.
func OfCastExpr(target Label, typeArgumentIndex int) TypeArgumentTarget {
	return TypeArgumentTarget{tt: TargetCast, target: target, index: checkU1("type_argument_index", typeArgumentIndex)}
}

// OfConstructorInvocationTypeArgument targets an explicit type argument of a constructor call.
func OfConstructorInvocationTypeArgument(target Label, typeArgumentIndex int) TypeArgumentTarget {
	return TypeArgumentTarget{tt: TargetConstructorInvocationTypeArgument, target: target, index: checkU1("type_argument_index", typeArgumentIndex)}
}

// OfMethodInvocationTypeArgument targets an explicit type argument of a method call.
func OfMethodInvocationTypeArgument(target Label, typeArgumentIndex int) TypeArgumentTarget {
	return TypeArgumentTarget{tt: TargetMethodInvocationTypeArgument, target: target, index: checkU1("type_argument_index", typeArgumentIndex)}
}

// OfConstructorReferenceTypeArgument targets a type argument of a constructor reference.
func OfConstructorReferenceTypeArgument(target Label, typeArgumentIndex int) TypeArgumentTarget {
	return TypeArgumentTarget{tt: TargetConstructorReferenceTypeArgument, target: target, index: checkU1("type_argument_index", typeArgumentIndex)}
}

// OfMethodReferenceTypeArgument targets a type argument of a method reference.
func OfMethodReferenceTypeArgument(target Label, typeArgumentIndex int) TypeArgumentTarget {
	return TypeArgumentTarget{tt: TargetMethodReferenceTypeArgument, target: target, index: checkU1("type_argument_index", typeArgumentIndex)}
}

// EncodeTargetInfo returns the target_type byte followed by the target_info.
func EncodeTargetInfo(ti TargetInfo, labels LabelResolver) ([]byte, error) {
	w := binary.NewWriter()
	if err := writeTargetInfo(w, ti, labels); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeTargetInfo parses a target_type byte and its target_info, minting
// labels for code offsets through labels. It returns the bytes consumed.
func DecodeTargetInfo(data []byte, labels *LabelTable) (TargetInfo, int, error) {
	r := binary.FromBytes(data)
	ti, err := readTargetInfo(r, labels)
	if err != nil {
		return nil, 0, err
	}
	return ti, r.Position(), nil
}

func resolveOffset(labels LabelResolver, l Label, what string) (uint16, error) {
	if labels == nil || l.IsZero() {
		return 0, cferrors.UnresolvedLabel(nil, what)
	}
	off, ok := labels.LabelOffset(l)
	if !ok {
		return 0, cferrors.UnresolvedLabel(nil, what)
	}
	if off < 0 || off > 0xFFFF {
		return 0, cferrors.Overflow(cferrors.PhaseEncode, []string{what}, off, "u2 offset")
	}
	return uint16(off), nil
}

func writeTargetInfo(w *binary.Writer, ti TargetInfo, labels LabelResolver) error {
	if ti == nil {
		return cferrors.InvalidInput(cferrors.PhaseEncode, "nil target info")
	}
	w.Byte(ti.TargetType().Tag())
	switch t := ti.(type) {
	case TypeParameterTarget:
		w.WriteU1(t.index)
	case SupertypeTarget:
		w.WriteU2(t.index)
	case TypeParameterBoundTarget:
		w.WriteU1(t.typeParam)
		w.WriteU1(t.bound)
	case EmptyTarget:
	case FormalParameterTarget:
		w.WriteU1(t.index)
	case ThrowsTarget:
		w.WriteU2(t.index)
	case LocalVarTarget:
		return writeLocalVarTable(w, t, labels)
	case CatchTarget:
		w.WriteU2(t.index)
	case OffsetTarget:
		off, err := resolveOffset(labels, t.target, t.tt.String())
		if err != nil {
			return err
		}
		w.WriteU2(off)
	case TypeArgumentTarget:
		off, err := resolveOffset(labels, t.target, t.tt.String())
		if err != nil {
			return err
		}
		w.WriteU2(off)
		w.WriteU1(t.index)
	}
	return nil
}

func writeLocalVarTable(w *binary.Writer, t LocalVarTarget, labels LabelResolver) error {
	if len(t.table) > 0xFFFF {
		return cferrors.Overflow(cferrors.PhaseEncode, []string{t.tt.String()}, len(t.table), "table_length")
	}
	w.WriteU2(uint16(len(t.table)))
	for i, e := range t.table {
		start, err := resolveOffset(labels, e.Start, t.tt.String())
		if err != nil {
			return err
		}
		end, err := resolveOffset(labels, e.End, t.tt.String())
		if err != nil {
			return err
		}
		if start >= end {
			return cferrors.New(cferrors.PhaseEncode, cferrors.KindInvalidData).
				Path(t.tt.String(), fmt.Sprintf("table[%d]", i)).
				Element("LocalVarTargetInfo").
				Detail("start offset %d does not precede end offset %d", start, end).
				Build()
		}
		if e.Slot < 0 || e.Slot > 0xFFFF {
			return cferrors.Overflow(cferrors.PhaseEncode, []string{t.tt.String(), "index"}, e.Slot, "u2")
		}
		w.WriteU2(start)
		w.WriteU2(end - start)
		w.WriteU2(uint16(e.Slot))
	}
	return nil
}

func readTargetInfo(r *binary.Reader, labels *LabelTable) (TargetInfo, error) {
	tag, err := r.ReadU1()
	if err != nil {
		return nil, err
	}
	tt := TargetType(tag)
	if !tt.Valid() {
		return nil, cferrors.New(cferrors.PhaseDecode, cferrors.KindInvalidData).
			Value(tag).
			Detail("unknown target_type 0x%02x", tag).
			Build()
	}
	switch tt.Shape() {
	case ShapeTypeParameter:
		v, err := r.ReadU1()
		return TypeParameterTarget{tt: tt, index: v}, err
	case ShapeSupertype:
		v, err := r.ReadU2()
		return SupertypeTarget{index: v}, err
	case ShapeTypeParameterBound:
		p, err := r.ReadU1()
		if err != nil {
			return nil, err
		}
		b, err := r.ReadU1()
		return TypeParameterBoundTarget{tt: tt, typeParam: p, bound: b}, err
	case ShapeEmpty:
		return EmptyTarget{tt: tt}, nil
	case ShapeFormalParameter:
		v, err := r.ReadU1()
		return FormalParameterTarget{index: v}, err
	case ShapeThrows:
		v, err := r.ReadU2()
		return ThrowsTarget{index: v}, err
	case ShapeLocalVar:
		return readLocalVarTable(r, tt, labels)
	case ShapeCatch:
		v, err := r.ReadU2()
		return CatchTarget{index: v}, err
	case ShapeOffset:
		off, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		return OffsetTarget{tt: tt, target: labelAt(labels, int(off))}, nil
	case ShapeTypeArgument:
		off, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		idx, err := r.ReadU1()
		return TypeArgumentTarget{tt: tt, target: labelAt(labels, int(off)), index: idx}, err
	}
	return nil, cferrors.Unsupported(cferrors.PhaseDecode, tt.String())
}

func readLocalVarTable(r *binary.Reader, tt TargetType, labels *LabelTable) (LocalVarTarget, error) {
	n, err := r.ReadU2()
	if err != nil {
		return LocalVarTarget{}, err
	}
	table := make([]LocalVarTargetInfo, 0, n)
	for i := 0; i < int(n); i++ {
		start, err := r.ReadU2()
		if err != nil {
			return LocalVarTarget{}, err
		}
		length, err := r.ReadU2()
		if err != nil {
			return LocalVarTarget{}, err
		}
		slot, err := r.ReadU2()
		if err != nil {
			return LocalVarTarget{}, err
		}
		if length == 0 {
			return LocalVarTarget{}, cferrors.New(cferrors.PhaseDecode, cferrors.KindInvalidData).
				Path(tt.String(), fmt.Sprintf("table[%d]", i)).
				Element("LocalVarTargetInfo").
				Detail("empty live range at offset %d", start).
				Build()
		}
		table = append(table, LocalVarTargetInfo{
			Start: labelAt(labels, int(start)),
			End:   labelAt(labels, int(start)+int(length)),
			Slot:  int(slot),
		})
	}
	return LocalVarTarget{tt: tt, table: table}, nil
}

func labelAt(labels *LabelTable, offset int) Label {
	if labels == nil {
		return Label{}
	}
	return labels.LabelAt(offset)
}
