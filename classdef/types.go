// Package classdef reads declarative YAML class definitions and feeds them
// through classfile builders.
//
// A definition names the class and lists its fields and methods. Attributes
// are declared generically with a kind; whether an attribute may appear on a
// class, field, method or code body is checked when it is handed to the
// builder, so a ConstantValue on a method fails with a channel mismatch.
//
//	name: com/example/Greeter
//	flags: public super
//	interfaces: [java/lang/Runnable]
//	attributes:
//	  - {kind: SourceFile, value: Greeter.java}
//	methods:
//	  - name: run
//	    desc: ()V
//	    flags: public
//	    code:
//	      - {op: getstatic, owner: java/lang/System, name: out, desc: Ljava/io/PrintStream;}
//	      - {op: ldc, constant: {string: hello}}
//	      - {op: invokevirtual, owner: java/io/PrintStream, name: println, desc: (Ljava/lang/String;)V}
//	      - return
package classdef

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Class is a class definition.
type Class struct {
	Version    *Version    `yaml:"version,omitempty"`
	Name       string      `yaml:"name"`
	Super      string      `yaml:"super,omitempty"`
	Flags      Flags       `yaml:"flags,omitempty"`
	Interfaces []string    `yaml:"interfaces,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
	Fields     []Field     `yaml:"fields,omitempty"`
	Methods    []Method    `yaml:"methods,omitempty"`
}

// Version is the class file version.
type Version struct {
	Major uint16 `yaml:"major"`
	Minor uint16 `yaml:"minor,omitempty"`
}

// Field is a field definition.
type Field struct {
	Name       string      `yaml:"name"`
	Desc       string      `yaml:"desc"`
	Flags      Flags       `yaml:"flags,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
}

// Method is a method definition. A method without code is abstract or
// native.
type Method struct {
	Name       string        `yaml:"name"`
	Desc       string        `yaml:"desc"`
	Flags      Flags         `yaml:"flags,omitempty"`
	Attributes []Attribute   `yaml:"attributes,omitempty"`
	Code       []Instruction `yaml:"code,omitempty"`
}

// Flags are access flag names. YAML accepts a list or a single
// space-separated string.
type Flags []string

func (f *Flags) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*f = strings.Fields(s)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*f = names
		return nil
	}
	return fmt.Errorf("line %d: flags must be a string or a list", node.Line)
}

// Attribute is a generically declared attribute. Kind selects which of the
// other fields apply:
//
//	SourceFile, Signature  value
//	Synthetic, Deprecated  (none)
//	ConstantValue          constant
//	Exceptions             names
//	Annotations            visible, annotations
//	Custom                 name, data (hex)
type Attribute struct {
	Constant    *Constant    `yaml:"constant,omitempty"`
	Kind        string       `yaml:"kind"`
	Value       string       `yaml:"value,omitempty"`
	Name        string       `yaml:"name,omitempty"`
	Data        string       `yaml:"data,omitempty"`
	Names       []string     `yaml:"names,omitempty"`
	Annotations []Annotation `yaml:"annotations,omitempty"`
	Visible     bool         `yaml:"visible,omitempty"`
	Line        int          `yaml:"-"`
}

func (a *Attribute) UnmarshalYAML(node *yaml.Node) error {
	type plain Attribute
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*a = Attribute(p)
	a.Line = node.Line
	return nil
}

// Constant is a loadable constant. Exactly one field is set.
type Constant struct {
	Int    *int32   `yaml:"int,omitempty"`
	Long   *int64   `yaml:"long,omitempty"`
	Float  *float32 `yaml:"float,omitempty"`
	Double *float64 `yaml:"double,omitempty"`
	String *string  `yaml:"string,omitempty"`
	Class  *string  `yaml:"class,omitempty"`
}

// Annotation is an annotation with ordered element values.
type Annotation struct {
	Desc     string            `yaml:"desc"`
	Elements []AnnotationValue `yaml:"elements,omitempty"`
}

// AnnotationValue is one element value. Name is set for the elements of an
// annotation and empty inside arrays. Exactly one value field is set.
type AnnotationValue struct {
	Int        *int32            `yaml:"int,omitempty"`
	Byte       *int8             `yaml:"byte,omitempty"`
	Short      *int16            `yaml:"short,omitempty"`
	Char       *string           `yaml:"char,omitempty"`
	Long       *int64            `yaml:"long,omitempty"`
	Float      *float32          `yaml:"float,omitempty"`
	Double     *float64          `yaml:"double,omitempty"`
	Bool       *bool             `yaml:"bool,omitempty"`
	String     *string           `yaml:"string,omitempty"`
	Enum       *EnumConstant     `yaml:"enum,omitempty"`
	Class      *string           `yaml:"class,omitempty"`
	Annotation *Annotation       `yaml:"annotation,omitempty"`
	Name       string            `yaml:"name,omitempty"`
	Array      []AnnotationValue `yaml:"array,omitempty"`
}

// EnumConstant names an enum constant by type descriptor and constant name.
type EnumConstant struct {
	Type     string `yaml:"type"`
	Constant string `yaml:"constant"`
}

// Instruction is one entry of a code body. It is either an instruction
// (Op with its operands), a label binding, a line number, an exception
// handler, a local variable or a code-level attribute. A bare string is
// shorthand for an instruction without operands.
type Instruction struct {
	Slot      *int       `yaml:"slot,omitempty"`
	Value     *int       `yaml:"value,omitempty"`
	Constant  *Constant  `yaml:"constant,omitempty"`
	Catch     *Catch     `yaml:"catch,omitempty"`
	Local     *Local     `yaml:"local,omitempty"`
	Attribute *Attribute `yaml:"attribute,omitempty"`
	Op        string     `yaml:"op,omitempty"`
	Label     string     `yaml:"label,omitempty"`
	Target    string     `yaml:"target,omitempty"`
	Owner     string     `yaml:"owner,omitempty"`
	Name      string     `yaml:"name,omitempty"`
	Desc      string     `yaml:"desc,omitempty"`
	Class     string     `yaml:"class,omitempty"`
	Type      string     `yaml:"type,omitempty"`
	Delta     int        `yaml:"delta,omitempty"`
	Line      int        `yaml:"line,omitempty"`
	Interface bool       `yaml:"interface,omitempty"`
	Pos       int        `yaml:"-"`
}

func (in *Instruction) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*in = Instruction{Op: node.Value, Pos: node.Line}
		return nil
	}
	type plain Instruction
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*in = Instruction(p)
	in.Pos = node.Line
	return nil
}

// Catch is an exception table entry over labels. An empty Type catches
// everything.
type Catch struct {
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
	Handler string `yaml:"handler"`
	Type    string `yaml:"type,omitempty"`
}

// Local is a local variable table entry over labels.
type Local struct {
	Name  string `yaml:"name"`
	Desc  string `yaml:"desc"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	Slot  int    `yaml:"slot"`
}
