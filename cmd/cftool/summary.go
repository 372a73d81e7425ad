package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/classfile"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F4A261"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// palette renders styled text, or plain text when output is not a terminal.
type palette struct {
	color bool
}

func newPalette(w io.Writer) palette {
	f, ok := w.(*os.File)
	return palette{color: ok && term.IsTerminal(int(f.Fd()))}
}

func (p palette) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p palette) title(s string) string { return p.render(titleStyle, s) }
func (p palette) name(s string) string  { return p.render(nameStyle, s) }
func (p palette) desc(s string) string  { return p.render(descStyle, s) }
func (p palette) flags(s string) string { return p.render(flagStyle, s) }
func (p palette) dim(s string) string   { return p.render(helpStyle, s) }

// renderSummary describes a class: header, members and attribute names.
func renderSummary(m *classfile.ClassModel, p palette) string {
	var b strings.Builder
	v := m.Version()
	fmt.Fprintf(&b, "%s %s\n", p.title(m.ThisClass), p.dim(fmt.Sprintf("version %d.%d", v.Major, v.Minor)))
	fmt.Fprintf(&b, "  flags       %s\n", p.flags(m.Flags().String()))
	if super, ok := m.Superclass(); ok {
		fmt.Fprintf(&b, "  extends     %s\n", p.name(super))
	}
	if ifaces := m.Interfaces(); len(ifaces) > 0 {
		fmt.Fprintf(&b, "  implements  %s\n", p.name(strings.Join(ifaces, ", ")))
	}

	fields := m.Fields()
	fmt.Fprintf(&b, "  fields (%d)\n", len(fields))
	for _, f := range fields {
		fmt.Fprintf(&b, "    %s %s %s\n", p.flags(f.Flags().String()), p.name(f.Name), p.desc(f.Desc))
	}

	methods := m.Methods()
	fmt.Fprintf(&b, "  methods (%d)\n", len(methods))
	for _, mm := range methods {
		fmt.Fprintf(&b, "    %s %s%s", p.flags(mm.Flags().String()), p.name(mm.Name), p.desc(mm.Desc))
		if code, ok := mm.Code(); ok {
			fmt.Fprintf(&b, " %s", p.dim(fmt.Sprintf("[%d instructions]", len(code.Instructions()))))
		}
		b.WriteByte('\n')
	}

	var attrs []string
	for e := range m.Elements() {
		switch e.(type) {
		case classfile.ClassVersion, classfile.AccessFlags, classfile.Superclass, classfile.Interfaces,
			*classfile.FieldModel, *classfile.MethodModel:
			continue
		}
		attrs = append(attrs, describe(e))
	}
	if len(attrs) > 0 {
		fmt.Fprintf(&b, "  attributes  %s\n", strings.Join(attrs, ", "))
	}
	return b.String()
}

// describe renders one element on a line.
func describe(e classfile.Element) string {
	switch e := e.(type) {
	case *classfile.FieldModel:
		return fmt.Sprintf("field %s %s %s", e.Flags(), e.Name, e.Desc)
	case *classfile.MethodModel:
		return fmt.Sprintf("method %s %s%s", e.Flags(), e.Name, e.Desc)
	case *classfile.CodeModel:
		return fmt.Sprintf("Code (%d instructions)", len(e.Instructions()))
	case classfile.AccessFlags:
		return "flags " + e.Flags.String()
	case classfile.ClassVersion:
		return fmt.Sprintf("version %d.%d", e.Major, e.Minor)
	case classfile.Superclass:
		return "extends " + e.Name
	case classfile.Interfaces:
		return "implements " + strings.Join(e.Names, ", ")
	case classfile.SourceFile:
		return "SourceFile " + e.Name
	case classfile.Signature:
		return "Signature " + e.Value
	case classfile.ConstantValue:
		return fmt.Sprintf("ConstantValue %#v", e.Value)
	case classfile.Exceptions:
		return "Exceptions " + strings.Join(e.Names, ", ")
	case classfile.AnnotationsAttribute:
		return fmt.Sprintf("Annotations (%d)", len(e.Annotations))
	case classfile.TypeAnnotationsAttribute:
		return fmt.Sprintf("TypeAnnotations (%d)", len(e.Annotations))
	case classfile.CustomAttribute:
		return fmt.Sprintf("%s (%d bytes)", e.Name, len(e.Data))
	case classfile.LoadStoreInstruction:
		return fmt.Sprintf("%s %d", e.Op, e.Slot)
	case classfile.IncrementInstruction:
		return fmt.Sprintf("iinc %d %+d", e.Slot, e.Delta)
	case classfile.PushInstruction:
		return fmt.Sprintf("%s %d", e.Op, e.Value)
	case classfile.ConstantInstruction:
		switch v := e.Value.(type) {
		case nil:
			return e.Opcode().String()
		case string:
			return fmt.Sprintf("%s %q", e.Opcode(), v)
		case classfile.ClassConstant:
			return fmt.Sprintf("%s %s.class", e.Opcode(), v.Name)
		}
		return fmt.Sprintf("%s %v", e.Opcode(), e.Value)
	case classfile.BranchInstruction:
		return fmt.Sprintf("%s %s", e.Op, e.Target)
	case classfile.TypeInstruction:
		return fmt.Sprintf("%s %s", e.Op, e.Class)
	case classfile.LabelTarget:
		return e.Label.String() + ":"
	case classfile.LineNumber:
		return fmt.Sprintf("line %d", e.Line)
	case classfile.ExceptionCatch:
		catch := e.CatchType
		if catch == "" {
			catch = "any"
		}
		return fmt.Sprintf("catch %s [%s, %s) -> %s", catch, e.Start, e.End, e.Handler)
	case classfile.LocalVariable:
		return fmt.Sprintf("local %d %s %s [%s, %s)", e.Slot, e.Name, e.Desc, e.Start, e.End)
	case fmt.Stringer:
		return e.String()
	}
	return classfile.ElementName(e)
}
