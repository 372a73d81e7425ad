package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/classfile"
)

// node is one row of the element tree. Fields, methods and code bodies have
// children and start collapsed.
type node struct {
	text     string
	children []*node
	depth    int
	open     bool
}

func newNode(e classfile.Element, depth int) *node {
	n := &node{text: describe(e), depth: depth}
	switch e := e.(type) {
	case *classfile.FieldModel:
		for fe := range e.Elements() {
			n.children = append(n.children, newNode(fe, depth+1))
		}
	case *classfile.MethodModel:
		for me := range e.Elements() {
			n.children = append(n.children, newNode(me, depth+1))
		}
	case *classfile.CodeModel:
		for ce := range e.Elements() {
			n.children = append(n.children, newNode(ce, depth+1))
		}
	}
	return n
}

func classTree(m *classfile.ClassModel) []*node {
	var roots []*node
	for e := range m.Elements() {
		roots = append(roots, newNode(e, 0))
	}
	return roots
}

// browser is the inspect model: a collapsible element tree with a filter.
type browser struct {
	filename  string
	class     string
	roots     []*node
	rows      []*node
	filter    textinput.Model
	selected  int
	height    int
	filtering bool
}

func newBrowser(filename string, m *classfile.ClassModel) *browser {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter"
	ti.Width = 40
	b := &browser{filename: filename, class: m.ThisClass, roots: classTree(m), filter: ti, height: 20}
	b.refresh()
	return b
}

// refresh recomputes the visible rows. With a filter, every row whose text
// matches is shown regardless of folding.
func (b *browser) refresh() {
	b.rows = b.rows[:0]
	query := strings.ToLower(b.filter.Value())
	var walk func(ns []*node)
	walk = func(ns []*node) {
		for _, n := range ns {
			if query == "" {
				b.rows = append(b.rows, n)
				if n.open {
					walk(n.children)
				}
				continue
			}
			if strings.Contains(strings.ToLower(n.text), query) {
				b.rows = append(b.rows, n)
			}
			walk(n.children)
		}
	}
	walk(b.roots)
	if b.selected >= len(b.rows) {
		b.selected = max(len(b.rows)-1, 0)
	}
}

func (b *browser) Init() tea.Cmd {
	return nil
}

func (b *browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.height = max(msg.Height-6, 1)
		return b, nil

	case tea.KeyMsg:
		if b.filtering {
			switch msg.String() {
			case "esc":
				b.filter.SetValue("")
				fallthrough
			case "enter":
				b.filtering = false
				b.filter.Blur()
				b.refresh()
				return b, nil
			}
			var cmd tea.Cmd
			b.filter, cmd = b.filter.Update(msg)
			b.refresh()
			return b, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return b, tea.Quit
		case "up", "k":
			if b.selected > 0 {
				b.selected--
			}
		case "down", "j":
			if b.selected < len(b.rows)-1 {
				b.selected++
			}
		case "enter", " ", "right", "l":
			if len(b.rows) > 0 {
				n := b.rows[b.selected]
				if len(n.children) > 0 {
					n.open = !n.open
					b.refresh()
				}
			}
		case "/":
			b.filtering = true
			return b, b.filter.Focus()
		}
	}
	return b, nil
}

func (b *browser) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(b.class))
	s.WriteString(" ")
	s.WriteString(b.filename)
	s.WriteString("\n\n")

	if b.filtering || b.filter.Value() != "" {
		s.WriteString(b.filter.View())
		s.WriteString("\n")
	}

	if len(b.rows) == 0 {
		s.WriteString(errorStyle.Render("no matching elements"))
		s.WriteString("\n")
	}
	start := 0
	if b.selected >= b.height {
		start = b.selected - b.height + 1
	}
	for i := start; i < len(b.rows) && i < start+b.height; i++ {
		n := b.rows[i]
		marker := "  "
		if len(n.children) > 0 {
			marker = "+ "
			if n.open {
				marker = "- "
			}
		}
		line := strings.Repeat("  ", n.depth) + marker + n.text
		if i == b.selected {
			line = selectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(fmt.Sprintf("%d/%d • ↑/↓ move • enter expand • / filter • q quit", b.selected+1, len(b.rows))))
	return s.String()
}
