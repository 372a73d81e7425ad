package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/classfile"
	"github.com/wippyai/classfile/classdef"
)

const toolYAML = `
name: com/example/Tool
attributes:
  - {kind: SourceFile, value: Tool.java}
  - {kind: Custom, name: com.example.Marker, data: "01"}
fields:
  - {name: size, desc: I, flags: private}
methods:
  - name: twice
    desc: (I)I
    flags: public static
    code:
      - {label: start}
      - {line: 3}
      - iload_0
      - iconst_2
      - imul
      - {label: end}
      - ireturn
      - {local: {slot: 0, name: x, desc: I, start: start, end: end}}
`

func toolClass(t *testing.T) (*classfile.ClassFile, *classfile.ClassModel, []byte) {
	t.Helper()
	def, err := classdef.Parse([]byte(toolYAML))
	require.NoError(t, err)
	cf := classfile.New(classfile.Options{})
	data, err := classdef.Build(cf, def)
	require.NoError(t, err)
	m, err := cf.Parse(data)
	require.NoError(t, err)
	return cf, m, data
}

func writeClass(t *testing.T, dir string, def *classdef.Class) string {
	t.Helper()
	data, err := classdef.Build(classfile.New(classfile.Options{}), def)
	require.NoError(t, err)
	path := filepath.Join(dir, filepath.FromSlash(def.Name)+".class")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func codeKinds(t *testing.T, m *classfile.ClassModel) []string {
	t.Helper()
	require.Len(t, m.Methods(), 1)
	code, ok := m.Methods()[0].Code()
	require.True(t, ok)
	var kinds []string
	for _, e := range code.ElementList() {
		kinds = append(kinds, classfile.ElementName(e))
	}
	return kinds
}

func classKinds(m *classfile.ClassModel) []string {
	var kinds []string
	for _, e := range m.ElementList() {
		kinds = append(kinds, describe(e))
	}
	return kinds
}

func TestTransformOptions(t *testing.T) {
	cf, m, original := toolClass(t)

	transformed := func(t *testing.T, o transformOptions) *classfile.ClassModel {
		t.Helper()
		data, err := cf.Transform(m, o.classTransform())
		require.NoError(t, err)
		out, err := cf.Parse(data)
		require.NoError(t, err)
		return out
	}

	t.Run("none is identity", func(t *testing.T) {
		data, err := cf.Transform(m, transformOptions{}.classTransform())
		require.NoError(t, err)
		assert.Equal(t, original, data)
	})

	t.Run("strip debug", func(t *testing.T) {
		out := transformed(t, transformOptions{stripDebug: true})
		assert.NotContains(t, classKinds(out), "SourceFile Tool.java")
		assert.Contains(t, classKinds(out), "com.example.Marker (1 bytes)")
		kinds := codeKinds(t, out)
		assert.NotContains(t, kinds, "LineNumber")
		assert.NotContains(t, kinds, "LocalVariable")
		assert.Contains(t, kinds, "imul")
	})

	t.Run("drop attribute", func(t *testing.T) {
		out := transformed(t, transformOptions{dropAttrs: []string{"com.example.Marker"}})
		assert.NotContains(t, classKinds(out), "com.example.Marker (1 bytes)")
		assert.Contains(t, classKinds(out), "SourceFile Tool.java")
		assert.Contains(t, codeKinds(t, out), "LineNumber")
	})

	t.Run("rename method", func(t *testing.T) {
		out := transformed(t, transformOptions{renames: map[string]string{"twice": "double"}})
		require.Len(t, out.Methods(), 1)
		assert.Equal(t, "double", out.Methods()[0].Name)
		assert.Equal(t, "(I)I", out.Methods()[0].Desc)
		assert.Equal(t, classfile.AccPublic|classfile.AccStatic, out.Methods()[0].Flags())
		assert.Contains(t, codeKinds(t, out), "imul")
	})

	t.Run("deprecate", func(t *testing.T) {
		out := transformed(t, transformOptions{deprecate: true})
		kinds := classKinds(out)
		assert.Equal(t, "Deprecated", kinds[len(kinds)-1])
	})
}

func TestRenderSummaryPlain(t *testing.T) {
	_, m, _ := toolClass(t)
	s := renderSummary(m, palette{})
	for _, want := range []string{
		"com/example/Tool version 52.0",
		"extends     java/lang/Object",
		"private size I",
		"public static twice(I)I [4 instructions]",
		"SourceFile Tool.java",
	} {
		assert.Contains(t, s, want)
	}
	assert.NotContains(t, s, "\x1b[", "plain summary has escape codes")
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowser(t *testing.T) {
	_, m, _ := toolClass(t)
	b := newBrowser("Tool.class", m)
	require.Len(t, b.rows, len(m.ElementList()))

	method := slices.IndexFunc(b.rows, func(n *node) bool { return strings.HasPrefix(n.text, "method ") })
	require.GreaterOrEqual(t, method, 0)
	for range method {
		b.Update(key("j"))
	}
	require.Equal(t, method, b.selected)

	collapsed := len(b.rows)
	b.Update(key("enter"))
	assert.Greater(t, len(b.rows), collapsed)
	b.Update(key("enter"))
	assert.Len(t, b.rows, collapsed)

	b.Update(key("/"))
	require.True(t, b.filtering)
	b.Update(key("imul"))
	require.Len(t, b.rows, 1)
	assert.Equal(t, "imul", b.rows[0].text)
	assert.Equal(t, 0, b.selected)

	b.Update(key("esc"))
	assert.False(t, b.filtering)
	assert.Len(t, b.rows, collapsed)
	assert.Contains(t, b.View(), "com/example/Tool")

	_, cmd := b.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestHierarchyCommand(t *testing.T) {
	dir := t.TempDir()
	writeClass(t, dir, &classdef.Class{Name: "com/example/Shape", Flags: classdef.Flags{"public", "abstract"}})
	writeClass(t, dir, &classdef.Class{Name: "com/example/Circle", Super: "com/example/Shape"})
	writeClass(t, dir, &classdef.Class{Name: "com/example/Square", Super: "com/example/Shape"})

	t.Cleanup(func() { classpath, commonWith = nil, "" })
	classpath = []string{dir}
	commonWith = "com.example.Square"

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, runHierarchy(cmd, []string{"com.example.Circle"}))
	assert.Equal(t,
		"com/example/Circle -> com/example/Shape -> java/lang/Object (class)\n"+
			"common superclass with com/example/Square: com/example/Shape\n",
		out.String())

	err := runHierarchy(cmd, []string{"com/example/Missing"})
	assert.Error(t, err)
}

func TestBuildAndTransformCommands(t *testing.T) {
	dir := t.TempDir()
	defPath := filepath.Join(dir, "Tool.yaml")
	require.NoError(t, os.WriteFile(defPath, []byte(toolYAML), 0o644))

	t.Cleanup(func() {
		buildOut, outDir, jobs = "", "out", 0
		xform = transformOptions{}
	})

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	buildOut = filepath.Join(dir, "Tool.class")
	require.NoError(t, runBuild(cmd, []string{defPath}))
	assert.Contains(t, out.String(), "com/example/Tool -> ")

	other := writeClass(t, dir, &classdef.Class{Name: "com/example/Other"})

	outDir = filepath.Join(dir, "out")
	jobs = 2
	xform = transformOptions{deprecate: true}
	require.NoError(t, runTransform(cmd, []string{buildOut, other}))

	cf := classfile.New(classfile.Options{})
	for _, name := range []string{"Tool.class", "Other.class"} {
		m, err := readClass(cf, filepath.Join(outDir, name))
		require.NoError(t, err)
		kinds := classKinds(m)
		assert.Equal(t, "Deprecated", kinds[len(kinds)-1], name)
	}
}
