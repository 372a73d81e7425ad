package main

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/wippyai/classfile"
)

var (
	dumpMember string
	dumpDepth  int
)

var dumpCmd = &cobra.Command{
	Use:   "dump <class>",
	Short: "Print the raw element model of a class file",
	Long: `Dumps the parsed elements with their Go types and values. Use --member to
dump a single field or method.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpMember, "member", "", "Dump only the field or method with this name")
	dumpCmd.Flags().IntVar(&dumpDepth, "depth", 6, "Maximum nesting depth")
}

func runDump(cmd *cobra.Command, args []string) error {
	m, err := readClass(classfile.New(classfile.Options{}), args[0])
	if err != nil {
		return err
	}
	cfg := spew.ConfigState{
		Indent:                  "  ",
		MaxDepth:                dumpDepth,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	for _, e := range memberElements(m, dumpMember) {
		cfg.Fdump(cmd.OutOrStdout(), e)
	}
	return nil
}

// memberElements returns the class elements, or those of the named member.
func memberElements(m *classfile.ClassModel, member string) []any {
	var out []any
	if member == "" {
		for e := range m.Elements() {
			out = append(out, e)
		}
		return out
	}
	for _, f := range m.Fields() {
		if f.Name == member {
			for e := range f.Elements() {
				out = append(out, e)
			}
		}
	}
	for _, mm := range m.Methods() {
		if mm.Name == member {
			for e := range mm.Elements() {
				out = append(out, e)
			}
		}
	}
	return out
}
