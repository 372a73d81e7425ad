package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wippyai/classfile"
)

var plain bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <class>",
	Short: "Browse the elements of a class file",
	Long: `Opens an interactive element browser. When output is not a terminal, or
with --plain, prints a summary instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&plain, "plain", false, "Print a summary instead of the browser")
}

func runInspect(cmd *cobra.Command, args []string) error {
	m, err := readClass(classfile.New(classfile.Options{}), args[0])
	if err != nil {
		return err
	}
	p := newPalette(cmd.OutOrStdout())
	if plain || !p.color {
		fmt.Fprint(cmd.OutOrStdout(), renderSummary(m, p))
		return nil
	}
	_, err = tea.NewProgram(newBrowser(args[0], m), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}
