package main

import (
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/classfile"
	"github.com/wippyai/classfile/classdef"
)

var buildOut string

var buildCmd = &cobra.Command{
	Use:   "build <definition.yaml>",
	Short: "Build a class file from a YAML class definition",
	Long: `Compiles a declarative class definition into a class file.

The output defaults to the simple class name with a .class suffix in the
current directory.

Example:
  cftool build Greeter.yaml -o out/Greeter.class`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "Output class file")
}

func runBuild(cmd *cobra.Command, args []string) error {
	def, err := classdef.LoadFile(args[0])
	if err != nil {
		return err
	}
	data, err := classdef.Build(classfile.New(classfile.Options{}), def)
	if err != nil {
		return err
	}
	out := buildOut
	if out == "" {
		out = path.Base(def.Name) + ".class"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	logger.Debug("built class", zap.String("class", def.Name), zap.String("out", out), zap.Int("bytes", len(data)))
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d bytes)\n", def.Name, out, len(data))
	return nil
}
