// Command cftool builds, transforms and inspects JVM class files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/classfile"
	"github.com/wippyai/classfile/hierarchy"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "cftool",
	Short: "Build, transform and inspect JVM class files",
	Long: `cftool works on JVM class files with the classfile element model.

  build      compile a YAML class definition to a .class file
  transform  rewrite class files with built-in transforms
  hierarchy  print the superclass chain of a class
  inspect    browse the elements of a class file
  dump       print the raw element model of a class file`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return nil
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		classfile.SetLogger(l)
		hierarchy.SetLogger(l)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(buildCmd, transformCmd, hierarchyCmd, inspectCmd, dumpCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// readClass parses the class file at path.
func readClass(cf *classfile.ClassFile, path string) (*classfile.ClassModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	m, err := cf.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	logger.Debug("parsed class", zap.String("path", path), zap.String("class", m.ThisClass))
	return m, nil
}
