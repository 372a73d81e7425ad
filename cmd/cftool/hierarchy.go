package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/classfile/hierarchy"
)

var (
	classpath  []string
	commonWith string
)

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <class>",
	Short: "Print the superclass chain of a class",
	Long: `Resolves a class against class path directories, falling back to the core
JDK types, and prints its superclass chain.

Example:
  cftool hierarchy com.example.Circle --classpath build/classes --common com.example.Square`,
	Args: cobra.ExactArgs(1),
	RunE: runHierarchy,
}

func init() {
	hierarchyCmd.Flags().StringSliceVar(&classpath, "classpath", nil, "Class path directories (repeatable)")
	hierarchyCmd.Flags().StringVar(&commonWith, "common", "", "Also print the common superclass with this class")
}

// newResolver resolves from the class path directories in order, then the
// JDK defaults. Answers are cached for the life of the command.
func newResolver(dirs []string) hierarchy.Resolver {
	rs := make([]hierarchy.Resolver, 0, len(dirs)+1)
	for _, dir := range dirs {
		rs = append(rs, hierarchy.OfFS(os.DirFS(dir)))
	}
	rs = append(rs, hierarchy.Default())
	return hierarchy.Cached(hierarchy.Chain(rs...), &hierarchy.SyncMapCache{})
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	h := hierarchy.New(newResolver(classpath))
	p := newPalette(cmd.OutOrStdout())
	w := cmd.OutOrStdout()

	chain, err := h.Superclasses(args[0])
	if err != nil {
		return err
	}
	info, err := h.Info(chain[0])
	if err != nil {
		return err
	}
	parts := make([]string, len(chain))
	for i, name := range chain {
		parts[i] = p.name(name)
	}
	fmt.Fprintf(w, "%s %s\n", strings.Join(parts, p.dim(" -> ")), p.dim("("+info.Kind().String()+")"))

	if commonWith != "" {
		common, err := h.CommonSuperclass(args[0], commonWith)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "common superclass with %s: %s\n", hierarchy.InternalName(commonWith), p.name(common))
	}
	return nil
}
