package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/classfile"
)

// transformOptions selects the built-in transforms, applied in field order.
type transformOptions struct {
	renames    map[string]string
	dropAttrs  []string
	stripDebug bool
	deprecate  bool
}

var (
	xform     transformOptions
	outDir    string
	jobs      int
	freshPool bool
)

var transformCmd = &cobra.Command{
	Use:   "transform <class>...",
	Short: "Rewrite class files with built-in transforms",
	Long: `Parses each class file, runs it through the selected transforms and writes
the result under the output directory. Classes are processed concurrently.

Example:
  cftool transform --strip-debug --drop-attribute com.example.Marker -o out build/*.class`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTransform,
}

func init() {
	f := transformCmd.Flags()
	f.BoolVar(&xform.stripDebug, "strip-debug", false, "Drop SourceFile, LineNumberTable and LocalVariableTable")
	f.StringSliceVar(&xform.dropAttrs, "drop-attribute", nil, "Drop custom attributes with this name (repeatable)")
	f.StringToStringVar(&xform.renames, "rename-method", nil, "Rename methods, old=new")
	f.BoolVar(&xform.deprecate, "deprecate", false, "Mark classes deprecated")
	f.StringVarP(&outDir, "out", "o", "out", "Output directory")
	f.IntVarP(&jobs, "jobs", "j", 0, "Classes transformed in parallel (0 = unlimited)")
	f.BoolVar(&freshPool, "fresh-pool", false, "Write into a fresh constant pool")
}

func runTransform(cmd *cobra.Command, args []string) error {
	cf := classfile.New(classfile.Options{FreshPool: freshPool})
	models := make([]*classfile.ClassModel, len(args))
	for i, path := range args {
		m, err := readClass(cf, path)
		if err != nil {
			return err
		}
		models[i] = m
	}

	out, err := cf.TransformAll(cmd.Context(), models, xform.classTransform, jobs)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}
	for i, data := range out {
		dst := filepath.Join(outDir, filepath.Base(args[i]))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
		logger.Debug("transformed class", zap.String("class", models[i].ThisClass), zap.String("out", dst))
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", models[i].ThisClass, dst)
	}
	return nil
}

// classTransform assembles a fresh transform for one class.
func (o transformOptions) classTransform() classfile.ClassTransform {
	var ts []classfile.ClassTransform
	if o.stripDebug || len(o.dropAttrs) > 0 {
		ts = append(ts,
			classfile.Dropping[classfile.ClassElement, classfile.ClassBuilder](func(e classfile.ClassElement) bool {
				if _, ok := e.(classfile.SourceFile); ok {
					return o.stripDebug
				}
				return o.dropped(e)
			}),
			classfile.TransformingFields(classfile.Dropping[classfile.FieldElement, classfile.FieldBuilder](func(e classfile.FieldElement) bool {
				return o.dropped(e)
			})),
			classfile.TransformingMethods(classfile.AndThen(
				classfile.Dropping[classfile.MethodElement, classfile.MethodBuilder](func(e classfile.MethodElement) bool {
					return o.dropped(e)
				}),
				classfile.TransformingMethodBodies(classfile.Dropping[classfile.CodeElement, classfile.CodeBuilder](func(e classfile.CodeElement) bool {
					switch e.(type) {
					case classfile.LineNumber, classfile.LocalVariable:
						return o.stripDebug
					}
					return o.dropped(e)
				})),
			)),
		)
	}
	if len(o.renames) > 0 {
		ts = append(ts, classfile.ClassHooks{OnAccept: func(b classfile.ClassBuilder, e classfile.ClassElement) error {
			m, ok := e.(*classfile.MethodModel)
			if !ok {
				b.With(e)
				return nil
			}
			name, ok := o.renames[m.Name]
			if !ok {
				b.With(e)
				return nil
			}
			b.WithMethod(name, m.Desc, m.Flags(), func(mb classfile.MethodBuilder) {
				for me := range m.Elements() {
					mb.With(me)
				}
			})
			return nil
		}})
	}
	if o.deprecate {
		ts = append(ts, classfile.EndHandler[classfile.ClassElement, classfile.ClassBuilder](func(b classfile.ClassBuilder) error {
			b.With(classfile.Deprecated{})
			return nil
		}))
	}
	return classfile.Chain(ts...)
}

// dropped reports whether e is a custom attribute selected by --drop-attribute.
func (o transformOptions) dropped(e classfile.Element) bool {
	a, ok := e.(classfile.CustomAttribute)
	return ok && slices.Contains(o.dropAttrs, a.Name)
}
