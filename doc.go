// Package classfile reads, builds and rewrites JVM class files as streams of
// structured elements.
//
// A class is a sequence of class elements (version, flags, superclass,
// fields, methods, attributes). Fields, methods and method bodies are
// sequences of their own elements. Builders integrate elements one at a
// time; transforms sit between a source model and a builder and decide, per
// element, whether to forward, drop, replace or inject.
//
// # Architecture Overview
//
//	classfile/           Elements, builders, transforms, models, encoding
//	├── constantpool/    Interning pool builder and parsed pool tables
//	├── hierarchy/       Pluggable class hierarchy lookup
//	├── classdef/        Declarative YAML class definitions
//	├── errors/          Structured error types
//	└── cmd/cftool/      Command line tool
//
// # Quick Start
//
// Build a class:
//
//	cf := classfile.New(classfile.Options{})
//	data, err := cf.Build("com/example/Hello", func(cb classfile.ClassBuilder) {
//	    cb.WithMethod("run", "()V", classfile.AccPublic|classfile.AccStatic, func(mb classfile.MethodBuilder) {
//	        mb.WithCode(func(code classfile.CodeBuilder) {
//	            code.Return()
//	        })
//	    })
//	})
//
// Drop every field and add a method at the end:
//
//	t := classfile.ClassHooks{
//	    OnAccept: func(b classfile.ClassBuilder, e classfile.ClassElement) error {
//	        if _, ok := e.(*classfile.FieldModel); !ok {
//	            b.With(e)
//	        }
//	        return nil
//	    },
//	    OnEnd: func(b classfile.ClassBuilder) error {
//	        b.WithMethod("bar", "()V", classfile.AccPublic, nil)
//	        return nil
//	    },
//	}
//	out, err := cf.Transform(model, t)
//
// # Transform Chains
//
// AndThen(a, b) resolves b against the destination builder and a against an
// intermediate builder that feeds b. AtStart hooks run from the destination
// end backwards and AtEnd hooks from the source end forwards, so every link
// is started before it sees an element and sees every element before it
// ends.
//
// # Thread Safety
//
// ClassFile is safe for concurrent use. Builders, models under construction,
// constant pool builders and resolved transforms belong to one traversal and
// one goroutine. Stateful transforms get a fresh instance per Resolve; use
// TransformAll to transform many classes in parallel.
//
// # Stack Maps
//
// StackMapTable frames are not computed. Parsed frames are dropped, so
// rewritten code for class versions 50 and later must be verified by a
// verifier that does not require them, or have frames added by another tool.
package classfile
