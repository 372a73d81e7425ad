// Package constantpool models the JVM class file constant pool.
//
// The transformation core treats the pool as an opaque collaborator: it interns
// entries through a Builder and asks CanWriteDirect before copying pool-bound
// bytes from another class verbatim. Two implementations of Pool are provided:
//
//	Builder  an interning, append-only pool used while building a class
//	Table    a read-only pool parsed from class file bytes
//
// A Builder seeded from an existing pool with NewBuilderFrom keeps every entry
// at its original index, which is what makes verbatim copies legal.
//
// Pool implementations are compared by identity, so they must be pointer types.
package constantpool
