package hierarchy

// Default returns a resolver for the core java.lang, java.io and java.util
// types that class files most often refer to.
func Default() Resolver {
	return Of(defaultInterfaces, defaultClasses)
}

var defaultInterfaces = []string{
	"java/lang/AutoCloseable",
	"java/lang/CharSequence",
	"java/lang/Cloneable",
	"java/lang/Comparable",
	"java/lang/Iterable",
	"java/lang/Runnable",
	"java/lang/annotation/Annotation",
	"java/io/Closeable",
	"java/io/Serializable",
	"java/util/Collection",
	"java/util/Comparator",
	"java/util/Iterator",
	"java/util/List",
	"java/util/Map",
	"java/util/Set",
	"java/util/concurrent/Callable",
	"java/util/function/Function",
	"java/util/function/Supplier",
}

var defaultClasses = map[string]string{
	"java/lang/Object":                        "",
	"java/lang/Class":                         ObjectClass,
	"java/lang/String":                        ObjectClass,
	"java/lang/StringBuilder":                 ObjectClass,
	"java/lang/System":                        ObjectClass,
	"java/lang/Thread":                        ObjectClass,
	"java/lang/Math":                          ObjectClass,
	"java/lang/Enum":                          ObjectClass,
	"java/lang/Record":                        ObjectClass,
	"java/lang/Number":                        ObjectClass,
	"java/lang/Boolean":                       ObjectClass,
	"java/lang/Character":                     ObjectClass,
	"java/lang/Byte":                          "java/lang/Number",
	"java/lang/Short":                         "java/lang/Number",
	"java/lang/Integer":                       "java/lang/Number",
	"java/lang/Long":                          "java/lang/Number",
	"java/lang/Float":                         "java/lang/Number",
	"java/lang/Double":                        "java/lang/Number",
	"java/lang/Throwable":                     ObjectClass,
	"java/lang/Error":                         "java/lang/Throwable",
	"java/lang/AssertionError":                "java/lang/Error",
	"java/lang/Exception":                     "java/lang/Throwable",
	"java/lang/RuntimeException":              "java/lang/Exception",
	"java/lang/IllegalArgumentException":      "java/lang/RuntimeException",
	"java/lang/IllegalStateException":         "java/lang/RuntimeException",
	"java/lang/NullPointerException":          "java/lang/RuntimeException",
	"java/lang/ClassCastException":            "java/lang/RuntimeException",
	"java/lang/ArithmeticException":           "java/lang/RuntimeException",
	"java/lang/IndexOutOfBoundsException":     "java/lang/RuntimeException",
	"java/lang/UnsupportedOperationException": "java/lang/RuntimeException",
	"java/io/IOException":                     "java/lang/Exception",
	"java/io/UncheckedIOException":            "java/lang/RuntimeException",
	"java/io/InputStream":                     ObjectClass,
	"java/io/OutputStream":                    ObjectClass,
	"java/io/FilterOutputStream":              "java/io/OutputStream",
	"java/io/PrintStream":                     "java/io/FilterOutputStream",
	"java/util/AbstractCollection":            ObjectClass,
	"java/util/AbstractList":                  "java/util/AbstractCollection",
	"java/util/ArrayList":                     "java/util/AbstractList",
	"java/util/AbstractMap":                   ObjectClass,
	"java/util/HashMap":                       "java/util/AbstractMap",
}
