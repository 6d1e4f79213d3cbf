// Copyright © 2024 The ELPS authors

package analysis

// builtinNames are the names the builtins module provides. Module dunders
// that the collector allows explicitly (__file__, __name__, __doc__,
// __package__) are not listed.
var builtinNames = []string{
	// constants
	"True", "False", "None", "NotImplemented", "Ellipsis", "__debug__",
	"copyright", "credits", "license", "exit", "quit",
	// functions
	"abs", "aiter", "all", "anext", "any", "ascii", "bin", "breakpoint",
	"callable", "chr", "compile", "delattr", "dir", "divmod", "eval", "exec",
	"format", "getattr", "globals", "hasattr", "hash", "help", "hex", "id",
	"input", "isinstance", "issubclass", "iter", "len", "locals", "max",
	"min", "next", "oct", "open", "ord", "pow", "print", "repr", "round",
	"setattr", "sorted", "sum", "vars", "__build_class__", "__import__",
	"__loader__", "__spec__",
	// types
	"bool", "bytearray", "bytes", "classmethod", "complex", "dict",
	"enumerate", "filter", "float", "frozenset", "int", "list", "map",
	"memoryview", "object", "property", "range", "reversed", "set", "slice",
	"staticmethod", "str", "super", "tuple", "type", "zip",
	// exceptions
	"ArithmeticError", "AssertionError", "AttributeError", "BaseException",
	"BaseExceptionGroup", "BlockingIOError", "BrokenPipeError", "BufferError",
	"BytesWarning", "ChildProcessError", "ConnectionAbortedError",
	"ConnectionError", "ConnectionRefusedError", "ConnectionResetError",
	"DeprecationWarning", "EOFError", "EncodingWarning", "EnvironmentError",
	"Exception", "ExceptionGroup", "FileExistsError", "FileNotFoundError",
	"FloatingPointError", "FutureWarning", "GeneratorExit", "IOError",
	"ImportError", "ImportWarning", "IndentationError", "IndexError",
	"InterruptedError", "IsADirectoryError", "KeyError", "KeyboardInterrupt",
	"LookupError", "MemoryError", "ModuleNotFoundError", "NameError",
	"NotADirectoryError", "NotImplementedError", "OSError", "OverflowError",
	"PendingDeprecationWarning", "PermissionError", "ProcessLookupError",
	"PythonFinalizationError", "RecursionError", "ReferenceError",
	"ResourceWarning", "RuntimeError", "RuntimeWarning", "StopAsyncIteration",
	"StopIteration", "SyntaxError", "SyntaxWarning", "SystemError",
	"SystemExit", "TabError", "TimeoutError", "TypeError",
	"UnboundLocalError", "UnicodeDecodeError", "UnicodeEncodeError",
	"UnicodeError", "UnicodeTranslateError", "UnicodeWarning", "UserWarning",
	"ValueError", "Warning", "ZeroDivisionError",
}

// builtinBindings is the implicit outermost scope. The bindings are shared
// by every analysis and never mutated.
var builtinBindings = func() map[string]*Binding {
	m := make(map[string]*Binding, len(builtinNames))
	for i, name := range builtinNames {
		m[name] = &Binding{Name: name, Kind: BindBuiltin, Index: -len(builtinNames) + i}
	}
	return m
}()

// IsBuiltin reports whether name is provided by the builtins module.
func IsBuiltin(name string) bool {
	_, ok := builtinBindings[name]
	return ok
}
