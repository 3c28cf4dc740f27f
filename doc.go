/*
Command jackc compiles Jack source files into Hack VM code.

Jack is the small object-oriented language of the Nand2Tetris course. Given a
single .jack file or a directory of them, jackc tokenizes, parses, and emits
one sibling .vm file per class. Each class is compiled independently: a
malformed class produces a diagnostic on standard error and a non-zero exit
code, but does not stop the other files in a batch from being compiled.

Usage:

	jackc [-o dir] [-v] [-q] <path>

See the internal/compile, internal/lexer, and internal/symtab packages for
the compiler itself; this package is only the command-line front end.
*/
package main
