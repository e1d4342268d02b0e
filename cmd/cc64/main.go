// Command cc64 compiles a C-subset source file to an x86-64 executable.
//
// By default the emitted assembly is handed to the system gcc driver for
// assembly and linking; -S stops after code generation and writes the
// assembly text instead.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hassan/cc64/internal/compiler"
	"github.com/hassan/cc64/internal/optimizer"
)

func main() {
	var (
		output    = flag.String("o", "", "output file (default a.out, or <source>.s with -S)")
		optLevel  = flag.String("O", "0", "optimization level: 0, 1/basic, 2/aggressive")
		allocName = flag.String("alloc", compiler.AllocLinearScan, "register allocator: linearscan or naive")
		asmOnly   = flag.Bool("S", false, "emit assembly text instead of an executable")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <source-file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	filename := flag.Arg(0)

	level, err := optimizer.ParseLevel(*optLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading file: %v\n", err)
		os.Exit(1)
	}

	result, err := compiler.Compile(string(source), filename, compiler.Options{
		Level:     level,
		Allocator: *allocName,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, d := range result.Diagnostics {
		fmt.Fprintln(os.Stderr, d)
	}
	if !result.OK() {
		os.Exit(1)
	}

	if *asmOnly {
		out := *output
		if out == "" {
			out = strings.TrimSuffix(filename, ".c") + ".s"
		}
		if err := os.WriteFile(out, []byte(result.Assembly), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	out := *output
	if out == "" {
		out = "a.out"
	}
	var as compiler.GCC
	if err := as.AssembleAndLink(result.Assembly, out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
