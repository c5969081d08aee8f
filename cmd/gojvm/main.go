package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghaldin/gojvm/internal/classloader"
	"github.com/ghaldin/gojvm/internal/runtime"
)

func main() {
	debug := flag.Bool("debug", false, "dump loaded class/method state to stderr on failure")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: gojvm [-debug] <classfile>\n")
		os.Exit(1)
	}

	filename := flag.Arg(0)
	dir := filepath.Dir(filename)
	className := strings.TrimSuffix(filepath.Base(filename), ".class")

	loader := classloader.NewDirectory(dir)
	vm := runtime.NewInterpreter(loader)

	if err := vm.Run(className); err != nil {
		fmt.Fprint(os.Stdout, vm.Stdout.String())
		fmt.Fprintf(os.Stderr, "Error executing: %v\n", err)
		if *debug {
			fmt.Fprintln(os.Stderr, vm.DumpClasses())
		}
		os.Exit(1)
	}

	fmt.Fprint(os.Stdout, vm.Stdout.String())
}
