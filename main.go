package main

import (
	"flag"
	"fmt"
	"os"
	"os/user"

	"github.com/loxlang/loxvm/compiler"
	"github.com/loxlang/loxvm/object"
	"github.com/loxlang/loxvm/repl"
	"github.com/loxlang/loxvm/vm"
)

func main() {
	debug := flag.Bool("debug", false, "disassemble the compiled script instead of running it")
	flag.Parse()

	if flag.NArg() == 0 {
		greetUser()
		if err := repl.Start(os.Stdout, os.Stderr); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	path := flag.Arg(0)
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loxvm: %s\n", err)
		os.Exit(1)
	}

	if *debug {
		runDebug(path, string(source))
		return
	}

	machine := vm.New()
	switch machine.Interpret(string(source)) {
	case vm.InterpretCompileError:
		os.Exit(65)
	case vm.InterpretRuntimeError:
		os.Exit(70)
	}
}

// greetUser prints the REPL's opening line, addressed to whoever is
// logged into the OS session if that can be determined.
func greetUser() {
	name := "there"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	fmt.Printf("Hello %s! This is the Lox programming language!\n", name)
}

// runDebug compiles path without running it and prints the disassembled
// chunk for every function the source declares, reachable only from this
// flag — never from inside the dispatch loop itself.
func runDebug(path, source string) {
	heap := object.NewHeap()
	fn, err := compiler.Compile(source, heap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loxvm: %s\n", err)
		os.Exit(65)
	}

	fmt.Println(fn.Chunk.Disassemble(path))
	disassembleNested(fn)
}

func disassembleNested(fn *object.ObjFunction) {
	for _, c := range fn.Chunk.Constants {
		if nested, ok := c.AsObj().(*object.ObjFunction); ok {
			fmt.Println(nested.Chunk.Disassemble(nested.DisplayName()))
			disassembleNested(nested)
		}
	}
}
