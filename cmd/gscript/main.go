// Command gscript runs and debugs gscript source files.
package main

import (
	"fmt"
	"os"

	"gscript/internal/compiler"
	"gscript/internal/debugger"
	"gscript/internal/errors"
	"gscript/internal/parser"
	"gscript/internal/repl"
	"gscript/internal/reporting"
	"gscript/internal/vm"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	if args[0] == "repl" {
		runRepl(args[1:])
		return
	}

	if args[0] == "--help" || args[0] == "-h" {
		showUsage()
		return
	}

	runFile(args)
}

func showUsage() {
	fmt.Println("gscript - a small imperative scripting language")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gscript <file> [--debug|-d] [--debug-server ADDR]")
	fmt.Println("  gscript repl [--history PATH]")
	fmt.Println("  gscript --help|-h")
}

func runRepl(args []string) {
	historyPath := ""
	for i := 0; i < len(args); i++ {
		if args[i] == "--history" && i+1 < len(args) {
			historyPath = args[i+1]
			i++
		}
	}
	r, err := repl.New(os.Stdin, os.Stdout, historyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gscript: %v\n", err)
		os.Exit(1)
	}
	if err := r.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "gscript: %v\n", err)
		os.Exit(1)
	}
}

func runFile(args []string) {
	var filename string
	debug := false
	debugServerAddr := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--debug", "-d":
			debug = true
		case "--debug-server":
			if i+1 < len(args) {
				debugServerAddr = args[i+1]
				i++
			}
		default:
			if filename == "" {
				filename = args[i]
			}
		}
	}
	if filename == "" {
		showUsage()
		os.Exit(1)
	}

	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gscript: could not read %s: %v\n", filename, err)
		os.Exit(1)
	}

	rep := reporting.New(os.Stdout)
	if debug {
		rep.Source(string(source))
	}

	stmts, err := parser.Parse(string(source))
	if err != nil {
		reportAndExit(err)
	}
	if debug {
		rep.Statements(stmts)
	}

	prog, err := compiler.Compile(stmts)
	if err != nil {
		reportAndExit(err)
	}
	if debug {
		rep.Program(prog)
	}

	machine := vm.New(prog)

	if debugServerAddr != "" {
		srv := debugger.New(debugServerAddr)
		srv.Start()
		defer srv.Close()
		machine.Hook = srv
		fmt.Fprintf(os.Stderr, "gscript: debug stream on ws://%s/debug\n", debugServerAddr)
	}

	if err := machine.Run(); err != nil {
		reportAndExit(err)
	}
}

func reportAndExit(err error) {
	if se, ok := err.(*errors.ScriptError); ok {
		fmt.Fprintf(os.Stderr, "%s: %s\n", se.Type, se.Message)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "gscript: %v\n", err)
	os.Exit(1)
}
