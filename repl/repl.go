// Package repl runs an interactive read-compile-execute loop: each
// paren/brace-balanced chunk the user types is compiled and run against
// one persistent VM, so var/fun declarations from one line stay visible
// to the next.
package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/text/width"

	"github.com/loxlang/loxvm/compiler"
	"github.com/loxlang/loxvm/vm"
)

const prompt = "lox> "
const continuePrompt = "...> "

// woopsBanner precedes a compile error's own message, the REPL's
// friendly failure register for a mistyped statement rather than a bare
// error dump.
const woopsBanner = "Woops! We ran into some slithering business here!"

// bannerFace opens the session; width.Fold keeps it a fixed display
// width regardless of a terminal's East-Asian-wide rendering of the
// punctuation.
var bannerFace = width.Fold.String("(>^_^)>\n")

// Start runs the loop until the user sends EOF (Ctrl-D). out/errOut
// receive the running program's print output and runtime-error traces.
func Start(out, errOut io.Writer) error {
	printBanner(out)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("repl: could not start line editor: %w", err)
	}
	defer rl.Close()

	machine := vm.New(vm.WithOutput(out), vm.WithErrorOutput(errOut))

	var pending strings.Builder
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			pending.Reset()
			rl.SetPrompt(prompt)
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		pending.WriteString(line)
		pending.WriteString("\n")

		if !balanced(pending.String()) {
			rl.SetPrompt(continuePrompt)
			continue
		}
		rl.SetPrompt(prompt)

		source := pending.String()
		pending.Reset()
		if strings.TrimSpace(source) == "" {
			continue
		}

		if _, err := compiler.Compile(source, machine.Heap()); err != nil {
			fmt.Fprintln(errOut, woopsBanner)
			fmt.Fprintln(errOut, err)
			continue
		}
		machine.Interpret(source)
	}
}

// balanced reports whether source has no unmatched "{" or "(", the REPL's
// cheap stand-in for knowing a statement is complete enough to compile.
func balanced(source string) bool {
	depth := 0
	for _, r := range source {
		switch r {
		case '{', '(':
			depth++
		case '}', ')':
			depth--
		}
	}
	return depth <= 0
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.loxvm_history"
}

func printBanner(out io.Writer) {
	fmt.Fprint(out, bannerFace)
	fmt.Fprintln(out, "Feel free to type in Lox statements.")
}
