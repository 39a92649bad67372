// Command opsh runs opsh scripts: a file argument executes that file,
// -e evaluates an expression, --check parses without evaluating, and
// with no arguments on a terminal it starts the interactive shell.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/opsh-lang/opsh/pkg/opsh/commands"
	"github.com/opsh-lang/opsh/pkg/opsh/config"
	"github.com/opsh-lang/opsh/pkg/opsh/errors"
	"github.com/opsh-lang/opsh/pkg/opsh/evaluator"
	"github.com/opsh-lang/opsh/pkg/opsh/lexer"
	"github.com/opsh-lang/opsh/pkg/opsh/parser"
	"github.com/opsh-lang/opsh/pkg/opsh/repl"
	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

func main() {
	var (
		evalExpr   string
		checkOnly  bool
		noColor    bool
		configPath string
	)

	flag.StringVar(&evalExpr, "e", "", "evaluate an expression and print its result")
	flag.StringVar(&evalExpr, "eval", "", "evaluate an expression and print its result")
	flag.BoolVar(&checkOnly, "check", false, "parse only; report syntax errors without evaluating")
	flag.BoolVar(&noColor, "no-color", false, "disable colored error output")
	flag.StringVar(&configPath, "config", config.DefaultPath(), "path to the settings file")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opsh: cannot load %s: %v\n", configPath, err)
		os.Exit(1)
	}
	if noColor {
		cfg.Color = false
	}

	eval := evaluator.New(commands.DefaultRegistry())

	switch {
	case evalExpr != "":
		os.Exit(runSource(eval, cfg, evalExpr, "", checkOnly))

	case flag.NArg() > 0:
		path := flag.Arg(0)
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opsh: cannot read %s: %v\n", path, err)
			os.Exit(1)
		}
		os.Exit(runSource(eval, cfg, string(source), path, checkOnly))

	case checkOnly:
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opsh: cannot read stdin: %v\n", err)
			os.Exit(1)
		}
		os.Exit(runSource(eval, cfg, string(source), "<stdin>", true))

	case isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()):
		repl.New(eval, cfg).Run()

	default:
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opsh: cannot read stdin: %v\n", err)
			os.Exit(1)
		}
		os.Exit(runSource(eval, cfg, string(source), "<stdin>", false))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: opsh [flags] [script.opsh]")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

// runSource parses and (unless checking) evaluates one source text,
// printing the result and reporting errors with source context. It
// returns the process exit code.
func runSource(eval *evaluator.Evaluator, cfg *config.Config, source, file string, checkOnly bool) int {
	l := lexer.New(source)
	p := parser.New(l)
	program := p.ParseProgram()

	if errs := p.StructuredErrors(); len(errs) > 0 {
		reportError(cfg, errs[0], source, file)
		return 1
	}
	if checkOnly {
		return 0
	}

	result, scriptErr := eval.Eval(program)
	if scriptErr != nil {
		reportError(cfg, scriptErr, source, file)
		return 1
	}

	printResult(result)
	return 0
}

// printResult prints a statement result: arrays element-wise, Null not
// at all.
func printResult(v value.Value) {
	switch v := v.(type) {
	case *value.Null:
	case *value.Array:
		for _, e := range v.Elements {
			printResult(e)
		}
	default:
		fmt.Println(v.Display())
	}
}

// reportError prints a formatted error, with the offending source line
// and a caret under the failing column when the position is known.
func reportError(cfg *config.Config, scriptErr *errors.ScriptError, source, file string) {
	if file != "" {
		scriptErr = scriptErr.WithFile(file)
	}

	msg := scriptErr.PrettyString()
	if cfg.Color {
		msg = "\033[31m" + msg + "\033[0m"
	}
	fmt.Fprintln(os.Stderr, msg)

	if ctx := sourceContext(source, scriptErr.Line, scriptErr.Column); ctx != "" {
		fmt.Fprintln(os.Stderr, ctx)
	}
}

// sourceContext renders the failing line with a caret marker.
func sourceContext(source string, line, column int) string {
	if line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	text := lines[line-1]

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n  %s\n", text)
	if column > 0 && column <= len(text)+1 {
		sb.WriteString("  ")
		sb.WriteString(strings.Repeat(" ", column-1))
		sb.WriteString("^")
	}
	return sb.String()
}
