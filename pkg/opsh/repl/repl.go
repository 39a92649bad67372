// Package repl implements the interactive shell: a liner-backed line
// editor with history, tab completion over command names and keywords,
// multi-line continuation for open braces and quotes, and a small set
// of colon commands (:help, :vars, :commands, :clear, :quit).
package repl

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/opsh-lang/opsh/pkg/opsh/config"
	"github.com/opsh-lang/opsh/pkg/opsh/evaluator"
	"github.com/opsh-lang/opsh/pkg/opsh/lexer"
	"github.com/opsh-lang/opsh/pkg/opsh/parser"
	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// keywordCompletions are offered alongside command names.
var keywordCompletions = []string{"if", "elseif", "else", "function", "return", "true", "false"}

// Repl is one interactive session over a persistent evaluator.
type Repl struct {
	eval *evaluator.Evaluator
	cfg  *config.Config
	out  io.Writer
}

// New creates a session. The evaluator's scope stack carries variable
// state from line to line.
func New(eval *evaluator.Evaluator, cfg *config.Config) *Repl {
	return &Repl{eval: eval, cfg: cfg, out: os.Stdout}
}

// Run drives the read-eval-print loop until :quit or EOF.
func (r *Repl) Run() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(r.complete)

	r.loadHistory(line)
	defer r.saveHistory(line)

	fmt.Fprintln(r.out, "opsh interactive shell (:help for help, :quit to exit)")

	for {
		input, err := r.readStatement(line)
		if err != nil {
			if err == liner.ErrPromptAborted {
				continue
			}
			fmt.Fprintln(r.out)
			return
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		line.AppendHistory(trimmed)

		if strings.HasPrefix(trimmed, ":") {
			if r.colonCommand(trimmed) {
				return
			}
			continue
		}

		r.evalAndPrint(input)
	}
}

// readStatement reads one logical statement, continuing onto further
// lines while braces, parens or quotes remain open.
func (r *Repl) readStatement(line *liner.State) (string, error) {
	input, err := line.Prompt(r.cfg.Prompt)
	if err != nil {
		return "", err
	}

	for needsContinuation(input) {
		more, err := line.Prompt(r.cfg.ContinuationPrompt)
		if err != nil {
			return "", err
		}
		input += "\n" + more
	}
	return input, nil
}

// needsContinuation scans for unbalanced delimiters or an open string.
func needsContinuation(input string) bool {
	depth := 0
	var quote byte

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if quote != 0 {
			if ch == '\\' && quote == '"' {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}

		switch ch {
		case '\'', '"':
			quote = ch
		case '#':
			for i < len(input) && input[i] != '\n' {
				i++
			}
		case '(', '{':
			depth++
		case ')', '}':
			depth--
		}
	}

	return depth > 0 || quote != 0
}

// complete offers command names and keywords matching the last word.
func (r *Repl) complete(line string) []string {
	start := strings.LastIndexAny(line, " \t|(") + 1
	prefix := line[start:]
	if prefix == "" {
		return nil
	}

	head := line[:start]
	var completions []string
	for _, name := range r.eval.Registry().Names() {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
			completions = append(completions, head+name)
		}
	}
	for _, kw := range keywordCompletions {
		if strings.HasPrefix(kw, strings.ToLower(prefix)) {
			completions = append(completions, head+kw)
		}
	}
	return completions
}

// colonCommand handles a :command. It reports whether to exit.
func (r *Repl) colonCommand(input string) bool {
	switch strings.Fields(input)[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Fprintln(r.out, "  :help       show this help")
		fmt.Fprintln(r.out, "  :vars       list variables in scope")
		fmt.Fprintln(r.out, "  :commands   list available commands")
		fmt.Fprintln(r.out, "  :clear      clear the screen")
		fmt.Fprintln(r.out, "  :quit       exit the shell")
	case ":vars", ":v":
		global := r.eval.Scopes().Global()
		for _, name := range global.Names() {
			v, _ := global.Get(name)
			fmt.Fprintf(r.out, "  $%s = %s\n", name, v.Display())
		}
	case ":commands", ":c":
		for _, name := range r.eval.Registry().Names() {
			fmt.Fprintln(r.out, "  "+name)
		}
	case ":clear":
		fmt.Fprint(r.out, "\033[2J\033[H")
	default:
		fmt.Fprintln(r.out, "unknown command "+input+" (:help for help)")
	}
	return false
}

// evalAndPrint runs one statement and prints its result. Arrays print
// element-wise, Null prints nothing.
func (r *Repl) evalAndPrint(input string) {
	l := lexer.New(input)
	p := parser.New(l)
	program := p.ParseProgram()

	if errs := p.StructuredErrors(); len(errs) > 0 {
		fmt.Fprintln(r.out, errs[0].PrettyString())
		return
	}

	result, err := r.eval.Eval(program)
	if err != nil {
		fmt.Fprintln(r.out, err.PrettyString())
		return
	}

	r.printValue(result)
}

func (r *Repl) printValue(v value.Value) {
	switch v := v.(type) {
	case *value.Null:
		// nothing
	case *value.Array:
		for _, e := range v.Elements {
			r.printValue(e)
		}
	default:
		fmt.Fprintln(r.out, v.Display())
	}
}

func (r *Repl) loadHistory(line *liner.State) {
	if r.cfg.HistoryFile == "" {
		return
	}
	if f, err := os.Open(r.cfg.HistoryFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
}

func (r *Repl) saveHistory(line *liner.State) {
	if r.cfg.HistoryFile == "" {
		return
	}

	var buf bytes.Buffer
	if _, err := line.WriteHistory(&buf); err != nil || buf.Len() == 0 {
		return
	}

	entries := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	entries = capHistory(entries, r.cfg.HistorySize)
	os.WriteFile(r.cfg.HistoryFile, []byte(strings.Join(entries, "\n")+"\n"), 0o644)
}

// capHistory keeps the most recent max entries.
func capHistory(entries []string, max int) []string {
	if max > 0 && len(entries) > max {
		return entries[len(entries)-max:]
	}
	return entries
}
