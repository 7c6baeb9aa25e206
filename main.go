package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/LingHeChen/sstree/ast"
	"github.com/LingHeChen/sstree/check"
	"github.com/LingHeChen/sstree/lexer"
	"github.com/LingHeChen/sstree/outline"
	"github.com/LingHeChen/sstree/parser"
)

const version = "0.1.0"

const usage = `sstree - SilverStripe template syntax tree

Usage:
  sstree <file.ss>            print the syntax tree
  sstree -                    read from stdin
  sstree -e '<template>'      parse an inline template
  sstree -j <file.ss>         print the tree as JSON
  sstree -t <file.ss>         print the token stream
  sstree -o <file.ss>         print the scope outline
  sstree -c <file.ss>         report unclosed and mismatched blocks
  sstree -i                   interactive mode
  sstree -h                   show this help

Examples:
  sstree templates/Page.ss
  sstree -c templates/Layout/Page.ss
  sstree -e '<% if $Title %>$Title<% end_if %>'

Set SSTREE_DEBUG=1 to trace block matching on stderr.
`

type mode int

const (
	modeTree mode = iota
	modeJSON
	modeTokens
	modeOutline
	modeCheck
	modeInteractive
)

func main() {
	args := os.Args[1:]

	if len(args) == 0 {
		fmt.Print(usage)
		os.Exit(0)
	}

	var input string
	haveInput := false
	m := modeTree

	i := 0
	for i < len(args) {
		switch args[i] {
		case "-h", "--help":
			fmt.Print(usage)
			os.Exit(0)

		case "-v", "--version":
			fmt.Printf("sstree version %s\n", version)
			os.Exit(0)

		case "-j", "--json":
			m = modeJSON
			i++

		case "-t", "--tokens":
			m = modeTokens
			i++

		case "-o", "--outline":
			m = modeOutline
			i++

		case "-c", "--check":
			m = modeCheck
			i++

		case "-i", "--interactive":
			m = modeInteractive
			i++

		case "-e":
			if i+1 >= len(args) {
				fatal("error: -e needs an argument")
			}
			input = args[i+1]
			haveInput = true
			i += 2

		case "-":
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fatal("reading stdin: %v", err)
			}
			input = string(data)
			haveInput = true
			i++

		default:
			data, err := os.ReadFile(args[i])
			if err != nil {
				fatal("reading file: %v", err)
			}
			input = string(data)
			haveInput = true
			i++
		}
	}

	p := parser.New(nil, parser.WithLogger(newLogger()))

	if m == modeInteractive {
		os.Exit(repl(p))
	}
	if !haveInput {
		fatal("error: no input")
	}

	if err := run(os.Stdout, p, m, input); err != nil {
		fatal("%v", err)
	}
}

// newLogger returns a stderr debug logger when SSTREE_DEBUG is set and nil
// otherwise, leaving the parser with its silent default.
func newLogger() *slog.Logger {
	if os.Getenv("SSTREE_DEBUG") == "" {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey) {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func run(w io.Writer, p *parser.Parser, m mode, input string) error {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return err
	}

	if m == modeTokens {
		for _, tok := range tokens {
			fmt.Fprintf(w, "%d:%d\t%s\t%q\n", tok.Line, tok.Column, tok.Type, tok.Literal)
		}
		return nil
	}

	tree := p.ParseTokens(tokens)

	switch m {
	case modeJSON:
		data, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding tree: %w", err)
		}
		fmt.Fprintln(w, string(data))

	case modeOutline:
		fmt.Fprint(w, outline.Build(tree))

	case modeCheck:
		findings := check.New(p.Tables()).Check(tokens, tree)
		for _, f := range findings {
			fmt.Fprintln(w, f)
		}
		if len(findings) > 0 {
			return fmt.Errorf("%d problem(s) found", len(findings))
		}

	default:
		fmt.Fprint(w, tree.Dump())
		for _, d := range ast.Diagnostics(tree) {
			fmt.Fprintf(w, "\033[31m%s\033[0m\n", d)
		}
	}
	return nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\033[31m"+format+"\033[0m\n", args...)
	os.Exit(1)
}
