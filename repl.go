package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/LingHeChen/sstree/check"
	"github.com/LingHeChen/sstree/lexer"
	"github.com/LingHeChen/sstree/parser"
)

const (
	historyFile = ".sstree_history"
	promptMain  = "ss> "
	promptCont  = "... "
)

const banner = `sstree interactive mode. Enter a template; open blocks continue on the
next line, an empty line forces the parse. Commands: :json :tokens :outline
:check :tree :quit`

func repl(p *parser.Parser) (ret int) {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	m := modeTree
	for {
		src, ok := readTemplate(ln, p, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		if cmd := strings.TrimSpace(src); strings.HasPrefix(cmd, ":") {
			switch strings.ToLower(cmd) {
			case ":quit":
				return 0
			case ":tree":
				m = modeTree
			case ":json":
				m = modeJSON
			case ":tokens":
				m = modeTokens
			case ":outline":
				m = modeOutline
			case ":check":
				m = modeCheck
			default:
				fmt.Printf("unknown command. Type :quit to exit.\n")
			}
			continue
		}

		if strings.TrimSpace(src) == "" {
			continue
		}

		if err := run(os.Stdout, p, m, src); err != nil {
			fmt.Fprintf(os.Stderr, "\033[31m%v\033[0m\n", err)
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
	}

	return 0
}

// readTemplate keeps prompting while the collected source still has open
// blocks or an unterminated block head. An empty continuation line ends the
// input regardless.
func readTemplate(ln *liner.State, p *parser.Parser, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			if line == "" {
				return b.String(), true
			}
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !incomplete(p, src) {
			return src, true
		}
	}
}

func incomplete(p *parser.Parser, src string) bool {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return false
	}
	tree := p.ParseTokens(tokens)
	for _, f := range check.New(p.Tables()).Check(tokens, tree) {
		if f.Kind == check.UnclosedStatement || f.Kind == check.UnclosedBlock {
			return true
		}
	}
	return false
}
