package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/LingHeChen/sstree/grammar"
	"github.com/LingHeChen/sstree/parser"
)

func TestRunTree(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, parser.New(nil), modeTree, "$A"); err != nil {
		t.Fatal(err)
	}
	want := "File\n" +
		"  Statements\n" +
		"    FieldReference\n" +
		"      NamedVar\n" +
		"        VAR(\"$\")\n" +
		"      IDENTIFIER(\"A\")\n"
	if got := buf.String(); got != want {
		t.Errorf("tree output =\n%s\nwant\n%s", got, want)
	}
}

func TestRunJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, parser.New(nil), modeJSON, "<% if $A %>x<% end_if %>"); err != nil {
		t.Fatal(err)
	}
	var out struct {
		Type     string `json:"type"`
		Children []struct {
			Type string `json:"type"`
		} `json:"children"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Type != "File" || len(out.Children) != 1 || out.Children[0].Type != "Statements" {
		t.Errorf("unexpected JSON root: %+v", out)
	}
}

func TestRunCheck(t *testing.T) {
	var buf bytes.Buffer
	err := run(&buf, parser.New(nil), modeCheck, "<% loop $A %>x")
	if err == nil || !strings.Contains(err.Error(), "1 problem") {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(buf.String(), "unclosed loop block") {
		t.Errorf("check output = %q", buf.String())
	}

	buf.Reset()
	if err := run(&buf, parser.New(nil), modeCheck, "<% loop $A %>x<% end_loop %>"); err != nil {
		t.Errorf("clean template reported %v", err)
	}
}

func TestRunTokensAndOutline(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, parser.New(nil), modeTokens, "a$B"); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); !strings.Contains(got, "1:2\tVAR\t\"$\"") {
		t.Errorf("token output = %q", got)
	}

	buf.Reset()
	if err := run(&buf, parser.New(nil), modeOutline, "<% with $Page %>$Title<% end_with %>"); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); !strings.Contains(got, "with $Page") || !strings.Contains(got, "ref Title@") {
		t.Errorf("outline output = %q", got)
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"plain text", false},
		{"<% if $A %>", true},
		{"<% if $A", true},
		{"<% if $A %>x<% end_if %>", false},
		{"<%-- open comment", false},
		{"<% loop $F(1).G %>", true},
	}
	p := parser.New(grammar.SilverStripe())
	for _, tt := range tests {
		if got := incomplete(p, tt.src); got != tt.want {
			t.Errorf("incomplete(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}
