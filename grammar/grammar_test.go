package grammar

import (
	"reflect"
	"testing"

	"github.com/LingHeChen/sstree/ast"
	"github.com/LingHeChen/sstree/lexer"
)

func TestSilverStripeTables(t *testing.T) {
	tables := SilverStripe()

	tests := []struct {
		kw         lexer.TokenType
		want       ast.NodeType
		structural bool
		branch     bool
	}{
		{lexer.IF, ast.IfStatement, true, false},
		{lexer.LOOP, ast.LoopStatement, true, false},
		{lexer.WITH, ast.WithStatement, true, false},
		{lexer.CONTROL, ast.ControlStatement, true, false},
		{lexer.CACHED, ast.CachedStatement, true, false},
		{lexer.UNCACHED, ast.UncachedStatement, true, false},
		{lexer.ELSE_IF, ast.ElseIfStatement, false, true},
		{lexer.ELSE, ast.ElseStatement, false, true},
		{lexer.INCLUDE, ast.IncludeStatement, false, false},
		{lexer.REQUIRE, ast.RequireStatement, false, false},
		{lexer.BASE_TAG, ast.BaseTagStatement, false, false},
		{lexer.END, ast.BlockEndStatement, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.kw.String(), func(t *testing.T) {
			nt, ok := tables.NodeType(tt.kw)
			if !ok || nt != tt.want {
				t.Fatalf("NodeType(%s) = %s, %v", tt.kw, nt, ok)
			}
			follow, ok := tables.Follow(tt.kw)
			if !ok {
				t.Fatalf("Follow(%s) missing", tt.kw)
			}
			for _, must := range []lexer.TokenType{lexer.BLOCK_START, lexer.BLOCK_END, tt.kw} {
				if !follow.Contains(must) {
					t.Errorf("Follow(%s) = %s lacks %s", tt.kw, follow, must)
				}
			}
			if got := tables.IsStructural(nt); got != tt.structural {
				t.Errorf("IsStructural(%s) = %v", nt, got)
			}
			if got := tables.IsBranch(nt); got != tt.branch {
				t.Errorf("IsBranch(%s) = %v", nt, got)
			}
		})
	}
}

func TestUnknownKeyword(t *testing.T) {
	tables := SilverStripe()
	if _, ok := tables.Follow(lexer.IDENTIFIER); ok {
		t.Error("identifiers must not open a block")
	}
	if _, ok := tables.NodeType(lexer.CONTENT); ok {
		t.Error("content must not open a block")
	}
}

func TestElseHeadIsBare(t *testing.T) {
	follow, _ := SilverStripe().Follow(lexer.ELSE)
	if follow.Contains(lexer.VAR) || follow.Contains(lexer.IDENTIFIER) {
		t.Errorf("else head accepts arguments: %s", follow)
	}
}

func TestKeywords(t *testing.T) {
	tables := SilverStripe()
	want := []string{"base_tag", "cached", "control", "else", "else_if", "if", "include", "loop", "require", "uncached", "with"}
	if got := tables.Keywords(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords() = %v", got)
	}
	wantStructural := []string{"cached", "control", "if", "loop", "uncached", "with"}
	if got := tables.StructuralKeywords(); !reflect.DeepEqual(got, wantStructural) {
		t.Errorf("StructuralKeywords() = %v", got)
	}
}

func TestArgumentTokens(t *testing.T) {
	tables := SilverStripe()
	if tables.Tokens.ArgOpen != lexer.LPAREN || tables.Tokens.ArgClose != lexer.RPAREN {
		t.Fatalf("argument delimiters = %s, %s", tables.Tokens.ArgOpen, tables.Tokens.ArgClose)
	}
	for _, typ := range []lexer.TokenType{lexer.VAR, lexer.IDENTIFIER, lexer.DOT, lexer.COMMA, lexer.NUMBER, lexer.STRING, lexer.LPAREN, lexer.RPAREN} {
		if !tables.Arguments.Contains(typ) {
			t.Errorf("Arguments lacks %s", typ)
		}
	}
	for _, typ := range []lexer.TokenType{lexer.BLOCK_START, lexer.BLOCK_END, lexer.COMMENT_START, lexer.CONTENT, lexer.THEME_VAR} {
		if tables.Arguments.Contains(typ) {
			t.Errorf("Arguments contains %s", typ)
		}
	}
}
