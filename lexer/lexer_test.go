package lexer

import (
	"reflect"
	"testing"
)

func types(tokens []Token) []TokenType {
	out := make([]TokenType, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Type)
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{
			name:  "empty",
			input: "",
			want:  []TokenType{EOF},
		},
		{
			name:  "plain content",
			input: "<p>Hello</p>",
			want:  []TokenType{CONTENT, CONTENT, CONTENT, CONTENT, EOF},
		},
		{
			name:  "variable with fields",
			input: "$a.b.c",
			want:  []TokenType{VAR, IDENTIFIER, DOT, IDENTIFIER, DOT, IDENTIFIER, EOF},
		},
		{
			name:  "braced variable",
			input: "{$Title}!",
			want:  []TokenType{VAR, IDENTIFIER, VAR_CLOSE, CONTENT, EOF},
		},
		{
			name:  "method call arguments",
			input: "$Link(1, $ID)",
			want:  []TokenType{VAR, IDENTIFIER, LPAREN, NUMBER, COMMA, WHITESPACE, VAR, IDENTIFIER, RPAREN, EOF},
		},
		{
			name:  "if block",
			input: "<% if $Show %>",
			want:  []TokenType{BLOCK_START, WHITESPACE, IF, WHITESPACE, VAR, IDENTIFIER, WHITESPACE, BLOCK_END, EOF},
		},
		{
			name:  "else_if is not else",
			input: "<% else_if $A == 1 %>",
			want: []TokenType{
				BLOCK_START, WHITESPACE, ELSE_IF, WHITESPACE, VAR, IDENTIFIER, WHITESPACE,
				OPERATOR, WHITESPACE, NUMBER, WHITESPACE, BLOCK_END, EOF,
			},
		},
		{
			name:  "terminator",
			input: "<% end_loop %>",
			want:  []TokenType{BLOCK_START, WHITESPACE, END, WHITESPACE, BLOCK_END, EOF},
		},
		{
			name:  "keyword prefix stays an identifier",
			input: "<% iffy %>",
			want:  []TokenType{BLOCK_START, WHITESPACE, IDENTIFIER, WHITESPACE, BLOCK_END, EOF},
		},
		{
			name:  "include with string",
			input: `<% include Footer Title="x" %>`,
			want: []TokenType{
				BLOCK_START, WHITESPACE, INCLUDE, WHITESPACE, IDENTIFIER, WHITESPACE,
				IDENTIFIER, OPERATOR, STRING, WHITESPACE, BLOCK_END, EOF,
			},
		},
		{
			name:  "comment",
			input: "<%-- a - b --%>",
			want:  []TokenType{COMMENT_START, COMMENT_TEXT, COMMENT_TEXT, COMMENT_TEXT, COMMENT_END, EOF},
		},
		{
			name:  "theme directive path",
			input: `<link href="$ThemeDir/css/x.css">`,
			want:  []TokenType{CONTENT, CONTENT, THEME_VAR, STRING, CONTENT, EOF},
		},
		{
			name:  "theme directive call form",
			input: `$ThemeDir("x.css")`,
			want:  []TokenType{THEME_VAR, STRING, EOF},
		},
		{
			name:  "theme directive in require",
			input: `<% require $ThemeDir("x.css") %>`,
			want: []TokenType{
				BLOCK_START, WHITESPACE, REQUIRE, WHITESPACE, THEME_VAR, STRING,
				WHITESPACE, BLOCK_END, EOF,
			},
		},
		{
			name:  "fields after call",
			input: "$Foo.Bar(1).Baz",
			want:  []TokenType{VAR, IDENTIFIER, DOT, IDENTIFIER, LPAREN, NUMBER, RPAREN, DOT, IDENTIFIER, EOF},
		},
		{
			name:  "theme directive without path",
			input: "$ThemeDir x",
			want:  []TokenType{THEME_VAR, CONTENT, EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.input, err)
			}
			if got := types(tokens); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q)\n got: %v\nwant: %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenizeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"<% if $A.B %>yes<% else %>no<% end_if %>",
		"<%-- unterminated comment",
		"<% loop $Items %>$Pos: {$Title}<% end_loop %>",
		"100% <% <% %>",
		"$ThemeDir/images/logo.png $",
	}
	for _, input := range inputs {
		tokens, err := Tokenize(input)
		if err != nil {
			t.Fatalf("Tokenize(%q) error: %v", input, err)
		}
		if got := Join(tokens); got != input {
			t.Errorf("Join(Tokenize(%q)) = %q", input, got)
		}
	}
}

func TestTokenPositions(t *testing.T) {
	tokens, err := Tokenize("a\n$B")
	if err != nil {
		t.Fatal(err)
	}
	v := tokens[1]
	if v.Type != VAR || v.Line != 2 || v.Column != 1 || v.Offset != 2 {
		t.Errorf("unexpected variable token %v (offset %d)", v, v.Offset)
	}
}

func TestTokenSet(t *testing.T) {
	s := NewTokenSet(IF, BLOCK_END)
	if !s.Contains(IF) || !s.Contains(BLOCK_END) {
		t.Fatalf("set %s is missing members", s)
	}
	if s.Contains(ELSE) || s.Contains(TokenType(-1)) || s.Contains(tokenTypeCount) {
		t.Fatalf("set %s has unexpected members", s)
	}
	u := s.Union(NewTokenSet(ELSE))
	if got := u.Types(); !reflect.DeepEqual(got, []TokenType{BLOCK_END, IF, ELSE}) {
		t.Errorf("Types() = %v", got)
	}
	if got := s.String(); got != "{BLOCK_END, IF}" {
		t.Errorf("String() = %q", got)
	}
}

// Rules sharing a token type carry their own names; every one of them must
// still map onto a token type.
func TestRuleVariantsMapped(t *testing.T) {
	tokens, err := Tokenize("{$A}$ThemeDir/x.css$F(1, 2)<% $B %>")
	if err != nil {
		t.Fatal(err)
	}
	for _, tok := range tokens {
		if tok.Type == BAD_CHARACTER {
			t.Errorf("unmapped token %v", tok)
		}
	}
}
