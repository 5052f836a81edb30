package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pgsyntax/pkg/parser"
	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// significant drops trivia and EOF from a token stream.
func significant(tokens []token.Token) []token.Token {
	var out []token.Token
	for _, tok := range tokens {
		if tok.Type.IsTrivia() || tok.Type == token.EOF {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func types(tokens []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

// ---------- Token Kind Tests ----------

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.TokenType
	}{
		{"identifier and keyword", "select users", []token.TokenType{token.IDENT, token.IDENT}},
		{"quoted identifier", `"My Table"`, []token.TokenType{token.QUOTED_IDENT}},
		{"colon quoted identifier", `:"name"`, []token.TokenType{token.QUOTED_IDENT}},
		{"backtick identifier", "`col`", []token.TokenType{token.BACKTICK_IDENT}},
		{"named parameters", ":a $b @c ?d", []token.TokenType{token.PARAM, token.PARAM, token.PARAM, token.PARAM}},
		{"positional parameters", "$1 $23", []token.TokenType{token.POSITIONAL_PARAM, token.POSITIONAL_PARAM}},
		{"integers", "42 0x2A 0o52 0b101 1_000", []token.TokenType{
			token.INTEGER, token.INTEGER, token.INTEGER, token.INTEGER, token.INTEGER,
		}},
		{"decimals", "1.5 .5 1e10 2.5E-3", []token.TokenType{token.DECIMAL, token.DECIMAL, token.INTEGER, token.DECIMAL}},
		{"strings", `'a' N'b' U&'c' :'d'`, []token.TokenType{token.STRING, token.STRING, token.STRING, token.STRING}},
		{"escape string", `E'a\'b'`, []token.TokenType{token.ESCAPE_STRING}},
		{"bit strings", "B'0101' X'1F'", []token.TokenType{token.BIT_STRING, token.BIT_STRING}},
		{"punctuation", "( ) [ ] , ; . : :: :=", []token.TokenType{
			token.LPAREN, token.RPAREN, token.LBRACKET, token.RBRACKET, token.COMMA,
			token.SEMICOLON, token.DOT, token.COLON, token.DCOLON, token.COLON_EQ,
		}},
		{"operators", "a->>'k' <> b", []token.TokenType{token.IDENT, token.OP, token.STRING, token.OP, token.IDENT}},
		{"meta command", "\\copy t from 'x'\nselect", []token.TokenType{token.META_COMMAND, token.IDENT}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, diags := parser.Tokenize(tt.input)
			assert.Empty(t, diags)
			assert.Equal(t, tt.want, types(significant(tokens)))
		})
	}
}

func TestTokenizeKeywords(t *testing.T) {
	tokens, _ := parser.Tokenize("SELECT Integer selec")
	sig := significant(tokens)
	require.Len(t, sig, 3)

	assert.Equal(t, "select", sig[0].Keyword)
	assert.Equal(t, "int", sig[1].Keyword)
	assert.Equal(t, "", sig[2].Keyword, "a keyword never wins over a longer word")
}

func TestAdjacentStringsJoin(t *testing.T) {
	tokens, _ := parser.Tokenize("'foo'\n  'bar' x")
	sig := significant(tokens)
	require.Len(t, sig, 2)
	assert.Equal(t, token.STRING, sig[0].Type)
	assert.Equal(t, "'foo'\n  'bar'", sig[0].Literal)
}

func TestTokenizeComments(t *testing.T) {
	tokens, diags := parser.Tokenize("a -- line\n/* outer /* inner */ still */ b")
	assert.Empty(t, diags)

	var comments []string
	for _, tok := range tokens {
		if tok.Type == token.LINE_COMMENT || tok.Type == token.BLOCK_COMMENT {
			comments = append(comments, tok.Literal)
		}
	}
	assert.Equal(t, []string{"-- line", "/* outer /* inner */ still */"}, comments)
}

// ---------- Lexical Error Tests ----------

func TestTokenizeUnterminated(t *testing.T) {
	tests := []struct {
		name  string
		input string
		typ   token.TokenType
		msg   string
	}{
		{"string", "select 'abc", token.STRING, "unterminated quoted string"},
		{"quoted identifier", `select "abc`, token.QUOTED_IDENT, "unterminated quoted identifier"},
		{"block comment", "select /* abc", token.BLOCK_COMMENT, "unterminated block comment"},
		{"dollar quote", "select $x$ abc", token.DOLLAR_BODY, "unterminated dollar-quoted string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, diags := parser.Tokenize(tt.input)
			require.Len(t, diags, 1)
			assert.Equal(t, tt.msg, diags[0].Message)
			assert.Equal(t, len(tt.input), diags[0].Span.End, "runs to end of input")

			last := tokens[len(tokens)-2]
			assert.Equal(t, tt.typ, last.Type)
			assert.Equal(t, token.EOF, tokens[len(tokens)-1].Type)
		})
	}
}

func TestTokenizeIllegal(t *testing.T) {
	tokens, diags := parser.Tokenize("select \x01 1")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "unexpected character")

	sig := significant(tokens)
	require.Len(t, sig, 3)
	assert.Equal(t, token.ILLEGAL, sig[1].Type)
	assert.Equal(t, 1, sig[1].Span.Len())
}

func TestTokenizeCoversInput(t *testing.T) {
	inputs := []string{
		"SELECT a, b FROM t WHERE x >= 1;",
		"create function f() returns int as $$ select 1 $$ language sql;",
		"select 'unterminated",
		"\\set x 1\nselect :x;",
		"§¶ select",
	}
	for _, input := range inputs {
		tokens, _ := parser.Tokenize(input)
		var b strings.Builder
		for _, tok := range tokens {
			b.WriteString(tok.Literal)
		}
		assert.Equal(t, input, b.String())
	}
}

// ---------- Dollar Quote Tests ----------

func TestDollarQuotes(t *testing.T) {
	input := "$body$ SELECT $other$ literal $other$; $body$"
	tokens, diags := parser.Tokenize(input)
	require.Empty(t, diags)

	sig := significant(tokens)
	require.Len(t, sig, 3)
	assert.Equal(t, []token.TokenType{token.DOLLAR_TAG_START, token.DOLLAR_BODY, token.DOLLAR_TAG_END}, types(sig))
	assert.Equal(t, "$body$", sig[0].Literal)
	assert.Equal(t, " SELECT $other$ literal $other$; ", sig[1].Literal)
	assert.Equal(t, "$body$", sig[2].Literal)
}

func TestDollarQuoteEmptyTagAndBody(t *testing.T) {
	tokens, diags := parser.Tokenize("$$$$ x")
	require.Empty(t, diags)

	sig := significant(tokens)
	require.Len(t, sig, 4)
	assert.Equal(t, token.DOLLAR_TAG_START, sig[0].Type)
	assert.Equal(t, token.DOLLAR_BODY, sig[1].Type)
	assert.Equal(t, 0, sig[1].Span.Len())
	assert.Equal(t, token.DOLLAR_TAG_END, sig[2].Type)
	assert.Equal(t, token.IDENT, sig[3].Type, "state returns to idle after the end tag")
}
