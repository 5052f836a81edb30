// Package token defines the lexical vocabulary of the PostgreSQL syntax parser.
//
// Token types are a small closed set. Words are not split into one type per
// keyword: a bare word is an IDENT whose Keyword field carries the canonical
// keyword name when the word belongs to the fixed keyword table. This lets the
// grammar accept keywords as identifiers wherever no keyword is expected.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

//nolint:revive // ALL_CAPS names follow SQL token conventions
const (
	// Special tokens
	EOF     TokenType = iota
	ILLEGAL           // no lexical match; always at least one byte wide

	// Trivia
	WHITESPACE
	LINE_COMMENT  // -- comment
	BLOCK_COMMENT // /* comment */

	// Identifiers
	IDENT            // bare word, possibly a keyword
	QUOTED_IDENT     // "name" or :"name"
	BACKTICK_IDENT   // `name`
	PARAM            // :name, $name, @name, ?name
	POSITIONAL_PARAM // $1, ?

	// Literals
	INTEGER       // 42, 0x2A, 0o52, 0b101010, 1_000
	DECIMAL       // 1.5, .5, 1e10
	STRING        // 'text', N'text', U&'text', adjacent segments
	ESCAPE_STRING // E'text\n'
	BIT_STRING    // B'0101', X'1F'

	// Operators and punctuation
	OP        // operator symbol, see Token.Literal
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	SEMICOLON // ;
	DOT       // .
	COLON     // :
	DCOLON    // ::
	COLON_EQ  // :=

	// Dollar quoting
	DOLLAR_TAG_START // $tag$ opening a dollar-quoted region
	DOLLAR_BODY      // content between the tags, possibly empty
	DOLLAR_TAG_END   // $tag$ closing the region

	// Line-oriented tokens
	COPY_DATA    // raw data line following COPY ... FROM STDIN
	META_COMMAND // psql backslash command up to end of line
)

var tokenNames = map[TokenType]string{
	EOF:              "EOF",
	ILLEGAL:          "ILLEGAL",
	WHITESPACE:       "WHITESPACE",
	LINE_COMMENT:     "LINE_COMMENT",
	BLOCK_COMMENT:    "BLOCK_COMMENT",
	IDENT:            "IDENT",
	QUOTED_IDENT:     "QUOTED_IDENT",
	BACKTICK_IDENT:   "BACKTICK_IDENT",
	PARAM:            "PARAM",
	POSITIONAL_PARAM: "POSITIONAL_PARAM",
	INTEGER:          "INTEGER",
	DECIMAL:          "DECIMAL",
	STRING:           "STRING",
	ESCAPE_STRING:    "ESCAPE_STRING",
	BIT_STRING:       "BIT_STRING",
	OP:               "OP",
	LPAREN:           "(",
	RPAREN:           ")",
	LBRACKET:         "[",
	RBRACKET:         "]",
	COMMA:            ",",
	SEMICOLON:        ";",
	DOT:              ".",
	COLON:            ":",
	DCOLON:           "::",
	COLON_EQ:         ":=",
	DOLLAR_TAG_START: "DOLLAR_TAG_START",
	DOLLAR_BODY:      "DOLLAR_BODY",
	DOLLAR_TAG_END:   "DOLLAR_TAG_END",
	COPY_DATA:        "COPY_DATA",
	META_COMMAND:     "META_COMMAND",
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// IsTrivia reports whether tokens of this type are extras rather than
// meaningful syntax.
func (t TokenType) IsTrivia() bool {
	return t == WHITESPACE || t == LINE_COMMENT || t == BLOCK_COMMENT
}

// IsPunctuation returns true for single-purpose delimiter tokens.
func (t TokenType) IsPunctuation() bool {
	return t >= LPAREN && t <= COLON_EQ
}

// IsLiteral returns true for numeric, string and bit-string literals.
func (t TokenType) IsLiteral() bool {
	return t >= INTEGER && t <= BIT_STRING
}

// Token represents a lexical token with its byte range in the source.
type Token struct {
	Type    TokenType
	Literal string // exact source text
	Keyword string // canonical keyword name, empty for non-keywords
	Span    Span
}

// IsKeyword reports whether the token is the given keyword (canonical, lower case).
func (t Token) IsKeyword(kw string) bool {
	return t.Type == IDENT && t.Keyword == kw
}

// IsOp reports whether the token is the operator with the given symbol.
func (t Token) IsOp(sym string) bool {
	return t.Type == OP && t.Literal == sym
}

func (t Token) String() string {
	if t.Keyword != "" {
		return fmt.Sprintf("%s(%s)@%d", t.Type, t.Keyword, t.Span.Start)
	}
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Literal, t.Span.Start)
}
