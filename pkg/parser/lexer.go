package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/pgsyntax/pkg/token"
)

// Lexer error messages.
const (
	errUnterminatedString  = "unterminated quoted string"
	errUnterminatedIdent   = "unterminated quoted identifier"
	errUnterminatedComment = "unterminated block comment"
	errUnterminatedDollar  = "unterminated dollar-quoted string"
)

// Lexer tokenizes PostgreSQL input. It never fails: bytes it cannot place
// come back as ILLEGAL tokens, and unterminated constructs run to the end of
// the input together with an error message.
//
// A Lexer is a plain value. Copying it snapshots the scanning state,
// including any open dollar quote, which is what the parser relies on for
// backtracking.
type Lexer struct {
	input   string
	limit   int  // scanning never reads at or past limit
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination

	// maxRead is one past the furthest offset examined, EOF lookups included.
	maxRead int

	dollar dollarState
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, limit: len(input)}
	l.readChar()
	return l
}

// newBoundedLexer creates a lexer over input[start:end] that reports
// offsets relative to the whole input.
func newBoundedLexer(input string, start, end int) Lexer {
	l := Lexer{input: input, limit: end, readPos: start}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= l.limit {
		l.touch(l.limit)
		l.ch = 0
		l.pos = l.limit
		l.readPos = l.limit + 1
		return
	}
	l.touch(l.readPos)
	l.ch = l.input[l.readPos]
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	return l.peekAt(1)
}

// peekAt returns the character k bytes ahead of the current one.
func (l *Lexer) peekAt(k int) byte {
	i := l.pos + k
	l.touch(i)
	if i >= l.limit {
		return 0
	}
	return l.input[i]
}

func (l *Lexer) touch(i int) {
	if i+1 > l.maxRead {
		l.maxRead = i + 1
	}
}

func (l *Lexer) atEOF() bool {
	return l.pos >= l.limit
}

// advance consumes n characters.
func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		l.readChar()
	}
}

// reset moves the lexer to offset in the idle state.
func (l *Lexer) reset(offset int) {
	l.readPos = offset
	l.dollar = dollarState{}
	l.readChar()
}

// NextToken returns the next token, trivia included. The second result is a
// lexical error message, empty when the token is well formed.
func (l *Lexer) NextToken() (token.Token, string) {
	switch l.dollar.phase {
	case dollarInBody:
		return l.scanDollarBody()
	case dollarAwaitingTag:
		return l.scanDollarEnd()
	}

	start := l.pos
	if l.atEOF() {
		return token.Token{Type: token.EOF, Span: token.Span{Start: l.limit, End: l.limit}}, ""
	}

	var (
		typ token.TokenType
		err string
	)

	switch ch := l.ch; {
	case isSpace(ch):
		for !l.atEOF() && isSpace(l.ch) {
			l.readChar()
		}
		typ = token.WHITESPACE
	case ch == '-' && l.peekChar() == '-':
		for !l.atEOF() && l.ch != '\n' {
			l.readChar()
		}
		typ = token.LINE_COMMENT
	case ch == '/' && l.peekChar() == '*':
		typ = token.BLOCK_COMMENT
		if !l.readBlockComment() {
			err = errUnterminatedComment
		}
	case ch == '\\':
		for !l.atEOF() && l.ch != '\n' {
			l.readChar()
		}
		typ = token.META_COMMAND
	case ch == '\'':
		typ = token.STRING
		if !l.readString() {
			err = errUnterminatedString
		}
	case ch == '"':
		typ = token.QUOTED_IDENT
		if !l.readQuoted('"') {
			err = errUnterminatedIdent
		}
	case ch == '`':
		typ = token.BACKTICK_IDENT
		if !l.readQuoted('`') {
			err = errUnterminatedIdent
		}
	case ch == ':':
		typ, err = l.readColon()
	case ch == '$':
		return l.scanDollar()
	case (ch == '@' || ch == '?') && isIdentStart(l.peekChar()) && l.peekChar() < 0x80:
		l.readChar()
		l.readIdentifier()
		typ = token.PARAM
	case isDigit(ch) || (ch == '.' && isDigit(l.peekChar())):
		typ = l.readNumber()
	case isIdentStart(ch):
		typ, err = l.readWord()
	case ch == '.':
		l.readChar()
		typ = token.DOT
	case ch == ',':
		l.readChar()
		typ = token.COMMA
	case ch == ';':
		l.readChar()
		typ = token.SEMICOLON
	case ch == '(':
		l.readChar()
		typ = token.LPAREN
	case ch == ')':
		l.readChar()
		typ = token.RPAREN
	case ch == '[':
		l.readChar()
		typ = token.LBRACKET
	case ch == ']':
		l.readChar()
		typ = token.RBRACKET
	default:
		if n := l.matchOperator(); n > 0 {
			l.advance(n)
			typ = token.OP
		} else {
			l.readChar()
			typ = token.ILLEGAL
			err = fmt.Sprintf(errUnexpectedChar, l.input[start:l.pos])
		}
	}

	tok := token.Token{Type: typ, Literal: l.input[start:l.pos], Span: token.Span{Start: start, End: l.pos}}
	if typ == token.IDENT {
		tok.Keyword, _ = token.LookupKeyword(tok.Literal)
	}
	return tok, err
}

// ---------- Scanners ----------

// readBlockComment consumes a possibly nested /* ... */ comment.
func (l *Lexer) readBlockComment() bool {
	l.advance(2)
	depth := 1
	for !l.atEOF() {
		switch {
		case l.ch == '*' && l.peekChar() == '/':
			l.advance(2)
			depth--
			if depth == 0 {
				return true
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.advance(2)
			depth++
		default:
			l.readChar()
		}
	}
	return false
}

// readString consumes a single-quoted string with '' escapes, followed by
// any further segments separated only by whitespace, which PostgreSQL
// concatenates into one literal.
func (l *Lexer) readString() bool {
	for {
		if !l.readQuoted('\'') {
			return false
		}
		if !l.continuesString() {
			return true
		}
	}
}

// continuesString reports whether another quoted segment follows after
// whitespace, and moves onto its opening quote when it does.
func (l *Lexer) continuesString() bool {
	k := 0
	for isSpace(l.peekAt(k)) && l.pos+k < l.limit {
		k++
	}
	if l.peekAt(k) != '\'' || l.pos+k >= l.limit {
		return false
	}
	l.advance(k)
	return true
}

// readQuoted consumes a region opened and closed by quote, where a doubled
// quote stands for itself.
func (l *Lexer) readQuoted(quote byte) bool {
	l.readChar()
	for !l.atEOF() {
		if l.ch == quote {
			if l.peekChar() == quote {
				l.advance(2)
				continue
			}
			l.readChar()
			return true
		}
		l.readChar()
	}
	return false
}

// readEscapeString consumes an E'...' string, where a backslash escapes the
// next character.
func (l *Lexer) readEscapeString() bool {
	l.advance(2)
	for !l.atEOF() {
		switch {
		case l.ch == '\\':
			l.advance(2)
		case l.ch == '\'' && l.peekChar() == '\'':
			l.advance(2)
		case l.ch == '\'':
			l.readChar()
			return true
		default:
			l.readChar()
		}
	}
	return false
}

// readColon handles ':' and everything that may start with it: casts,
// assignment, named parameters and colon-prefixed quoted literals.
func (l *Lexer) readColon() (token.TokenType, string) {
	next := l.peekChar()
	switch {
	case next == ':':
		l.advance(2)
		return token.DCOLON, ""
	case next == '=':
		l.advance(2)
		return token.COLON_EQ, ""
	case next == '"':
		l.readChar()
		if !l.readQuoted('"') {
			return token.QUOTED_IDENT, errUnterminatedIdent
		}
		return token.QUOTED_IDENT, ""
	case next == '\'':
		l.readChar()
		if !l.readString() {
			return token.STRING, errUnterminatedString
		}
		return token.STRING, ""
	case isIdentStart(next) && next < 0x80:
		l.readChar()
		l.readIdentifier()
		return token.PARAM, ""
	default:
		l.readChar()
		return token.COLON, ""
	}
}

// readWord consumes an identifier or keyword, along with the string prefixes
// that look like one (E'', B'', X'', N'', U&'').
func (l *Lexer) readWord() (token.TokenType, string) {
	next := l.peekChar()
	switch l.ch {
	case 'e', 'E':
		if next == '\'' {
			if !l.readEscapeString() {
				return token.ESCAPE_STRING, errUnterminatedString
			}
			return token.ESCAPE_STRING, ""
		}
	case 'b', 'B', 'x', 'X':
		if next == '\'' {
			l.readChar()
			if !l.readString() {
				return token.BIT_STRING, errUnterminatedString
			}
			return token.BIT_STRING, ""
		}
	case 'n', 'N':
		if next == '\'' {
			l.readChar()
			if !l.readString() {
				return token.STRING, errUnterminatedString
			}
			return token.STRING, ""
		}
	case 'u', 'U':
		if next == '&' && l.peekAt(2) == '\'' {
			l.advance(2)
			if !l.readString() {
				return token.STRING, errUnterminatedString
			}
			return token.STRING, ""
		}
	}
	l.readIdentifier()
	return token.IDENT, ""
}

// readIdentifier reads the rest of an unquoted identifier.
func (l *Lexer) readIdentifier() {
	for !l.atEOF() && isIdentPart(l.ch) {
		l.readChar()
	}
}

// readNumber reads integer and decimal literals: hex/octal/binary prefixes,
// underscore digit separators, fractions and exponents.
func (l *Lexer) readNumber() token.TokenType {
	if l.ch == '0' {
		var isRadix func(byte) bool
		switch l.peekChar() {
		case 'x', 'X':
			isRadix = isHexDigit
		case 'o', 'O':
			isRadix = func(c byte) bool { return c >= '0' && c <= '7' }
		case 'b', 'B':
			isRadix = func(c byte) bool { return c == '0' || c == '1' }
		}
		if isRadix != nil && isRadix(l.peekAt(2)) {
			l.advance(2)
			l.readDigits(isRadix)
			return token.INTEGER
		}
	}

	typ := token.INTEGER
	if isDigit(l.ch) {
		l.readDigits(isDigit)
	}
	if l.ch == '.' && l.peekChar() != '.' {
		typ = token.DECIMAL
		l.readChar()
		if isDigit(l.ch) {
			l.readDigits(isDigit)
		}
	}
	if (l.ch == 'e' || l.ch == 'E') && l.exponentFollows() {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		l.readDigits(isDigit)
	}
	return typ
}

// readDigits consumes digits accepted by ok, allowing single underscores
// between groups.
func (l *Lexer) readDigits(ok func(byte) bool) {
	for !l.atEOF() {
		switch {
		case ok(l.ch):
			l.readChar()
		case l.ch == '_' && ok(l.peekChar()):
			l.readChar()
		default:
			return
		}
	}
}

func (l *Lexer) exponentFollows() bool {
	next := l.peekChar()
	if next == '+' || next == '-' {
		return isDigit(l.peekAt(2))
	}
	return isDigit(next)
}

// operators lists every operator symbol the grammar knows, longest first
// within each length bucket.
var operators = [][]string{
	3: {"->>", "#>>", "<<=", ">>=", "<->", "|>>", "<<|", "&<|", "|&>", "?-|", "?||", "@@@", "-|-", "||/", "@-@"},
	2: {"->", "#>", "!~", "~*", "<<", ">>", "##", "@>", "<@", "&<", "&>", "<^", "^>", "?#", "?-", "?|",
		"@@", "@?", "#-", "?&", "||", "^@", "|/", "!!", "<=", ">=", "!=", "<>", "=>"},
	1: {"~", "|", "&", "#", "?", "@", "!", "+", "-", "*", "/", "%", "^", "=", "<", ">"},
}

// matchOperator returns the length of the longest operator at the current
// position, or zero.
func (l *Lexer) matchOperator() int {
	end := l.pos + 3
	if end > l.limit {
		end = l.limit
	}
	l.touch(end - 1)
	rest := l.input[l.pos:end]
	for n := len(rest); n >= 1; n-- {
		for _, op := range operators[n] {
			if strings.HasPrefix(rest, op) {
				return n
			}
		}
	}
	return 0
}

// ---------- Character Classes ----------

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

// isDigit returns true if ch is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// isIdentStart accepts ASCII letters, underscore and any byte of a
// multi-byte UTF-8 sequence, as PostgreSQL does.
func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// ---------- Bulk Tokenization ----------

// Tokenize returns every token of input, trivia included, up to and
// including EOF, along with any lexical diagnostics.
func Tokenize(input string) ([]token.Token, []Diagnostic) {
	l := NewLexer(input)
	var (
		tokens []token.Token
		diags  []Diagnostic
	)
	for {
		tok, err := l.NextToken()
		if err != "" {
			diags = append(diags, newDiagnostic(tok.Span, err))
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, diags
		}
	}
}
