// Package sql is flintdb's minimal SQL front end: a hand-rolled
// tokenizer and recursive-descent parser feeding a small executor that
// dispatches onto the storage engine. Grounded on
// original_source/src/sql/{tokenizer,parser,statement}.rs for token and
// statement shape.
package sql

import (
	"strings"

	"github.com/flintdb/flintdb/internal/errs"
)

// Kind classifies a scanned token.
type Kind int

const (
	KindEOF Kind = iota
	KindKeyword
	KindIdent
	KindNumber
	KindString
	KindPunct
)

// Token is one scanned lexeme.
type Token struct {
	Kind Kind
	Text string
}

var keywords = map[string]bool{
	"CREATE": true, "TABLE": true, "DROP": true, "INSERT": true, "INTO": true,
	"VALUES": true, "SELECT": true, "FROM": true, "SHOW": true, "DATABASES": true,
	"TABLES": true, "DESCRIBE": true, "USE": true, "DATABASE": true, "DEFAULT": true,
	"PRIMARY": true, "KEY": true, "NOT": true, "NULL": true, "UPDATE": true,
	"DELETE": true, "SET": true, "WHERE": true, "AND": true,
	"INT": true, "SMALLINT": true, "TINYINT": true, "BIGINT": true, "FLOAT": true,
	"DOUBLE": true, "VARCHAR": true, "TEXT": true, "DATETIME": true,
	"TIMESTAMP": true, "BOOLEAN": true,
}

// Tokenizer scans a SQL statement into tokens.
type Tokenizer struct {
	src []rune
	pos int
}

// NewTokenizer returns a scanner positioned at the start of src.
func NewTokenizer(src string) *Tokenizer {
	return &Tokenizer{src: []rune(src)}
}

func (t *Tokenizer) peek() rune {
	if t.pos >= len(t.src) {
		return 0
	}
	return t.src[t.pos]
}

func (t *Tokenizer) advance() rune {
	r := t.peek()
	t.pos++
	return r
}

func (t *Tokenizer) skipSpace() {
	for t.pos < len(t.src) && (t.src[t.pos] == ' ' || t.src[t.pos] == '\t' || t.src[t.pos] == '\n' || t.src[t.pos] == '\r') {
		t.pos++
	}
}

// Next returns the next token, or a Kind=KindEOF token at the end of input.
func (t *Tokenizer) Next() (Token, error) {
	t.skipSpace()
	if t.pos >= len(t.src) {
		return Token{Kind: KindEOF}, nil
	}
	c := t.peek()

	switch {
	case c == '\'' || c == '"':
		return t.scanString(c)
	case isDigit(c) || (c == '-' && t.pos+1 < len(t.src) && isDigit(t.src[t.pos+1])):
		return t.scanNumber()
	case isIdentStart(c):
		return t.scanIdentOrKeyword()
	case strings.ContainsRune("(),;*.=<>", c):
		t.advance()
		return Token{Kind: KindPunct, Text: string(c)}, nil
	default:
		return Token{}, errs.New(errs.Syntax, "unexpected character %q", c)
	}
}

func (t *Tokenizer) scanString(quote rune) (Token, error) {
	t.advance()
	var sb strings.Builder
	for {
		if t.pos >= len(t.src) {
			return Token{}, errs.New(errs.Syntax, "unterminated string literal")
		}
		c := t.advance()
		if c == quote {
			break
		}
		sb.WriteRune(c)
	}
	return Token{Kind: KindString, Text: sb.String()}, nil
}

func (t *Tokenizer) scanNumber() (Token, error) {
	start := t.pos
	if t.peek() == '-' {
		t.advance()
	}
	for t.pos < len(t.src) && (isDigit(t.src[t.pos]) || t.src[t.pos] == '.') {
		t.pos++
	}
	return Token{Kind: KindNumber, Text: string(t.src[start:t.pos])}, nil
}

func (t *Tokenizer) scanIdentOrKeyword() (Token, error) {
	start := t.pos
	for t.pos < len(t.src) && isIdentPart(t.src[t.pos]) {
		t.pos++
	}
	text := string(t.src[start:t.pos])
	upper := strings.ToUpper(text)
	if keywords[upper] {
		return Token{Kind: KindKeyword, Text: upper}, nil
	}
	return Token{Kind: KindIdent, Text: text}, nil
}

func isDigit(r rune) bool      { return r >= '0' && r <= '9' }
func isIdentStart(r rune) bool { return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isIdentPart(r rune) bool  { return isIdentStart(r) || isDigit(r) }

// Tokenize scans all of src and returns its tokens without the trailing EOF.
func Tokenize(src string) ([]Token, error) {
	tk := NewTokenizer(src)
	var out []Token
	for {
		t, err := tk.Next()
		if err != nil {
			return nil, err
		}
		if t.Kind == KindEOF {
			return out, nil
		}
		out = append(out, t)
	}
}
