package lexer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

type TokenType string

const (
	TokenKeyword  TokenType = "KEYWORD"
	TokenOperator TokenType = "OPERATOR"
	TokenIdent    TokenType = "IDENT"
	TokenString   TokenType = "YARN"
	TokenInteger  TokenType = "NUMBR"
	TokenFloat    TokenType = "NUMBAR"
	TokenBoolean  TokenType = "TROOF"
	TokenTypeName TokenType = "TYPE"
	TokenIllegal  TokenType = "ILLEGAL"
)

type Token struct {
	Type   TokenType
	Lexeme string // raw source text
	Value  string // decoded string literal, or the diagnostic for ILLEGAL
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("[%s] '%s'", t.Type, t.Lexeme)
}

// Is reports whether the token is the given keyword or operator phrase.
func (t Token) Is(phrase string) bool {
	return (t.Type == TokenKeyword || t.Type == TokenOperator) && t.Lexeme == phrase
}

// IsLiteral reports whether the token is a literal value.
func (t Token) IsLiteral() bool {
	switch t.Type {
	case TokenString, TokenInteger, TokenFloat, TokenBoolean, TokenTypeName:
		return true
	}
	return false
}

// maxPhraseWords is the length of the longest multi-word keyword.
const maxPhraseWords = 3

var phrases = map[string]TokenType{
	// program and declarations
	"HAI":      TokenKeyword,
	"KTHXBYE":  TokenKeyword,
	"WAZZUP":   TokenKeyword,
	"BUHBYE":   TokenKeyword,
	"I HAS A":  TokenKeyword,
	"ITZ":      TokenKeyword,
	"R":        TokenKeyword,
	"IS NOW A": TokenKeyword,
	"A":        TokenKeyword,
	"AN":       TokenKeyword,
	"MKAY":     TokenKeyword,
	"VISIBLE":  TokenKeyword,
	"GIMMEH":   TokenKeyword,

	// conditionals
	"O RLY?": TokenKeyword,
	"YA RLY": TokenKeyword,
	"MEBBE":  TokenKeyword,
	"NO WAI": TokenKeyword,
	"OIC":    TokenKeyword,
	"WTF?":   TokenKeyword,
	"OMG":    TokenKeyword,
	"OMGWTF": TokenKeyword,
	"GTFO":   TokenKeyword,

	// loops
	"IM IN YR":    TokenKeyword,
	"IM OUTTA YR": TokenKeyword,
	"UPPIN YR":    TokenKeyword,
	"NERFIN YR":   TokenKeyword,
	"TIL":         TokenKeyword,
	"WILE":        TokenKeyword,

	// operators
	"SUM OF":      TokenOperator,
	"DIFF OF":     TokenOperator,
	"PRODUKT OF":  TokenOperator,
	"QUOSHUNT OF": TokenOperator,
	"MOD OF":      TokenOperator,
	"BIGGR OF":    TokenOperator,
	"SMALLR OF":   TokenOperator,
	"BOTH SAEM":   TokenOperator,
	"DIFFRINT":    TokenOperator,
	"BOTH OF":     TokenOperator,
	"EITHER OF":   TokenOperator,
	"WON OF":      TokenOperator,
	"ANY OF":      TokenOperator,
	"ALL OF":      TokenOperator,
	"NOT":         TokenOperator,
	"SMOOSH":      TokenOperator,
	"MAEK":        TokenOperator,
	"!":           TokenOperator,
}

var (
	integerPattern = regexp.MustCompile(`^-?[0-9]+$`)
	floatPattern   = regexp.MustCompile(`^-?[0-9]*\.[0-9]+$`)
	identPattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

type Scanner struct {
	source  []rune
	tokens  []Token
	current int
	line    int
	column  int
}

func NewScanner(source string) *Scanner {
	return &Scanner{
		source: []rune(source),
		line:   1,
		column: 1,
	}
}

// Tokenize scans source and returns its tokens in source order. It never
// fails: anomalies come back as ILLEGAL tokens.
func Tokenize(source string) []Token {
	return NewScanner(source).ScanTokens()
}

func (s *Scanner) ScanTokens() []Token {
	for {
		s.sanitize()
		if s.isAtEnd() {
			break
		}
		if s.peek() == '"' {
			s.string()
			continue
		}
		s.word()
	}
	return s.tokens
}

func (s *Scanner) word() {
	line, col := s.line, s.column

	words := s.peekWords(maxPhraseWords)
	for n := len(words); n > 1; n-- {
		phrase := strings.Join(words[:n], " ")
		if t, ok := phrases[phrase]; ok {
			s.skipWords(n)
			s.addToken(t, phrase, "", line, col)
			return
		}
	}

	text := s.readWord()
	switch text {
	case "BTW":
		s.skipLine()
		return
	case "OBTW":
		s.blockComment(line, col)
		return
	}

	// VISIBLE x! suppresses the newline; split the bang off the word.
	if len(text) > 1 && strings.HasSuffix(text, "!") {
		s.classify(strings.TrimSuffix(text, "!"), line, col)
		s.addToken(TokenOperator, "!", "", line, col+len([]rune(text))-1)
		return
	}
	s.classify(text, line, col)
}

func (s *Scanner) classify(text string, line, col int) {
	if t, ok := phrases[text]; ok {
		s.addToken(t, text, "", line, col)
		return
	}
	switch {
	case text == "WIN" || text == "FAIL":
		s.addToken(TokenBoolean, text, "", line, col)
	case isTypeName(text):
		s.addToken(TokenTypeName, text, "", line, col)
	case integerPattern.MatchString(text):
		s.addToken(TokenInteger, text, "", line, col)
	case floatPattern.MatchString(text):
		s.addToken(TokenFloat, text, "", line, col)
	case identPattern.MatchString(text):
		s.addToken(TokenIdent, text, "", line, col)
	default:
		s.addToken(TokenIllegal, text, fmt.Sprintf("unrecognized token '%s'", text), line, col)
	}
}

func isTypeName(text string) bool {
	switch text {
	case "NOOB", "TROOF", "NUMBR", "NUMBAR", "YARN":
		return true
	}
	return false
}

// string scans a double-quoted literal. Literals never span lines.
func (s *Scanner) string() {
	line, col := s.line, s.column
	start := s.current
	s.advance() // opening quote

	var value strings.Builder
	for !s.isAtEnd() && s.peek() != '\n' {
		c := s.advance()
		if c == '"' {
			s.addToken(TokenString, string(s.source[start:s.current]), value.String(), line, col)
			return
		}
		if c == ':' && !s.isAtEnd() {
			if r, ok := escapes[s.peek()]; ok {
				s.advance()
				value.WriteRune(r)
				continue
			}
		}
		value.WriteRune(c)
	}

	s.addToken(TokenIllegal, string(s.source[start:s.current]), "unterminated string literal", line, col)
}

var escapes = map[rune]rune{
	')': '\n',
	'>': '\t',
	'o': '\a',
	'"': '"',
	':': ':',
}

func (s *Scanner) blockComment(line, col int) {
	for {
		s.sanitize()
		if s.isAtEnd() {
			s.addToken(TokenIllegal, "OBTW", "unterminated OBTW comment", line, col)
			return
		}
		if s.peek() == '"' {
			s.advance()
			continue
		}
		if s.readWord() == "TLDR" {
			return
		}
	}
}

// peekWords returns up to n whitespace-separated words starting at the
// current position without consuming them. It stops at a line break or a
// string literal.
func (s *Scanner) peekWords(n int) []string {
	var words []string
	i := s.current
	for len(words) < n {
		for i < len(s.source) && (s.source[i] == ' ' || s.source[i] == '\t' || s.source[i] == '\r') {
			i++
		}
		if i >= len(s.source) || s.source[i] == '\n' || s.source[i] == '"' {
			break
		}
		start := i
		for i < len(s.source) && !isWordBreak(s.source[i]) {
			i++
		}
		words = append(words, string(s.source[start:i]))
	}
	return words
}

func (s *Scanner) skipWords(n int) {
	for k := 0; k < n; k++ {
		if k > 0 {
			s.sanitizeLine()
		}
		s.readWord()
	}
}

func (s *Scanner) readWord() string {
	start := s.current
	for !s.isAtEnd() && !isWordBreak(s.peek()) {
		s.advance()
	}
	return string(s.source[start:s.current])
}

func isWordBreak(r rune) bool {
	return unicode.IsSpace(r) || r == '"'
}

func (s *Scanner) skipLine() {
	for !s.isAtEnd() && s.peek() != '\n' {
		s.advance()
	}
}

func (s *Scanner) addToken(t TokenType, lexeme, value string, line, col int) {
	s.tokens = append(s.tokens, Token{Type: t, Lexeme: lexeme, Value: value, Line: line, Column: col})
}

func (s *Scanner) advance() rune {
	c := s.source[s.current]
	s.current++
	if c == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
	return c
}

func (s *Scanner) peek() rune {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) sanitize() {
	for !s.isAtEnd() && unicode.IsSpace(s.peek()) {
		s.advance()
	}
}

// sanitizeLine skips blanks without crossing a line break.
func (s *Scanner) sanitizeLine() {
	for !s.isAtEnd() && s.peek() != '\n' && unicode.IsSpace(s.peek()) {
		s.advance()
	}
}

// GroupByLine buckets tokens by their line number, keeping source order.
func GroupByLine(tokens []Token) [][]Token {
	var lines [][]Token
	for i := 0; i < len(tokens); {
		j := i
		for j < len(tokens) && tokens[j].Line == tokens[i].Line {
			j++
		}
		lines = append(lines, tokens[i:j])
		i = j
	}
	return lines
}
