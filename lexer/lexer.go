// Package lexer tokenizes Lox-like source text for the parser in a
// single pass with one character of lookahead (position, readPosition,
// current char), tracking source lines and recognizing double-quoted
// strings, float literals, and line comments.
package lexer

import (
	"github.com/loxlang/loxvm/token"
)

// Lexer converts source text into a stream of tokens, one NextToken() call
// at a time.
type Lexer struct {
	input        string
	position     int  // current position in input (points to the current char)
	readPosition int  // current reading position in input (points to the char that will be read next)
	ch           byte // current char under examination
	line         int
}

// New creates a Lexer positioned at the first character of input.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.ch {
		case ' ', '\t', '\r':
			l.readChar()
		case '\n':
			l.line++
			l.readChar()
		case '/':
			if l.peekChar() == '/' {
				for l.ch != '\n' && l.ch != 0 {
					l.readChar()
				}
				continue
			}
			return
		default:
			return
		}
	}
}

func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[position:l.position]
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString consumes a double-quoted string literal, returning its
// contents without the surrounding quotes. An unterminated string runs to
// EOF; the parser reports that as a compile error.
func (l *Lexer) readString() string {
	position := l.position + 1
	for {
		l.readChar()
		if l.ch == '\n' {
			l.line++
		}
		if l.ch == '"' || l.ch == 0 {
			break
		}
	}
	return l.input[position:l.position]
}

// NextToken returns the next token in the input, advancing past it.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	line := l.line
	var tok token.Token

	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.EQ, Literal: "==", Line: line}
		} else {
			tok = newToken(token.ASSIGN, l.ch, line)
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NOT_EQ, Literal: "!=", Line: line}
		} else {
			tok = newToken(token.BANG, l.ch, line)
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.LT_EQ, Literal: "<=", Line: line}
		} else {
			tok = newToken(token.LT, l.ch, line)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.GT_EQ, Literal: ">=", Line: line}
		} else {
			tok = newToken(token.GT, l.ch, line)
		}
	case '+':
		tok = newToken(token.PLUS, l.ch, line)
	case '-':
		tok = newToken(token.MINUS, l.ch, line)
	case '*':
		tok = newToken(token.ASTERISK, l.ch, line)
	case '/':
		tok = newToken(token.SLASH, l.ch, line)
	case '.':
		tok = newToken(token.DOT, l.ch, line)
	case ',':
		tok = newToken(token.COMMA, l.ch, line)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, line)
	case '(':
		tok = newToken(token.LPAREN, l.ch, line)
	case ')':
		tok = newToken(token.RPAREN, l.ch, line)
	case '{':
		tok = newToken(token.LBRACE, l.ch, line)
	case '}':
		tok = newToken(token.RBRACE, l.ch, line)
	case '"':
		tok.Type = token.STRING
		tok.Literal = l.readString()
		tok.Line = line
	case 0:
		tok.Literal = ""
		tok.Type = token.EOF
		tok.Line = line
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			tok.Line = line
			return tok
		} else if isDigit(l.ch) {
			tok.Type = token.NUMBER
			tok.Literal = l.readNumber()
			tok.Line = line
			return tok
		}
		tok = newToken(token.ILLEGAL, l.ch, line)
	}

	l.readChar()
	return tok
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func newToken(tokenType token.Type, ch byte, line int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Line: line}
}
