package formula

type tokenType int

const (
	tokEOF tokenType = iota
	tokIllegal
	tokNumber
	tokIdent
	tokPlus     // +
	tokMinus    // -
	tokStar     // *
	tokSlash    // /
	tokPercent  // %
	tokLt       // <
	tokLe       // <=
	tokGt       // >
	tokGe       // >=
	tokEq       // ==
	tokNotEq    // !=
	tokAnd      // &&
	tokOr       // ||
	tokBang     // !
	tokQuestion // ?
	tokColon    // :
	tokComma    // ,
	tokLParen   // (
	tokRParen   // )
)

var tokenNames = [...]string{
	tokEOF:      "EOF",
	tokIllegal:  "ILLEGAL",
	tokNumber:   "NUMBER",
	tokIdent:    "IDENT",
	tokPlus:     "+",
	tokMinus:    "-",
	tokStar:     "*",
	tokSlash:    "/",
	tokPercent:  "%",
	tokLt:       "<",
	tokLe:       "<=",
	tokGt:       ">",
	tokGe:       ">=",
	tokEq:       "==",
	tokNotEq:    "!=",
	tokAnd:      "&&",
	tokOr:       "||",
	tokBang:     "!",
	tokQuestion: "?",
	tokColon:    ":",
	tokComma:    ",",
	tokLParen:   "(",
	tokRParen:   ")",
}

func (t tokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "UNKNOWN"
}

type token struct {
	typ     tokenType
	literal string
}

// lexer walks the rewritten expression text byte by byte. Anything outside
// the grammar (assignment, semicolons, string quotes, leftover dots from an
// unsubstituted method call) comes out as tokIllegal, which the parser turns
// into a compile failure.
type lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *lexer) nextToken() token {
	var tok token

	l.skipWhitespace()

	switch l.ch {
	case '+':
		tok = token{typ: tokPlus, literal: "+"}
	case '-':
		tok = token{typ: tokMinus, literal: "-"}
	case '*':
		tok = token{typ: tokStar, literal: "*"}
	case '/':
		tok = token{typ: tokSlash, literal: "/"}
	case '%':
		tok = token{typ: tokPercent, literal: "%"}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token{typ: tokLe, literal: "<="}
		} else {
			tok = token{typ: tokLt, literal: "<"}
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token{typ: tokGe, literal: ">="}
		} else {
			tok = token{typ: tokGt, literal: ">"}
		}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token{typ: tokEq, literal: "=="}
		} else {
			// Plain assignment is not part of the grammar.
			tok = token{typ: tokIllegal, literal: "="}
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token{typ: tokNotEq, literal: "!="}
		} else {
			tok = token{typ: tokBang, literal: "!"}
		}
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			tok = token{typ: tokAnd, literal: "&&"}
		} else {
			tok = token{typ: tokIllegal, literal: "&"}
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok = token{typ: tokOr, literal: "||"}
		} else {
			tok = token{typ: tokIllegal, literal: "|"}
		}
	case '?':
		tok = token{typ: tokQuestion, literal: "?"}
	case ':':
		tok = token{typ: tokColon, literal: ":"}
	case ',':
		tok = token{typ: tokComma, literal: ","}
	case '(':
		tok = token{typ: tokLParen, literal: "("}
	case ')':
		tok = token{typ: tokRParen, literal: ")"}
	case '.':
		if isDigit(l.peekChar()) {
			tok.literal = l.readNumber()
			tok.typ = tokNumber
			return tok
		}
		tok = token{typ: tokIllegal, literal: "."}
	case 0:
		tok = token{typ: tokEOF, literal: ""}
	default:
		if isLetter(l.ch) {
			tok.literal = l.readIdentifier()
			tok.typ = tokIdent
			return tok
		}
		if isDigit(l.ch) {
			tok.literal = l.readNumber()
			tok.typ = tokNumber
			return tok
		}
		tok = token{typ: tokIllegal, literal: string(l.ch)}
	}

	l.readChar()
	return tok
}

func (l *lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	return l.input[position:l.position]
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
