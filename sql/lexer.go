package sql

import "strings"

type Token struct {
	Type  TokenType
	Value string
}

type TokenType int

const (
	Identifier TokenType = iota
	String
	Int
	Float
	Comma
	Semicolon
	ParenOpen
	ParenClose
	Equals
	Create
	Drop
	Refresh
	Materialized
	View
	Views
	Show
	In
	As
	With
	Comment
	Explain
	Use
	If
	Not
	Exists
	True
	False
	EOF
	Unknown
)

func (token Token) String() string {
	switch token.Type {
	case Identifier:
		return "Identifier(" + token.Value + ")"
	case String:
		return "String(" + token.Value + ")"
	case Int:
		return "Int(" + token.Value + ")"
	case Float:
		return "Float(" + token.Value + ")"
	case Comma:
		return "Comma"
	case Semicolon:
		return "Semicolon"
	case ParenOpen:
		return "ParenOpen"
	case ParenClose:
		return "ParenClose"
	case Equals:
		return "Equals"
	case EOF:
		return "EOF"
	case Unknown:
		return "Unknown(" + token.Value + ")"
	default:
		return strings.ToUpper(token.Value)
	}
}

type Lexer struct {
	sql          string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(sql string) *Lexer {
	lexer := &Lexer{sql: sql}
	lexer.readChar()
	return lexer
}

func (lexer *Lexer) readChar() {
	if lexer.readPosition >= len(lexer.sql) {
		lexer.ch = 0
	} else {
		lexer.ch = lexer.sql[lexer.readPosition]
	}
	lexer.position = lexer.readPosition
	lexer.readPosition++
}

func (lexer *Lexer) NextToken() Token {
	var token Token

	lexer.skipWhitespace()

	switch lexer.ch {
	case ',':
		token = Token{Type: Comma, Value: string(lexer.ch)}
	case ';':
		token = Token{Type: Semicolon, Value: string(lexer.ch)}
	case '(':
		token = Token{Type: ParenOpen, Value: string(lexer.ch)}
	case ')':
		token = Token{Type: ParenClose, Value: string(lexer.ch)}
	case '=':
		token = Token{Type: Equals, Value: string(lexer.ch)}
	case 0:
		return Token{Type: EOF, Value: ""}
	case '\'':
		token = Token{Type: String, Value: lexer.readString()}
	default:
		if isDigit(lexer.ch) || (lexer.ch == '-' && isDigit(lexer.peekChar())) {
			num := lexer.readNumber()
			if lexer.ch == '.' && isDigit(lexer.peekChar()) {
				lexer.readChar() // consume '.'
				decimal := lexer.readNumber()
				return Token{Type: Float, Value: num + "." + decimal}
			}
			return Token{Type: Int, Value: num}
		} else if isIdentifierStart(lexer.ch) {
			literal := lexer.readIdentifier()
			return Token{Type: lookupIdentifier(literal), Value: literal}
		}
		token = Token{Type: Unknown, Value: string(lexer.ch)}
	}

	lexer.readChar()
	return token
}

func (lexer *Lexer) PeekToken() Token {
	savedPosition := lexer.position
	savedReadPosition := lexer.readPosition
	savedCh := lexer.ch

	token := lexer.NextToken()

	lexer.position = savedPosition
	lexer.readPosition = savedReadPosition
	lexer.ch = savedCh

	return token
}

// Remainder returns the unread input with surrounding whitespace and a
// trailing semicolon removed. The lexer is left at EOF.
func (lexer *Lexer) Remainder() string {
	rest := ""
	if lexer.position < len(lexer.sql) {
		rest = lexer.sql[lexer.position:]
	}
	lexer.position = len(lexer.sql)
	lexer.readPosition = len(lexer.sql) + 1
	lexer.ch = 0

	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, ";")
	return strings.TrimSpace(rest)
}

func (lexer *Lexer) peekChar() byte {
	if lexer.readPosition >= len(lexer.sql) {
		return 0
	}
	return lexer.sql[lexer.readPosition]
}

func (lexer *Lexer) skipWhitespace() {
	for lexer.ch == ' ' || lexer.ch == '\t' || lexer.ch == '\n' || lexer.ch == '\r' {
		lexer.readChar()
	}
}

// readIdentifier reads a possibly dotted identifier such as cat.sch.mv.
func (lexer *Lexer) readIdentifier() string {
	position := lexer.position
	for isIdentifierChar(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

// readString reads a single quoted literal. A doubled quote is an escaped quote.
func (lexer *Lexer) readString() string {
	var builder strings.Builder
	for {
		lexer.readChar()
		if lexer.ch == 0 {
			break
		}
		if lexer.ch == '\'' {
			if lexer.peekChar() == '\'' {
				lexer.readChar()
				builder.WriteByte('\'')
				continue
			}
			break
		}
		builder.WriteByte(lexer.ch)
	}
	return builder.String()
}

func (lexer *Lexer) readNumber() string {
	position := lexer.position
	if lexer.ch == '-' {
		lexer.readChar()
	}
	for isDigit(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

func isIdentifierStart(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isIdentifierChar(ch byte) bool {
	return isIdentifierStart(ch) || ch == '.' || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func lookupIdentifier(id string) TokenType {
	switch strings.ToUpper(id) {
	case "CREATE":
		return Create
	case "DROP":
		return Drop
	case "REFRESH":
		return Refresh
	case "MATERIALIZED":
		return Materialized
	case "VIEW":
		return View
	case "VIEWS":
		return Views
	case "SHOW":
		return Show
	case "IN":
		return In
	case "AS":
		return As
	case "WITH":
		return With
	case "COMMENT":
		return Comment
	case "EXPLAIN":
		return Explain
	case "USE":
		return Use
	case "IF":
		return If
	case "NOT":
		return Not
	case "EXISTS":
		return Exists
	case "TRUE":
		return True
	case "FALSE":
		return False
	default:
		return Identifier
	}
}

func tokenize(sql string) []Token {
	lexer := NewLexer(sql)

	var tokens []Token

	for {
		token := lexer.NextToken()
		if token.Type == EOF {
			return append(tokens, token)
		}
		tokens = append(tokens, token)
	}
}
