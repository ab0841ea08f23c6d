package sql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type StatementType int

const (
	CreateMaterializedViewStatementType StatementType = iota
	DropMaterializedViewStatementType
	RefreshMaterializedViewStatementType
	ShowMaterializedViewsStatementType
	ExplainStatementType
	UseStatementType
)

type Statement interface {
	Type() StatementType
}

// QualifiedName is an object name as written in a statement, with one to
// three parts.
type QualifiedName struct {
	Parts []string
}

func NewQualifiedName(parts ...string) QualifiedName {
	return QualifiedName{Parts: parts}
}

func (name QualifiedName) String() string {
	return strings.Join(name.Parts, ".")
}

type CreateMaterializedViewStatement struct {
	Name        QualifiedName
	IfNotExists bool
	Comment     *string
	Properties  map[string]any
	Query       string
}

type DropMaterializedViewStatement struct {
	Name     QualifiedName
	IfExists bool
}

type RefreshMaterializedViewStatement struct {
	Name QualifiedName
}

type ShowMaterializedViewsStatement struct {
	// Schema is empty when the session defaults apply.
	Schema QualifiedName
}

type ExplainStatement struct {
	Statement Statement
}

type UseStatement struct {
	Catalog string
	Schema  string
}

func (s CreateMaterializedViewStatement) Type() StatementType {
	return CreateMaterializedViewStatementType
}

func (s DropMaterializedViewStatement) Type() StatementType {
	return DropMaterializedViewStatementType
}

func (s RefreshMaterializedViewStatement) Type() StatementType {
	return RefreshMaterializedViewStatementType
}

func (s ShowMaterializedViewsStatement) Type() StatementType {
	return ShowMaterializedViewsStatementType
}

func (s ExplainStatement) Type() StatementType {
	return ExplainStatementType
}

func (s UseStatement) Type() StatementType {
	return UseStatementType
}

type Parser struct {
	lexer *Lexer
}

func NewParser(sql string) *Parser {
	lexer := NewLexer(sql)
	return &Parser{lexer: lexer}
}

func (parser *Parser) Parse() (Statement, error) {
	statement, err := parser.parseStatement()
	if err != nil {
		return nil, err
	}
	if err := parser.expectEnd(); err != nil {
		return nil, err
	}
	return statement, nil
}

func (parser *Parser) parseStatement() (Statement, error) {
	token := parser.lexer.NextToken()
	switch token.Type {
	case Create:
		return ParseCreate(parser)
	case Drop:
		return ParseDrop(parser)
	case Refresh:
		return ParseRefresh(parser)
	case Show:
		return ParseShow(parser)
	case Explain:
		return ParseExplain(parser)
	case Use:
		return ParseUse(parser)
	case EOF:
		return nil, errors.New("empty statement")
	default:
		return nil, fmt.Errorf("unknown statement type: %s", token.Value)
	}
}

func (parser *Parser) expectEnd() error {
	token := parser.lexer.NextToken()
	if token.Type == Semicolon {
		token = parser.lexer.NextToken()
	}
	if token.Type != EOF {
		return fmt.Errorf("unexpected %s after end of statement", token)
	}
	return nil
}

// expectMaterializedView consumes MATERIALIZED VIEW.
func (parser *Parser) expectMaterializedView(verb string) error {
	if token := parser.lexer.NextToken(); token.Type != Materialized {
		return fmt.Errorf("expected MATERIALIZED after %s", verb)
	}
	if token := parser.lexer.NextToken(); token.Type != View {
		return errors.New("expected VIEW after MATERIALIZED")
	}
	return nil
}

func (parser *Parser) parseName(context string) (QualifiedName, error) {
	token := parser.lexer.NextToken()
	if token.Type != Identifier {
		return QualifiedName{}, fmt.Errorf("expected materialized view name after %s", context)
	}
	return NewQualifiedName(strings.Split(token.Value, ".")...), nil
}

func ParseCreate(parser *Parser) (Statement, error) {
	var statement CreateMaterializedViewStatement

	if err := parser.expectMaterializedView("CREATE"); err != nil {
		return nil, err
	}

	if parser.lexer.PeekToken().Type == If {
		parser.lexer.NextToken() // consume IF
		if parser.lexer.NextToken().Type != Not || parser.lexer.NextToken().Type != Exists {
			return nil, errors.New("expected IF NOT EXISTS")
		}
		statement.IfNotExists = true
	}

	name, err := parser.parseName("VIEW")
	if err != nil {
		return nil, err
	}
	statement.Name = name

	token := parser.lexer.NextToken()
	if token.Type == Comment {
		token = parser.lexer.NextToken()
		if token.Type != String {
			return nil, errors.New("expected string literal after COMMENT")
		}
		comment := token.Value
		statement.Comment = &comment
		token = parser.lexer.NextToken()
	}

	if token.Type == With {
		properties, err := parseProperties(parser)
		if err != nil {
			return nil, err
		}
		statement.Properties = properties
		token = parser.lexer.NextToken()
	}

	if token.Type != As {
		return nil, errors.New("expected AS before materialized view query")
	}

	statement.Query = parser.lexer.Remainder()
	if statement.Query == "" {
		return nil, errors.New("expected query after AS")
	}

	return statement, nil
}

// parseProperties parses: (key = value, ...)
func parseProperties(parser *Parser) (map[string]any, error) {
	if parser.lexer.NextToken().Type != ParenOpen {
		return nil, errors.New("expected ( after WITH")
	}

	properties := make(map[string]any)
	for {
		token := parser.lexer.NextToken()
		if token.Type != Identifier {
			return nil, errors.New("expected property name")
		}
		key := token.Value
		if _, exists := properties[key]; exists {
			return nil, fmt.Errorf("duplicate property: %s", key)
		}

		if parser.lexer.NextToken().Type != Equals {
			return nil, fmt.Errorf("expected = after property %s", key)
		}

		value, err := parsePropertyValue(parser.lexer.NextToken())
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", key, err)
		}
		properties[key] = value

		token = parser.lexer.NextToken()
		if token.Type == ParenClose {
			return properties, nil
		}
		if token.Type != Comma {
			return nil, errors.New("expected , or ) in property list")
		}
	}
}

func parsePropertyValue(token Token) (any, error) {
	switch token.Type {
	case String, Identifier:
		return token.Value, nil
	case Int:
		return strconv.ParseInt(token.Value, 10, 64)
	case Float:
		return strconv.ParseFloat(token.Value, 64)
	case True:
		return true, nil
	case False:
		return false, nil
	default:
		return nil, fmt.Errorf("unexpected value %s", token)
	}
}

func ParseDrop(parser *Parser) (Statement, error) {
	var statement DropMaterializedViewStatement

	if err := parser.expectMaterializedView("DROP"); err != nil {
		return nil, err
	}

	if parser.lexer.PeekToken().Type == If {
		parser.lexer.NextToken() // consume IF
		if parser.lexer.NextToken().Type != Exists {
			return nil, errors.New("expected IF EXISTS")
		}
		statement.IfExists = true
	}

	name, err := parser.parseName("VIEW")
	if err != nil {
		return nil, err
	}
	statement.Name = name

	return statement, nil
}

func ParseRefresh(parser *Parser) (Statement, error) {
	if err := parser.expectMaterializedView("REFRESH"); err != nil {
		return nil, err
	}

	name, err := parser.parseName("VIEW")
	if err != nil {
		return nil, err
	}

	return RefreshMaterializedViewStatement{Name: name}, nil
}

// ParseShow parses: SHOW MATERIALIZED VIEWS [IN catalog.schema]
func ParseShow(parser *Parser) (Statement, error) {
	var statement ShowMaterializedViewsStatement

	if parser.lexer.NextToken().Type != Materialized {
		return nil, errors.New("expected MATERIALIZED after SHOW")
	}
	if parser.lexer.NextToken().Type != Views {
		return nil, errors.New("expected VIEWS after MATERIALIZED")
	}

	if parser.lexer.PeekToken().Type == In {
		parser.lexer.NextToken() // consume IN
		token := parser.lexer.NextToken()
		if token.Type != Identifier {
			return nil, errors.New("expected schema name after IN")
		}
		statement.Schema = NewQualifiedName(strings.Split(token.Value, ".")...)
	}

	return statement, nil
}

func ParseExplain(parser *Parser) (Statement, error) {
	if parser.lexer.PeekToken().Type == Explain {
		return nil, errors.New("nested EXPLAIN is not supported")
	}
	inner, err := parser.parseStatement()
	if err != nil {
		return nil, err
	}
	return ExplainStatement{Statement: inner}, nil
}

// ParseUse parses: USE catalog.schema
func ParseUse(parser *Parser) (Statement, error) {
	token := parser.lexer.NextToken()
	if token.Type != Identifier {
		return nil, errors.New("expected catalog.schema after USE")
	}

	parts := strings.Split(token.Value, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, errors.New("expected catalog.schema format")
	}

	return UseStatement{Catalog: parts[0], Schema: parts[1]}, nil
}

func parse(sql string) (Statement, error) {
	parser := NewParser(sql)
	return parser.Parse()
}
