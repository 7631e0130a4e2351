package sql

import (
	"strconv"
	"strings"

	"github.com/flintdb/flintdb/internal/column"
	"github.com/flintdb/flintdb/internal/errs"
)

// Parser turns a token stream into a single Statement.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse tokenizes and parses one SQL statement.
func Parse(src string) (Statement, error) {
	toks, err := Tokenize(strings.TrimRight(strings.TrimSpace(src), ";"))
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: toks}
	return p.parseStatement()
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: KindEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) next() Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *Parser) expectKeyword(kw string) error {
	t := p.next()
	if t.Kind != KindKeyword || t.Text != kw {
		return errs.New(errs.Syntax, "expected %q, got %q", kw, t.Text)
	}
	return nil
}

func (p *Parser) expectPunct(text string) error {
	t := p.next()
	if t.Kind != KindPunct || t.Text != text {
		return errs.New(errs.Syntax, "expected %q, got %q", text, t.Text)
	}
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	t := p.next()
	if t.Kind != KindIdent {
		return "", errs.New(errs.Syntax, "expected identifier, got %q", t.Text)
	}
	return t.Text, nil
}

func (p *Parser) atEnd() bool { return p.peek().Kind == KindEOF }

func (p *Parser) parseStatement() (Statement, error) {
	t := p.peek()
	if t.Kind != KindKeyword {
		return nil, errs.New(errs.Syntax, "expected a statement keyword, got %q", t.Text)
	}
	switch t.Text {
	case "CREATE":
		return p.parseCreate()
	case "DROP":
		return p.parseDrop()
	case "INSERT":
		return p.parseInsert()
	case "SELECT":
		return p.parseSelect()
	case "SHOW":
		return p.parseShow()
	case "DESCRIBE":
		return p.parseDescribe()
	case "USE":
		return p.parseUse()
	case "UPDATE":
		return p.parseUpdate()
	case "DELETE":
		return p.parseDelete()
	default:
		return nil, errs.New(errs.Syntax, "unrecognized statement keyword %q", t.Text)
	}
}

func (p *Parser) parseCreate() (Statement, error) {
	p.next() // CREATE
	if p.peek().Kind == KindKeyword && p.peek().Text == "DATABASE" {
		p.next()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return CreateDatabaseStmt{Name: name}, nil
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var cols []ColumnDef
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.peek().Kind == KindPunct && p.peek().Text == "," {
			p.next()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, errs.New(errs.Syntax, "unexpected trailing input after CREATE TABLE")
	}
	return CreateTableStmt{Name: name, Columns: cols}, nil
}

var typeKeywords = map[string]column.Type{
	"INT": column.Int, "SMALLINT": column.SmallInt, "TINYINT": column.TinyInt,
	"BIGINT": column.BigInt, "FLOAT": column.Float, "DOUBLE": column.Double,
	"VARCHAR": column.Varchar, "TEXT": column.Text, "DATETIME": column.DateTime,
	"TIMESTAMP": column.Timestamp, "BOOLEAN": column.Boolean,
}

func (p *Parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.expectIdent()
	if err != nil {
		return ColumnDef{}, err
	}
	typeTok := p.next()
	if typeTok.Kind != KindKeyword {
		return ColumnDef{}, errs.New(errs.Syntax, "expected a column type, got %q", typeTok.Text)
	}
	typ, ok := typeKeywords[typeTok.Text]
	if !ok {
		return ColumnDef{}, errs.New(errs.Syntax, "unknown column type %q", typeTok.Text)
	}
	col := ColumnDef{Name: name, Type: typ}
	if typ == column.Varchar {
		if err := p.expectPunct("("); err != nil {
			return ColumnDef{}, err
		}
		n := p.next()
		if n.Kind != KindNumber {
			return ColumnDef{}, errs.New(errs.Syntax, "expected a length for VARCHAR, got %q", n.Text)
		}
		length, err := strconv.Atoi(n.Text)
		if err != nil || length <= 0 || length > column.VarcharMaxSize {
			return ColumnDef{}, errs.New(errs.Syntax, "invalid VARCHAR length %q", n.Text)
		}
		col.VarcharLen = uint16(length)
		if err := p.expectPunct(")"); err != nil {
			return ColumnDef{}, err
		}
	}
	for p.peek().Kind == KindKeyword {
		switch p.peek().Text {
		case "DEFAULT":
			p.next()
			lit := p.next()
			if lit.Kind != KindNumber && lit.Kind != KindString {
				return ColumnDef{}, errs.New(errs.Syntax, "expected a literal after DEFAULT, got %q", lit.Text)
			}
			col.Default = lit.Text
			col.HasDefault = true
		case "PRIMARY":
			p.next()
			if err := p.expectKeyword("KEY"); err != nil {
				return ColumnDef{}, err
			}
			col.IsPrimary = true
		case "NOT":
			p.next()
			if err := p.expectKeyword("NULL"); err != nil {
				return ColumnDef{}, err
			}
			col.NotNull = true
		default:
			return col, nil
		}
	}
	return col, nil
}

func (p *Parser) parseDrop() (Statement, error) {
	p.next() // DROP
	if p.peek().Kind == KindKeyword && p.peek().Text == "DATABASE" {
		p.next()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return DropDatabaseStmt{Name: name}, nil
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return DropTableStmt{Name: name}, nil
}

func (p *Parser) parseInsert() (Statement, error) {
	p.next() // INSERT
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	var cols []string
	if p.peek().Kind == KindPunct && p.peek().Text == "(" {
		p.next()
		for {
			c, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
			if p.peek().Kind == KindPunct && p.peek().Text == "," {
				p.next()
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var vals []string
	for {
		t := p.next()
		isBool := t.Kind == KindIdent && (t.Text == "true" || t.Text == "false")
		if t.Kind != KindNumber && t.Kind != KindString && !isBool {
			return nil, errs.New(errs.Syntax, "expected a literal value, got %q", t.Text)
		}
		vals = append(vals, t.Text)
		if p.peek().Kind == KindPunct && p.peek().Text == "," {
			p.next()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, errs.New(errs.Syntax, "unexpected trailing input after INSERT")
	}
	return InsertStmt{Table: table, Columns: cols, Values: vals}, nil
}

func (p *Parser) parseSelect() (Statement, error) {
	p.next() // SELECT
	var cols []string
	if p.peek().Kind == KindPunct && p.peek().Text == "*" {
		p.next()
	} else {
		for {
			c, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
			if p.peek().Kind == KindPunct && p.peek().Text == "," {
				p.next()
				continue
			}
			break
		}
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, errs.New(errs.Syntax, "unexpected trailing input after SELECT")
	}
	return SelectStmt{Table: table, Columns: cols}, nil
}

func (p *Parser) parseShow() (Statement, error) {
	p.next() // SHOW
	t := p.next()
	if t.Kind != KindKeyword || (t.Text != "DATABASES" && t.Text != "TABLES") {
		return nil, errs.New(errs.Syntax, "expected DATABASES or TABLES after SHOW, got %q", t.Text)
	}
	return ShowStmt{What: t.Text}, nil
}

func (p *Parser) parseDescribe() (Statement, error) {
	p.next() // DESCRIBE
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return DescribeStmt{Table: name}, nil
}

func (p *Parser) parseUse() (Statement, error) {
	p.next() // USE
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return UseStmt{Database: name}, nil
}

// parseUpdate and parseDelete accept just enough syntax to validate the
// statement; UPDATE/DELETE are rejected by the executor.
func (p *Parser) parseUpdate() (Statement, error) {
	p.next() // UPDATE
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	for !p.atEnd() {
		p.next()
	}
	return UpdateStmt{Table: table}, nil
}

func (p *Parser) parseDelete() (Statement, error) {
	p.next() // DELETE
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	for !p.atEnd() {
		p.next()
	}
	return DeleteStmt{Table: table}, nil
}
