// Package parser is a hand-written recursive-descent parser building a
// per-file ASG of declarations, statements, expressions, types, contracts
// and attributes (spec §4.B). Every parse function either returns a node
// or reports a fatal diagnostic; internal/diagnostics.DiagnosticBag.Add
// aborts the process on the first error (spec §7), so a fatal report
// never returns control to its caller. The one panic/recover use is local
// to the template-argument speculation in types.go, which backtracks out
// of a tentative template-argument parse.
package parser

import (
	"strconv"

	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
	"ghoulc/internal/lexer"
	"ghoulc/internal/source"
	"ghoulc/internal/tokens"
)

// Parser holds per-file parsing state.
type Parser struct {
	lex      *lexer.Lexer
	diags    *diagnostics.DiagnosticBag
	reg      *ast.Registry
	filePath string

	prevStmtEndLine int // end line of the last parsed statement/decl, for semicolon-optional termination
}

// New creates a parser for one file's already-lexed token stream.
func New(filePath string, lex *lexer.Lexer, diags *diagnostics.DiagnosticBag, reg *ast.Registry) *Parser {
	return &Parser{lex: lex, diags: diags, reg: reg, filePath: filePath}
}

func (p *Parser) cur() tokens.Token  { return p.lex.Peek() }
func (p *Parser) advance() tokens.Token { return p.lex.Next() }
func (p *Parser) atEOF() bool        { return p.cur().Kind == tokens.EOF }

func (p *Parser) loc(start source.Position) source.Location {
	return source.NewLocation(p.filePath, start, p.cur().Start)
}

func (p *Parser) locEnd(start, end source.Position) source.Location {
	return source.NewLocation(p.filePath, start, end)
}

// expect consumes the current token if it has the given kind, else reports
// a fatal "unexpected token" diagnostic (spec §7: "each parse function
// names what it expected").
func (p *Parser) expect(kind tokens.Kind) tokens.Token {
	tok := p.cur()
	if tok.Kind != kind {
		p.diags.Add(diagnostics.UnexpectedToken(p.spanOf(tok), kind.String(), tok.Kind.String()))
	}
	return p.advance()
}

func (p *Parser) spanOf(tok tokens.Token) source.Location {
	return source.NewLocation(p.filePath, tok.Start, tok.End)
}

func (p *Parser) fatal(d *diagnostics.Diagnostic) {
	p.diags.Add(d)
}

// at reports whether the current token has kind k.
func (p *Parser) at(k tokens.Kind) bool { return p.cur().Kind == k }

// accept consumes and returns true if the current token has kind k.
func (p *Parser) accept(k tokens.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// consumeStmtEnd enforces spec §4.B's semicolon-optional rule: a statement
// terminator is the next line OR a ';'. Multiple statements on the same
// line require an explicit ';' between them, detected by comparing the
// previous statement's end line against the next token's start line.
func (p *Parser) consumeStmtEnd(stmtEnd source.Position) {
	p.prevStmtEndLine = stmtEnd.Line
	if p.accept(tokens.SEMI) {
		return
	}
	next := p.cur()
	if next.Kind == tokens.EOF || next.Kind == tokens.RBRACE {
		return
	}
	if next.Start.Line == stmtEnd.Line {
		p.fatal(diagnostics.UnexpectedToken(p.spanOf(next), "';' or a new line", next.Kind.String()))
	}
}

// ParseFile parses one source file into its top-level declarations
// (imports and namespace-scoped decls).
func (p *Parser) ParseFile() []ast.Decl {
	var decls []ast.Decl
	for !p.atEOF() {
		decls = append(decls, p.parseTopLevelDecl())
	}
	return decls
}

func (p *Parser) parseTopLevelDecl() ast.Decl {
	if p.at(tokens.KW_IMPORT) {
		return p.parseImport()
	}
	return p.parseDecl(false)
}

func (p *Parser) parseImport() ast.Decl {
	start := p.cur().Start
	p.advance() // 'import'
	var path []string
	path = append(path, p.expect(tokens.IDENTIFIER).Value)
	for p.accept(tokens.DOT) {
		path = append(path, p.expect(tokens.IDENTIFIER).Value)
	}
	alias := ""
	if p.accept(tokens.KW_AS) {
		alias = p.expect(tokens.IDENTIFIER).Value
	}
	end := p.cur().Start
	decl := &ast.ImportDecl{
		DeclBase: ast.DeclBase{Location: p.locEnd(start, end), SourceFile: p.filePath},
		Path:     path,
		Alias:    alias,
		Resolved: ast.InvalidDeclId,
	}
	p.reg.Alloc(decl)
	p.consumeStmtEnd(end)
	return decl
}

// parseNumberLiteralValue splits a raw number token (spec §4.A: numbers
// are lexed whole and split later) into base, digits, float-ness, and an
// optional user-defined suffix.
func parseNumberLiteralValue(raw string) (isFloat bool, base int, digits string, suffix string) {
	base = 10
	rest := raw
	if len(rest) > 2 && rest[0] == '0' {
		switch rest[1] {
		case 'x', 'X':
			base, rest = 16, rest[2:]
		case 'b', 'B':
			base, rest = 2, rest[2:]
		case 'o', 'O':
			base, rest = 8, rest[2:]
		}
	}
	i := 0
	seenDot := false
	seenExp := false
	for i < len(rest) {
		c := rest[i]
		switch {
		case c >= '0' && c <= '9', c == '_':
			i++
		case base == 16 && ((c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')):
			i++
		case c == '.' && !seenDot && !seenExp && base == 10:
			seenDot = true
			isFloat = true
			i++
		case (c == 'e' || c == 'E') && !seenExp && base == 10:
			seenExp = true
			isFloat = true
			i++
			if i < len(rest) && (rest[i] == '+' || rest[i] == '-') {
				i++
			}
		default:
			goto done
		}
	}
done:
	digits = rest[:i]
	suffix = rest[i:]
	return
}

// literalIntValue best-effort parses the numeric text (minus suffix) for
// use in const-expression/contract evaluation; unparsable text yields 0
// and is otherwise diagnosed elsewhere.
func literalIntValue(raw string) int64 {
	_, base, digits, _ := parseNumberLiteralValue(raw)
	clean := stripUnderscores(digits)
	v, _ := strconv.ParseInt(clean, base, 64)
	return v
}

func stripUnderscores(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
