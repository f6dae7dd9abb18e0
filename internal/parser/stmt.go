package parser

import (
	"ghoulc/internal/ast"
	"ghoulc/internal/source"
	"ghoulc/internal/tokens"
)

func (p *Parser) parseBlock() *ast.Block {
	start := p.cur().Start
	p.expect(tokens.LBRACE)
	var stmts []ast.Stmt
	for !p.at(tokens.RBRACE) && !p.atEOF() {
		stmts = append(stmts, p.parseStmt())
	}
	p.expect(tokens.RBRACE)
	return &ast.Block{StmtBase: ast.StmtBase{Location: p.loc(start)}, Stmts: stmts}
}

func (p *Parser) parseStmt() ast.Stmt {
	start := p.cur().Start
	switch p.cur().Kind {
	case tokens.LBRACE:
		return p.parseBlock()
	case tokens.KW_IF:
		return p.parseIf()
	case tokens.KW_WHILE:
		return p.parseWhile("")
	case tokens.KW_DO:
		return p.parseDo("")
	case tokens.KW_REPEAT:
		return p.parseRepeat("")
	case tokens.KW_FOR:
		return p.parseFor("")
	case tokens.KW_SWITCH:
		return p.parseSwitch("")
	case tokens.KW_BREAK:
		return p.parseBreak(start)
	case tokens.KW_CONTINUE:
		return p.parseContinue(start)
	case tokens.KW_GOTO:
		return p.parseGoto(start)
	case tokens.KW_RETURN:
		return p.parseReturn(start)
	case tokens.KW_FALLTHROUGH:
		p.advance()
		end := p.cur().Start
		p.consumeStmtEnd(end)
		return &ast.FallthroughStmt{StmtBase: ast.StmtBase{Location: p.locEnd(start, end)}}
	case tokens.KW_VAR, tokens.KW_LET:
		return p.parseVarOrLetStmt(start)
	case tokens.IDENTIFIER:
		return p.parseIdentifierLeadStmt(start)
	default:
		return p.parseExprStmt(start)
	}
}

// parseIdentifierLeadStmt disambiguates a bare label (`label:`) from an
// expression statement starting with an identifier, by speculatively
// checking for a following ':' that is not part of a scope ('::') or
// where-style type ascription (spec §4.B).
func (p *Parser) parseIdentifierLeadStmt(start source.Position) ast.Stmt {
	cp := p.lex.Save()
	name := p.advance().Value
	if p.at(tokens.COLON) {
		p.advance()
		switch p.cur().Kind {
		case tokens.KW_WHILE:
			return p.parseWhile(name)
		case tokens.KW_DO:
			return p.parseDo(name)
		case tokens.KW_REPEAT:
			return p.parseRepeat(name)
		case tokens.KW_FOR:
			return p.parseFor(name)
		case tokens.KW_SWITCH:
			return p.parseSwitch(name)
		default:
			end := p.cur().Start
			inner := p.parseStmt()
			return &ast.LabeledStmt{StmtBase: ast.StmtBase{Location: p.locEnd(start, end)}, Label: name, Stmt: inner}
		}
	}
	p.lex.Restore(cp)
	return p.parseExprStmt(start)
}

func (p *Parser) parseExprStmt(start source.Position) ast.Stmt {
	x := p.parseExpr()
	end := p.cur().Start
	p.consumeStmtEnd(end)
	return &ast.ExprStmt{StmtBase: ast.StmtBase{Location: p.locEnd(start, end)}, X: x}
}

func (p *Parser) parseVarOrLetStmt(start source.Position) ast.Stmt {
	// A `let`/`var` in statement position is parsed as an expression
	// (VariableDeclExpr) wrapped in an ExprStmt, matching its Expr-variant
	// status in the ASG (spec §3).
	x := p.parseExpr()
	end := p.cur().Start
	p.consumeStmtEnd(end)
	return &ast.ExprStmt{StmtBase: ast.StmtBase{Location: p.locEnd(start, end)}, X: x}
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.cur().Start
	p.advance() // 'if'
	cond := p.parseExpr()
	then := p.parseBlock()
	var els ast.Stmt
	if p.accept(tokens.KW_ELSE) {
		if p.at(tokens.KW_IF) {
			els = p.parseIf()
		} else {
			els = p.parseBlock()
		}
	}
	return &ast.IfStmt{StmtBase: ast.StmtBase{Location: p.loc(start)}, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile(label string) ast.Stmt {
	start := p.cur().Start
	p.advance() // 'while'
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.WhileStmt{StmtBase: ast.StmtBase{Location: p.loc(start)}, Label: label, Cond: cond, Body: body}
}

func (p *Parser) parseRepeat(label string) ast.Stmt {
	start := p.cur().Start
	p.advance() // 'repeat'
	body := p.parseBlock()
	p.expect(tokens.KW_WHILE)
	cond := p.parseExpr()
	end := p.cur().Start
	p.consumeStmtEnd(end)
	return &ast.DoWhileStmt{StmtBase: ast.StmtBase{Location: p.locEnd(start, end)}, Label: label, Body: body, Cond: cond}
}

// parseDo disambiguates a plain `do { ... }` scope from `do { ... } while`
// and from `do { ... } catch ...`/`finally` (spec §4.B: "a bare `do { … }`
// without `catch`/`finally` is a plain scope").
func (p *Parser) parseDo(label string) ast.Stmt {
	start := p.cur().Start
	p.advance() // 'do'
	body := p.parseBlock()
	if p.at(tokens.KW_WHILE) {
		p.advance()
		cond := p.parseExpr()
		end := p.cur().Start
		p.consumeStmtEnd(end)
		return &ast.DoWhileStmt{StmtBase: ast.StmtBase{Location: p.locEnd(start, end)}, Label: label, Body: body, Cond: cond}
	}
	if p.at(tokens.KW_CATCH) || p.at(tokens.KW_FINALLY) {
		var catches []*ast.CatchClause
		for p.at(tokens.KW_CATCH) {
			cstart := p.cur().Start
			p.advance()
			var exType ast.Type
			binding := ""
			if !p.at(tokens.LBRACE) {
				exType = p.parseType()
				if p.at(tokens.IDENTIFIER) {
					binding = p.advance().Value
				}
			}
			cbody := p.parseBlock()
			catches = append(catches, &ast.CatchClause{
				StmtBase:      ast.StmtBase{Location: p.loc(cstart)},
				ExceptionType: exType,
				Binding:       binding,
				Body:          cbody,
			})
		}
		var finally *ast.Block
		if p.accept(tokens.KW_FINALLY) {
			finally = p.parseBlock()
		}
		return &ast.DoCatchStmt{StmtBase: ast.StmtBase{Location: p.loc(start)}, Body: body, Catches: catches, Finally: finally}
	}
	if label != "" {
		return &ast.LabeledStmt{StmtBase: ast.StmtBase{Location: p.loc(start)}, Label: label, Stmt: body}
	}
	return body
}

func (p *Parser) parseFor(label string) ast.Stmt {
	start := p.cur().Start
	p.advance() // 'for'

	// for-in shape: `for NAME in EXPR { ... }`
	if p.at(tokens.IDENTIFIER) {
		cp := p.lex.Save()
		name := p.advance().Value
		if p.accept(tokens.KW_IN) {
			iter := p.parseExpr()
			body := p.parseBlock()
			return &ast.ForStmt{StmtBase: ast.StmtBase{Location: p.loc(start)}, Label: label, IterVar: name, IterExpr: iter, Body: body}
		}
		p.lex.Restore(cp)
	}

	// C-style shape: `for init; cond; post { ... }`
	var init ast.Stmt
	if !p.at(tokens.SEMI) {
		init = p.parseSimpleStmt()
	}
	p.expect(tokens.SEMI)
	var cond ast.Expr
	if !p.at(tokens.SEMI) {
		cond = p.parseExpr()
	}
	p.expect(tokens.SEMI)
	var post ast.Stmt
	if !p.at(tokens.LBRACE) {
		post = p.parseSimpleStmt()
	}
	body := p.parseBlock()
	return &ast.ForStmt{StmtBase: ast.StmtBase{Location: p.loc(start)}, Label: label, Init: init, Cond: cond, Post: post, Body: body}
}

// parseSimpleStmt parses a for-header clause: a bare expression, with no
// statement terminator expected (the header's ';' delimiters are consumed
// by the caller).
func (p *Parser) parseSimpleStmt() ast.Stmt {
	start := p.cur().Start
	x := p.parseExpr()
	return &ast.ExprStmt{StmtBase: ast.StmtBase{Location: p.loc(start)}, X: x}
}

func (p *Parser) parseSwitch(label string) ast.Stmt {
	start := p.cur().Start
	p.advance() // 'switch'
	tag := p.parseExpr()
	p.expect(tokens.LBRACE)
	var cases []*ast.CaseStmt
	for !p.at(tokens.RBRACE) && !p.atEOF() {
		cases = append(cases, p.parseCase())
	}
	end := p.cur().End
	p.expect(tokens.RBRACE)
	return &ast.SwitchStmt{StmtBase: ast.StmtBase{Location: p.locEnd(start, end)}, Label: label, Tag: tag, Cases: cases}
}

func (p *Parser) parseCase() *ast.CaseStmt {
	start := p.cur().Start
	var values []ast.Expr
	if p.accept(tokens.KW_DEFAULT) {
		// values stays empty: default case
	} else {
		p.expect(tokens.KW_CASE)
		values = append(values, p.parseExpr())
		for p.accept(tokens.COMMA) {
			values = append(values, p.parseExpr())
		}
	}
	p.expect(tokens.COLON)
	var body []ast.Stmt
	fell := false
	for !p.at(tokens.KW_CASE) && !p.at(tokens.KW_DEFAULT) && !p.at(tokens.RBRACE) && !p.atEOF() {
		if p.at(tokens.KW_FALLTHROUGH) {
			fell = true
		}
		body = append(body, p.parseStmt())
	}
	return &ast.CaseStmt{StmtBase: ast.StmtBase{Location: p.loc(start)}, Values: values, Body: body, Fallthrough: fell}
}

func (p *Parser) parseBreak(start source.Position) ast.Stmt {
	p.advance() // 'break'
	label := p.optionalLabel(start.Line)
	end := p.cur().Start
	p.consumeStmtEnd(end)
	return &ast.BreakStmt{StmtBase: ast.StmtBase{Location: p.locEnd(start, end)}, Label: label}
}

func (p *Parser) parseContinue(start source.Position) ast.Stmt {
	p.advance() // 'continue'
	label := p.optionalLabel(start.Line)
	end := p.cur().Start
	p.consumeStmtEnd(end)
	return &ast.ContinueStmt{StmtBase: ast.StmtBase{Location: p.locEnd(start, end)}, Label: label}
}

func (p *Parser) parseGoto(start source.Position) ast.Stmt {
	p.advance() // 'goto'
	label := p.expect(tokens.IDENTIFIER).Value
	end := p.cur().Start
	p.consumeStmtEnd(end)
	return &ast.GotoStmt{StmtBase: ast.StmtBase{Location: p.locEnd(start, end)}, Label: label}
}

func (p *Parser) parseReturn(start source.Position) ast.Stmt {
	p.advance() // 'return'
	var value ast.Expr
	if !p.startsBlockOrContract() {
		value = p.parseExpr()
	}
	end := p.cur().Start
	p.consumeStmtEnd(end)
	return &ast.ReturnStmt{StmtBase: ast.StmtBase{Location: p.locEnd(start, end)}, Value: value}
}

// optionalLabel consumes a break/continue target label if the next token
// is an identifier on the same source line as the keyword itself, so it
// isn't mistaken for the start of the following statement (spec §4.B
// semicolon-optional rule).
func (p *Parser) optionalLabel(keywordLine int) string {
	if p.at(tokens.IDENTIFIER) && p.cur().Start.Line == keywordLine {
		return p.advance().Value
	}
	return ""
}
