package parser

import (
	"ghoulc/internal/ast"
	"ghoulc/internal/source"
	"ghoulc/internal/tokens"
)

// parseExpr is the entry point of the precedence ladder (spec §4.B):
// assignment > ternary > logical-or > logical-and > bitwise-or > xor >
// bitwise-and > equality > relational > shift > additive > multiplicative
// > is/as/has > prefix > postfix/call/member-access > primary.
func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

var compoundAssignOps = map[tokens.Kind]ast.InfixOp{
	tokens.PLUS_ASSIGN:    ast.OpAdd,
	tokens.MINUS_ASSIGN:   ast.OpSub,
	tokens.STAR_ASSIGN:    ast.OpMul,
	tokens.SLASH_ASSIGN:   ast.OpDiv,
	tokens.PERCENT_ASSIGN: ast.OpRem,
	tokens.SHL_ASSIGN:     ast.OpShl,
	tokens.SHR_ASSIGN:     ast.OpShr,
	tokens.AMP_ASSIGN:     ast.OpBitAnd,
	tokens.CARET_ASSIGN:   ast.OpBitXor,
	tokens.PIPE_ASSIGN:    ast.OpBitOr,
	tokens.POW_ASSIGN:     ast.OpPow,
}

func (p *Parser) parseAssignment() ast.Expr {
	start := p.cur().Start
	left := p.parseTernary()
	if p.at(tokens.ASSIGN) {
		p.advance()
		value := p.parseAssignment()
		return &ast.AssignmentExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Target: left, Value: value}
	}
	if op, ok := compoundAssignOps[p.cur().Kind]; ok {
		p.advance()
		value := p.parseAssignment()
		opCopy := op
		return &ast.AssignmentExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Target: left, Value: value, CompoundOp: &opCopy}
	}
	return left
}

func (p *Parser) parseTernary() ast.Expr {
	start := p.cur().Start
	cond := p.parseLogicalOr()
	if !p.accept(tokens.QUESTION) {
		return cond
	}
	then := p.parseExpr()
	p.expect(tokens.COLON)
	els := p.parseAssignment()
	return &ast.TernaryExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Cond: cond, Then: then, Else: els}
}

// binaryLevel builds one precedence level: parse next, then repeatedly
// consume any of ops and fold into a left-associative InfixExpr chain.
func (p *Parser) binaryLevel(next func() ast.Expr, ops map[tokens.Kind]ast.InfixOp) ast.Expr {
	start := p.cur().Start
	left := next()
	for {
		op, ok := ops[p.cur().Kind]
		if !ok {
			return left
		}
		p.advance()
		right := next()
		left = &ast.InfixExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Op: op, X: left, Y: right}
	}
}

func (p *Parser) parseLogicalOr() ast.Expr {
	return p.binaryLevel(p.parseLogicalAnd, map[tokens.Kind]ast.InfixOp{tokens.OROR: ast.OpOr})
}
func (p *Parser) parseLogicalAnd() ast.Expr {
	return p.binaryLevel(p.parseBitOr, map[tokens.Kind]ast.InfixOp{tokens.ANDAND: ast.OpAnd})
}
func (p *Parser) parseBitOr() ast.Expr {
	return p.binaryLevel(p.parseBitXor, map[tokens.Kind]ast.InfixOp{tokens.PIPE: ast.OpBitOr})
}
func (p *Parser) parseBitXor() ast.Expr {
	return p.binaryLevel(p.parseBitAnd, map[tokens.Kind]ast.InfixOp{tokens.CARET: ast.OpBitXor})
}
func (p *Parser) parseBitAnd() ast.Expr {
	return p.binaryLevel(p.parseEquality, map[tokens.Kind]ast.InfixOp{tokens.AMP: ast.OpBitAnd})
}
func (p *Parser) parseEquality() ast.Expr {
	return p.binaryLevel(p.parseRelational, map[tokens.Kind]ast.InfixOp{tokens.EQ: ast.OpEq, tokens.NEQ: ast.OpNeq})
}
func (p *Parser) parseRelational() ast.Expr {
	return p.binaryLevel(p.parseShift, map[tokens.Kind]ast.InfixOp{
		tokens.LT: ast.OpLt, tokens.LE: ast.OpLe, tokens.GT: ast.OpGt, tokens.GE: ast.OpGe,
	})
}
func (p *Parser) parseShift() ast.Expr {
	return p.binaryLevel(p.parseAdditive, map[tokens.Kind]ast.InfixOp{tokens.SHL: ast.OpShl, tokens.SHR: ast.OpShr})
}
func (p *Parser) parseAdditive() ast.Expr {
	return p.binaryLevel(p.parseMultiplicative, map[tokens.Kind]ast.InfixOp{tokens.PLUS: ast.OpAdd, tokens.MINUS: ast.OpSub})
}
func (p *Parser) parseMultiplicative() ast.Expr {
	return p.binaryLevel(p.parseIsAsHas, map[tokens.Kind]ast.InfixOp{
		tokens.STAR: ast.OpMul, tokens.SLASH: ast.OpDiv, tokens.PERCENT: ast.OpRem,
	})
}

// parseIsAsHas binds tighter than the arithmetic levels but looser than
// prefix/postfix, so `x + y as T` parses as `x + (y as T)` (spec §4.B).
func (p *Parser) parseIsAsHas() ast.Expr {
	start := p.cur().Start
	x := p.parsePrefix()
	for {
		switch p.cur().Kind {
		case tokens.KW_IS:
			p.advance()
			x = &ast.IsExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, X: x, Target: p.parseType()}
		case tokens.KW_AS:
			p.advance()
			x = &ast.AsExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, X: x, Target: p.parseType()}
		case tokens.KW_HAS:
			p.advance()
			x = &ast.HasExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, X: x, Prototype: p.parseType()}
		default:
			return x
		}
	}
}

var prefixOpTokens = map[tokens.Kind]ast.PrefixOp{
	tokens.MINUS:       ast.OpNeg,
	tokens.PLUS:        ast.OpPos,
	tokens.BANG:        ast.OpNot,
	tokens.TILDE:       ast.OpBitNot,
	tokens.PLUS_PLUS:   ast.OpPreInc,
	tokens.MINUS_MINUS: ast.OpPreDec,
	tokens.STAR:        ast.OpDeref,
	tokens.AMP:         ast.OpAddr,
}

func (p *Parser) parsePrefix() ast.Expr {
	start := p.cur().Start
	if op, ok := prefixOpTokens[p.cur().Kind]; ok {
		p.advance()
		x := p.parsePrefix()
		return &ast.PrefixExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Op: op, X: x}
	}
	switch p.cur().Kind {
	case tokens.KW_REF:
		p.advance()
		return &ast.RefExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, X: p.parsePrefix()}
	case tokens.KW_TRY:
		p.advance()
		return &ast.TryExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, X: p.parsePrefix()}
	case tokens.KW_SIZEOF:
		return p.parseTypeOperandBuiltin(start, ast.OpSizeof)
	case tokens.KW_ALIGNOF:
		return p.parseTypeOperandBuiltin(start, ast.OpAlignof)
	case tokens.KW_NAMEOF:
		return p.parseTypeOperandBuiltin(start, ast.OpNameof)
	case tokens.KW_TRAITSOF:
		return p.parseTypeOperandBuiltin(start, ast.OpTraitsof)
	case tokens.KW_OFFSETOF:
		return p.parseOffsetof(start)
	}
	return p.parsePostfix()
}

// parseTypeOperandBuiltin parses `sizeof(T)`/`alignof(T)`/`nameof(T)`/
// `traitsof(T)`, all of which take a Type operand wrapped in a TypeExpr
// (spec §3: Type is a first-class expression form).
func (p *Parser) parseTypeOperandBuiltin(start source.Position, op ast.PrefixOp) ast.Expr {
	p.advance()
	p.expect(tokens.LPAREN)
	t := p.parseType()
	p.expect(tokens.RPAREN)
	operand := ast.Expr(&ast.TypeExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, T: t})
	return &ast.PrefixExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Op: op, X: operand}
}

func (p *Parser) parseOffsetof(start source.Position) ast.Expr {
	p.advance() // 'offsetof'
	p.expect(tokens.LPAREN)
	t := p.parseType()
	p.expect(tokens.COMMA)
	field := p.expect(tokens.IDENTIFIER).Value
	p.expect(tokens.RPAREN)
	operand := ast.Expr(&ast.MemberAccessCallExpr{
		ExprBase: ast.ExprBase{Location: p.loc(start)},
		X:        &ast.TypeExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, T: t},
		Member:   field,
	})
	return &ast.PrefixExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Op: ast.OpOffsetof, X: operand}
}

var postfixOpTokens = map[tokens.Kind]ast.PostfixOp{
	tokens.PLUS_PLUS:   ast.OpPostInc,
	tokens.MINUS_MINUS: ast.OpPostDec,
}

func (p *Parser) parsePostfix() ast.Expr {
	start := p.cur().Start
	x := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case tokens.LPAREN:
			x = p.finishCall(start, x)
		case tokens.LBRACKET, tokens.QUESTION_BRACKET:
			x = p.finishSubscript(start, x)
		case tokens.DOT, tokens.QUESTION_DOT, tokens.QUESTION_ARROW:
			x = p.finishMemberAccess(start, x)
		default:
			if op, ok := postfixOpTokens[p.cur().Kind]; ok {
				p.advance()
				x = &ast.PostfixExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Op: op, X: x}
				continue
			}
			return x
		}
	}
}

func (p *Parser) finishCall(start source.Position, callee ast.Expr) ast.Expr {
	args := p.parseArgList()
	return &ast.FunctionCallExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Callee: callee, Args: args}
}

func (p *Parser) finishSubscript(start source.Position, x ast.Expr) ast.Expr {
	p.advance() // '[' or '?['
	var args []*ast.LabeledArgumentExpr
	for !p.at(tokens.RBRACKET) && !p.atEOF() {
		args = append(args, p.parseOneArg())
		if !p.accept(tokens.COMMA) {
			break
		}
	}
	p.expect(tokens.RBRACKET)
	return &ast.SubscriptCallExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, X: x, Args: args}
}

func (p *Parser) finishMemberAccess(start source.Position, x ast.Expr) ast.Expr {
	p.advance() // '.', '?.', or '?->'
	member := p.expect(tokens.IDENTIFIER).Value
	var args []*ast.LabeledArgumentExpr
	if p.at(tokens.LPAREN) {
		args = p.parseArgList()
	}
	return &ast.MemberAccessCallExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, X: x, Member: member, Args: args}
}

func (p *Parser) parseArgList() []*ast.LabeledArgumentExpr {
	p.expect(tokens.LPAREN)
	var args []*ast.LabeledArgumentExpr
	for !p.at(tokens.RPAREN) && !p.atEOF() {
		args = append(args, p.parseOneArg())
		if !p.accept(tokens.COMMA) {
			break
		}
	}
	p.expect(tokens.RPAREN)
	return args
}

// parseOneArg parses one call argument, recognizing an external label
// (`label: value`) versus a bare positional value, which is stored with
// the sentinel label "_" (spec §4.B).
func (p *Parser) parseOneArg() *ast.LabeledArgumentExpr {
	start := p.cur().Start
	if p.at(tokens.IDENTIFIER) {
		cp := p.lex.Save()
		label := p.advance().Value
		if p.accept(tokens.COLON) {
			value := p.parseAssignment()
			return &ast.LabeledArgumentExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Label: label, Value: value}
		}
		p.lex.Restore(cp)
	}
	value := p.parseAssignment()
	return &ast.LabeledArgumentExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Label: "_", Value: value}
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.cur().Start
	tok := p.cur()
	switch tok.Kind {
	case tokens.NUMBER:
		p.advance()
		isFloat, _, _, suffix := parseNumberLiteralValue(tok.Value)
		kind := ast.LiteralInt
		if isFloat {
			kind = ast.LiteralFloat
		}
		return &ast.LiteralExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Kind: kind, Text: tok.Value, Suffix: suffix}
	case tokens.STRING:
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Kind: ast.LiteralString, Text: tok.Value}
	case tokens.CHAR:
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Kind: ast.LiteralChar, Text: tok.Value}
	case tokens.KW_TRUE, tokens.KW_FALSE:
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Kind: ast.LiteralBool, Text: tok.Value}
	case tokens.KW_SELF:
		p.advance()
		return &ast.IdentifierExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Name: "self"}
	case tokens.LPAREN:
		p.advance()
		inner := p.parseExpr()
		p.expect(tokens.RPAREN)
		return &ast.ParenExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, X: inner}
	case tokens.LBRACKET:
		return p.parseArrayLiteral(start)
	case tokens.KW_LET:
		return p.parseLetExpr(start)
	case tokens.IDENTIFIER:
		return p.parseIdentifierExpr(start)
	default:
		p.fatalUnexpected("an expression")
		p.advance()
		return &ast.LiteralExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Kind: ast.LiteralInt, Text: "0"}
	}
}

func (p *Parser) parseArrayLiteral(start source.Position) ast.Expr {
	p.advance() // '['
	var elems []ast.Expr
	for !p.at(tokens.RBRACKET) && !p.atEOF() {
		elems = append(elems, p.parseAssignment())
		if !p.accept(tokens.COMMA) {
			break
		}
	}
	p.expect(tokens.RBRACKET)
	return &ast.ArrayLiteralExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Elements: elems}
}

func (p *Parser) parseLetExpr(start source.Position) ast.Expr {
	p.advance() // 'let'
	kind := ast.LocalLet
	if p.accept(tokens.KW_MUT) {
		kind = ast.LocalLetMut
	}
	name := p.expect(tokens.IDENTIFIER).Value
	var annotation ast.Type
	if p.accept(tokens.COLON) {
		annotation = p.parseType()
	}
	var init ast.Expr
	if p.accept(tokens.ASSIGN) {
		init = p.parseAssignment()
	}
	return &ast.VariableDeclExpr{
		ExprBase:   ast.ExprBase{Location: p.loc(start)},
		Kind:       kind,
		Name:       name,
		Annotation: annotation,
		Init:       init,
		Local:      ast.InvalidDeclId,
	}
}

// parseIdentifierExpr parses a bare name, optionally followed by a
// speculatively-parsed template-argument list (`Box<i32>`), reusing the
// same checkpointed attempt the type grammar uses (spec §4.B, §8).
func (p *Parser) parseIdentifierExpr(start source.Position) ast.Expr {
	name := p.advance().Value
	targArgs := p.tryParseTemplateArgs()
	var exprArgs []ast.Expr
	for _, t := range targArgs {
		exprArgs = append(exprArgs, &ast.TypeExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, T: t})
	}
	return &ast.IdentifierExpr{ExprBase: ast.ExprBase{Location: p.loc(start)}, Name: name, TemplateArgs: exprArgs}
}
