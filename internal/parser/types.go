package parser

import (
	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
	"ghoulc/internal/source"
	"ghoulc/internal/tokens"
)

// parseType parses a full type expression: an optional `mut`/`immut`
// qualifier prefix, then a core type, with `ref`/`*`/array/dotted-name/
// template-argument forms nesting to any depth (spec §4.B).
func (p *Parser) parseType() ast.Type {
	qual := ast.QualifierUnassigned
	switch p.cur().Kind {
	case tokens.KW_MUT:
		qual = ast.QualifierMut
		p.advance()
	case tokens.KW_IMMUT:
		qual = ast.QualifierImmut
		p.advance()
	}
	t := p.parseTypeCore()
	if qual != ast.QualifierUnassigned {
		t.SetQualifier(qual)
	}
	return t
}

func (p *Parser) parseTypeCore() ast.Type {
	start := p.cur().Start
	switch p.cur().Kind {
	case tokens.KW_REF:
		p.advance()
		inner := p.parseType()
		return &ast.ReferenceType{TypeBase: ast.TypeBase{Location: p.loc(start)}, Referent: inner}
	case tokens.STAR:
		p.advance()
		inner := p.parseType()
		return &ast.PointerType{TypeBase: ast.TypeBase{Location: p.loc(start)}, Pointee: inner}
	case tokens.LBRACKET:
		return p.parseArrayType(start)
	case tokens.KW_FUNC:
		return p.parseFunctionPointerType(start)
	case tokens.KW_SELF:
		p.advance()
		return &ast.SelfType{TypeBase: ast.TypeBase{Location: p.loc(start)}, Owner: ast.InvalidDeclId}
	default:
		return p.parseNamedType(start)
	}
}

// parseArrayType parses `[N]T` (flat array) or `[,,]T` (rank-N dimension
// array, one comma per extra dimension) (spec §4.B).
func (p *Parser) parseArrayType(start source.Position) ast.Type {
	p.advance() // '['
	if p.at(tokens.COMMA) || p.at(tokens.RBRACKET) {
		rank := 1
		for p.accept(tokens.COMMA) {
			rank++
		}
		p.expect(tokens.RBRACKET)
		elem := p.parseType()
		return &ast.DimensionType{TypeBase: ast.TypeBase{Location: p.loc(start)}, Rank: rank, Element: elem}
	}
	sizeExpr := p.parseExpr()
	p.expect(tokens.RBRACKET)
	elem := p.parseType()
	size := int64(0)
	if lit, ok := sizeExpr.(*ast.LiteralExpr); ok && lit.Kind == ast.LiteralInt {
		size = literalIntValue(lit.Text)
	}
	return &ast.FlatArrayType{TypeBase: ast.TypeBase{Location: p.loc(start)}, Size: size, Element: elem}
}

func (p *Parser) parseFunctionPointerType(start source.Position) ast.Type {
	p.advance() // 'func'
	p.expect(tokens.LPAREN)
	var params []ast.Type
	for !p.at(tokens.RPAREN) && !p.atEOF() {
		params = append(params, p.parseType())
		if !p.accept(tokens.COMMA) {
			break
		}
	}
	p.expect(tokens.RPAREN)
	var ret ast.Type = &ast.BuiltinType{Kind: ast.BuiltinVoid}
	if p.accept(tokens.ARROW) {
		ret = p.parseType()
	}
	return &ast.FunctionPointerType{TypeBase: ast.TypeBase{Location: p.loc(start)}, Params: params, Return: ret}
}

var builtinTypeNames = map[string]ast.BuiltinKind{
	"void": ast.BuiltinVoid, "bool": ast.BuiltinBool,
	"i8": ast.BuiltinI8, "i16": ast.BuiltinI16, "i32": ast.BuiltinI32, "i64": ast.BuiltinI64,
	"u8": ast.BuiltinU8, "u16": ast.BuiltinU16, "u32": ast.BuiltinU32, "u64": ast.BuiltinU64,
	"f32": ast.BuiltinF32, "f64": ast.BuiltinF64,
	"isize": ast.BuiltinISize, "usize": ast.BuiltinUSize, "char": ast.BuiltinChar,
}

// parseNamedType parses a dotted, optionally-templated name, e.g.
// `net.Socket`, `Box<i32>`, or a nested reference `Box<i32>.Iterator<T>`.
// It stays as UnresolvedType/UnresolvedNestedType; BasicTypeResolver binds
// the real Decl later (spec §4.E).
func (p *Parser) parseNamedType(start source.Position) ast.Type {
	name := p.expect(tokens.IDENTIFIER).Value
	if k, ok := builtinTypeNames[name]; ok {
		return &ast.BuiltinType{TypeBase: ast.TypeBase{Location: p.loc(start)}, Kind: k}
	}
	path := []string{name}
	for p.at(tokens.DOT) {
		// A '.' could belong to this type's dotted path, or (if we're
		// already past a template arg list) start a nested-type access;
		// both are handled uniformly below since UnresolvedNestedType
		// only appears once template args have been seen.
		p.advance()
		path = append(path, p.expect(tokens.IDENTIFIER).Value)
	}
	args := p.tryParseTemplateArgs()

	var t ast.Type = &ast.UnresolvedType{
		TypeBase: ast.TypeBase{Location: p.loc(start)},
		Path:     path,
		Args:     args,
	}

	for p.at(tokens.DOT) {
		p.advance()
		nestedName := p.expect(tokens.IDENTIFIER).Value
		nestedArgs := p.tryParseTemplateArgs()
		t = &ast.UnresolvedNestedType{
			TypeBase: ast.TypeBase{Location: p.loc(start)},
			Outer:    t,
			Name:     nestedName,
			Args:     nestedArgs,
		}
	}
	return t
}

// tryParseTemplateArgs speculatively parses a `<...>` template-argument
// list. It saves a lexer checkpoint first: if what follows '<' does not
// parse as a comma-separated type list terminated by '>', the whole
// attempt is abandoned and '<' is left to be read as the relational
// operator instead (spec §4.B, §8 "template vs. less-than disambiguation").
func (p *Parser) tryParseTemplateArgs() []ast.Type {
	if !p.at(tokens.LT) {
		return nil
	}
	cp := p.lex.Save()
	p.advance() // '<'
	p.lex.PushRightShiftDisabled()

	args, ok := p.attemptTemplateArgList()

	p.lex.PopRightShiftDisabled()
	if !ok {
		p.lex.Restore(cp)
		return nil
	}
	return args
}

// attemptTemplateArgList parses the body of a `<...>` list without
// reporting diagnostics on failure, so the caller can backtrack cleanly.
func (p *Parser) attemptTemplateArgList() (args []ast.Type, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isAbort := r.(templateArgAbort); isAbort {
				ok = false
				return
			}
			panic(r)
		}
	}()

	if p.at(tokens.GT) {
		p.advance()
		return nil, true
	}
	for {
		args = append(args, p.parseTemplateArgType())
		if p.accept(tokens.COMMA) {
			continue
		}
		break
	}
	if !p.at(tokens.GT) {
		panic(templateArgAbort{})
	}
	gt := p.advance()
	next := p.cur()
	// spec §4.B's follow-set check only rules out a token that appears on
	// the same line as the closing '>' and isn't one of the listed
	// punctuators — a statement boundary (end of input, end of block, or
	// the semicolon-optional newline rule consumeStmtEnd otherwise
	// enforces) is just as consistent with template use as an explicit
	// ';' would be.
	consistent := templateArgFollowSet[next.Kind] ||
		next.Kind == tokens.EOF || next.Kind == tokens.RBRACE ||
		next.Start.Line != gt.Start.Line
	if !consistent {
		panic(templateArgAbort{})
	}
	return args, true
}

// templateArgFollowSet is the set of tokens that may legally follow a
// closing '>' of a template-argument list (spec §4.B); anything else means
// the '<...>' just parsed was really a comparison chain and the whole
// attempt must be abandoned.
var templateArgFollowSet = map[tokens.Kind]bool{
	tokens.SEMI:   true,
	tokens.RPAREN: true,
	tokens.DOT:    true,
	tokens.SCOPE:  true,
	tokens.COMMA:  true,
	tokens.LPAREN: true,
}

// templateArgAbort unwinds attemptTemplateArgList without going through
// the fatal diagnostic path, since a failed template-argument guess is an
// expected, recoverable outcome, not a syntax error.
type templateArgAbort struct{}

// parseTemplateArgType parses one template-argument position, which may be
// a type or (for const template parameters) a constant expression; both
// start with a type-shaped or literal token, so a bad token aborts the
// whole speculative attempt rather than reporting a diagnostic.
func (p *Parser) parseTemplateArgType() ast.Type {
	switch p.cur().Kind {
	case tokens.IDENTIFIER, tokens.KW_MUT, tokens.KW_IMMUT, tokens.KW_REF, tokens.STAR, tokens.LBRACKET, tokens.KW_FUNC, tokens.KW_SELF:
		return p.parseType()
	case tokens.NUMBER, tokens.KW_TRUE, tokens.KW_FALSE:
		tok := p.advance()
		return &ast.UnresolvedType{TypeBase: ast.TypeBase{Location: p.spanOf(tok)}, Path: []string{tok.Value}}
	default:
		panic(templateArgAbort{})
	}
}

func (p *Parser) fatalUnexpected(expected string) {
	p.fatal(diagnostics.UnexpectedToken(p.spanOf(p.cur()), expected, p.cur().Kind.String()))
}
