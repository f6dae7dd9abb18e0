package parser

import (
	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
	"ghoulc/internal/source"
	"ghoulc/internal/tokens"
)

// parseModifiers greedily consumes modifier and visibility keywords in any
// order; duplicate modifiers are fatal (spec §4.B). `const` sets a
// separate flag rather than a bit in the modifier set.
func (p *Parser) parseModifiers() (mods ast.ModifierSet, vis ast.Visibility, isConst bool) {
	for {
		switch p.cur().Kind {
		case tokens.KW_STATIC:
			p.mustSet(&mods, ast.ModStatic)
		case tokens.KW_MUT:
			p.mustSet(&mods, ast.ModMut)
		case tokens.KW_VOLATILE:
			p.mustSet(&mods, ast.ModVolatile)
		case tokens.KW_ABSTRACT:
			p.mustSet(&mods, ast.ModAbstract)
		case tokens.KW_VIRTUAL:
			p.mustSet(&mods, ast.ModVirtual)
		case tokens.KW_OVERRIDE:
			p.mustSet(&mods, ast.ModOverride)
		case tokens.KW_EXTERN:
			p.mustSet(&mods, ast.ModExtern)
		case tokens.KW_CONST:
			isConst = true
			p.advance()
			continue
		case tokens.KW_PUBLIC:
			vis = ast.VisibilityPublic
			p.advance()
			continue
		case tokens.KW_PRIVATE:
			vis = ast.VisibilityPrivate
			p.advance()
			continue
		case tokens.KW_INTERNAL:
			vis = ast.VisibilityInternal
			p.advance()
			continue
		case tokens.KW_PROTECTED:
			p.advance()
			if p.at(tokens.KW_INTERNAL) {
				p.advance()
				vis = ast.VisibilityProtectedInternal
			} else {
				vis = ast.VisibilityProtected
			}
			continue
		default:
			return
		}
		p.advance()
	}
}

func (p *Parser) mustSet(mods *ast.ModifierSet, m ast.Modifier) {
	if !mods.Set(m) {
		p.fatal(diagnostics.DuplicateModifier(p.spanOf(p.cur()), p.cur().Value))
	}
}

// parseAttrs consumes zero or more `@name` / `@ns.name(args…)` prefixes
// attached to the following declaration or parameter (spec §4.B, §6).
func (p *Parser) parseAttrs() []*ast.Attr {
	var attrs []*ast.Attr
	for p.at(tokens.AT) {
		start := p.cur().Start
		p.advance()
		first := p.expect(tokens.IDENTIFIER).Value
		ns, name := "", first
		if p.accept(tokens.DOT) {
			ns = first
			name = p.expect(tokens.IDENTIFIER).Value
		}
		var args []ast.Expr
		if p.accept(tokens.LPAREN) {
			for !p.at(tokens.RPAREN) && !p.atEOF() {
				args = append(args, p.parseExpr())
				if !p.accept(tokens.COMMA) {
					break
				}
			}
			p.expect(tokens.RPAREN)
		}
		attrs = append(attrs, &ast.Attr{
			Location:  p.loc(start),
			Namespace: ns,
			Name:      name,
			Args:      args,
		})
	}
	return attrs
}

// parseDecl parses one declaration inside a namespace, struct, class,
// trait, or extension body. isMemberContext controls whether
// constructor/destructor/property/operator/subscript forms are legal.
func (p *Parser) parseDecl(isMemberContext bool) ast.Decl {
	attrs := p.parseAttrs()
	start := p.cur().Start
	mods, vis, isConst := p.parseModifiers()

	if !isMemberContext {
		switch p.cur().Kind {
		case tokens.KW_CONSTRUCTOR, tokens.KW_DESTRUCTOR, tokens.KW_PROPERTY, tokens.KW_OPERATOR, tokens.KW_SUBSCRIPT:
			p.fatal(diagnostics.UnexpectedToken(p.spanOf(p.cur()), "a declaration", p.cur().Kind.String()))
		}
	}

	var d ast.Decl
	switch p.cur().Kind {
	case tokens.KW_NAMESPACE:
		d = p.parseNamespace()
	case tokens.KW_FUNC:
		d = p.parseFunction()
	case tokens.KW_STRUCT:
		d = p.parseStructLike(ast.StructKindStruct)
	case tokens.KW_CLASS:
		d = p.parseStructLike(ast.StructKindClass)
	case tokens.KW_UNION:
		d = p.parseStructLike(ast.StructKindUnion)
	case tokens.KW_TRAIT:
		d = p.parseTrait()
	case tokens.KW_EXTENSION:
		d = p.parseExtension()
	case tokens.KW_ENUM:
		d = p.parseEnum()
	case tokens.KW_TYPE:
		d = p.parseTypeAlias()
	case tokens.KW_VAR, tokens.KW_LET:
		d = p.parseVariableDecl()
	case tokens.KW_CONSTRUCTOR:
		d = p.parseConstructor()
	case tokens.KW_DESTRUCTOR:
		d = p.parseDestructor()
	case tokens.KW_PROPERTY:
		d = p.parseProperty()
	case tokens.KW_OPERATOR:
		d = p.parseOperator()
	case tokens.KW_SUBSCRIPT:
		d = p.parseSubscript()
	default:
		p.fatal(diagnostics.UnexpectedToken(p.spanOf(p.cur()), "a declaration", p.cur().Kind.String()))
		p.advance()
		return nil
	}

	base := d.Base()
	base.Location = p.locEnd(start, base.Location.End)
	base.SourceFile = p.filePath
	base.Visibility = vis
	base.Modifiers = mods
	base.IsConstExpr = isConst
	base.Attrs = attrs
	p.reg.Alloc(d)
	return d
}

func (p *Parser) parseNamespace() ast.Decl {
	start := p.cur().Start
	p.advance() // 'namespace'
	name := p.expect(tokens.IDENTIFIER).Value
	for p.accept(tokens.DOT) {
		name = name + "." + p.expect(tokens.IDENTIFIER).Value
	}
	p.expect(tokens.LBRACE)
	var members []ast.Decl
	for !p.at(tokens.RBRACE) && !p.atEOF() {
		if p.at(tokens.KW_IMPORT) {
			members = append(members, p.parseImport())
			continue
		}
		members = append(members, p.parseDecl(false))
	}
	end := p.cur().End
	p.expect(tokens.RBRACE)
	return &ast.NamespaceDecl{
		DeclBase: ast.DeclBase{Location: p.locEnd(start, end), Ident: name},
		Members:  members,
	}
}

// parseTemplateParams parses `<T, U, const N: usize>`, returning
// (nil, false) if no '<' follows (spec §4.B).
func (p *Parser) parseTemplateParams() ([]*ast.TemplateParameterDecl, bool) {
	if !p.at(tokens.LT) {
		return nil, false
	}
	p.advance() // '<'
	p.lex.PushRightShiftDisabled()
	var params []*ast.TemplateParameterDecl
	for !p.at(tokens.GT) && !p.atEOF() {
		start := p.cur().Start
		tp := &ast.TemplateParameterDecl{DeclBase: ast.DeclBase{Location: p.loc(start)}}
		if p.accept(tokens.KW_CONST) {
			tp.Kind = ast.TemplateParamConst
			tp.Ident = p.expect(tokens.IDENTIFIER).Value
			p.expect(tokens.COLON)
			tp.ConstType = p.parseType()
		} else {
			tp.Kind = ast.TemplateParamTypename
			tp.Ident = p.expect(tokens.IDENTIFIER).Value
		}
		tp.Location = p.loc(start)
		p.reg.Alloc(tp)
		params = append(params, tp)
		if !p.accept(tokens.COMMA) {
			break
		}
	}
	p.lex.PopRightShiftDisabled()
	p.expect(tokens.GT)
	return params, true
}

func (p *Parser) parseParams() []*ast.ParameterDecl {
	p.expect(tokens.LPAREN)
	var params []*ast.ParameterDecl
	for !p.at(tokens.RPAREN) && !p.atEOF() {
		attrs := p.parseAttrs()
		start := p.cur().Start
		label := "_"
		name := p.expect(tokens.IDENTIFIER).Value
		// `label name: Type` — a second identifier before ':' means the
		// first one was an external label (spec §4.B argument labels).
		if p.at(tokens.IDENTIFIER) {
			label = name
			name = p.advance().Value
		}
		p.expect(tokens.COLON)
		passMode := ast.PassIn
		if p.accept(tokens.KW_REF) {
			passMode = ast.PassRef
		}
		typ := p.parseType()
		var def ast.Expr
		if p.accept(tokens.ASSIGN) {
			def = p.parseExpr()
		}
		param := &ast.ParameterDecl{
			DeclBase: ast.DeclBase{Location: p.loc(start), Ident: name, Attrs: attrs},
			Label:    label,
			Type:     typ,
			PassMode: passMode,
			Default:  def,
		}
		p.reg.Alloc(param)
		params = append(params, param)
		if !p.accept(tokens.COMMA) {
			break
		}
	}
	p.expect(tokens.RPAREN)
	return params
}

func (p *Parser) parseFunction() ast.Decl {
	p.advance() // 'func'
	name := p.expect(tokens.IDENTIFIER).Value
	tparams, isTemplate := p.parseTemplateParams()
	params := p.parseParams()
	var ret ast.Type
	if p.accept(tokens.ARROW) {
		ret = p.parseType()
	} else {
		ret = &ast.BuiltinType{Kind: ast.BuiltinVoid}
	}
	throws, requires, ensures, where := p.parseContracts()

	fn := &ast.FunctionDecl{
		DeclBase:       ast.DeclBase{Ident: name},
		Params:         params,
		ReturnType:     ret,
		Throws:         throws,
		Requires:       requires,
		Ensures:        ensures,
		IsTemplate:     isTemplate,
		TemplateParams: tparams,
		Where:          where,
	}
	if p.at(tokens.LBRACE) {
		fn.Body = p.parseBlock()
	} else {
		fn.Modifiers.Set(ast.ModPrototype)
		p.consumeStmtEnd(p.cur().Start)
	}
	fn.Location = p.loc(fn.Location.Start)
	return fn
}

// parseContracts parses any combination of `throws`, `requires`,
// `ensures`, and `where` clauses trailing a declaration header (spec §4.B).
func (p *Parser) parseContracts() (throws []*ast.ThrowsCont, requires []*ast.RequiresCont, ensures []*ast.EnsuresCont, where []*ast.WhereCont) {
	for {
		start := p.cur().Start
		switch p.cur().Kind {
		case tokens.KW_THROWS:
			p.advance()
			var t ast.Type
			if !p.startsBlockOrContract() {
				t = p.parseType()
			}
			throws = append(throws, &ast.ThrowsCont{ContBase: ast.ContBase{Location: p.loc(start)}, ExceptionType: t})
		case tokens.KW_REQUIRES:
			p.advance()
			requires = append(requires, &ast.RequiresCont{ContBase: ast.ContBase{Location: p.loc(start)}, Condition: p.parseExpr()})
		case tokens.KW_ENSURES:
			p.advance()
			ensures = append(ensures, &ast.EnsuresCont{ContBase: ast.ContBase{Location: p.loc(start)}, Condition: p.parseExpr()})
		case tokens.KW_WHERE:
			p.advance()
			where = append(where, &ast.WhereCont{ContBase: ast.ContBase{Location: p.loc(start)}, Condition: p.parseWhereCondition()})
		default:
			return
		}
	}
}

func (p *Parser) startsBlockOrContract() bool {
	switch p.cur().Kind {
	case tokens.LBRACE, tokens.KW_REQUIRES, tokens.KW_ENSURES, tokens.KW_WHERE, tokens.SEMI, tokens.EOF:
		return true
	}
	return false
}

// parseWhereCondition parses a `where` clause body, special-casing an
// infix ':' as "type extends trait" (spec §4.B). The "T: U" shape and a
// plain boolean expression both start with a type-shaped token sequence,
// so this speculatively parses a type and backtracks via the lexer's
// checkpoint if no ':' follows.
func (p *Parser) parseWhereCondition() ast.Expr {
	start := p.cur().Start
	cp := p.lex.Save()
	left := p.parseType()
	if p.accept(tokens.COLON) {
		right := p.parseType()
		return &ast.CheckExtendsTypeExpr{
			ExprBase: ast.ExprBase{Location: p.loc(start)},
			Sub:      left,
			Super:    right,
		}
	}
	p.lex.Restore(cp)
	return p.parseExpr()
}

// ---- struct / class / union ----

func (p *Parser) parseStructLike(kind ast.StructKind) ast.Decl {
	p.advance() // struct/class/union
	name := p.expect(tokens.IDENTIFIER).Value
	tparams, isTemplate := p.parseTemplateParams()
	var bases []ast.Type
	if p.accept(tokens.COLON) {
		bases = append(bases, p.parseType())
		for p.accept(tokens.COMMA) {
			bases = append(bases, p.parseType())
		}
	}
	_, _, _, where := p.parseContracts()
	p.expect(tokens.LBRACE)
	var members []ast.Decl
	var fields []*ast.VariableDecl
	for !p.at(tokens.RBRACE) && !p.atEOF() {
		m := p.parseDecl(true)
		members = append(members, m)
		if vd, ok := m.(*ast.VariableDecl); ok {
			fields = append(fields, vd)
		}
	}
	end := p.cur().End
	p.expect(tokens.RBRACE)

	sd := &ast.StructDecl{
		DeclBase:       ast.DeclBase{Ident: name, Location: p.locEnd(source.Position{}, end)},
		Kind:           kind,
		Bases:          bases,
		Fields:         fields,
		Members:        members,
		IsTemplate:     isTemplate,
		TemplateParams: tparams,
		Where:          where,
	}
	return sd
}

func (p *Parser) parseTrait() ast.Decl {
	p.advance() // 'trait'
	name := p.expect(tokens.IDENTIFIER).Value
	tparams, isTemplate := p.parseTemplateParams()
	_, _, _, where := p.parseContracts()
	p.expect(tokens.LBRACE)
	var reqs []ast.Decl
	for !p.at(tokens.RBRACE) && !p.atEOF() {
		member := p.parseDecl(true)
		member.Base().Modifiers.Set(ast.ModPrototype)
		reqs = append(reqs, &ast.TraitPrototypeDecl{
			DeclBase:  ast.DeclBase{Location: *member.Loc()},
			Signature: member,
		})
	}
	end := p.cur().End
	p.expect(tokens.RBRACE)
	return &ast.TraitDecl{
		DeclBase:       ast.DeclBase{Ident: name, Location: p.locEnd(source.Position{}, end)},
		Requirements:   reqs,
		IsTemplate:     isTemplate,
		TemplateParams: tparams,
		Where:          where,
	}
}

func (p *Parser) parseExtension() ast.Decl {
	p.advance() // 'extension'
	target := p.parseType()
	p.expect(tokens.LBRACE)
	var members []ast.Decl
	for !p.at(tokens.RBRACE) && !p.atEOF() {
		members = append(members, p.parseDecl(true))
	}
	end := p.cur().End
	p.expect(tokens.RBRACE)
	return &ast.ExtensionDecl{
		DeclBase: ast.DeclBase{Location: p.locEnd(source.Position{}, end)},
		Target:   target,
		Members:  members,
	}
}

func (p *Parser) parseEnum() ast.Decl {
	p.advance() // 'enum'
	name := p.expect(tokens.IDENTIFIER).Value
	var underlying ast.Type
	if p.accept(tokens.COLON) {
		underlying = p.parseType()
	}
	p.expect(tokens.LBRACE)
	var consts []*ast.EnumConstDecl
	for !p.at(tokens.RBRACE) && !p.atEOF() {
		cstart := p.cur().Start
		cname := p.expect(tokens.IDENTIFIER).Value
		var val ast.Expr
		if p.accept(tokens.ASSIGN) {
			val = p.parseExpr()
		}
		ec := &ast.EnumConstDecl{DeclBase: ast.DeclBase{Ident: cname, Location: p.loc(cstart)}, Value: val}
		p.reg.Alloc(ec)
		consts = append(consts, ec)
		if !p.accept(tokens.COMMA) {
			break
		}
	}
	end := p.cur().End
	p.expect(tokens.RBRACE)
	return &ast.EnumDecl{
		DeclBase:       ast.DeclBase{Ident: name, Location: p.locEnd(source.Position{}, end)},
		UnderlyingType: underlying,
		Consts:         consts,
	}
}

func (p *Parser) parseTypeAlias() ast.Decl {
	start := p.cur().Start
	p.advance() // 'type'
	name := p.expect(tokens.IDENTIFIER).Value
	p.expect(tokens.ASSIGN)
	aliased := p.parseType()
	end := p.cur().Start
	p.consumeStmtEnd(end)
	return &ast.TypeAliasDecl{
		DeclBase: ast.DeclBase{Ident: name, Location: p.locEnd(start, end)},
		Aliased:  aliased,
	}
}

func (p *Parser) parseVariableDecl() ast.Decl {
	start := p.cur().Start
	isMut := p.at(tokens.KW_VAR)
	p.advance() // 'var' or 'let'
	name := p.expect(tokens.IDENTIFIER).Value
	var typ ast.Type
	if p.accept(tokens.COLON) {
		typ = p.parseType()
	}
	var init ast.Expr
	if p.accept(tokens.ASSIGN) {
		init = p.parseExpr()
	}
	end := p.cur().Start
	p.consumeStmtEnd(end)
	vd := &ast.VariableDecl{
		DeclBase: ast.DeclBase{Ident: name, Location: p.locEnd(start, end)},
		Type:     typ,
		Init:     init,
	}
	if isMut {
		vd.Modifiers.Set(ast.ModMut)
	}
	return vd
}

// ---- struct/class members: constructor, destructor, property, operator, subscript ----

func (p *Parser) parseConstructor() ast.Decl {
	p.advance() // 'constructor'
	kind := ast.ConstructorNormal
	if p.at(tokens.IDENTIFIER) {
		switch p.cur().Value {
		case "copy":
			kind = ast.ConstructorCopy
			p.advance()
		case "move":
			kind = ast.ConstructorMove
			p.advance()
		}
	}
	params := p.parseParams()
	throws, _, _, _ := p.parseContracts()
	body := p.parseBlock()
	return &ast.ConstructorDecl{DeclBase: ast.DeclBase{Ident: "constructor"}, Kind: kind, Params: params, Body: body, Throws: throws}
}

func (p *Parser) parseDestructor() ast.Decl {
	p.advance() // 'destructor'
	p.expect(tokens.LPAREN)
	p.expect(tokens.RPAREN)
	body := p.parseBlock()
	return &ast.DestructorDecl{DeclBase: ast.DeclBase{Ident: "destructor"}, Body: body}
}

func (p *Parser) parseProperty() ast.Decl {
	p.advance() // 'property'
	name := p.expect(tokens.IDENTIFIER).Value
	p.expect(tokens.COLON)
	typ := p.parseType()
	p.expect(tokens.LBRACE)
	prop := &ast.PropertyDecl{DeclBase: ast.DeclBase{Ident: name}, Type: typ}
	for !p.at(tokens.RBRACE) && !p.atEOF() {
		switch p.cur().Kind {
		case tokens.KW_GET:
			p.advance()
			prop.Get = &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "get"}, ReturnType: typ, Body: p.parseBlock()}
		case tokens.KW_SET:
			p.advance()
			prop.Set = &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "set"}, ReturnType: &ast.BuiltinType{Kind: ast.BuiltinVoid}, Body: p.parseBlock()}
		default:
			p.fatal(diagnostics.UnexpectedToken(p.spanOf(p.cur()), "'get' or 'set'", p.cur().Kind.String()))
			p.advance()
		}
	}
	p.expect(tokens.RBRACE)
	return prop
}

var operatorSymbolTokens = map[tokens.Kind]string{
	tokens.PLUS: "+", tokens.MINUS: "-", tokens.STAR: "*", tokens.SLASH: "/",
	tokens.PERCENT: "%", tokens.EQ: "==", tokens.NEQ: "!=", tokens.LT: "<",
	tokens.LE: "<=", tokens.GT: ">", tokens.GE: ">=",
}

func (p *Parser) parseOperator() ast.Decl {
	p.advance() // 'operator'
	kind := ast.OperatorInfix
	symbol := ""
	switch {
	case p.at(tokens.LPAREN):
		kind = ast.OperatorCall
		symbol = "()"
	case p.at(tokens.KW_AS):
		kind = ast.OperatorCast
		p.advance()
		symbol = "as"
	default:
		if s, ok := operatorSymbolTokens[p.cur().Kind]; ok {
			symbol = s
			p.advance()
		} else {
			symbol = p.advance().Value
		}
	}
	params := p.parseParams()
	var ret ast.Type
	if p.accept(tokens.ARROW) {
		ret = p.parseType()
	} else {
		ret = &ast.BuiltinType{Kind: ast.BuiltinVoid}
	}
	op := &ast.OperatorDecl{DeclBase: ast.DeclBase{Ident: "operator" + symbol}, Kind: kind, Symbol: symbol, Params: params, ReturnType: ret}
	if p.at(tokens.LBRACE) {
		op.Body = p.parseBlock()
	} else {
		op.Modifiers.Set(ast.ModPrototype)
		p.consumeStmtEnd(p.cur().Start)
	}
	return op
}

func (p *Parser) parseSubscript() ast.Decl {
	p.advance() // 'subscript'
	params := p.parseParams()
	p.expect(tokens.ARROW)
	ret := p.parseType()
	p.expect(tokens.LBRACE)
	op := &ast.OperatorDecl{DeclBase: ast.DeclBase{Ident: "subscript"}, Kind: ast.OperatorSubscript, Symbol: "[]", Params: params, ReturnType: ret}
	for !p.at(tokens.RBRACE) && !p.atEOF() {
		switch p.cur().Kind {
		case tokens.KW_GET:
			p.advance()
			op.Get = &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "get"}, Params: params, ReturnType: ret, Body: p.parseBlock()}
		case tokens.KW_SET:
			p.advance()
			op.Set = &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "set"}, ReturnType: &ast.BuiltinType{Kind: ast.BuiltinVoid}, Body: p.parseBlock()}
		default:
			p.fatal(diagnostics.UnexpectedToken(p.spanOf(p.cur()), "'get' or 'set'", p.cur().Kind.String()))
			p.advance()
		}
	}
	p.expect(tokens.RBRACE)
	return op
}
