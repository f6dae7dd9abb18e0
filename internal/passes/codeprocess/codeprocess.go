// Package codeprocess is the CodeProcessor pass (E in spec §2/§4.G): the
// fifth and final semantic pass. It walks every function/method/operator
// body, binding each IdentifierExpr to CurrentSelf, LocalVariableRef (for
// locals and parameters alike), VariableRef or MemberVariableRef,
// resolving FunctionCallExpr call targets via SignatureComparer's argument
// matching into MemberFunctionCall, and checking break/continue against
// the enclosing loop/switch and return values against the declared return
// type. It produces no ParameterRef, EnumConstRef, ConstructorCall,
// CallOperatorReference or VTableFunctionReference, leaves
// MemberAccessCallExpr unresolved, inserts no ImplicitCast/ImplicitDeref/
// LValueToRValue conversions, and performs no goto, fallthrough or try
// checks.
//
// Grounded on itsfuad-Ferret's internal/semantics/typechecker
// (compatibility.go/narrowing.go/params.go's "type-check an expression,
// insert a conversion, check assignability" shape), adapted to spec.md
// §4.G's resolved-form rewriting.
package codeprocess

import (
	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
	"ghoulc/internal/sigcompare"
	"ghoulc/internal/typeutil"
)

// localScope is one block's set of local declarations, chained to its
// enclosing block/function scope.
type localScope struct {
	locals map[string]ast.DeclId
	parent *localScope
}

func newLocalScope(parent *localScope) *localScope {
	return &localScope{locals: map[string]ast.DeclId{}, parent: parent}
}

func (s *localScope) declare(name string, id ast.DeclId) {
	if name != "" {
		s.locals[name] = id
	}
}

func (s *localScope) lookup(name string) (ast.DeclId, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if id, ok := cur.locals[name]; ok {
			return id, true
		}
	}
	return ast.InvalidDeclId, false
}

// loopCtx tracks the enclosing loop/switch labels visible to break/
// continue (spec §4.G edge cases).
type loopCtx struct {
	label      string
	isSwitch   bool // switch permits break but not continue
	parent     *loopCtx
}

// funcCtx tracks the function-level context a body is processed under:
// its self type (for CurrentSelf binding and member lookup), its owning
// struct/trait's members (for unqualified MemberVariableRef/
// MemberFunctionCall binding), and its declared throws set.
type funcCtx struct {
	reg      *ast.Registry
	self     ast.Type
	owner    ast.DeclId
	throws   []*ast.ThrowsCont
	retType  ast.Type
}

// Processor holds the shared state for one CodeProcessor run.
type Processor struct {
	reg     *ast.Registry
	diags   *diagnostics.DiagnosticBag
	globals map[string][]*ast.FunctionDecl
}

// New creates a CodeProcessor bound to reg/diags.
func New(reg *ast.Registry, diags *diagnostics.DiagnosticBag) *Processor {
	return &Processor{reg: reg, diags: diags, globals: map[string][]*ast.FunctionDecl{}}
}

// Run walks every function/method/operator/constructor body reachable
// from topLevel (including inside structs, traits, and their template
// instantiations) and rewrites it in place.
func (p *Processor) Run(topLevel []ast.Decl) {
	p.collectGlobals(topLevel)
	p.walkDecls(topLevel, nil)
}

// collectGlobals records every namespace-scoped function under its name so
// plain calls to them (`foo()`, as opposed to `x.foo()`) bind without
// needing a receiver. A name may carry more than one overload (spec §4.G:
// resolveCall collects every candidate and ranks by exactness), so this
// appends rather than overwriting a same-named entry.
func (p *Processor) collectGlobals(decls []ast.Decl) {
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.NamespaceDecl:
			p.collectGlobals(n.Members)
		case *ast.FunctionDecl:
			if n.Ident != "" {
				p.globals[n.Ident] = append(p.globals[n.Ident], n)
			}
		}
	}
}

func (p *Processor) walkDecls(decls []ast.Decl, self ast.Type) {
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.NamespaceDecl:
			p.walkDecls(n.Members, nil)
		case *ast.StructDecl:
			p.walkDecls(n.Members, &ast.StructType{Decl: n.Id()})
			for _, inst := range n.Instantiations {
				p.walkDecls(inst.Members, &ast.StructType{Decl: inst.Id()})
			}
		case *ast.TraitDecl:
			p.walkDecls(n.Requirements, &ast.TraitType{Decl: n.Id()})
		case *ast.ExtensionDecl:
			p.walkDecls(n.Members, n.Target)
		case *ast.FunctionDecl:
			p.processFunction(n, self)
			for _, inst := range n.Instantiations {
				p.processFunction(inst, self)
			}
		case *ast.OperatorDecl:
			p.processBody(n.Body, &funcCtx{reg: p.reg, self: self}, nil, n.Params)
		case *ast.ConstructorDecl:
			p.processBody(n.Body, &funcCtx{reg: p.reg, self: self, throws: n.Throws}, nil, n.Params)
		case *ast.DestructorDecl:
			p.processBody(n.Body, &funcCtx{reg: p.reg, self: self}, nil, nil)
		case *ast.PropertyDecl:
			if n.Get != nil {
				p.processFunction(n.Get, self)
			}
			if n.Set != nil {
				p.processFunction(n.Set, self)
			}
		}
	}
}

func (p *Processor) processFunction(fn *ast.FunctionDecl, self ast.Type) {
	if fn.Body == nil {
		return
	}
	ctx := &funcCtx{reg: p.reg, self: fn.SelfType, owner: fn.Container, throws: fn.Throws, retType: fn.ReturnType}
	if ctx.self == nil {
		ctx.self = self
	}
	p.processBody(fn.Body, ctx, nil, fn.Params)
}

// processBody type-processes one block, given the loop context it's
// nested in (nil at function top level) and the parameter list to seed
// the outermost local scope with.
func (p *Processor) processBody(body *ast.Block, fc *funcCtx, lc *loopCtx, params []*ast.ParameterDecl) {
	if body == nil {
		return
	}
	scope := newLocalScope(nil)
	for _, param := range params {
		scope.declare(param.Ident, param.Id())
	}
	p.processBlock(body, fc, lc, scope)
}

func (p *Processor) processBlock(b *ast.Block, fc *funcCtx, lc *loopCtx, parent *localScope) {
	scope := newLocalScope(parent)
	for _, s := range b.Stmts {
		p.processStmt(s, fc, lc, scope)
	}
}

func (p *Processor) processStmt(s ast.Stmt, fc *funcCtx, lc *loopCtx, scope *localScope) {
	switch n := s.(type) {
	case *ast.Block:
		p.processBlock(n, fc, lc, scope)
	case *ast.ExprStmt:
		n.X = p.processExpr(n.X, fc, scope)
		if decl, ok := n.X.(*ast.VariableDeclExpr); ok {
			scope.declare(decl.Name, decl.Local)
		}
	case *ast.IfStmt:
		n.Cond = p.processExpr(n.Cond, fc, scope)
		p.processBlock(n.Then, fc, lc, scope)
		if n.Else != nil {
			p.processStmt(n.Else, fc, lc, scope)
		}
	case *ast.WhileStmt:
		n.Cond = p.processExpr(n.Cond, fc, scope)
		p.processBlock(n.Body, fc, &loopCtx{label: n.Label, parent: lc}, scope)
	case *ast.DoWhileStmt:
		p.processBlock(n.Body, fc, &loopCtx{label: n.Label, parent: lc}, scope)
		n.Cond = p.processExpr(n.Cond, fc, scope)
	case *ast.ForStmt:
		inner := newLocalScope(scope)
		if n.Init != nil {
			p.processStmt(n.Init, fc, lc, inner)
		}
		if n.Cond != nil {
			n.Cond = p.processExpr(n.Cond, fc, inner)
		}
		if n.IterExpr != nil {
			n.IterExpr = p.processExpr(n.IterExpr, fc, inner)
			inner.declare(n.IterVar, ast.InvalidDeclId)
		}
		if n.Post != nil {
			p.processStmt(n.Post, fc, lc, inner)
		}
		p.processBlock(n.Body, fc, &loopCtx{label: n.Label, parent: lc}, inner)
	case *ast.SwitchStmt:
		n.Tag = p.processExpr(n.Tag, fc, scope)
		swLc := &loopCtx{label: n.Label, isSwitch: true, parent: lc}
		for _, c := range n.Cases {
			for i, v := range c.Values {
				c.Values[i] = p.processExpr(v, fc, scope)
			}
			inner := newLocalScope(scope)
			for _, st := range c.Body {
				p.processStmt(st, fc, swLc, inner)
			}
		}
	case *ast.DoCatchStmt:
		p.processBlock(n.Body, fc, lc, scope)
		for _, c := range n.Catches {
			inner := newLocalScope(scope)
			inner.declare(c.Binding, ast.InvalidDeclId)
			p.processBlock(c.Body, fc, lc, inner)
		}
		if n.Finally != nil {
			p.processBlock(n.Finally, fc, lc, scope)
		}
	case *ast.BreakStmt:
		if !p.findLoop(lc, n.Label) {
			p.diags.Add(diagnostics.UndefinedName(n.Location, n.Label))
		}
	case *ast.ContinueStmt:
		if !p.findLoopContinuable(lc, n.Label) {
			p.diags.Add(diagnostics.UndefinedName(n.Location, n.Label))
		}
	case *ast.ReturnStmt:
		if n.Value != nil {
			n.Value = p.processExpr(n.Value, fc, scope)
			if fc.retType != nil && n.Value.ValueType() != nil && !typeutil.AssignableTo(n.Value.ValueType(), fc.retType) {
				p.diags.Add(diagnostics.FailedImplicitConversion(n.Location, typeutil.Describe(n.Value.ValueType()), typeutil.Describe(fc.retType)))
			}
		}
	}
}

func (p *Processor) findLoop(lc *loopCtx, label string) bool {
	for cur := lc; cur != nil; cur = cur.parent {
		if label == "" || cur.label == label {
			return true
		}
	}
	return false
}

func (p *Processor) findLoopContinuable(lc *loopCtx, label string) bool {
	for cur := lc; cur != nil; cur = cur.parent {
		if cur.isSwitch {
			continue
		}
		if label == "" || cur.label == label {
			return true
		}
	}
	return false
}

// processExpr rewrites e (and its subexpressions) into resolved form,
// returning the (possibly different) node that should replace it in its
// parent.
func (p *Processor) processExpr(e ast.Expr, fc *funcCtx, scope *localScope) ast.Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.IdentifierExpr:
		return p.bindIdentifier(n, fc, scope)
	case *ast.ParenExpr:
		n.X = p.processExpr(n.X, fc, scope)
	case *ast.PrefixExpr:
		n.X = p.processExpr(n.X, fc, scope)
	case *ast.PostfixExpr:
		n.X = p.processExpr(n.X, fc, scope)
	case *ast.InfixExpr:
		n.X = p.processExpr(n.X, fc, scope)
		n.Y = p.processExpr(n.Y, fc, scope)
	case *ast.AssignmentExpr:
		n.Target = p.processExpr(n.Target, fc, scope)
		n.Value = p.processExpr(n.Value, fc, scope)
		if !typeutil.AssignableTo(n.Value.ValueType(), n.Target.ValueType()) && n.Target.ValueType() != nil {
			p.diags.Add(diagnostics.FailedImplicitConversion(n.Location, typeutil.Describe(n.Value.ValueType()), typeutil.Describe(n.Target.ValueType())))
		}
	case *ast.TernaryExpr:
		n.Cond = p.processExpr(n.Cond, fc, scope)
		n.Then = p.processExpr(n.Then, fc, scope)
		n.Else = p.processExpr(n.Else, fc, scope)
	case *ast.AsExpr:
		n.X = p.processExpr(n.X, fc, scope)
	case *ast.IsExpr:
		n.X = p.processExpr(n.X, fc, scope)
	case *ast.HasExpr:
		n.X = p.processExpr(n.X, fc, scope)
	case *ast.RefExpr:
		n.X = p.processExpr(n.X, fc, scope)
	case *ast.TryExpr:
		if len(fc.throws) == 0 {
			p.diags.Add(diagnostics.TryNotPermitted(n.Location))
		}
		n.X = p.processExpr(n.X, fc, scope)
	case *ast.ArrayLiteralExpr:
		for i, el := range n.Elements {
			n.Elements[i] = p.processExpr(el, fc, scope)
		}
	case *ast.VariableDeclExpr:
		if n.Init != nil {
			n.Init = p.processExpr(n.Init, fc, scope)
		}
		id := p.reg.Alloc(&ast.VariableDecl{DeclBase: ast.DeclBase{Location: n.Location, Ident: n.Name}, Type: n.Annotation})
		n.Local = id
		scope.declare(n.Name, id)
	case *ast.LabeledArgumentExpr:
		n.Value = p.processExpr(n.Value, fc, scope)
	case *ast.FunctionCallExpr:
		n.Callee = p.processExpr(n.Callee, fc, scope)
		for _, a := range n.Args {
			a.Value = p.processExpr(a.Value, fc, scope)
		}
		return p.resolveCall(n, fc)
	case *ast.SubscriptCallExpr:
		n.X = p.processExpr(n.X, fc, scope)
		for _, idx := range n.Args {
			idx.Value = p.processExpr(idx.Value, fc, scope)
		}
	case *ast.MemberAccessCallExpr:
		n.X = p.processExpr(n.X, fc, scope)
		for _, a := range n.Args {
			a.Value = p.processExpr(a.Value, fc, scope)
		}
	}
	return e
}

// bindIdentifier resolves a bare name, in order, to: CurrentSelf for
// `self`; a LocalVariableRef for a block local or a parameter (parameters
// are already seeded into scope); a VariableRef for a namespace-level
// function with a single overload (an overloaded name is returned as is
// for resolveCall); or a MemberVariableRef through an implicit `self` for
// a field of the enclosing struct. Enum constants are not bound; any other
// name is reported as undefined.
func (p *Processor) bindIdentifier(id *ast.IdentifierExpr, fc *funcCtx, scope *localScope) ast.Expr {
	if id.Name == "self" {
		owner := ast.InvalidDeclId
		if st, ok := fc.self.(*ast.StructType); ok {
			owner = st.Decl
		}
		return &ast.CurrentSelf{ExprBase: ast.ExprBase{Location: id.Location}, Owner: owner}
	}
	if localId, ok := scope.lookup(id.Name); ok {
		return &ast.LocalVariableRef{ExprBase: ast.ExprBase{Location: id.Location}, Local: localId}
	}
	if candidates, ok := p.globals[id.Name]; ok {
		// A single overload can bind eagerly (also covers a bare function
		// value reference, not just a call). An overloaded name is left as
		// the identifier itself so resolveCall can rank every candidate
		// against the actual call-site arguments.
		if len(candidates) == 1 {
			return &ast.VariableRef{ExprBase: ast.ExprBase{Location: id.Location}, Var: candidates[0].Id()}
		}
		return id
	}
	if fc.owner != ast.InvalidDeclId {
		if owner, ok := p.reg.Get(fc.owner).(*ast.StructDecl); ok {
			for _, m := range owner.Members {
				if m.Base().Ident == id.Name {
					if v, ok := m.(*ast.VariableDecl); ok {
						self := &ast.CurrentSelf{ExprBase: ast.ExprBase{Location: id.Location}, Owner: fc.owner}
						return &ast.MemberVariableRef{ExprBase: ast.ExprBase{Location: id.Location}, X: self, Field: v.Id()}
					}
				}
			}
		}
	}
	p.diags.Add(diagnostics.UndefinedName(id.Location, id.Name))
	return id
}

// resolveCall collects every overload sharing the callee's name, matches
// call.Args against each via SignatureComparer, and ranks the survivors by
// exactness (spec §4.G: "collects candidates…ranks by exactness; fatal on
// ambiguity"). A callee that didn't resolve to a known function name (e.g.
// a function pointer value) is left as a plain FunctionCallExpr.
func (p *Processor) resolveCall(call *ast.FunctionCallExpr, fc *funcCtx) ast.Expr {
	args := make([]sigcompare.Argument, len(call.Args))
	for i, a := range call.Args {
		var vt ast.Type
		if a.Value != nil {
			vt = a.Value.ValueType()
		}
		args[i] = sigcompare.Argument{Label: a.Label, Type: vt}
	}

	name, candidates := p.callCandidates(call.Callee)
	if candidates == nil {
		return call
	}

	var matched []*ast.FunctionDecl
	for _, fn := range candidates {
		if sigcompare.Matches(fn.Params, args) {
			matched = append(matched, fn)
		}
	}
	if len(matched) == 0 {
		p.diags.Add(diagnostics.NoMatchingOverload(call.Location, name))
		return call
	}

	best := matched[0]
	ambiguous := false
	for _, cand := range matched[1:] {
		switch {
		case sigcompare.MoreSpecific(cand.Params, best.Params, args):
			best = cand
			ambiguous = false
		case sigcompare.MoreSpecific(best.Params, cand.Params, args):
			// best remains strictly more specific than cand
		default:
			ambiguous = true
		}
	}
	if ambiguous {
		p.diags.Add(diagnostics.AmbiguousOverload(call.Location, name))
		return call
	}

	positional := make([]ast.Expr, len(call.Args))
	for i, a := range call.Args {
		positional[i] = a.Value
	}
	return &ast.MemberFunctionCall{ExprBase: ast.ExprBase{Location: call.Location}, Receiver: nil, Method: best.Id(), Args: positional}
}

// callCandidates resolves callee to the name it names and every overload
// registered under that name, whether callee already bound to a single
// function (the common, non-overloaded case) or was left as a bare
// identifier because bindIdentifier found more than one candidate.
func (p *Processor) callCandidates(callee ast.Expr) (string, []*ast.FunctionDecl) {
	switch c := callee.(type) {
	case *ast.VariableRef:
		fn, ok := p.reg.Get(c.Var).(*ast.FunctionDecl)
		if !ok {
			return "", nil
		}
		return fn.Ident, p.globals[fn.Ident]
	case *ast.IdentifierExpr:
		return c.Name, p.globals[c.Name]
	default:
		return "", nil
	}
}
