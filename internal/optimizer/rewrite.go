package optimizer

import (
	"github.com/hassan/cc64/internal/parser/ast"
)

// rewriter walks a program and rebuilds it through three hooks. Any hook
// may be nil, meaning "no change at this level".
//
//   - expr transforms a whole expression tree and reports its rewrites.
//   - stmt runs on each statement after its children were rewritten; it
//     may replace the statement, or return nil to delete it.
//   - stmts runs on each rebuilt statement list (function bodies and
//     blocks), letting a pass truncate or reorder whole lists.
//
// The walk never mutates the input: every node on a changed path is
// reallocated, unchanged subtrees are shared.
type rewriter struct {
	expr  func(ast.Expr) (ast.Expr, int)
	stmt  func(ast.Stmt) (ast.Stmt, int)
	stmts func([]ast.Stmt) ([]ast.Stmt, int)
}

func (r *rewriter) program(p *ast.Program) (*ast.Program, int) {
	changed := 0
	decls := make([]ast.Decl, 0, len(p.Decls))
	for _, decl := range p.Decls {
		switch d := decl.(type) {
		case *ast.FunctionDecl:
			if d.Body == nil {
				decls = append(decls, d)
				continue
			}
			body, n := r.rewriteBlock(d.Body)
			changed += n
			if n == 0 {
				decls = append(decls, d)
				continue
			}
			clone := *d
			clone.Body = body
			decls = append(decls, &clone)

		case *ast.VariableDecl:
			nd, n := r.rewriteVarDecl(d)
			changed += n
			decls = append(decls, nd)

		default:
			decls = append(decls, decl)
		}
	}
	if changed == 0 {
		return p, 0
	}
	return &ast.Program{Decls: decls}, changed
}

func (r *rewriter) rewriteBlock(block *ast.CompoundStmt) (*ast.CompoundStmt, int) {
	stmts, changed := r.rewriteStmts(block.Statements)
	if changed == 0 {
		return block, 0
	}
	return &ast.CompoundStmt{Statements: stmts, Position: block.Position}, changed
}

func (r *rewriter) rewriteStmts(in []ast.Stmt) ([]ast.Stmt, int) {
	changed := 0
	out := make([]ast.Stmt, 0, len(in))
	for _, stmt := range in {
		ns, n := r.rewriteStmt(stmt)
		changed += n
		if ns != nil {
			out = append(out, ns)
		}
	}
	if r.stmts != nil {
		trimmed, n := r.stmts(out)
		changed += n
		out = trimmed
	}
	return out, changed
}

// rewriteStmt rebuilds one statement. A nil result deletes the statement.
func (r *rewriter) rewriteStmt(stmt ast.Stmt) (ast.Stmt, int) {
	rebuilt, changed := r.rewriteStmtChildren(stmt)
	if r.stmt != nil && rebuilt != nil {
		replaced, n := r.stmt(rebuilt)
		return replaced, changed + n
	}
	return rebuilt, changed
}

func (r *rewriter) rewriteStmtChildren(stmt ast.Stmt) (ast.Stmt, int) {
	switch s := stmt.(type) {
	case *ast.CompoundStmt:
		return r.rewriteBlock(s)

	case *ast.ExprStmt:
		expr, n := r.rewriteExpr(s.Expression)
		if n == 0 {
			return s, 0
		}
		return &ast.ExprStmt{Expression: expr}, n

	case *ast.VariableDecl:
		return r.rewriteVarDecl(s)

	case *ast.ReturnStmt:
		if s.Value == nil {
			return s, 0
		}
		value, n := r.rewriteExpr(s.Value)
		if n == 0 {
			return s, 0
		}
		return &ast.ReturnStmt{Value: value, Position: s.Position}, n

	case *ast.IfStmt:
		cond, n1 := r.rewriteExpr(s.Cond)
		then, n2 := r.rewriteStmt(s.Then)
		var elseStmt ast.Stmt
		n3 := 0
		if s.Else != nil {
			elseStmt, n3 = r.rewriteStmt(s.Else)
		}
		changed := n1 + n2 + n3
		if changed == 0 {
			return s, 0
		}
		if then == nil {
			then = &ast.CompoundStmt{Position: s.Position}
		}
		return &ast.IfStmt{Cond: cond, Then: then, Else: elseStmt, Position: s.Position}, changed

	case *ast.WhileStmt:
		cond, n1 := r.rewriteExpr(s.Cond)
		body, n2 := r.rewriteStmt(s.Body)
		if n1+n2 == 0 {
			return s, 0
		}
		if body == nil {
			body = &ast.CompoundStmt{Position: s.Position}
		}
		return &ast.WhileStmt{Cond: cond, Body: body, Position: s.Position}, n1 + n2

	case *ast.ForStmt:
		changed := 0
		init := s.Init
		if init != nil {
			var n int
			init, n = r.rewriteStmt(init)
			changed += n
		}
		cond := s.Cond
		if cond != nil {
			var n int
			cond, n = r.rewriteExpr(cond)
			changed += n
		}
		post := s.Post
		if post != nil {
			var n int
			post, n = r.rewriteExpr(post)
			changed += n
		}
		body, n := r.rewriteStmt(s.Body)
		changed += n
		if changed == 0 {
			return s, 0
		}
		if body == nil {
			body = &ast.CompoundStmt{Position: s.Position}
		}
		return &ast.ForStmt{Init: init, Cond: cond, Post: post, Body: body, Position: s.Position}, changed

	default:
		return stmt, 0
	}
}

func (r *rewriter) rewriteVarDecl(d *ast.VariableDecl) (*ast.VariableDecl, int) {
	if d.Init == nil {
		return d, 0
	}
	init, n := r.rewriteExpr(d.Init)
	if n == 0 {
		return d, 0
	}
	return &ast.VariableDecl{
		TypeName: d.TypeName,
		Name:     d.Name,
		Init:     init,
		Position: d.Position,
	}, n
}

func (r *rewriter) rewriteExpr(expr ast.Expr) (ast.Expr, int) {
	if r.expr == nil {
		return expr, 0
	}
	return r.expr(expr)
}

// literalTruth reports whether expr is a literal, and if so whether it is
// truthy under C rules (nonzero means true).
func literalTruth(expr ast.Expr) (truthy, isLiteral bool) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return e.Value != 0, true
	case *ast.FloatLiteral:
		return e.Value != 0, true
	case *ast.CharLiteral:
		return e.Value != 0, true
	}
	return false, false
}
