package nsproto

import (
	"testing"

	"github.com/nalgeon/be"

	"ghoulc/internal/ast"
)

func namedDecl(ident string) ast.DeclBase {
	return ast.DeclBase{Ident: ident}
}

func fnDecl(ident string) *ast.FunctionDecl {
	return &ast.FunctionDecl{DeclBase: namedDecl(ident)}
}

func TestRunMergesSameNamespaceAcrossFiles(t *testing.T) {
	file1 := []ast.Decl{
		&ast.NamespaceDecl{DeclBase: namedDecl("net"), Members: []ast.Decl{fnDecl("send")}},
	}
	file2 := []ast.Decl{
		&ast.NamespaceDecl{DeclBase: namedDecl("net"), Members: []ast.Decl{fnDecl("recv")}},
	}

	result := Run([][]ast.Decl{file1, file2})

	be.Equal(t, len(result.TopLevel), 1)
	merged := result.TopLevel[0].(*ast.NamespaceDecl)
	be.Equal(t, merged.Ident, "net")
	be.Equal(t, len(merged.Members), 2)
	be.Equal(t, merged.Members[0].Base().Ident, "send")
	be.Equal(t, merged.Members[1].Base().Ident, "recv")
}

func TestRunKeepsDistinctNamespacesSeparate(t *testing.T) {
	file1 := []ast.Decl{
		&ast.NamespaceDecl{DeclBase: namedDecl("net"), Members: []ast.Decl{fnDecl("send")}},
		&ast.NamespaceDecl{DeclBase: namedDecl("io"), Members: []ast.Decl{fnDecl("read")}},
	}

	result := Run([][]ast.Decl{file1})

	be.Equal(t, len(result.TopLevel), 2)
}

func TestRunPassesThroughNonNamespaceTopLevelDecls(t *testing.T) {
	file1 := []ast.Decl{fnDecl("main")}

	result := Run([][]ast.Decl{file1})

	be.Equal(t, len(result.TopLevel), 1)
	be.Equal(t, result.TopLevel[0].Base().Ident, "main")
}

func TestRunMergesNestedNamespacesDepthFirst(t *testing.T) {
	file1 := []ast.Decl{
		&ast.NamespaceDecl{DeclBase: namedDecl("app"), Members: []ast.Decl{
			&ast.NamespaceDecl{DeclBase: namedDecl("net"), Members: []ast.Decl{fnDecl("send")}},
		}},
	}
	file2 := []ast.Decl{
		&ast.NamespaceDecl{DeclBase: namedDecl("app"), Members: []ast.Decl{
			&ast.NamespaceDecl{DeclBase: namedDecl("net"), Members: []ast.Decl{fnDecl("recv")}},
		}},
	}

	result := Run([][]ast.Decl{file1, file2})

	be.Equal(t, len(result.TopLevel), 1)
	app := result.TopLevel[0].(*ast.NamespaceDecl)
	be.Equal(t, len(app.Members), 1)
	net := app.Members[0].(*ast.NamespaceDecl)
	be.Equal(t, len(net.Members), 2)
}
