package lexer

import (
	"testing"

	"github.com/nalgeon/be"

	"ghoulc/internal/diagnostics"
	"ghoulc/internal/tokens"
)

func newTestLexer(src string) *Lexer {
	return New("t.ghoul", src, diagnostics.NewDiagnosticBag())
}

func TestRightShiftDefaultsToOneToken(t *testing.T) {
	l := newTestLexer("a >> b")
	l.Next() // 'a'
	tok := l.Next()
	be.Equal(t, tok.Kind, tokens.SHR)
	be.Equal(t, tok.Value, ">>")
}

func TestRightShiftDisabledSplitsIntoTwoGT(t *testing.T) {
	l := newTestLexer("Map<K, Vec<V>>")
	for l.Peek().Kind != tokens.LT {
		l.Next()
	}
	l.PushRightShiftDisabled() // entering Map's argument list
	l.Next()                   // '<'
	for l.Peek().Kind != tokens.LT {
		l.Next()
	}
	l.PushRightShiftDisabled() // entering Vec's argument list
	l.Next()                   // '<'
	l.Next()                   // 'V'

	first := l.Next()
	be.Equal(t, first.Kind, tokens.GT)
	be.True(t, first.SplitFromShr)

	l.PopRightShiftDisabled() // leaving Vec's argument list
	second := l.Next()
	be.Equal(t, second.Kind, tokens.GT)

	l.PopRightShiftDisabled() // leaving Map's argument list
}

func TestRightShiftReenabledAfterPop(t *testing.T) {
	l := newTestLexer("a >> b")
	l.PushRightShiftDisabled()
	l.PopRightShiftDisabled()
	l.Next() // 'a'
	tok := l.Next()
	be.Equal(t, tok.Kind, tokens.SHR)
}

func TestCheckpointRestoreIsPurePositional(t *testing.T) {
	l := newTestLexer("foo bar baz")
	l.Next() // 'foo'
	cp := l.Save()
	l.Next() // 'bar'
	l.Restore(cp)
	tok := l.Next()
	be.Equal(t, tok.Value, "bar")
}

func TestCharacterLiteralDecodesEscape(t *testing.T) {
	l := newTestLexer(`'\n'`)
	tok := l.Next()
	be.Equal(t, tok.Kind, tokens.CHAR)
	be.Equal(t, tok.Value, "\n")
}

func TestCharacterLiteralPlainCodePoint(t *testing.T) {
	l := newTestLexer(`'x'`)
	tok := l.Next()
	be.Equal(t, tok.Kind, tokens.CHAR)
	be.Equal(t, tok.Value, "x")
}

func TestNumberLexedWhole(t *testing.T) {
	l := newTestLexer("0x1F_2a")
	tok := l.Next()
	be.Equal(t, tok.Kind, tokens.NUMBER)
	be.Equal(t, tok.Value, "0x1F_2a")
}

func TestStringEscapeSequences(t *testing.T) {
	l := newTestLexer(`"a\tb\\c"`)
	tok := l.Next()
	be.Equal(t, tok.Kind, tokens.STRING)
	be.Equal(t, tok.Value, "a\tb\\c")
}

func TestShiftAndPowCompoundAssignOperators(t *testing.T) {
	cases := []struct {
		src  string
		kind tokens.Kind
	}{
		{"<<=", tokens.SHL_ASSIGN},
		{">>=", tokens.SHR_ASSIGN},
		{"^^=", tokens.POW_ASSIGN},
	}
	for _, c := range cases {
		l := newTestLexer(c.src)
		tok := l.Next()
		be.Equal(t, tok.Kind, c.kind)
		be.Equal(t, tok.Value, c.src)
	}
}

func TestRightShiftAssignSplitsWhenDisabled(t *testing.T) {
	l := newTestLexer("a>>=b")
	l.Next() // 'a'
	l.PushRightShiftDisabled()
	first := l.Next()
	be.Equal(t, first.Kind, tokens.GT)
	be.True(t, first.SplitFromShr)
	l.PopRightShiftDisabled()
}
