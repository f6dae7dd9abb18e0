// Package lexer turns .ghoul source text into a token stream with a
// lookahead of one, a checkpoint/restore mechanism for parser
// speculation, and a toggleable right-shift state (spec §4.A).
package lexer

import (
	"strings"

	"ghoulc/internal/diagnostics"
	"ghoulc/internal/source"
	"ghoulc/internal/tokens"
)

// Lexer produces tokens.Token values one at a time from a source buffer.
type Lexer struct {
	filePath string
	src      []byte
	pos      source.Position
	diags    *diagnostics.DiagnosticBag

	// peeked caches the next token so Peek() is idempotent (lookahead 1).
	peeked      *tokens.Token
	peekedAfter source.Position // lexer position immediately after the peeked token

	// rshiftDisabled is a stack of booleans; the parser pushes true when it
	// enters a template argument list and pops on exit, so nested template
	// parses restore the enclosing state correctly (spec §4.A).
	rshiftDisabled []bool

	sawWhitespace bool // true if whitespace/comment was skipped since the last emitted token
}

// New creates a lexer for the given file's content.
func New(filePath, content string, diags *diagnostics.DiagnosticBag) *Lexer {
	return &Lexer{
		filePath: filePath,
		src:      []byte(content),
		pos:      source.Position{Line: 1, Column: 1, Index: 0},
		diags:    diags,
	}
}

func (l *Lexer) rshiftDisabledNow() bool {
	if len(l.rshiftDisabled) == 0 {
		return false
	}
	return l.rshiftDisabled[len(l.rshiftDisabled)-1]
}

// PushRightShiftDisabled disables '>>' recognition (emitting two '>'
// tokens instead) until the matching Pop. Used by the parser around
// template argument lists.
func (l *Lexer) PushRightShiftDisabled() {
	l.rshiftDisabled = append(l.rshiftDisabled, true)
	l.invalidatePeek()
}

// PopRightShiftDisabled restores the previous right-shift state.
func (l *Lexer) PopRightShiftDisabled() {
	if len(l.rshiftDisabled) > 0 {
		l.rshiftDisabled = l.rshiftDisabled[:len(l.rshiftDisabled)-1]
	}
	l.invalidatePeek()
}

func (l *Lexer) invalidatePeek() {
	// The cached token may have been lexed under the old right-shift
	// state (e.g. a '>>' lexed as one token before the toggle flipped).
	// Re-scan from the position that produced it, not from after it.
	if l.peeked != nil {
		l.pos = l.peeked.Start
		l.peeked = nil
	}
}

// Checkpoint is a pure positional snapshot of the lexer's scan state: the
// current position, the cached peek token (if any), and the depth of the
// right-shift stack. Restoring one is assignment, never a transaction.
type Checkpoint struct {
	pos            source.Position
	peeked         *tokens.Token
	peekedAfter    source.Position
	rshiftStackLen int
}

// Save captures the current scan state.
func (l *Lexer) Save() Checkpoint {
	return Checkpoint{pos: l.pos, peeked: l.peeked, peekedAfter: l.peekedAfter, rshiftStackLen: len(l.rshiftDisabled)}
}

// Restore rewinds the lexer to a previously captured Checkpoint.
func (l *Lexer) Restore(cp Checkpoint) {
	l.pos = cp.pos
	l.peeked = cp.peeked
	l.peekedAfter = cp.peekedAfter
	if cp.rshiftStackLen <= len(l.rshiftDisabled) {
		l.rshiftDisabled = l.rshiftDisabled[:cp.rshiftStackLen]
	}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() tokens.Token {
	if l.peeked == nil {
		startPos := l.pos
		tok := l.scan()
		l.peeked = &tok
		l.peekedAfter = l.pos
		l.pos = startPos
	}
	return *l.peeked
}

// Next consumes and returns the next token.
func (l *Lexer) Next() tokens.Token {
	tok := l.Peek()
	l.pos = l.peekedAfter
	l.peeked = nil
	return tok
}

func (l *Lexer) atEOF() bool { return l.pos.Index >= len(l.src) }

func (l *Lexer) byteAt(off int) byte {
	i := l.pos.Index + off
	if i < 0 || i >= len(l.src) {
		return 0
	}
	return l.src[i]
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n && !l.atEOF(); i++ {
		l.pos.AdvanceByte(l.src[l.pos.Index])
	}
}

// scan is the core token recognizer. It first skips whitespace/comments
// (recording whether any were skipped), then dispatches on the next byte.
func (l *Lexer) scan() tokens.Token {
	leadingWS := l.skipTrivia()

	if l.atEOF() {
		return l.emit(tokens.EOF, "end of file", l.pos, leadingWS)
	}

	start := l.pos
	c := l.byteAt(0)

	switch {
	case isIdentStart(c):
		return l.scanIdentifier(start, leadingWS)
	case c >= '0' && c <= '9':
		return l.scanNumber(start, leadingWS)
	case c == '"':
		return l.scanString(start, leadingWS)
	case c == '\'':
		return l.scanChar(start, leadingWS)
	default:
		return l.scanOperator(start, leadingWS)
	}
}

// skipTrivia consumes whitespace and comments, reporting whether any were
// found; this feeds the "has leading whitespace" flag the parser relies on
// to reject "1 .0" while accepting "1.0" (spec §4.A).
func (l *Lexer) skipTrivia() bool {
	skipped := false
	for !l.atEOF() {
		c := l.byteAt(0)
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance(1)
			skipped = true
		case c == '/' && l.byteAt(1) == '/':
			for !l.atEOF() && l.byteAt(0) != '\n' {
				l.advance(1)
			}
			skipped = true
		case c == '/' && l.byteAt(1) == '*':
			l.advance(2)
			for !l.atEOF() && !(l.byteAt(0) == '*' && l.byteAt(1) == '/') {
				l.advance(1)
			}
			if !l.atEOF() {
				l.advance(2)
			}
			skipped = true
		default:
			return skipped
		}
	}
	return skipped
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (l *Lexer) emit(kind tokens.Kind, value string, start source.Position, leadingWS bool) tokens.Token {
	end := l.pos
	return tokens.Token{Kind: kind, Value: value, Start: start, End: end, LeadingWhitespace: leadingWS}
}

func (l *Lexer) scanIdentifier(start source.Position, leadingWS bool) tokens.Token {
	var sb strings.Builder
	for !l.atEOF() && isIdentCont(l.byteAt(0)) {
		sb.WriteByte(l.byteAt(0))
		l.advance(1)
	}
	ident := sb.String()
	if kw, ok := tokens.LookupKeyword(ident); ok {
		return l.emit(kw, ident, start, leadingWS)
	}
	return l.emit(tokens.IDENTIFIER, ident, start, leadingWS)
}

// scanNumber consumes a whole numeric literal token (spec §4.A: number
// literals are one token, split later by the parser into
// integer/float/base/suffix).
func (l *Lexer) scanNumber(start source.Position, leadingWS bool) tokens.Token {
	var sb strings.Builder

	if l.byteAt(0) == '0' && (l.byteAt(1) == 'x' || l.byteAt(1) == 'X' || l.byteAt(1) == 'b' || l.byteAt(1) == 'B' || l.byteAt(1) == 'o' || l.byteAt(1) == 'O') {
		sb.WriteByte(l.byteAt(0))
		sb.WriteByte(l.byteAt(1))
		l.advance(2)
		for !l.atEOF() && (isHexDigit(l.byteAt(0)) || l.byteAt(0) == '_') {
			sb.WriteByte(l.byteAt(0))
			l.advance(1)
		}
	} else {
		for !l.atEOF() && (isDigit(l.byteAt(0)) || l.byteAt(0) == '_') {
			sb.WriteByte(l.byteAt(0))
			l.advance(1)
		}
		// Fractional part: '.' must be immediately followed by a digit with
		// no leading whitespace (rejects "1 .0"), and the '.' itself must
		// not have whitespace before it (rejects "1 .0"); consecutive '.'
		// belongs to the range operator, not a float.
		if l.byteAt(0) == '.' && isDigit(l.byteAt(1)) {
			sb.WriteByte('.')
			l.advance(1)
			for !l.atEOF() && (isDigit(l.byteAt(0)) || l.byteAt(0) == '_') {
				sb.WriteByte(l.byteAt(0))
				l.advance(1)
			}
		}
		if (l.byteAt(0) == 'e' || l.byteAt(0) == 'E') && (isDigit(l.byteAt(1)) || ((l.byteAt(1) == '+' || l.byteAt(1) == '-') && isDigit(l.byteAt(2)))) {
			sb.WriteByte(l.byteAt(0))
			l.advance(1)
			if l.byteAt(0) == '+' || l.byteAt(0) == '-' {
				sb.WriteByte(l.byteAt(0))
				l.advance(1)
			}
			for !l.atEOF() && isDigit(l.byteAt(0)) {
				sb.WriteByte(l.byteAt(0))
				l.advance(1)
			}
		}
	}

	// Optional user-defined suffix (e.g. "123foo"), only if it directly
	// abuts the digits (no leading whitespace check needed here: the
	// suffix is part of the same token by construction).
	for !l.atEOF() && isIdentCont(l.byteAt(0)) {
		sb.WriteByte(l.byteAt(0))
		l.advance(1)
	}

	return l.emit(tokens.NUMBER, sb.String(), start, leadingWS)
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }

var escapeTable = map[byte]byte{
	'0': 0, 'a': 7, 'b': 8, 'f': 12, 'n': '\n', 'r': '\r', 't': '\t', 'v': 11,
	'\\': '\\', '\'': '\'', '"': '"',
}

// scanString consumes a string literal, decoding escapes and rejecting
// embedded newlines (spec §4.A). The decoded value is stored on the
// token; String.Value is minus the quotes.
func (l *Lexer) scanString(start source.Position, leadingWS bool) tokens.Token {
	l.advance(1) // opening quote
	var sb strings.Builder
	for {
		if l.atEOF() {
			l.diags.Add(diagnostics.UnterminatedLiteral(l.spanFrom(start), "string"))
			break
		}
		c := l.byteAt(0)
		if c == '"' {
			l.advance(1)
			break
		}
		if c == '\n' {
			l.diags.Add(diagnostics.NewlineInLiteral(l.spanFrom(start), "string"))
			break
		}
		if c == '\\' {
			l.advance(1)
			esc := l.byteAt(0)
			if decoded, ok := escapeTable[esc]; ok {
				sb.WriteByte(decoded)
				l.advance(1)
			} else {
				l.diags.Add(diagnostics.UnknownEscape(l.spanFrom(start), string(esc)))
				l.advance(1)
			}
			continue
		}
		sb.WriteByte(c)
		l.advance(1)
	}
	return l.emit(tokens.STRING, sb.String(), start, leadingWS)
}

// scanChar consumes a character literal: a single decoded code point with
// the same escape rules as strings (spec §9 requires this be completed,
// unlike the source it was distilled from).
func (l *Lexer) scanChar(start source.Position, leadingWS bool) tokens.Token {
	l.advance(1) // opening quote
	var value byte
	if l.atEOF() {
		l.diags.Add(diagnostics.UnterminatedLiteral(l.spanFrom(start), "character"))
		return l.emit(tokens.CHAR, "", start, leadingWS)
	}
	if l.byteAt(0) == '\n' {
		l.diags.Add(diagnostics.NewlineInLiteral(l.spanFrom(start), "character"))
		return l.emit(tokens.CHAR, "", start, leadingWS)
	}
	if l.byteAt(0) == '\\' {
		l.advance(1)
		esc := l.byteAt(0)
		if decoded, ok := escapeTable[esc]; ok {
			value = decoded
			l.advance(1)
		} else {
			l.diags.Add(diagnostics.UnknownEscape(l.spanFrom(start), string(esc)))
			l.advance(1)
		}
	} else {
		value = l.byteAt(0)
		l.advance(1)
	}
	if l.byteAt(0) == '\'' {
		l.advance(1)
	} else {
		l.diags.Add(diagnostics.UnterminatedLiteral(l.spanFrom(start), "character"))
	}
	return l.emit(tokens.CHAR, string(value), start, leadingWS)
}

func (l *Lexer) spanFrom(start source.Position) source.Location {
	return source.NewLocation(l.filePath, start, l.pos)
}

// scanOperator handles multi-character punctuation, including the
// right-shift toggle: when disabled, a would-be ">>" is emitted as a
// single ">" token so the caller (parser) can request the second one on
// its next Next() call (spec §4.A, §8 scenario "right-shift disambiguation").
func (l *Lexer) scanOperator(start source.Position, leadingWS bool) tokens.Token {
	three := string(l.byteAt(0)) + string(l.byteAt(1)) + string(l.byteAt(2))
	two := string(l.byteAt(0)) + string(l.byteAt(1))
	one := string(l.byteAt(0))

	switch three {
	case "?->":
		l.advance(3)
		return l.emit(tokens.QUESTION_ARROW, three, start, leadingWS)
	case "<<=":
		l.advance(3)
		return l.emit(tokens.SHL_ASSIGN, three, start, leadingWS)
	case ">>=":
		if !l.rshiftDisabledNow() {
			l.advance(3)
			return l.emit(tokens.SHR_ASSIGN, three, start, leadingWS)
		}
	case "^^=":
		l.advance(3)
		return l.emit(tokens.POW_ASSIGN, three, start, leadingWS)
	}

	if one == ">" && two == ">>" && l.rshiftDisabledNow() {
		l.advance(1)
		tok := l.emit(tokens.GT, ">", start, leadingWS)
		tok.SplitFromShr = true
		return tok
	}

	switch two {
	case "<<":
		l.advance(2)
		return l.emit(tokens.SHL, two, start, leadingWS)
	case ">>":
		l.advance(2)
		return l.emit(tokens.SHR, two, start, leadingWS)
	case "::":
		l.advance(2)
		return l.emit(tokens.SCOPE, two, start, leadingWS)
	case "->":
		l.advance(2)
		return l.emit(tokens.ARROW, two, start, leadingWS)
	case "=>":
		l.advance(2)
		return l.emit(tokens.FAT_ARROW, two, start, leadingWS)
	case "==":
		l.advance(2)
		return l.emit(tokens.EQ, two, start, leadingWS)
	case "!=":
		l.advance(2)
		return l.emit(tokens.NEQ, two, start, leadingWS)
	case "<=":
		l.advance(2)
		return l.emit(tokens.LE, two, start, leadingWS)
	case ">=":
		l.advance(2)
		return l.emit(tokens.GE, two, start, leadingWS)
	case "&&":
		l.advance(2)
		return l.emit(tokens.ANDAND, two, start, leadingWS)
	case "||":
		l.advance(2)
		return l.emit(tokens.OROR, two, start, leadingWS)
	case "^^":
		l.advance(2)
		return l.emit(tokens.POW, two, start, leadingWS)
	case "++":
		l.advance(2)
		return l.emit(tokens.PLUS_PLUS, two, start, leadingWS)
	case "--":
		l.advance(2)
		return l.emit(tokens.MINUS_MINUS, two, start, leadingWS)
	case "+=":
		l.advance(2)
		return l.emit(tokens.PLUS_ASSIGN, two, start, leadingWS)
	case "-=":
		l.advance(2)
		return l.emit(tokens.MINUS_ASSIGN, two, start, leadingWS)
	case "*=":
		l.advance(2)
		return l.emit(tokens.STAR_ASSIGN, two, start, leadingWS)
	case "/=":
		l.advance(2)
		return l.emit(tokens.SLASH_ASSIGN, two, start, leadingWS)
	case "%=":
		l.advance(2)
		return l.emit(tokens.PERCENT_ASSIGN, two, start, leadingWS)
	case "&=":
		l.advance(2)
		return l.emit(tokens.AMP_ASSIGN, two, start, leadingWS)
	case "^=":
		l.advance(2)
		return l.emit(tokens.CARET_ASSIGN, two, start, leadingWS)
	case "|=":
		l.advance(2)
		return l.emit(tokens.PIPE_ASSIGN, two, start, leadingWS)
	case "..":
		l.advance(2)
		return l.emit(tokens.DOTDOT, two, start, leadingWS)
	case "?.":
		l.advance(2)
		return l.emit(tokens.QUESTION_DOT, two, start, leadingWS)
	case "?[":
		l.advance(2)
		return l.emit(tokens.QUESTION_BRACKET, two, start, leadingWS)
	}

	switch one {
	case "+":
		l.advance(1)
		return l.emit(tokens.PLUS, one, start, leadingWS)
	case "-":
		l.advance(1)
		return l.emit(tokens.MINUS, one, start, leadingWS)
	case "*":
		l.advance(1)
		return l.emit(tokens.STAR, one, start, leadingWS)
	case "/":
		l.advance(1)
		return l.emit(tokens.SLASH, one, start, leadingWS)
	case "%":
		l.advance(1)
		return l.emit(tokens.PERCENT, one, start, leadingWS)
	case "&":
		l.advance(1)
		return l.emit(tokens.AMP, one, start, leadingWS)
	case "|":
		l.advance(1)
		return l.emit(tokens.PIPE, one, start, leadingWS)
	case "^":
		l.advance(1)
		return l.emit(tokens.CARET, one, start, leadingWS)
	case "~":
		l.advance(1)
		return l.emit(tokens.TILDE, one, start, leadingWS)
	case "!":
		l.advance(1)
		return l.emit(tokens.BANG, one, start, leadingWS)
	case "=":
		l.advance(1)
		return l.emit(tokens.ASSIGN, one, start, leadingWS)
	case "<":
		l.advance(1)
		return l.emit(tokens.LT, one, start, leadingWS)
	case ">":
		l.advance(1)
		return l.emit(tokens.GT, one, start, leadingWS)
	case ".":
		l.advance(1)
		return l.emit(tokens.DOT, one, start, leadingWS)
	case ",":
		l.advance(1)
		return l.emit(tokens.COMMA, one, start, leadingWS)
	case ":":
		l.advance(1)
		return l.emit(tokens.COLON, one, start, leadingWS)
	case ";":
		l.advance(1)
		return l.emit(tokens.SEMI, one, start, leadingWS)
	case "?":
		l.advance(1)
		return l.emit(tokens.QUESTION, one, start, leadingWS)
	case "@":
		l.advance(1)
		return l.emit(tokens.AT, one, start, leadingWS)
	case "(":
		l.advance(1)
		return l.emit(tokens.LPAREN, one, start, leadingWS)
	case ")":
		l.advance(1)
		return l.emit(tokens.RPAREN, one, start, leadingWS)
	case "[":
		l.advance(1)
		return l.emit(tokens.LBRACKET, one, start, leadingWS)
	case "]":
		l.advance(1)
		return l.emit(tokens.RBRACKET, one, start, leadingWS)
	case "{":
		l.advance(1)
		return l.emit(tokens.LBRACE, one, start, leadingWS)
	case "}":
		l.advance(1)
		return l.emit(tokens.RBRACE, one, start, leadingWS)
	}

	l.diags.Add(diagnostics.UnrecognizedChar(l.spanFrom(start), l.byteAt(0)))
	l.advance(1)
	return l.emit(tokens.ILLEGAL, one, start, leadingWS)
}
