// Package kbfile parses the Prolog-flavored knowledge-base text format: a
// facts: section and a rules: section, each holding newline/period-
// terminated clauses. It is deliberately an external collaborator to
// pkg/logic rather than part of it — the hard core is
// Term/Substitution/Unify/resolution/built-ins, and file serialization
// sits outside that boundary — so it lives under internal/ and depends
// on pkg/logic only to build the Clause values it parses.
package kbfile

import (
	"fmt"
	"strings"
	"text/scanner"
)

// tokKind classifies a single lexical token. The granularity mirrors
// ericchiang-pl's prolog/parse/lex.go item set (atom, variable, number,
// string, punctuation) scaled down to what this format needs, built on
// text/scanner's rune classification instead of a hand-rolled rune FSM.
type tokKind int

const (
	tokIdent tokKind = iota // atoms, predicate names, section keywords
	tokVar                  // ?-prefixed variable
	tokInt
	tokFloat
	tokString
	tokPunct // ( ) [ ] , . :-
	tokEOF
)

type token struct {
	kind tokKind
	text string
	pos  scanner.Position
}

// lexer tokenizes a kbfile source, coalescing the two-rune ":-" operator
// and the "?ident" variable form that scanner.Scanner alone doesn't know
// about. Scanned-ahead tokens queue in buf so the parser can look more
// than one token ahead (needed to tell a "facts:"/"rules:" section header
// apart from a same-named predicate) without having to save and restore
// scanner state.
type lexer struct {
	sc       scanner.Scanner
	filename string
	buf      []token
}

func newLexer(src string, filename string) *lexer {
	l := &lexer{filename: filename}
	l.sc.Init(strings.NewReader(src))
	l.sc.Filename = filename
	l.sc.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	l.sc.Error = func(s *scanner.Scanner, msg string) {} // surfaced via next()'s own errors instead
	return l
}

// peek returns the next token without consuming it.
func (l *lexer) peek() token {
	return l.peekN(0)
}

// peekN returns the token n tokens ahead (0 is the immediate next token)
// without consuming any of them.
func (l *lexer) peekN(n int) token {
	for len(l.buf) <= n {
		l.buf = append(l.buf, l.scan())
	}
	return l.buf[n]
}

func (l *lexer) next() token {
	if len(l.buf) > 0 {
		t := l.buf[0]
		l.buf = l.buf[1:]
		return t
	}
	return l.scan()
}

func (l *lexer) scan() token {
	r := l.sc.Scan()
	pos := l.sc.Position
	if !pos.IsValid() {
		pos = l.sc.Pos()
	}

	switch r {
	case scanner.EOF:
		return token{kind: tokEOF, pos: pos}
	case scanner.Ident:
		return token{kind: tokIdent, text: l.sc.TokenText(), pos: pos}
	case scanner.Int:
		return token{kind: tokInt, text: l.sc.TokenText(), pos: pos}
	case scanner.Float:
		return token{kind: tokFloat, text: l.sc.TokenText(), pos: pos}
	case scanner.String:
		return token{kind: tokString, text: l.sc.TokenText(), pos: pos}
	case '?':
		// A variable: '?' followed immediately by an identifier.
		name := l.sc.Scan()
		if name != scanner.Ident {
			return token{kind: tokPunct, text: "?", pos: pos}
		}
		return token{kind: tokVar, text: "?" + l.sc.TokenText(), pos: pos}
	case ':':
		if l.sc.Peek() == '-' {
			l.sc.Next()
			return token{kind: tokPunct, text: ":-", pos: pos}
		}
		return token{kind: tokPunct, text: ":", pos: pos}
	default:
		return token{kind: tokPunct, text: string(r), pos: pos}
	}
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "EOF"
	}
	return fmt.Sprintf("%q", t.text)
}
