package kbfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/clauseware/hornchain/pkg/logic"
)

// ParseError reports one malformed clause, with source position, so
// callers can point a user at the exact line.
type ParseError struct {
	Pos string
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

// Parsed is the result of parsing one kbfile source: facts and rules in
// source order, facts section before rules section.
type Parsed struct {
	Facts []logic.Clause
	Rules []logic.Clause
}

// Parse reads a kbfile source (the facts:/rules: text format) and
// returns every clause it could parse, plus a multierror aggregating
// every clause it could not — mirroring how a single bad line shouldn't
// stop the rest of a data file from loading, while still surfacing every
// problem at once instead of only the first.
func Parse(src string, filename string) (*Parsed, error) {
	p := &parser{lex: newLexer(src, filename)}
	out := &Parsed{}
	var errs *multierror.Error

	section := ""
	for {
		tok := p.lex.peek()
		if tok.kind == tokEOF {
			break
		}

		if tok.kind == tokIdent && (tok.text == "facts" || tok.text == "rules") && p.looksLikeSectionHeader() {
			p.lex.next()
			colon := p.lex.next()
			if colon.kind != tokPunct || colon.text != ":" {
				errs = multierror.Append(errs, &ParseError{Pos: colon.pos.String(), Msg: fmt.Sprintf("expected ':' after section name, got %s", colon)})
			}
			section = tok.text
			continue
		}

		clause, err := p.parseClause()
		if err != nil {
			errs = multierror.Append(errs, err)
			p.recover()
			continue
		}
		switch section {
		case "facts":
			out.Facts = append(out.Facts, clause)
		case "rules":
			out.Rules = append(out.Rules, clause)
		default:
			errs = multierror.Append(errs, &ParseError{Pos: tok.pos.String(), Msg: "clause appears before any facts: or rules: section header"})
		}
	}

	if errs != nil {
		return out, errs.ErrorOrNil()
	}
	return out, nil
}

type parser struct {
	lex *lexer
}

// looksLikeSectionHeader disambiguates a bare "facts" or "rules" section
// keyword from a same-named zero-arity predicate used as a clause head,
// by checking that the token immediately following is ':' rather than
// '(' or '.'.
func (p *parser) looksLikeSectionHeader() bool {
	next := p.lex.peekN(1)
	return next.kind == tokPunct && next.text == ":"
}

// recover skips tokens up to and including the next '.', so one
// malformed clause doesn't cascade into spurious errors for the rest of
// the file.
func (p *parser) recover() {
	for {
		tok := p.lex.next()
		if tok.kind == tokEOF {
			return
		}
		if tok.kind == tokPunct && tok.text == "." {
			return
		}
	}
}

// parseClause parses "head." or "head :- goal, goal, ...." .
func (p *parser) parseClause() (logic.Clause, error) {
	head, err := p.parseCompound()
	if err != nil {
		return logic.Clause{}, err
	}

	tok := p.lex.next()
	if tok.kind == tokPunct && tok.text == "." {
		return logic.Clause{Head: head}, nil
	}
	if !(tok.kind == tokPunct && tok.text == ":-") {
		return logic.Clause{}, &ParseError{Pos: tok.pos.String(), Msg: fmt.Sprintf("expected '.' or ':-' after clause head, got %s", tok)}
	}

	var body []logic.Compound
	for {
		g, err := p.parseCompound()
		if err != nil {
			return logic.Clause{}, err
		}
		body = append(body, g)

		sep := p.lex.next()
		if sep.kind == tokPunct && sep.text == "," {
			continue
		}
		if sep.kind == tokPunct && sep.text == "." {
			break
		}
		return logic.Clause{}, &ParseError{Pos: sep.pos.String(), Msg: fmt.Sprintf("expected ',' or '.' in rule body, got %s", sep)}
	}
	return logic.Clause{Head: head, Body: body}, nil
}

// parseCompound parses a predicate application name(arg, arg, ...) or a
// bare name (zero-arity proposition).
func (p *parser) parseCompound() (logic.Compound, error) {
	name := p.lex.next()
	if name.kind != tokIdent {
		return logic.Compound{}, &ParseError{Pos: name.pos.String(), Msg: fmt.Sprintf("expected a predicate name, got %s", name)}
	}

	if peek := p.lex.peek(); !(peek.kind == tokPunct && peek.text == "(") {
		return logic.Compound{Name: name.text}, nil
	}
	p.lex.next() // consume '('

	var args []logic.Term
	if peek := p.lex.peek(); peek.kind == tokPunct && peek.text == ")" {
		p.lex.next()
		return logic.Compound{Name: name.text}, nil
	}
	for {
		arg, err := p.parseTerm()
		if err != nil {
			return logic.Compound{}, err
		}
		args = append(args, arg)

		sep := p.lex.next()
		if sep.kind == tokPunct && sep.text == "," {
			continue
		}
		if sep.kind == tokPunct && sep.text == ")" {
			break
		}
		return logic.Compound{}, &ParseError{Pos: sep.pos.String(), Msg: fmt.Sprintf("expected ',' or ')' in argument list, got %s", sep)}
	}
	return logic.Compound{Name: name.text, Args: args}, nil
}

// parseTerm parses a single term: a variable, number, string, list
// literal, or nested compound/atom.
func (p *parser) parseTerm() (logic.Term, error) {
	tok := p.lex.next()
	switch tok.kind {
	case tokVar:
		return logic.Var(tok.text), nil
	case tokInt:
		n, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, &ParseError{Pos: tok.pos.String(), Msg: fmt.Sprintf("invalid integer %q: %v", tok.text, err)}
		}
		return logic.Int(n), nil
	case tokFloat:
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, &ParseError{Pos: tok.pos.String(), Msg: fmt.Sprintf("invalid float %q: %v", tok.text, err)}
		}
		return logic.Float(f), nil
	case tokString:
		unquoted, err := strconv.Unquote(tok.text)
		if err != nil {
			return nil, &ParseError{Pos: tok.pos.String(), Msg: fmt.Sprintf("invalid string literal %q: %v", tok.text, err)}
		}
		return logic.Str(unquoted), nil
	case tokIdent:
		lower := strings.ToLower(tok.text)
		if lower == "true" || lower == "false" {
			return logic.Bool(lower == "true"), nil
		}
		if peek := p.lex.peek(); peek.kind == tokPunct && peek.text == "(" {
			p.lex.next()
			return p.finishCompoundArgs(tok.text)
		}
		return logic.Atom(tok.text), nil
	case tokPunct:
		if tok.text == "[" {
			return p.parseList()
		}
	}
	return nil, &ParseError{Pos: tok.pos.String(), Msg: fmt.Sprintf("unexpected token %s in term position", tok)}
}

func (p *parser) finishCompoundArgs(name string) (logic.Term, error) {
	var args []logic.Term
	if peek := p.lex.peek(); peek.kind == tokPunct && peek.text == ")" {
		p.lex.next()
		return logic.Compound{Name: name}, nil
	}
	for {
		arg, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		sep := p.lex.next()
		if sep.kind == tokPunct && sep.text == "," {
			continue
		}
		if sep.kind == tokPunct && sep.text == ")" {
			break
		}
		return nil, &ParseError{Pos: sep.pos.String(), Msg: fmt.Sprintf("expected ',' or ')' in argument list, got %s", sep)}
	}
	return logic.Compound{Name: name, Args: args}, nil
}

// parseList parses a "[" elem, elem, ... "]" sequence literal into a
// $list Compound, consumed after the opening bracket.
func (p *parser) parseList() (logic.Term, error) {
	var elems []logic.Term
	if peek := p.lex.peek(); peek.kind == tokPunct && peek.text == "]" {
		p.lex.next()
		return logic.NewList(), nil
	}
	for {
		elem, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)

		sep := p.lex.next()
		if sep.kind == tokPunct && sep.text == "," {
			continue
		}
		if sep.kind == tokPunct && sep.text == "]" {
			break
		}
		return nil, &ParseError{Pos: sep.pos.String(), Msg: fmt.Sprintf("expected ',' or ']' in list literal, got %s", sep)}
	}
	return logic.NewList(elems...), nil
}
