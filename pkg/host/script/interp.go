// Package script implements a restricted execute_code interpreter: a small
// recursive-descent evaluator over a Python-flavored subset (literals,
// tuples, string repetition, print, and calls into the seeded host
// module), rather than embedding a general-purpose scripting language.
package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/igamenovoer/blender-remote/pkg/host"
)

// Runner executes a script string against a Host, capturing everything it
// "printed" to a string buffer (the stdout half of §4.3's output capture
// contract).
type Runner struct {
	Host *host.Host
}

// NewRunner returns a Runner bound to the given host.
func NewRunner(h *host.Host) *Runner {
	return &Runner{Host: h}
}

// Run executes source, returning the captured stdout text or an error
// describing what went wrong (surfaced verbatim as the handler error
// message, analogous to a formatted traceback in §4.3/§4.4).
func (r *Runner) Run(source string) (stdout string, err error) {
	p := &parser{lex: newLexer(source)}
	var out strings.Builder
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	for {
		if p.lex.peekKind() == tokEOF {
			break
		}
		p.statement(r.Host, &out)
		// statements are separated by ';' or newlines, already consumed
		// by the lexer as whitespace; nothing further to do here.
	}
	return out.String(), nil
}

// --- lexer -----------------------------------------------------------------

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

type lexer struct {
	src  []rune
	pos  int
	peek *token
}

func newLexer(s string) *lexer {
	return &lexer{src: []rune(s)}
}

func (l *lexer) peekKind() tokenKind {
	return l.peekTok().kind
}

func (l *lexer) peekTok() token {
	if l.peek == nil {
		t := l.lex()
		l.peek = &t
	}
	return *l.peek
}

func (l *lexer) next() token {
	if l.peek != nil {
		t := *l.peek
		l.peek = nil
		return t
	}
	return l.lex()
}

func (l *lexer) expect(text string) {
	t := l.next()
	if t.text != text {
		panic(fmt.Sprintf("syntax error: expected %q, got %q", text, t.text))
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ';' {
			l.pos++
			continue
		}
		if c == '#' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

func (l *lexer) lex() token {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF}
	}
	c := l.src[l.pos]

	if c == '\'' || c == '"' {
		return l.lexString(c)
	}
	if isDigit(c) {
		return l.lexNumber()
	}
	if isIdentStart(c) {
		return l.lexIdent()
	}
	// punctuation: single-char tokens are enough for this grammar
	l.pos++
	return token{kind: tokPunct, text: string(c)}
}

func isDigit(c rune) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c rune) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentCont(c rune) bool  { return isIdentStart(c) || isDigit(c) }

func (l *lexer) lexString(quote rune) token {
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) && l.src[l.pos] != quote {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			switch l.src[l.pos] {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				sb.WriteRune(l.src[l.pos])
			}
			l.pos++
			continue
		}
		sb.WriteRune(c)
		l.pos++
	}
	if l.pos < len(l.src) {
		l.pos++ // closing quote
	}
	return token{kind: tokString, text: sb.String()}
}

func (l *lexer) lexNumber() token {
	start := l.pos
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		l.pos++
	}
	return token{kind: tokNumber, text: string(l.src[start:l.pos])}
}

func (l *lexer) lexIdent() token {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	return token{kind: tokIdent, text: string(l.src[start:l.pos])}
}

// --- values ------------------------------------------------------------

// value is the dynamic type produced by evaluating an expression: string,
// float64, or []value (tuple).
type value any

func valueToString(v value) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case []value:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = valueToString(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func valueToVec3(v value) host.Vec3 {
	tuple, ok := v.([]value)
	if !ok || len(tuple) != 3 {
		panic("expected a 3-tuple for location")
	}
	var out host.Vec3
	for i, e := range tuple {
		f, ok := e.(float64)
		if !ok {
			panic("expected numeric tuple elements")
		}
		out[i] = f
	}
	return out
}

// --- parser / evaluator --------------------------------------------------

type parser struct {
	lex *lexer
}

// statement parses and evaluates one top-level statement: either a
// print(...) call, or a host.<method>(...) call.
func (p *parser) statement(h *host.Host, out *strings.Builder) {
	tok := p.lex.peekTok()
	if tok.kind != tokIdent {
		panic(fmt.Sprintf("syntax error: unexpected token %q", tok.text))
	}

	switch tok.text {
	case "print":
		p.lex.next()
		p.lex.expect("(")
		args := p.argList()
		p.lex.expect(")")
		strs := make([]string, len(args))
		for i, a := range args {
			strs[i] = valueToString(a)
		}
		out.WriteString(strings.Join(strs, " "))
		out.WriteString("\n")
	case "host":
		p.lex.next()
		p.lex.expect(".")
		method := p.lex.next().text
		p.lex.expect("(")
		kwargs, positional := p.callArgs()
		p.lex.expect(")")
		p.callHost(h, method, kwargs, positional)
	default:
		// any other identifier is outside the grammar: p.expr() rejects
		// an identifier-led expression with a syntax error.
		p.expr()
	}
}

// callHost dispatches a host.<method>(...) call to the seeded Host.
func (p *parser) callHost(h *host.Host, method string, kwargs map[string]value, positional []value) {
	switch method {
	case "add_cube":
		name, _ := kwargs["name"].(string)
		loc := host.Vec3{0, 0, 0}
		if l, ok := kwargs["location"]; ok {
			loc = valueToVec3(l)
		} else if len(positional) > 0 {
			loc = valueToVec3(positional[0])
		}
		h.AddCube(name, loc)
	case "sleep":
		var seconds float64
		if s, ok := kwargs["seconds"].(float64); ok {
			seconds = s
		} else if len(positional) > 0 {
			if s, ok := positional[0].(float64); ok {
				seconds = s
			}
		}
		h.Sleep(seconds)
	default:
		panic(fmt.Sprintf("unknown host method: %s", method))
	}
}

// argList parses a comma-separated positional argument list (used by
// print, which takes no keyword arguments).
func (p *parser) argList() []value {
	var args []value
	if p.lex.peekTok().text == ")" {
		return args
	}
	for {
		args = append(args, p.expr())
		if p.lex.peekTok().text == "," {
			p.lex.next()
			continue
		}
		break
	}
	return args
}

// callArgs parses a call's argument list, splitting into keyword and
// positional arguments (used by host.<method>(...) calls).
func (p *parser) callArgs() (map[string]value, []value) {
	kwargs := make(map[string]value)
	var positional []value
	if p.lex.peekTok().text == ")" {
		return kwargs, positional
	}
	for {
		if p.lex.peekTok().kind == tokIdent {
			save := *p.lex
			name := p.lex.next().text
			if p.lex.peekTok().text == "=" {
				p.lex.next()
				kwargs[name] = p.expr()
				if p.lex.peekTok().text == "," {
					p.lex.next()
					continue
				}
				break
			}
			*p.lex = save
		}
		positional = append(positional, p.expr())
		if p.lex.peekTok().text == "," {
			p.lex.next()
			continue
		}
		break
	}
	return kwargs, positional
}

// expr parses the grammar's expression level: a primary term optionally
// followed by '*' (string/number repetition) or '+' (concatenation), or a
// parenthesized tuple.
func (p *parser) expr() value {
	left := p.term()
	for {
		tok := p.lex.peekTok()
		switch tok.text {
		case "*":
			p.lex.next()
			right := p.term()
			left = multiply(left, right)
		case "+":
			p.lex.next()
			right := p.term()
			left = add(left, right)
		default:
			return left
		}
	}
}

func (p *parser) term() value {
	tok := p.lex.next()
	switch tok.kind {
	case tokString:
		return tok.text
	case tokNumber:
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			panic(fmt.Sprintf("invalid number literal: %s", tok.text))
		}
		return f
	case tokPunct:
		if tok.text == "(" {
			var items []value
			trailingComma := false
			for {
				items = append(items, p.expr())
				if p.lex.peekTok().text == "," {
					p.lex.next()
					if p.lex.peekTok().text == ")" {
						trailingComma = true
						break // trailing comma, single-element tuple
					}
					continue
				}
				break
			}
			p.lex.expect(")")
			if len(items) == 1 && !trailingComma {
				return items[0]
			}
			return value(toValueSlice(items))
		}
		if tok.text == "-" {
			v := p.term()
			if f, ok := v.(float64); ok {
				return -f
			}
			panic("unary '-' requires a number")
		}
	}
	panic(fmt.Sprintf("syntax error: unexpected token %q", tok.text))
}

func toValueSlice(items []value) []value {
	return items
}

func multiply(a, b value) value {
	if s, ok := a.(string); ok {
		if n, ok := b.(float64); ok {
			return strings.Repeat(s, int(n))
		}
	}
	if n, ok := a.(float64); ok {
		if s, ok := b.(string); ok {
			return strings.Repeat(s, int(n))
		}
		if n2, ok := b.(float64); ok {
			return n * n2
		}
	}
	panic("unsupported operands for '*'")
}

func add(a, b value) value {
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return sa + sb
		}
	}
	if na, ok := a.(float64); ok {
		if nb, ok := b.(float64); ok {
			return na + nb
		}
	}
	panic("unsupported operands for '+'")
}
