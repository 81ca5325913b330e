// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	errExprSyntax   = errors.New("expression syntax error")
	errExprDivZero  = errors.New("division by zero in expression")
	errExprNotFound = errors.New("identifier not found")
)

type tokenKind byte

const (
	tokenNone tokenKind = iota
	tokenIdentifier
	tokenNumber
	tokenOp
	tokenLParen
	tokenRParen
)

type token struct {
	kind  tokenKind
	value int64  // tokenNumber
	ident string // tokenIdentifier
	op    *op    // tokenOp
}

type opKind byte

const (
	opNone opKind = iota
	opMultiply
	opDivide
	opModulo
	opAdd
	opSubtract
	opShiftLeft
	opShiftRight
	opBitwiseAnd
	opBitwiseXor
	opBitwiseOr
	opBitwiseNot
	opNegate
	opPlus
)

type op struct {
	symbol     string
	precedence byte
	unary      bool
	rightAssoc bool
	unaryForm  opKind // unary variant of a binary symbol
	eval       func(a, b int64) (int64, error)
}

func binaryOp(fn func(a, b int64) int64) func(a, b int64) (int64, error) {
	return func(a, b int64) (int64, error) { return fn(a, b), nil }
}

var ops = [...]op{
	opNone:       {},
	opMultiply:   {"*", 6, false, false, opNone, binaryOp(func(a, b int64) int64 { return a * b })},
	opDivide:     {"/", 6, false, false, opNone, divide},
	opModulo:     {"%", 6, false, false, opNone, modulo},
	opAdd:        {"+", 5, false, false, opPlus, binaryOp(func(a, b int64) int64 { return a + b })},
	opSubtract:   {"-", 5, false, false, opNegate, binaryOp(func(a, b int64) int64 { return a - b })},
	opShiftLeft:  {"<<", 4, false, false, opNone, binaryOp(func(a, b int64) int64 { return a << uint64(b&63) })},
	opShiftRight: {">>", 4, false, false, opNone, binaryOp(func(a, b int64) int64 { return a >> uint64(b&63) })},
	opBitwiseAnd: {"&", 3, false, false, opNone, binaryOp(func(a, b int64) int64 { return a & b })},
	opBitwiseXor: {"^", 2, false, false, opNone, binaryOp(func(a, b int64) int64 { return a ^ b })},
	opBitwiseOr:  {"|", 1, false, false, opNone, binaryOp(func(a, b int64) int64 { return a | b })},
	opBitwiseNot: {"~", 7, true, true, opNone, binaryOp(func(a, b int64) int64 { return ^a })},
	opNegate:     {"-", 7, true, true, opNone, binaryOp(func(a, b int64) int64 { return -a })},
	opPlus:       {"+", 7, true, true, opNone, binaryOp(func(a, b int64) int64 { return a })},
}

func divide(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errExprDivZero
	}
	return a / b, nil
}

func modulo(a, b int64) (int64, error) {
	if b == 0 {
		return 0, errExprDivZero
	}
	return a % b, nil
}

// Single-character operator lexemes.
var opChars = map[byte]opKind{
	'*': opMultiply,
	'/': opDivide,
	'+': opAdd,
	'-': opSubtract,
	'&': opBitwiseAnd,
	'^': opBitwiseXor,
	'|': opBitwiseOr,
	'~': opBitwiseNot,
}

type resolver interface {
	resolveIdentifier(s string) (int64, error)
}

// An exprParser evaluates infix integer expressions using the
// shunting-yard algorithm.
type exprParser struct {
	output    []token
	operators []token
	prev      tokenKind
	hexMode   bool
}

func newExprParser() *exprParser {
	return &exprParser{}
}

func (p *exprParser) reset() {
	p.output = p.output[:0]
	p.operators = p.operators[:0]
	p.prev = tokenNone
}

// Parse evaluates 'expr', resolving identifiers through 'r'.
func (p *exprParser) Parse(expr string, r resolver) (int64, error) {
	defer p.reset()
	p.reset()

	t := tstring(expr)
	for {
		tok, remain, err := p.nextToken(t)
		if err != nil {
			return 0, err
		}
		if tok.kind == tokenNone {
			break
		}
		t = remain

		switch tok.kind {
		case tokenNumber:
			p.output = append(p.output, tok)

		case tokenIdentifier:
			v, err := r.resolveIdentifier(tok.ident)
			if err != nil {
				return 0, err
			}
			p.output = append(p.output, token{kind: tokenNumber, value: v})

		case tokenLParen:
			p.operators = append(p.operators, tok)

		case tokenRParen:
			if !p.popUntilLParen() {
				return 0, errExprSyntax
			}

		case tokenOp:
			if tok.op.unaryForm != opNone && p.expectingOperand() {
				tok.op = &ops[tok.op.unaryForm]
			}
			for p.collapsible(tok.op) {
				p.output = append(p.output, p.popOperator())
			}
			p.operators = append(p.operators, tok)
		}

		p.prev = tok.kind
	}

	for len(p.operators) > 0 {
		tok := p.popOperator()
		if tok.kind == tokenLParen {
			return 0, errExprSyntax
		}
		p.output = append(p.output, tok)
	}

	v, err := p.eval()
	if err != nil {
		return 0, err
	}
	if len(p.output) > 0 {
		return 0, errExprSyntax
	}
	return v, nil
}

// An operand is expected at the start of the expression and after an
// operator or opening parenthesis.
func (p *exprParser) expectingOperand() bool {
	return p.prev == tokenNone || p.prev == tokenOp || p.prev == tokenLParen
}

func (p *exprParser) popOperator() token {
	n := len(p.operators) - 1
	tok := p.operators[n]
	p.operators = p.operators[:n]
	return tok
}

func (p *exprParser) popUntilLParen() bool {
	for len(p.operators) > 0 {
		tok := p.popOperator()
		if tok.kind == tokenLParen {
			return true
		}
		p.output = append(p.output, tok)
	}
	return false
}

func (p *exprParser) collapsible(curr *op) bool {
	if len(p.operators) == 0 {
		return false
	}
	top := p.operators[len(p.operators)-1]
	if top.kind != tokenOp {
		return false
	}
	if curr.unary {
		return false
	}
	return top.op.precedence > curr.precedence ||
		(top.op.precedence == curr.precedence && !curr.rightAssoc)
}

// Evaluate the postfix output stack from the top.
func (p *exprParser) eval() (int64, error) {
	if len(p.output) == 0 {
		return 0, errExprSyntax
	}

	n := len(p.output) - 1
	tok := p.output[n]
	p.output = p.output[:n]

	switch tok.kind {
	case tokenNumber:
		return tok.value, nil
	case tokenOp:
	default:
		return 0, errExprSyntax
	}

	if tok.op.unary {
		a, err := p.eval()
		if err != nil {
			return 0, err
		}
		return tok.op.eval(a, 0)
	}

	b, err := p.eval()
	if err != nil {
		return 0, err
	}
	a, err := p.eval()
	if err != nil {
		return 0, err
	}
	return tok.op.eval(a, b)
}

func (p *exprParser) nextToken(t tstring) (tok token, remain tstring, err error) {
	t = t.consumeWhitespace()
	if len(t) == 0 {
		return token{}, t, nil
	}

	c := t[0]
	switch {
	case c == '(':
		return token{kind: tokenLParen}, t.consume(1), nil
	case c == ')':
		return token{kind: tokenRParen}, t.consume(1), nil
	case c == '$' || decimal(c):
		return p.parseNumber(t)
	case c == '%':
		// A binary literal where an operand is expected, modulo otherwise.
		if p.expectingOperand() {
			return p.parseNumber(t)
		}
		return token{kind: tokenOp, op: &ops[opModulo]}, t.consume(1), nil
	case c == '\'':
		return p.parseChar(t)
	case c == '<' || c == '>':
		return p.parseShiftOp(t)
	case identifierStart(c):
		return p.parseIdentifier(t)
	}

	if k, ok := opChars[c]; ok {
		return token{kind: tokenOp, op: &ops[k]}, t.consume(1), nil
	}
	return token{}, t, fmt.Errorf("%w: unexpected '%c'", errExprSyntax, c)
}

func (p *exprParser) parseNumber(t tstring) (tok token, remain tstring, err error) {
	base, fn, num := 10, decimal, t
	if p.hexMode {
		base, fn = 16, hexadecimal
	}

	switch {
	case num[0] == '$':
		base, fn, num = 16, hexadecimal, num.consume(1)
	case num[0] == '%':
		base, fn, num = 2, binary, num.consume(1)
	case len(num) > 2 && num[0] == '0' && (num[1] == 'x' || num[1] == 'b' || num[1] == 'd'):
		switch num[1] {
		case 'x':
			base, fn = 16, hexadecimal
		case 'b':
			base, fn = 2, binary
		case 'd':
			base, fn = 10, decimal
		}
		num = num.consume(2)
	}

	num, remain = num.consumeWhile(fn)
	if num == "" || (len(remain) > 0 && identifier(remain[0])) {
		return token{}, t, errExprSyntax
	}

	v, err := strconv.ParseInt(string(num), base, 64)
	if err != nil {
		return token{}, t, errExprSyntax
	}
	return token{kind: tokenNumber, value: v}, remain, nil
}

func (p *exprParser) parseChar(t tstring) (tok token, remain tstring, err error) {
	if len(t) < 3 || t[2] != '\'' {
		return token{}, t, errExprSyntax
	}
	return token{kind: tokenNumber, value: int64(t[1])}, t.consume(3), nil
}

// In hex mode, identifiers that look like hex numbers are numbers.
func (p *exprParser) parseIdentifier(t tstring) (tok token, remain tstring, err error) {
	id, remain := t.consumeWhile(identifier)
	if p.hexMode && id.all(hexadecimal) {
		return p.parseNumber(t)
	}
	return token{kind: tokenIdentifier, ident: string(id)}, remain, nil
}

func (p *exprParser) parseShiftOp(t tstring) (tok token, remain tstring, err error) {
	if len(t) < 2 || t[1] != t[0] {
		return token{}, t, errExprSyntax
	}
	k := opShiftRight
	if t[0] == '<' {
		k = opShiftLeft
	}
	return token{kind: tokenOp, op: &ops[k]}, t.consume(2), nil
}

//
// tstring
//

type tstring string

func (t tstring) consume(n int) tstring {
	return t[n:]
}

func (t tstring) consumeWhitespace() tstring {
	return t.consume(t.scanWhile(whitespace))
}

func (t tstring) scanWhile(fn func(c byte) bool) int {
	i := 0
	for ; i < len(t) && fn(t[i]); i++ {
	}
	return i
}

func (t tstring) consumeWhile(fn func(c byte) bool) (consumed, remain tstring) {
	i := t.scanWhile(fn)
	return t[:i], t[i:]
}

func (t tstring) all(fn func(c byte) bool) bool {
	return t.scanWhile(fn) == len(t)
}

func whitespace(c byte) bool {
	return c == ' ' || c == '\t'
}

func decimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func hexadecimal(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func binary(c byte) bool {
	return c == '0' || c == '1'
}

func identifierStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '.'
}

func identifier(c byte) bool {
	return identifierStart(c) || decimal(c)
}
