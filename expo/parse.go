package expo

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/variable"
)

// tokenKind enumerates the lexical tokens of the expolynomial grammar:
// literals, identifiers, the four arithmetic operators, '^', parens, and
// the built-in Exp(...) construct.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
}

// lexer splits the input string into tokens. Identifiers are any run of
// letters/digits/underscore/★ not starting with a digit; numbers are
// decimal literals (with an optional leading '-' handled by the parser
// as unary minus, not by the lexer).
type lexer struct {
	input []rune
	pos   int
}

func newLexer(s string) *lexer { return &lexer{input: []rune(s)} }

func (l *lexer) peekRune() (rune, bool) {
	if l.pos >= len(l.input) {
		return 0, false
	}

	return l.input[l.pos], true
}

func (l *lexer) next() (token, error) {
	for {
		r, ok := l.peekRune()
		if !ok {
			return token{kind: tokEOF}, nil
		}
		if unicode.IsSpace(r) {
			l.pos++

			continue
		}

		break
	}
	r, _ := l.peekRune()
	switch {
	case r == '+':
		l.pos++

		return token{kind: tokPlus, text: "+"}, nil
	case r == '-':
		l.pos++

		return token{kind: tokMinus, text: "-"}, nil
	case r == '*':
		l.pos++

		return token{kind: tokStar, text: "*"}, nil
	case r == '/':
		l.pos++

		return token{kind: tokSlash, text: "/"}, nil
	case r == '^':
		l.pos++

		return token{kind: tokCaret, text: "^"}, nil
	case r == '(':
		l.pos++

		return token{kind: tokLParen, text: "("}, nil
	case r == ')':
		l.pos++

		return token{kind: tokRParen, text: ")"}, nil
	case r == ',':
		l.pos++

		return token{kind: tokComma, text: ","}, nil
	case unicode.IsDigit(r) || r == '.':
		return l.lexNumber()
	case unicode.IsLetter(r) || r == '_' || r == '★':
		return l.lexIdent()
	default:
		return token{}, fmt.Errorf("expo.parse: %w: unexpected rune %q", ErrParse, r)
	}
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	for {
		r, ok := l.peekRune()
		if !ok || !(unicode.IsDigit(r) || r == '.') {
			break
		}
		l.pos++
	}

	return token{kind: tokNumber, text: string(l.input[start:l.pos])}, nil
}

func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for {
		r, ok := l.peekRune()
		if !ok || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '★') {
			break
		}
		l.pos++
	}

	return token{kind: tokIdent, text: string(l.input[start:l.pos])}, nil
}

// parser implements recursive-descent, precedence-climbing parsing of:
//
//	expr   := term (('+' | '-') term)*
//	term   := unary (('*' | '/') unary)*
//	unary  := '-' unary | power
//	power  := atom ('^' NUMBER)?
//	atom   := NUMBER | IDENT | 'Exp' '(' expr ',' expr ')' | '(' expr ')'
//
// Exp(rate, v) denotes exp(-rate·v); rate must itself parse down to a
// constant Expolynomial (no free variables) since AtomicTerm.Rate is a
// plain ExtendedDecimal, not a symbolic expression.
type parser struct {
	lex  *lexer
	cur  token
	init bool
}

// Parse parses s into an Expolynomial, or returns ErrParse on malformed
// input.
func Parse(s string) (Expolynomial, error) {
	p := &parser{lex: newLexer(s)}
	if err := p.advance(); err != nil {
		return Expolynomial{}, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return Expolynomial{}, err
	}
	if p.cur.kind != tokEOF {
		return Expolynomial{}, fmt.Errorf("expo.Parse(%q): %w: trailing input %q", s, ErrParse, p.cur.text)
	}

	return e.Normalize()
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t

	return nil
}

func (p *parser) parseExpr() (Expolynomial, error) {
	left, err := p.parseTerm()
	if err != nil {
		return Expolynomial{}, err
	}
	for p.cur.kind == tokPlus || p.cur.kind == tokMinus {
		op := p.cur.kind
		if err := p.advance(); err != nil {
			return Expolynomial{}, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return Expolynomial{}, err
		}
		if op == tokPlus {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}

	return left, nil
}

func (p *parser) parseTerm() (Expolynomial, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Expolynomial{}, err
	}
	for p.cur.kind == tokStar || p.cur.kind == tokSlash {
		op := p.cur.kind
		if err := p.advance(); err != nil {
			return Expolynomial{}, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return Expolynomial{}, err
		}
		if op == tokStar {
			left = left.Mul(right)
		} else {
			c, err := constantOf(right)
			if err != nil {
				return Expolynomial{}, fmt.Errorf("expo.Parse: division requires constant divisor: %w", err)
			}
			scaled := make([]Exmonomial, len(left.terms))
			for i, m := range left.terms {
				div, err := m.C.Div(c)
				if err != nil {
					return Expolynomial{}, fmt.Errorf("expo.Parse: %w", err)
				}
				scaled[i] = Exmonomial{C: div, Terms: m.Terms}
			}
			left = Expolynomial{terms: scaled}
		}
	}

	return left, nil
}

func (p *parser) parseUnary() (Expolynomial, error) {
	if p.cur.kind == tokMinus {
		if err := p.advance(); err != nil {
			return Expolynomial{}, err
		}
		e, err := p.parseUnary()
		if err != nil {
			return Expolynomial{}, err
		}

		return e.Neg(), nil
	}

	return p.parsePower()
}

func (p *parser) parsePower() (Expolynomial, error) {
	base, err := p.parseAtom()
	if err != nil {
		return Expolynomial{}, err
	}
	if p.cur.kind == tokCaret {
		if err := p.advance(); err != nil {
			return Expolynomial{}, err
		}
		if p.cur.kind != tokNumber {
			return Expolynomial{}, fmt.Errorf("expo.Parse: %w: exponent must be an integer literal", ErrParse)
		}
		k, err := strconv.Atoi(p.cur.text)
		if err != nil || k < 0 {
			return Expolynomial{}, fmt.Errorf("expo.Parse: %w: bad exponent %q", ErrParse, p.cur.text)
		}
		if err := p.advance(); err != nil {
			return Expolynomial{}, err
		}
		result := One()
		for i := 0; i < k; i++ {
			result = result.Mul(base)
		}

		return result.Normalize()
	}

	return base, nil
}

func (p *parser) parseAtom() (Expolynomial, error) {
	switch p.cur.kind {
	case tokNumber:
		text := p.cur.text
		if err := p.advance(); err != nil {
			return Expolynomial{}, err
		}
		d, err := decimal.NewFromString(text)
		if err != nil {
			return Expolynomial{}, fmt.Errorf("expo.Parse: %w: %v", ErrParse, err)
		}

		return Constant(d), nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return Expolynomial{}, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return Expolynomial{}, err
		}
		if p.cur.kind != tokRParen {
			return Expolynomial{}, fmt.Errorf("expo.Parse: %w: expected ')'", ErrParse)
		}
		if err := p.advance(); err != nil {
			return Expolynomial{}, err
		}

		return e, nil
	case tokIdent:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return Expolynomial{}, err
		}
		if strings.EqualFold(name, "Exp") && p.cur.kind == tokLParen {
			return p.parseExpCall()
		}

		return FromExmonomials(Exmonomial{C: decimal.One, Terms: []AtomicTerm{MustMonomial(variable.Variable(name), 1)}}), nil
	default:
		return Expolynomial{}, fmt.Errorf("expo.Parse: %w: unexpected token %q", ErrParse, p.cur.text)
	}
}

// parseExpCall parses the built-in Exp(rate, v) construct, already past
// the "Exp" identifier, with p.cur positioned at '('.
func (p *parser) parseExpCall() (Expolynomial, error) {
	if err := p.advance(); err != nil { // consume '('
		return Expolynomial{}, err
	}
	rateExpr, err := p.parseExpr()
	if err != nil {
		return Expolynomial{}, err
	}
	rate, err := constantOf(rateExpr)
	if err != nil {
		return Expolynomial{}, fmt.Errorf("expo.Parse: Exp(...) rate: %w", err)
	}
	if p.cur.kind != tokComma {
		return Expolynomial{}, fmt.Errorf("expo.Parse: %w: expected ',' in Exp(rate,v)", ErrParse)
	}
	if err := p.advance(); err != nil {
		return Expolynomial{}, err
	}
	if p.cur.kind != tokIdent {
		return Expolynomial{}, fmt.Errorf("expo.Parse: %w: Exp(...) second argument must be a variable", ErrParse)
	}
	v := variable.Variable(p.cur.text)
	if err := p.advance(); err != nil {
		return Expolynomial{}, err
	}
	if p.cur.kind != tokRParen {
		return Expolynomial{}, fmt.Errorf("expo.Parse: %w: expected ')' closing Exp(...)", ErrParse)
	}
	if err := p.advance(); err != nil {
		return Expolynomial{}, err
	}

	return FromExmonomials(Exmonomial{C: decimal.One, Terms: []AtomicTerm{Exponential(v, rate)}}), nil
}

// constantOf requires e to have no free variables and returns its scalar
// value.
func constantOf(e Expolynomial) (decimal.ExtendedDecimal, error) {
	n, err := e.Normalize()
	if err != nil {
		return decimal.ExtendedDecimal{}, err
	}
	if n.FreeVariables().Len() != 0 {
		return decimal.ExtendedDecimal{}, fmt.Errorf("expo: expected a constant, got %s", n)
	}
	total := decimal.Zero
	for _, m := range n.terms {
		total, err = total.Add(m.C)
		if err != nil {
			return decimal.ExtendedDecimal{}, err
		}
	}

	return total, nil
}
