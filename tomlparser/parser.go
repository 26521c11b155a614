package tomlparser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Parser runs the recursive-descent pass over a token sequence, maintaining
// a KeyRegistry for uniqueness/hierarchy bookkeeping and a DocumentTree for
// the physical value tree, per spec.md section 4.5. Each Parser owns its own
// registry and tree; nothing is shared across calls.
type Parser struct {
	cursor   *TokenCursor
	registry *KeyRegistry
	tree     *DocumentTree
	log      logrus.FieldLogger
}

// NewParser wraps tokens (as produced by Scanner.Scan) for a single parse.
func NewParser(tokens []Token, log logrus.FieldLogger) *Parser {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Parser{
		cursor:   NewTokenCursor(tokens),
		registry: NewKeyRegistry(),
		tree:     NewDocumentTree(),
		log:      log,
	}
}

// Parse consumes the entire token stream and returns the finished root
// table, or the first error encountered.
func (p *Parser) Parse() (*Table, error) {
	for p.cursor.HasMore() {
		switch {
		case p.cursor.Peek(HashToken):
			p.skipComment()
		case p.cursor.PeekSequence(LBracketToken, LBracketToken):
			if err := p.parseArrayOfTablesHeader(); err != nil {
				return nil, err
			}
		case p.cursor.Peek(LBracketToken):
			if err := p.parseTableHeader(); err != nil {
				return nil, err
			}
		case p.cursor.PeekAny(QuoteToken, UnquotedKeyToken, IntegerToken):
			if err := p.parseKeyValue(); err != nil {
				return nil, err
			}
		case p.cursor.PeekAny(SpaceToken, NewlineToken, EndToken):
			p.cursor.Advance()
		default:
			return nil, newError(UnexpectedToken, p.cursor.Line(), "expected a comment, table header, or key, got %s", p.cursor.PeekType())
		}
	}
	p.log.WithFields(logrus.Fields{"keys": len(p.tree.Root().Keys())}).Debug("tomlparser: parse complete")
	return p.tree.Root(), nil
}

func (p *Parser) skipComment() {
	p.cursor.Advance() // HASH
	for !p.cursor.PeekAny(NewlineToken, EndToken) {
		p.cursor.Advance()
	}
}

// consumeLineEnd skips trailing SPACE and an optional HASH comment, then
// requires (and consumes, if present) a NEWLINE or the terminal END.
func (p *Parser) consumeLineEnd() error {
	p.cursor.SkipWhile(SpaceToken)
	if p.cursor.Peek(HashToken) {
		p.skipComment()
	}
	if p.cursor.Peek(NewlineToken) {
		p.cursor.Advance()
		return nil
	}
	if p.cursor.Peek(EndToken) {
		return nil
	}
	return newError(UnexpectedToken, p.cursor.Line(), "expected newline or end of input, got %s", p.cursor.PeekType())
}

// parseKeyName parses a single (non-dotted) key name: an UNQUOTED_KEY
// lexeme taken verbatim, an INTEGER lexeme normalized the same way an
// integer value is, or a QUOTE-delimited basic string.
func (p *Parser) parseKeyName() (string, error) {
	switch p.cursor.PeekType() {
	case UnquotedKeyToken:
		t, _ := p.cursor.Advance()
		return t.Literal, nil
	case IntegerToken:
		t, _ := p.cursor.Advance()
		return normalizeInteger(t.Literal, t.Line)
	case QuoteToken:
		return p.parseBasicString()
	default:
		return "", newError(UnexpectedToken, p.cursor.Line(), "expected a key name, got %s", p.cursor.PeekType())
	}
}

// parseDottedPath parses one or more key names joined by DotToken,
// tolerating surrounding SPACE, and returns them joined with "." after each
// segment has been escaped so embedded literal dots survive the join.
func (p *Parser) parseDottedPath() (string, error) {
	var segments []string
	for {
		p.cursor.SkipWhile(SpaceToken)
		name, err := p.parseKeyName()
		if err != nil {
			return "", err
		}
		segments = append(segments, EscapeKey(name))
		p.cursor.SkipWhile(SpaceToken)
		if p.cursor.Peek(DotToken) {
			p.cursor.Advance()
			continue
		}
		break
	}
	return strings.Join(segments, "."), nil
}

func (p *Parser) parseTableHeader() error {
	line := p.cursor.Line()
	p.cursor.Advance() // LBRACKET
	full, err := p.parseDottedPath()
	if err != nil {
		return err
	}
	if !p.registry.IsValidTableKey(full) {
		return newError(InvalidTableKey, line, "table [%s] is already defined, or redeclares an array of tables", full)
	}
	p.registry.AddTableKey(full)
	p.tree.EnterTable(full)
	if _, err := p.cursor.Expect(RBracketToken); err != nil {
		return err
	}
	return p.consumeLineEnd()
}

func (p *Parser) parseArrayOfTablesHeader() error {
	line := p.cursor.Line()
	p.cursor.Advance() // LBRACKET
	p.cursor.Advance() // LBRACKET
	full, err := p.parseDottedPath()
	if err != nil {
		return err
	}
	if !p.registry.IsValidArrayTableKey(full) {
		return newError(InvalidArrayTableKey, line, "array of tables [[%s]] collides with an existing key", full)
	}
	if p.registry.IsTableImplicitFromArrayTable(full) {
		return newError(InvalidArrayTableKey, line, "[[%s]] was already implicitly created by a deeper array of tables", full)
	}
	p.registry.AddArrayTableKey(full)
	p.tree.AppendArrayElement(full)
	if _, err := p.cursor.Expect(RBracketToken); err != nil {
		return err
	}
	if _, err := p.cursor.Expect(RBracketToken); err != nil {
		return err
	}
	return p.consumeLineEnd()
}

// parseKeyValueAssignment parses "name = value" and registers/stores it,
// without requiring anything in particular to follow -- used both at the
// top level (where a line end must follow) and inside inline tables (where
// a COMMA or RBRACE follows instead).
func (p *Parser) parseKeyValueAssignment() (string, error) {
	name, err := p.parseKeyName()
	if err != nil {
		return "", err
	}
	p.cursor.SkipWhile(SpaceToken)
	if _, err := p.cursor.Expect(EqualToken); err != nil {
		return "", err
	}
	p.cursor.SkipWhile(SpaceToken)

	switch {
	case p.cursor.Peek(LBraceToken):
		if !p.registry.IsValidInlineTable(name) {
			return "", newError(InvalidKey, p.cursor.Line(), "key %q is already defined", name)
		}
		p.registry.AddInlineTableKey(name)
		p.cursor.Advance() // LBRACE
		p.tree.BeginInlineTable(name)
		if err := p.parseInlineTableBody(); err != nil {
			return "", err
		}
		if _, err := p.cursor.Expect(RBraceToken); err != nil {
			return "", err
		}
		p.tree.EndInlineTable()
	case p.cursor.Peek(LBracketToken):
		if !p.registry.IsValidKey(name) {
			return "", newError(InvalidKey, p.cursor.Line(), "key %q is already defined", name)
		}
		v, err := p.parseArray()
		if err != nil {
			return "", err
		}
		p.registry.AddKey(name)
		p.tree.PutValue(name, v)
	default:
		if !p.registry.IsValidKey(name) {
			return "", newError(InvalidKey, p.cursor.Line(), "key %q is already defined", name)
		}
		v, err := p.parseSimpleValue()
		if err != nil {
			return "", err
		}
		p.registry.AddKey(name)
		p.tree.PutValue(name, v)
	}
	return name, nil
}

func (p *Parser) parseKeyValue() error {
	if _, err := p.parseKeyValueAssignment(); err != nil {
		return err
	}
	return p.consumeLineEnd()
}

func (p *Parser) parseInlineKeyValue() error {
	_, err := p.parseKeyValueAssignment()
	return err
}

// parseInlineTableBody parses zero or more comma-separated key-values
// between an already-consumed LBRACE and the closing RBRACE. A newline
// anywhere inside is a syntax error: inline tables are single-line.
func (p *Parser) parseInlineTableBody() error {
	p.cursor.SkipWhile(SpaceToken)
	if p.cursor.Peek(RBraceToken) {
		return nil
	}
	for {
		if p.cursor.PeekAny(NewlineToken, EndToken) {
			return newError(SyntaxError, p.cursor.Line(), "inline tables cannot span multiple lines")
		}
		if err := p.parseInlineKeyValue(); err != nil {
			return err
		}
		p.cursor.SkipWhile(SpaceToken)
		if p.cursor.Peek(CommaToken) {
			p.cursor.Advance()
			p.cursor.SkipWhile(SpaceToken)
			continue
		}
		break
	}
	return nil
}

// parseArray parses a bracketed, comma-separated, possibly multi-line
// sequence of array elements, enforcing that every element shares the kind
// of the first (nested arrays count as kind "array" regardless of what
// their own elements are).
func (p *Parser) parseArray() (Value, error) {
	if _, err := p.cursor.Expect(LBracketToken); err != nil {
		return Value{}, err
	}
	var elems []Value
	var leaderKind ValueKind
	p.skipArrayFiller()
	for !p.cursor.Peek(RBracketToken) {
		v, err := p.parseArrayElement()
		if err != nil {
			return Value{}, err
		}
		if leaderKind == 0 {
			leaderKind = v.Kind
		} else if v.Kind != leaderKind {
			return Value{}, newError(SyntaxError, p.cursor.Line(), "%s is not a %s. Data types cannot be mixed", formatValueForError(v), leaderKind)
		}
		elems = append(elems, v)
		p.skipArrayFiller()
		if p.cursor.Peek(CommaToken) {
			p.cursor.Advance()
			p.skipArrayFiller()
			continue
		}
		break
	}
	if _, err := p.cursor.Expect(RBracketToken); err != nil {
		return Value{}, err
	}
	return ArrayVal(elems), nil
}

func (p *Parser) parseArrayElement() (Value, error) {
	if p.cursor.Peek(LBracketToken) {
		return p.parseArray()
	}
	return p.parseSimpleValue()
}

// skipArrayFiller consumes SPACE, NEWLINE and HASH-comments between array
// elements and delimiters -- arrays, unlike inline tables, may freely span
// multiple lines.
func (p *Parser) skipArrayFiller() {
	for {
		switch {
		case p.cursor.PeekAny(SpaceToken, NewlineToken):
			p.cursor.Advance()
		case p.cursor.Peek(HashToken):
			p.skipComment()
		default:
			return
		}
	}
}

// parseSimpleValue dispatches on the next token's kind to one of the
// non-array, non-inline-table value forms.
func (p *Parser) parseSimpleValue() (Value, error) {
	switch p.cursor.PeekType() {
	case BooleanToken:
		t, _ := p.cursor.Advance()
		return BooleanVal(t.Literal == "true"), nil
	case IntegerToken:
		t, _ := p.cursor.Advance()
		norm, err := normalizeInteger(t.Literal, t.Line)
		if err != nil {
			return Value{}, err
		}
		n, convErr := strconv.ParseInt(norm, 10, 64)
		if convErr != nil {
			return Value{}, newError(SyntaxError, t.Line, "integer %q is out of range", t.Literal)
		}
		return IntegerVal(n), nil
	case FloatToken:
		t, _ := p.cursor.Advance()
		norm, err := normalizeFloatLexeme(t.Literal, t.Line)
		if err != nil {
			return Value{}, err
		}
		f, convErr := strconv.ParseFloat(norm, 64)
		if convErr != nil {
			return Value{}, newError(SyntaxError, t.Line, "invalid float %q", t.Literal)
		}
		return FloatVal(f), nil
	case QuoteToken:
		s, err := p.parseBasicString()
		if err != nil {
			return Value{}, err
		}
		return StringVal(s), nil
	case TripleQuoteToken:
		s, err := p.parseMultilineBasicString()
		if err != nil {
			return Value{}, err
		}
		return StringVal(s), nil
	case ApostropheToken:
		s, err := p.parseLiteralString()
		if err != nil {
			return Value{}, err
		}
		return StringVal(s), nil
	case TripleApostropheToken:
		s, err := p.parseMultilineLiteralString()
		if err != nil {
			return Value{}, err
		}
		return StringVal(s), nil
	case DatetimeToken:
		t, _ := p.cursor.Advance()
		return DatetimeVal(parseDatetimeLiteral(t.Literal)), nil
	default:
		return Value{}, newError(UnexpectedToken, p.cursor.Line(), "expected a value, got %s", p.cursor.PeekType())
	}
}

func (p *Parser) parseBasicString() (string, error) {
	if _, err := p.cursor.Expect(QuoteToken); err != nil {
		return "", err
	}
	var sb strings.Builder
	for {
		switch {
		case p.cursor.Peek(QuoteToken):
			p.cursor.Advance()
			return sb.String(), nil
		case p.cursor.PeekAny(EscapeToken, NewlineToken, EndToken):
			return "", newError(SyntaxError, p.cursor.Line(), "unterminated or invalid basic string")
		default:
			t, _ := p.cursor.Advance()
			if t.Type == EscapedCharToken {
				sb.WriteString(translateEscapedChar(t.Literal))
			} else {
				sb.WriteString(t.Literal)
			}
		}
	}
}

func (p *Parser) parseMultilineBasicString() (string, error) {
	if _, err := p.cursor.Expect(TripleQuoteToken); err != nil {
		return "", err
	}
	if p.cursor.Peek(NewlineToken) {
		p.cursor.Advance()
	}
	var sb strings.Builder
	for {
		switch {
		case p.cursor.Peek(TripleQuoteToken):
			p.cursor.Advance()
			return sb.String(), nil
		case p.cursor.Peek(EndToken):
			return "", newError(SyntaxError, p.cursor.Line(), "unterminated multi-line basic string")
		case p.cursor.Peek(EscapeToken):
			// A bare backslash here starts a line-continuation: it and
			// any run of SPACE/NEWLINE/ESCAPE after it are dropped
			// entirely, letting a long line be wrapped in source without
			// adding whitespace to the value.
			p.cursor.Advance()
			p.cursor.SkipWhileAny(SpaceToken, NewlineToken, EscapeToken)
		default:
			t, _ := p.cursor.Advance()
			if t.Type == EscapedCharToken {
				sb.WriteString(translateEscapedChar(t.Literal))
			} else if t.Type == NewlineToken {
				sb.WriteString("\n")
			} else {
				sb.WriteString(t.Literal)
			}
		}
	}
}

func (p *Parser) parseLiteralString() (string, error) {
	if _, err := p.cursor.Expect(ApostropheToken); err != nil {
		return "", err
	}
	var sb strings.Builder
	for {
		switch {
		case p.cursor.Peek(ApostropheToken):
			p.cursor.Advance()
			return sb.String(), nil
		case p.cursor.PeekAny(NewlineToken, EndToken):
			return "", newError(SyntaxError, p.cursor.Line(), "unterminated literal string")
		default:
			t, _ := p.cursor.Advance()
			sb.WriteString(t.Literal)
		}
	}
}

func (p *Parser) parseMultilineLiteralString() (string, error) {
	if _, err := p.cursor.Expect(TripleApostropheToken); err != nil {
		return "", err
	}
	if p.cursor.Peek(NewlineToken) {
		p.cursor.Advance()
	}
	var sb strings.Builder
	for {
		switch {
		case p.cursor.Peek(TripleApostropheToken):
			p.cursor.Advance()
			return sb.String(), nil
		case p.cursor.Peek(EndToken):
			return "", newError(SyntaxError, p.cursor.Line(), "unterminated multi-line literal string")
		default:
			t, _ := p.cursor.Advance()
			if t.Type == NewlineToken {
				sb.WriteString("\n")
			} else {
				sb.WriteString(t.Literal)
			}
		}
	}
}

// translateEscapedChar maps one EscapedCharToken lexeme to its value-side
// text. \b is deliberately NOT translated to a backspace byte: it is kept
// as the two literal characters backslash-b, matching the behavior this
// core's reference fixtures were generated against.
func translateEscapedChar(lexeme string) string {
	switch lexeme {
	case `\b`:
		return `\b`
	case `\t`:
		return "\t"
	case `\n`:
		return "\n"
	case `\f`:
		return "\f"
	case `\r`:
		return "\r"
	case `\"`:
		return `"`
	case `\\`:
		return `\`
	default:
		if strings.HasPrefix(lexeme, `\u`) || strings.HasPrefix(lexeme, `\U`) {
			if n, err := strconv.ParseInt(lexeme[2:], 16, 32); err == nil {
				return string(rune(n))
			}
		}
		return lexeme
	}
}

// invalidUnderscoreRe flags an underscore that is not surrounded by digits
// on both sides -- this alone also rejects "_e"/"e_" in float lexemes,
// since 'e'/'E'/'.'/sign characters are all non-digits.
var invalidUnderscoreRe = regexp.MustCompile(`(^_|_$|[^0-9]_|_[^0-9])`)

var leadingZeroRe = regexp.MustCompile(`^0\d+`)

func hasInvalidUnderscore(lexeme string) bool {
	return invalidUnderscoreRe.MatchString(lexeme)
}

// normalizeInteger validates underscore placement and leading zeros in an
// INTEGER lexeme and returns it with underscores stripped, sign preserved.
func normalizeInteger(lexeme string, line int) (string, error) {
	if hasInvalidUnderscore(lexeme) {
		return "", newError(SyntaxError, line, "misplaced underscore in integer %q", lexeme)
	}
	stripped := strings.ReplaceAll(lexeme, "_", "")
	sign, digits := "", stripped
	if strings.HasPrefix(digits, "+") || strings.HasPrefix(digits, "-") {
		sign, digits = digits[:1], digits[1:]
	}
	if leadingZeroRe.MatchString(digits) {
		return "", newError(SyntaxError, line, "integer %q has a leading zero", lexeme)
	}
	return sign + digits, nil
}

// normalizeFloatLexeme applies the same underscore and leading-zero
// validation to a FLOAT lexeme, checking the leading-zero rule only against
// the digits before any '.' or exponent marker, so "0.5" still validates.
func normalizeFloatLexeme(lexeme string, line int) (string, error) {
	if hasInvalidUnderscore(lexeme) {
		return "", newError(SyntaxError, line, "misplaced underscore in float %q", lexeme)
	}
	stripped := strings.ReplaceAll(lexeme, "_", "")
	sign, rest := "", stripped
	if strings.HasPrefix(rest, "+") || strings.HasPrefix(rest, "-") {
		sign, rest = rest[:1], rest[1:]
	}
	intPart := rest
	if idx := strings.IndexAny(rest, ".eE"); idx >= 0 {
		intPart = rest[:idx]
	}
	if leadingZeroRe.MatchString(intPart) {
		return "", newError(SyntaxError, line, "float %q has a leading zero", lexeme)
	}
	return sign + rest, nil
}

var tzOffsetSuffixRe = regexp.MustCompile(`[+-]\d{2}:\d{2}$`)

func hasTZOffset(s string) bool {
	return strings.HasSuffix(s, "Z") || tzOffsetSuffixRe.MatchString(s)
}

// parseDatetimeLiteral classifies and best-effort parses a DATETIME lexeme.
// The literal is always retained verbatim regardless of whether time.Parse
// succeeds, so round-tripping never depends on it. LocalTimeForm is never
// produced here: the DATETIME grammar this core accepts always starts with
// a full date, so a bare time-of-day literal cannot occur; the form is kept
// in ValueKind's sibling enum for hosts that synthesize Datetime values of
// their own.
func parseDatetimeLiteral(lexeme string) Datetime {
	d := Datetime{Literal: lexeme}
	if !strings.Contains(lexeme, "T") {
		d.Form = LocalDateForm
		if t, err := time.Parse("2006-01-02", lexeme); err == nil {
			d.Time = t
		}
		return d
	}
	if hasTZOffset(lexeme) {
		d.Form = OffsetDateTimeForm
		for _, layout := range []string{"2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05.999999Z07:00"} {
			if t, err := time.Parse(layout, lexeme); err == nil {
				d.Time = t
				break
			}
		}
		return d
	}
	d.Form = LocalDateTimeForm
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, lexeme); err == nil {
			d.Time = t
			break
		}
	}
	return d
}

// formatValueForError renders v the way MIXED_ARRAY_TYPES messages quote
// the offending element.
func formatValueForError(v Value) string {
	switch v.Kind {
	case StringValue:
		return fmt.Sprintf("%q", v.Str)
	case IntegerValue:
		return fmt.Sprintf("%q", strconv.FormatInt(v.Int, 10))
	case FloatValue:
		return fmt.Sprintf("%q", strconv.FormatFloat(v.Float, 'g', -1, 64))
	case BooleanValue:
		return fmt.Sprintf("%q", strconv.FormatBool(v.Bool))
	case DatetimeValue:
		return fmt.Sprintf("%q", v.Datetime.Literal)
	case ArrayValue:
		return "an array"
	case TableValue:
		return "a table"
	default:
		return "a value"
	}
}
