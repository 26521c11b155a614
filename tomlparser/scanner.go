package tomlparser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Scanner turns UTF-8 text into a finite sequence of Tokens. It scans
// line-at-a-time: for each remaining substring of a line it tries the
// ordered alternatives below and takes the first that matches, the same
// regex-priority scheme that lets `1979-05-27` scan as one DatetimeToken
// instead of the three IntegerTokens `1979`, `-05` and `-27`.
type Scanner struct {
	log logrus.FieldLogger
}

// NewScanner constructs a Scanner. A nil logger falls back to
// logrus.StandardLogger(); debug-level tracing of line/token counts is the
// only thing it is used for, so it never affects scan results.
func NewScanner(log logrus.FieldLogger) *Scanner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scanner{log: log}
}

type scanRule struct {
	typ TokenType
	re  *regexp.Regexp
}

// digitRun is "D" in spec terms: a digit optionally followed by an
// underscore, greedy -- i.e. digits that may have single underscores
// between them.
const digitRun = `\d(?:_?\d)*`

var (
	dateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(?:T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)?`)
	floatRe    = regexp.MustCompile(`^[+-]?(?:(?:` + digitRun + `[.]?(?:` + digitRun + `)*[eE][+-]?` + digitRun + `)|(?:` + digitRun + `[.]` + digitRun + `))`)
	integerRe  = regexp.MustCompile(`^[+-]?` + digitRun)
	boolRe     = regexp.MustCompile(`^(?:true|false)`)
	unquotedRe = regexp.MustCompile(`^[-A-Za-z_0-9]+`)
	escapedRe  = regexp.MustCompile(`^\\(?:[btnfr"\\]|u[0-9A-Fa-f]{4}|U[0-9A-Fa-f]{8})`)
	basicUnRe  = regexp.MustCompile(`^[\x{08}-\x{0D}\x{20}-\x{21}\x{23}-\x{26}\x{28}-\x{5A}\x{5E}-\x{10FFFF}]+`)
	spaceRe    = regexp.MustCompile(`^ +`)
)

// orderedRules mirrors spec.md section 4.1 exactly; the order is load
// bearing, not cosmetic.
var orderedRules = []scanRule{
	{EqualToken, regexp.MustCompile(`^=`)},
	{BooleanToken, boolRe},
	{DatetimeToken, dateTimeRe},
	{FloatToken, floatRe},
	{IntegerToken, integerRe},
	{TripleQuoteToken, regexp.MustCompile(`^"""`)},
	{QuoteToken, regexp.MustCompile(`^"`)},
	{TripleApostropheToken, regexp.MustCompile(`^'''`)},
	{ApostropheToken, regexp.MustCompile(`^'`)},
	{HashToken, regexp.MustCompile(`^#`)},
	{SpaceToken, spaceRe},
	{LBracketToken, regexp.MustCompile(`^\[`)},
	{RBracketToken, regexp.MustCompile(`^\]`)},
	{LBraceToken, regexp.MustCompile(`^\{`)},
	{RBraceToken, regexp.MustCompile(`^\}`)},
	{CommaToken, regexp.MustCompile(`^,`)},
	{DotToken, regexp.MustCompile(`^\.`)},
	{UnquotedKeyToken, unquotedRe},
	{EscapedCharToken, escapedRe},
	{EscapeToken, regexp.MustCompile(`^\\`)},
	{BasicUnescapedToken, basicUnRe},
}

// preprocess validates UTF-8, normalizes line endings to LF, and replaces
// tabs with a single space, per spec.md section 4.1.
func preprocess(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", newError(InvalidUTF8, 0, "input is not valid UTF-8")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", " ")
	return text, nil
}

// Scan produces the finite token sequence for text, including the injected
// NEWLINE tokens between lines and the single trailing END token.
func (s *Scanner) Scan(text string) ([]Token, error) {
	normalized, err := preprocess(text)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(normalized, "\n")
	var tokens []Token

	for i, line := range lines {
		lineNo := i + 1
		rest := line
		for len(rest) > 0 {
			tt, lexeme, ok := scanOne(rest)
			if !ok {
				return nil, newError(LexerParse, lineNo, "no token pattern matches %q", rest)
			}
			tokens = append(tokens, Token{Type: tt, Literal: lexeme, Line: lineNo})
			rest = rest[len(lexeme):]
		}
		if i != len(lines)-1 {
			tokens = append(tokens, Token{Type: NewlineToken, Literal: "\n", Line: lineNo})
		}
	}

	endLine := len(lines)
	tokens = append(tokens, Token{Type: EndToken, Literal: "", Line: endLine})

	s.log.WithFields(logrus.Fields{"lines": len(lines), "tokens": len(tokens)}).Debug("tomlparser: scan complete")

	return tokens, nil
}

func scanOne(rest string) (TokenType, string, bool) {
	for _, rule := range orderedRules {
		if loc := rule.re.FindStringIndex(rest); loc != nil && loc[0] == 0 && loc[1] > 0 {
			return rule.typ, rest[:loc[1]], true
		}
	}
	return 0, "", false
}
