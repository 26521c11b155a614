// Package tomlparser implements the scanning, parsing, and serialization core
// for TOML v0.4.0 documents.
package tomlparser

// TokenType represents the kind of a lexical token produced by the Scanner.
type TokenType int

const (
	EqualToken TokenType = iota + 1
	BooleanToken
	DatetimeToken
	FloatToken
	IntegerToken
	TripleQuoteToken
	QuoteToken
	TripleApostropheToken
	ApostropheToken
	HashToken
	SpaceToken
	LBracketToken
	RBracketToken
	LBraceToken
	RBraceToken
	CommaToken
	DotToken
	UnquotedKeyToken
	EscapedCharToken
	EscapeToken
	BasicUnescapedToken
	NewlineToken
	EndToken
)

func (tt TokenType) String() string {
	return tokenToDescription[tt]
}

func (tt TokenType) GoString() string {
	return tokenToDescription[tt]
}

func init() {
	// make sure we panic if a description isn't declared
	for tt := TokenType(1); tt <= EndToken; tt++ {
		if tokenToDescription[tt] == "" {
			panic("you have not updated tokenToDescription")
		}
	}
}

var tokenToDescription = map[TokenType]string{
	EqualToken:            "EqualToken",
	BooleanToken:          "BooleanToken",
	DatetimeToken:         "DatetimeToken",
	FloatToken:            "FloatToken",
	IntegerToken:          "IntegerToken",
	TripleQuoteToken:      "TripleQuoteToken",
	QuoteToken:            "QuoteToken",
	TripleApostropheToken: "TripleApostropheToken",
	ApostropheToken:       "ApostropheToken",
	HashToken:             "HashToken",
	SpaceToken:            "SpaceToken",
	LBracketToken:         "LBracketToken",
	RBracketToken:         "RBracketToken",
	LBraceToken:           "LBraceToken",
	RBraceToken:           "RBraceToken",
	CommaToken:            "CommaToken",
	DotToken:              "DotToken",
	UnquotedKeyToken:      "UnquotedKeyToken",
	EscapedCharToken:      "EscapedCharToken",
	EscapeToken:           "EscapeToken",
	BasicUnescapedToken:   "BasicUnescapedToken",
	NewlineToken:          "NewlineToken",
	EndToken:              "EndToken",
}

// Token is an immutable triple of (kind, literal text, source line). Lines
// are 1-based, matching the Line reported by Error in this package.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
}
