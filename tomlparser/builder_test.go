package tomlparser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderAddValueScalarTypes(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("answer", IntegerVal(42), "")
	b.AddValue("pi", FloatVal(3.0), "")
	b.AddValue("active", BooleanVal(true), "")
	text, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "answer = 42\npi = 3.0\nactive = true\n", text)
}

func TestBuilderAddValueStringEscaping(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("s", StringVal("a\tb\nc\"d"), "")
	text, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, `s = "a\tb\nc\"d"`+"\n", text)
}

func TestBuilderAddValueLiteralStringPrefix(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("s", StringVal(`@literal \text`), "")
	text, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, `s = 'literal \text'`+"\n", text)
}

func TestBuilderAddValueLiteralStringEscapedAtSign(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("s", StringVal("@@starts-with-at"), "")
	text, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "s = '@starts-with-at'\n", text)
}

func TestBuilderAddValueBareBackslashRejected(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("s", StringVal(`bad\path`), "")
	_, err := b.Build()
	require.Error(t, err)
	tomlErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, InvalidStringCharacters, tomlErr.Kind)
}

func TestBuilderAddValuePassesThroughUnicodeBytes(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("s", StringVal(`café é`), "")
	text, err := b.Build()
	require.NoError(t, err)
	assert.Contains(t, text, `é`)
}

func TestBuilderAddValueDuplicateKeyRejected(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("a", IntegerVal(1), "")
	b.AddValue("a", IntegerVal(2), "")
	_, err := b.Build()
	require.Error(t, err)
	tomlErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, DuplicateKey, tomlErr.Kind)
}

func TestBuilderErrorLatchesFurtherCallsNoOp(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("a", IntegerVal(1), "")
	b.AddValue("a", IntegerVal(2), "") // latches DuplicateKey
	b.AddValue("b", IntegerVal(3), "") // should be a no-op
	b.AddTable("c")                    // should also be a no-op
	_, err := b.Build()
	require.Error(t, err)
	tomlErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, DuplicateKey, tomlErr.Kind)
}

func TestBuilderAddTableEmitsBlankLineSeparator(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("top", IntegerVal(1), "")
	b.AddTable("a")
	b.AddValue("x", IntegerVal(2), "")
	text, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "top = 1\n\n[a]\nx = 2\n", text)
}

func TestBuilderAddTableDuplicateRejected(t *testing.T) {
	b := NewBuilder(0)
	b.AddTable("a")
	b.AddTable("a")
	_, err := b.Build()
	require.Error(t, err)
	tomlErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, DuplicateTableKey, tomlErr.Kind)
}

func TestBuilderAddTableCollidingWithArrayOfTableRejected(t *testing.T) {
	b := NewBuilder(0)
	b.AddArrayOfTable("fruit")
	b.AddTable("fruit")
	_, err := b.Build()
	require.Error(t, err)
	tomlErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, TableAlreadyDefinedAsArray, tomlErr.Kind)
}

func TestBuilderAddArrayOfTableAppendsMultiple(t *testing.T) {
	b := NewBuilder(0)
	b.AddArrayOfTable("fruit")
	b.AddValue("name", StringVal("apple"), "")
	b.AddArrayOfTable("fruit")
	b.AddValue("name", StringVal("banana"), "")
	text, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "[[fruit]]\nname = \"apple\"\n\n[[fruit]]\nname = \"banana\"\n", text)
}

func TestBuilderAddArrayOfTableImplicitParentRejected(t *testing.T) {
	b := NewBuilder(0)
	b.AddArrayOfTable("fruit.variety")
	b.AddArrayOfTable("fruit")
	_, err := b.Build()
	require.Error(t, err)
	tomlErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, KeyDefinedAsImplicitTable, tomlErr.Kind)
}

func TestBuilderAddTablePathMustBeUnquoted(t *testing.T) {
	b := NewBuilder(0)
	b.AddTable("a b")
	_, err := b.Build()
	require.Error(t, err)
	tomlErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, UnquotedKeyRequired, tomlErr.Kind)
}

func TestBuilderAddValueQuotesKeyWithSpecialCharacters(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("a b", IntegerVal(1), "")
	text, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, `"a b" = 1`+"\n", text)
}

func TestBuilderAddValueEmptyKeyRejected(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("  ", IntegerVal(1), "")
	_, err := b.Build()
	require.Error(t, err)
	tomlErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, EmptyKey, tomlErr.Kind)
}

func TestBuilderAddValueArrayHomogeneous(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("values", ArrayVal([]Value{IntegerVal(1), IntegerVal(2), IntegerVal(3)}), "")
	text, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "values = [1, 2, 3]\n", text)
}

func TestBuilderAddValueMixedArrayRejected(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("values", ArrayVal([]Value{IntegerVal(1), StringVal("two")}), "")
	_, err := b.Build()
	require.Error(t, err)
	tomlErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, MixedArrayTypes, tomlErr.Kind)
}

func TestBuilderAddValueUnsupportedTableKindRejected(t *testing.T) {
	b := NewBuilder(0)
	b.AddValue("nested", TableVal(NewTable()), "")
	_, err := b.Build()
	require.Error(t, err)
	tomlErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, UnsupportedDataType, tomlErr.Kind)
}

func TestBuilderAddValueDatetimeEmitsZuluForm(t *testing.T) {
	b := NewBuilder(0)
	when := time.Date(1979, 5, 27, 7, 32, 0, 0, time.FixedZone("", 3600))
	b.AddValue("odt", DatetimeVal(Datetime{Form: OffsetDateTimeForm, Time: when}), "")
	text, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "odt = 1979-05-27T06:32:00Z\n", text)
}

func TestBuilderAddCommentStandalone(t *testing.T) {
	b := NewBuilder(0)
	b.AddComment("a standalone remark")
	text, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "# a standalone remark\n", text)
}

func TestIsUnquotedKey(t *testing.T) {
	assert.True(t, IsUnquotedKey("bare_key-123"))
	assert.False(t, IsUnquotedKey("has space"))
	assert.False(t, IsUnquotedKey("has.dot"))
}
