package tomlcode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippsas/tomlcode/tomlparser"
)

func TestParseEmptyTextReturnsNil(t *testing.T) {
	tree, err := Parse("   \n  ", false)
	require.NoError(t, err)
	assert.Nil(t, tree)
}

func TestParseBasicDocument(t *testing.T) {
	tree, err := Parse(`
title = "example"

[owner]
name = "tom"
`, false)
	require.NoError(t, err)
	require.NotNil(t, tree)

	title, ok := tree.Get("title")
	require.True(t, ok)
	assert.Equal(t, "example", title.Str)

	owner, ok := tree.Get("owner")
	require.True(t, ok)
	name, ok := owner.Table.Get("name")
	require.True(t, ok)
	assert.Equal(t, "tom", name.Str)
}

func TestParseDuplicateKeyErrorWrapped(t *testing.T) {
	_, err := Parse("a = 1\na = 2\n", false)
	require.Error(t, err)
	var pe ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, tomlparser.InvalidKey, pe.Cause.Kind)
}

func TestParseAsObjectRejectsNonBareTopLevelKeys(t *testing.T) {
	_, err := Parse(`"has space" = 1`, true)
	require.Error(t, err)
	var pe ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, tomlparser.InvalidKey, pe.Cause.Kind)
}

func TestParseAsObjectAllowsBareTopLevelKeys(t *testing.T) {
	tree, err := Parse(`answer = 42`, true)
	require.NoError(t, err)
	require.NotNil(t, tree)
}

func TestParseFileNotFound(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.toml"), false)
	require.Error(t, err)
	var pe ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, tomlparser.FileNotFound, pe.Cause.Kind)
}

func TestParseFileReadsAndParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("answer = 42\n"), 0o644))

	tree, err := ParseFile(path, false)
	require.NoError(t, err)
	v, ok := tree.Get("answer")
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Int)
}

func TestParseFileErrorCarriesPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("a = 1\na = 2\n"), 0o644))

	_, err := ParseFile(path, false)
	require.Error(t, err)
	var pe ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, path, pe.File)
}

func TestWriteFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.toml")

	b := NewBuilder(0)
	b.AddValue("answer", tomlparser.IntegerVal(42), "")
	require.NoError(t, WriteFile(b, path))

	tree, err := ParseFile(path, false)
	require.NoError(t, err)
	v, ok := tree.Get("answer")
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Int)
}

func TestObjectTypedAccessors(t *testing.T) {
	tree, err := Parse(`
name = "example"
count = 3
ratio = 1.5
enabled = true
tags = ["a", "b"]

[nested]
x = 1
`, true)
	require.NoError(t, err)
	obj := AsObject(tree)

	name, ok := obj.GetString("name")
	require.True(t, ok)
	assert.Equal(t, "example", name)

	count, ok := obj.GetInt("count")
	require.True(t, ok)
	assert.Equal(t, int64(3), count)

	ratio, ok := obj.GetFloat("ratio")
	require.True(t, ok)
	assert.Equal(t, 1.5, ratio)

	enabled, ok := obj.GetBool("enabled")
	require.True(t, ok)
	assert.True(t, enabled)

	tags, ok := obj.GetArray("tags")
	require.True(t, ok)
	assert.Len(t, tags, 2)

	nested, ok := obj.GetTable("nested")
	require.True(t, ok)
	x, ok := nested.Get("x")
	require.True(t, ok)
	assert.Equal(t, int64(1), x.Int)

	_, ok = obj.GetString("count")
	assert.False(t, ok)
}
