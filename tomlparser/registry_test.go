package tomlparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryTopLevelKeyUniqueness(t *testing.T) {
	r := NewKeyRegistry()
	assert.True(t, r.IsValidKey("answer"))
	assert.True(t, r.AddKey("answer"))
	assert.False(t, r.IsValidKey("answer"))
	assert.False(t, r.AddKey("answer"))
}

func TestRegistryKeyScopedByCurrentTable(t *testing.T) {
	top := NewKeyRegistry()
	top.AddKey("x")
	assert.False(t, top.IsValidKey("x"))

	inTable := NewKeyRegistry()
	inTable.AddTableKey("a")
	assert.True(t, inTable.IsValidKey("x"))
	inTable.AddKey("x")
	assert.False(t, inTable.IsValidKey("x"))
}

func TestRegistryTableHeaderHierarchy(t *testing.T) {
	r := NewKeyRegistry()
	assert.True(t, r.IsValidTableKey("a"))
	assert.True(t, r.AddTableKey("a"))
	assert.Equal(t, "a", r.CurrentTable())

	assert.True(t, r.IsValidTableKey("a.b"))
	assert.True(t, r.AddTableKey("a.b"))
}

func TestRegistryDuplicateTableHeaderRejected(t *testing.T) {
	r := NewKeyRegistry()
	r.AddTableKey("a")
	assert.False(t, r.IsValidTableKey("a"))
}

// TestRegistrySiblingTableAfterNestedHeader exercises the bug found while
// hand-tracing [a.b.c] followed later by a sibling [a]: a stale
// currentTable from the first header must not corrupt the composed path
// checked for the second.
func TestRegistrySiblingTableAfterNestedHeader(t *testing.T) {
	r := NewKeyRegistry()
	r.AddTableKey("a.b.c")
	assert.True(t, r.IsValidTableKey("a"))
}

func TestRegistryArrayOfTablesAppendAndIndex(t *testing.T) {
	r := NewKeyRegistry()
	assert.True(t, r.IsValidArrayTableKey("fruit"))
	assert.True(t, r.AddArrayTableKey("fruit"))
	assert.Equal(t, 0, r.ArrayOfTableIndex("fruit"))

	assert.True(t, r.IsValidArrayTableKey("fruit"))
	assert.True(t, r.AddArrayTableKey("fruit"))
	assert.Equal(t, 1, r.ArrayOfTableIndex("fruit"))
}

func TestRegistryArrayOfTablesKeysComposedPerElement(t *testing.T) {
	r := NewKeyRegistry()
	r.AddArrayTableKey("fruit")
	assert.True(t, r.AddKey("name"))
	r.AddArrayTableKey("fruit")
	// a new element composes keys under its own index (fruit1), so the same
	// key name is fresh again
	assert.True(t, r.AddKey("name"))
}

func TestRegistryTableAlreadyDefinedAsArray(t *testing.T) {
	r := NewKeyRegistry()
	r.AddArrayTableKey("fruit")
	assert.True(t, r.IsRegisteredAsArrayTableKey("fruit"))
	assert.False(t, r.IsValidTableKey("fruit"))
}

func TestRegistryImplicitTableFromNestedArrayOfTables(t *testing.T) {
	r := NewKeyRegistry()
	r.AddArrayTableKey("fruit.variety")
	assert.True(t, r.IsTableImplicitFromArrayTable("fruit"))
	assert.False(t, r.IsTableImplicitFromArrayTable("fruit.variety"))
}

func TestRegistryRedeclareArrayAsTableHeaderRejected(t *testing.T) {
	r := NewKeyRegistry()
	r.AddArrayTableKey("a")
	assert.False(t, r.IsValidTableKey("a"))
}

func TestRegistryInlineTableSharesKeyNamespace(t *testing.T) {
	r := NewKeyRegistry()
	assert.True(t, r.IsValidInlineTable("point"))
	assert.True(t, r.AddInlineTableKey("point"))
	assert.False(t, r.IsValidKey("point"))
}
