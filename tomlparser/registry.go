package tomlparser

import (
	"fmt"
	"strings"
)

// KeyRegistry is the uniqueness and hierarchy ledger shared, by mutable
// reference, between Parser and Builder -- it is not a package-level
// global, each caller constructs its own instance (see spec.md section 9).
type KeyRegistry struct {
	keys                    map[string]bool
	tables                  map[string]bool
	arraysOfTables          map[string]int
	implicitFromArrayTable  map[string]bool
	currentTable            string
	currentArrayOfTable     string
}

// NewKeyRegistry returns an empty KeyRegistry.
func NewKeyRegistry() *KeyRegistry {
	return &KeyRegistry{
		keys:                   make(map[string]bool),
		tables:                 make(map[string]bool),
		arraysOfTables:         make(map[string]int),
		implicitFromArrayTable: make(map[string]bool),
	}
}

// composed applies the composition rule of spec.md section 4.3: join the
// enclosing array-of-tables element (disambiguated by its current index),
// the enclosing table, and name, dropping empty segments.
func (r *KeyRegistry) composed(name string) string {
	var segments []string
	if r.currentArrayOfTable != "" {
		segments = append(segments, fmt.Sprintf("%s%d", r.currentArrayOfTable, r.arraysOfTables[r.currentArrayOfTable]))
	}
	if r.currentTable != "" {
		segments = append(segments, r.currentTable)
	}
	if name != "" {
		segments = append(segments, name)
	}
	return strings.Join(segments, ".")
}

// IsValidKey reports whether name can be defined in the current context.
func (r *KeyRegistry) IsValidKey(name string) bool {
	return !r.keys[r.composed(name)]
}

// AddKey registers name in the current context. It returns false (and does
// nothing) if the composed path is already defined.
func (r *KeyRegistry) AddKey(name string) bool {
	c := r.composed(name)
	if r.keys[c] {
		return false
	}
	r.keys[c] = true
	return true
}

// IsValidInlineTable reports whether name can introduce an inline table in
// the current context; inline tables are addressed exactly like any other
// key.
func (r *KeyRegistry) IsValidInlineTable(name string) bool {
	return r.IsValidKey(name)
}

// AddInlineTableKey registers name as the key holding an inline table.
func (r *KeyRegistry) AddInlineTableKey(name string) bool {
	return r.AddKey(name)
}

// nearestArrayOfTableAncestor walks name's dotted path from the full path
// down to its first segment, returning the longest prefix (including name
// itself) that is a registered array-of-tables, or "" if none is.
func (r *KeyRegistry) nearestArrayOfTableAncestor(name string) string {
	segments := strings.Split(name, ".")
	for i := len(segments); i >= 1; i-- {
		candidate := strings.Join(segments[:i], ".")
		if _, ok := r.arraysOfTables[candidate]; ok {
			return candidate
		}
	}
	return ""
}

// tableKeyContext implements steps 1-2 of the table-key protocol without
// mutating state: it reports what currentArrayOfTable would become for a
// [name] header, and whether name illegally redeclares an [[name]] header.
func (r *KeyRegistry) tableKeyContext(name string) (arrayOfTableAncestor string, redeclaresArrayTable bool) {
	ancestor := r.nearestArrayOfTableAncestor(name)
	return ancestor, ancestor == name
}

// IsValidTableKey reports whether [name] can be declared: it must not
// redeclare an [[...]] header, and its composed path (as if already
// entered, with currentTable cleared exactly as addTableKey clears it)
// must be unused.
func (r *KeyRegistry) IsValidTableKey(name string) bool {
	ancestor, redeclares := r.tableKeyContext(name)
	if redeclares {
		return false
	}
	savedTable, savedArray := r.currentTable, r.currentArrayOfTable
	r.currentTable = ""
	r.currentArrayOfTable = ancestor
	composed := r.composed(name)
	r.currentTable, r.currentArrayOfTable = savedTable, savedArray
	return !r.keys[composed]
}

// AddTableKey runs the full table-key protocol for a [name] header: it
// clears currentTable, resolves currentArrayOfTable to the nearest
// enclosing array-of-tables, registers the composed path, and sets
// currentTable to name. It returns false (leaving state unchanged) if name
// redeclares an [[...]] header or its composed path is already used.
func (r *KeyRegistry) AddTableKey(name string) bool {
	ancestor, redeclares := r.tableKeyContext(name)
	if redeclares {
		return false
	}
	savedTable, savedArray := r.currentTable, r.currentArrayOfTable
	r.currentTable = ""
	r.currentArrayOfTable = ancestor
	composed := r.composed(name)
	if r.keys[composed] {
		r.currentTable, r.currentArrayOfTable = savedTable, savedArray
		return false
	}
	r.keys[composed] = true
	r.currentTable = name
	r.tables[name] = true
	return true
}

// IsValidArrayTableKey reports whether [[name]] can be declared or
// re-declared: name must be either entirely unused, or already a
// registered array-of-tables (the append case).
func (r *KeyRegistry) IsValidArrayTableKey(name string) bool {
	_, inArrays := r.arraysOfTables[name]
	_, inKeys := r.keys[name]
	return (!inArrays && !inKeys) || (inArrays && inKeys)
}

// AddArrayTableKey runs the full array-table protocol for an [[name]]
// header: on first declaration it reserves name in both keys and
// arraysOfTables at index 0; on re-declaration it increments the index.
// Either way currentTable and currentArrayOfTable are cleared and then
// currentArrayOfTable is set to name, and every strict prefix of name's
// dotted path is recorded as implicitly created.
func (r *KeyRegistry) AddArrayTableKey(name string) bool {
	if !r.IsValidArrayTableKey(name) {
		return false
	}
	r.currentTable = ""
	r.currentArrayOfTable = ""

	if _, exists := r.arraysOfTables[name]; !exists {
		r.keys[name] = true
		r.arraysOfTables[name] = 0
	} else {
		r.arraysOfTables[name]++
	}

	r.currentArrayOfTable = name

	segments := strings.Split(name, ".")
	for i := 1; i < len(segments); i++ {
		r.implicitFromArrayTable[strings.Join(segments[:i], ".")] = true
	}
	return true
}

// IsRegisteredAsTableKey reports whether name was defined by a [name]
// header.
func (r *KeyRegistry) IsRegisteredAsTableKey(name string) bool {
	return r.tables[name]
}

// IsRegisteredAsArrayTableKey reports whether name was defined by at least
// one [[name]] header.
func (r *KeyRegistry) IsRegisteredAsArrayTableKey(name string) bool {
	_, ok := r.arraysOfTables[name]
	return ok
}

// IsTableImplicitFromArrayTable reports whether name was brought into being
// only as a parent of a deeper [[...]] header, and was never itself
// declared as an array-of-tables.
func (r *KeyRegistry) IsTableImplicitFromArrayTable(name string) bool {
	return r.implicitFromArrayTable[name] && !r.IsRegisteredAsArrayTableKey(name)
}

// CurrentTable returns the path of the most recently entered [...] header,
// or "" if none is active.
func (r *KeyRegistry) CurrentTable() string {
	return r.currentTable
}

// CurrentArrayOfTable returns the path of the enclosing [[...]] header, or
// "" if none is active.
func (r *KeyRegistry) CurrentArrayOfTable() string {
	return r.currentArrayOfTable
}

// ArrayOfTableIndex returns the current (0-based) element index for a
// registered array-of-tables path.
func (r *KeyRegistry) ArrayOfTableIndex(name string) int {
	return r.arraysOfTables[name]
}
