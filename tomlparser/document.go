package tomlparser

import "strings"

// dotPlaceholder stands in for a literal '.' inside a single quoted key
// segment while that segment is folded into a dotted path string, so that
// DocumentTree can split the path on '.' without mistaking the literal dot
// in e.g. "tater.man" for a path separator.
const dotPlaceholder = "\x00"

// EscapeKey replaces literal dots in a single key segment with a
// placeholder, making it safe to join into a dotted table-header path.
func EscapeKey(name string) string {
	return strings.ReplaceAll(name, ".", dotPlaceholder)
}

// UnescapeKey reverses EscapeKey, recovering the original key text after a
// dotted path has been split back into segments.
func UnescapeKey(name string) string {
	return strings.ReplaceAll(name, dotPlaceholder, ".")
}

// DocumentTree incrementally builds a nested Table while the Parser walks
// the token stream. It maintains a movable insertion cursor and a stack of
// saved cursors used to restore scope when an inline table closes.
type DocumentTree struct {
	root   *Table
	cursor *Table
	stack  []*Table
}

// NewDocumentTree returns a DocumentTree whose cursor starts at its (empty)
// root table.
func NewDocumentTree() *DocumentTree {
	root := NewTable()
	return &DocumentTree{root: root, cursor: root}
}

// Root returns the top-level table. It is only complete once parsing has
// finished.
func (d *DocumentTree) Root() *Table {
	return d.root
}

// PutValue sets name -> v on the table the cursor currently designates.
func (d *DocumentTree) PutValue(name string, v Value) {
	d.cursor.Set(name, v)
}

// descend moves the cursor from its current table into the sub-table
// addressed by real, creating an empty one if absent. If the existing value
// at real is an array-of-tables, the cursor drops into that array's current
// last element instead, which is what lets a later [a.b.c] header land
// inside the most recently appended [[a]] element.
func (d *DocumentTree) descend(real string) {
	existing, ok := d.cursor.Get(real)
	switch {
	case ok && existing.Kind == ArrayValue && len(existing.Array) > 0:
		d.cursor = existing.Array[len(existing.Array)-1].Table
	case ok && existing.Kind == TableValue:
		d.cursor = existing.Table
	default:
		t := NewTable()
		d.cursor.Set(real, TableVal(t))
		d.cursor = t
	}
}

// EnterTable resets the cursor to the root and walks path's dotted
// segments, creating and descending into an empty sub-table for each one
// absent, and diving into an existing array-of-tables' last element instead
// of the array itself whenever an intermediate segment names one.
func (d *DocumentTree) EnterTable(path string) {
	d.cursor = d.root
	if path == "" {
		return
	}
	for _, seg := range strings.Split(path, ".") {
		d.descend(UnescapeKey(seg))
	}
}

// BeginInlineTable pushes the current cursor and descends into name,
// creating an empty table there if absent. Inline table names are single
// keys, never dotted paths.
func (d *DocumentTree) BeginInlineTable(name string) {
	d.stack = append(d.stack, d.cursor)
	d.descend(name)
}

// EndInlineTable pops the cursor saved by the matching BeginInlineTable.
func (d *DocumentTree) EndInlineTable() {
	n := len(d.stack)
	d.cursor = d.stack[n-1]
	d.stack = d.stack[:n-1]
}

// AppendArrayElement resets the cursor to the root, walks path's dotted
// segments like EnterTable for all but the last, and at the last segment
// appends a fresh empty table to the array-of-tables stored there
// (creating it if this is the first element) before descending into that
// new element.
func (d *DocumentTree) AppendArrayElement(path string) {
	d.cursor = d.root
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		real := UnescapeKey(seg)
		if i == len(segments)-1 {
			existing, ok := d.cursor.Get(real)
			var arr []Value
			if ok && existing.Kind == ArrayValue {
				arr = existing.Array
			}
			elem := NewTable()
			arr = append(arr, TableVal(elem))
			d.cursor.Set(real, ArrayVal(arr))
			d.cursor = elem
			return
		}
		d.descend(real)
	}
}
