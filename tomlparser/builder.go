package tomlparser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var unquotedKeyRe = regexp.MustCompile(`^[-A-Za-z_0-9]+$`)

// IsUnquotedKey reports whether name can be written as a bare (unquoted)
// TOML key, i.e. it matches `[-A-Za-z_0-9]+` with nothing left over.
func IsUnquotedKey(name string) bool {
	return unquotedKeyRe.MatchString(name)
}

// Builder incrementally emits TOML text while consulting an owned
// KeyRegistry, so the rules it enforces (duplicates, hierarchy, homogeneity)
// are exactly the ones Parser enforces on the way in. Every mutator returns
// the Builder itself for chaining; the first error encountered is latched
// and every later call becomes a no-op, surfaced by Build.
type Builder struct {
	indent   int
	buf      strings.Builder
	lines    int
	lastKey  string
	registry *KeyRegistry
	err      error
}

// NewBuilder returns an empty Builder. indent configures the spacing
// convention future pretty-printing of this builder's output may use;
// 0 disables it. The flat, single-level-indent layout this core emits
// (matching the scenarios in spec.md section 8) does not itself vary with
// indent, but the value is retained so host formatting layers can consult
// it.
func NewBuilder(indent int) *Builder {
	return &Builder{indent: indent, registry: NewKeyRegistry()}
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) writeRaw(s string) {
	b.buf.WriteString(s)
}

func (b *Builder) writeLine(s string) {
	b.buf.WriteString(s)
	b.buf.WriteByte('\n')
	b.lines++
}

// AddValue appends "name = dumped-value" (plus an optional trailing
// comment) to the output. comment may be "" to omit it.
func (b *Builder) AddValue(name string, v Value, comment string) *Builder {
	if b.err != nil {
		return b
	}
	b.lastKey = name
	if strings.TrimSpace(name) == "" {
		b.fail(newError(EmptyKey, 0, "value key is empty"))
		return b
	}
	if err := validateSupportedValue(v); err != nil {
		b.fail(err)
		return b
	}
	if !b.registry.IsValidKey(name) {
		b.fail(newError(DuplicateKey, 0, "key %q is already defined", name))
		return b
	}
	dumped, err := dumpValue(v)
	if err != nil {
		b.fail(err)
		return b
	}
	b.registry.AddKey(name)

	keyText := name
	if !unquotedKeyRe.MatchString(name) {
		keyText = fmt.Sprintf("%q", name)
	}
	line := keyText + " = " + dumped
	if comment != "" {
		line += " # " + comment
	}
	b.writeLine(line)
	return b
}

// splitValidatedPath rejects an empty path with EMPTY_KEY, and any segment
// that is empty or fails the unquoted-key regex with UNQUOTED_KEY_REQUIRED --
// the builder never quotes table/array-of-tables path segments on the
// caller's behalf.
func splitValidatedPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return newError(EmptyKey, 0, "table path is empty")
	}
	for _, seg := range strings.Split(path, ".") {
		if strings.TrimSpace(seg) == "" || !unquotedKeyRe.MatchString(seg) {
			return newError(UnquotedKeyRequired, 0, "segment %q of %q must be an unquoted key", seg, path)
		}
	}
	return nil
}

// AddTable appends a "[path]" header, preceded by a blank line if anything
// has already been written.
func (b *Builder) AddTable(path string) *Builder {
	if b.err != nil {
		return b
	}
	b.lastKey = path
	if err := splitValidatedPath(path); err != nil {
		b.fail(err)
		return b
	}
	if b.registry.IsRegisteredAsArrayTableKey(path) {
		b.fail(newError(TableAlreadyDefinedAsArray, 0, "%q is already defined as an array of tables", path))
		return b
	}
	if !b.registry.IsValidTableKey(path) {
		b.fail(newError(DuplicateTableKey, 0, "table %q is already defined", path))
		return b
	}
	b.registry.AddTableKey(path)
	if b.lines > 0 {
		b.writeRaw("\n")
	}
	b.writeLine("[" + path + "]")
	return b
}

// AddArrayOfTable appends a "[[path]]" header, preceded by a blank line if
// anything has already been written.
func (b *Builder) AddArrayOfTable(path string) *Builder {
	if b.err != nil {
		return b
	}
	b.lastKey = path
	if err := splitValidatedPath(path); err != nil {
		b.fail(err)
		return b
	}
	if b.registry.IsTableImplicitFromArrayTable(path) {
		b.fail(newError(KeyDefinedAsImplicitTable, 0, "%q was already implicitly defined by a nested array of tables", path))
		return b
	}
	if !b.registry.IsValidArrayTableKey(path) {
		b.fail(newError(DuplicateArrayTableKey, 0, "array of tables %q collides with an existing key", path))
		return b
	}
	b.registry.AddArrayTableKey(path)
	if b.lines > 0 {
		b.writeRaw("\n")
	}
	b.writeLine("[[" + path + "]]")
	return b
}

// AddComment appends a standalone "# text" line.
func (b *Builder) AddComment(text string) *Builder {
	if b.err != nil {
		return b
	}
	b.writeLine("# " + text)
	return b
}

// Build returns the accumulated text, or the first error any mutator
// latched.
func (b *Builder) Build() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	return b.buf.String(), nil
}

func validateSupportedValue(v Value) error {
	switch v.Kind {
	case StringValue, IntegerValue, FloatValue, BooleanValue, DatetimeValue:
		return nil
	case ArrayValue:
		for _, elem := range v.Array {
			if err := validateSupportedValue(elem); err != nil {
				return err
			}
		}
		return nil
	default:
		return newError(UnsupportedDataType, 0, "value of kind %s is not a supported builder type", v.Kind)
	}
}

func dumpValue(v Value) (string, error) {
	switch v.Kind {
	case StringValue:
		return dumpStringValue(v.Str)
	case IntegerValue:
		return strconv.FormatInt(v.Int, 10), nil
	case FloatValue:
		return dumpFloatValue(v.Float), nil
	case BooleanValue:
		return strconv.FormatBool(v.Bool), nil
	case DatetimeValue:
		return dumpDatetimeValue(v.Datetime), nil
	case ArrayValue:
		return dumpArrayValue(v.Array)
	default:
		return "", newError(UnsupportedDataType, 0, "value of kind %s is not a supported builder type", v.Kind)
	}
}

// dumpStringValue applies the literal-string prefix convention: a leading
// '@' selects single-quoted, verbatim output and is itself stripped (so a
// literal string that must itself start with '@' is written as "@@" in the
// call). Without the prefix the string is double-quoted with the escape
// table from spec.md section 4.6; a bare backslash surviving that pass is
// rejected rather than silently emitted.
func dumpStringValue(s string) (string, error) {
	if strings.HasPrefix(s, "@") {
		return "'" + s[1:] + "'", nil
	}

	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == 'b' {
			sb.WriteString(`\b`)
			i += 2
			continue
		}
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == 'u' || s[i+1] == 'U') {
			width := 4
			if s[i+1] == 'U' {
				width = 8
			}
			if end := i + 2 + width; end <= len(s) && isHexRun(s[i+2:end]) {
				sb.WriteString(s[i:end])
				i = end
				continue
			}
		}
		switch s[i] {
		case '\\':
			return "", newError(InvalidStringCharacters, 0, "string value contains a bare backslash")
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\f':
			sb.WriteString(`\f`)
		case '\r':
			sb.WriteString(`\r`)
		case '"':
			sb.WriteString(`\"`)
		default:
			sb.WriteByte(s[i])
		}
		i++
	}
	sb.WriteByte('"')
	return sb.String(), nil
}

func isHexRun(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func dumpFloatValue(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func dumpDatetimeValue(d Datetime) string {
	return d.Time.UTC().Format("2006-01-02T15:04:05Z")
}

func dumpArrayValue(elems []Value) (string, error) {
	var leaderKind ValueKind
	parts := make([]string, 0, len(elems))
	for _, elem := range elems {
		if leaderKind == 0 {
			leaderKind = elem.Kind
		} else if elem.Kind != leaderKind {
			return "", newError(MixedArrayTypes, 0, "%s is not a %s: data types cannot be mixed", formatValueForError(elem), leaderKind)
		}
		dumped, err := dumpValue(elem)
		if err != nil {
			return "", err
		}
		parts = append(parts, dumped)
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}
