package frontmatter

import (
	"strings"
)

// Marker opens and closes a header block.
const Marker = "---"

// RecordIndent is the minimum indentation of a record continuation line.
const RecordIndent = 4

type state int

const (
	stateTopLevel     state = iota // no open list
	stateInList                    // list open, last item was a scalar (or none yet)
	stateInListRecord              // list open, last item is a record that may be extended
)

func (s state) String() string {
	switch s {
	case stateTopLevel:
		return "top-level"
	case stateInList:
		return "in-list"
	case stateInListRecord:
		return "in-list-record"
	default:
		return "unknown"
	}
}

// cursor tracks the list being filled and how many items it holds.
type cursor struct {
	key   string
	items int
}

type opKind int

const (
	opNone opKind = iota
	opSetScalar
	opOpenList
	opAppendScalar
	opStartRecord
	opExtendRecord
)

// op is the header mutation produced by one transition.
type op struct {
	kind  opKind
	key   string
	field string
	value string
}

// line is one header line with its indentation measured.
type line struct {
	indent int
	text   string // trimmed on both sides
}

func splitLine(raw string) line {
	trimmedRight := strings.TrimRight(raw, " \t\r")
	text := strings.TrimLeft(trimmedRight, " \t")
	return line{indent: len(trimmedRight) - len(text), text: text}
}

// transition is the parser's state machine. It is a pure function of the
// current state, the cursor and the line; the returned op is applied to
// the header by the caller.
func transition(s state, c cursor, l line) (state, cursor, op) {
	if l.text == "" || strings.HasPrefix(l.text, "#") {
		return s, c, op{}
	}

	if rest, ok := strings.CutPrefix(l.text, "- "); ok {
		if s == stateTopLevel {
			// list item with no list open
			return s, c, op{}
		}
		if field, value, ok := recordStart(rest); ok {
			next := cursor{key: c.key, items: c.items + 1}
			return stateInListRecord, next, op{kind: opStartRecord, key: c.key, field: field, value: value}
		}
		next := cursor{key: c.key, items: c.items + 1}
		return stateInList, next, op{kind: opAppendScalar, key: c.key, value: strings.TrimSpace(rest)}
	}

	if l.indent >= RecordIndent && s == stateInListRecord {
		if field, value, ok := strings.Cut(l.text, ":"); ok {
			field = strings.TrimSpace(field)
			if field != "" {
				return s, c, op{kind: opExtendRecord, key: c.key, field: field, value: strings.TrimSpace(value)}
			}
		}
		return s, c, op{}
	}

	if l.indent == 0 {
		key, value, ok := strings.Cut(l.text, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return s, c, op{}
		}
		value = strings.TrimSpace(value)
		if value != "" {
			return stateTopLevel, cursor{}, op{kind: opSetScalar, key: key, value: value}
		}
		return stateInList, cursor{key: key}, op{kind: opOpenList, key: key}
	}

	return s, c, op{}
}

// recordStart recognises "field: value" at the start of a list item. The
// field must look like an identifier and the colon must be followed by a
// space or the end of the item, so "s3://bucket/x" stays a scalar.
func recordStart(item string) (field, value string, ok bool) {
	i := 0
	for i < len(item) && isFieldByte(item[i], i == 0) {
		i++
	}
	if i == 0 || i >= len(item) || item[i] != ':' {
		return "", "", false
	}
	after := item[i+1:]
	if after != "" && after[0] != ' ' && after[0] != '\t' {
		return "", "", false
	}
	return item[:i], strings.TrimSpace(after), true
}

func isFieldByte(b byte, first bool) bool {
	switch {
	case b == '_', b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return true
	case first:
		return false
	case b >= '0' && b <= '9', b == '-', b == '.':
		return true
	}
	return false
}

func (h *Header) apply(o op, c cursor) {
	switch o.kind {
	case opSetScalar:
		h.set(o.key, Value{Scalar: o.value})
	case opOpenList:
		h.set(o.key, Value{IsList: true, Items: []Item{}})
	case opAppendScalar:
		h.appendItem(o.key, Item{Scalar: o.value})
	case opStartRecord:
		h.appendItem(o.key, Item{Record: Record{{Key: o.field, Value: o.value}}})
	case opExtendRecord:
		h.extendRecord(o.key, c.items-1, o.field, o.value)
	}
}

// Parse interprets the lines between the markers. It never fails.
func Parse(block string) *Header {
	h := NewHeader()
	s, c := stateTopLevel, cursor{}
	for _, raw := range strings.Split(block, "\n") {
		var o op
		s, c, o = transition(s, c, splitLine(raw))
		h.apply(o, c)
	}
	return h
}

// cut locates the header block. ok is false when the text does not start
// with a marker line or no closing marker line follows.
func cut(content string) (block, body string, ok bool) {
	content = strings.TrimPrefix(content, "\ufeff")

	nl := strings.IndexByte(content, '\n')
	if nl < 0 || strings.TrimRight(content[:nl], " \t\r") != Marker {
		return "", "", false
	}

	start := nl + 1
	pos := start
	for pos <= len(content) {
		end := strings.IndexByte(content[pos:], '\n')
		var text string
		next := len(content) + 1
		if end < 0 {
			text = content[pos:]
		} else {
			text = content[pos : pos+end]
			next = pos + end + 1
		}
		if strings.TrimRight(text, " \t\r") == Marker {
			if next > len(content) {
				return content[start:pos], "", true
			}
			return content[start:pos], content[next:], true
		}
		pos = next
	}
	return "", "", false
}

// Split separates a document into its header and body. Without a
// well-formed block the header is empty and the body is the whole text.
func Split(content string) (*Header, string) {
	block, body, ok := cut(content)
	if !ok {
		return NewHeader(), content
	}
	return Parse(block), body
}

// Strip returns the body of a document with any header block removed.
func Strip(content string) string {
	_, body, ok := cut(content)
	if !ok {
		return content
	}
	return body
}
