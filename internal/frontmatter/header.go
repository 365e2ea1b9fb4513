// Package frontmatter parses the restricted header block at the top of a
// corpus document.
//
// The accepted subset is deliberately small:
//
//	---
//	key: value           top-level scalar
//	key:                 opens a list under key
//	  - value            scalar list item
//	  - field: value     starts a record item
//	      field: value   extends the record (indent >= 4)
//	---
//
// Parsing never fails. Anything outside the subset is ignored and a
// document without a well-formed block has an empty header.
package frontmatter

// Field is one key/value pair of a record item.
type Field struct {
	Key   string
	Value string
}

// Record is an ordered set of fields. Later fields with the same key
// replace earlier ones in place.
type Record []Field

// Get returns the value for key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func (r Record) with(key, value string) Record {
	for i := range r {
		if r[i].Key == key {
			r[i].Value = value
			return r
		}
	}
	return append(r, Field{Key: key, Value: value})
}

// Map returns the record as a plain map.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r))
	for _, f := range r {
		m[f.Key] = f.Value
	}
	return m
}

// Item is a list element: a scalar or a record.
type Item struct {
	Scalar string
	Record Record
}

// IsRecord reports whether the item is a record.
func (i Item) IsRecord() bool {
	return i.Record != nil
}

// Value is what a top-level key maps to: a scalar or a list.
type Value struct {
	Scalar string
	Items  []Item
	IsList bool
}

// Header is an ordered mapping from top-level keys to values.
type Header struct {
	keys   []string
	values map[string]Value
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{values: make(map[string]Value)}
}

// Len returns the number of keys.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.keys)
}

// Keys returns the keys in first-appearance order.
func (h *Header) Keys() []string {
	if h == nil {
		return nil
	}
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Get returns the value stored under key.
func (h *Header) Get(key string) (Value, bool) {
	if h == nil {
		return Value{}, false
	}
	v, ok := h.values[key]
	return v, ok
}

// Scalar returns the scalar under key, or "" when the key is missing or
// holds a list.
func (h *Header) Scalar(key string) string {
	v, ok := h.Get(key)
	if !ok || v.IsList {
		return ""
	}
	return v.Scalar
}

// Items returns the list under key. A scalar is returned as a one-element
// list so that `requires: other.md` behaves like a list of one.
func (h *Header) Items(key string) []Item {
	v, ok := h.Get(key)
	if !ok {
		return nil
	}
	if !v.IsList {
		if v.Scalar == "" {
			return nil
		}
		return []Item{{Scalar: v.Scalar}}
	}
	return v.Items
}

// Strings returns the scalar items under key, skipping records.
func (h *Header) Strings(key string) []string {
	var out []string
	for _, it := range h.Items(key) {
		if !it.IsRecord() && it.Scalar != "" {
			out = append(out, it.Scalar)
		}
	}
	return out
}

// Map converts the header to plain values: scalars become strings, lists
// become []interface{} holding strings and map[string]string.
func (h *Header) Map() map[string]interface{} {
	m := make(map[string]interface{}, h.Len())
	for _, k := range h.Keys() {
		v := h.values[k]
		if !v.IsList {
			m[k] = v.Scalar
			continue
		}
		list := make([]interface{}, 0, len(v.Items))
		for _, it := range v.Items {
			if it.IsRecord() {
				list = append(list, it.Record.Map())
			} else {
				list = append(list, it.Scalar)
			}
		}
		m[k] = list
	}
	return m
}

// set stores v under key. A repeated key keeps its first position.
func (h *Header) set(key string, v Value) {
	if _, exists := h.values[key]; !exists {
		h.keys = append(h.keys, key)
	}
	h.values[key] = v
}

func (h *Header) appendItem(key string, it Item) int {
	v := h.values[key]
	v.Items = append(v.Items, it)
	h.values[key] = v
	return len(v.Items) - 1
}

func (h *Header) extendRecord(key string, idx int, field, value string) {
	v := h.values[key]
	if idx < 0 || idx >= len(v.Items) {
		return
	}
	v.Items[idx].Record = v.Items[idx].Record.with(field, value)
	h.values[key] = v
}
