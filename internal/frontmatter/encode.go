package frontmatter

import (
	"strings"
)

// Encode serializes h into a header block, markers included. Parsing the
// result yields an equivalent header.
func Encode(h *Header) string {
	var sb strings.Builder
	sb.WriteString(Marker)
	sb.WriteByte('\n')
	for _, key := range h.Keys() {
		v := h.values[key]
		if !v.IsList {
			sb.WriteString(key)
			sb.WriteString(": ")
			sb.WriteString(v.Scalar)
			sb.WriteByte('\n')
			continue
		}
		sb.WriteString(key)
		sb.WriteString(":\n")
		for _, it := range v.Items {
			if !it.IsRecord() {
				sb.WriteString("  - ")
				sb.WriteString(it.Scalar)
				sb.WriteByte('\n')
				continue
			}
			for i, f := range it.Record {
				if i == 0 {
					sb.WriteString("  - ")
				} else {
					sb.WriteString(strings.Repeat(" ", RecordIndent+2))
				}
				sb.WriteString(f.Key)
				sb.WriteByte(':')
				if f.Value != "" {
					sb.WriteByte(' ')
					sb.WriteString(f.Value)
				}
				sb.WriteByte('\n')
			}
		}
	}
	sb.WriteString(Marker)
	sb.WriteByte('\n')
	return sb.String()
}

// Compose prefixes body with the encoded header.
func Compose(h *Header, body string) string {
	return Encode(h) + body
}
