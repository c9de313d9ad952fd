package types

import (
	"errors"
	"fmt"
	"strings"
)

var errCompositeArity = errors.New("composite: unexpected field count")

// compositeField is one attribute of a row literal. An empty unquoted
// attribute is NULL; a quoted empty string is not.
type compositeField struct {
	Text string
	Null bool
}

func (f compositeField) ptr() *string {
	if f.Null {
		return nil
	}
	v := f.Text
	return &v
}

// encodeComposite renders a row literal. nil attributes are written as NULL.
func encodeComposite(attrs ...*string) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, attr := range attrs {
		if i > 0 {
			b.WriteByte(',')
		}
		if attr == nil {
			continue
		}
		b.WriteByte('"')
		for _, r := range *attr {
			if r == '"' || r == '\\' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		b.WriteByte('"')
	}
	b.WriteByte(')')
	return b.String()
}

// decodeComposite splits a row literal as Postgres prints it: quoted
// attributes may escape with a backslash or a doubled quote.
func decodeComposite(raw string, want int) ([]compositeField, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 2 || raw[0] != '(' || raw[len(raw)-1] != ')' {
		return nil, fmt.Errorf("composite: invalid literal %q", raw)
	}
	body := raw[1 : len(raw)-1]

	var (
		fields []compositeField
		cur    strings.Builder
		quoted bool
		inside bool
	)
	flush := func() {
		fields = append(fields, compositeField{Text: cur.String(), Null: !quoted && cur.Len() == 0})
		cur.Reset()
		quoted = false
	}
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case ch == '\\' && i+1 < len(body):
			i++
			cur.WriteByte(body[i])
		case ch == '"' && inside && i+1 < len(body) && body[i+1] == '"':
			i++
			cur.WriteByte('"')
		case ch == '"':
			inside = !inside
			quoted = true
		case ch == ',' && !inside:
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	if inside {
		return nil, fmt.Errorf("composite: unterminated quote in %q", raw)
	}
	flush()

	if want > 0 && len(fields) != want {
		return nil, fmt.Errorf("%w: got %d want %d", errCompositeArity, len(fields), want)
	}
	return fields, nil
}
