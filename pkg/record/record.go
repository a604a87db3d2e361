// Package record defines the ServiceNOW table API data model: records and
// the pages that carry them.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field names used by the built-in relationship queries.
const (
	FieldChild          = "child"
	FieldHardwareStatus = "child.hardware_status"
	FieldVirtual        = "child.virtual"
)

// Record is one table row with flattened dotted field names
// (e.g. "child.hardware_status"). Values are strings or nil.
type Record map[string]any

// String returns the field value as a string.
// Missing fields and JSON nulls yield "".
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Page is the record set returned by a single table API call.
type Page struct {
	// Result holds the records in server order. Nil when the body carried no
	// "result" member.
	Result []Record `json:"result"`

	// Body is the raw response body.
	Body []byte `json:"-"`

	// Raw is true when a successful response body could not be decoded as a
	// JSON object. Body then carries the raw text.
	Raw bool `json:"-"`
}

// Len returns the number of records on the page.
func (p *Page) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Result)
}

// Empty reports whether the page has no records: a nil page, a raw page,
// a missing result and an empty result are all empty.
func (p *Page) Empty() bool {
	return p == nil || p.Raw || len(p.Result) == 0
}

// Text returns the raw response body as a string.
func (p *Page) Text() string {
	if p == nil {
		return ""
	}
	return string(p.Body)
}

// WithResult returns a new page carrying records and no body.
// The result is never nil.
func WithResult(records []Record) *Page {
	if records == nil {
		records = []Record{}
	}
	return &Page{Result: records}
}

// Decode decodes a successful response body into a page.
// A body that is not a JSON object is not an error: the raw page is returned.
func Decode(body []byte) *Page {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return &Page{Body: body, Raw: true}
	}

	var page Page
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return &Page{Body: body, Raw: true}
	}
	page.Body = body
	return &page
}
