package graph

// Record is one API object as returned by the Graph API. The schema is not
// fixed: fields vary by API version, page capabilities and which field-set
// candidate matched, so records stay dynamic and callers pick out what they
// need through the typed accessors.
type Record map[string]any

// Str returns the value under key as a string, or "" when absent or not a
// string.
func (r Record) Str(key string) string {
	s, _ := r[key].(string)
	return s
}

// Nested returns the value under key as a Record, or nil when absent or not
// an object.
func (r Record) Nested(key string) Record {
	switch v := r[key].(type) {
	case map[string]any:
		return Record(v)
	case Record:
		return v
	default:
		return nil
	}
}

// List returns the value under key as a slice, or nil.
func (r Record) List(key string) []any {
	l, _ := r[key].([]any)
	return l
}

// paging is the cursor envelope attached to list responses. Only the absolute
// next-link matters for traversal; cursors are embedded in it.
type paging struct {
	Next string
}

// page is the envelope of a list response.
type page struct {
	Data   []Record
	Paging *paging
}

// apiError is the error object embedded in Graph API response bodies.
type apiError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	FBTraceID string `json:"fbtrace_id"`
}
