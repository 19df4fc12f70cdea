package helpers

import (
	"fmt"
	"strings"
)

// JSONGenerator creates malformed and hostile payloads for parser tests
type JSONGenerator struct{}

// NewJSONGenerator creates a new JSON generator
func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

// GenerateDeeplyNestedComment creates a t1 whose replies nest depth levels deep.
func (g *JSONGenerator) GenerateDeeplyNestedComment(depth int) string {
	var b strings.Builder
	for i := 0; i < depth; i++ {
		fmt.Fprintf(&b, `{"kind":"t1","data":{"id":"c%d","body":"depth %d","author":"testuser","replies":{"kind":"Listing","data":{"children":[`, i, i)
	}
	fmt.Fprintf(&b, `{"kind":"t1","data":{"id":"c%d","body":"leaf","author":"testuser","replies":""}}`, depth)
	for i := 0; i < depth; i++ {
		b.WriteString(`]}}}}`)
	}
	return b.String()
}

// GenerateMalformedThings creates various malformed Thing objects
func (g *JSONGenerator) GenerateMalformedThings() []string {
	return []string{
		// Missing kind
		`{"data": {"id": "test123"}}`,

		// Missing data
		`{"kind": "t1"}`,

		// Null data
		`{"kind": "t3", "data": null}`,

		// Data as a string
		`{"kind": "t1", "data": "invalid"}`,

		// Data as an array
		`{"kind": "t3", "data": [1, 2, 3]}`,

		// Wrong field types
		`{"kind": "t3", "data": {"score": "high", "title": 42}}`,

		// Replies of the wrong shape
		`{"kind": "t1", "data": {"id": "x", "replies": 12}}`,
		`{"kind": "t1", "data": {"id": "x", "replies": {"kind": "Listing", "data": "bad"}}}`,

		// Unknown kind
		`{"kind": "t9", "data": {}}`,

		// Invalid JSON
		`{"kind": "t1", "data": {`,
	}
}

// GenerateMalformedEditedField creates payloads with odd "edited" values
func (g *JSONGenerator) GenerateMalformedEditedField() []string {
	return []string{
		`{"edited": "not_a_number"}`,
		`{"edited": -1}`,
		`{"edited": 999999999999999}`,
		`{"edited": null}`,
		`{"edited": [1234567890]}`,
		`{"edited": {"timestamp": 1234567890}}`,
	}
}

// GenerateMalformedListing creates various malformed Listing objects
func (g *JSONGenerator) GenerateMalformedListing() []string {
	return []string{
		// Empty children array
		`{"kind": "Listing", "data": {"children": []}}`,

		// Null children
		`{"kind": "Listing", "data": {"children": null}}`,

		// Children as object instead of array
		`{"kind": "Listing", "data": {"children": {"test": "invalid"}}}`,

		// Children as string
		`{"kind": "Listing", "data": {"children": "invalid"}}`,

		// Missing children field
		`{"kind": "Listing", "data": {}}`,

		// Null entries among children
		`{"kind": "Listing", "data": {"children": [null, {"kind": "t3", "data": {"id": "post"}}, null]}}`,

		// Invalid pagination values
		`{"kind": "Listing", "data": {"children": [], "after": 12345, "before": true}}`,
	}
}

// GenerateMalformedCommentsResponses creates bodies for the comments endpoint
func (g *JSONGenerator) GenerateMalformedCommentsResponses() []string {
	return []string{
		``,
		`   `,
		`null`,
		`"string"`,
		`[]`,
		`[null]`,
		`[{}, {}]`,
		`[{"kind": "Listing", "data": {"children": []}}, null]`,
		`[{"kind": "Listing", "data": "bad"}, {"kind": "Listing", "data": "bad"}]`,
		`{"kind": "t3", "data": {}}`,
		`{"error": 403, "message": "Forbidden"}`,
		`[{"kind": "Listing"`,
	}
}

// GenerateMalformedMoreChildren creates malformed MoreChildren responses
func (g *JSONGenerator) GenerateMalformedMoreChildren() []string {
	return []string{
		// Missing json.data.things
		`{"json": {"errors": [], "data": {}}}`,

		// things as null
		`{"json": {"errors": [], "data": {"things": null}}}`,

		// things as string
		`{"json": {"errors": [], "data": {"things": "invalid"}}}`,

		// errors as object instead of array
		`{"json": {"errors": {}, "data": {"things": []}}}`,

		// Empty error tuple
		`{"json": {"errors": [[]], "data": {"things": []}}}`,

		// Missing json field
		`{"errors": [], "data": {"things": []}}`,

		// Null json
		`{"json": null}`,

		// Array instead of object
		`[]`,

		// Things of unexpected kinds
		`{"json": {"errors": [], "data": {"things": [null, {"kind": "t3", "data": {}}, {"kind": "more", "data": "bad"}]}}}`,
	}
}

// GenerateLargeArray creates a listing with size minimal post children
func (g *JSONGenerator) GenerateLargeArray(size int) string {
	items := make([]string, size)
	for i := range items {
		items[i] = fmt.Sprintf(`{"kind":"t3","data":{"id":"p%d","name":"t3_p%d"}}`, i, i)
	}
	return `{"kind":"Listing","data":{"children":[` + strings.Join(items, ",") + `]}}`
}

// GenerateHostileURLs creates strings that look almost like media links
func (g *JSONGenerator) GenerateHostileURLs() []string {
	return []string{
		"",
		" ",
		"://",
		"streamable.com",
		"https://streamable.com/",
		"https://imgur.com/a/",
		"https://www.redgifs.com/watch/",
		"https://evil.example/?u=" + strings.Repeat("%", 512),
		"https://" + strings.Repeat("a", 64<<10) + ".com/x.jpg",
		"https://imgur.com/" + strings.Repeat("/", 1024),
		"javascript:alert(1)",
		"https://streamable.com/\x00abc",
		"‮https://streamable.com/abcd",
	}
}
