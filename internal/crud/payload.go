// Package crud implements the generic resource pipeline shared by every
// REST endpoint: the uniform response envelope, the parameter validation
// helpers, and the create/list/retrieve/update/delete operations with their
// per-resource hooks.
//
// This file defines Payload, the decoded request body handed to hooks.
// Payloads are treated as immutable: server-computed values (such as the
// caller's profile id) are injected through Merge, which returns a new
// payload and leaves the original untouched.
package crud

import (
	"bytes"
	"encoding/json"

	"github.com/gin-gonic/gin"
)

// Payload is the parsed JSON body of a create or update request. Values keep
// encoding/json's dynamic types: string, float64, bool, nil, nested maps and
// slices.
type Payload map[string]any

// bindPayload decodes the request body into a Payload. An empty body yields
// an empty payload; malformed JSON is an error.
func bindPayload(c *gin.Context) (Payload, error) {
	p := Payload{}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return p, nil
	}
	if err := c.ShouldBindJSON(&p); err != nil {
		return nil, err
	}
	return p, nil
}

// Value returns the raw value for key, or nil when absent. Mirrors the
// "missing means empty" convention the validation helpers rely on.
func (p Payload) Value(key string) any {
	return p[key]
}

// Has reports whether key was present in the request body, even with a
// null or zero value.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the value for key when it is a string, else "".
func (p Payload) String(key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

// Merge returns a copy of p with extra applied on top. p is not modified.
func (p Payload) Merge(extra map[string]any) Payload {
	out := make(Payload, len(p)+len(extra))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// decodeInto materializes the payload into a typed record via a JSON
// round-trip, dropping keys the record does not declare. Server-managed
// keys are removed first so a client cannot smuggle its own primary key or
// timestamps.
func (p Payload) decodeInto(v any) error {
	clean := make(Payload, len(p))
	for k, val := range p {
		switch k {
		case "id", "created", "modified":
			continue
		}
		clean[k] = val
	}
	buf, err := json.Marshal(clean)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	return dec.Decode(v)
}
