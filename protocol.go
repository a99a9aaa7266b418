package gameanalytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gowebpki/jcs"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Tap30/gameanalytics-go/adapters"
)

// Protocol fixes the wire rules of one collector API version: how an event
// is enveloped, how the envelope is signed, and which responses are valid.
type Protocol interface {
	Version() int
	DefaultSigner() Signer
	EncodeEnvelope(record EventRecord) ([]byte, error)
	Sign(signer Signer, secretKey string, body []byte) (string, error)
	// ValidateResponse returns the decoded response object, or nil for an
	// empty body on routes that allow one.
	ValidateResponse(route Route, body []byte) (map[string]any, error)
}

const initResponseSchema = `{
  "type": "object",
  "properties": {
    "enabled": {"type": "boolean"},
    "server_ts": {"type": "number"}
  },
  "if": {
    "properties": {"enabled": {"const": true}},
    "required": ["enabled"]
  },
  "then": {"required": ["server_ts"]}
}`

const eventsResponseSchema = `{
  "type": "object",
  "properties": {
    "status": {"const": "ok"}
  },
  "not": {
    "anyOf": [
      {"required": ["error"]},
      {"required": ["errors"]}
    ]
  }
}`

var (
	initResponse   = mustCompileSchema("init_response", initResponseSchema)
	eventsResponse = mustCompileSchema("events_response", eventsResponseSchema)
)

func mustCompileSchema(name, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := fmt.Sprintf("https://gameanalytics.schemas.local/v2/%s.schema.json", name)
	if err := c.AddResource(schemaURL, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("%s schema load failed: %v", name, err))
	}
	return c.MustCompile(schemaURL)
}

// ProtocolV2 is the REST API v2 protocol: one event per request, wrapped in
// a canonical JSON array and signed with HMAC-SHA-256.
type ProtocolV2 struct{}

var _ Protocol = ProtocolV2{}

func NewProtocolV2() ProtocolV2 {
	return ProtocolV2{}
}

func (ProtocolV2) Version() int { return 2 }

func (ProtocolV2) DefaultSigner() Signer {
	return adapters.HMACSHA256Signer{}
}

// EncodeEnvelope serializes record as a one-element array in RFC 8785 form.
func (ProtocolV2) EncodeEnvelope(record EventRecord) ([]byte, error) {
	fields := record.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	raw, err := json.Marshal([]map[string]any{fields})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize envelope: %w", err)
	}
	return canonical, nil
}

func (ProtocolV2) Sign(signer Signer, secretKey string, body []byte) (string, error) {
	token, err := signer.Sign(secretKey, body)
	if err != nil {
		return "", &SigningError{Err: err}
	}
	return token, nil
}

func (ProtocolV2) ValidateResponse(route Route, body []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(body)

	var schema *jsonschema.Schema
	switch route {
	case RouteInit:
		if len(trimmed) == 0 {
			return nil, &ProtocolError{Route: route, Reason: "empty body"}
		}
		schema = initResponse
	case RouteEvents:
		if len(trimmed) == 0 {
			return nil, nil
		}
		schema = eventsResponse
	default:
		return nil, &ProtocolError{Route: route, Reason: "unknown route"}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ProtocolError{Route: route, Reason: "malformed JSON", Err: err}
	}
	if dec.More() {
		return nil, &ProtocolError{Route: route, Reason: "trailing data after JSON value"}
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &ProtocolError{Route: route, Reason: "schema mismatch", Err: err}
	}

	fields, _ := doc.(map[string]any)
	return fields, nil
}
