package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBaseURL = "https://devtycoon.app/schemas/"

// Schema names.
const (
	SchemaPlayerState    = "player_state.schema.json"
	SchemaDefinitions    = "definitions.schema.json"
	SchemaActionResponse = "action_response.schema.json"
)

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		c := jsonschema.NewCompiler()
		names := []string{SchemaPlayerState, SchemaDefinitions, SchemaActionResponse}
		for _, name := range names {
			b, err := schemaFS.ReadFile("schemas/" + name)
			if err != nil {
				schemasErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			if err := c.AddResource(schemaBaseURL+name, bytes.NewReader(b)); err != nil {
				schemasErr = fmt.Errorf("add schema %s: %w", name, err)
				return
			}
		}
		out := make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			s, err := c.Compile(schemaBaseURL + name)
			if err != nil {
				schemasErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			out[name] = s
		}
		schemas = out
	})
	return schemas, schemasErr
}

// Validate checks raw JSON against one of the embedded schemas.
func Validate(schema string, raw []byte) error {
	all, err := compileSchemas()
	if err != nil {
		return err
	}
	s, ok := all[schema]
	if !ok {
		return fmt.Errorf("unknown schema %q", schema)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%s: %w", schema, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%s: %w", schema, err)
	}
	return nil
}

// DecodeState validates raw against the player state schema before
// decoding, so a snapshot with a missing field is never applied.
func DecodeState(raw []byte) (PlayerState, error) {
	var st PlayerState
	if err := Validate(SchemaPlayerState, raw); err != nil {
		return st, err
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return st, fmt.Errorf("decode player state: %w", err)
	}
	return st, nil
}

func DecodeDefinitions(raw []byte) (Definitions, error) {
	var d Definitions
	if err := Validate(SchemaDefinitions, raw); err != nil {
		return d, err
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("decode definitions: %w", err)
	}
	return d, nil
}

func DecodeActionResponse(raw []byte) (ActionResponse, error) {
	var r ActionResponse
	if err := Validate(SchemaActionResponse, raw); err != nil {
		return r, err
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("decode action response: %w", err)
	}
	return r, nil
}
