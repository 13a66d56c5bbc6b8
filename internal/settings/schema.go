package settings

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed settings.schema.json
var schemaJSON []byte

const schemaURL = "mem://schemas/settings.schema.json"

var (
	compileOnce sync.Once
	schema      *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("decode settings schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("register settings schema: %w", err)
			return
		}
		schema, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile settings schema: %w", compileErr)
		}
	})
	return schema, compileErr
}

// Schema returns the raw JSON schema for settings documents.
func Schema() []byte {
	return schemaJSON
}

// validate checks a comment-free JSON document against the settings schema.
func validate(clean []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(clean))
	if err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(instance); err != nil {
		return fmt.Errorf("settings invalid: %w", err)
	}
	return nil
}
