package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidConfig = errors.New("invalid config")

//go:embed schema.json
var configSchema json.RawMessage
var configSchemaLoader = gojsonschema.NewBytesLoader(configSchema)

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(configSchemaLoader)
})

// Validate checks a raw config document, as read from a config file,
// against the config schema.
func Validate(data map[string]any) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to load config schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
