package persistence

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed tasks.schema.json
var tasksSchemaJSON []byte

const tasksSchemaURL = "https://github.com/felixgeelhaar/homework/schemas/tasks.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if err := compiler.AddResource(tasksSchemaURL, bytes.NewReader(tasksSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add tasks schema: %w", err)
	}
	schema, err := compiler.Compile(tasksSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile tasks schema: %w", err)
	}
	return schema, nil
})

// SchemaViolation locates the first schema failure in an imported document.
type SchemaViolation struct {
	Path    string
	Message string
}

func (e *SchemaViolation) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// validateDocument checks a decoded JSON document against the task schema.
func validateDocument(doc any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return firstLeaf(ve)
		}
		return err
	}
	return nil
}

func firstLeaf(err *jsonschema.ValidationError) *SchemaViolation {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	return &SchemaViolation{
		Path:    pointerToPath(err.InstanceLocation),
		Message: err.Message,
	}
}

// pointerToPath turns "/2/priority" into "[2].priority".
func pointerToPath(ptr string) string {
	if ptr == "" || ptr == "/" {
		return ""
	}
	var b strings.Builder
	for i, part := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
