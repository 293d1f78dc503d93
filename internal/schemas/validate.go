// Package schemas validates dataset and profile documents against the
// embedded JSON Schemas.
package schemas

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	schemafiles "github.com/jonathan/ghostpen/schemas"
)

// FieldError is one schema violation. Field is a dotted path into the
// document; "(root)" for the top level.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d violation(s)", e.Schema, len(e.Errors))
	for _, fe := range e.Errors {
		fmt.Fprintf(&sb, "; %s: %s", fe.Field, fe.Message)
	}
	return sb.String()
}

// SchemaLoadError is returned when a schema itself cannot be loaded or compiled.
type SchemaLoadError struct {
	Name  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Name, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error { return e.Cause }

// Schema is a compiled JSON Schema.
type Schema struct {
	name     string
	compiled *gojsonschema.Schema
}

// Compile compiles schema source. name labels errors.
func Compile(name string, source []byte) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(source))
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}
	return &Schema{name: name, compiled: compiled}, nil
}

// Validate checks doc. Malformed JSON is reported as a plain error; schema
// violations as *ValidationError.
func (s *Schema) Validate(doc []byte) error {
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%s: document is not valid JSON: %w", s.name, err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{Schema: s.name}
	for _, desc := range result.Errors() {
		verr.Errors = append(verr.Errors, FieldError{Field: desc.Field(), Message: desc.Description()})
	}
	return verr
}

var (
	embeddedMu sync.Mutex
	embedded   = map[string]*Schema{}
)

// Embedded returns the compiled embedded schema with the given file name.
// Compiled schemas are cached for the life of the process.
func Embedded(name string) (*Schema, error) {
	embeddedMu.Lock()
	defer embeddedMu.Unlock()
	if s, ok := embedded[name]; ok {
		return s, nil
	}
	source, err := schemafiles.FS.ReadFile(name)
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}
	s, err := Compile(name, source)
	if err != nil {
		return nil, err
	}
	embedded[name] = s
	return s, nil
}

func validateEmbedded(name string, doc []byte) error {
	s, err := Embedded(name)
	if err != nil {
		return err
	}
	return s.Validate(doc)
}

// ValidateDataset validates a dataset document.
func ValidateDataset(doc []byte) error {
	return validateEmbedded(schemafiles.Dataset, doc)
}

// ValidateProfiles validates a profiles file document.
func ValidateProfiles(doc []byte) error {
	return validateEmbedded(schemafiles.Profiles, doc)
}

// ValidateFile validates the JSON document at path against the embedded
// schema name.
func ValidateFile(name, path string) error {
	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return validateEmbedded(name, doc)
}
