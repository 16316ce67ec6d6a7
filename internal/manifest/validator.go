package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/manifest.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// ValidationResult contains the outcome of a schema validation.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is a single schema violation.
type ValidationIssue struct {
	Path    string // instance location, e.g. "/install"
	Message string
	Keyword string // failing schema keyword, e.g. "dependentRequired"
}

// ValidationError reports a manifest that parsed but violates the schema.
type ValidationError struct {
	Path   string
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		loc := is.Path
		if loc == "" {
			loc = "/"
		}
		parts = append(parts, loc+": "+is.Message)
	}
	return fmt.Sprintf("invalid manifest %s: %s", e.Path, strings.Join(parts, "; "))
}

// Is matches ErrPipWithoutVirtualenv when the schema's dependentRequired
// rule failed.
func (e *ValidationError) Is(target error) bool {
	if target != ErrPipWithoutVirtualenv {
		return false
	}
	for _, is := range e.Issues {
		if is.Keyword == "dependentRequired" {
			return true
		}
	}
	return false
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("manifest.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("manifest.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// validate checks a YAML-decoded value against the embedded schema.
func validate(raw interface{}) (*ValidationResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	jsonData, err := json.Marshal(normalizeYAML(raw))
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("unexpected validation error type: %w", err)
	}
	return &ValidationResult{Valid: false, Issues: extractIssues(ve)}, nil
}

func extractIssues(ve *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	collectValidationIssues(ve, &issues)
	if len(issues) == 0 {
		return []ValidationIssue{{Message: ve.Error()}}
	}
	return deduplicateIssues(issues)
}

func collectValidationIssues(ve *jsonschema.ValidationError, issues *[]ValidationIssue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectValidationIssues(cause, issues)
		}
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	keyword, msg := "", ""
	if ve.ErrorKind != nil {
		keyword = keywordOf(ve.ErrorKind, ve.SchemaURL)
		msg = ve.ErrorKind.LocalizedString(printer)
	}
	if keyword == "allOf" || keyword == "$ref" || keyword == "" {
		return
	}
	*issues = append(*issues, ValidationIssue{Path: path, Message: msg, Keyword: keyword})
}

// keywordOf names the schema keyword behind a leaf error. Some kinds, like
// not, report no keyword path of their own.
func keywordOf(k jsonschema.ErrorKind, schemaURL string) string {
	if kw := k.KeywordPath(); len(kw) > 0 {
		return kw[0]
	}
	switch k.(type) {
	case *kind.Not:
		return "not"
	case *kind.FalseSchema:
		return "false"
	}
	if i := strings.LastIndexAny(schemaURL, "/#"); i >= 0 && i < len(schemaURL)-1 {
		return schemaURL[i+1:]
	}
	return ""
}

func deduplicateIssues(issues []ValidationIssue) []ValidationIssue {
	seen := make(map[string]bool)
	var out []ValidationIssue
	for _, is := range issues {
		key := is.Path + "|" + is.Keyword + "|" + is.Message
		if !seen[key] {
			seen[key] = true
			out = append(out, is)
		}
	}
	return out
}

// normalizeYAML converts YAML-decoded values into JSON-encodable ones.
// Non-string map keys are rendered with fmt so they can be reported.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, v := range val {
			m[k] = normalizeYAML(v)
		}
		return m
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case []interface{}:
		a := make([]interface{}, len(val))
		for i, v := range val {
			a[i] = normalizeYAML(v)
		}
		return a
	default:
		return val
	}
}
