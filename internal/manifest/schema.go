package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema.json
var schemaJSON string

// SchemaError reports a manifest body that parsed as JSON but does not have
// the required shape. Problems name the offending field paths so an operator
// can see exactly what the server returned wrong.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "manifest schema: " + strings.Join(e.Problems, "; ")
}

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse embedded manifest schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("release-manifest.schema.json", doc); err != nil {
		return nil, fmt.Errorf("register manifest schema: %w", err)
	}
	return c.Compile("release-manifest.schema.json")
})

// ValidateShape checks a decoded JSON document against the manifest schema.
// This runs strictly before any signature work so a malformed body yields a
// schema error, never a probe of the verification code paths. doc must come
// from jsonschema.UnmarshalJSON (or an equivalent generic decode).
func ValidateShape(doc any) error {
	sch, err := compileSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &SchemaError{Problems: collectProblems(verr)}
		}
		return err
	}
	return nil
}

var schemaPrinter = message.NewPrinter(language.English)

// collectProblems flattens the validation error tree into leaf messages,
// each prefixed with the instance path of the offending field.
func collectProblems(verr *jsonschema.ValidationError) []string {
	var problems []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := "/" + strings.Join(e.InstanceLocation, "/")
			if loc == "/" {
				loc = "(document root)"
			}
			problems = append(problems, fmt.Sprintf("%s: %s", loc, e.ErrorKind.LocalizedString(schemaPrinter)))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	return problems
}
