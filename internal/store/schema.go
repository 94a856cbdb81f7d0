package store

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// jobsSchema is the shape every backend accepts on load: a JSON array of objects.
// Field contents are not constrained so records from older runs still load.
const jobsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {"type": "object"}
}`

var compiledJobsSchema = mustSchema(jobsSchema)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateDocument checks a persisted result set before it is decoded.
func ValidateDocument(data []byte) error {
	result, err := compiledJobsSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("decode stored jobs: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		msgs = append(msgs, field+": "+desc.Description())
	}
	return fmt.Errorf("stored jobs do not match schema: %s", strings.Join(msgs, "; "))
}
