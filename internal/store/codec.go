package store

import (
	"encoding/json"
	"fmt"

	"go-jobradar/internal/models"
)

// Encode renders jobs the way every backend stores them: an indented JSON array,
// never null.
func Encode(jobs []models.Job) ([]byte, error) {
	if jobs == nil {
		jobs = []models.Job{}
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal jobs: %w", err)
	}
	return data, nil
}

// Decode validates and parses a stored result set.
func Decode(data []byte) ([]models.Job, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var jobs []models.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("unmarshal jobs: %w", err)
	}
	return jobs, nil
}

// ScriptWrap renders data as a script assigning it to globalVar, for pages opened
// straight from disk where fetch() is not allowed.
func ScriptWrap(globalVar string, data []byte) []byte {
	out := make([]byte, 0, len(globalVar)+len(data)+4)
	out = append(out, globalVar...)
	out = append(out, " = "...)
	out = append(out, data...)
	out = append(out, ";"...)
	return out
}
