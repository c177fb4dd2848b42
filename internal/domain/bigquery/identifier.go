// Package bigquery exposes the BigQuery inspection operations backed by the
// bq command-line client: table schema lookup, routine lookup, and gated
// query execution.
package bigquery

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument is the root of all argument-shape failures: malformed
// identifiers and missing required fields.
var ErrInvalidArgument = errors.New("invalid argument")

// Identifier is a fully qualified BigQuery object reference.
type Identifier struct {
	Project string
	Dataset string
	Name    string
}

// Qualified returns the dataset-qualified object name the bq client expects
// once the project is passed separately via --project_id.
func (id Identifier) Qualified() string {
	return id.Dataset + "." + id.Name
}

// ParseIdentifier validates s as project.dataset.name: exactly three
// non-empty dot-separated segments. It never infers a default project or
// attempts partial correction.
func ParseIdentifier(s string) (Identifier, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Identifier{}, fmt.Errorf("%w: %q must be in format project.dataset.name", ErrInvalidArgument, s)
	}
	for _, part := range parts {
		if part == "" {
			return Identifier{}, fmt.Errorf("%w: %q has an empty segment, must be in format project.dataset.name", ErrInvalidArgument, s)
		}
	}
	return Identifier{Project: parts[0], Dataset: parts[1], Name: parts[2]}, nil
}
