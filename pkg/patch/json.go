package patch

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

var (
	documentSchemaLoader     gojsonschema.JSONLoader
	documentSchemaLoaderOnce sync.Once
)

// DocumentSchema returns the JSON schema that DecodeJSON enforces.
func DocumentSchema() map[string]any {
	lines := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"file", "hunks"},
		"properties": map[string]any{
			"file": map[string]any{"type": "string", "minLength": 1},
			"hunks": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"oldLine", "oldLines", "newLines"},
					"properties": map[string]any{
						"oldLine":  map[string]any{"type": "integer", "minimum": 0},
						"oldLines": lines,
						"newLines": lines,
					},
				},
			},
		},
	}
}

// EncodeJSON renders a document as indented JSON. Empty line lists are
// written as [] rather than null so the output satisfies DocumentSchema.
func EncodeJSON(doc Document) ([]byte, error) {
	out := Document{Path: doc.Path, Hunks: make([]UpdateHunk, 0, len(doc.Hunks))}
	for _, h := range doc.Hunks {
		out.Hunks = append(out.Hunks, UpdateHunk{
			OldLine:  h.OldLine,
			OldLines: nonNil(h.OldLines),
			NewLines: nonNil(h.NewLines),
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("patch: encode document: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeJSON validates raw against DocumentSchema and decodes it. Schema
// violations come back as an INVALID_DOCUMENT error listing every issue.
func DecodeJSON(raw []byte) (Document, error) {
	documentSchemaLoaderOnce.Do(func() {
		documentSchemaLoader = gojsonschema.NewGoLoader(DocumentSchema())
	})

	result, err := gojsonschema.Validate(documentSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Document{}, &Error{Code: CodeInvalidDocument, Message: "updates document is not valid JSON", Diagnostic: err.Error()}
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return Document{}, &Error{
			Code:       CodeInvalidDocument,
			Message:    "updates document failed schema validation",
			Diagnostic: strings.Join(issues, "\n"),
		}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, &Error{Code: CodeInvalidDocument, Message: "updates document could not be decoded", Diagnostic: err.Error()}
	}
	for i := range doc.Hunks {
		doc.Hunks[i].OldLines = nilIfEmpty(doc.Hunks[i].OldLines)
		doc.Hunks[i].NewLines = nilIfEmpty(doc.Hunks[i].NewLines)
	}
	return doc, nil
}

func nonNil(lines []string) []string {
	if lines == nil {
		return []string{}
	}
	return lines
}

func nilIfEmpty(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	return lines
}
