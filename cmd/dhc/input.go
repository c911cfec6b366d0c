package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jiaofangliang/datahub/internal/model"
)

// readInput reads the named file, or stdin when name is "-".
func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// parseSchema decodes a schema definition document. "null" clears the schema.
func parseSchema(data []byte) (*model.SchemaDefinition, error) {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil, nil
	}
	var sd model.SchemaDefinition
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("invalid schema document: %w", err)
	}
	return &sd, nil
}

// parseAnnotations accepts either a bare JSON array of annotations or an
// object with an "annotations" key, as printed by "dhc compliance show --json".
func parseAnnotations(data []byte) ([]model.FieldAnnotation, error) {
	data = bytes.TrimSpace(data)
	var anns []model.FieldAnnotation
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &anns); err != nil {
			return nil, fmt.Errorf("invalid annotations: %w", err)
		}
		return anns, nil
	}
	var doc struct {
		Annotations []model.FieldAnnotation `json:"annotations"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid annotations document: %w", err)
	}
	if doc.Annotations == nil {
		return nil, fmt.Errorf("annotations document has no \"annotations\" array")
	}
	return doc.Annotations, nil
}
