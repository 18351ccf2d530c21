package models

import (
	"encoding/json"
	"fmt"
)

// DefaultAuthor is used for annotations created without an explicit author
const DefaultAuthor = "User"

// Annotation is a text comment pinned to a 3D point on one model.
// Fields the viewer adds beyond the known ones are kept in Extra and
// written back verbatim.
type Annotation struct {
	ID        string                     `json:"id" example:"a1"`
	ModelID   string                     `json:"modelId" example:"molar.stl"`
	ModelName string                     `json:"modelName" example:"molar.stl"`
	Position  Vec3                       `json:"position"`
	Text      string                     `json:"text" example:"crack"`
	CreatedAt int64                      `json:"createdAt" example:"1760000000000"` // epoch millis
	Author    string                     `json:"author,omitempty" example:"User"`
	Extra     map[string]json.RawMessage `json:"-" swaggerignore:"true"`
}

// annotationFields has the Annotation layout without its JSON methods
type annotationFields Annotation

var annotationKnownFields = map[string]struct{}{
	"id":        {},
	"modelId":   {},
	"modelName": {},
	"position":  {},
	"text":      {},
	"createdAt": {},
	"author":    {},
}

// MarshalJSON flattens Extra next to the known fields
func (a Annotation) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(annotationFields(a))
	if err != nil {
		return nil, err
	}
	if len(a.Extra) == 0 {
		return known, nil
	}

	out := make(map[string]json.RawMessage, len(a.Extra)+len(annotationKnownFields))
	for k, raw := range a.Extra {
		if _, ok := annotationKnownFields[k]; ok {
			continue
		}
		out[k] = raw
	}
	if err := json.Unmarshal(known, &out); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the known fields and collects everything else into Extra
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding annotation: %w", err)
	}

	var fields annotationFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decoding annotation: %w", err)
	}
	fields.Extra = nil

	for k, b := range raw {
		if _, ok := annotationKnownFields[k]; ok {
			continue
		}
		if fields.Extra == nil {
			fields.Extra = make(map[string]json.RawMessage)
		}
		fields.Extra[k] = b
	}

	*a = Annotation(fields)
	return nil
}

// FilterByModel returns the annotations belonging to modelID, preserving order
func FilterByModel(annotations []Annotation, modelID string) []Annotation {
	out := make([]Annotation, 0)
	for _, a := range annotations {
		if a.ModelID == modelID {
			out = append(out, a)
		}
	}
	return out
}
