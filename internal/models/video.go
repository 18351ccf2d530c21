package models

import (
	"encoding/json"
	"fmt"
)

// Video is a screen-recording reference in a study's video ledger.
// Fields other than name, url and timestamp are kept in Extra and
// written back verbatim.
type Video struct {
	Name      string                     `json:"name" example:"recording-1760000000000.webm"`
	URL       string                     `json:"url" example:"/samples/case-001/videos/recording-1760000000000.webm"`
	Timestamp int64                      `json:"timestamp" example:"1760000000000"`
	Extra     map[string]json.RawMessage `json:"-" swaggerignore:"true"`
}

var videoKnownFields = map[string]struct{}{
	"name":      {},
	"url":       {},
	"timestamp": {},
}

// MarshalJSON flattens Extra next to the known fields
func (v Video) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.Extra)+3)
	for k, raw := range v.Extra {
		if _, known := videoKnownFields[k]; known {
			continue
		}
		out[k] = raw
	}
	out["name"] = v.Name
	out["url"] = v.URL
	if v.Timestamp != 0 {
		out["timestamp"] = v.Timestamp
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the known fields and collects everything else into Extra
func (v *Video) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding video reference: %w", err)
	}

	*v = Video{}
	if b, ok := raw["name"]; ok {
		if err := json.Unmarshal(b, &v.Name); err != nil {
			return fmt.Errorf("decoding video name: %w", err)
		}
	}
	if b, ok := raw["url"]; ok {
		if err := json.Unmarshal(b, &v.URL); err != nil {
			return fmt.Errorf("decoding video url: %w", err)
		}
	}
	if b, ok := raw["timestamp"]; ok && string(b) != "null" {
		var ts float64
		if err := json.Unmarshal(b, &ts); err != nil {
			return fmt.Errorf("decoding video timestamp: %w", err)
		}
		v.Timestamp = int64(ts)
	}

	for k, b := range raw {
		if _, known := videoKnownFields[k]; known {
			continue
		}
		if v.Extra == nil {
			v.Extra = make(map[string]json.RawMessage)
		}
		v.Extra[k] = b
	}
	return nil
}
