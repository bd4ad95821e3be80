package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"powerman/internal/scheme"
)

// SchemeSpec names a power plan by display name, id, or both.
//
// It decodes from a bare string (a display name) or an object:
//
//	"performance_plan": "High performance"
//	"performance_plan": {"name": "High performance", "guid": "8c5e7fda-..."}
//
// "guid" and "id" are synonyms.
type SchemeSpec struct {
	Name string `json:"name,omitempty"`
	GUID string `json:"guid,omitempty"`
	ID   string `json:"id,omitempty"`
}

func (s *SchemeSpec) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*s = SchemeSpec{Name: name}
		return nil
	}

	type plain SchemeSpec
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var p plain
	if err := dec.Decode(&p); err != nil {
		return fmt.Errorf("plan spec: %w", err)
	}
	g, i := strings.TrimSpace(p.GUID), strings.TrimSpace(p.ID)
	if g != "" && i != "" && !strings.EqualFold(g, i) {
		return fmt.Errorf("plan spec: guid %q and id %q differ", g, i)
	}
	*s = SchemeSpec(p)
	return nil
}

// Spec converts to the resolver's representation.
func (s SchemeSpec) Spec() scheme.Spec {
	id := strings.TrimSpace(s.ID)
	if id == "" {
		id = strings.TrimSpace(s.GUID)
	}
	return scheme.Spec{Name: strings.TrimSpace(s.Name), ID: id}
}

func (s SchemeSpec) IsZero() bool { return s.Spec().IsZero() }

func (s SchemeSpec) String() string { return s.Spec().String() }
