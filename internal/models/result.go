package models

import (
	"encoding/json"
)

// Risk is the black-ice hazard level
type Risk string

const (
	RiskLow     Risk = "LOW"
	RiskMedium  Risk = "MEDIUM"
	RiskHigh    Risk = "HIGH"
	RiskUnknown Risk = "UNKNOWN"
)

// IsValid reports whether r is one of the known levels
func (r Risk) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskUnknown:
		return true
	}
	return false
}

// ClassificationResult is the response of POST /api/ai
type ClassificationResult struct {
	Risk    Risk     `json:"risk"`
	Message string   `json:"message"`
	Actions []string `json:"actions"`
	Raw     string   `json:"raw,omitempty"`
	Error   string   `json:"error,omitempty"`
	Model   string   `json:"model,omitempty"`

	// upstream holds the provider's object when it is relayed verbatim
	upstream json.RawMessage
}

// NewPassthroughResult wraps a JSON object produced by the provider.
// The object is serialised byte for byte; the typed fields are a
// best-effort decode used for logging and metrics only.
func NewPassthroughResult(object json.RawMessage) *ClassificationResult {
	result := &ClassificationResult{}
	// Fields of the wrong type are simply left zero
	_ = json.Unmarshal(object, &loose{result})
	result.upstream = append(json.RawMessage(nil), object...)
	return result
}

// IsPassthrough reports whether the result relays the provider's object
func (c *ClassificationResult) IsPassthrough() bool {
	return c.upstream != nil
}

// Upstream returns the relayed provider object, if any
func (c *ClassificationResult) Upstream() json.RawMessage {
	return c.upstream
}

// MarshalJSON relays a passthrough object as-is and always emits actions
func (c ClassificationResult) MarshalJSON() ([]byte, error) {
	if c.upstream != nil {
		return c.upstream, nil
	}
	type plain ClassificationResult
	out := plain(c)
	if out.Actions == nil {
		out.Actions = []string{}
	}
	return json.Marshal(out)
}

// loose decodes each field independently so one bad field does not
// discard the others
type loose struct {
	r *ClassificationResult
}

func (l *loose) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if v, ok := fields["risk"]; ok {
		var risk string
		if json.Unmarshal(v, &risk) == nil {
			l.r.Risk = Risk(risk)
		}
	}
	if v, ok := fields["message"]; ok {
		_ = json.Unmarshal(v, &l.r.Message)
	}
	if v, ok := fields["actions"]; ok {
		var actions []string
		if json.Unmarshal(v, &actions) == nil {
			l.r.Actions = actions
		}
	}
	return nil
}
