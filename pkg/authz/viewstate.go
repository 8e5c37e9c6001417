package authz

import (
	"context"
	"strings"
)

// Capability names an object/action pair, e.g. workspace.tasks + create.
type Capability struct {
	Object string
	Action string
}

func (c Capability) Key() string {
	return strings.ToLower(c.Object + objectSeparator + NormalizeAction(c.Action))
}

// ViewState exposes the capabilities of a subject to presentation layers.
type ViewState struct {
	Subject      string          `json:"subject"`
	Domain       string          `json:"domain"`
	Capabilities map[string]bool `json:"capabilities"`
}

// Capabilities evaluates every capability for subject in domain. Evaluation errors count as denied.
func (s *Service) Capabilities(ctx context.Context, subject, domain string, caps []Capability) *ViewState {
	state := &ViewState{
		Subject:      subject,
		Domain:       domain,
		Capabilities: make(map[string]bool, len(caps)),
	}
	disabled := s.Mode() == ModeDisabled
	for _, c := range caps {
		if disabled {
			state.Capabilities[c.Key()] = true
			continue
		}
		allowed, err := s.Check(ctx, NewRequest(subject, domain, c.Object, c.Action))
		state.Capabilities[c.Key()] = err == nil && allowed
	}
	return state
}

func (v *ViewState) Capability(c Capability) bool {
	if v == nil {
		return false
	}
	return v.Capabilities[c.Key()]
}
