// Package intent holds the static intent taxonomy and the keyword classifier
// that resolves customer messages against it.
package intent

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// GreetingLabel is the reserved taxonomy entry checked before all others.
	GreetingLabel = "greeting"
	// DefaultLabel is returned when no taxonomy entry matches. It is never a taxonomy entry.
	DefaultLabel = "default"
)

// Definition is one taxonomy entry.
type Definition struct {
	Label    string
	Keywords []string
	Response string
}

// Taxonomy is an immutable, validated set of intent definitions.
type Taxonomy struct {
	greeting        Definition
	intents         []Definition
	defaultResponse string
}

// NewTaxonomy validates defs and returns the taxonomy they describe.
// Keywords are normalised to trimmed lowercase and de-duplicated.
func NewTaxonomy(defs []Definition, defaultResponse string) (*Taxonomy, error) {
	if strings.TrimSpace(defaultResponse) == "" {
		return nil, errors.New("intent: default response must not be empty")
	}

	t := &Taxonomy{defaultResponse: defaultResponse}
	seen := make(map[string]struct{}, len(defs))
	hasGreeting := false
	for i, def := range defs {
		label := strings.TrimSpace(def.Label)
		if label == "" {
			return nil, fmt.Errorf("intent: definition %d has an empty label", i)
		}
		if label == DefaultLabel {
			return nil, fmt.Errorf("intent: label %q is reserved", DefaultLabel)
		}
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("intent: duplicate label %q", label)
		}
		seen[label] = struct{}{}

		keywords := normalizeKeywords(def.Keywords)
		if len(keywords) == 0 {
			return nil, fmt.Errorf("intent: %q has no keywords", label)
		}
		if strings.TrimSpace(def.Response) == "" {
			return nil, fmt.Errorf("intent: %q has an empty response", label)
		}

		normalized := Definition{Label: label, Keywords: keywords, Response: def.Response}
		if label == GreetingLabel {
			t.greeting = normalized
			hasGreeting = true
			continue
		}
		t.intents = append(t.intents, normalized)
	}
	if !hasGreeting {
		return nil, fmt.Errorf("intent: taxonomy must contain a %q entry", GreetingLabel)
	}
	return t, nil
}

// Definitions returns a copy of every entry, greeting first, then declaration order.
func (t *Taxonomy) Definitions() []Definition {
	out := make([]Definition, 0, len(t.intents)+1)
	out = append(out, copyDefinition(t.greeting))
	for _, def := range t.intents {
		out = append(out, copyDefinition(def))
	}
	return out
}

// DefaultResponse is the fallback text returned with DefaultLabel.
func (t *Taxonomy) DefaultResponse() string {
	return t.defaultResponse
}

func copyDefinition(def Definition) Definition {
	def.Keywords = append([]string(nil), def.Keywords...)
	return def
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
