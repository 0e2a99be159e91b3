package intent

import (
	"errors"
	"strings"
)

// Result is the resolved intent label and its canned response.
type Result struct {
	Intent   string
	Response string
}

// Classifier maps free-text messages onto a Taxonomy. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	taxonomy *Taxonomy
}

func NewClassifier(t *Taxonomy) (*Classifier, error) {
	if t == nil {
		return nil, errors.New("intent: taxonomy must not be nil")
	}
	return &Classifier{taxonomy: t}, nil
}

// Classify always returns a result; messages that match nothing resolve to DefaultLabel.
func (c *Classifier) Classify(message string) Result {
	normalized := strings.ToLower(message)

	greeting := c.taxonomy.greeting
	if score(normalized, greeting.Keywords) > 0 {
		return Result{Intent: greeting.Label, Response: greeting.Response}
	}

	// Strict > keeps the earliest declared intent on ties.
	best, bestScore := -1, 0
	for i, def := range c.taxonomy.intents {
		if s := score(normalized, def.Keywords); s > bestScore {
			best, bestScore = i, s
		}
	}
	if bestScore == 0 {
		return Result{Intent: DefaultLabel, Response: c.taxonomy.defaultResponse}
	}
	def := c.taxonomy.intents[best]
	return Result{Intent: def.Label, Response: def.Response}
}

// score counts the keywords contained in an already-lowercased message.
func score(normalized string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			n++
		}
	}
	return n
}
