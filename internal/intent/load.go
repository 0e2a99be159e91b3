package intent

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

// Getter fetches a named parameter value, e.g. from SSM Parameter Store.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type taxonomyDocument struct {
	DefaultResponse string          `yaml:"default_response"`
	Intents         []intentElement `yaml:"intents"`
}

type intentElement struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
	Response string   `yaml:"response"`
}

// Parse decodes a YAML taxonomy document. Unknown fields are rejected.
func Parse(data []byte) (*Taxonomy, error) {
	var doc taxonomyDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("intent: parse taxonomy: %w", err)
	}

	defs := make([]Definition, 0, len(doc.Intents))
	for _, el := range doc.Intents {
		defs = append(defs, Definition{
			Label:    el.Label,
			Keywords: el.Keywords,
			Response: strings.TrimRight(el.Response, "\n"),
		})
	}
	return NewTaxonomy(defs, strings.TrimRight(doc.DefaultResponse, "\n"))
}

// Default returns the taxonomy compiled into the binary.
func Default() (*Taxonomy, error) {
	return Parse(defaultTaxonomyYAML)
}

// LoadFile reads a YAML taxonomy from disk.
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("intent: read taxonomy file: %w", err)
	}
	return Parse(data)
}

// LoadParameter reads a YAML taxonomy stored as a single parameter value.
func LoadParameter(ctx context.Context, g Getter, name string) (*Taxonomy, error) {
	if g == nil {
		return nil, errors.New("intent: parameter getter must not be nil")
	}
	raw, err := g.GetParameter(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("intent: load taxonomy parameter: %w", err)
	}
	return Parse([]byte(raw))
}

// Marshal encodes t in the document format accepted by Parse.
func Marshal(t *Taxonomy) ([]byte, error) {
	if t == nil {
		return nil, errors.New("intent: taxonomy must not be nil")
	}
	doc := taxonomyDocument{DefaultResponse: t.defaultResponse}
	for _, def := range t.Definitions() {
		doc.Intents = append(doc.Intents, intentElement{
			Label:    def.Label,
			Keywords: def.Keywords,
			Response: def.Response,
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("intent: encode taxonomy: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("intent: encode taxonomy: %w", err)
	}
	return buf.Bytes(), nil
}
