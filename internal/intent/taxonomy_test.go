package intent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTaxonomy_Validation(t *testing.T) {
	greeting := Definition{Label: GreetingLabel, Keywords: []string{"hi"}, Response: "hello"}
	cases := []struct {
		name     string
		defs     []Definition
		fallback string
		wantErr  string
	}{
		{name: "missing greeting", defs: []Definition{{Label: "pricing", Keywords: []string{"price"}, Response: "r"}}, fallback: "f", wantErr: "greeting"},
		{name: "duplicate label", defs: []Definition{greeting, {Label: "a", Keywords: []string{"x"}, Response: "r"}, {Label: "a", Keywords: []string{"y"}, Response: "r"}}, fallback: "f", wantErr: "duplicate"},
		{name: "duplicate greeting", defs: []Definition{greeting, greeting}, fallback: "f", wantErr: "duplicate"},
		{name: "reserved default", defs: []Definition{greeting, {Label: DefaultLabel, Keywords: []string{"x"}, Response: "r"}}, fallback: "f", wantErr: "reserved"},
		{name: "empty label", defs: []Definition{greeting, {Label: " ", Keywords: []string{"x"}, Response: "r"}}, fallback: "f", wantErr: "empty label"},
		{name: "no keywords", defs: []Definition{greeting, {Label: "a", Keywords: []string{" ", ""}, Response: "r"}}, fallback: "f", wantErr: "no keywords"},
		{name: "empty response", defs: []Definition{greeting, {Label: "a", Keywords: []string{"x"}}}, fallback: "f", wantErr: "empty response"},
		{name: "empty fallback", defs: []Definition{greeting}, fallback: "  ", wantErr: "default response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTaxonomy(tc.defs, tc.fallback)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewTaxonomy_NormalizesKeywords(t *testing.T) {
	tax, err := NewTaxonomy([]Definition{
		{Label: "pricing", Keywords: []string{" Price ", "price", "COST"}, Response: "r"},
		{Label: GreetingLabel, Keywords: []string{"Hi"}, Response: "hello"},
	}, "f")
	require.NoError(t, err)

	defs := tax.Definitions()
	require.Len(t, defs, 2)
	require.Equal(t, GreetingLabel, defs[0].Label)
	require.Equal(t, []string{"hi"}, defs[0].Keywords)
	require.Equal(t, []string{"price", "cost"}, defs[1].Keywords)
}

func TestTaxonomy_DefinitionsReturnsCopies(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	defs := tax.Definitions()
	defs[0].Keywords[0] = "mutated"
	require.NotEqual(t, "mutated", tax.Definitions()[0].Keywords[0])
}

func TestDefault_Loads(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	defs := tax.Definitions()
	require.Equal(t, GreetingLabel, defs[0].Label)
	require.Greater(t, len(defs), 5)
	for _, d := range defs {
		require.NotEqual(t, DefaultLabel, d.Label)
	}
	require.Contains(t, tax.DefaultResponse(), "Shipping")
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("default_response: x\nintents: []\nextra: 1\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse taxonomy")
}

func TestParse_PreservesDeclarationOrder(t *testing.T) {
	doc := `
default_response: nothing matched
intents:
  - label: returns
    keywords: [return]
    response: returns answer
  - label: greeting
    keywords: [hello]
    response: hi there
  - label: orders
    keywords: [order]
    response: orders answer
`
	tax, err := Parse([]byte(doc))
	require.NoError(t, err)

	var labels []string
	for _, d := range tax.Definitions() {
		labels = append(labels, d.Label)
	}
	require.Equal(t, []string{GreetingLabel, "returns", "orders"}, labels)
	require.Equal(t, "nothing matched", tax.DefaultResponse())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, defaultTaxonomyYAML, 0o600))

	tax, err := LoadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, tax.Definitions())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read taxonomy file")
}

type fakeGetter struct {
	val  string
	err  error
	name string
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.name = name
	return f.val, f.err
}

func TestLoadParameter(t *testing.T) {
	g := &fakeGetter{val: string(defaultTaxonomyYAML)}
	tax, err := LoadParameter(context.Background(), g, "/support/taxonomy")
	require.NoError(t, err)
	require.Equal(t, "/support/taxonomy", g.name)
	require.NotEmpty(t, tax.Definitions())
}

func TestLoadParameter_Errors(t *testing.T) {
	_, err := LoadParameter(context.Background(), nil, "/p")
	require.Error(t, err)

	_, err = LoadParameter(context.Background(), &fakeGetter{err: errors.New("boom")}, "/p")
	require.ErrorContains(t, err, "boom")

	_, err = LoadParameter(context.Background(), &fakeGetter{val: "intents: [::"}, "/p")
	require.Error(t, err)
}

func TestMarshal_ParsesBack(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	data, err := Marshal(tax)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, tax.Definitions(), again.Definitions())
	require.Equal(t, tax.DefaultResponse(), again.DefaultResponse())

	_, err = Marshal(nil)
	require.Error(t, err)
}
