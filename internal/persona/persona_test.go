package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogue(t *testing.T) {
	c := Default()
	assert.Equal(t, "en", c.DefaultLanguage())
	assert.Equal(t, []string{"en", "es", "hi", "ru"}, c.Languages())

	for _, lang := range c.Languages() {
		for _, f := range Fields {
			out, err := c.Render(lang, f, Vars{
				Symbol:      "BTC/USDT",
				Name:        "Bitcoin / Tether",
				Price:       "$42,000.00",
				Change:      "+1.20%",
				Text:        "analyze BTC",
				Suggestions: []string{"ETH/USDT"},
				Language:    "xx",
				Languages:   c.Languages(),
				Diagnostic:  "timeout",
			})
			require.NoError(t, err, "%s.%s", lang, f)
			assert.NotEmpty(t, out, "%s.%s", lang, f)
		}
	}
}

func TestRenderFallsBackToDefaultField(t *testing.T) {
	c := Default()

	// ru defines no header; the English one is used.
	ru, err := c.Render("ru", FieldHeader, Vars{Symbol: "EUR/USD", Price: "$1.08"})
	require.NoError(t, err)
	assert.Equal(t, "**EUR/USD** $1.08", ru)

	// ru does define its own greeting.
	greet, err := c.Render("ru", FieldGreeting, Vars{})
	require.NoError(t, err)
	assert.Contains(t, greet, "Привет")
	assert.Contains(t, greet, "Quill")
}

func TestRenderUnknownLanguage(t *testing.T) {
	c := Default()
	out, err := c.Render("fr", FieldLanguageSet, Vars{})
	require.NoError(t, err)
	assert.Equal(t, "Language set to English.", out)

	assert.Equal(t, "es", c.Resolve("es-MX"))
	assert.Equal(t, "en", c.Resolve("zz"))
	assert.True(t, c.Has("HI"))
}

func TestRenderTemplates(t *testing.T) {
	c := Default()

	header, err := c.Render("en", FieldHeader, Vars{Symbol: "BTC/USDT", Price: "$42,000.00", Change: "+2.45%"})
	require.NoError(t, err)
	assert.Equal(t, "**BTC/USDT** $42,000.00 (+2.45%)", header)

	noData, err := c.Render("en", FieldNoData, Vars{Symbol: "ZZZ/USDT", Suggestions: []string{"BTC/USDT", "ETH/USDT"}})
	require.NoError(t, err)
	assert.Contains(t, noData, "ZZZ/USDT")
	assert.Contains(t, noData, "• BTC/USDT")
	assert.Contains(t, noData, "• ETH/USDT")

	unknown, err := c.Render("en", FieldLanguageUnknown, Vars{Language: "xx", Languages: []string{"en", "es"}})
	require.NoError(t, err)
	assert.Equal(t, `Unknown language "xx". Available: en, es.`, unknown)

	general, err := c.Render("en", FieldGeneralPrompt, Vars{Text: "what moves {{gold}}?"})
	require.NoError(t, err)
	assert.Equal(t, "what moves {{gold}}?", general)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("languages: {en: {system: hi}}"))
	assert.ErrorContains(t, err, "default_language")

	_, err = Parse([]byte("default_language: de\nlanguages: {en: {system: hi}}"))
	assert.ErrorContains(t, err, "no entry")

	_, err = Parse([]byte("default_language: en\nlanguages: {en: {system: hi}}"))
	assert.ErrorContains(t, err, "missing")

	_, err = Parse([]byte("default_language: en\nlanguages: {en: {system: '{{.Nope'}}"))
	assert.Error(t, err)

	_, err = Parse([]byte("::not yaml"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.True(t, c.Has("en"))

	path := filepath.Join(t.TempDir(), "personas.yaml")
	require.NoError(t, os.WriteFile(path, embedded, 0o644))
	c, err = Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Languages(), 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
