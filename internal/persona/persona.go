// Package persona holds the reply and prompt templates used by the chat
// router, keyed by language tag. The catalogue is YAML; a default copy is
// embedded in the binary and may be replaced by a file at startup.
package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var embedded []byte

// Field names a template within a language entry.
type Field string

const (
	FieldSystem          Field = "system"
	FieldAnalyst         Field = "analyst"
	FieldVision          Field = "vision"
	FieldGreeting        Field = "greeting"
	FieldHelp            Field = "help"
	FieldNoData          Field = "no_data"
	FieldLLMError        Field = "llm_error"
	FieldInternalError   Field = "internal_error"
	FieldLanguageSet     Field = "language_set"
	FieldLanguageUnknown Field = "language_unknown"
	FieldLanguageCurrent Field = "language_current"
	FieldAnalysisPrompt  Field = "analysis_prompt"
	FieldGeneralPrompt   Field = "general_prompt"
	FieldVisionPrompt    Field = "vision_prompt"
	FieldHeader          Field = "header"
)

// Fields lists every field the default language must define.
var Fields = []Field{
	FieldSystem, FieldAnalyst, FieldVision, FieldGreeting, FieldHelp,
	FieldNoData, FieldLLMError, FieldInternalError, FieldLanguageSet,
	FieldLanguageUnknown, FieldLanguageCurrent, FieldAnalysisPrompt, FieldGeneralPrompt,
	FieldVisionPrompt, FieldHeader,
}

// Vars is the data passed to every template. Persona is filled in from the
// language entry's name.
type Vars struct {
	Persona     string
	Symbol      string
	Name        string
	Price       string
	Change      string
	Source      string
	Headlines   []string
	Tone        string
	Text        string
	Suggestions []string
	Language    string
	Languages   []string
	Diagnostic  string
}

// ErrUnknownField is returned when a field is defined in no language.
var ErrUnknownField = errors.New("persona: unknown field")

type document struct {
	DefaultLanguage string                       `yaml:"default_language"`
	Languages       map[string]map[string]string `yaml:"languages"`
}

// Catalogue is an immutable set of parsed persona templates.
type Catalogue struct {
	defaultLang string
	names       map[string]string
	templates   map[string]map[Field]*template.Template
}

var funcs = template.FuncMap{"join": strings.Join}

// Default returns the embedded catalogue.
func Default() *Catalogue {
	c, err := Parse(embedded)
	if err != nil {
		panic("persona: embedded catalogue: " + err.Error())
	}
	return c
}

// Load returns the catalogue at path, or the embedded one when path is empty.
func Load(path string) (*Catalogue, error) {
	if path == "" {
		return Parse(embedded)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persona: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalogue from YAML. The default language must define
// every field in Fields; other languages may define any subset.
func Parse(data []byte) (*Catalogue, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("persona: parse: %w", err)
	}
	def := normalizeTag(doc.DefaultLanguage)
	if def == "" {
		return nil, errors.New("persona: default_language is required")
	}

	c := &Catalogue{
		defaultLang: def,
		names:       make(map[string]string),
		templates:   make(map[string]map[Field]*template.Template),
	}
	for rawTag, entry := range doc.Languages {
		tag := normalizeTag(rawTag)
		c.names[tag] = strings.TrimSpace(entry["name"])
		set := make(map[Field]*template.Template, len(entry))
		for key, text := range entry {
			if key == "name" {
				continue
			}
			t, err := template.New(tag + "." + key).Funcs(funcs).Option("missingkey=zero").Parse(text)
			if err != nil {
				return nil, fmt.Errorf("persona: %s.%s: %w", tag, key, err)
			}
			set[Field(key)] = t
		}
		c.templates[tag] = set
	}

	base, ok := c.templates[def]
	if !ok {
		return nil, fmt.Errorf("persona: default language %q has no entry", def)
	}
	var missing []string
	for _, f := range Fields {
		if _, ok := base[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("persona: default language %q is missing %s", def, strings.Join(missing, ", "))
	}
	return c, nil
}

// DefaultLanguage returns the fallback language tag.
func (c *Catalogue) DefaultLanguage() string { return c.defaultLang }

// Languages returns the available tags, sorted.
func (c *Catalogue) Languages() []string {
	tags := make([]string, 0, len(c.templates))
	for tag := range c.templates {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Has reports whether the catalogue has an entry for tag.
func (c *Catalogue) Has(tag string) bool {
	_, ok := c.templates[normalizeTag(tag)]
	return ok
}

// Resolve maps a requested tag to one the catalogue serves.
func (c *Catalogue) Resolve(tag string) string {
	tag = normalizeTag(tag)
	if c.Has(tag) {
		return tag
	}
	return c.defaultLang
}

// Render executes field for lang. A language without the field uses the
// default language's template, and so does an unknown language.
func (c *Catalogue) Render(lang string, field Field, vars Vars) (string, error) {
	lang = c.Resolve(lang)
	t, ok := c.templates[lang][field]
	if !ok {
		lang = c.defaultLang
		if t, ok = c.templates[lang][field]; !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}
	if vars.Persona == "" {
		vars.Persona = c.name(lang)
	}

	var b strings.Builder
	if err := t.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("persona: render %s: %w", t.Name(), err)
	}
	return strings.TrimSpace(b.String()), nil
}

func (c *Catalogue) name(lang string) string {
	if n := c.names[lang]; n != "" {
		return n
	}
	return c.names[c.defaultLang]
}

// normalizeTag lowercases a tag and keeps the primary subtag, so "es-MX"
// and "ES" both select "es".
func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return tag
}
