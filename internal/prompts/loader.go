// Package prompts holds the generation prompt templates and the platform
// rule table. Both are JSON files embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// GenerationFile holds the generation prompt sections and descriptor phrases.
const GenerationFile = "generation.json"

// requiredKeys are the sections the prompt builder always renders.
var requiredKeys = []string{
	"main-instruction", "style", "signature-phrases", "examples-header", "example",
	"platform-rules", "topic", "additional-context",
	"format-header", "format-language", "format-structure", "format-lists",
	"format-no-markup", "format-natural", "format-closing",
	"tone.balanced", "tone.with-expertise", "tone.with-emotion", "structure.paragraphs",
	"emoji.uses", "emoji.rare", "hashtag.active", "hashtag.moderate", "unit.v1", "unit.v2",
	"emotionality.low", "emotionality.moderate", "emotionality.high",
}

// Templates is a set of named prompt texts. Keys of the form "group.name"
// form descriptor groups such as "tone.formal".
type Templates struct {
	texts map[string]string
}

// ParseTemplates reads a flat JSON object of key → text and checks that every
// section the builder renders is present.
func ParseTemplates(data []byte) (*Templates, error) {
	var texts map[string]string
	if err := json.Unmarshal(data, &texts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	var missing []string
	for _, k := range requiredKeys {
		if _, ok := texts[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("prompt templates missing keys: %s", strings.Join(missing, ", "))
	}
	return &Templates{texts: texts}, nil
}

var generation = sync.OnceValue(func() *Templates {
	data, err := promptFiles.ReadFile(GenerationFile)
	if err != nil {
		panic(fmt.Sprintf("prompts: %v", err))
	}
	t, err := ParseTemplates(data)
	if err != nil {
		panic(fmt.Sprintf("prompts: %s: %v", GenerationFile, err))
	}
	return t
})

// Generation returns the embedded generation templates.
func Generation() *Templates {
	return generation()
}

// Lookup returns the text of key.
func (t *Templates) Lookup(key string) (string, bool) {
	s, ok := t.texts[key]
	return s, ok
}

// Text returns the text of key, or "" when it is absent. Required keys are
// guaranteed by ParseTemplates.
func (t *Templates) Text(key string) string {
	return t.texts[key]
}

// Choose returns the "group.name" descriptor, or "group.fallback" when name
// has none.
func (t *Templates) Choose(group, name, fallback string) string {
	if s, ok := t.texts[group+"."+name]; ok {
		return s
	}
	return t.texts[group+"."+fallback]
}

// Render formats the text of key with data.
func (t *Templates) Render(key string, data map[string]string) string {
	return Format(t.texts[key], data)
}

// Keys returns all template keys, sorted.
func (t *Templates) Keys() []string {
	keys := make([]string, 0, len(t.texts))
	for k := range t.texts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Format replaces {{.Key}} placeholders with values from data in a single
// pass; values that look like placeholders are left untouched.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
