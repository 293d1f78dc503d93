// Package lexicon loads the keyword lists that drive tone, emotionality,
// topic and signature-phrase analysis. Lexicons are immutable once loaded and
// are injected into the profiler and scorer.
package lexicon

import (
	"embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed *.toml
var lexiconFiles embed.FS

// Built-in lexicon names.
const (
	NameDefault  = "ru"
	NameExtended = "ru_extended"
)

// ToneLexicon holds one keyword list per tone, in tie-break order.
type ToneLexicon struct {
	Formal    []string `toml:"formal"`
	Emotional []string `toml:"emotional"`
	Expert    []string `toml:"expert"`
	Casual    []string `toml:"casual"`
}

// Topic is a named topic category and its keywords.
type Topic struct {
	Name     string   `toml:"name"`
	Keywords []string `toml:"keywords"`
}

// Lexicon is a complete keyword configuration.
type Lexicon struct {
	Name        string      `toml:"name"`
	StopPhrases []string    `toml:"stop_phrases"`
	Tone        ToneLexicon `toml:"tone"`
	Topics      []Topic     `toml:"topics"`

	stop map[string]bool
}

// LoadError represents an error reading or decoding a lexicon file.
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("lexicon %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("lexicon %s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Load reads a lexicon from a TOML file on disk.
func Load(path string) (*Lexicon, error) {
	var lex Lexicon
	if _, err := toml.DecodeFile(path, &lex); err != nil {
		return nil, &LoadError{Path: path, Message: "failed to decode", Cause: err}
	}
	if err := lex.init(); err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	return &lex, nil
}

// Parse decodes a lexicon from TOML content.
func Parse(data string) (*Lexicon, error) {
	var lex Lexicon
	if _, err := toml.Decode(data, &lex); err != nil {
		return nil, &LoadError{Path: "(string)", Message: "failed to decode", Cause: err}
	}
	if err := lex.init(); err != nil {
		return nil, &LoadError{Path: "(string)", Message: err.Error()}
	}
	return &lex, nil
}

// Builtin returns one of the embedded lexicons by name.
func Builtin(name string) (*Lexicon, error) {
	data, err := lexiconFiles.ReadFile(name + ".toml")
	if err != nil {
		return nil, &LoadError{Path: name, Message: "no such built-in lexicon", Cause: err}
	}
	return Parse(string(data))
}

// Default returns the embedded base lexicon.
func Default() *Lexicon {
	lex, err := Builtin(NameDefault)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon is invalid: %v", err))
	}
	return lex
}

// Resolve returns the lexicon at path, or the named built-in when path is empty
// or names a built-in lexicon.
func Resolve(pathOrName string) (*Lexicon, error) {
	switch pathOrName {
	case "", NameDefault:
		return Default(), nil
	case NameExtended:
		return Builtin(NameExtended)
	}
	return Load(pathOrName)
}

func (l *Lexicon) init() error {
	if len(l.Tone.Formal) == 0 || len(l.Tone.Emotional) == 0 || len(l.Tone.Expert) == 0 || len(l.Tone.Casual) == 0 {
		return fmt.Errorf("all four tone lists must be non-empty")
	}
	for i, t := range l.Topics {
		if t.Name == "" {
			return fmt.Errorf("topic %d has no name", i)
		}
		if len(t.Keywords) == 0 {
			return fmt.Errorf("topic %q has no keywords", t.Name)
		}
	}
	l.stop = make(map[string]bool, len(l.StopPhrases))
	for _, p := range l.StopPhrases {
		l.stop[strings.ToLower(p)] = true
	}
	return nil
}

// IsStopPhrase reports whether phrase is excluded from signature phrases.
func (l *Lexicon) IsStopPhrase(phrase string) bool {
	return l.stop[phrase]
}

// ToneWords returns the keyword lists in tie-break order: formal, emotional, expert, casual.
func (l *Lexicon) ToneWords() [4][]string {
	return [4][]string{l.Tone.Formal, l.Tone.Emotional, l.Tone.Expert, l.Tone.Casual}
}
