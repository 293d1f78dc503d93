package prompts

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/ghostpen/internal/types"
)

// RulesFile is the embedded platform rule table.
const RulesFile = "platform_rules.json"

// DefaultPlatform is the row used for platforms missing from the table.
const DefaultPlatform = types.PlatformFacebook

// PlatformRules describes what a platform expects of a post.
type PlatformRules struct {
	Length    string `json:"length"`
	Tone      string `json:"tone"`
	Structure string `json:"structure"`
	Emojis    string `json:"emojis"`
	Hashtags  string `json:"hashtags"`
	Style     string `json:"style"`
}

// RuleTable is an immutable platform → rules map. Lookups of unknown
// platforms return the DefaultPlatform row.
type RuleTable struct {
	rules map[string]PlatformRules
}

// NewRuleTable copies rules into a table. The table must contain DefaultPlatform.
func NewRuleTable(rules map[string]PlatformRules) (RuleTable, error) {
	if _, ok := rules[string(DefaultPlatform)]; !ok {
		return RuleTable{}, fmt.Errorf("platform rules must include %q", DefaultPlatform)
	}
	copied := make(map[string]PlatformRules, len(rules))
	for k, v := range rules {
		copied[k] = v
	}
	return RuleTable{rules: copied}, nil
}

// Lookup returns the rules for platform, falling back to DefaultPlatform.
func (t RuleTable) Lookup(platform string) PlatformRules {
	if r, ok := t.rules[platform]; ok {
		return r
	}
	return t.rules[string(DefaultPlatform)]
}

// Has reports whether platform has its own row.
func (t RuleTable) Has(platform string) bool {
	_, ok := t.rules[platform]
	return ok
}

// Len returns the number of rows.
func (t RuleTable) Len() int {
	return len(t.rules)
}

// ParseRules decodes a platform rule table from JSON.
func ParseRules(data []byte) (RuleTable, error) {
	var rules map[string]PlatformRules
	if err := json.Unmarshal(data, &rules); err != nil {
		return RuleTable{}, fmt.Errorf("failed to parse platform rules: %w", err)
	}
	return NewRuleTable(rules)
}

// LoadRules reads a platform rule table from a JSON file on disk.
func LoadRules(path string) (RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleTable{}, fmt.Errorf("failed to read platform rules %s: %w", path, err)
	}
	return ParseRules(data)
}

// DefaultRules returns the embedded platform rule table.
func DefaultRules() RuleTable {
	data, err := promptFiles.ReadFile(RulesFile)
	if err != nil {
		panic(fmt.Sprintf("failed to load platform rules: %v", err))
	}
	table, err := ParseRules(data)
	if err != nil {
		panic(fmt.Sprintf("embedded platform rules are invalid: %v", err))
	}
	return table
}
