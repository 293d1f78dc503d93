package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jonathan/ghostpen/internal/schemas"
	"github.com/jonathan/ghostpen/internal/types"
)

// ProfilesFileVersion is written to every profiles file.
const ProfilesFileVersion = "1.0"

// LoadProfiles reads and validates a profiles file.
func LoadProfiles(path string) (*types.ProfilesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	if err := schemas.ValidateProfiles(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var f types.ProfilesFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}
	return &f, nil
}

// WriteProfiles writes profiles as a profiles file stamped with now.
func WriteProfiles(path string, profiles []types.StyleProfile, now time.Time) error {
	f := types.ProfilesFile{
		Version:     ProfilesFileVersion,
		GeneratedAt: now.UTC(),
		Profiles:    profiles,
	}
	if f.Profiles == nil {
		f.Profiles = []types.StyleProfile{}
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	return nil
}
