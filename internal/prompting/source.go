package prompting

import (
	"context"

	"github.com/jonathan/ghostpen/internal/types"
)

// StaticProfiles serves profiles from an in-memory snapshot, typically a
// loaded profiles file.
type StaticProfiles map[string]*types.StyleProfile

// NewStaticProfiles indexes the profiles of f by author id.
func NewStaticProfiles(f *types.ProfilesFile) StaticProfiles {
	out := make(StaticProfiles, len(f.Profiles))
	for i := range f.Profiles {
		out[f.Profiles[i].AuthorID] = &f.Profiles[i]
	}
	return out
}

// LookupProfile implements ProfileSource.
func (s StaticProfiles) LookupProfile(_ context.Context, authorID string) (*types.StyleProfile, bool, error) {
	p, ok := s[authorID]
	return p, ok, nil
}
