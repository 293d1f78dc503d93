package ingestion

import (
	"github.com/jonathan/ghostpen/internal/textmetrics"
	"github.com/jonathan/ghostpen/internal/types"
)

// ExtractMeta collects the hashtags, mentions and emoji of a post in order
// of appearance. Repeated entities are kept, so the list lengths are the
// per-post counts the profiler reads.
func ExtractMeta(content string) types.PostMeta {
	return types.PostMeta{
		Hashtags: nonNil(textmetrics.Hashtags(content)),
		Mentions: nonNil(textmetrics.Mentions(content)),
		Emojis:   nonNil(textmetrics.Emojis(content)),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
