// Package ingestion loads post datasets, cleans post content and derives
// post metadata.
package ingestion

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/ghostpen/internal/schemas"
	"github.com/jonathan/ghostpen/internal/textmetrics"
	"github.com/jonathan/ghostpen/internal/types"
)

// LoadDataset reads the dataset at path and validates it against the
// dataset schema before decoding.
func LoadDataset(path string) (*types.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("dataset not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	ds, err := ParseDataset(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ParseDataset validates and decodes a dataset document.
func ParseDataset(data []byte) (*types.Dataset, error) {
	if err := schemas.ValidateDataset(data); err != nil {
		return nil, err
	}
	var ds types.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return &ds, nil
}

// WriteDataset writes ds as indented JSON.
func WriteDataset(path string, ds *types.Dataset) error {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

// AuthorStats is the per-author part of Stats.
type AuthorStats struct {
	AuthorID   string         `json:"author_id"`
	TotalPosts int            `json:"total_posts"`
	Platforms  map[string]int `json:"platforms"`
}

// Stats summarizes a dataset.
type Stats struct {
	TotalAuthors  int            `json:"total_authors"`
	TotalPosts    int            `json:"total_posts"`
	Platforms     map[string]int `json:"platforms"`
	AvgPostLength int            `json:"avg_post_length"`
	Authors       []AuthorStats  `json:"authors_details"`
}

// ComputeStats counts posts per platform and author. AvgPostLength is in
// characters, rounded down.
func ComputeStats(ds *types.Dataset) Stats {
	stats := Stats{
		TotalAuthors: len(ds.Authors),
		Platforms:    make(map[string]int),
		Authors:      make([]AuthorStats, 0, len(ds.Authors)),
	}
	for _, p := range types.Platforms() {
		stats.Platforms[string(p)] = 0
	}

	totalLength := 0
	for i := range ds.Authors {
		author := &ds.Authors[i]
		as := AuthorStats{AuthorID: author.AuthorID, Platforms: make(map[string]int)}
		for platform, posts := range author.Platforms {
			stats.Platforms[platform] += len(posts)
			as.Platforms[platform] = len(posts)
			as.TotalPosts += len(posts)
			for _, post := range posts {
				totalLength += textmetrics.Len(post.Content)
			}
		}
		stats.TotalPosts += as.TotalPosts
		stats.Authors = append(stats.Authors, as)
	}

	if stats.TotalPosts > 0 {
		stats.AvgPostLength = totalLength / stats.TotalPosts
	}
	return stats
}

// NormalizeReport counts the changes made by Normalize.
type NormalizeReport struct {
	Cleaned    int `json:"cleaned"`
	MetaFilled int `json:"meta_filled"`
	Dropped    int `json:"dropped"`
}

// Normalize cleans every post in place, fills missing metadata from the
// content and drops posts left empty.
func Normalize(ds *types.Dataset) NormalizeReport {
	var report NormalizeReport
	for i := range ds.Authors {
		author := &ds.Authors[i]
		for platform, posts := range author.Platforms {
			kept := posts[:0]
			for _, post := range posts {
				cleaned := NormalizeContent(post.Content)
				if cleaned == "" {
					report.Dropped++
					continue
				}
				if cleaned != post.Content {
					post.Content = cleaned
					report.Cleaned++
				}
				if post.Meta == nil {
					meta := ExtractMeta(post.Content)
					post.Meta = &meta
					report.MetaFilled++
				}
				kept = append(kept, post)
			}
			author.Platforms[platform] = kept
		}
	}
	return report
}
