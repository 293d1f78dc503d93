package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/ghostpen/internal/profiler"
	"github.com/jonathan/ghostpen/internal/types"
)

// DefaultWorkers is the number of authors profiled concurrently.
const DefaultWorkers = 4

// ProfileOptions configures ProfileAll.
type ProfileOptions struct {
	Workers    int
	Logger     *zap.Logger
	OnProgress ProgressCallback
}

// ProfileBatch is the outcome of profiling a dataset.
type ProfileBatch struct {
	// Profiles are in dataset order.
	Profiles []types.StyleProfile
	// Skipped lists authors whose corpus could not be profiled (no posts).
	Skipped []string
}

// ProfileAll profiles every author of the dataset with a bounded worker
// pool. Authors with invalid corpora are skipped; any other failure cancels
// the remaining work and is returned.
func ProfileAll(ctx context.Context, p *profiler.Profiler, authors []types.AuthorCorpus, opts ProfileOptions) (*ProfileBatch, error) {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	// Each worker writes only its own index.
	results := make([]*types.StyleProfile, len(authors))
	skipped := make([]bool, len(authors))
	var progressMu sync.Mutex

	for i := range authors {
		corpus := &authors[i]
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			profile, err := p.Analyze(gCtx, corpus)
			if err != nil {
				var invalid *profiler.InvalidInputError
				if !errors.As(err, &invalid) {
					return fmt.Errorf("profiling author %s failed: %w", corpus.AuthorID, err)
				}
				opts.Logger.Warn("skipping author", zap.String("author_id", corpus.AuthorID), zap.Error(err))
				skipped[i] = true
				return nil
			}

			results[i] = profile
			progressMu.Lock()
			if opts.OnProgress != nil {
				opts.OnProgress(ProgressEvent{
					Step:     StepProfile,
					AuthorID: corpus.AuthorID,
					Message:  fmt.Sprintf("Profiled %d posts", profile.TotalPosts),
					Content:  profile,
				})
			}
			progressMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &ProfileBatch{Profiles: make([]types.StyleProfile, 0, len(authors))}
	for i, r := range results {
		switch {
		case r != nil:
			batch.Profiles = append(batch.Profiles, *r)
		case skipped[i]:
			batch.Skipped = append(batch.Skipped, authors[i].AuthorID)
		}
	}
	return batch, nil
}
