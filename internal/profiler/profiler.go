// Package profiler turns an author's post corpus into a StyleProfile.
package profiler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/ghostpen/internal/cache"
	"github.com/jonathan/ghostpen/internal/lexicon"
	"github.com/jonathan/ghostpen/internal/types"
)

// Options configures a Profiler. Zero values select the defaults of the
// chosen algorithm version.
type Options struct {
	Version     types.AlgorithmVersion
	MaxPhrases  int
	MaxSamples  int
	SampleChars int

	Lexicon *lexicon.Lexicon
	// Cache memoizes profiles by author id. Nil disables memoization.
	Cache  cache.ProfileCache
	Logger *zap.Logger
	Now    func() time.Time
}

// params holds the algorithm constants of one version.
type params struct {
	ngramSizes      []int
	candidateFactor int
	minPhraseLen    int
	maxPhrases      int
	maxSamples      int
	sampleChars     int
	perThousand     bool
}

func paramsFor(v types.AlgorithmVersion) params {
	if v == types.AlgorithmV2 {
		return params{
			ngramSizes:      []int{2, 3, 4},
			candidateFactor: 5,
			minPhraseLen:    5,
			maxPhrases:      7,
			maxSamples:      5,
			sampleChars:     600,
			perThousand:     true,
		}
	}
	return params{
		ngramSizes:      []int{2, 3},
		candidateFactor: 3,
		minPhraseLen:    4,
		maxPhrases:      5,
		maxSamples:      3,
		sampleChars:     500,
	}
}

// Profiler computes style profiles. It is safe for concurrent use.
type Profiler struct {
	version types.AlgorithmVersion
	params  params
	lex     *lexicon.Lexicon
	cache   cache.ProfileCache
	logger  *zap.Logger
	now     func() time.Time
	group   singleflight.Group

	// mu serializes cache writes against invalidation. A build only stores
	// its profile if the author's generation is unchanged since it started.
	mu          sync.Mutex
	epoch       uint64
	generations map[string]uint64
}

// New creates a Profiler from opts.
func New(opts Options) *Profiler {
	version := opts.Version
	if version == "" {
		version = types.AlgorithmV1
	}
	p := paramsFor(version)
	if opts.MaxPhrases > 0 {
		p.maxPhrases = opts.MaxPhrases
	}
	if opts.MaxSamples > 0 {
		p.maxSamples = opts.MaxSamples
	}
	if opts.SampleChars > 0 {
		p.sampleChars = opts.SampleChars
	}

	lex := opts.Lexicon
	if lex == nil {
		lex = lexicon.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Profiler{
		version: version,
		params:  p,
		lex:     lex,
		cache:   opts.Cache,
		logger:  logger,
		now:     now,

		generations: make(map[string]uint64),
	}
}

// Version returns the algorithm version this profiler runs.
func (p *Profiler) Version() types.AlgorithmVersion {
	return p.version
}

// Analyze returns the profile of corpus, serving it from the cache when one
// is configured. Concurrent calls for the same corpus share one computation;
// a build that started before Invalidate or ClearCache is not cached.
func (p *Profiler) Analyze(ctx context.Context, corpus *types.AuthorCorpus) (*types.StyleProfile, error) {
	if corpus == nil || corpus.AuthorID == "" {
		return nil, &InvalidInputError{Field: "author_id", Message: "author id is required"}
	}
	if p.cache == nil {
		return p.Build(corpus)
	}

	if cached, ok, err := p.cache.Get(ctx, corpus.AuthorID); err != nil {
		p.logger.Warn("profile cache read failed", zap.String("author_id", corpus.AuthorID), zap.Error(err))
	} else if ok {
		p.logger.Debug("profile cache hit", zap.String("author_id", corpus.AuthorID))
		return cached, nil
	}

	gen := p.generation(corpus.AuthorID)
	key := flightKey(corpus, gen)
	v, err, _ := p.group.Do(key, func() (any, error) {
		profile, err := p.Build(corpus)
		if err != nil {
			return nil, err
		}
		p.store(ctx, profile, gen)
		return profile, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.StyleProfile), nil
}

func (p *Profiler) generation(authorID string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epoch + p.generations[authorID]
}

// store caches profile unless the author was invalidated after gen was read.
func (p *Profiler) store(ctx context.Context, profile *types.StyleProfile, gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.epoch+p.generations[profile.AuthorID] != gen {
		p.logger.Debug("discarding profile built before invalidation", zap.String("author_id", profile.AuthorID))
		return
	}
	if err := p.cache.Put(ctx, profile); err != nil {
		p.logger.Warn("profile cache write failed", zap.String("author_id", profile.AuthorID), zap.Error(err))
	}
}

// flightKey identifies one computation: concurrent calls share a build only
// when they profile the same posts within the same cache generation.
func flightKey(corpus *types.AuthorCorpus, gen uint64) string {
	d := xxhash.New()
	for _, platform := range corpus.PlatformKeys() {
		_, _ = d.WriteString(platform)
		_, _ = d.WriteString("\x00")
		for _, post := range corpus.Platforms[platform] {
			_, _ = d.WriteString(post.Content)
			_, _ = d.WriteString("\x00")
			_, _ = d.WriteString(post.Timestamp)
			_, _ = d.WriteString("\x00")
		}
	}
	return corpus.AuthorID + "/" + strconv.FormatUint(gen, 10) + "/" + strconv.FormatUint(d.Sum64(), 16)
}

// Invalidate drops the cached profile of authorID so the next Analyze recomputes it.
func (p *Profiler) Invalidate(ctx context.Context, authorID string) error {
	if p.cache == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generations[authorID]++
	return p.cache.Invalidate(ctx, authorID)
}

// ClearCache drops every cached profile.
func (p *Profiler) ClearCache(ctx context.Context) error {
	if p.cache == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.epoch++
	return p.cache.Clear(ctx)
}

// Build computes the profile of corpus without consulting the cache.
// A corpus without posts is rejected.
func (p *Profiler) Build(corpus *types.AuthorCorpus) (*types.StyleProfile, error) {
	if corpus == nil || corpus.AuthorID == "" {
		return nil, &InvalidInputError{Field: "author_id", Message: "author id is required"}
	}
	posts := corpus.AllPosts()
	if len(posts) == 0 {
		return nil, &InvalidInputError{Field: "platforms", Message: "corpus has no posts"}
	}

	platformSpecific := make(map[string]types.PlatformStyle)
	platforms := corpus.PlatformKeys()
	for _, name := range platforms {
		platformSpecific[name] = p.analyzePlatform(corpus.Platforms[name])
	}

	profile := &types.StyleProfile{
		AuthorID:         corpus.AuthorID,
		Name:             corpus.Name,
		Profession:       corpus.Profession,
		AlgorithmVersion: p.version,
		GeneratedAt:      p.now().UTC().Truncate(time.Second),
		TotalPosts:       len(posts),
		Platforms:        platforms,
		Style:            p.analyzeStyle(posts),
		PlatformSpecific: platformSpecific,
		Topics:           p.detectTopics(posts),
		SignaturePhrases: p.extractPhrases(posts),
		SamplePosts:      p.samplePosts(posts),
	}

	p.logger.Debug("profile built",
		zap.String("author_id", profile.AuthorID),
		zap.String("algorithm", string(p.version)),
		zap.Int("posts", profile.TotalPosts),
		zap.String("dominant_tone", profile.Style.Tone.Dominant),
		zap.String("structure", profile.Style.StructureType),
	)
	return profile, nil
}
