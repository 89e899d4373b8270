package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	apperrors "github.com/faqstudio/backend/pkg/errors"
)

// Detector answers "is this question new?" by scoring the candidate against
// the canonical store's nearest neighbours. Pure read path: it never touches
// the export log, the secondary index, or the category registry.
type Detector struct {
	cfg    Config
	embed  Embedder
	repo   EntryRepository
	stats  CheckStats
	logger *slog.Logger
}

// NewDetector wires up the duplicate detection service. stats may be nil.
func NewDetector(cfg Config, embed Embedder, repo EntryRepository, stats CheckStats, logger *slog.Logger) *Detector {
	return &Detector{
		cfg:    cfg,
		embed:  embed,
		repo:   repo,
		stats:  stats,
		logger: logger.With("component", "catalog.detector"),
	}
}

// Check runs the nearest-neighbour duplicate protocol.
func (d *Detector) Check(ctx context.Context, req CheckRequest) (DuplicateReport, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return DuplicateReport{}, apperrors.Wrap(CodeInvalidInput, "question cannot be empty", nil)
	}
	k := d.cfg.clampK(req.K)

	vector, err := d.embed.Embed(ctx, question)
	if err != nil {
		// embedding failures propagate unchanged
		return DuplicateReport{}, err
	}

	matches, err := d.repo.Nearest(ctx, vector, k)
	if err != nil {
		return DuplicateReport{}, apperrors.Wrap(CodeCanonicalQuery, "nearest neighbour lookup failed", err)
	}

	threshold := d.effectiveThreshold(question, req.Threshold)

	// every completed check counts toward trending, matches or not
	if d.stats != nil {
		if err := d.stats.IncrementCheck(ctx, normalizeQuestion(question), question); err != nil {
			d.logger.Warn("trending increment failed", "error", err)
		}
	}

	if len(matches) == 0 {
		return DuplicateReport{Duplicate: false, Threshold: threshold, Results: []Match{}}, nil
	}

	// the store returns distance-ascending order; keep it stable
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	duplicate := false
	for _, m := range matches {
		if m.Similarity >= threshold {
			duplicate = true
			break
		}
	}

	return DuplicateReport{Duplicate: duplicate, Threshold: threshold, Results: matches}, nil
}

// TopChecked returns the most frequently checked questions.
func (d *Detector) TopChecked(ctx context.Context, limit int) ([]TrendingCheck, error) {
	if d.stats == nil {
		return nil, nil
	}
	return d.stats.TopChecked(ctx, limit)
}

func (d *Detector) effectiveThreshold(question string, override *float64) float64 {
	// an explicit per-request threshold is taken verbatim; the short-query
	// boost only hardens the configured default
	if override != nil {
		return *override
	}
	threshold := d.cfg.DefaultThreshold
	if d.cfg.ShortQueryBoost && tokenCount(question) < d.cfg.ShortQueryMinTokens {
		threshold += d.cfg.ShortQueryDelta
	}
	return threshold
}
