package plan

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/analyzer"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/feature"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/ids"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/timeprov"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/timespan"
)

// ErrNoFeatures is returned when the input collection has no features.
var ErrNoFeatures = errors.New("feature collection is empty")

// SkipKind classifies why work was dropped during plan construction.
type SkipKind string

// Skip kinds.
const (
	SkipInvalidGeometry SkipKind = "invalid_geometry"
	SkipTimeExtraction  SkipKind = "time_extraction"
	SkipAnalyzerFailure SkipKind = "analyzer_failure"
)

// Skip records one feature or feature/period pair dropped from the plan.
// Skips are never fatal; they are carried into the run manifest.
type Skip struct {
	Kind      SkipKind
	FeatureID string
	Span      *timespan.TimeSpan
	Reason    string
}

// Builder assembles a publish plan from features and collaborators. All
// iteration is sequential: one feature at a time, one period at a time,
// one blocking analyzer call per pair.
type Builder struct {
	Time     timeprov.Provider
	Analyzer analyzer.Analyzer
	Minter   *ids.Minter
	Log      *slog.Logger
}

// Build computes the feature × time-period cross product. Features whose
// geometry cannot be used are skipped whole; analyzer failures drop only
// the failing pair. Given identical inputs and collaborators, item
// ordering and relative identifiers are reproducible.
func (b *Builder) Build(collection *feature.Collection, collectionID string, meta Metadata) (*Plan, []Skip, error) {
	if len(collection.Features) == 0 {
		return nil, nil, ErrNoFeatures
	}

	if err := b.checkUniqueFeatureIDs(collection); err != nil {
		return nil, nil, err
	}

	jobID := b.Minter.New()
	items := make([]*Item, 0, len(collection.Features))
	skips := make([]Skip, 0)

	for _, f := range collection.Features {
		if err := feature.NormalizeGeometry(f); err != nil {
			b.Log.Warn("skipping feature with unusable geometry", "feature_id", f.ID(), "error", err)
			skips = append(skips, Skip{
				Kind:      SkipInvalidGeometry,
				FeatureID: f.ID(),
				Reason:    err.Error(),
			})

			continue
		}

		spans, err := b.Time.ForFeature(f)
		if err != nil {
			b.Log.Warn("time extraction failed for feature", "feature_id", f.ID(), "error", err)
			skips = append(skips, Skip{
				Kind:      SkipTimeExtraction,
				FeatureID: f.ID(),
				Reason:    err.Error(),
			})

			continue
		}

		for _, span := range spans {
			output, err := b.Analyzer.Analyze(f, span)
			if err != nil {
				b.Log.Warn("analyzer failed for feature/period pair",
					"feature_id", f.ID(), "start", span.Start, "error", err)

				skips = append(skips, Skip{
					Kind:      SkipAnalyzerFailure,
					FeatureID: f.ID(),
					Span:      &span,
					Reason:    err.Error(),
				})

				continue
			}

			items = append(items, &Item{
				ID:      b.Minter.New(),
				Feature: f,
				Span:    span,
				Output:  output,
			})
		}
	}

	meta.FeatureCount = len(collection.Features)
	meta.GeometryTypes = collection.GeometryTypes()

	p := &Plan{
		CollectionID: collectionID,
		JobID:        jobID,
		Items:        items,
		Metadata:     meta,
	}

	if len(items) == 0 {
		// Nothing survived analysis; the caller decides whether an
		// all-failed plan is publishable (it is not).
		return p, skips, nil
	}

	if err := p.Validate(); err != nil {
		return nil, skips, fmt.Errorf("validate publish plan: %w", err)
	}

	return p, skips, nil
}

func (b *Builder) checkUniqueFeatureIDs(collection *feature.Collection) error {
	seen := make(map[string]bool, len(collection.Features))

	for _, f := range collection.Features {
		id := f.ID()
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateFeature, id)
		}

		seen[id] = true
	}

	return nil
}
