// Package plan builds and validates the in-memory publish plan: the
// cross product of features and their analysis time periods.
package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/analyzer"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/feature"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/timespan"
)

// Validation errors.
var (
	ErrEmptyPlan         = errors.New("publish plan must contain at least one item")
	ErrNoCollectionID    = errors.New("publish plan must have a collection id")
	ErrNoJobID           = errors.New("publish plan must have a job id")
	ErrNoItemID          = errors.New("plan item missing item id")
	ErrDuplicateItemID   = errors.New("duplicate item id in publish plan")
	ErrDuplicateFeature  = errors.New("duplicate feature id in publish plan input")
	ErrItemIDOrder       = errors.New("item ids must be non-decreasing in plan order")
	ErrItemMissingOutput = errors.New("plan item missing analyzer output")
)

// Item is one catalog item to publish: a feature at one time period with
// the analyzer's artifact set.
type Item struct {
	ID      string
	Feature *feature.Feature
	Span    timespan.TimeSpan
	Output  *analyzer.Output
}

// FeatureID returns the originating feature's identifier.
func (it *Item) FeatureID() string {
	return it.Feature.ID()
}

// Properties merges feature properties with the analyzer's namespaced
// metadata. Analyzer values win on key conflicts.
func (it *Item) Properties() map[string]any {
	props := make(map[string]any, len(it.Feature.Properties)+len(it.Output.Properties))

	for k, v := range it.Feature.Properties {
		props[k] = v
	}

	for k, v := range it.Output.Properties {
		props[k] = v
	}

	return props
}

// Metadata is collection-level descriptive metadata.
type Metadata struct {
	Title         string
	Description   string
	Keywords      []string
	License       string
	FeatureCount  int
	GeometryTypes []string
}

// Plan is the complete publish plan for one run.
type Plan struct {
	CollectionID string
	JobID        string
	Items        []*Item
	Metadata     Metadata

	// OverlayPath is the local path of the generated vector overlay,
	// empty when overlay generation failed or was skipped.
	OverlayPath string
}

// ItemCount returns the number of items in the plan.
func (p *Plan) ItemCount() int {
	return len(p.Items)
}

// FeatureCount returns the number of distinct features in the plan.
func (p *Plan) FeatureCount() int {
	seen := make(map[string]bool)
	for _, it := range p.Items {
		seen[it.FeatureID()] = true
	}

	return len(seen)
}

// TimeRange returns the overall [start, end] covered by the plan.
func (p *Plan) TimeRange() (time.Time, time.Time, error) {
	if len(p.Items) == 0 {
		return time.Time{}, time.Time{}, ErrEmptyPlan
	}

	start := p.Items[0].Span.Start
	end := p.Items[0].Span.EffectiveEnd()

	for _, it := range p.Items[1:] {
		if it.Span.Start.Before(start) {
			start = it.Span.Start
		}

		if it.Span.EffectiveEnd().After(end) {
			end = it.Span.EffectiveEnd()
		}
	}

	return start, end, nil
}

// Validate checks plan-level invariants: non-empty, identified, unique
// ordered item ids, and a normalized primary asset per item.
func (p *Plan) Validate() error {
	if p.CollectionID == "" {
		return ErrNoCollectionID
	}

	if p.JobID == "" {
		return ErrNoJobID
	}

	if len(p.Items) == 0 {
		return ErrEmptyPlan
	}

	seen := make(map[string]bool, len(p.Items))
	prev := ""

	for i, it := range p.Items {
		if it.ID == "" {
			return fmt.Errorf("item %d: %w", i, ErrNoItemID)
		}

		if seen[it.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateItemID, it.ID)
		}

		seen[it.ID] = true

		if it.ID < prev {
			return fmt.Errorf("%w: %s after %s", ErrItemIDOrder, it.ID, prev)
		}

		prev = it.ID

		if it.Output == nil {
			return fmt.Errorf("item %s: %w", it.ID, ErrItemMissingOutput)
		}

		if err := it.Output.Normalize(); err != nil {
			return fmt.Errorf("item %s: %w", it.ID, err)
		}
	}

	return nil
}
