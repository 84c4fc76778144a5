package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/analyzer"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/layout"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/plan"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/stac"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/storage"
)

// Issue is one structural problem found during verification. Issues are
// reported in the manifest; published bytes are never altered.
type Issue struct {
	Path    string
	Problem string
}

// String renders the issue for the manifest.
func (i Issue) String() string {
	return i.Path + ": " + i.Problem
}

// Verifier reads back published artifacts and checks structural
// correctness: existence, required link roles, href shapes and
// normalized content types. It is read-only.
type Verifier struct {
	Store    storage.Store
	Layout   layout.Layout
	Resolver *stac.HrefResolver
	Log      *slog.Logger

	// Sample bounds how many succeeded items are read back; zero means
	// all of them.
	Sample int
}

// Verify checks the collection document, the succeeded item documents
// and their primary assets, and the overlay when present.
func (v *Verifier) Verify(ctx context.Context, pl *plan.Plan, succeeded []string) []Issue {
	issues := make([]Issue, 0)

	issues = append(issues, v.verifyCollection(ctx, pl)...)

	sample := succeeded
	if v.Sample > 0 && len(sample) > v.Sample {
		sample = sample[:v.Sample]
	}

	itemByID := make(map[string]*plan.Item, len(pl.Items))
	for _, it := range pl.Items {
		itemByID[it.ID] = it
	}

	for _, id := range sample {
		issues = append(issues, v.verifyItem(ctx, itemByID[id])...)
	}

	if pl.OverlayPath != "" {
		if err := v.Store.Head(ctx, v.Layout.PMTilesPath()); err != nil {
			issues = append(issues, Issue{Path: v.Layout.PMTilesPath(), Problem: err.Error()})
		}
	}

	for _, issue := range issues {
		v.Log.Warn("verification issue", "path", issue.Path, "problem", issue.Problem)
	}

	return issues
}

func (v *Verifier) verifyCollection(ctx context.Context, pl *plan.Plan) []Issue {
	path := v.Layout.CollectionPath()

	data, err := v.Store.Get(ctx, path)
	if err != nil {
		return []Issue{{Path: path, Problem: err.Error()}}
	}

	var collection stac.Collection
	if err := json.Unmarshal(data, &collection); err != nil {
		return []Issue{{Path: path, Problem: fmt.Sprintf("decode: %v", err)}}
	}

	issues := make([]Issue, 0)

	if collection.Type != "Collection" {
		issues = append(issues, Issue{Path: path, Problem: fmt.Sprintf("type is %q, want Collection", collection.Type)})
	}

	if collection.ID != pl.CollectionID {
		issues = append(issues, Issue{
			Path:    path,
			Problem: fmt.Sprintf("collection id is %q, want %q", collection.ID, pl.CollectionID),
		})
	}

	if err := stac.ValidateCollection(&collection); err != nil {
		issues = append(issues, Issue{Path: path, Problem: err.Error()})
	}

	return issues
}

func (v *Verifier) verifyItem(ctx context.Context, it *plan.Item) []Issue {
	if it == nil {
		return nil
	}

	path := v.Layout.ItemPath(it.ID)

	data, err := v.Store.Get(ctx, path)
	if err != nil {
		return []Issue{{Path: path, Problem: err.Error()}}
	}

	var doc stac.Item
	if err := json.Unmarshal(data, &doc); err != nil {
		return []Issue{{Path: path, Problem: fmt.Sprintf("decode: %v", err)}}
	}

	issues := make([]Issue, 0)

	if doc.Type != "Feature" {
		issues = append(issues, Issue{Path: path, Problem: fmt.Sprintf("type is %q, want Feature", doc.Type)})
	}

	if doc.ID != it.ID {
		issues = append(issues, Issue{Path: path, Problem: fmt.Sprintf("item id is %q, want %q", doc.ID, it.ID)})
	}

	if err := stac.ValidateItem(&doc, v.Resolver); err != nil {
		issues = append(issues, Issue{Path: path, Problem: err.Error()})
	}

	// The primary asset's bytes must exist at the canonical asset path.
	mediaType, _ := stac.NormalizeMediaType(it.Output.Primary.Key, it.Output.Primary.MediaType, it.Output.Primary.Roles)
	assetKey := v.Layout.AssetPath(it.ID, stac.FileName(it.Output.Primary.Key, mediaType))

	if err := v.Store.Head(ctx, assetKey); err != nil {
		issues = append(issues, Issue{Path: assetKey, Problem: err.Error()})
	}

	if mediaType != analyzer.MediaTypeCOG {
		v.Log.Debug("primary asset is not a COG", "item_id", it.ID, "media_type", mediaType)
	}

	return issues
}
