package stac

import (
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/analyzer"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/layout"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/plan"
)

// Writer errors. Link-form violations are hard invariant failures: the
// document build aborts rather than publishing a malformed catalog.
var (
	ErrAbsoluteLinkForm  = errors.New("document link must be relative")
	ErrRelativeAssetForm = errors.New("data asset href must be an absolute storage URI")
	ErrNoPrimary         = errors.New("item must have exactly one asset with data and primary roles")
	ErrForeignAssetHref  = errors.New("asset href outside the job namespace")
)

// timeFormat is the instant encoding used in item properties.
const timeFormat = "2006-01-02T15:04:05Z"

// Writer builds the catalog documents for a plan, resolving every
// embedded link through one HrefResolver.
type Writer struct {
	resolver       *HrefResolver
	layout         layout.Layout
	geometryInItem bool
}

// NewWriter creates a writer bound to a job layout and storage target.
func NewWriter(resolver *HrefResolver, l layout.Layout, geometryInItem bool) *Writer {
	return &Writer{resolver: resolver, layout: l, geometryInItem: geometryInItem}
}

// Catalog builds the collection document and one item document per plan
// item, then verifies link policy on every document produced.
func (w *Writer) Catalog(p *plan.Plan) (*Catalog, error) {
	collection, err := w.Collection(p)
	if err != nil {
		return nil, err
	}

	catalog := &Catalog{
		Collection:     collection,
		CollectionPath: w.layout.CollectionPath(),
		Items:          make([]Entry, 0, len(p.Items)),
	}

	for _, it := range p.Items {
		doc, err := w.Item(p, it)
		if err != nil {
			return nil, err
		}

		catalog.Items = append(catalog.Items, Entry{Doc: doc, Path: w.layout.ItemPath(it.ID)})
	}

	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}

	for _, entry := range catalog.Items {
		if err := ValidateItem(entry.Doc, w.resolver); err != nil {
			return nil, err
		}
	}

	return catalog, nil
}

// Collection builds the collection-level document. Its links are all
// relative: one per item plus the overlay reference.
func (w *Writer) Collection(p *plan.Plan) (*Collection, error) {
	start, end, err := p.TimeRange()
	if err != nil {
		return nil, fmt.Errorf("collection temporal extent: %w", err)
	}

	meta := p.Metadata

	description := meta.Description
	if description == "" {
		description = "GeoExhibit Collection"
	}

	license := meta.License
	if license == "" {
		license = "proprietary"
	}

	collection := &Collection{
		Type:          "Collection",
		StacVersion:   Version,
		ID:            p.CollectionID,
		Title:         meta.Title,
		Description:   description,
		Keywords:      meta.Keywords,
		License:       license,
		Extent:        w.extent(p, start, end),
		FeatureCount:  meta.FeatureCount,
		GeometryTypes: meta.GeometryTypes,
	}

	for _, it := range p.Items {
		collection.Links = append(collection.Links, Link{
			Rel:  RelItem,
			Href: w.resolver.CollectionToItem(it.ID),
			Type: analyzer.MediaTypeJSON,
		})
	}

	if p.OverlayPath != "" {
		collection.Links = append(collection.Links, Link{
			Rel:   RelPMTiles,
			Href:  w.resolver.CollectionToOverlay(),
			Type:  analyzer.MediaTypePMTiles,
			Title: "Vector tiles (PMTiles)",
		})
	}

	return collection, nil
}

// Item builds one item document. Every data asset gets an absolute
// storage URI; the collection back-links are relative.
func (w *Writer) Item(p *plan.Plan, it *plan.Item) (*Item, error) {
	props := it.Properties()
	applySpanProperties(props, it)

	bound := it.Feature.Geometry.Bound()

	doc := &Item{
		Type:        "Feature",
		StacVersion: Version,
		ID:          it.ID,
		Bbox:        []float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()},
		Properties:  props,
		Assets:      make(map[string]Asset, len(it.Output.Assets())),
		Collection:  p.CollectionID,
	}

	if w.geometryInItem {
		doc.Geometry = geojson.NewGeometry(it.Feature.Geometry)
	}

	backHref := w.resolver.ItemToCollection(it.ID)
	doc.Links = append(doc.Links,
		Link{Rel: RelCollection, Href: backHref, Type: analyzer.MediaTypeJSON},
		Link{Rel: RelParent, Href: backHref, Type: analyzer.MediaTypeJSON},
	)

	for _, asset := range it.Output.Assets() {
		mediaType, _ := NormalizeMediaType(asset.Key, asset.MediaType, asset.Roles)
		fileName := FileName(asset.Key, mediaType)

		href := w.resolver.AssetHref(it.ID, fileName)
		if asset.HasRole(analyzer.RoleThumbnail) {
			href = w.resolver.ThumbHref(it.ID, fileName)
		}

		doc.Assets[asset.Key] = Asset{
			Href:        href,
			Title:       asset.Title,
			Description: asset.Description,
			Type:        mediaType,
			Roles:       asset.Roles,
		}
	}

	return doc, nil
}

func (w *Writer) extent(p *plan.Plan, start, end time.Time) Extent {
	first := p.Items[0].Feature.Geometry.Bound()
	minLon, minLat := first.Min.Lon(), first.Min.Lat()
	maxLon, maxLat := first.Max.Lon(), first.Max.Lat()

	for _, it := range p.Items[1:] {
		b := it.Feature.Geometry.Bound()
		minLon = min(minLon, b.Min.Lon())
		minLat = min(minLat, b.Min.Lat())
		maxLon = max(maxLon, b.Max.Lon())
		maxLat = max(maxLat, b.Max.Lat())
	}

	startStr := start.UTC().Format(timeFormat)
	endStr := end.UTC().Format(timeFormat)

	return Extent{
		Spatial:  SpatialExtent{Bbox: [][]float64{{minLon, minLat, maxLon, maxLat}}},
		Temporal: TemporalExtent{Interval: [][]*string{{&startStr, &endStr}}},
	}
}

// applySpanProperties encodes the item's time period: instants use the
// datetime property, intervals use start_datetime and end_datetime with
// datetime null.
func applySpanProperties(props map[string]any, it *plan.Item) {
	if it.Span.IsInstant() {
		props["datetime"] = it.Span.Start.UTC().Format(timeFormat)

		return
	}

	props["datetime"] = nil
	props["start_datetime"] = it.Span.Start.UTC().Format(timeFormat)
	props["end_datetime"] = it.Span.End.UTC().Format(timeFormat)
}
