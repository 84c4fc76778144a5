package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/analyzer"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/layout"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/plan"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/safeconv"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/stac"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/storage"
)

// State tracks the publisher's position in its per-run state machine.
type State string

// Publisher states.
const (
	StateIdle           State = "idle"
	StateWriting        State = "writing"
	StateVerifying      State = "verifying"
	StateDone           State = "done"
	StatePartialFailure State = "partial_failure"
)

// DefaultMaxRetries bounds the retry count for one upload operation.
const DefaultMaxRetries = 3

// defaultRetryInterval seeds the exponential backoff between attempts.
const defaultRetryInterval = 500 * time.Millisecond

// Publisher writes all plan artifacts to the storage target, strictly
// sequentially, and produces the run manifest. Upload failures are
// absorbed per item; only catalog invariant violations abort the run.
type Publisher struct {
	store      storage.Store
	writer     *stac.Writer
	layout     layout.Layout
	resolver   *stac.HrefResolver
	log        *slog.Logger
	maxRetries uint64
	state      State
}

// New creates a publisher in the idle state.
func New(store storage.Store, writer *stac.Writer, l layout.Layout, resolver *stac.HrefResolver, log *slog.Logger) *Publisher {
	return &Publisher{
		store:      store,
		writer:     writer,
		layout:     l,
		resolver:   resolver,
		log:        log,
		maxRetries: DefaultMaxRetries,
		state:      StateIdle,
	}
}

// State returns the current state of the publisher.
func (p *Publisher) State() State {
	return p.state
}

// Publish runs the writing and verifying phases for one plan and returns
// the run manifest. The returned error is non-nil only for fatal
// conditions (catalog invariant violations); partial failure is reported
// through the manifest status.
func (p *Publisher) Publish(ctx context.Context, pl *plan.Plan, skips []plan.Skip) (*Manifest, error) {
	p.state = StateWriting
	manifest := newManifest(pl, skips, p.store.Description())

	catalog, err := p.writer.Catalog(pl)
	if err != nil {
		p.state = StatePartialFailure

		return nil, fmt.Errorf("build catalog documents: %w", err)
	}

	p.log.Info("publishing plan", "job_id", pl.JobID, "items", pl.ItemCount(), "target", p.store.Description())

	p.writeCollection(ctx, catalog, manifest)
	p.writeItems(ctx, pl, catalog, manifest)
	p.writeOverlay(ctx, pl, manifest)

	p.state = StateVerifying

	verifier := &Verifier{Store: p.store, Layout: p.layout, Resolver: p.resolver, Log: p.log}
	for _, issue := range verifier.Verify(ctx, pl, manifest.Succeeded) {
		manifest.Verification = append(manifest.Verification, issue.String())
	}

	manifest.finalize()
	p.writeManifest(ctx, manifest)

	if manifest.Status == StatusSuccess {
		p.state = StateDone
	} else {
		p.state = StatePartialFailure
	}

	p.log.Info("publish finished",
		"job_id", pl.JobID,
		"status", string(manifest.Status),
		"succeeded", len(manifest.Succeeded),
		"failed", len(manifest.Failed),
		"uploaded", humanize.Bytes(safeconv.MustInt64ToUint64(manifest.BytesUploaded)))

	return manifest, nil
}

func (p *Publisher) writeCollection(ctx context.Context, catalog *stac.Catalog, manifest *Manifest) {
	data, err := json.MarshalIndent(catalog.Collection, "", "  ")
	if err != nil {
		manifest.RunErrors = append(manifest.RunErrors, fmt.Sprintf("encode collection document: %v", err))

		return
	}

	err = p.putRetry(ctx, catalog.CollectionPath, bytesOpener(data), int64(len(data)), analyzer.MediaTypeJSON)
	if err != nil {
		p.log.Error("collection document upload failed", "path", catalog.CollectionPath, "error", err)
		manifest.RunErrors = append(manifest.RunErrors, fmt.Sprintf("upload collection document: %v", err))

		return
	}

	manifest.BytesUploaded += int64(len(data))
}

func (p *Publisher) writeItems(ctx context.Context, pl *plan.Plan, catalog *stac.Catalog, manifest *Manifest) {
	itemByID := make(map[string]*plan.Item, len(pl.Items))
	for _, it := range pl.Items {
		itemByID[it.ID] = it
	}

	for _, entry := range catalog.Items {
		it := itemByID[entry.Doc.ID]

		uploaded, err := p.writeItem(ctx, it, entry)
		manifest.BytesUploaded += uploaded

		if err != nil {
			p.log.Error("item publish failed", "item_id", it.ID, "error", err)
			manifest.Failed = append(manifest.Failed, FailedItem{
				ItemID:    it.ID,
				FeatureID: it.FeatureID(),
				Stage:     "upload",
				Reason:    err.Error(),
			})

			continue
		}

		manifest.Succeeded = append(manifest.Succeeded, it.ID)
	}
}

// writeItem uploads one item document and all of its asset byte sources.
// The first exhausted-retries failure fails the whole item.
func (p *Publisher) writeItem(ctx context.Context, it *plan.Item, entry stac.Entry) (int64, error) {
	var uploaded int64

	data, err := json.MarshalIndent(entry.Doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode item document: %w", err)
	}

	err = p.putRetry(ctx, entry.Path, bytesOpener(data), int64(len(data)), analyzer.MediaTypeJSON)
	if err != nil {
		return 0, fmt.Errorf("upload item document: %w", err)
	}

	uploaded += int64(len(data))

	for _, asset := range it.Output.Assets() {
		mediaType, _ := stac.NormalizeMediaType(asset.Key, asset.MediaType, asset.Roles)
		fileName := stac.FileName(asset.Key, mediaType)

		key := p.layout.AssetPath(it.ID, fileName)
		if asset.HasRole(analyzer.RoleThumbnail) {
			key = p.layout.ThumbPath(it.ID, fileName)
		}

		size, err := asset.Source.Size()
		if err != nil {
			return uploaded, fmt.Errorf("asset %s: %w", asset.Key, err)
		}

		err = p.putRetry(ctx, key, asset.Source.Open, size, mediaType)
		if err != nil {
			return uploaded, fmt.Errorf("upload asset %s: %w", asset.Key, err)
		}

		uploaded += size
	}

	return uploaded, nil
}

func (p *Publisher) writeOverlay(ctx context.Context, pl *plan.Plan, manifest *Manifest) {
	if pl.OverlayPath == "" {
		return
	}

	info, err := os.Stat(pl.OverlayPath)
	if err != nil {
		manifest.RunErrors = append(manifest.RunErrors, fmt.Sprintf("overlay file: %v", err))

		return
	}

	open := func() (io.ReadCloser, error) {
		return os.Open(pl.OverlayPath)
	}

	err = p.putRetry(ctx, p.layout.PMTilesPath(), open, info.Size(), analyzer.MediaTypePMTiles)
	if err != nil {
		p.log.Error("overlay upload failed", "path", p.layout.PMTilesPath(), "error", err)
		manifest.RunErrors = append(manifest.RunErrors, fmt.Sprintf("upload overlay: %v", err))

		return
	}

	manifest.OverlayWritten = true
	manifest.BytesUploaded += info.Size()
}

// writeManifest is best effort: a manifest that cannot be stored is
// still returned to the caller.
func (p *Publisher) writeManifest(ctx context.Context, manifest *Manifest) {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		p.log.Error("encode manifest", "error", err)

		return
	}

	err = p.putRetry(ctx, p.layout.ManifestPath(), bytesOpener(data), int64(len(data)), analyzer.MediaTypeJSON)
	if err != nil {
		p.log.Error("manifest upload failed", "path", p.layout.ManifestPath(), "error", err)
	}
}

// putRetry performs one upload with bounded exponential backoff. The
// open callback re-reads the byte source on every attempt.
func (p *Publisher) putRetry(ctx context.Context, key string, open func() (io.ReadCloser, error), size int64, contentType string) error {
	operation := func() error {
		body, err := open()
		if err != nil {
			return backoff.Permanent(err)
		}

		defer body.Close()

		return p.store.Put(ctx, key, body, size, contentType)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = defaultRetryInterval

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, p.maxRetries), ctx))
}

func bytesOpener(data []byte) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}
