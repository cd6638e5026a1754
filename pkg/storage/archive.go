package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/classifier"
	"github.com/jordanlanch/leadtriage/pkg/export"
	"github.com/jordanlanch/leadtriage/pkg/logger"
	"github.com/jordanlanch/leadtriage/pkg/metrics"
)

// Artifact is an uploaded lead table
type Artifact struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ArtifactName is filtered-leads-<label>-<YYYY-MM-DD>.<ext>. Path separators in
// the label are replaced so the name stays a single object key segment.
func ArtifactName(campaignLabel string, format export.Format, now time.Time) string {
	label := strings.NewReplacer("/", "-", `\`, "-").Replace(campaignLabel)
	return fmt.Sprintf("filtered-leads-%s-%s.%s", label, now.Format("2006-01-02"), format.Extension())
}

// Archiver uploads flagged leads for operator review
type Archiver struct {
	store   Store
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewArchiver creates a new archiver
func NewArchiver(store Store, log logger.Logger, m *metrics.Metrics) *Archiver {
	if log == nil {
		log = logger.Default()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Archiver{store: store, logger: log.With("component", "storage"), metrics: m}
}

// ArchiveFilteredLeads encodes leads with the columns of the uploaded file and
// uploads them, overwriting an artifact of the same name
func (a *Archiver) ArchiveFilteredLeads(ctx context.Context, campaignLabel string, leads []classifier.Lead, format export.Format, now time.Time) (*Artifact, error) {
	columns := export.ColumnsOf(leads)

	var buf bytes.Buffer
	if err := export.Encode(&buf, format, columns, export.Table(columns, leads)); err != nil {
		return nil, fmt.Errorf("failed to encode filtered leads: %w", err)
	}

	name := ArtifactName(campaignLabel, format, now)
	url, err := a.store.Put(ctx, name, format.ContentType(), buf.Bytes())
	if err != nil {
		a.logger.Error("failed to upload filtered leads", "name", name, "error", err)
		return nil, err
	}

	a.metrics.RecordArtifactUploaded(a.store.Backend())
	a.logger.Info("filtered leads uploaded", "name", name, "leads", len(leads), "backend", a.store.Backend())
	return &Artifact{Name: name, URL: url}, nil
}
