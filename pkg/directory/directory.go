package directory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/metrics"
)

const campaignsQuery = `
SELECT slc."campaignId", slc."platformOrganizationId", po.id, po.name, po.paused
FROM smart_lead_campaigns slc
LEFT JOIN platform_organizations po ON slc."platformOrganizationId" = po.id`

// Row is one campaign joined with its organization. Organization fields are
// invalid when the campaign has no matching organization.
type Row struct {
	CampaignID             int
	PlatformOrganizationID sql.NullString
	OrganizationID         sql.NullString
	OrganizationName       sql.NullString
	OrganizationPaused     sql.NullBool
}

// Active reports whether the row belongs to an organization that is not paused
func (r Row) Active() bool {
	return r.OrganizationID.Valid && r.OrganizationPaused.Valid && !r.OrganizationPaused.Bool
}

// Organization is a platform organization that owns campaigns
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Directory reads the campaign to organization mapping
type Directory struct {
	db      *sql.DB
	metrics *metrics.Metrics
}

// New creates a new campaign directory
func New(db *sql.DB, m *metrics.Metrics) *Directory {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Directory{db: db, metrics: m}
}

// Rows returns every campaign row with its joined organization
func (d *Directory) Rows(ctx context.Context) ([]Row, error) {
	start := time.Now()
	defer func() { d.metrics.RecordDBQuery("campaign_directory", time.Since(start)) }()

	rows, err := d.db.QueryContext(ctx, campaignsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign directory: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.CampaignID, &r.PlatformOrganizationID, &r.OrganizationID, &r.OrganizationName, &r.OrganizationPaused); err != nil {
			return nil, fmt.Errorf("failed to scan campaign directory row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read campaign directory: %w", err)
	}
	return out, nil
}

// ActiveOrganizations returns distinct non-paused organizations in first-seen order
func (d *Directory) ActiveOrganizations(ctx context.Context) ([]Organization, error) {
	rows, err := d.Rows(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	orgs := []Organization{}
	for _, r := range rows {
		if !r.Active() || seen[r.OrganizationID.String] {
			continue
		}
		seen[r.OrganizationID.String] = true
		orgs = append(orgs, Organization{ID: r.OrganizationID.String, Name: r.OrganizationName.String})
	}
	return orgs, nil
}

// Organization returns one active organization
func (d *Directory) Organization(ctx context.Context, orgID string) (*Organization, error) {
	orgs, err := d.ActiveOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orgs {
		if orgs[i].ID == orgID {
			return &orgs[i], nil
		}
	}
	return nil, domain.NewNotFoundError("organization " + orgID)
}

// CampaignIDsForOrganization returns the campaign ids owned by an organization
// in directory order
func (d *Directory) CampaignIDsForOrganization(ctx context.Context, orgID string) ([]int, error) {
	rows, err := d.Rows(ctx)
	if err != nil {
		return nil, err
	}

	ids := []int{}
	for _, r := range rows {
		if r.OrganizationID.Valid && r.OrganizationID.String == orgID {
			ids = append(ids, r.CampaignID)
		}
	}
	return ids, nil
}
