package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/classifier"
	"github.com/jordanlanch/leadtriage/pkg/directory"
	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/export"
	"github.com/jordanlanch/leadtriage/pkg/models"
	"github.com/jordanlanch/leadtriage/pkg/smartlead"
	"github.com/jordanlanch/leadtriage/pkg/storage"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// newJSONContext builds a context for a JSON request. params are name/value pairs.
func newJSONContext(method, target, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setParams(c, params...)
	return c, rec
}

// newMultipartContext builds a context for a file upload with extra form fields
func newMultipartContext(t *testing.T, target string, file []byte, fields map[string]string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if file != nil {
		part, err := w.CreateFormFile("file", "leads.csv")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setParams(c, params...)
	return c, rec
}

func setParams(c echo.Context, params ...string) {
	if len(params) == 0 {
		return
	}
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	return decode[models.ErrorResponse](t, rec)
}

type fakeCampaigns struct {
	campaigns []smartlead.Campaign
	stats     map[int]*smartlead.Statistics
	err       error
	refreshed int
}

func (f *fakeCampaigns) ListCampaigns(ctx context.Context) ([]smartlead.Campaign, error) {
	return f.campaigns, f.err
}

func (f *fakeCampaigns) RefreshCampaigns(ctx context.Context) ([]smartlead.Campaign, error) {
	f.refreshed++
	return f.campaigns, f.err
}

func (f *fakeCampaigns) GetCampaign(ctx context.Context, id int) (*smartlead.Campaign, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.campaigns {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, domain.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Campaign %d not found", id))
}

func (f *fakeCampaigns) GetCampaignStatistics(ctx context.Context, id int) (*smartlead.Statistics, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.stats[id]; ok {
		return s, nil
	}
	return nil, domain.NewHTTPError(http.StatusNotFound, "Campaign not found")
}

type fakeDirectory struct {
	orgs      []directory.Organization
	campaigns map[string][]int
	err       error
}

func (d *fakeDirectory) ActiveOrganizations(ctx context.Context) ([]directory.Organization, error) {
	return d.orgs, d.err
}

func (d *fakeDirectory) Organization(ctx context.Context, id string) (*directory.Organization, error) {
	for _, o := range d.orgs {
		if o.ID == id {
			o := o
			return &o, nil
		}
	}
	return nil, domain.NewNotFoundError("organization " + id)
}

func (d *fakeDirectory) CampaignIDsForOrganization(ctx context.Context, id string) ([]int, error) {
	return d.campaigns[id], nil
}

type fakeLeadClient struct {
	*fakeCampaigns
	leads     []smartlead.CampaignLead
	listErr   error
	deleteErr error
	deleted   []int
}

func (f *fakeLeadClient) ListLeads(ctx context.Context, id int, filter smartlead.LeadFilter) ([]smartlead.CampaignLead, error) {
	return f.leads, f.listErr
}

func (f *fakeLeadClient) DeleteLeads(ctx context.Context, id int, leadIDs, mapIDs []int) (map[string]any, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, leadIDs...)
	return map[string]any{"affected_rows": len(leadIDs)}, nil
}

// industryClassifier flags leads of the blocklisted industries, compared as given
type industryClassifier struct{}

func (industryClassifier) Classify(ctx context.Context, leads []classifier.Lead, c classifier.Criteria, progress classifier.ProgressFunc) (*classifier.Result, error) {
	blocked := map[string]bool{}
	for _, ind := range strings.Split(c.BlocklistedIndustries, ";") {
		if ind = strings.TrimSpace(ind); ind != "" {
			blocked[ind] = true
		}
	}
	res := &classifier.Result{Flagged: []classifier.Lead{}, Decisions: make([]classifier.Decision, len(leads)), Batches: 1}
	for i, l := range leads {
		if blocked[l.Industry()] {
			res.Flagged = append(res.Flagged, l)
			res.Decisions[i] = classifier.Decision{Remove: true, Reason: classifier.ReasonBlocklistedIndustry}
		}
	}
	return res, nil
}

type fakeArchiver struct {
	archived []classifier.Lead
}

func (a *fakeArchiver) ArchiveFilteredLeads(ctx context.Context, label string, leads []classifier.Lead, format export.Format, now time.Time) (*storage.Artifact, error) {
	a.archived = leads
	name := storage.ArtifactName(label, format, now)
	return &storage.Artifact{Name: name, URL: "http://localhost:8080/artifacts/" + name}, nil
}
