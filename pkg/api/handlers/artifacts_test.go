package handlers

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jordanlanch/leadtriage/pkg/export"
	"github.com/jordanlanch/leadtriage/pkg/storage"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactHandler_Download(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080/artifacts")
	require.NoError(t, err)

	name := "filtered-leads-Campaign ID: 1, name: Spring-2024-03-01.tsv"
	_, err = store.Put(context.Background(), name, export.FormatTSV.ContentType(), []byte("Email\na@example.com\n"))
	require.NoError(t, err)

	h := NewArtifactHandler(store)

	tests := []struct {
		name       string
		artifact   string
		wantStatus int
		wantType   string
		wantBody   string
	}{
		{"stored artifact", name, http.StatusOK, "text/tab-separated-values", "Email\na@example.com\n"},
		{"unknown artifact", "missing.tsv", http.StatusNotFound, "", ""},
		{"path traversal", "..", http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONContext(http.MethodGet, "/artifacts/x", "", "name", tt.artifact)
			require.NoError(t, h.Download(c))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
		})
	}
}

func TestArtifactHandler_DownloadStoredLink(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), storage.DefaultLocalURL)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/api/v1/artifacts/:name", NewArtifactHandler(store).Download)
	srv := httptest.NewServer(e)
	defer srv.Close()

	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	labels := []string{
		"Spring",
		"Spring #2",
		"Q1 ? promo",
		"50% off",
		"Campaign ID: 1, name: Spring; EU",
		"Café Ñandú",
	}

	for _, label := range labels {
		t.Run(label, func(t *testing.T) {
			name := storage.ArtifactName(label, export.FormatTSV, now)
			body := "Email\n" + label + "@example.com\n"
			link, err := store.Put(context.Background(), name, export.FormatTSV.ContentType(), []byte(body))
			require.NoError(t, err)

			resp, err := http.Get(srv.URL + link)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			got, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, body, string(got))

			disposition, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
			require.NoError(t, err)
			assert.Equal(t, "attachment", disposition)
			assert.Equal(t, name, params["filename"])
		})
	}
}
