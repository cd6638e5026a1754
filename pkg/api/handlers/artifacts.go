package handlers

import (
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/jordanlanch/leadtriage/pkg/api/errors"
	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/export"
	"github.com/labstack/echo/v4"
)

// ArtifactOpener opens stored artifacts by name
type ArtifactOpener interface {
	Open(name string) (io.ReadCloser, error)
}

// ArtifactHandler serves artifacts written by the local storage backend
type ArtifactHandler struct {
	artifacts ArtifactOpener
}

// NewArtifactHandler creates a new artifact handler
func NewArtifactHandler(artifacts ArtifactOpener) *ArtifactHandler {
	return &ArtifactHandler{artifacts: artifacts}
}

// Download godoc
// @Summary Download a filtered leads artifact
// @Tags Artifacts
// @Produce octet-stream
// @Param name path string true "Artifact file name"
// @Success 200 {file} file
// @Failure 400 {object} models.ErrorResponse "Invalid artifact name"
// @Failure 404 {object} models.ErrorResponse "Artifact not found"
// @Router /artifacts/{name} [get]
func (h *ArtifactHandler) Download(c echo.Context) error {
	name := c.Param("name")
	// echo matches on RawPath when the client escaping differs from Go's default, leaving the param escaped
	if c.Request().URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			return errors.FromDomain(c, domain.NewValidationError("invalid artifact name", err))
		}
		name = unescaped
	}

	rc, err := h.artifacts.Open(name)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	defer rc.Close()

	contentType := echo.MIMEOctetStream
	switch filepath.Ext(name) {
	case "." + export.FormatTSV.Extension():
		contentType = export.FormatTSV.ContentType()
	case "." + export.FormatXLSX.Extension():
		contentType = export.FormatXLSX.ContentType()
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	return c.Stream(http.StatusOK, contentType, rc)
}
