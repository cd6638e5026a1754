package leadimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jordanlanch/leadtriage/pkg/classifier"
	"github.com/jordanlanch/leadtriage/pkg/domain"
	"github.com/jordanlanch/leadtriage/pkg/phone"
	"golang.org/x/text/unicode/norm"
)

// CSVConfig holds configuration for parsing an uploaded lead file
type CSVConfig struct {
	MaxRows         int    // Maximum data rows (0 = unlimited)
	NormalizePhones bool   // Rewrite Phone/phone columns to E.164 when valid
	PhoneRegion     string // Default region for numbers without a country code
}

// DefaultCSVConfig returns default configuration
func DefaultCSVConfig() CSVConfig {
	return CSVConfig{
		MaxRows:     10000, // Limit to 10k rows per upload
		PhoneRegion: phone.DefaultRegion,
	}
}

var phoneColumns = []string{"Phone", "phone"}

// ParseCSV reads an uploaded lead file. The header row is required and every
// following non-blank row becomes one lead keyed by header name. Header names
// and values are converted to NFC so decomposed text compares equal to the
// composed form the campaign platform returns.
func ParseCSV(r io.Reader, cfg CSVConfig) ([]classifier.Lead, error) {
	csvReader := csv.NewReader(stripBOM(r))
	csvReader.FieldsPerRecord = -1 // Variable number of fields

	header, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.NewValidationError("lead file is empty", nil)
	}
	if err != nil {
		return nil, domain.NewValidationError("failed to read CSV header", err)
	}
	for i := range header {
		header[i] = norm.NFC.String(strings.TrimSpace(header[i]))
	}

	leads := []classifier.Lead{}
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewValidationError("failed to read CSV row", err)
		}
		if blank(record) {
			continue
		}
		for i := range record {
			record[i] = norm.NFC.String(record[i])
		}
		if cfg.MaxRows > 0 && len(leads) >= cfg.MaxRows {
			return nil, domain.NewValidationError(fmt.Sprintf("lead file exceeds the %d row limit", cfg.MaxRows), nil)
		}

		lead := classifier.NewLead(header, record)
		if cfg.NormalizePhones {
			normalizePhones(lead, cfg.PhoneRegion)
		}
		leads = append(leads, lead)
	}

	return leads, nil
}

func normalizePhones(lead classifier.Lead, region string) {
	for _, col := range phoneColumns {
		if v, ok := lead.Values[col]; ok {
			if e164, valid := phone.NormalizeE164(strings.TrimSpace(v), region); valid {
				lead.Values[col] = e164
			}
		}
	}
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// stripBOM drops a UTF-8 byte order mark so the first header name matches
func stripBOM(r io.Reader) io.Reader {
	raw, err := io.ReadAll(r)
	if err != nil {
		return &errReader{err: err}
	}
	return bytes.NewReader(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")))
}

type errReader struct{ err error }

func (e *errReader) Read([]byte) (int, error) { return 0, e.err }
