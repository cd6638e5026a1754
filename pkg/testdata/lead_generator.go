package testdata

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jordanlanch/leadtriage/pkg/classifier"
	"github.com/jordanlanch/leadtriage/pkg/smartlead"
)

// LeadColumns is the header of generated lead files
var LeadColumns = []string{"Name", classifier.ColumnEmail, "Phone", classifier.ColumnLocation, classifier.ColumnIndustry}

// DefaultIndustries are the informal industries picked from when none are configured
var DefaultIndustries = []string{"Dental Clinic", "Roofing", "Pest Control", "Hair Salon", "Auto Repair", "Bakery"}

// LeadGeneratorConfig configures lead generation parameters
type LeadGeneratorConfig struct {
	Count       int
	Seed        int64    // 0 picks a random seed
	Industries  []string // default: DefaultIndustries
	Locations   []string // default: random "City, ST"
	EmailChance float64  // 0.0-1.0 (probability of having email)
	PhoneChance float64
}

// GenerateLeads creates leads shaped like an uploaded lead file. Emails are
// unique within a run.
func GenerateLeads(config LeadGeneratorConfig) []classifier.Lead {
	f := gofakeit.New(config.Seed)
	industries := config.Industries
	if len(industries) == 0 {
		industries = DefaultIndustries
	}

	leads := make([]classifier.Lead, config.Count)
	for i := range leads {
		name := fmt.Sprintf("%s %s", f.Company(), f.BuzzWord())

		var email, phone string
		if f.Float64() < config.EmailChance {
			domain := strings.ToLower(strings.NewReplacer(" ", "", "'", "", ",", "").Replace(name))
			if len(domain) > 20 {
				domain = domain[:20]
			}
			email = fmt.Sprintf("contact%d@%s.com", i, domain)
		}
		if f.Float64() < config.PhoneChance {
			phone = f.Phone()
		}

		location := fmt.Sprintf("%s, %s", f.City(), f.StateAbr())
		if len(config.Locations) > 0 {
			location = f.RandomString(config.Locations)
		}

		leads[i] = classifier.NewLead(LeadColumns, []string{name, email, phone, location, f.RandomString(industries)})
	}
	return leads
}

// LeadsCSV encodes leads as an upload file using the columns of the first lead
func LeadsCSV(leads []classifier.Lead) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	columns := LeadColumns
	if len(leads) > 0 {
		columns = leads[0].Columns
	}
	_ = w.Write(columns)
	for _, l := range leads {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = l.Get(col)
		}
		_ = w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}

// CampaignLeads maps leads with an email to campaign leads. Lead ids start at
// firstID and map ids at firstID*10.
func CampaignLeads(leads []classifier.Lead, firstID int) []smartlead.CampaignLead {
	out := []smartlead.CampaignLead{}
	for _, l := range leads {
		if l.Email() == "" {
			continue
		}
		id := firstID + len(out)
		out = append(out, smartlead.CampaignLead{
			CampaignLeadMapID: id * 10,
			Status:            "STARTED",
			CreatedAt:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Lead: smartlead.Lead{
				ID:       id,
				Email:    l.Email(),
				Location: l.Location(),
			},
		})
	}
	return out
}
