package classifier

import (
	"context"
	"fmt"
	"strings"
)

// Answerer answers a single system/user prompt pair
type Answerer interface {
	Ask(ctx context.Context, system, user string, temperature float32) (string, error)
}

// Criteria are the raw semicolon-delimited filter lists entered by the operator
type Criteria struct {
	BlocklistedIndustries string `json:"blocklisted_industries"`
	WhitelistedIndustries string `json:"whitelisted_industries"`
	WhitelistedAreas      string `json:"whitelisted_areas"`
}

// Empty reports whether no filter list is set
func (c Criteria) Empty() bool {
	return c.BlocklistedIndustries == "" && c.WhitelistedIndustries == "" && c.WhitelistedAreas == ""
}

// Reason names the predicate that flagged a lead
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonOutsideArea         Reason = "outside_whitelisted_area"
	ReasonBlocklistedIndustry Reason = "blocklisted_industry"
	ReasonOutsideIndustry     Reason = "outside_whitelisted_industry"
)

type predicate struct {
	reason      Reason
	temperature float32
	flagOn      string
	value       func(Lead) string
	list        func(Criteria) string
	system      func(list string) string
	user        func(value string) string
}

// predicates run in this order; the first one answering flagOn removes the lead
var predicates = []predicate{
	{
		reason:      ReasonOutsideArea,
		temperature: 0.7,
		flagOn:      "no",
		value:       Lead.Location,
		list:        func(c Criteria) string { return c.WhitelistedAreas },
		system: func(list string) string {
			return "You are a helpful assistant that filters addresses based on whitelisted areas. " +
				"The whitelisted areas are:\n" + delimited(list)
		},
		user: func(location string) string {
			return fmt.Sprintf("Is the address %s located within any of the whitelisted areas? "+
				"You answer should strictly be 'yes' or 'no'", location)
		},
	},
	{
		reason:      ReasonBlocklistedIndustry,
		temperature: 0.7,
		flagOn:      "yes",
		value:       Lead.Industry,
		list:        func(c Criteria) string { return c.BlocklistedIndustries },
		system: func(list string) string {
			return "You are a helpful assistant that filters industries based on blocklisted industries:\n" + delimited(list)
		},
		user: func(industry string) string {
			return fmt.Sprintf("Does the industry %s match any of the blocklisted industries? "+
				"Answer strictly 'yes' or 'no'", industry)
		},
	},
	{
		reason:      ReasonOutsideIndustry,
		temperature: 0.2,
		flagOn:      "no",
		value:       Lead.Industry,
		list:        func(c Criteria) string { return c.WhitelistedIndustries },
		system: func(list string) string {
			return "You are a helpful assistant that filters industries based on whitelisted industries:\n" + delimited(list)
		},
		user: func(industry string) string {
			return fmt.Sprintf("Does the industry %s stay within any of the whitelisted industries? "+
				"Answer strictly 'yes' or 'no'", industry)
		},
	},
}

func delimited(list string) string {
	return strings.ReplaceAll(list, ";", "\n")
}

func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// answerLabel bounds the metric label to yes, no and other
func answerLabel(answer string) string {
	switch answer {
	case "yes", "no":
		return answer
	default:
		return "other"
	}
}

// evaluate asks the predicate's question. A predicate with an empty value or an
// empty list is skipped and never reaches the model.
func (s *Service) evaluate(ctx context.Context, p predicate, lead Lead, c Criteria) (bool, error) {
	value, list := p.value(lead), p.list(c)
	if value == "" || list == "" {
		return false, nil
	}

	answer, err := s.answerer.Ask(ctx, p.system(list), p.user(value), p.temperature)
	if err != nil {
		return false, fmt.Errorf("%s check failed: %w", p.reason, err)
	}
	answer = normalizeAnswer(answer)
	s.metrics.RecordLLMCall(string(p.reason), answerLabel(answer))
	return answer == p.flagOn, nil
}
