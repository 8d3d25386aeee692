package queryparse

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extraction patterns. Deliberately simple: the decision rules only
// need a handful of fields, and downstream stages cope with absence.
var (
	ageRE       = regexp.MustCompile(`(?i)(\d{1,3})\s*-?\s*(?:y/?o\b|years?|yrs|old)`)
	genderRE    = regexp.MustCompile(`(?i)\b(male|female|m|f)\b`)
	procedureRE = regexp.MustCompile(`(?i)knee surgery|hip replacement|cataract|angioplasty`)
	locationRE  = regexp.MustCompile(`(?i)\b(pune|mumbai|delhi|kolkata|bengaluru)\b`)
	policyAgeRE = regexp.MustCompile(`(?i)(\d{1,2})\s*-?month`)
)

// Enricher optionally fills missing query fields from raw text, e.g.
// via an external LLM. It receives the regex baseline and returns a
// completed query.
type Enricher interface {
	Enrich(ctx context.Context, raw string, baseline Query) (Query, error)
}

// Parser turns raw query text into a Query. The zero value parses with
// regexes only; attach an Enricher to fill gaps when one is available.
type Parser struct {
	enricher Enricher
}

// NewParser creates a parser. enricher may be nil.
func NewParser(enricher Enricher) *Parser {
	return &Parser{enricher: enricher}
}

// Parse extracts structured fields from text. When an enricher is
// configured and baseline extraction left critical fields empty, the
// enricher is consulted; its failure is logged and swallowed so the
// regex baseline always survives.
func (p *Parser) Parse(ctx context.Context, text string) Query {
	q := parseRegex(text)

	if p.enricher != nil && !q.complete() {
		enriched, err := p.enricher.Enrich(ctx, text, q)
		if err != nil {
			log.Printf("query enrichment failed (using regex baseline): %v", err)
			return q
		}
		enriched.Raw = q.Raw
		enriched.ParsedAt = q.ParsedAt
		return enriched
	}

	return q
}

// complete reports whether the fields worth an enrichment round trip
// are all present.
func (q Query) complete() bool {
	return q.Age != nil && q.Procedure != "" && q.Location != ""
}

func parseRegex(text string) Query {
	q := Query{
		Raw:      text,
		ParsedAt: time.Now().UTC(),
	}

	if m := genderRE.FindStringSubmatch(text); m != nil {
		q.Gender = normalizeGender(m[1])
	}
	if m := ageRE.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			q.Age = &v
		}
	}
	if m := procedureRE.FindString(text); m != "" {
		q.Procedure = strings.ToLower(m)
	}
	if m := locationRE.FindStringSubmatch(text); m != nil {
		q.Location = capitalize(m[1])
	}
	if m := policyAgeRE.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			q.PolicyAgeMonths = &v
		}
	}

	return q
}

// normalizeGender maps free-text gender words to "M"/"F". Unrecognized
// values pass through unchanged.
func normalizeGender(s string) string {
	switch strings.ToLower(s) {
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
