// Package queryparse extracts a structured query from natural-language
// claim text. Extraction is best-effort regex matching; every field
// except the raw text is optional, and absence is an expected state
// rather than an error.
package queryparse

import "time"

// Gender values used in Query.
const (
	GenderMale   = "M"
	GenderFemale = "F"
)

// Query is the best-effort structured form of a claim request.
// Pointer fields are nil when the text gave no signal for them.
type Query struct {
	Age             *int   `json:"age,omitempty"`
	Gender          string `json:"gender,omitempty"` // "M", "F", or empty
	Procedure       string `json:"procedure,omitempty"`
	Location        string `json:"location,omitempty"`
	PolicyAgeMonths *int   `json:"policy_age_months,omitempty"`

	Raw      string    `json:"raw"`
	ParsedAt time.Time `json:"parsed_at"`
}
