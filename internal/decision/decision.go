// Package decision maps a structured query and retrieved clauses to an
// approved/rejected claim decision. Evaluation is a pure function: no
// state, no I/O, and it never fails. Missing query fields degrade to
// placeholder text in the justification.
package decision

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/claimsift/claimsift/internal/clause"
	"github.com/claimsift/claimsift/internal/queryparse"
)

// Decision outcomes.
const (
	Approved = "approved"
	Rejected = "rejected"
)

// maxCitedClauses caps how many clause IDs the justification cites.
const maxCitedClauses = 3

// payoutRE matches payout statements of the form "... up to Rs
// <number>" ("payout up to Rs 50,000", "covered up to Rs 100000").
// The number may carry thousands separators.
var payoutRE = regexp.MustCompile(`(?i)\bup\s+to\s+rs\.?\s*(\d[\d,]*)`)

// Record is the final verdict with justification and the clauses that
// support it. Immutable once constructed.
type Record struct {
	Decision      string          `json:"decision"`
	Amount        *float64        `json:"amount"`
	Justification string          `json:"justification"`
	Clauses       []clause.Clause `json:"clauses"`
}

// Evaluate applies the coverage rules to the retrieved clauses:
//
//  1. The claim is approved if any clause mentions the queried
//     procedure and that clause does not say "not covered".
//  2. If any clause states "payout up to Rs N", the amount is
//     included; when several clauses carry the pattern, the last one
//     in retrieval order wins.
func Evaluate(q queryparse.Query, clauses []clause.Clause) Record {
	procedure := strings.ToLower(q.Procedure)
	approved := false
	var amount *float64

	for _, c := range clauses {
		text := strings.ToLower(c.Text)
		if procedure != "" && strings.Contains(text, procedure) && !strings.Contains(text, "not covered") {
			approved = true
		}
		if m := payoutRE.FindStringSubmatch(text); m != nil {
			raw := strings.ReplaceAll(m[1], ",", "")
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				amount = &v
			}
		}
	}

	outcome := Rejected
	if approved {
		outcome = Approved
	}

	return Record{
		Decision:      outcome,
		Amount:        amount,
		Justification: renderJustification(outcome, amount, clauses, q),
		Clauses:       clauses,
	}
}

func renderJustification(outcome string, amount *float64, clauses []clause.Clause, q queryparse.Query) string {
	procedure := q.Procedure
	if procedure == "" {
		procedure = "procedure"
	}

	policyAge := "N/A"
	if q.PolicyAgeMonths != nil {
		policyAge = strconv.Itoa(*q.PolicyAgeMonths)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Claim for %s has been %s. (Policy age: %s months)",
		procedure, strings.ToUpper(outcome), policyAge)

	if amount != nil {
		fmt.Fprintf(&b, " Payout: Rs %.2f.", *amount)
	}

	cited := clauses
	if len(cited) > maxCitedClauses {
		cited = cited[:maxCitedClauses]
	}
	ids := make([]string, len(cited))
	for i, c := range cited {
		ids[i] = c.ID
	}
	fmt.Fprintf(&b, " Based on clauses: %s.", strings.Join(ids, ", "))

	return b.String()
}
