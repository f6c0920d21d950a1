package model

import (
	"strings"
	"time"
)

// MaxProblemFieldLen bounds every text field of a ProblemReport, in runes.
const MaxProblemFieldLen = 500

// ProblemReport is a customer-reported problem with an installed pump.
type ProblemReport struct {
	ID            string    `json:"id"`
	PumpType      string    `json:"pump_type" validate:"required"`
	Problem       string    `json:"problem" validate:"required"`
	Model         string    `json:"model,omitempty"`
	CustomerName  string    `json:"customer_name,omitempty"`
	CustomerPhone string    `json:"customer_phone,omitempty" validate:"omitempty,max=32"`
	SelectionID   string    `json:"selection_id,omitempty" validate:"omitempty,uuid"`
	CreatedAt     time.Time `json:"created_at"`
}

// Sanitize trims every text field and truncates it to MaxProblemFieldLen.
// A report that is blank after trimming fails the required checks.
func (p *ProblemReport) Sanitize() {
	for _, f := range []*string{&p.PumpType, &p.Problem, &p.Model, &p.CustomerName, &p.CustomerPhone, &p.SelectionID} {
		*f = truncateRunes(strings.TrimSpace(*f), MaxProblemFieldLen)
	}
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
