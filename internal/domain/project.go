package domain

import (
	"fmt"
	"strconv"
)

// Project placeholder names, as they appear in the report template.
const (
	FieldClassification = "FACTURABLE O ORDEN DE TRABAJO"
	FieldReportNumber   = "Nº DE PARTE"
	FieldReportClosed   = "PARTE CERRADO"
	FieldProjectHours   = "TOTAL DE HORAS"
)

// ProjectFields lists the project placeholders in template column priority order.
var ProjectFields = []string{FieldClassification, FieldReportNumber, FieldReportClosed, FieldProjectHours}

// Classification is the kind of work plus the label written into the report.
type Classification struct {
	Kind  WorkKind
	Label string
}

// ReportNumber is an optional delivery-report number.
type ReportNumber struct {
	Number     string
	Applicable bool
}

// NotApplicableReport is the report number of work without a delivery report.
var NotApplicableReport = ReportNumber{}

func (r ReportNumber) String() string {
	if !r.Applicable {
		return LabelNotApplicable
	}
	return r.Number
}

// ProjectEntry is one unit of work reported in a day. It is filled across
// several turns and treated as immutable once appended to a session.
type ProjectEntry struct {
	Classification Classification
	Report         ReportNumber
	Closed         ReportClosed
	Hours          float64
}

// NewProjectEntry starts an entry for the given classification. Non-billable
// work never carries a report, so both report fields are settled up front.
func NewProjectEntry(c Classification) *ProjectEntry {
	p := &ProjectEntry{Classification: c}
	if c.Kind == WorkNonBillable {
		p.Classification.Label = LabelNonBillable
		p.MarkReportNotApplicable()
	}
	return p
}

// MarkReportNotApplicable clears the report number and its closed flag together.
func (p *ProjectEntry) MarkReportNotApplicable() {
	p.Report = NotApplicableReport
	p.Closed = ReportClosedNotApplicable
}

// Validate checks the report invariant and the hours value.
func (p *ProjectEntry) Validate() error {
	if p.Classification.Label == "" {
		return fmt.Errorf("project classification is required")
	}
	if p.Report.Applicable == (p.Closed == ReportClosedNotApplicable) {
		return fmt.Errorf("report closed flag %q does not match report number %q", p.Closed, p.Report)
	}
	if p.Hours < 0 {
		return fmt.Errorf("project hours must be non-negative, got %v", p.Hours)
	}
	return nil
}

// Fields returns the placeholder values for this entry.
func (p ProjectEntry) Fields() map[string]string {
	return map[string]string{
		FieldClassification: p.Classification.Label,
		FieldReportNumber:   p.Report.String(),
		FieldReportClosed:   p.Closed.Label(),
		FieldProjectHours:   FormatHours(p.Hours),
	}
}

// FormatHours renders an hour value with the shortest exact decimal form
// ("8", "3.5", "0.25").
func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
