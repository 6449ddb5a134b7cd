package domain

import (
	"strconv"
	"time"
)

// General placeholder names, as they appear in the report template.
const (
	FieldWorkerName = "NOMBRE"
	FieldDay        = "Nº DIA"
	FieldMonth      = "MES"
	FieldTotalHours = "HORAS TOTALES"
	FieldBolsaHours = "HORAS BOLSA"
	FieldExtraHours = "HORAS EXTRAS"
)

// GeneralFields lists the general placeholders in summary order.
var GeneralFields = []string{FieldWorkerName, FieldDay, FieldMonth, FieldTotalHours, FieldBolsaHours, FieldExtraHours}

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish month name.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// GeneralAnswers holds the day-level answers. Hour fields stay nil until the
// total has been given.
type GeneralAnswers struct {
	WorkerName string
	Day        int
	Month      string
	TotalHours *float64
	BolsaHours *float64
	ExtraHours *float64
}

// SetDate records the day of month and month name of t.
func (a *GeneralAnswers) SetDate(t time.Time) {
	a.Day = t.Day()
	a.Month = MonthName(t.Month())
}

// SetHours records the total and its derived buckets.
func (a *GeneralAnswers) SetHours(b HourBuckets) {
	total, bolsa, extra := b.Total, b.Bolsa, b.Extra
	a.TotalHours, a.BolsaHours, a.ExtraHours = &total, &bolsa, &extra
}

// Fields returns the placeholder values that are known so far.
func (a GeneralAnswers) Fields() map[string]string {
	fields := make(map[string]string, len(GeneralFields))
	if a.WorkerName != "" {
		fields[FieldWorkerName] = a.WorkerName
	}
	if a.Day > 0 {
		fields[FieldDay] = strconv.Itoa(a.Day)
	}
	if a.Month != "" {
		fields[FieldMonth] = a.Month
	}
	if a.TotalHours != nil {
		fields[FieldTotalHours] = FormatHours(*a.TotalHours)
	}
	if a.BolsaHours != nil {
		fields[FieldBolsaHours] = FormatHours(*a.BolsaHours)
	}
	if a.ExtraHours != nil {
		fields[FieldExtraHours] = FormatHours(*a.ExtraHours)
	}
	return fields
}

// SessionRecord is one in-flight or finished timesheet conversation.
type SessionRecord struct {
	ID               string
	Phase            Phase
	Answers          GeneralAnswers
	Projects         []ProjectEntry
	AccumulatedHours float64
	Current          *ProjectEntry
	ArtifactPath     string
	Summary          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewSessionRecord returns a record waiting for the passcode.
func NewSessionRecord(id string, now time.Time) *SessionRecord {
	return &SessionRecord{
		ID:        id,
		Phase:     PhaseAwaitingPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StartProject replaces the in-progress entry.
func (s *SessionRecord) StartProject(c Classification) *ProjectEntry {
	s.Current = NewProjectEntry(c)
	return s.Current
}

// CompleteProject records hours on the in-progress entry and appends it.
func (s *SessionRecord) CompleteProject(hours float64) {
	if s.Current == nil {
		return
	}
	s.Current.Hours = hours
	s.Projects = append(s.Projects, *s.Current)
	s.AccumulatedHours = Round2(s.AccumulatedHours + hours)
	s.Current = nil
}

// HasArtifact reports whether a report has been generated.
func (s *SessionRecord) HasArtifact() bool {
	return s.ArtifactPath != ""
}
