package domain

// Phase is a step of the timesheet conversation. The string values are the
// wire values the web frontend already understands.
type Phase string

const (
	PhaseAwaitingPassword     Phase = "VERIFICAR_CONTRASENA"
	PhaseAwaitingName         Phase = "NOMBRE"
	PhaseAwaitingWorkType     Phase = "TIPO_TRABAJO"
	PhaseAwaitingWorkOrderID  Phase = "ORDEN_TRABAJO"
	PhaseAwaitingReportNumber Phase = "NUM_PARTE"
	PhaseAwaitingReportClosed Phase = "PARTE_CERRADO"
	PhaseAwaitingProjectHours Phase = "HORAS_PROYECTO"
	PhaseAwaitingMoreProjects Phase = "OTRO_PROYECTO"
	PhaseAwaitingTotalHours   Phase = "HORAS_TOTALES"
	PhaseCompleted            Phase = "COMPLETADO"
	PhaseError                Phase = "ERROR"
)

// Terminal reports whether no further input is accepted in this phase.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

type WorkKind string

const (
	WorkBillable    WorkKind = "billable"
	WorkOrder       WorkKind = "work_order"
	WorkNonBillable WorkKind = "non_billable"
)

type ReportClosed string

const (
	ReportClosedYes           ReportClosed = "yes"
	ReportClosedNo            ReportClosed = "no"
	ReportClosedNotApplicable ReportClosed = "not_applicable"
)

// Display labels written into the report.
const (
	LabelNotApplicable = "No aplica"
	LabelNonBillable   = "No Facturable"
	LabelYes           = "Sí"
	LabelNo            = "No"
)

// Label returns the text written into the report for the closed flag.
func (c ReportClosed) Label() string {
	switch c {
	case ReportClosedYes:
		return LabelYes
	case ReportClosedNo:
		return LabelNo
	case ReportClosedNotApplicable:
		return LabelNotApplicable
	default:
		return ""
	}
}
