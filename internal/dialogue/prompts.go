package dialogue

import (
	"fmt"
	"strings"

	"github.com/Povusa/TECNOMAT/internal/domain"
)

var (
	workTypeOptions = []string{"Facturable", "Orden de Trabajo", "No Facturable"}
	yesNoOptions    = []string{domain.LabelYes, domain.LabelNo}
)

const (
	msgPassword         = "Por favor, introduce la contraseña para continuar:"
	msgWrongPassword    = "Contraseña errónea. Por favor, intenta de nuevo:"
	msgAskName          = "¡Contraseña correcta! Voy a ayudarte a completar el parte diario. ¿Cuál es tu nombre?"
	msgNameRequired     = "Por favor, dime tu nombre:"
	msgAskWorkTypeFmt   = "Gracias, %s.\n¿El trabajo es facturable, una orden de trabajo o no facturable?"
	msgAskNextWorkType  = "¿El siguiente trabajo es facturable, una orden de trabajo o no facturable?"
	msgAskWorkOrder     = "¿Qué orden de trabajo es? (Por favor, especifica el nombre o número de la orden)"
	msgAskReportNumber  = "Introduce el número de parte. Si no aplica, escribe \"No aplica\"."
	msgAskReportClosed  = "¿El parte está cerrado?"
	msgAnswerYesNo      = "Por favor, responde Sí o No. ¿El parte está cerrado?"
	msgAskProjectHours  = "¿Cuántas horas has dedicado a este proyecto? (Formato: 2.5 para 2 horas y 30 minutos)"
	msgBadProjectHours  = "Por favor, introduce un número válido (ejemplo: 2.5 para 2 horas y 30 minutos)."
	msgAskMoreProjects  = "¿Has trabajado en algún otro proyecto hoy?"
	msgAskTotalHoursFmt = "¿Cuántas horas totales has trabajado hoy? (Formato: 7.75 para 7 horas y 45 minutos)\nHoras sugeridas: %.2f (suma de todas las horas de proyectos)"
	msgBadTotalHours    = "Por favor, introduce un número válido."
	msgGenerationFailed = "Ha ocurrido un error al procesar el archivo Excel. Por favor, reinicia la sesión e inténtalo de nuevo."
	msgCompletedFmt     = "Procesando tu solicitud...\n\nHoras totales trabajadas: %s horas\nHoras regulares: %s horas\nHoras de bolsa: %s horas\nHoras extras: %s horas\n\n%s\n\n¡Gracias! El archivo Excel ha sido completado."
	msgEmptyAnswer      = "La respuesta no puede estar vacía. "
)

func suggestTotalPrompt(accumulated float64) string {
	return fmt.Sprintf(msgAskTotalHoursFmt, accumulated)
}

func completionMessage(b domain.HourBuckets, summary string) string {
	return fmt.Sprintf(msgCompletedFmt,
		domain.FormatHours(b.Total),
		domain.FormatHours(b.Regular),
		domain.FormatHours(b.Bolsa),
		domain.FormatHours(b.Extra),
		summary,
	)
}

// BuildSummary renders the general answers and every project for the final
// message.
func BuildSummary(s *domain.SessionRecord) string {
	var b strings.Builder
	b.WriteString("✅ Resumen de los datos introducidos:\n\n")

	fields := s.Answers.Fields()
	for _, name := range domain.GeneralFields {
		if v, ok := fields[name]; ok {
			fmt.Fprintf(&b, "• %s: %s\n", name, v)
		}
	}

	b.WriteString("\nProyectos registrados:\n")
	for i, p := range s.Projects {
		fmt.Fprintf(&b, "\nProyecto %d:\n", i+1)
		fmt.Fprintf(&b, "• Tipo: %s\n", p.Classification.Label)
		fmt.Fprintf(&b, "• Nº de parte: %s\n", p.Report)
		fmt.Fprintf(&b, "• Parte cerrado: %s\n", p.Closed.Label())
		fmt.Fprintf(&b, "• Horas: %s\n", domain.FormatHours(p.Hours))
	}
	return b.String()
}
