package dialogue

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/Povusa/TECNOMAT/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Answer is a yes/no reply after normalization.
type Answer int

const (
	AnswerUnknown Answer = iota
	AnswerYes
	AnswerNo
)

var yesNoSynonyms = map[string]Answer{
	"si":    AnswerYes,
	"s":     AnswerYes,
	"yes":   AnswerYes,
	"y":     AnswerYes,
	"vale":  AnswerYes,
	"claro": AnswerYes,
	"no":    AnswerNo,
	"n":     AnswerNo,
}

var workKindSynonyms = map[string]domain.WorkKind{
	"orden de trabajo": domain.WorkOrder,
	"orden trabajo":    domain.WorkOrder,
	"orden":            domain.WorkOrder,
	"ot":               domain.WorkOrder,
	"work order":       domain.WorkOrder,
	"no facturable":    domain.WorkNonBillable,
	"nofacturable":     domain.WorkNonBillable,
	"non billable":     domain.WorkNonBillable,
	"non-billable":     domain.WorkNonBillable,
	"facturable":       domain.WorkBillable,
	"billable":         domain.WorkBillable,
}

var notApplicable = map[string]bool{
	"no aplica": true,
	"n/a":       true,
}

// Normalize trims, strips accents and surrounding punctuation, case-folds and
// collapses inner whitespace, so "  ¡Sí! " and "si" compare equal.
func Normalize(s string) string {
	// Transformers keep state; build a fresh chain per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = cases.Fold().String(out)
	out = strings.TrimFunc(out, func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '/')
	})
	return strings.Join(strings.Fields(out), " ")
}

// ParseYesNo maps a free-text reply onto AnswerYes or AnswerNo.
func ParseYesNo(s string) Answer {
	return yesNoSynonyms[Normalize(s)]
}

// ParseWorkKind maps a work-type reply onto a kind. Anything unrecognized is
// billable work labelled with the reply itself.
func ParseWorkKind(s string) domain.WorkKind {
	if k, ok := workKindSynonyms[Normalize(s)]; ok {
		return k
	}
	return domain.WorkBillable
}

// IsNotApplicable reports whether a report-number reply means "no report".
func IsNotApplicable(s string) bool {
	return notApplicable[Normalize(s)]
}

// ParseHours reads a non-negative decimal, accepting ',' as separator.
func ParseHours(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
