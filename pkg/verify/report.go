package verify

import (
	"strings"
	"time"
)

// Kind classifies a single verification finding.
type Kind string

// Finding kinds, grouped by the concern that produces them.
const (
	KindOutOfBounds      Kind = "out_of_bounds"
	KindIllegalOverlap   Kind = "illegal_overlap"
	KindUnbalancedLayout Kind = "unbalanced_layout"

	KindLowContrast  Kind = "low_contrast"
	KindTextTooSmall Kind = "text_too_small"
	KindMissingText  Kind = "missing_text"

	KindBlankCanvas    Kind = "blank_canvas"
	KindRenderArtifact Kind = "render_artifact"

	KindInvalidSVG     Kind = "invalid_svg"
	KindColorViolation Kind = "color_violation"
)

// Severity grades a finding. Warnings never fail a layer.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
)

// Issue is a single machine-readable verification finding.
type Issue struct {
	Kind       Kind     `json:"type" bson:"type"`
	Severity   Severity `json:"severity" bson:"severity"`
	Message    string   `json:"message" bson:"message"`
	ElementID  string   `json:"elementId,omitempty" bson:"elementId,omitempty"`
	Suggestion string   `json:"suggestion,omitempty" bson:"suggestion,omitempty"`
}

// LayerStatus is the outcome of one verification layer.
type LayerStatus string

const (
	StatusPass LayerStatus = "pass"
	StatusFail LayerStatus = "fail"
	StatusWarn LayerStatus = "warning"
	StatusSkip LayerStatus = "skipped"
	// StatusAutoCorrected marks a spatial failure repaired by the solver;
	// it does not count against the aggregate result.
	StatusAutoCorrected LayerStatus = "auto_corrected"
)

// Action tells the caller what to do about a failed layer.
type Action string

const (
	// ActionReject means the candidate is unusable and must be regenerated.
	ActionReject Action = "reject"
	// ActionSolver means the finding is correctable by re-running the
	// constraint solver on the structural description.
	ActionSolver Action = "solver"
	// ActionRefine means the finding needs a targeted fix in the next
	// generation attempt, guided by the remediation text.
	ActionRefine Action = "refinement"
)

// Layer names in pipeline order.
const (
	LayerSyntax        = "syntax"
	LayerSpatial       = "spatial"
	LayerLegibility    = "text_readability"
	LayerPalette       = "color_palette"
	LayerRendering     = "rendering"
	LayerVisualBalance = "visual_balance"
)

// LayerResult is the outcome of a single layer. Only status, errors, and
// action are part of the wire format; Issues carries the structured
// findings for programmatic callers.
type LayerResult struct {
	Status LayerStatus `json:"status" bson:"status"`
	Errors []string    `json:"errors" bson:"errors"`
	Action Action      `json:"action,omitempty" bson:"action,omitempty"`

	Issues        []Issue `json:"-" bson:"-"`
	AutoCorrected bool    `json:"-" bson:"-"`
	prompt        string
}

// Report is the aggregate verification outcome. Field names are stable;
// the report is serialized in API responses and job records.
type Report struct {
	Overall LayerStatus            `json:"overall" bson:"overall"`
	Layers  map[string]LayerResult `json:"layers" bson:"layers"`
	// Timestamp is RFC 3339, recorded when verification finished.
	Timestamp   string `json:"timestamp" bson:"timestamp"`
	NeedsSolver bool   `json:"needsSolver" bson:"needsSolver"`
	// RefinementPrompts holds one remediation block per failed layer,
	// in pipeline order.
	RefinementPrompts []string `json:"refinementPrompts" bson:"refinementPrompts"`
}

func newReport() *Report {
	return &Report{
		Overall:   StatusPass,
		Layers:    make(map[string]LayerResult),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// Passed reports whether the candidate cleared every gating layer.
func (r *Report) Passed() bool { return r.Overall == StatusPass }

// Layer returns the named layer's result. The zero result is returned for
// layers that never ran.
func (r *Report) Layer(name string) LayerResult { return r.Layers[name] }

// RefinementText concatenates the per-layer remediation blocks into one
// instruction block for the next generation attempt. Empty when the report
// passed.
func (r *Report) RefinementText() string {
	if len(r.RefinementPrompts) == 0 {
		return ""
	}
	parts := append(
		[]string{"VALIDATION ERRORS - Please fix the following issues:"},
		r.RefinementPrompts...,
	)
	return strings.Join(parts, "\n\n")
}

// messages extracts the message strings from a finding list.
func messages(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Message
	}
	return out
}

// bullets renders findings as an indented bullet list for remediation text.
func bullets(issues []Issue) string {
	var b strings.Builder
	for i, is := range issues {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("  - ")
		b.WriteString(is.Message)
	}
	return b.String()
}
