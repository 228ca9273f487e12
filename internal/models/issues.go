package models

// Severity distinguishes issues that block publishing from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IssueCode identifies the kind of validation issue.
type IssueCode string

const (
	// Flow validation.
	CodeMissingTarget       IssueCode = "MISSING_TARGET"
	CodeBackwardsJump       IssueCode = "BACKWARDS_JUMP"
	CodeConflictingRules    IssueCode = "CONFLICTING_RULES"
	CodeMalformedCondition  IssueCode = "MALFORMED_CONDITION"
	CodeUnreachableQuestion IssueCode = "UNREACHABLE_QUESTION"

	// Scoring configuration.
	CodeInvalidBandRange      IssueCode = "INVALID_BAND_RANGE"
	CodeBandOutOfRange        IssueCode = "BAND_OUT_OF_RANGE"
	CodeBandOverlap           IssueCode = "BAND_OVERLAP"
	CodeBandGap               IssueCode = "BAND_GAP"
	CodeNoBandsDefined        IssueCode = "NO_BANDS_DEFINED"
	CodeUnusedCategory        IssueCode = "UNUSED_CATEGORY"
	CodeScorableNoCategory    IssueCode = "SCORABLE_NO_CATEGORY"
	CodeInvalidCategoryRef    IssueCode = "INVALID_CATEGORY_REF"
	CodeMissingOptionScores   IssueCode = "MISSING_OPTION_SCORES"
	CodeWeightImbalance       IssueCode = "WEIGHT_IMBALANCE"
	CodeExtremeWeightVariance IssueCode = "EXTREME_WEIGHT_VARIANCE"
)

// ScoreRange is an inclusive numeric span, used to report band overlaps and gaps.
type ScoreRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ValidationIssue is a structured authoring-time finding. Issues are
// recomputed on every validation pass and never persisted.
type ValidationIssue struct {
	Code       IssueCode   `json:"code"`
	Severity   Severity    `json:"severity"`
	Message    string      `json:"message"`
	QuestionID string      `json:"question_id,omitempty"`
	RuleID     string      `json:"rule_id,omitempty"`
	TargetID   string      `json:"target_id,omitempty"`
	CategoryID string      `json:"category_id,omitempty"`
	BandID     string      `json:"band_id,omitempty"`
	Range      *ScoreRange `json:"range,omitempty"`
}

// CanPublish reports whether the issue set allows publishing: any
// error-severity issue blocks, warnings are advisory only.
func CanPublish(issues []ValidationIssue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return false
		}
	}
	return true
}
