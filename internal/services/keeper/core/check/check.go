package check

import (
	"fmt"

	apperrors "github.com/keeperdesk/keeperdesk/internal/platform/errors"
)

// Outcome is the graded result of one percentile check.
type Outcome int

const (
	OutcomeUnspecified Outcome = iota
	OutcomeFumble
	OutcomeCriticalSuccess
	OutcomeExtremeSuccess
	OutcomeHardSuccess
	OutcomeRegularSuccess
	OutcomeFailure
)

// Outcomes lists every classifiable tier, worst to best then failure.
var Outcomes = []Outcome{
	OutcomeFumble,
	OutcomeCriticalSuccess,
	OutcomeExtremeSuccess,
	OutcomeHardSuccess,
	OutcomeRegularSuccess,
	OutcomeFailure,
}

func (o Outcome) String() string {
	switch o {
	case OutcomeUnspecified:
		return "Unspecified"
	case OutcomeFumble:
		return "Fumble"
	case OutcomeCriticalSuccess:
		return "Critical success"
	case OutcomeExtremeSuccess:
		return "Extreme success"
	case OutcomeHardSuccess:
		return "Hard success"
	case OutcomeRegularSuccess:
		return "Regular success"
	case OutcomeFailure:
		return "Failure"
	default:
		return "Unknown"
	}
}

// MessageKey is the catalog key of the outcome's localized label.
func (o Outcome) MessageKey() string {
	switch o {
	case OutcomeFumble:
		return "check.outcome.fumble"
	case OutcomeCriticalSuccess:
		return "check.outcome.critical"
	case OutcomeExtremeSuccess:
		return "check.outcome.extreme"
	case OutcomeHardSuccess:
		return "check.outcome.hard"
	case OutcomeRegularSuccess:
		return "check.outcome.regular"
	case OutcomeFailure:
		return "check.outcome.failure"
	default:
		return ""
	}
}

// Succeeded reports whether the outcome is any success tier.
func (o Outcome) Succeeded() bool {
	switch o {
	case OutcomeCriticalSuccess, OutcomeExtremeSuccess, OutcomeHardSuccess, OutcomeRegularSuccess:
		return true
	default:
		return false
	}
}

const (
	// MinDraw and MaxDraw bound a percentile die.
	MinDraw = 1
	MaxDraw = 100

	// fumbleThreshold splits low-skill fumbles (96-100) from high-skill (100).
	fumbleThreshold = 50
	lowSkillFumble  = 96
)

// ErrInvalidTarget indicates a negative target value.
var ErrInvalidTarget = apperrors.New(apperrors.CodeCheckInvalidTarget, "target value must be non-negative")

// ErrInvalidDraw indicates a draw outside the percentile range.
var ErrInvalidDraw = apperrors.New(apperrors.CodeCheckInvalidDraw, "draw must be between 1 and 100")

// Evaluate classifies draw against target.
//
// The tiers are tested in a fixed order: fumble, critical, extreme (one
// fifth of target), hard (half), regular (target), failure. A draw of 1 is
// always critical unless the fumble rule claims it first, which cannot
// happen. With a target of 0 only fumble, critical and failure are
// reachable.
func Evaluate(target, draw int) (Outcome, error) {
	if target < 0 {
		return OutcomeUnspecified, fmt.Errorf("evaluate %d: %w", target, ErrInvalidTarget)
	}
	if draw < MinDraw || draw > MaxDraw {
		return OutcomeUnspecified, fmt.Errorf("evaluate draw %d: %w", draw, ErrInvalidDraw)
	}
	return classify(target, draw), nil
}

// A bare sanity draw is critical at or below SanityCriticalMax and a fumble
// at or above SanityFumbleMin.
const (
	SanityCriticalMax = 5
	SanityFumbleMin   = 96
)

// EvaluateSanity grades a bare 1d100 sanity draw taken without a target.
// Draws between the two bounds report special == false.
func EvaluateSanity(draw int) (outcome Outcome, special bool, err error) {
	if draw < MinDraw || draw > MaxDraw {
		return OutcomeUnspecified, false, fmt.Errorf("evaluate sanity draw %d: %w", draw, ErrInvalidDraw)
	}
	switch {
	case draw <= SanityCriticalMax:
		return OutcomeCriticalSuccess, true, nil
	case draw >= SanityFumbleMin:
		return OutcomeFumble, true, nil
	}
	return OutcomeUnspecified, false, nil
}

func classify(target, draw int) Outcome {
	switch {
	case isFumble(target, draw):
		return OutcomeFumble
	case draw == MinDraw:
		return OutcomeCriticalSuccess
	case draw <= target/5:
		return OutcomeExtremeSuccess
	case draw <= target/2:
		return OutcomeHardSuccess
	case draw <= target:
		return OutcomeRegularSuccess
	default:
		return OutcomeFailure
	}
}

func isFumble(target, draw int) bool {
	if target < fumbleThreshold {
		return draw >= lowSkillFumble
	}
	return draw == MaxDraw
}
