// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

// Kind groups codes by how a boundary should treat them.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindInternal   Kind = "internal"
)

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Check errors
	CodeCheckInvalidTarget Code = "CHECK_INVALID_TARGET"
	CodeCheckInvalidDraw   Code = "CHECK_INVALID_DRAW"

	// Roll errors
	CodeRollEmptyAction  Code = "ROLL_EMPTY_ACTION"
	CodeRollInvalidSides Code = "ROLL_INVALID_SIDES"
	CodeRollEmptyTeam    Code = "ROLL_EMPTY_TEAM"

	// Investigator field errors
	CodeFieldUnknown      Code = "FIELD_UNKNOWN"
	CodeFieldNotResource  Code = "FIELD_NOT_RESOURCE"
	CodeInvestigatorName  Code = "INVESTIGATOR_EMPTY_NAME"
	CodeInvestigatorCard  Code = "INVESTIGATOR_INVALID_CARD_TYPE"
	CodeInvestigatorSkill Code = "INVESTIGATOR_UNKNOWN_SKILL"

	// Log errors
	CodeLogInvalidLimit  Code = "LOG_INVALID_LIMIT"
	CodeLogInvalidFilter Code = "LOG_INVALID_FILTER"
	CodeLogEmptyNote     Code = "LOG_EMPTY_NOTE"

	// Request errors
	CodeRequestMalformed Code = "REQUEST_MALFORMED"

	// Storage errors
	CodeNotFound             Code = "NOT_FOUND"
	CodeInvestigatorNotFound Code = "INVESTIGATOR_NOT_FOUND"
)

// Kind classifies the code.
func (c Code) Kind() Kind {
	switch c {
	case CodeCheckInvalidTarget,
		CodeCheckInvalidDraw,
		CodeRollEmptyAction,
		CodeRollInvalidSides,
		CodeRollEmptyTeam,
		CodeFieldUnknown,
		CodeFieldNotResource,
		CodeInvestigatorName,
		CodeInvestigatorCard,
		CodeInvestigatorSkill,
		CodeLogInvalidLimit,
		CodeLogInvalidFilter,
		CodeLogEmptyNote,
		CodeRequestMalformed:
		return KindValidation

	case CodeNotFound,
		CodeInvestigatorNotFound:
		return KindNotFound

	default:
		return KindInternal
	}
}

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c.Kind() {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
