package calculator

import (
	"brrrr-analyzer/internal/brrrr"
	"brrrr-analyzer/internal/property"
)

// ActionSave is the form action that persists the inputs after a successful
// calculation.
const ActionSave = "save"

// PageResponse is the body of GET /calculator/brrrr: the form to show, pre-filled
// when a saved property was requested.
type PageResponse struct {
	Form       brrrr.Form `json:"form"`
	PropertyID int64      `json:"property_id,omitempty"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// CalculateResponse is the body of POST /calculator/brrrr. Results are the
// zero outputs whenever Error is set by validation.
type CalculateResponse struct {
	Form    brrrr.Form           `json:"form"`
	Results brrrr.Outputs        `json:"results"`
	Saved   *property.SaveResult `json:"saved,omitempty"`
	Message string               `json:"message,omitempty"`
	Error   string               `json:"error,omitempty"`
}
