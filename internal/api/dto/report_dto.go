package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/repair-report-service/internal/domain"
)

// CreateReportRequest payload. Accepted both as JSON and as multipart
// form fields; the image travels separately as a file part.
type CreateReportRequest struct {
	Name       string `json:"name" form:"name"`
	Building   string `json:"building" form:"building"`
	RoomNumber string `json:"roomNumber" form:"roomNumber"`
	Details    string `json:"details" form:"details"`
	Category   string `json:"category" form:"category"`
}

// Validate checks presence and the closed building/category sets.
func (r CreateReportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Building, validation.Required, validation.In(buildingValues()...)),
		validation.Field(&r.RoomNumber, validation.Required),
		validation.Field(&r.Details, validation.Required),
		validation.Field(&r.Category, validation.Required, validation.In(categoryValues()...)),
	)
}

// UpdateReportRequest payload for status transitions. Note is a pointer
// so an omitted note leaves the stored value untouched while an explicit
// empty string clears it.
type UpdateReportRequest struct {
	Status string  `json:"status"`
	Note   *string `json:"note"`
}

// Validate checks the status against its closed set.
func (r UpdateReportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(statusValues()...)),
	)
}

func buildingValues() []interface{} {
	vals := make([]interface{}, 0, len(domain.Buildings))
	for _, b := range domain.Buildings {
		vals = append(vals, string(b))
	}
	return vals
}

func categoryValues() []interface{} {
	vals := make([]interface{}, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		vals = append(vals, string(c))
	}
	return vals
}

func statusValues() []interface{} {
	vals := make([]interface{}, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		vals = append(vals, string(s))
	}
	return vals
}
