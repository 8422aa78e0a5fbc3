package domain

import "time"

// Building identifies a campus building.
type Building string

const (
	BuildingUB  Building = "UB"
	BuildingCE  Building = "CE"
	BuildingICT Building = "ICT"
	BuildingPKY Building = "PKY"
)

// Buildings lists all accepted building codes.
var Buildings = []Building{BuildingUB, BuildingCE, BuildingICT, BuildingPKY}

// Valid reports whether the building code is known.
func (b Building) Valid() bool {
	for _, known := range Buildings {
		if b == known {
			return true
		}
	}
	return false
}

// Category identifies the kind of equipment being reported.
type Category string

const (
	CategoryMicrophone     Category = "ไมค์โครโฟน"
	CategoryInternet       Category = "อินเตอร์เน็ต"
	CategoryProjector      Category = "โปรเจคเตอร์"
	CategoryDisplay        Category = "จอแสดงภาพ"
	CategorySpeaker        Category = "ลำโพง"
	CategoryAirConditioner Category = "เครื่องปรับอากาศ"
	CategoryOther          Category = "อื่นๆ"
)

// Categories lists all accepted equipment categories.
var Categories = []Category{
	CategoryMicrophone,
	CategoryInternet,
	CategoryProjector,
	CategoryDisplay,
	CategorySpeaker,
	CategoryAirConditioner,
	CategoryOther,
}

// Valid reports whether the category is known.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ReportStatus tracks triage progress of a report.
type ReportStatus string

const (
	StatusPending    ReportStatus = "รอดำเนินการ"
	StatusInProgress ReportStatus = "กำลังดำเนินการ"
	StatusDone       ReportStatus = "เสร็จสิ้น"
)

// Statuses lists all accepted report statuses.
var Statuses = []ReportStatus{StatusPending, StatusInProgress, StatusDone}

// Valid reports whether the status is known.
func (s ReportStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Report is a single repair ticket. Status and Note are the only fields
// mutable after creation, and only by an admin; everything else is set
// once at submission.
type Report struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Building   Building     `json:"building"`
	RoomNumber string       `json:"roomNumber"`
	Details    string       `json:"details"`
	Category   Category     `json:"category"`
	ImagePath  string       `json:"imagePath,omitempty"`
	ReportDate time.Time    `json:"reportDate"`
	Status     ReportStatus `json:"status"`
	Note       string       `json:"note,omitempty"`
	CreatedBy  string       `json:"createdBy"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}
