package constants

import (
	"database/sql/driver"
	"fmt"
)

// ReportType discriminates the report variants a captain can file.
type ReportType string

const (
	ReportDeparture         ReportType = "departure"
	ReportNoon              ReportType = "noon"
	ReportArrival           ReportType = "arrival"
	ReportArrivalAnchorNoon ReportType = "arrival_anchor_noon"
	ReportBerth             ReportType = "berth"
)

// ReportTypes lists every variant in business order.
var ReportTypes = []ReportType{
	ReportDeparture,
	ReportNoon,
	ReportArrival,
	ReportArrivalAnchorNoon,
	ReportBerth,
}

func (t ReportType) String() string { return string(t) }

// Valid reports whether t is a known report type.
func (t ReportType) Valid() bool {
	for _, known := range ReportTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t *ReportType) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = ""
	case string:
		*t = ReportType(v)
	case []byte:
		*t = ReportType(v)
	default:
		return fmt.Errorf("ReportType: cannot scan type %T", src)
	}
	return nil
}

func (t ReportType) Value() (driver.Value, error) { return string(t), nil }

// ReportStatus is the review status of a report.
type ReportStatus string

const (
	StatusPending          ReportStatus = "pending"
	StatusApproved         ReportStatus = "approved"
	StatusRejected         ReportStatus = "rejected"
	StatusChangesRequested ReportStatus = "changes_requested"
)

func (s ReportStatus) String() string { return string(s) }

// Outstanding reports whether the status still awaits resolution.
func (s ReportStatus) Outstanding() bool {
	return s == StatusPending || s == StatusChangesRequested
}

func (s *ReportStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = ""
	case string:
		*s = ReportStatus(v)
	case []byte:
		*s = ReportStatus(v)
	default:
		return fmt.Errorf("ReportStatus: cannot scan type %T", src)
	}
	return nil
}

func (s ReportStatus) Value() (driver.Value, error) { return string(s), nil }
