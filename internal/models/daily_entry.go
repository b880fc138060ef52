package models

// EntryStatus is the authorization state of a daily submission
type EntryStatus string

const (
	EntryStatusPending    EntryStatus = "pending"
	EntryStatusAuthorized EntryStatus = "authorized"
)

// DateLayout is the day-granularity format used for entry dates
const DateLayout = "2006-01-02"

// DailyEntry is one staff submission of KPI values for a day
type DailyEntry struct {
	ID           string             `json:"id"`
	StaffID      string             `json:"staffId"`
	StaffName    string             `json:"staffName"`
	Date         string             `json:"date"`
	Metrics      map[string]float64 `json:"metrics"`
	Status       EntryStatus        `json:"status"`
	AuthorizedBy string             `json:"authorizedBy,omitempty"`
}

// Clone returns a copy with its own metrics map
func (e DailyEntry) Clone() DailyEntry {
	if e.Metrics != nil {
		m := make(map[string]float64, len(e.Metrics))
		for k, v := range e.Metrics {
			m[k] = v
		}
		e.Metrics = m
	}
	return e
}

// EntryInput is the staff payload for submitting metrics
type EntryInput struct {
	Date    string             `json:"date"`
	Metrics map[string]float64 `json:"metrics" binding:"required"`
}

// RejectInput carries the mandatory reason for rejecting an entry
type RejectInput struct {
	Reason string `json:"reason" binding:"required"`
}
