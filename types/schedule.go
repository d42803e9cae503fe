package types

import (
	"encoding/json"
	"time"
)

// Schedule statuses
const (
	ScheduleOpen      = "OPEN"
	ScheduleFull      = "FULL"
	ScheduleCancelled = "CANCELLED"
)

func ValidScheduleStatus(s string) bool {
	switch s {
	case ScheduleOpen, ScheduleFull, ScheduleCancelled:
		return true
	}
	return false
}

// Schedule represents a dated, capacity-bounded instance of a Tour
// that can be booked. Price, when non-nil, overrides the tour's base price.
type Schedule struct {
	ID             string    `json:"id" gorm:"primary_key;type:varchar(36)"`
	TourID         string    `json:"-" gorm:"type:varchar(36);index"`
	StartDate      time.Time `json:"-"`
	EndDate        time.Time `json:"-"`
	Price          *float64  `json:"price"`
	AvailableSpots uint      `json:"availableSpots"`
	Status         string    `json:"status" gorm:"default:'OPEN'"`
}

func (s *Schedule) UnmarshalJSON(data []byte) (err error) {
	type Alias Schedule
	aux := &struct {
		*Alias
		StartDay string `json:"startDate"`
		EndDay   string `json:"endDate"`
	}{
		Alias: (*Alias)(s),
	}

	if err = json.Unmarshal(data, &aux); err != nil {
		return
	}

	if s.StartDate, err = time.Parse("2006-01-02", aux.StartDay); err != nil {
		return
	}
	if s.EndDate, err = time.Parse("2006-01-02", aux.EndDay); err != nil {
		return
	}

	return
}

// MarshalJSON handles the proper date formatting for schedules
func (s *Schedule) MarshalJSON() ([]byte, error) {
	type Alias Schedule
	return json.Marshal(&struct {
		*Alias
		StartDay string `json:"startDate"`
		EndDay   string `json:"endDate"`
	}{
		Alias:    (*Alias)(s),
		StartDay: s.StartDate.Format("2006-01-02"),
		EndDay:   s.EndDate.Format("2006-01-02"),
	})
}
