package types

import (
	"time"

	"github.com/lib/pq"
)

// Tour difficulty ratings, from easiest to hardest.
const (
	DifficultyEasy        = "EASY"
	DifficultyModerate    = "MODERATE"
	DifficultyChallenging = "CHALLENGING"
	DifficultyExtreme     = "EXTREME"
)

func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyModerate, DifficultyChallenging, DifficultyExtreme:
		return true
	}
	return false
}

// DefaultCategoryID is used when a tour is created without a category.
const DefaultCategoryID = "MARINE_EXPERIENCE"

// Tour represents a bookable marine expedition offering
type Tour struct {
	ID              string     `json:"id" gorm:"primary_key;type:varchar(36)"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Difficulty      string     `json:"difficulty"`
	Duration        uint       `json:"duration"`
	BasePrice       float64    `json:"basePrice"`
	MaxParticipants uint       `json:"maxParticipants"`
	Published       bool       `json:"published"`
	Deleted         bool       `json:"-" gorm:"default:false"`
	DeletedAt       *time.Time `json:"-"`

	MarineArea     string `json:"marineArea"`
	ExpeditionType string `json:"expeditionType"`
	SafetyBriefing string `json:"safetyBriefing"`

	Highlights        pq.StringArray `json:"highlights" gorm:"type:text[]"`
	Inclusions        pq.StringArray `json:"inclusions" gorm:"type:text[]"`
	Exclusions        pq.StringArray `json:"exclusions" gorm:"type:text[]"`
	Images            pq.StringArray `json:"images" gorm:"type:text[]"`
	RequiredEquipment pq.StringArray `json:"requiredEquipment" gorm:"type:text[]"`
	Seasons           pq.StringArray `json:"seasons" gorm:"type:text[]"`

	// Marine life references are kept both as the association and as the
	// denormalized id/name arrays the listing pages render from.
	MarineLife      []MarineLifeItem `json:"marineLife,omitempty" gorm:"many2many:tour_marine_life"`
	MarineLifeIDs   pq.StringArray   `json:"marineLifeIds" gorm:"type:text[]"`
	MarineLifeNames pq.StringArray   `json:"marineLifeNames" gorm:"type:text[]"`

	CategoryID string    `json:"categoryId"`
	Category   *Category `json:"category,omitempty"`

	TourTypeID string    `json:"tourTypeId"`
	TourType   *TourType `json:"tourType,omitempty"`

	GuideID string `json:"guideId"`
	Guide   *Guide `json:"guide,omitempty"`

	StartLocationID string    `json:"startLocationId"`
	StartLocation   *Location `json:"startLocation,omitempty"`
	EndLocationID   string    `json:"endLocationId"`
	EndLocation     *Location `json:"endLocation,omitempty"`

	Schedules []Schedule     `json:"schedules"`
	Itinerary []ItineraryDay `json:"itinerary"`
}

// ItineraryDay is one day of a tour's itinerary, ordered by DayNumber
type ItineraryDay struct {
	ID          uint   `json:"id" gorm:"primary_key"`
	TourID      string `json:"-" gorm:"type:varchar(36);index"`
	DayNumber   uint   `json:"dayNumber"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TourType is admin-managed reference data classifying tours
type TourType struct {
	ID          string `json:"id" gorm:"primary_key;type:varchar(36)"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Category struct {
	ID          string `json:"id" gorm:"primary_key;type:varchar(64)"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Guide struct {
	ID           string `json:"id" gorm:"primary_key;type:varchar(36)"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
	Bio          string `json:"bio"`
}

type Location struct {
	ID        string  `json:"id" gorm:"primary_key;type:varchar(36)"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
