package types

import "github.com/lib/pq"

// MarineLifeItem is species reference data. Items are independently owned
// and referenced by tours via the tour_marine_life association; deleting a
// tour never touches these rows.
type MarineLifeItem struct {
	ID              string         `json:"id" gorm:"primary_key;type:varchar(36)"`
	Name            string         `json:"name"`
	ScientificName  string         `json:"scientificName"`
	Description     string         `json:"description"`
	LongDescription string         `json:"longDescription,omitempty"`
	ImageURL        string         `json:"imageUrl"`
	AnimalType      string         `json:"animalType"`
	Seasons         pq.StringArray `json:"seasons" gorm:"type:text[]"`
	ActiveMonths    pq.Int64Array  `json:"activeMonths" gorm:"type:integer[]"`
	Slug            string         `json:"slug"`
}
