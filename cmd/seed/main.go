// seed loads a minimal set of reference data and one sample tour so a
// fresh environment has something to render.
package main

import (
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/lib/pq"
	"github.com/seatrek/toursapi/types"
)

func main() {
	db, err := gorm.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	db.AutoMigrate(&types.Tour{}, &types.Schedule{}, &types.ItineraryDay{},
		&types.MarineLifeItem{}, &types.TourType{}, &types.Category{},
		&types.Guide{}, &types.Location{})

	start := types.Location{ID: uuid.New().String(), Name: "Harbour Marina", Latitude: 25.7617, Longitude: -80.1918}
	end := types.Location{ID: uuid.New().String(), Name: "South Reef Dock", Latitude: 25.7616, Longitude: -80.1917}
	if err := db.Create(&start).Error; err != nil {
		log.Fatal(err)
	}
	if err := db.Create(&end).Error; err != nil {
		log.Fatal(err)
	}

	dolphin := types.MarineLifeItem{
		ID:             uuid.New().String(),
		Name:           "Bottlenose Dolphin",
		ScientificName: "Tursiops truncatus",
		Description:    "A friendly dolphin",
		AnimalType:     "MAMMAL",
		Seasons:        pq.StringArray{"SPRING", "SUMMER"},
		ActiveMonths:   pq.Int64Array{1, 2, 3, 4},
		Slug:           "bottlenose-dolphin",
	}
	if err := db.Create(&dolphin).Error; err != nil {
		log.Fatal(err)
	}

	category := types.Category{ID: types.DefaultCategoryID, Name: "Marine Experience"}
	db.FirstOrCreate(&category, types.Category{ID: types.DefaultCategoryID})

	tourType := types.TourType{ID: uuid.New().String(), Name: "Coastal Expedition", Description: "Day trips along the coast"}
	if err := db.Create(&tourType).Error; err != nil {
		log.Fatal(err)
	}

	tour := types.Tour{
		ID:              uuid.New().String(),
		Name:            "Test Marine Tour",
		Description:     "A test tour description that's detailed enough",
		Difficulty:      types.DifficultyModerate,
		Duration:        4,
		BasePrice:       100,
		MaxParticipants: 10,
		SafetyBriefing:  "Safety first!",
		Published:       true,
		CategoryID:      types.DefaultCategoryID,
		TourTypeID:      tourType.ID,
		StartLocationID: start.ID,
		EndLocationID:   end.ID,
		MarineLife:      []types.MarineLifeItem{dolphin},
		MarineLifeIDs:   pq.StringArray{dolphin.ID},
		MarineLifeNames: pq.StringArray{dolphin.Name},
		Highlights:      pq.StringArray{"Highlight 1", "Highlight 2"},
		Inclusions:      pq.StringArray{"Inclusion 1", "Inclusion 2"},
		Exclusions:      pq.StringArray{"Exclusion 1", "Exclusion 2"},
		Images:          pq.StringArray{},
	}
	if err := db.Create(&tour).Error; err != nil {
		log.Fatal(err)
	}

	log.Println("seeded tour", tour.ID)
}
