package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
	"github.com/seatrek/toursapi/types"
)

func addTourRoutes(router *gin.RouterGroup, db *gorm.DB) {
	router.GET("/tours", ListTours(db))
	router.GET("/tours/:id", GetTour(db))
	router.POST("/tours", checkJWT(), logAdminAction(db), CreateTour(db))
	router.PUT("/tours/:id", checkJWT(), logAdminAction(db), UpdateTour(db))
	router.PATCH("/tours/:id", checkJWT(), logAdminAction(db), UpdateTour(db))
	router.DELETE("/tours/:id", checkJWT(), logAdminAction(db), DeleteTour(db))
	router.GET("/tours/:id/schedules", GetSchedules(db))
	router.PUT("/tours/:id/schedules", checkJWT(), logAdminAction(db), SaveSchedules(db))
}

// visibleTours is the single predicate deciding whether a tour exists for
// public reads. Soft-deleted rows stay in storage but never pass it.
func visibleTours(db *gorm.DB) *gorm.DB {
	return db.Where("deleted = false")
}

// ListTours returns every published, non-deleted tour with the relations
// the listing pages render, newest first.
func ListTours(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tours []types.Tour
		err := visibleTours(db).Where("published = true").
			Preload("Schedules").
			Preload("Itinerary", func(d *gorm.DB) *gorm.DB { return d.Order("day_number asc") }).
			Preload("StartLocation").
			Preload("EndLocation").
			Preload("Guide").
			Order("created_at desc").
			Find(&tours).Error
		if err != nil {
			persistenceError(c, "failed to fetch tours", err)
			return
		}
		c.JSON(http.StatusOK, tours)
	}
}

// GetTour returns a single tour with full relation expansion, or 404 if
// the id is unknown or the tour was soft deleted.
func GetTour(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tour types.Tour
		q := visibleTours(db).
			Preload("Schedules").
			Preload("Itinerary", func(d *gorm.DB) *gorm.DB { return d.Order("day_number asc") }).
			Preload("MarineLife").
			Preload("Guide").
			Preload("Category").
			Preload("TourType").
			Preload("StartLocation").
			Preload("EndLocation").
			First(&tour, "id = ?", c.Param("id"))
		if q.RecordNotFound() {
			c.JSON(http.StatusNotFound, gin.H{"error": "tour not found"})
			return
		}
		if q.Error != nil {
			persistenceError(c, "failed to fetch tour", q.Error)
			return
		}
		c.JSON(http.StatusOK, tour)
	}
}

type tourInput struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Difficulty      string   `json:"difficulty"`
	Duration        uint     `json:"duration"`
	BasePrice       float64  `json:"basePrice"`
	MaxParticipants uint     `json:"maxParticipants"`
	Published       bool     `json:"published"`
	MarineArea      string   `json:"marineArea"`
	ExpeditionType  string   `json:"expeditionType"`
	SafetyBriefing  string   `json:"safetyBriefing"`
	Seasons         []string `json:"seasons"`
	MarineLifeIDs   []string `json:"marineLifeIds"`

	Highlights        []string `json:"highlights"`
	Inclusions        []string `json:"inclusions"`
	Exclusions        []string `json:"exclusions"`
	Images            []string `json:"images"`
	RequiredEquipment []string `json:"requiredEquipment"`

	CategoryID      string `json:"categoryId"`
	TourTypeID      string `json:"tourTypeId"`
	GuideID         string `json:"guideId"`
	StartLocationID string `json:"startLocationId"`
	EndLocationID   string `json:"endLocationId"`
}

func (in *tourInput) validate() []string {
	var details []string
	if in.Name == "" {
		details = append(details, "name is required")
	}
	if in.Description == "" {
		details = append(details, "description is required")
	}
	if !types.ValidDifficulty(in.Difficulty) {
		details = append(details, "difficulty must be one of EASY, MODERATE, CHALLENGING, EXTREME")
	}
	if in.Duration == 0 {
		details = append(details, "duration must be positive")
	}
	if in.MaxParticipants == 0 {
		details = append(details, "maxParticipants must be positive")
	}
	if in.BasePrice < 0 {
		details = append(details, "basePrice must not be negative")
	}
	if in.StartLocationID == "" {
		details = append(details, "startLocationId is required")
	}
	if in.EndLocationID == "" {
		details = append(details, "endLocationId is required")
	}
	return details
}

// resolveMarineLife validates every referenced marine-life id against the
// reference table and returns the matching rows. Unknown ids are returned
// so the error can name them exactly.
func resolveMarineLife(db *gorm.DB, ids []string) ([]types.MarineLifeItem, []string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	var items []types.MarineLifeItem
	if err := db.Where("id IN (?)", []string(ids)).Find(&items).Error; err != nil {
		return nil, nil, err
	}

	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}

	var invalid []string
	for _, id := range ids {
		if !known[id] {
			invalid = append(invalid, id)
		}
	}
	return items, invalid, nil
}

// Fallback list fields applied when a tour is created without them; the
// listing pages assume these are never empty.
var (
	defaultHighlights = []string{"Marine life observation", "Educational commentary"}
	defaultInclusions = []string{"Safety equipment", "Expert guide"}
	defaultExclusions = []string{"Transportation to departure point"}
)

func orDefault(vals, def []string) pq.StringArray {
	if len(vals) == 0 {
		return pq.StringArray(def)
	}
	return pq.StringArray(vals)
}

// CreateTour validates and persists a new tour. Relations are connected by
// id; only marine-life ids are checked against reference data here, the
// store enforces the rest at write time.
func CreateTour(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in tourInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if details := in.validate(); len(details) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tour", "details": details})
			return
		}

		marineLife, invalid, err := resolveMarineLife(db, in.MarineLifeIDs)
		if err != nil {
			persistenceError(c, "failed to validate marine life", err)
			return
		}
		if len(invalid) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Invalid marine life IDs: %s", strings.Join(invalid, ", ")),
			})
			return
		}

		names := make(pq.StringArray, 0, len(marineLife))
		for _, m := range marineLife {
			names = append(names, m.Name)
		}

		categoryID := in.CategoryID
		if categoryID == "" {
			categoryID = types.DefaultCategoryID
		}

		tour := types.Tour{
			ID:                uuid.New().String(),
			Name:              in.Name,
			Description:       in.Description,
			Difficulty:        in.Difficulty,
			Duration:          in.Duration,
			BasePrice:         in.BasePrice,
			MaxParticipants:   in.MaxParticipants,
			Published:         in.Published,
			MarineArea:        in.MarineArea,
			ExpeditionType:    in.ExpeditionType,
			SafetyBriefing:    in.SafetyBriefing,
			Seasons:           pq.StringArray(in.Seasons),
			MarineLifeIDs:     pq.StringArray(in.MarineLifeIDs),
			MarineLifeNames:   names,
			Highlights:        orDefault(in.Highlights, defaultHighlights),
			Inclusions:        orDefault(in.Inclusions, defaultInclusions),
			Exclusions:        orDefault(in.Exclusions, defaultExclusions),
			Images:            pq.StringArray(in.Images),
			RequiredEquipment: pq.StringArray(in.RequiredEquipment),
			CategoryID:        categoryID,
			TourTypeID:        in.TourTypeID,
			GuideID:           in.GuideID,
			StartLocationID:   in.StartLocationID,
			EndLocationID:     in.EndLocationID,
		}
		if tour.Images == nil {
			tour.Images = pq.StringArray{}
		}
		if tour.RequiredEquipment == nil {
			tour.RequiredEquipment = pq.StringArray{}
		}

		if err := db.Create(&tour).Error; err != nil {
			persistenceError(c, "failed to create tour", err)
			return
		}

		if len(marineLife) > 0 {
			if err := db.Model(&tour).Association("MarineLife").Append(marineLife).Error; err != nil {
				persistenceError(c, "failed to link marine life", err)
				return
			}
			tour.MarineLife = marineLife
		}

		c.JSON(http.StatusCreated, tour)
	}
}

// Scalar columns a partial update may touch, keyed by their JSON names.
var tourScalarColumns = map[string]string{
	"name":              "name",
	"description":       "description",
	"difficulty":        "difficulty",
	"duration":          "duration",
	"basePrice":         "base_price",
	"maxParticipants":   "max_participants",
	"published":         "published",
	"marineArea":        "marine_area",
	"expeditionType":    "expedition_type",
	"safetyBriefing":    "safety_briefing",
	"highlights":        "highlights",
	"inclusions":        "inclusions",
	"exclusions":        "exclusions",
	"images":            "images",
	"requiredEquipment": "required_equipment",
	"seasons":           "seasons",
}

// Relation columns are tri-state: key absent leaves the relation untouched,
// a string reconnects it, an explicit null clears it.
var tourRelationColumns = map[string]string{
	"categoryId":      "category_id",
	"tourTypeId":      "tour_type_id",
	"guideId":         "guide_id",
	"startLocationId": "start_location_id",
	"endLocationId":   "end_location_id",
}

// UpdateTour applies a partial update. Both PUT and PATCH route here: only
// keys present in the body are touched.
func UpdateTour(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tour types.Tour
		if visibleTours(db).First(&tour, "id = ?", c.Param("id")).RecordNotFound() {
			c.JSON(http.StatusNotFound, gin.H{"error": "tour not found"})
			return
		}

		var body map[string]json.RawMessage
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updates := make(map[string]interface{})
		for key, raw := range body {
			if col, ok := tourScalarColumns[key]; ok {
				switch key {
				case "highlights", "inclusions", "exclusions", "images", "requiredEquipment", "seasons":
					var vals []string
					if err := json.Unmarshal(raw, &vals); err != nil {
						c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid value for %s", key)})
						return
					}
					updates[col] = pq.StringArray(vals)
				case "difficulty":
					var d string
					if err := json.Unmarshal(raw, &d); err != nil || !types.ValidDifficulty(d) {
						c.JSON(http.StatusBadRequest, gin.H{"error": "difficulty must be one of EASY, MODERATE, CHALLENGING, EXTREME"})
						return
					}
					updates[col] = d
				default:
					var v interface{}
					if err := json.Unmarshal(raw, &v); err != nil {
						c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid value for %s", key)})
						return
					}
					updates[col] = v
				}
				continue
			}

			if col, ok := tourRelationColumns[key]; ok {
				if string(raw) == "null" {
					updates[col] = gorm.Expr("NULL")
					continue
				}
				var id string
				if err := json.Unmarshal(raw, &id); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid value for %s", key)})
					return
				}
				updates[col] = id
			}
		}

		// A published tour keeps resolved start and end locations: clearing
		// either on a published tour, or publishing without both, is rejected.
		published := tour.Published
		if v, ok := updates["published"].(bool); ok {
			published = v
		}
		if published {
			start := tour.StartLocationID
			if v, ok := updates["start_location_id"]; ok {
				start, _ = v.(string)
			}
			end := tour.EndLocationID
			if v, ok := updates["end_location_id"]; ok {
				end, _ = v.(string)
			}
			if start == "" || end == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "a published tour must have start and end locations"})
				return
			}
		}

		if raw, ok := body["marineLifeIds"]; ok {
			var ids []string
			if err := json.Unmarshal(raw, &ids); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid value for marineLifeIds"})
				return
			}
			marineLife, invalid, err := resolveMarineLife(db, ids)
			if err != nil {
				persistenceError(c, "failed to validate marine life", err)
				return
			}
			if len(invalid) > 0 {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": fmt.Sprintf("Invalid marine life IDs: %s", strings.Join(invalid, ", ")),
				})
				return
			}
			names := make(pq.StringArray, 0, len(marineLife))
			for _, m := range marineLife {
				names = append(names, m.Name)
			}
			updates["marine_life_ids"] = pq.StringArray(ids)
			updates["marine_life_names"] = names
			if err := db.Model(&tour).Association("MarineLife").Replace(marineLife).Error; err != nil {
				persistenceError(c, "failed to link marine life", err)
				return
			}
		}

		if len(updates) > 0 {
			if err := db.Model(&tour).Updates(updates).Error; err != nil {
				persistenceError(c, "failed to update tour", err)
				return
			}
		}

		// re-read so cleared relations come back empty instead of echoing
		// the pre-update values
		if err := db.First(&tour, "id = ?", tour.ID).Error; err != nil {
			persistenceError(c, "failed to fetch tour", err)
			return
		}
		c.JSON(http.StatusOK, tour)
	}
}

// DeleteTour soft deletes: the row stays, every public read stops seeing
// it. Schedules are left in place, orders are immutable history.
func DeleteTour(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()
		err := db.Model(&types.Tour{}).Where("id = ?", c.Param("id")).
			Updates(map[string]interface{}{"deleted": true, "deleted_at": &now}).Error
		if err != nil {
			persistenceError(c, "failed to delete tour", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
