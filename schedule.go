package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/seatrek/toursapi/types"
)

// GetSchedules lists the schedules of a visible tour.
func GetSchedules(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tour types.Tour
		if visibleTours(db).First(&tour, "id = ?", c.Param("id")).RecordNotFound() {
			c.JSON(http.StatusNotFound, gin.H{"error": "tour not found"})
			return
		}

		var scheds []types.Schedule
		if err := db.Order("start_date asc").Find(&scheds, "tour_id = ?", tour.ID).Error; err != nil {
			persistenceError(c, "failed to fetch schedules", err)
			return
		}
		c.JSON(http.StatusOK, scheds)
	}
}

// SaveSchedules replaces a tour's schedule set: incoming rows are upserted,
// existing rows missing from the request are removed.
func SaveSchedules(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tour types.Tour
		if visibleTours(db).First(&tour, "id = ?", c.Param("id")).RecordNotFound() {
			c.JSON(http.StatusNotFound, gin.H{"error": "tour not found"})
			return
		}

		var incoming []types.Schedule
		if err := c.ShouldBindJSON(&incoming); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		for idx := range incoming {
			s := &incoming[idx]
			if s.Status == "" {
				s.Status = types.ScheduleOpen
			}
			if !types.ValidScheduleStatus(s.Status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of OPEN, FULL, CANCELLED"})
				return
			}
			if s.EndDate.Before(s.StartDate) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must not precede startDate"})
				return
			}
		}

		ids := make([]string, 0, len(incoming))
		for idx := range incoming {
			if incoming[idx].ID == "" {
				incoming[idx].ID = uuid.New().String()
			}
			ids = append(ids, incoming[idx].ID)
		}

		// clear out schedules dropped from the set
		del := db.Where("tour_id = ?", tour.ID)
		if len(ids) > 0 {
			del = del.Not("id", ids)
		}
		if err := del.Delete(types.Schedule{}).Error; err != nil {
			persistenceError(c, "failed to save schedules", err)
			return
		}

		for idx := range incoming {
			incoming[idx].TourID = tour.ID
			if err := db.Save(&incoming[idx]).Error; err != nil {
				persistenceError(c, "failed to save schedules", err)
				return
			}
		}

		c.JSON(http.StatusOK, incoming)
	}
}
