package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/seatrek/toursapi/types"
)

func addMarineLifeRoutes(router *gin.RouterGroup, db *gorm.DB) {
	router.GET("/marine-life", GetMarineLife(db))
	router.GET("/marine-life/:id", GetMarineLifeItem(db))
	router.POST("/marine-life", checkJWT(), logAdminAction(db), CreateMarineLifeItem(db))
}

// GetMarineLife lists the species reference data, optionally filtered by
// animal type and season.
func GetMarineLife(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.Order("name asc")
		if at := c.Query("animalType"); at != "" {
			q = q.Where("animal_type = ?", at)
		}
		if season := c.Query("season"); season != "" {
			q = q.Where("? = ANY (seasons)", season)
		}

		var items []types.MarineLifeItem
		if err := q.Find(&items).Error; err != nil {
			persistenceError(c, "failed to fetch marine life", err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func GetMarineLifeItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var item types.MarineLifeItem
		if db.First(&item, "id = ?", c.Param("id")).RecordNotFound() {
			c.JSON(http.StatusNotFound, gin.H{"error": "marine life not found"})
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func CreateMarineLifeItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var item types.MarineLifeItem
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if item.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid marine life", "details": []string{"name is required"}})
			return
		}

		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if err := db.Create(&item).Error; err != nil {
			persistenceError(c, "failed to create marine life", err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}
