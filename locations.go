package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/seatrek/toursapi/types"
)

func addLocationRoutes(router *gin.RouterGroup, db *gorm.DB) {
	router.GET("/locations", GetLocations(db))
	router.POST("/locations", checkJWT(), logAdminAction(db), CreateLocation(db))
	router.GET("/guides", GetGuides(db))
}

func GetLocations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var locs []types.Location
		if err := db.Order("name asc").Find(&locs).Error; err != nil {
			persistenceError(c, "failed to fetch locations", err)
			return
		}
		c.JSON(http.StatusOK, locs)
	}
}

func CreateLocation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var loc types.Location
		if err := c.ShouldBindJSON(&loc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if loc.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location", "details": []string{"name is required"}})
			return
		}

		if loc.ID == "" {
			loc.ID = uuid.New().String()
		}
		if err := db.Create(&loc).Error; err != nil {
			persistenceError(c, "failed to create location", err)
			return
		}
		c.JSON(http.StatusCreated, loc)
	}
}

func GetGuides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var guides []types.Guide
		if err := db.Order("name asc").Find(&guides).Error; err != nil {
			persistenceError(c, "failed to fetch guides", err)
			return
		}
		c.JSON(http.StatusOK, guides)
	}
}
