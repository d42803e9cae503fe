package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/seatrek/toursapi/types"
)

func addReferenceRoutes(router *gin.RouterGroup, db *gorm.DB) {
	router.GET("/tour-types", GetTourTypes(db))
	router.POST("/tour-types", checkJWT(), logAdminAction(db), CreateTourType(db))
	router.GET("/categories", GetCategories(db))
}

func GetTourTypes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tts []types.TourType
		if err := db.Order("name asc").Find(&tts).Error; err != nil {
			persistenceError(c, "failed to fetch tour types", err)
			return
		}
		c.JSON(http.StatusOK, tts)
	}
}

func CreateTourType(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tt types.TourType
		if err := c.ShouldBindJSON(&tt); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if tt.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tour type", "details": []string{"name is required"}})
			return
		}

		if tt.ID == "" {
			tt.ID = uuid.New().String()
		}
		if err := db.Create(&tt).Error; err != nil {
			persistenceError(c, "failed to create tour type", err)
			return
		}
		c.JSON(http.StatusCreated, tt)
	}
}

func GetCategories(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cats []types.Category
		if err := db.Order("name asc").Find(&cats).Error; err != nil {
			persistenceError(c, "failed to fetch categories", err)
			return
		}
		c.JSON(http.StatusOK, cats)
	}
}
