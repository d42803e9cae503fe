package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"

	"github.com/seatrek/toursapi/internal"
	"github.com/seatrek/toursapi/types"
)

func main() {
	godotenv.Load()

	URI := os.Getenv("DATABASE_URL")
	if URI == "" {
		log.Fatal("must set $DATABASE_URL")
	}

	db, err := gorm.Open("postgres", URI)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	db.AutoMigrate(&types.Tour{}, &types.Schedule{}, &types.ItineraryDay{},
		&types.MarineLifeItem{}, &types.TourType{}, &types.Category{},
		&types.Guide{}, &types.Location{}, &types.CheckoutOrder{},
		&types.WebhookEvent{}, &types.AdminAction{})

	port := os.Getenv("PORT")
	if port == "" {
		log.Fatal("must set $PORT")
	}

	pp := internal.NewClient(internal.EnvFromString(os.Getenv("PAYPAL_ENV")))
	if !pp.Configured() {
		log.Println("warning: paypal credentials are not configured; checkout will fail")
	}

	config := cors.DefaultConfig()
	config.AllowHeaders = append(config.AllowHeaders, "Authorization", "Idempotency-Key")
	config.AllowOrigins = []string{"*"}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(config))

	api := router.Group("/")
	addTourRoutes(api, db)
	addReferenceRoutes(api, db)
	addMarineLifeRoutes(api, db)
	addLocationRoutes(api, db)
	addCheckoutRoutes(api, db, pp)

	router.Run(":" + port)
}
