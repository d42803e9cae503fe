package main

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/jinzhu/gorm/dialects/postgres"
	"github.com/seatrek/toursapi/types"
)

// logAdminAction records an audit row for each authenticated admin write.
// It must run after checkJWT so user_id is populated.
func logAdminAction(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload []byte
		if c.Request.Body != nil {
			payload, _ = ioutil.ReadAll(c.Request.Body)
			c.Request.Body = ioutil.NopCloser(bytes.NewBuffer(payload))
		}

		action := types.AdminAction{
			UserID:  c.GetString("user_id"),
			Method:  c.Request.Method,
			Url:     c.Request.URL.String(),
			Payload: postgres.Jsonb{RawMessage: json.RawMessage(payload)},
		}
		if err := db.Create(&action).Error; err != nil {
			log.Println("failed to record admin action:", err)
		}

		c.Next()
	}
}

// persistenceError reports a store failure as a generic 500. The
// underlying message is echoed only outside release mode.
func persistenceError(c *gin.Context, msg string, err error) {
	log.Println(msg+":", err)
	if gin.Mode() != gin.ReleaseMode {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg, "cause": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
