package types

import (
	"github.com/jinzhu/gorm"
	"github.com/jinzhu/gorm/dialects/postgres"
)

// AdminAction is an audit row recorded for every authenticated admin write.
type AdminAction struct {
	gorm.Model
	UserID  string `gorm:"index"`
	Method  string
	Url     string
	Payload postgres.Jsonb
}
