package main

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open("postgres", db)
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	gormDB.LogMode(false)

	t.Cleanup(func() { gormDB.Close() })
	return gormDB, mock
}

func TestMockDB(t *testing.T) {
	db, _ := newMockDB(t)
	assert.NotNil(t, db.DB())
}
