package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestInitDB_SQLite(t *testing.T) {
	db, err := InitDB(Options{Driver: "sqlite", DSN: ":memory:"}, &testRecord{})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, db.Create(&testRecord{Name: "a"}).Error)
	var got testRecord
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, "a", got.Name)
}

func TestInitDB_UnknownDriver(t *testing.T) {
	_, err := InitDB(Options{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}
