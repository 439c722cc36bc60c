package utils

import (
	"sync"

	"gorm.io/gorm"
)

var (
	dbConn *gorm.DB
	dbOnce sync.Once
	dbMu   sync.RWMutex
)

// InitDB menyimpan koneksi database untuk dipakai service singleton.
func InitDB(database *gorm.DB) {
	dbOnce.Do(func() {
		dbMu.Lock()
		defer dbMu.Unlock()
		dbConn = database
	})
}

// GetDB returns the database connection
func GetDB() *gorm.DB {
	dbMu.RLock()
	defer dbMu.RUnlock()
	return dbConn
}
