package utils

import (
	"sync"
	"time"
)

// Blacklist token in-memory untuk logout. Entry dibersihkan lazily saat dicek
// dan periodik oleh goroutine cleanup.
var (
	blacklistedTokens = make(map[string]time.Time)
	blacklistMutex    sync.RWMutex
	cleanupOnce       sync.Once
)

// BlacklistToken menonaktifkan token sampai masa berlakunya habis.
func BlacklistToken(token string) {
	cleanupOnce.Do(func() {
		go cleanupBlacklist()
	})

	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	blacklistedTokens[token] = time.Now().Add(24 * time.Hour)
}

// IsTokenBlacklisted mengecek apakah token sudah di-logout.
func IsTokenBlacklisted(token string) bool {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()

	expiry, exists := blacklistedTokens[token]
	if !exists {
		return false
	}
	if time.Now().Before(expiry) {
		return true
	}
	delete(blacklistedTokens, token)
	return false
}

func cleanupBlacklist() {
	for {
		time.Sleep(1 * time.Hour)
		blacklistMutex.Lock()
		now := time.Now()
		for token, expiry := range blacklistedTokens {
			if now.After(expiry) {
				delete(blacklistedTokens, token)
			}
		}
		blacklistMutex.Unlock()
	}
}
