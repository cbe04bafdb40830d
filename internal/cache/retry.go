package cache

import (
	"strings"
	"time"
)

const (
	busyRetries      = 5
	busyRetryBackoff = 10 * time.Millisecond
)

var retrySleep = time.Sleep

// retryOnBusy runs fn, retrying with exponential backoff while SQLite
// reports the database as busy. Other errors are returned immediately.
func retryOnBusy(fn func() error) error {
	var err error
	backoff := busyRetryBackoff
	for attempt := 1; attempt <= busyRetries; attempt++ {
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		if attempt < busyRetries {
			retrySleep(backoff)
			backoff *= 2
		}
	}
	return err
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
