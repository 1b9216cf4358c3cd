package db

import (
	"context"
	"time"
)

// ContextWithTimeout returns a background context bounded by the service's
// configured timeout in seconds. Shared by the per-concern DB services.
func ContextWithTimeout(timeoutSeconds int) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
}
