package helper

import (
	"strings"

	"github.com/google/uuid"
)

const RequestIdKey = "X-Shadow-Request-Id"

// GenRequestID returns a compact unique id attached to every request and log line.
func GenRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
