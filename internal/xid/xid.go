package xid

import (
	"strings"

	"github.com/google/uuid"
)

const invoicePrefix = "INV-"

// Invoice returns "INV-" followed by 8 upper-case hex characters.
func Invoice() string {
	id := uuid.New()
	return invoicePrefix + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// RequestID returns a fresh identifier for correlating a request across logs.
func RequestID() string {
	return uuid.NewString()
}
