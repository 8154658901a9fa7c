package xid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^INV-[0-9A-F]{8}$`)

	seen := make(map[string]struct{}, 200)
	for i := 0; i < 200; i++ {
		inv := Invoice()
		assert.Regexp(t, pattern, inv)
		seen[inv] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}
