package id

import (
	"strings"

	"github.com/google/uuid"
)

// NewReference returns prefix-XXXXXXXX with eight upper-case hex characters,
// the format receipts and statements show members.
func NewReference(prefix string) string {
	u := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(u[:8])
}
