package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const referenceTimeLayout = "20060102150405"

// NewReference returns "<YmdHis>-<16 hex chars>". Uniqueness is still enforced
// by the orders table.
func NewReference(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return now.Format(referenceTimeLayout) + "-" + suffix
}
