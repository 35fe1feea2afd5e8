package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber builds a globally unique, human-readable order number:
// time-based prefix plus a random suffix. Order numbers are external
// identifiers quoted in customer communication and are never reused.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102150405"), uuid.New().String()[:6])
}
