package utils

import (
	"strings"

	"github.com/google/uuid"
)

// ==================== UUID ====================

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

// ==================== ORDER SERIAL ====================

// GenerateOrderSerial derives the human-facing order number shown after
// payment: "EA" + the first 8 hex characters of the order ID.
func GenerateOrderSerial(orderID uuid.UUID) string {
	compact := strings.ReplaceAll(orderID.String(), "-", "")
	return "EA" + strings.ToUpper(compact[:8])
}
