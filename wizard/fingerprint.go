package wizard

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// phoneFingerprint identifies a phone number in logs without revealing it.
func phoneFingerprint(phone string) string {
	if phone == "" {
		return ""
	}

	return fmt.Sprintf("%016x", xxh3.HashString(phone))
}
