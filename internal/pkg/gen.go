package pkg

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateGameID - generates a new unique identifier for a game session.
func GenerateGameID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Errorf("failed to generate game id: %w", err))
	}

	return base64.RawURLEncoding.EncodeToString(b)
}
