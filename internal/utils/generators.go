package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

var badgeWords = []string{
	"give", "seven", "food", "trade", "north", "plant", "sound", "level",
	"spoke", "glass", "train", "house", "small", "dream", "light", "stone",
	"river", "cloud", "maple", "point", "round", "quick", "smart", "brave",
	"solid", "clear", "fresh", "grand", "noble", "prime", "rapid", "vivid",
}

// GenerateBadgeCode produces a word-tuple badge code like
// "give-seven-food-trade".
func GenerateBadgeCode() string {
	parts := make([]string, 4)
	for i := range parts {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(badgeWords))))
		if err != nil {
			// Fallback to a timestamp-based code if random generation fails
			return fmt.Sprintf("badge-%d", time.Now().UnixNano())
		}
		parts[i] = badgeWords[n.Int64()]
	}
	return strings.Join(parts, "-")
}
