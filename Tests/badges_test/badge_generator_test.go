package badges_test

import (
	"bytes"
	"testing"

	"ms-scanner/internal/badges"
	"ms-scanner/internal/models"
)

func TestBadgeGenerator(t *testing.T) {
	// Create a new badge generator with a test secret
	secret := "test-secret-key"
	gen := badges.NewGenerator(secret)

	badge := models.Badge{
		UserID:    1,
		Name:      "John Doe",
		BadgeCode: "give-seven-food-trade",
	}

	png, err := gen.GenerateEncryptedBadge(badge)
	if err != nil {
		t.Fatalf("Failed to generate badge QR: %v", err)
	}

	if len(png) == 0 {
		t.Error("Generated badge QR is empty")
	}

	// The output is a PNG image
	if !bytes.HasPrefix(png, []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("Generated badge QR is not a PNG")
	}
}

func TestBadgeGeneratorRandomIV(t *testing.T) {
	secret := "test-secret-key"
	gen := badges.NewGenerator(secret)

	badge := models.Badge{
		UserID:    1,
		Name:      "John Doe",
		BadgeCode: "give-seven-food-trade",
	}

	png1, err := gen.GenerateEncryptedBadge(badge)
	if err != nil {
		t.Fatalf("Failed to generate first badge QR: %v", err)
	}

	png2, err := gen.GenerateEncryptedBadge(badge)
	if err != nil {
		t.Fatalf("Failed to generate second badge QR: %v", err)
	}

	// Due to the random IV used in AES encryption, each generated QR should
	// be different even for the same badge
	if bytes.Equal(png1, png2) {
		t.Error("Badge QRs should be different due to random IV in encryption")
	}
}

func TestBadgeGeneratorWithDifferentSecrets(t *testing.T) {
	gen1 := badges.NewGenerator("test-secret-key-1")
	gen2 := badges.NewGenerator("test-secret-key-2")

	badge := models.Badge{
		UserID:    2,
		Name:      "Jane Roe",
		BadgeCode: "badge-jane",
	}

	png1, err := gen1.GenerateEncryptedBadge(badge)
	if err != nil {
		t.Fatalf("Failed to generate badge QR with first secret: %v", err)
	}

	png2, err := gen2.GenerateEncryptedBadge(badge)
	if err != nil {
		t.Fatalf("Failed to generate badge QR with second secret: %v", err)
	}

	if bytes.Equal(png1, png2) {
		t.Error("Badge QRs generated with different secrets should be different")
	}
}
