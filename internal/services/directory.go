package services

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/hosteldex/hosteldex-server/internal/models"
)

// CredentialVerifier checks a credential pair against an account source.
// The production build ships a fixed demo directory; tests may swap in
// their own implementation.
type CredentialVerifier interface {
	// Verify returns the matching identity, credential stripped, or
	// ok=false when the pair matches no account.
	Verify(email, credential string) (models.Identity, bool)
}

type directoryAccount struct {
	identity       models.Identity
	credentialHash []byte
}

// Directory is the static two-account credential source: one student and
// one administrator. Accounts are build-time constants, not user-editable.
type Directory struct {
	accounts []directoryAccount
}

// Demo credentials. These are mock accounts, not real authentication.
const (
	demoStudentCredential = "password"
	demoAdminCredential   = "admin123"
)

// NewDirectory returns the demo directory with bcrypt-hashed credentials.
func NewDirectory() *Directory {
	studentHash, _ := bcrypt.GenerateFromPassword([]byte(demoStudentCredential), bcrypt.MinCost)
	adminHash, _ := bcrypt.GenerateFromPassword([]byte(demoAdminCredential), bcrypt.MinCost)

	return &Directory{accounts: []directoryAccount{
		{
			identity: models.Identity{
				ID:            "1",
				Name:          "John Doe",
				Email:         "student@hostel.com",
				Role:          models.RoleStudent,
				RoomNumber:    "101",
				BlockNumber:   "A",
				ContactNumber: "+1234567890",
			},
			credentialHash: studentHash,
		},
		{
			identity: models.Identity{
				ID:    "2",
				Name:  "Admin User",
				Email: "admin@hostel.com",
				Role:  models.RoleAdmin,
			},
			credentialHash: adminHash,
		},
	}}
}

// Verify compares the pair against each account with bcrypt.
func (d *Directory) Verify(email, credential string) (models.Identity, bool) {
	for _, acc := range d.accounts {
		if acc.identity.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword(acc.credentialHash, []byte(credential)) == nil {
			return acc.identity, true
		}
	}
	return models.Identity{}, false
}
