package store

import "time"

// Account is one platform account the service holds a credential for.
// Cookies contains only the filtered credential, never the raw blob the
// login endpoint returned.
type Account struct {
	UserID    int64     `json:"uid"`
	Cookies   string    `json:"cookies"`
	LoginDate time.Time `json:"loginDate"`
}

// Store persists account credentials. Implementations must be safe for
// concurrent use; login sessions for different users run in parallel.
type Store interface {
	// Find returns the account for a platform user id. The second return
	// value is false when no credential is stored for that user.
	Find(userID int64) (*Account, bool, error)
	// Save inserts a new account record.
	Save(account *Account) error
	// Update replaces the stored record for the account's user id.
	Update(account *Account) error
	// All returns every stored account.
	All() ([]*Account, error)
}
