package session

import "context"

// Record is the persisted credential record: the single key/value shape that
// survives restarts and is cleared on logout.
type Record struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Store defines the interface for credential persistence. Exactly one record
// exists per store; Save overwrites it whole.
type Store interface {
	// Load retrieves the persisted record. Returns nil, nil when absent.
	Load(ctx context.Context) (*Record, error)

	// Save persists the record, replacing any previous one.
	Save(ctx context.Context, rec *Record) error

	// Clear removes the record. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
