package domain

import "time"

// Account lifecycle tiers. Explorer is assigned at registration.
const (
	StatusExplorer = "explorer"
	StatusProspect = "prospect"
)

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	Name         *string
	PasswordHash string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the name or an empty string when unset.
func (u User) DisplayName() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}
