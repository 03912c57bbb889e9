package domain

import "time"

// ProfileKind selects which group of profile columns a write touches.
type ProfileKind string

const (
	ProfileKindPersonal ProfileKind = "personal"
	ProfileKindBusiness ProfileKind = "business"
)

// ParseProfileKind maps the discriminator sent by clients. Only the exact
// value "personal" selects the personal group; anything else, including an
// empty value, is a business write.
func ParseProfileKind(raw string) ProfileKind {
	if ProfileKind(raw) == ProfileKindPersonal {
		return ProfileKindPersonal
	}
	return ProfileKindBusiness
}

// Profile holds optional contact and business details for a user.
type Profile struct {
	ID           int64
	UserID       int64
	Phone        *string
	Address      *string
	City         *string
	State        *string
	ZipCode      *string
	BusinessName *string
	BusinessType *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileFields is the client-supplied input for a profile write.
// Only the fields belonging to the write's kind are read.
type ProfileFields struct {
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	ZipCode      *string `json:"zipCode"`
	BusinessName *string `json:"businessName"`
	BusinessType *string `json:"businessType"`
}

// HasContactDetails reports whether every field required for the prospect tier is filled in.
func (p Profile) HasContactDetails() bool {
	for _, v := range []*string{p.Phone, p.Address, p.City, p.State, p.ZipCode} {
		if v == nil || *v == "" {
			return false
		}
	}
	return true
}
