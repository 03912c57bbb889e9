package service

import "github.com/DownstreamWealth/portal/internal/domain"

// ProfileView bundles a user with their optional profile row.
type ProfileView struct {
	User    domain.User
	Profile *domain.Profile
}

// Fields flattens the view into the response document. Profile keys are
// applied last and win on collision.
func (v ProfileView) Fields() map[string]any {
	out := map[string]any{
		"id":     v.User.ID,
		"name":   v.User.Name,
		"email":  v.User.Email,
		"status": v.User.Status,
	}
	if v.Profile == nil {
		return out
	}
	p := v.Profile
	for key, value := range map[string]any{
		"profileId":    p.ID,
		"userId":       p.UserID,
		"phone":        p.Phone,
		"address":      p.Address,
		"city":         p.City,
		"state":        p.State,
		"zipCode":      p.ZipCode,
		"businessName": p.BusinessName,
		"businessType": p.BusinessType,
		"createdAt":    p.CreatedAt,
		"updatedAt":    p.UpdatedAt,
	} {
		out[key] = value
	}
	return out
}
