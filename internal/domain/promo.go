package domain

import "time"

// PromoCode is a flat discount in the listing currency. A nil ListingID
// means the code applies platform-wide.
type PromoCode struct {
	Code      string     `json:"code"`
	ListingID *string    `json:"listing_id,omitempty"`
	Amount    int64      `json:"amount"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MaxUses   int        `json:"max_uses"`
	Uses      int        `json:"uses"`
	Active    bool       `json:"active"`
}

func (p *PromoCode) Usable(listingID string, now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.ExpiresAt != nil && !now.Before(*p.ExpiresAt) {
		return false
	}
	if p.MaxUses > 0 && p.Uses >= p.MaxUses {
		return false
	}
	if p.ListingID != nil && *p.ListingID != listingID {
		return false
	}
	return true
}
