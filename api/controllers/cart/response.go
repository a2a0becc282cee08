package cart

import "github.com/greensolartech/storefront/internal/cartview"

type badgeResponse struct {
	Count   int  `json:"count"`
	Visible bool `json:"visible"`
}

func newBadgeResponse(b cartview.Badge) badgeResponse {
	return badgeResponse{Count: b.Count, Visible: b.Visible}
}
