package transfer

import "github.com/maheshrc27/postr/internal/models"

type BillingStatus struct {
	Active       bool                 `json:"active"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

type RevenueLine struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	Payments int64   `json:"payments"`
}

type MediaUpload struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}
