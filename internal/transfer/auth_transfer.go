package transfer

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	Pubkey string `json:"pubkey"`
	jwt.RegisteredClaims
}

// LoginRequest carries a signed kind 27235 event.
type LoginRequest struct {
	Event json.RawMessage `json:"event"`
}

type ProfileUpdate struct {
	Name *string `json:"name"`
}
