package models

import "github.com/golang-jwt/jwt/v5"

// Claims represents the JWT claims structure issued by the identity provider.
// The subscription plan is attributed by the provider through app_metadata,
// so the backend never stores plan state itself.
type Claims struct {
	jwt.RegisteredClaims                        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string                 `json:"email"`
	AppMetadata          map[string]interface{} `json:"app_metadata"`
	UserMetadata         map[string]interface{} `json:"user_metadata"`
	Role                 string                 `json:"role"` // "authenticated" or "anon"
	SessionID            string                 `json:"session_id"`
	IsAnonymous          bool                   `json:"is_anonymous"`
}

// GetUserID returns the user ID from the JWT subject claim.
// This is the primary identifier for the authenticated user.
func (c *Claims) GetUserID() string {
	return c.Subject
}

// GetPlan returns the subscription plan name from app_metadata, or an empty
// string when the provider attributed none.
func (c *Claims) GetPlan() string {
	if c.AppMetadata == nil {
		return ""
	}
	plan, _ := c.AppMetadata["plan"].(string)
	return plan
}
