package shared

// shared types across the application
// 1st: identity of the authenticated actor, produced by the HTTP identity middleware
// 2nd: JWT claim names shared between token issuing and parsing

// Identity is an authenticated actor. Anonymous requests carry a nil *Identity.
type Identity struct {
	ID     string `json:"id"`     // stable opaque user identifier (UUID)
	Handle string `json:"handle"` // display name (username)
}

const (
	ClaimUserID   = "user_id"
	ClaimUsername = "username"
	ClaimType     = "type"
)
