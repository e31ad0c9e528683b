package auth

// Identity is the authenticated principal derived from a verified email.
type Identity struct {
	ID    string
	Email string
}
