package identity

// User is the authenticated identity returned by the provider. It lives
// for the session only; no credentials are retained.
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}
