package models

// User represents a registered user account.
type User struct {
	// ID is the database-assigned identifier.
	ID int64 `json:"id"`

	// Email is the user's email address (unique).
	// It is also the subject of issued tokens.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized.
	PasswordHash string `json:"-"`

	// CreatedAt is when the account was registered.
	CreatedAt Timestamp `json:"created_at"`
}

// NewUser creates a user with the given email and already-hashed password.
// ID and CreatedAt are assigned by the store.
func NewUser(email, passwordHash string) *User {
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
	}
}
