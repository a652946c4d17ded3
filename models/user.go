package models

// User represents a blog account. Passwords are stored as bcrypt hashes only.
type User struct {
	Entity
	Username string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email    string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"`
	Active   bool   `gorm:"not null" json:"active"`
}

// UserPatch carries the optional fields of a profile update.
type UserPatch struct {
	Username *string
	Email    *string
	// PasswordHash is the already hashed replacement password.
	PasswordHash *string
}

// Apply merges the present fields of p into u.
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.Password = *p.PasswordHash
	}
}
