package domain

import (
	"slices"
	"time"
)

// User is a marketplace account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AdIDs        []int64   `json:"adIds"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) Clone() *User {
	c := *u
	c.AdIDs = slices.Clone(u.AdIDs)
	if c.AdIDs == nil {
		c.AdIDs = []int64{}
	}
	return &c
}

// UserPatch holds the user fields a client may change. Nil means unchanged.
type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}
