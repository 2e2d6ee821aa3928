package domain

import (
	"context"
	"time"
)

// User represents a customer or staff identity
type User struct {
	ID                  string     `bson:"_id,omitempty" json:"id"`
	Email               string     `bson:"email" json:"email"`
	Name                string     `bson:"name" json:"name"`
	Roles               []string   `bson:"roles" json:"roles"` // ["member", "admin"]
	SubscriptionEndDate *time.Time `bson:"subscription_end_date,omitempty" json:"subscription_end_date,omitempty"`
	CreatedAt           time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `bson:"updated_at" json:"updated_at"`
}

// HasRole checks if user has a specific role
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasActiveSubscription reports whether the user's access window is open
func (u *User) HasActiveSubscription() bool {
	return u.SubscriptionEndDate != nil && u.SubscriptionEndDate.After(time.Now().UTC())
}

// UserRepository defines operations for managing users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpsertByEmail(ctx context.Context, user *User) error
}

// Role constants
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)
