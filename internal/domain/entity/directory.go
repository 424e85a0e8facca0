package entity

import "time"

const (
	StatusActive    = "Active"
	StatusSuspended = "Suspended"

	RoleSuperAdmin = "SUPER_ADMIN"
)

// User is the directory record for a marketplace account. Only the display
// and moderation fields this service reads are modeled; account CRUD lives
// in the user service.
type User struct {
	ID             string    `json:"id" firestore:"id"`
	Username       string    `json:"username" firestore:"username"`
	FullName       string    `json:"fullName" firestore:"fullName"`
	Email          string    `json:"email" firestore:"email"`
	ProfilePicture string    `json:"profilePicture,omitempty" firestore:"profilePicture,omitempty"`
	Type           string    `json:"type" firestore:"type"` // "Buyer" or "Seller"
	Status         string    `json:"status" firestore:"status"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}

type Admin struct {
	ID             string    `json:"id" firestore:"id"`
	FullName       string    `json:"fullName" firestore:"fullName"`
	Email          string    `json:"email" firestore:"email"`
	ProfilePicture string    `json:"profilePicture,omitempty" firestore:"profilePicture,omitempty"`
	Roles          []string  `json:"roles" firestore:"roles"`
	Status         string    `json:"status" firestore:"status"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}

type Role struct {
	ID   string `json:"id" firestore:"id"`
	Type string `json:"type" firestore:"type"`
}

// Category maps a user's marketplace type to its notification category.
func (u *User) Category() RecipientCategory {
	if u.Type == "Seller" {
		return CategorySeller
	}
	return CategoryBuyer
}
