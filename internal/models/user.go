package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        uint    `gorm:"primarykey" json:"id"`
	Name      string  `gorm:"not null" json:"name"`
	Email     string  `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string  `gorm:"not null" json:"phone"`
	Password  string  `gorm:"not null" json:"-"`
	Role      string  `gorm:"default:'user'" json:"role"`
	APIKey    *string `gorm:"uniqueIndex" json:"-"`
	IsActive  bool    `gorm:"default:true" json:"isActive"`
	Wallet    *Wallet `gorm:"foreignKey:UserID" json:"wallet,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
