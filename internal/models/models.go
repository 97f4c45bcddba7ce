package models

import (
	"time"
)

const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

type Role struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Authority string `gorm:"uniqueIndex;not null"      json:"authority"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"    json:"id"`
	FullName     string    `gorm:"not null"                    json:"fullName"`
	Email        string    `gorm:"uniqueIndex;not null"        json:"email"`
	PasswordHash string    `gorm:"not null"                    json:"-"`
	NationalID   string    `gorm:"uniqueIndex;not null"        json:"nationalId"`
	BirthDate    time.Time `gorm:"not null"                    json:"birthDate"`
	Roles        []Role    `gorm:"many2many:user_roles"        json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Authorities lists the role names in the order they were loaded.
func (u *User) Authorities() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, r.Authority)
	}
	return out
}

func (u *User) HasRole(authority string) bool {
	for _, r := range u.Roles {
		if r.Authority == authority {
			return true
		}
	}
	return false
}

type Brand struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string    `gorm:"not null"                  json:"name"`
	Description string    `gorm:"not null"                  json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string    `gorm:"not null"                  json:"name"`
	Description string    `gorm:"not null"                  json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Product prices are in minor currency units.
type Product struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name        string     `gorm:"not null"                      json:"name"`
	Description string     `gorm:"not null"                      json:"description"`
	Price       int64      `gorm:"not null;check:price>0"        json:"price"`
	BrandID     uint       `gorm:"index;not null"                json:"brandId"`
	Brand       Brand      `json:"brand"`
	Categories  []Category `gorm:"many2many:product_categories"  json:"categories"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Order struct {
	ID     uint        `gorm:"primaryKey"            json:"id"`
	UserID uint        `gorm:"index;not null"        json:"userId"`
	User   User        `json:"user"`
	Amount int64       `gorm:"not null"              json:"amount"`
	Moment time.Time   `gorm:"not null"              json:"moment"`
	Items  []OrderItem `json:"items"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey"                  json:"id"`
	OrderID   uint    `gorm:"index;not null"              json:"orderId"`
	ProductID uint    `gorm:"not null"                    json:"productId"`
	Product   Product `json:"product"`
	Quantity  int     `gorm:"not null;check:quantity>0"   json:"quantity"`
	Price     int64   `gorm:"not null"                    json:"price"`
}
