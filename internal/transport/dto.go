package transport

import (
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
)

type RegisterRequest struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	NationalID string `json:"nationalId"`
	BirthDate  string `json:"birthDate"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type RoleView struct {
	ID        uint   `json:"id"`
	Authority string `json:"authority"`
}

// UserView is a user as returned to clients. It never carries the password hash.
type UserView struct {
	ID         uint       `json:"id"`
	FullName   string     `json:"fullName"`
	Email      string     `json:"email"`
	NationalID string     `json:"nationalId"`
	BirthDate  string     `json:"birthDate"`
	Roles      []RoleView `json:"roles"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type CreateOrderItem struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items"`
}

type CreateProductRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         int64  `json:"price"`
	BrandID       uint   `json:"brandId"`
	CategoriesIDs []uint `json:"categoriesIds"`
}

type PatchProductRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Price         *int64  `json:"price"`
	BrandID       *uint   `json:"brandId"`
	CategoriesIDs []uint  `json:"categoriesIds"`
}

// NamedRequest is the create body for brands and categories.
type NamedRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PatchNamedRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type PageQuery struct {
	Page  int    `query:"page"`
	Size  int    `query:"size"`
	Sort  string `query:"sort"`
	Order string `query:"order"`
}

type Page[T any] struct {
	Data          []T   `json:"data"`
	TotalItems    int64 `json:"totalItems"`
	NumberOfItems int   `json:"numberOfItems"`
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
}

type UserSummary struct {
	ID       uint   `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type OrderSummary struct {
	ID     uint        `json:"id"`
	Amount int64       `json:"amount"`
	Moment time.Time   `json:"moment"`
	User   UserSummary `json:"user"`
}

type OrderItemView struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
	Price    int64          `json:"price"`
	SubTotal int64          `json:"subTotal"`
}

type OrderDetails struct {
	ID     uint            `json:"id"`
	Amount int64           `json:"amount"`
	Moment time.Time       `json:"moment"`
	User   UserView        `json:"user"`
	Items  []OrderItemView `json:"items"`
}
