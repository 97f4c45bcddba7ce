package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
)

func seedUsers(t *testing.T, env *testEnv) (owner, stranger, admin *models.User) {
	t.Helper()
	ctx := context.Background()

	_, err := env.auth.Register(ctx, registerRequest("owner@x.com", "111.111.111-11"))
	require.NoError(t, err)
	_, err = env.auth.Register(ctx, registerRequest("stranger@x.com", "222.222.222-22"))
	require.NoError(t, err)
	_, err = env.auth.EnsureAdmin(ctx, registerRequest("admin@x.com", "333.333.333-33"))
	require.NoError(t, err)

	owner, err = env.repo.FindUserByEmail(ctx, "owner@x.com")
	require.NoError(t, err)
	stranger, err = env.repo.FindUserByEmail(ctx, "stranger@x.com")
	require.NoError(t, err)
	admin, err = env.repo.FindUserByEmail(ctx, "admin@x.com")
	require.NoError(t, err)
	return owner, stranger, admin
}

func seedProducts(t *testing.T, env *testEnv) (phone, accessory *models.Product) {
	t.Helper()
	ctx := context.Background()

	brand, err := env.catalog.CreateBrand(ctx, transport.NamedRequest{Name: "Acme", Description: "Tools"})
	require.NoError(t, err)
	cat, err := env.catalog.CreateCategory(ctx, transport.NamedRequest{Name: "Phones", Description: "p"})
	require.NoError(t, err)

	phone, err = env.catalog.CreateProduct(ctx, transport.CreateProductRequest{
		Name: "Phone", Description: "A phone", Price: 1000, BrandID: brand.ID, CategoriesIDs: []uint{cat.ID},
	})
	require.NoError(t, err)
	accessory, err = env.catalog.CreateProduct(ctx, transport.CreateProductRequest{
		Name: "Case", Description: "A case", Price: 250, BrandID: brand.ID, CategoriesIDs: []uint{cat.ID},
	})
	require.NoError(t, err)
	return phone, accessory
}

func TestOrderService_CreateOrder(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	owner, _, _ := seedUsers(t, env)
	phone, accessory := seedProducts(t, env)

	details, err := env.orders.CreateOrder(ctx, owner, transport.CreateOrderRequest{Items: []transport.CreateOrderItem{
		{ProductID: phone.ID, Quantity: 2},
		{ProductID: accessory.ID, Quantity: 3},
	}})
	require.NoError(t, err)
	assert.EqualValues(t, 2*1000+3*250, details.Amount)
	assert.Equal(t, owner.ID, details.User.ID)
	require.Len(t, details.Items, 2)
	assert.EqualValues(t, 2000, details.Items[0].SubTotal)
	assert.Contains(t, env.pub.types(), "order_created")
}

func TestOrderService_CreateOrder_Errors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	owner, _, _ := seedUsers(t, env)

	_, err := env.orders.CreateOrder(ctx, owner, transport.CreateOrderRequest{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = env.orders.CreateOrder(ctx, owner, transport.CreateOrderRequest{Items: []transport.CreateOrderItem{{ProductID: 42, Quantity: 1}}})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	e, _ := apperr.As(err)
	assert.Equal(t, "Product with ID 42 not found", e.Message)
}

func TestOrderService_CreateOrder_AmountBounds(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	owner, _, _ := seedUsers(t, env)
	phone, _ := seedProducts(t, env)

	brand, err := env.catalog.CreateBrand(ctx, transport.NamedRequest{Name: "Lux", Description: "Expensive"})
	require.NoError(t, err)
	cat, err := env.catalog.CreateCategory(ctx, transport.NamedRequest{Name: "Boats", Description: "b"})
	require.NoError(t, err)
	pricey, err := env.catalog.CreateProduct(ctx, transport.CreateProductRequest{
		Name: "Yacht", Description: "A yacht", Price: math.MaxInt64 / 2, BrandID: brand.ID, CategoriesIDs: []uint{cat.ID},
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		items []transport.CreateOrderItem
		want  string
	}{
		{"quantity above limit", []transport.CreateOrderItem{{ProductID: phone.ID, Quantity: 100000000}}, "Quantity must be at most 10000"},
		{"line overflows", []transport.CreateOrderItem{{ProductID: pricey.ID, Quantity: 3}}, "Order total is too large"},
		{"sum overflows", []transport.CreateOrderItem{{ProductID: pricey.ID, Quantity: 2}, {ProductID: phone.ID, Quantity: 1}}, "Order total is too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.orders.CreateOrder(ctx, owner, transport.CreateOrderRequest{Items: tt.items})
			require.ErrorIs(t, err, apperr.ErrValidation)
			e, _ := apperr.As(err)
			assert.Equal(t, []string{tt.want}, e.Fields)
		})
	}

	page, err := env.orders.ListOrders(ctx, transport.PageQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Zero(t, page.TotalItems)
}

func TestAddLine(t *testing.T) {
	t.Parallel()

	total, ok := addLine(500, 250, 4)
	assert.True(t, ok)
	assert.EqualValues(t, 1500, total)

	_, ok = addLine(0, math.MaxInt64/2, 3)
	assert.False(t, ok)
	_, ok = addLine(math.MaxInt64-10, 5, 3)
	assert.False(t, ok)
	total, ok = addLine(math.MaxInt64-15, 5, 3)
	assert.True(t, ok)
	assert.EqualValues(t, int64(math.MaxInt64), total)
}

func TestOrderService_GetOrder_Ownership(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	owner, stranger, admin := seedUsers(t, env)
	phone, _ := seedProducts(t, env)

	created, err := env.orders.CreateOrder(ctx, owner, transport.CreateOrderRequest{Items: []transport.CreateOrderItem{{ProductID: phone.ID, Quantity: 1}}})
	require.NoError(t, err)

	got, err := env.orders.GetOrder(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = env.orders.GetOrder(ctx, admin, created.ID)
	require.NoError(t, err)

	_, err = env.orders.GetOrder(ctx, stranger, created.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = env.orders.GetOrder(ctx, admin, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.orders.GetOrder(ctx, stranger, 999)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = env.orders.GetOrder(ctx, owner, 999)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestOrderService_ListOrders(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	owner, stranger, _ := seedUsers(t, env)
	phone, _ := seedProducts(t, env)

	for _, u := range []*models.User{owner, stranger, owner} {
		_, err := env.orders.CreateOrder(ctx, u, transport.CreateOrderRequest{Items: []transport.CreateOrderItem{{ProductID: phone.ID, Quantity: 1}}})
		require.NoError(t, err)
	}

	page, err := env.orders.ListOrders(ctx, transport.PageQuery{Page: 2, Size: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalItems)
	assert.Equal(t, 1, page.NumberOfItems)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "owner@x.com", page.Data[0].User.Email)

	_, err = env.orders.ListOrders(ctx, transport.PageQuery{Sort: "password"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
