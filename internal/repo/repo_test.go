package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/repo/repotest"
)

func newUser(email, nationalID string) *models.User {
	return &models.User{
		FullName:     "Jane Doe",
		Email:        email,
		PasswordHash: "$2a$10$hash",
		NationalID:   nationalID,
		BirthDate:    time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMigrate_SeedsRolesOnce(t *testing.T) {
	t.Parallel()
	r := repotest.NewRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Migrate(ctx))

	var count int64
	require.NoError(t, r.DB.Model(&models.Role{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	_, err := r.FindRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
}

func TestUsers_CreateAndFind(t *testing.T) {
	t.Parallel()
	r := repotest.NewRepo(t)
	ctx := context.Background()

	u := newUser("jane@x.com", "123.456.789-00")
	require.NoError(t, r.CreateUser(ctx, u, models.RoleUser))
	require.NotZero(t, u.ID)

	found, err := r.FindUserByEmail(ctx, "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.Equal(t, []string{models.RoleUser}, found.Authorities())

	taken, err := r.EmailTaken(ctx, "jane@x.com")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = r.NationalIDTaken(ctx, "999.999.999-99")
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = r.FindUserByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	t.Parallel()
	r := repotest.NewRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateUser(ctx, newUser("jane@x.com", "123.456.789-00"), models.RoleUser))
	err := r.CreateUser(ctx, newUser("jane@x.com", "111.111.111-11"), models.RoleUser)
	assert.Error(t, err, "unique index on email")
}

func TestUsers_GrantRole(t *testing.T) {
	t.Parallel()
	r := repotest.NewRepo(t)
	ctx := context.Background()

	u := newUser("admin@x.com", "123.456.789-00")
	require.NoError(t, r.CreateUser(ctx, u, models.RoleUser))
	require.NoError(t, r.GrantRole(ctx, u, models.RoleAdmin))

	reloaded, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{models.RoleUser, models.RoleAdmin}, reloaded.Authorities())

	require.NoError(t, r.GrantRole(ctx, reloaded, models.RoleAdmin), "granting twice is a no-op")
}

func seedCatalog(t *testing.T, r *repo.GormRepo) (models.Brand, []models.Category) {
	t.Helper()
	ctx := context.Background()

	brand := models.Brand{Name: "Acme", Description: "Tools"}
	require.NoError(t, r.CreateBrand(ctx, &brand))

	cats := []models.Category{{Name: "Phones", Description: "p"}, {Name: "Audio", Description: "a"}}
	for i := range cats {
		require.NoError(t, r.CreateCategory(ctx, &cats[i]))
	}
	return brand, cats
}

func TestProducts_CRUD(t *testing.T) {
	t.Parallel()
	r := repotest.NewRepo(t)
	ctx := context.Background()
	brand, cats := seedCatalog(t, r)

	p := models.Product{Name: "Phone", Description: "A phone", Price: 1999, BrandID: brand.ID}
	require.NoError(t, r.CreateProduct(ctx, &p, []uint{cats[0].ID, cats[1].ID}))
	assert.Equal(t, "Acme", p.Brand.Name)
	assert.Len(t, p.Categories, 2)

	p.Price = 2499
	require.NoError(t, r.UpdateProduct(ctx, &p, []uint{cats[1].ID}))
	assert.EqualValues(t, 2499, p.Price)
	require.Len(t, p.Categories, 1)
	assert.Equal(t, "Audio", p.Categories[0].Name)

	total, items, err := r.ListProducts(ctx, 0, 10, repo.Sort{Column: "name"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)

	byID, err := r.ProductsByIDs(ctx, []uint{p.ID, 999})
	require.NoError(t, err)
	assert.Len(t, byID, 1)

	inUse, err := r.BrandInUse(ctx, brand.ID)
	require.NoError(t, err)
	assert.True(t, inUse)

	require.NoError(t, r.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, r.DeleteProduct(ctx, p.ID), gorm.ErrRecordNotFound)
}

func TestProducts_MissingReferences(t *testing.T) {
	t.Parallel()
	r := repotest.NewRepo(t)
	ctx := context.Background()
	brand, cats := seedCatalog(t, r)

	bad := models.Product{Name: "X", Description: "x", Price: 1, BrandID: 999}
	assert.ErrorIs(t, r.CreateProduct(ctx, &bad, []uint{cats[0].ID}), repo.ErrMissingReference)

	bad = models.Product{Name: "X", Description: "x", Price: 1, BrandID: brand.ID}
	assert.ErrorIs(t, r.CreateProduct(ctx, &bad, []uint{cats[0].ID, 999}), repo.ErrMissingReference)
}

func TestBrands_PageAndDelete(t *testing.T) {
	t.Parallel()
	r := repotest.NewRepo(t)
	ctx := context.Background()

	for _, n := range []string{"c", "a", "b"} {
		require.NoError(t, r.CreateBrand(ctx, &models.Brand{Name: n, Description: n}))
	}

	total, items, err := r.ListBrands(ctx, 0, 2, repo.Sort{Column: "name", Desc: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].Name)
	assert.Equal(t, "b", items[1].Name)

	require.NoError(t, r.DeleteBrand(ctx, items[0].ID))
	assert.ErrorIs(t, r.DeleteBrand(ctx, items[0].ID), gorm.ErrRecordNotFound)
}

func TestOrders_CreateGetList(t *testing.T) {
	t.Parallel()
	r := repotest.NewRepo(t)
	ctx := context.Background()
	brand, cats := seedCatalog(t, r)

	u := newUser("jane@x.com", "123.456.789-00")
	require.NoError(t, r.CreateUser(ctx, u, models.RoleUser))

	p := models.Product{Name: "Phone", Description: "A phone", Price: 1000, BrandID: brand.ID}
	require.NoError(t, r.CreateProduct(ctx, &p, []uint{cats[0].ID}))

	order := models.Order{
		UserID: u.ID,
		Amount: 3000,
		Moment: time.Now().UTC(),
		Items:  []models.OrderItem{{ProductID: p.ID, Quantity: 3, Price: 1000}},
	}
	require.NoError(t, r.CreateOrder(ctx, &order))
	require.NotZero(t, order.ID)
	assert.Equal(t, "jane@x.com", order.User.Email)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Phone", order.Items[0].Product.Name)

	ordered, err := r.ProductOrdered(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ordered)

	total, orders, err := r.ListOrders(ctx, 0, 10, repo.Sort{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, u.ID, orders[0].User.ID)

	_, err = r.GetOrder(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
