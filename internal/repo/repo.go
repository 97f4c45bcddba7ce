package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// Migrate creates the schema and seeds the built-in roles. It is safe to run repeatedly.
func (r *GormRepo) Migrate(ctx context.Context) error {
	db := r.DB.WithContext(ctx)
	if err := db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Brand{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, authority := range []string{models.RoleAdmin, models.RoleUser} {
		role := models.Role{Authority: authority}
		if err := db.Where("authority = ?", authority).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", authority, err)
		}
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Sort is an already validated ordering request.
type Sort struct {
	Column string
	Desc   bool
}

func (s Sort) clause() clause.OrderByColumn {
	col := s.Column
	if col == "" {
		col = "id"
	}
	return clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: s.Desc}
}
