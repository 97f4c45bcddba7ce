// Package validation holds one pure check per request shape. Each check
// returns a message per failed field; an empty result means the input is valid.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Skotchmaster/storefront/internal/transport"
)

var nationalIDPattern = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("national_id", func(fl validator.FieldLevel) bool {
		return nationalIDPattern.MatchString(fl.Field().String())
	})
	return v
}

type rule struct {
	field string
	value any
	tag   string
	msg   string
}

// check runs rules in order and keeps only the first failure per field.
func check(rules ...rule) []string {
	var msgs []string
	failed := make(map[string]bool)
	for _, r := range rules {
		if failed[r.field] {
			continue
		}
		if err := validate.Var(r.value, r.tag); err != nil {
			msgs = append(msgs, r.msg)
			failed[r.field] = true
		}
	}
	return msgs
}

func Register(in transport.RegisterRequest) []string {
	return check(
		rule{"fullName", strings.TrimSpace(in.FullName), "required", "Name must not be empty"},
		rule{"email", in.Email, "required", "Email must not be empty"},
		rule{"email", in.Email, "email", "Email must be a valid email address"},
		rule{"password", in.Password, "required", "Password must not be empty"},
		rule{"password", len(in.Password), "lte=72", "Password must be at most 72 bytes"},
		rule{"nationalId", in.NationalID, "required", "National ID must not be empty"},
		rule{"nationalId", in.NationalID, "national_id", "National ID must be in the format XXX.XXX.XXX-XX"},
		rule{"birthDate", in.BirthDate, "required", "Birth date must not be empty"},
		rule{"birthDate", in.BirthDate, "datetime=2006-01-02", "Birth date must be a valid date (YYYY-MM-DD)"},
	)
}

func Login(in transport.LoginRequest) []string {
	return check(
		rule{"email", in.Email, "required", "Email must not be empty"},
		rule{"email", in.Email, "email", "Email must be a valid email address"},
		rule{"password", in.Password, "required", "Password must not be empty"},
	)
}

// MaxOrderQuantity bounds a single order line.
const MaxOrderQuantity = 10000

func CreateOrder(in transport.CreateOrderRequest) []string {
	msgs := check(rule{"items", in.Items, "min=1", "Order must contain at least one item"})
	for _, item := range in.Items {
		msgs = append(msgs, check(
			rule{"productId", item.ProductID, "gt=0", "Product ID must be a positive number"},
			rule{"quantity", item.Quantity, "gt=0", "Quantity must be a positive number"},
			rule{"quantity", item.Quantity, fmt.Sprintf("lte=%d", MaxOrderQuantity), fmt.Sprintf("Quantity must be at most %d", MaxOrderQuantity)},
		)...)
	}
	return msgs
}

func CreateProduct(in transport.CreateProductRequest) []string {
	return check(
		rule{"name", strings.TrimSpace(in.Name), "required", "Name must not be empty"},
		rule{"description", strings.TrimSpace(in.Description), "required", "Description must not be empty"},
		rule{"price", in.Price, "gt=0", "Price must be a positive number"},
		rule{"brandId", in.BrandID, "gt=0", "Brand ID must not be empty"},
		rule{"categoriesIds", in.CategoriesIDs, "min=1", "Categories must not be empty"},
		rule{"categoriesIds", in.CategoriesIDs, "dive,gt=0", "Each category ID must be a positive number"},
	)
}

// PatchProduct checks only the fields that are present.
func PatchProduct(in transport.PatchProductRequest) []string {
	var rules []rule
	if in.Name != nil {
		rules = append(rules, rule{"name", strings.TrimSpace(*in.Name), "required", "Name must not be empty"})
	}
	if in.Description != nil {
		rules = append(rules, rule{"description", strings.TrimSpace(*in.Description), "required", "Description must not be empty"})
	}
	if in.Price != nil {
		rules = append(rules, rule{"price", *in.Price, "gt=0", "Price must be a positive number"})
	}
	if in.BrandID != nil {
		rules = append(rules, rule{"brandId", *in.BrandID, "gt=0", "Brand ID must be a positive number"})
	}
	if in.CategoriesIDs != nil {
		rules = append(rules,
			rule{"categoriesIds", in.CategoriesIDs, "min=1", "Categories must not be empty"},
			rule{"categoriesIds", in.CategoriesIDs, "dive,gt=0", "Each category ID must be a positive number"},
		)
	}
	return check(rules...)
}

func CreateNamed(in transport.NamedRequest) []string {
	return check(
		rule{"name", strings.TrimSpace(in.Name), "required", "Name must not be empty"},
		rule{"description", strings.TrimSpace(in.Description), "required", "Description must not be empty"},
	)
}

func PatchNamed(in transport.PatchNamedRequest) []string {
	var rules []rule
	if in.Name != nil {
		rules = append(rules, rule{"name", strings.TrimSpace(*in.Name), "required", "Name must not be empty"})
	}
	if in.Description != nil {
		rules = append(rules, rule{"description", strings.TrimSpace(*in.Description), "required", "Description must not be empty"})
	}
	return check(rules...)
}

// PageQuery checks paging parameters. sortable lists the accepted sort columns.
func PageQuery(in transport.PageQuery, sortable ...string) []string {
	return check(
		rule{"page", in.Page, "gte=0", "Page must be at least 1"},
		rule{"size", in.Size, "gte=0", "Size must be at least 1"},
		rule{"sort", in.Sort, "omitempty,oneof=" + strings.Join(sortable, " "), "Sort must be one of: " + strings.Join(sortable, ", ")},
		rule{"order", strings.ToLower(in.Order), "omitempty,oneof=asc desc", "Order must be either 'asc' or 'desc'"},
	)
}
