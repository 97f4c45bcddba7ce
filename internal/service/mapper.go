package service

import (
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const dateLayout = "2006-01-02"

func ToUserView(u *models.User) transport.UserView {
	roles := make([]transport.RoleView, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, transport.RoleView{ID: r.ID, Authority: r.Authority})
	}
	return transport.UserView{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		NationalID: u.NationalID,
		BirthDate:  u.BirthDate.Format(dateLayout),
		Roles:      roles,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func toOrderSummary(o *models.Order) transport.OrderSummary {
	return transport.OrderSummary{
		ID:     o.ID,
		Amount: o.Amount,
		Moment: o.Moment,
		User: transport.UserSummary{
			ID:       o.User.ID,
			FullName: o.User.FullName,
			Email:    o.User.Email,
		},
	}
}

func toOrderDetails(o *models.Order) transport.OrderDetails {
	items := make([]transport.OrderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, transport.OrderItemView{
			Product:  it.Product,
			Quantity: it.Quantity,
			Price:    it.Price,
			SubTotal: it.Price * int64(it.Quantity),
		})
	}
	return transport.OrderDetails{
		ID:     o.ID,
		Amount: o.Amount,
		Moment: o.Moment,
		User:   ToUserView(&o.User),
		Items:  items,
	}
}
