package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/validation"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	now    func() time.Time
}

func NewOrderService(r *repo.GormRepo, pub events.Publisher) *OrderService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &OrderService{Repo: r, Events: pub, now: time.Now}
}

func (s *OrderService) ListOrders(ctx context.Context, q transport.PageQuery) (*transport.Page[transport.OrderSummary], error) {
	pr, err := parsePage(q, orderSortFields)
	if err != nil {
		return nil, err
	}
	total, orders, err := s.Repo.ListOrders(ctx, pr.offset, pr.limit, pr.sort)
	if err != nil {
		return nil, err
	}
	out := make([]transport.OrderSummary, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderSummary(&orders[i]))
	}
	return newPage(pr, total, out), nil
}

// GetOrder returns the order if user is an admin or owns it.
func (s *OrderService) GetOrder(ctx context.Context, user *models.User, id uint) (*transport.OrderDetails, error) {
	l := logging.FromContext(ctx).With("svc", "order.get", "order_id", id)

	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Only admins may learn that an order ID does not exist.
			if !IsAdmin(user) {
				l.Warn("order_access_denied", "status", 403, "user_id", user.ID)
				return nil, apperr.Forbidden(permissionDenied)
			}
			return nil, apperr.NotFound(fmt.Sprintf("Order with ID %d not found", id))
		}
		return nil, err
	}
	if err := RequireAdminOrOwner(user, order.UserID); err != nil {
		l.Warn("order_access_denied", "status", 403, "user_id", user.ID)
		return nil, err
	}
	details := toOrderDetails(order)
	return &details, nil
}

// CreateOrder places an order for user. Prices are taken from the catalog at placement time.
func (s *OrderService) CreateOrder(ctx context.Context, user *models.User, req transport.CreateOrderRequest) (*transport.OrderDetails, error) {
	l := logging.FromContext(ctx).With("svc", "order.create", "user_id", user.ID)

	if msgs := validation.CreateOrder(req); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}

	ids := make([]uint, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	order := models.Order{UserID: user.ID, Moment: s.now().UTC()}
	for _, it := range req.Items {
		p, ok := products[it.ProductID]
		if !ok {
			l.Warn("create_order_failed", "status", 404, "product_id", it.ProductID)
			return nil, apperr.NotFound(fmt.Sprintf("Product with ID %d not found", it.ProductID))
		}
		total, ok := addLine(order.Amount, p.Price, it.Quantity)
		if !ok {
			l.Warn("create_order_failed", "status", 400, "reason", "amount overflow", "product_id", p.ID)
			return nil, apperr.Validation("Order total is too large")
		}
		order.Amount = total
		order.Items = append(order.Items, models.OrderItem{
			ProductID: p.ID,
			Quantity:  it.Quantity,
			Price:     p.Price,
		})
	}

	if err := s.Repo.CreateOrder(ctx, &order); err != nil {
		l.Error("create_order_failed", "status", 500, "error", err)
		return nil, err
	}

	publish(ctx, l, s.Events, events.TopicOrders, fmt.Sprint(order.ID), events.Event{
		Type:    "order_created",
		Subject: user.Email,
		ID:      order.ID,
		Amount:  order.Amount,
	})
	l.Info("order_created", "order_id", order.ID, "amount", order.Amount)

	details := toOrderDetails(&order)
	return &details, nil
}

// addLine returns amount + price*qty, or false when the result does not fit in int64.
func addLine(amount, price int64, qty int) (int64, bool) {
	if price < 0 || qty < 0 || amount < 0 {
		return 0, false
	}
	q := int64(qty)
	if q != 0 && price > math.MaxInt64/q {
		return 0, false
	}
	sub := price * q
	if amount > math.MaxInt64-sub {
		return 0, false
	}
	return amount + sub, true
}
