package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruizcommerce/storefront-backend/internal/repo"
	"github.com/ruizcommerce/storefront-backend/pkg/db/models"
	"github.com/ruizcommerce/storefront-backend/pkg/pagination"
)

// Numbers start above 1000 so the first order reads as #1001.
const orderNumberFloor = 1000

// Repository persists committed orders. An order and its line items are
// written in one transaction; there are no partial orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	NextOrderNumber(ctx context.Context) (int64, error)
	CountByCouponCode(ctx context.Context, code string) (int64, error)
	CountByCouponCodeAndCustomer(ctx context.Context, code string, customerID uuid.UUID) (int64, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
}

type gormRepository struct {
	repo.Base
}

// NewRepository builds an order repository over the given connection.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Base: repo.NewBase(db)}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{Base: repo.NewBase(tx)}
}

func (r *gormRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Lines {
		if order.Lines[i].ID == uuid.Nil {
			order.Lines[i].ID = uuid.New()
		}
		order.Lines[i].OrderID = order.ID
	}

	if err := r.DB(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).Preload("Lines").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// NextOrderNumber derives the next sequential number from the highest
// committed one. Callers run this inside the commit transaction; the
// unique index on order_number backstops races.
func (r *gormRepository) NextOrderNumber(ctx context.Context) (int64, error) {
	var current int64
	err := r.DB(ctx).Model(&models.Order{}).
		Select("COALESCE(MAX(order_number), ?)", orderNumberFloor).
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (r *gormRepository) CountByCouponCode(ctx context.Context, code string) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Order{}).
		Where("coupon_code = ?", code).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) CountByCouponCodeAndCustomer(ctx context.Context, code string, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Order{}).
		Where("coupon_code = ? AND customer_id = ?", code, customerID).
		Count(&count).Error
	return count, err
}

// ListByCustomer pages a customer's order history newest first. The
// returned cursor is empty on the last page.
func (r *gormRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.DB(ctx).Preload("Lines").
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return orders, next, nil
}
