package coupons

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ruizcommerce/storefront-backend/pkg/db"
	"github.com/ruizcommerce/storefront-backend/pkg/db/models"
	"github.com/ruizcommerce/storefront-backend/pkg/enums"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
)

const couponCodeConstraint = "coupons_code_key"

var maxPercent = decimal.NewFromInt(100)

// AdminInput is the admin payload for creating or editing a coupon.
type AdminInput struct {
	Code           string
	DiscountType   enums.DiscountType
	Amount         decimal.Decimal
	MinSubtotal    int64
	MaxUses        *int
	MaxUsesPerUser *int
	StartsAt       *time.Time
	EndsAt         *time.Time
	IsActive       bool
}

// Summary is a coupon plus its derived usage count for admin listings.
type Summary struct {
	models.Coupon
	UsageCount int64 `json:"usage_count"`
}

// Service exposes the back-office coupon operations.
type Service interface {
	Create(ctx context.Context, input AdminInput) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input AdminInput) (*models.Coupon, error)
	ToggleActive(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	Duplicate(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID, actor enums.Role) error
	List(ctx context.Context) ([]Summary, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

type service struct {
	repo Repository
}

// NewService builds the coupon admin service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo}, nil
}

// Create validates and persists a new coupon with a canonical code.
func (s *service) Create(ctx context.Context, input AdminInput) (*models.Coupon, error) {
	coupon, err := buildCoupon(input)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err, couponCodeConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return created, nil
}

// Update replaces an existing coupon's rules. The id is preserved so
// historical orders keep pointing at the same coupon row.
func (s *service) Update(ctx context.Context, id uuid.UUID, input AdminInput) (*models.Coupon, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := buildCoupon(input)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	saved, err := s.repo.Update(ctx, updated)
	if err != nil {
		if db.IsUniqueViolation(err, couponCodeConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	return saved, nil
}

// ToggleActive flips the active flag.
func (s *service) ToggleActive(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.IsActive = !existing.IsActive
	saved, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle coupon")
	}
	return saved, nil
}

// Duplicate clones a coupon under a derived code. The copy starts
// inactive so it can be reviewed before going live.
func (s *service) Duplicate(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	clone := *existing
	clone.ID = uuid.New()
	clone.Code = existing.Code + "_COPY"
	clone.IsActive = false
	clone.CreatedAt = time.Time{}
	clone.UpdatedAt = time.Time{}

	created, err := s.repo.Create(ctx, &clone)
	if err != nil {
		if db.IsUniqueViolation(err, couponCodeConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "duplicate already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "duplicate coupon")
	}
	return created, nil
}

// Delete removes a coupon. Only super admins may delete; order managers
// can deactivate instead. Orders that already used the code keep it.
func (s *service) Delete(ctx context.Context, id uuid.UUID, actor enums.Role) error {
	if actor != enums.RoleSuperAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only super admins can delete coupons")
	}

	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	return nil
}

// List returns all coupons with usage counts derived from orders.
func (s *service) List(ctx context.Context) ([]Summary, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}

	codes := make([]string, 0, len(coupons))
	for _, c := range coupons {
		codes = append(codes, c.Code)
	}

	usage, err := s.repo.UsageByCode(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate coupon usage")
	}

	summaries := make([]Summary, 0, len(coupons))
	for _, c := range coupons {
		summaries = append(summaries, Summary{Coupon: c, UsageCount: usage[c.Code]})
	}
	return summaries, nil
}

// ExportCSV streams the coupon list as CSV for the back office.
func (s *service) ExportCSV(ctx context.Context, w io.Writer) error {
	summaries, err := s.List(ctx)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	header := []string{"code", "discount_type", "amount", "min_subtotal_minor", "max_uses", "max_uses_per_user", "starts_at", "ends_at", "is_active", "usage_count"}
	if err := writer.Write(header); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}

	for _, summary := range summaries {
		row := []string{
			summary.Code,
			summary.DiscountType.String(),
			summary.Amount.String(),
			strconv.FormatInt(summary.MinSubtotal, 10),
			formatIntPtr(summary.MaxUses),
			formatIntPtr(summary.MaxUsesPerUser),
			formatTimePtr(summary.StartsAt),
			formatTimePtr(summary.EndsAt),
			strconv.FormatBool(summary.IsActive),
			strconv.FormatInt(summary.UsageCount, 10),
		}
		if err := writer.Write(row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id is required")
	}

	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

func buildCoupon(input AdminInput) (*models.Coupon, error) {
	code := CanonicalCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if input.Amount.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.DiscountType == enums.DiscountTypePercent && input.Amount.GreaterThan(maxPercent) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percent amount cannot exceed 100")
	}
	if input.MinSubtotal < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum subtotal cannot be negative")
	}
	if input.MaxUses != nil && *input.MaxUses <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max uses must be positive when set")
	}
	if input.MaxUsesPerUser != nil && *input.MaxUsesPerUser <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max uses per user must be positive when set")
	}
	if input.StartsAt != nil && input.EndsAt != nil && !input.EndsAt.After(*input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}

	return &models.Coupon{
		Code:           code,
		DiscountType:   input.DiscountType,
		Amount:         input.Amount,
		MinSubtotal:    input.MinSubtotal,
		MaxUses:        input.MaxUses,
		MaxUsesPerUser: input.MaxUsesPerUser,
		StartsAt:       input.StartsAt,
		EndsAt:         input.EndsAt,
		IsActive:       input.IsActive,
	}, nil
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatTimePtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
