package coupons

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ruizcommerce/storefront-backend/pkg/db/models"
	"github.com/ruizcommerce/storefront-backend/pkg/enums"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
)

type stubRepo struct {
	byID      map[uuid.UUID]*models.Coupon
	created   []*models.Coupon
	updated   []*models.Coupon
	deleted   []uuid.UUID
	createErr error
	usage     map[string]int64
	listed    []models.Coupon
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[uuid.UUID]*models.Coupon{}, usage: map[string]int64{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, coupon)
	return coupon, nil
}

func (s *stubRepo) Update(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	s.updated = append(s.updated, coupon)
	return coupon, nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	if c, ok := s.byID[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	for _, c := range s.byID {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) List(ctx context.Context) ([]models.Coupon, error) { return s.listed, nil }

func (s *stubRepo) CountUsage(ctx context.Context, code string) (int64, error) {
	return s.usage[code], nil
}

func (s *stubRepo) CountUsageByCustomer(ctx context.Context, code string, customerID uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubRepo) DeactivateExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) UsageByCode(ctx context.Context, codes []string) (map[string]int64, error) {
	return s.usage, nil
}

func mustService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateCanonicalizesCode(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := mustService(t, repo)

	created, err := svc.Create(context.Background(), AdminInput{
		Code:         "  eid 2026 ",
		DiscountType: enums.DiscountTypePercent,
		Amount:       decimal.NewFromInt(15),
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Code != "EID2026" {
		t.Fatalf("expected canonical code EID2026, got %q", created.Code)
	}
}

func TestCreateRejectsPercentOver100(t *testing.T) {
	t.Parallel()

	svc := mustService(t, newStubRepo())

	_, err := svc.Create(context.Background(), AdminInput{
		Code:         "BIG",
		DiscountType: enums.DiscountTypePercent,
		Amount:       decimal.NewFromInt(101),
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
}

func TestCreateRejectsInvertedWindow(t *testing.T) {
	t.Parallel()

	svc := mustService(t, newStubRepo())
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	_, err := svc.Create(context.Background(), AdminInput{
		Code:         "WINDOW",
		DiscountType: enums.DiscountTypeFixed,
		Amount:       decimal.NewFromInt(500),
		StartsAt:     &start,
		EndsAt:       &end,
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected CodeValidation, got %v", err)
	}
}

func TestToggleActiveFlips(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	id := uuid.New()
	repo.byID[id] = &models.Coupon{ID: id, Code: "SPRING10", IsActive: true}
	svc := mustService(t, repo)

	toggled, err := svc.ToggleActive(context.Background(), id)
	if err != nil {
		t.Fatalf("ToggleActive: %v", err)
	}
	if toggled.IsActive {
		t.Fatal("expected coupon deactivated")
	}
}

func TestDuplicateCreatesInactiveCopy(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	id := uuid.New()
	repo.byID[id] = &models.Coupon{
		ID:           id,
		Code:         "SPRING10",
		DiscountType: enums.DiscountTypePercent,
		Amount:       decimal.NewFromInt(10),
		IsActive:     true,
	}
	svc := mustService(t, repo)

	copyCoupon, err := svc.Duplicate(context.Background(), id)
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if copyCoupon.Code != "SPRING10_COPY" {
		t.Fatalf("unexpected duplicate code %q", copyCoupon.Code)
	}
	if copyCoupon.IsActive {
		t.Fatal("duplicates must start inactive")
	}
	if copyCoupon.ID == id {
		t.Fatal("duplicate must get a fresh id")
	}
}

func TestDeleteRequiresSuperAdmin(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	id := uuid.New()
	repo.byID[id] = &models.Coupon{ID: id, Code: "SPRING10"}
	svc := mustService(t, repo)

	err := svc.Delete(context.Background(), id, enums.RoleOrderManager)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected CodeForbidden for order manager, got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatal("nothing should be deleted")
	}

	if err := svc.Delete(context.Background(), id, enums.RoleSuperAdmin); err != nil {
		t.Fatalf("Delete as super admin: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatal("expected deletion")
	}
}

func TestListAttachesDerivedUsage(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	repo.listed = []models.Coupon{
		{Code: "SPRING10"},
		{Code: "FLAT500"},
	}
	repo.usage = map[string]int64{"SPRING10": 7}
	svc := mustService(t, repo)

	summaries, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if summaries[0].UsageCount != 7 {
		t.Fatalf("expected usage 7, got %d", summaries[0].UsageCount)
	}
	if summaries[1].UsageCount != 0 {
		t.Fatalf("expected zero usage, got %d", summaries[1].UsageCount)
	}
}

func TestExportCSVIncludesHeaderAndRows(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	repo.listed = []models.Coupon{{
		Code:         "SPRING10",
		DiscountType: enums.DiscountTypePercent,
		Amount:       decimal.NewFromInt(10),
		MinSubtotal:  5000,
		IsActive:     true,
	}}
	repo.usage = map[string]int64{"SPRING10": 3}
	svc := mustService(t, repo)

	var sb strings.Builder
	if err := svc.ExportCSV(context.Background(), &sb); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	out := sb.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "code,discount_type") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "SPRING10") || !strings.HasSuffix(lines[1], ",3") {
		t.Fatalf("unexpected row: %s", lines[1])
	}
}
