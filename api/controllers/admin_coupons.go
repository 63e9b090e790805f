package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ruizcommerce/storefront-backend/api/middleware"
	"github.com/ruizcommerce/storefront-backend/api/responses"
	"github.com/ruizcommerce/storefront-backend/api/validators"
	"github.com/ruizcommerce/storefront-backend/internal/coupons"
	"github.com/ruizcommerce/storefront-backend/pkg/enums"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
	"github.com/ruizcommerce/storefront-backend/pkg/logger"
)

type couponRequest struct {
	Code           string     `json:"code" validate:"required"`
	DiscountType   string     `json:"discount_type" validate:"required,oneof=percent fixed"`
	Amount         string     `json:"amount" validate:"required"`
	MinSubtotal    int64      `json:"min_subtotal_minor" validate:"min=0"`
	MaxUses        *int       `json:"max_uses,omitempty"`
	MaxUsesPerUser *int       `json:"max_uses_per_user,omitempty"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	EndsAt         *time.Time `json:"ends_at,omitempty"`
	IsActive       bool       `json:"is_active"`
}

func (req couponRequest) toInput() (coupons.AdminInput, error) {
	discountType, err := enums.ParseDiscountType(req.DiscountType)
	if err != nil {
		return coupons.AdminInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return coupons.AdminInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}
	return coupons.AdminInput{
		Code:           req.Code,
		DiscountType:   discountType,
		Amount:         amount,
		MinSubtotal:    req.MinSubtotal,
		MaxUses:        req.MaxUses,
		MaxUsesPerUser: req.MaxUsesPerUser,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		IsActive:       req.IsActive,
	}, nil
}

// CouponList returns all coupons with derived usage counts.
func CouponList(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summaries)
	}
}

// CouponCreate adds a new coupon.
func CouponCreate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req couponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// CouponUpdate replaces a coupon's rules.
func CouponUpdate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req couponRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// CouponToggle flips a coupon's active flag.
func CouponToggle(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		toggled, err := svc.ToggleActive(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toggled)
	}
}

// CouponDuplicate clones a coupon as an inactive copy.
func CouponDuplicate(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clone, err := svc.Duplicate(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, clone)
	}
}

// CouponDelete removes a coupon. The service enforces the super admin
// requirement.
func CouponDelete(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.UUIDParam(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := enums.Role(middleware.RoleFromContext(r.Context()))
		if err := svc.Delete(r.Context(), id, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// CouponExport streams the coupon list as CSV.
func CouponExport(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="coupons.csv"`)
		if err := svc.ExportCSV(r.Context(), w); err != nil {
			logg.Error(r.Context(), "coupon csv export failed", err)
		}
	}
}
