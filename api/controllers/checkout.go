package controllers

import (
	"net/http"

	"github.com/ruizcommerce/storefront-backend/api/middleware"
	"github.com/ruizcommerce/storefront-backend/api/responses"
	"github.com/ruizcommerce/storefront-backend/api/validators"
	"github.com/ruizcommerce/storefront-backend/internal/checkout"
	"github.com/ruizcommerce/storefront-backend/pkg/enums"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
	"github.com/ruizcommerce/storefront-backend/pkg/logger"
)

type checkoutRequest struct {
	CouponCode   string `json:"coupon_code"`
	ShippingZone string `json:"shipping_zone" validate:"required"`
}

func checkoutInput(r *http.Request, req checkoutRequest) (checkout.Input, error) {
	zone, err := enums.ParseShippingZone(req.ShippingZone)
	if err != nil {
		return checkout.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping zone")
	}
	return checkout.Input{
		SessionID:  middleware.SessionIDFromContext(r.Context()),
		CustomerID: middleware.CustomerIDFromContext(r.Context()),
		CouponCode: req.CouponCode,
		Zone:       zone,
	}, nil
}

// CartQuote prices the session cart with a tentative coupon without
// committing anything.
func CartQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := checkoutInput(r, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// Checkout commits the session cart as an order, or reports a structured
// rejection when live stock or coupon state changed.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := checkoutInput(r, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.State == enums.CheckoutStateRejected {
			status = http.StatusConflict
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}
