package controllers

import (
	"net/http"

	"github.com/ruizcommerce/storefront-backend/api/responses"
	"github.com/ruizcommerce/storefront-backend/api/validators"
	"github.com/ruizcommerce/storefront-backend/internal/admins"
	"github.com/ruizcommerce/storefront-backend/pkg/config"
	"github.com/ruizcommerce/storefront-backend/pkg/enums"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
	"github.com/ruizcommerce/storefront-backend/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=12"`
	Role     string `json:"role" validate:"required,oneof=order_manager super_admin"`
}

// AdminLogin exchanges credentials for a bearer token.
func AdminLogin(svc admins.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminRegister provisions a back-office account. Disabled outside dev
// environments; production accounts are created by operators.
func AdminRegister(svc admins.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.App.IsDev() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "registration is disabled"))
			return
		}

		var req registerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Register(r.Context(), req.Email, req.Password, enums.Role(req.Role))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{
			"id":    created.ID.String(),
			"email": created.Email,
			"role":  created.Role,
		})
	}
}
