// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"clinicore/internal/delivery/http/response"
	domainerrors "clinicore/internal/domain/errors"
	"clinicore/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for external-login handlers.
type AuthHandler struct {
	loginUsecase usecase.LoginUsecase
	logger       *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(loginUsecase usecase.LoginUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		loginUsecase: loginUsecase,
		logger:       logger,
	}
}

type beginLoginRequest struct {
	TenantID    string `query:"tenant_id" validate:"required,uuid"`
	RedirectURI string `query:"redirect_uri" validate:"omitempty,uri"`
}

type beginLoginResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// BeginGoogleLogin mints a state token and returns the provider authorization URL.
func (h *AuthHandler) BeginGoogleLogin(c echo.Context) error {
	var req beginLoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login request")
	}
	if err := c.Validate(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login request")
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return response.BindingError(c, "INVALID_TENANT_ID", "Invalid tenant identifier")
	}

	output, err := h.loginUsecase.BeginGoogleLogin(c.Request().Context(), usecase.BeginLoginInput{
		TenantID:    tenantID,
		RedirectURI: req.RedirectURI,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, beginLoginResponse{
		AuthorizationURL: output.AuthorizationURL,
		State:            output.State,
	}, "Login flow started")
}

type callbackRequest struct {
	State            string `query:"state" form:"state"`
	Code             string `query:"code" form:"code"`
	Error            string `query:"error" form:"error"`
	ErrorDescription string `query:"error_description" form:"error_description"`
}

type callbackResponse struct {
	IdentityID    string          `json:"identity_id"`
	Email         string          `json:"email"`
	AuthMode      string          `json:"auth_mode"`
	Profile       profileResponse `json:"profile"`
	NewProfile    bool            `json:"new_profile"`
	AccountLinked bool            `json:"account_linked"`
}

type profileResponse struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// GoogleCallback finishes the login flow after the provider redirect.
// Accepts both GET (query parameters) and POST (form post) redirects.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	var req callbackRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid callback request")
	}

	// The provider signals its own failures (user denied consent, bad scope)
	// through the error parameter instead of a code.
	if req.Error != "" {
		h.logger.Warn("Provider returned an OAuth error",
			slog.String("error", req.Error),
			slog.String("description", req.ErrorDescription))

		return domainerrors.ErrOAuthFailed.WrapMessage(req.Error)
	}

	if req.State == "" || req.Code == "" {
		return response.BindingError(c, "INVALID_INPUT", "Missing state or code parameter")
	}

	output, err := h.loginUsecase.GoogleCallback(c.Request().Context(), usecase.CallbackInput{
		State: req.State,
		Code:  req.Code,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, callbackResponse{
		IdentityID: output.Identity.ID.String(),
		Email:      output.Identity.Email,
		AuthMode:   string(output.Identity.Mode()),
		Profile: profileResponse{
			ID:        output.Profile.ID.String(),
			TenantID:  output.Profile.TenantID.String(),
			FirstName: output.Profile.FirstName,
			LastName:  output.Profile.LastName,
			Email:     output.Profile.Email,
		},
		NewProfile:    output.IsNewProfile,
		AccountLinked: output.AccountLinked,
	}, "Login successful")
}
