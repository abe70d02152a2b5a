package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/campus-planner/internal/application"
	"github.com/example/campus-planner/internal/domain"
)

type ownerService interface {
	Register(ctx context.Context, input application.RegisterOwnerInput) (domain.Owner, error)
	Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	Profile(ctx context.Context, principal application.Principal) (domain.Owner, error)
	UpdateProfile(ctx context.Context, principal application.Principal, input application.ProfileInput) (domain.Owner, error)
}

// OwnerHandler serves sign up, login and the principal's profile.
type OwnerHandler struct {
	service ownerService
	logger  *slog.Logger
}

// NewOwnerHandler builds an OwnerHandler.
func NewOwnerHandler(service ownerService, logger *slog.Logger) *OwnerHandler {
	return &OwnerHandler{service: service, logger: defaultLogger(logger)}
}

type ownerDTO struct {
	ID                    string    `json:"id"`
	Email                 string    `json:"email"`
	DisplayName           string    `json:"displayName"`
	DailyFocusGoalMinutes int       `json:"dailyFocusGoalMinutes"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func toOwnerDTO(owner domain.Owner) ownerDTO {
	return ownerDTO{
		ID:                    owner.ID,
		Email:                 owner.Email,
		DisplayName:           owner.DisplayName,
		DailyFocusGoalMinutes: owner.DailyFocusGoalMinutes,
		CreatedAt:             owner.CreatedAt,
		UpdatedAt:             owner.UpdatedAt,
	}
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"notblank"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Owner     ownerDTO  `json:"owner"`
}

type profileRequest struct {
	DisplayName           *string `json:"displayName" validate:"omitempty,notblank"`
	DailyFocusGoalMinutes *int    `json:"dailyFocusGoalMinutes" validate:"omitempty,min=0,max=1440"`
}

// Register handles POST /v1/owners.
func (h *OwnerHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	owner, err := h.service.Register(c.Request().Context(), application.RegisterOwnerInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toOwnerDTO(owner))
}

// Login handles POST /v1/sessions.
func (h *OwnerHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errBadRequest.WithInternal(err)
	}
	// Missing fields are reported as bad credentials rather than field errors.
	result, err := h.service.Authenticate(c.Request().Context(), application.AuthenticateParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	handlerLogger(c.Request().Context(), h.logger, "OwnerHandler", "Login", "owner_id", result.Owner.ID).
		InfoContext(c.Request().Context(), "token issued", "expires_at", result.ExpiresAt)
	return c.JSON(http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Owner:     toOwnerDTO(result.Owner),
	})
}

// Me handles GET /v1/owners/me.
func (h *OwnerHandler) Me(c echo.Context) error {
	owner, err := h.service.Profile(c.Request().Context(), principalOf(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOwnerDTO(owner))
}

// UpdateMe handles PUT /v1/owners/me.
func (h *OwnerHandler) UpdateMe(c echo.Context) error {
	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	owner, err := h.service.UpdateProfile(c.Request().Context(), principalOf(c), application.ProfileInput{
		DisplayName:           req.DisplayName,
		DailyFocusGoalMinutes: req.DailyFocusGoalMinutes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOwnerDTO(owner))
}

// bindAndValidate decodes the request into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errBadRequest.WithInternal(err)
	}
	return c.Validate(req)
}
