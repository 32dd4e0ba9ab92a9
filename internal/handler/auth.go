package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation/internal/config"
	"github.com/iliyamo/desk-reservation/internal/middleware"
	"github.com/iliyamo/desk-reservation/internal/model"
	"github.com/iliyamo/desk-reservation/internal/repository"
	"github.com/iliyamo/desk-reservation/internal/utils"
)

// UserLookup finds active users.  Implemented by repository.UserRepo.
type UserLookup interface {
	GetByUserName(ctx context.Context, userName string) (model.UserRef, error)
}

// AuthHandler issues access tokens.  Accounts live in the users table;
// everyone shares the access code whose bcrypt hash is configured, and
// admins may use the separate admin code.
type AuthHandler struct {
	Cfg   config.Config
	Users UserLookup
}

func NewAuthHandler(cfg config.Config, users UserLookup) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users}
}

type loginReq struct {
	UserName   string `json:"user_name"`
	AccessCode string `json:"access_code"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	UserName string `json:"user_name"`
	Role     string `json:"role"`
}

type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.UserName = model.NormalizeUserName(req.UserName)
	if req.UserName == "" || req.AccessCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_name/access_code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUserName(ctx, req.UserName)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "database error"})
	}

	admin := u.Admin || h.Cfg.IsAdminUser(u.UserName)
	ok := utils.VerifyAccessCode(h.Cfg.AccessCodeHash, req.AccessCode) ||
		(admin && utils.VerifyAccessCode(h.Cfg.AdminAccessCodeHash, req.AccessCode))
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	role := utils.RoleUser
	if admin {
		role = utils.RoleAdmin
	}
	at, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.UserName, role, h.Cfg.AccessTTL())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token issue failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:   userPart{UserName: u.UserName, Role: role},
		Access: tokenPart{Token: at.Token, Expires: at.Exp},
	})
}

// Me handles GET /v1/me.
func (h *AuthHandler) Me(c echo.Context) error {
	a := middleware.Actor(c)
	role := utils.RoleUser
	if a.Admin {
		role = utils.RoleAdmin
	}
	return c.JSON(http.StatusOK, echo.Map{"user": userPart{UserName: a.UserName, Role: role}})
}
