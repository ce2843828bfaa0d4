package handler

import (
	"net/http"
	"strings"
	"time"

	"bookbazar/internal/middleware"
	"bookbazar/internal/usecase"

	"github.com/labstack/echo/v4"
)

const refreshTokenCookie = "refreshToken"

type AuthHandler struct {
	uc           *usecase.AuthUsecase
	cookieSecure bool
}

// DI
func NewAuthHandler(uc *usecase.AuthUsecase, cookieSecure bool) *AuthHandler {
	return &AuthHandler{uc: uc, cookieSecure: cookieSecure}
}

type registerRequest struct {
	Name     string `json:"name" validate:"notblank,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

func (h *AuthHandler) RegisterRoutes(api *echo.Group, gd Guards) {
	g := api.Group("/auth")

	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.GET("/verify/:token", h.verifyEmail)
	g.POST("/refresh-token", h.refresh)
	g.POST("/logout", h.logout)
	g.POST("/forgot-password", h.forgotPassword)
	g.POST("/reset-password/:token", h.resetPassword)

	g.GET("/me", h.me, gd.Auth...)
	g.POST("/resend-verification", h.resendVerification, gd.Auth...)
	g.POST("/change-password", h.changePassword, gd.Auth...)
}

// 管理者用
func (h *AuthHandler) RegisterAdminRoutes(admin *echo.Group) {
	admin.POST("/users/:id/force-logout", h.forceLogout)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, user, "registered, please verify your email")
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.uc.Login(c.Request().Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return err
	}

	h.setSessionCookies(c, res)
	return ok(c, http.StatusOK, res, "logged in")
}

func (h *AuthHandler) verifyEmail(c echo.Context) error {
	if err := h.uc.VerifyEmail(c.Request().Context(), c.Param("token")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil, "email verified")
}

// cookie優先、なければbody
func (h *AuthHandler) refresh(c echo.Context) error {
	plain := h.refreshTokenFrom(c)
	if plain == "" {
		return errUnauthorized
	}

	res, err := h.uc.Refresh(c.Request().Context(), plain, c.Request().UserAgent())
	if err != nil {
		return err
	}

	h.setSessionCookies(c, res)
	return ok(c, http.StatusOK, res, "token refreshed")
}

func (h *AuthHandler) logout(c echo.Context) error {
	if plain := h.refreshTokenFrom(c); plain != "" {
		if err := h.uc.Logout(c.Request().Context(), plain); err != nil {
			return err
		}
	}

	h.clearSessionCookies(c)
	return ok(c, http.StatusOK, nil, "logged out")
}

// 登録の有無にかかわらず200
func (h *AuthHandler) forgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.uc.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil, "if the email is registered, a reset link has been sent")
}

func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.uc.ResetPassword(c.Request().Context(), c.Param("token"), req.NewPassword); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil, "password reset")
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, user, "")
}

func (h *AuthHandler) resendVerification(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.uc.ResendVerification(c.Request().Context(), userID); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil, "verification email sent")
}

func (h *AuthHandler) changePassword(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.uc.ChangePassword(c.Request().Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	// token_versionが上がるので再ログインさせる
	h.clearSessionCookies(c)
	return ok(c, http.StatusOK, nil, "password changed")
}

func (h *AuthHandler) forceLogout(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	targetID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	res, err := h.uc.ForceLogout(c.Request().Context(), adminID, targetID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, res, "user logged out")
}

func (h *AuthHandler) refreshTokenFrom(c echo.Context) string {
	if ck, err := c.Cookie(refreshTokenCookie); err == nil && strings.TrimSpace(ck.Value) != "" {
		return strings.TrimSpace(ck.Value)
	}
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.RefreshToken)
}

func (h *AuthHandler) setSessionCookies(c echo.Context, res usecase.LoginResult) {
	c.SetCookie(h.cookie(middleware.AccessTokenCookie, res.Token.AccessToken,
		time.Now().Add(time.Duration(res.Token.ExpiresIn)*time.Second)))
	c.SetCookie(h.cookie(refreshTokenCookie, res.RefreshTokenPlain, res.RefreshExpiresAt))
}

func (h *AuthHandler) clearSessionCookies(c echo.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		ck := h.cookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func (h *AuthHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	}
}
