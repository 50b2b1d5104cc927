package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"requestdesk/internal/middleware"
	"requestdesk/internal/model"
	"requestdesk/internal/repository"
	"requestdesk/internal/service"
	"requestdesk/pkg/pagination"
	"requestdesk/pkg/response"
)

type UserHandler struct {
	userService service.UserService
	cookies     middleware.CookieOptions
}

// NewUserHandler sets up the routing dependencies for auth and user endpoints
func NewUserHandler(userService service.UserService, cookies middleware.CookieOptions) *UserHandler {
	return &UserHandler{userService: userService, cookies: cookies}
}

// RegisterRoutes binds the auth endpoints on public and the user endpoints on
// protected, which must already run Auth.
func (h *UserHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	auth := public.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/logout", h.Logout)
	}

	protected.GET("/me", h.GetMe)
	users := protected.Group("/users")
	{
		users.GET("", middleware.RequireRole(model.RoleReviewer, model.RoleApprover), h.ListUsers)
		users.PUT("/:id/roles", middleware.RequireRole(model.RoleAdmin), h.UpdateRoles)
	}
}

// Register handles POST /api/auth/register
// @Summary      Register
// @Description  Creates an account with the USER role
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// Login handles POST /api/auth/login to authenticate and return a JWT token
// @Summary      Login user
// @Description  Authenticates a user by email and password, returning a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginUserRequest   true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tokenRes, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetTokenCookies(c, h.cookies, tokenRes.Token, tokenRes.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokenRes))
}

func (h *UserHandler) refreshToken(c *gin.Context) (string, bool) {
	if token, err := c.Cookie(middleware.RefreshTokenName); err == nil && token != "" {
		return token, true
	}
	var req service.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", false
	}
	return req.RefreshToken, true
}

// RefreshToken handles POST /api/auth/refresh to issue new access and refresh tokens
// @Summary      Refresh token
// @Description  Exchanges a refresh token, from the cookie or the body, for a new pair. Refresh tokens are single use.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshTokenRequest   false  "Refresh Token"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /api/auth/refresh [post]
func (h *UserHandler) RefreshToken(c *gin.Context) {
	token, ok := h.refreshToken(c)
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	tokenRes, err := h.userService.Refresh(c.Request.Context(), service.RefreshTokenRequest{RefreshToken: token})
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetTokenCookies(c, h.cookies, tokenRes.Token, tokenRes.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokenRes))
}

// Logout handles POST /api/auth/logout, revoking the refresh token and clearing cookies
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/auth/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	if token, ok := h.refreshToken(c); ok && token != "" {
		if err := h.userService.Logout(c.Request.Context(), token); err != nil {
			respondError(c, err)
			return
		}
	}
	middleware.ClearTokenCookies(c, h.cookies)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logged out"))
}

// GetMe handles GET /api/me to return the current authenticated user
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      401      {object}  response.Response
// @Router       /api/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	user, err := h.userService.Me(c.Request.Context(), a.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// ListUsers handles GET /api/users
// @Summary      List users
// @Description  Used to pick assignees; filter by role and department
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        role           query     string  false  "Role"
// @Param        department_id  query     string  false  "Department ID"
// @Param        page           query     int     false  "Page number (default 1)"
// @Param        limit          query     int     false  "Items per page (default 20)"
// @Success      200            {object}  response.Response{data=response.Page}
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	departmentID, ok := optionalID(c, "department_id")
	if !ok {
		return
	}
	role := model.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid role"))
		return
	}
	p := pagination.Parse(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), repository.UserFilter{
		DepartmentID: departmentID,
		Role:         role,
		Page:         p.Page,
		Limit:        p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, users, p.Page, p.Limit, total))
}

// UpdateRoles handles PUT /api/users/{id}/roles
// @Summary      Set a user's roles and department
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "User ID"
// @Param        payload  body      service.UpdateRolesRequest  true  "Roles"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/users/{id}/roles [put]
func (h *UserHandler) UpdateRoles(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userService.UpdateRoles(c.Request.Context(), a, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
