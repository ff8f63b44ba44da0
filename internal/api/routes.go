package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/remasto/remasto/server/domain/entities"
	"github.com/remasto/remasto/server/domain/repositories"
	"github.com/remasto/remasto/server/internal/auth"
	"github.com/remasto/remasto/server/internal/websocket"
	"github.com/remasto/remasto/server/usecase"
)

const userTokenTTL = 7 * 24 * time.Hour

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Hub     *websocket.Hub
	Users   repositories.UserRepository
	Auth    *auth.Manager
	Reports *usecase.ReportService
	Resumes *usecase.ResumeService
	Logger  *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, d Deps) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "remasto-server",
		})
	})

	v1 := e.Group("/api/v1")

	// User Management APIs
	v1.POST("/users/register", d.userRegister)
	v1.POST("/users/login", d.userLogin)

	// Interview catalog
	v1.GET("/roles", d.getRoles)

	// Protected APIs
	protected := v1.Group("", d.requireUser)
	protected.POST("/resume/analyze", d.analyzeResume)
	protected.GET("/reports", d.listReports)
	protected.GET("/reports/:id", d.getReport)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", d.websocketWithAuth)
}

func (d Deps) userRegister(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Email == "" || req.Name == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Email, name, and a password of at least 8 characters are required",
		})
	}

	ctx := c.Request().Context()
	if existing, err := d.Users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "email_taken",
			Message: "An account with this email already exists",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		d.Logger.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}

	user := &entities.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := d.Users.Create(ctx, user); err != nil {
		d.Logger.Error("Failed to create user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}

	d.Logger.Info("User registered", zap.String("userID", user.ID))
	return d.issueToken(c, user)
}

func (d Deps) userLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	user, err := d.Users.GetByEmail(c.Request().Context(), req.Email)
	if err != nil || user == nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid email or password",
		})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		d.Logger.Warn("Login failed", zap.String("email", req.Email))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid email or password",
		})
	}

	return d.issueToken(c, user)
}

func (d Deps) issueToken(c echo.Context, user *entities.User) error {
	token, err := d.Auth.GenerateUserToken(user.ID, user.Email)
	if err != nil {
		d.Logger.Error("Failed to generate user token",
			zap.String("userID", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}
	return c.JSON(http.StatusOK, AuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(userTokenTTL),
		UserID:    user.ID,
		Name:      user.Name,
	})
}

func (d Deps) getRoles(c echo.Context) error {
	roles := make([]RoleResponse, 0, len(entities.Roles()))
	for _, r := range entities.Roles() {
		roles = append(roles, RoleResponse{Slug: r.Slug(), Name: string(r)})
	}
	return c.JSON(http.StatusOK, RolesResponse{
		Roles:  roles,
		Voices: repositories.Voices(),
	})
}

func (d Deps) analyzeResume(c echo.Context) error {
	var req ResumeAnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	analysis, err := d.Resumes.Analyze(c.Request().Context(), repositories.ResumeAnalysisRequest{
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		Resume:         req.Resume,
	})
	if err != nil {
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "analysis_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, analysis)
}

func (d Deps) listReports(c echo.Context) error {
	userID := c.Get("user_id").(string)
	reports, err := d.Reports.List(c.Request().Context(), userID)
	if err != nil {
		d.Logger.Error("Failed to list reports", zap.String("userID", userID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}
	if reports == nil {
		reports = []*entities.PerformanceReport{}
	}
	return c.JSON(http.StatusOK, reports)
}

func (d Deps) getReport(c echo.Context) error {
	userID := c.Get("user_id").(string)
	report, err := d.Reports.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		d.Logger.Error("Failed to get report", zap.String("reportID", c.Param("id")), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}
	if report == nil || report.UserID != userID {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "No report for this interview",
		})
	}
	return c.JSON(http.StatusOK, report)
}

// requireUser validates the bearer token and stores the user ID on the
// request context.
func (d Deps) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := d.authenticate(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired JWT token",
			})
		}
		c.Set("user_id", claims.UserID)
		return next(c)
	}
}

// websocketWithAuth handles WebSocket connections with JWT authentication.
// Browsers cannot set headers on websocket upgrades, so the token is also
// accepted as a query parameter.
func (d Deps) websocketWithAuth(c echo.Context) error {
	claims, err := d.authenticate(c)
	if err != nil {
		d.Logger.Warn("WebSocket connection rejected", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "A valid JWT token is required",
		})
	}
	return websocket.HandleWebSocketWithAuth(d.Hub, c, claims.UserID, d.Logger)
}

func (d Deps) authenticate(c echo.Context) (*auth.Claims, error) {
	token := ""
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token == "" {
		token = c.QueryParam("token")
	}
	if token == "" {
		return nil, echo.ErrUnauthorized
	}
	return d.Auth.ValidateToken(token)
}
