package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/floorops/restaurant-reservation/internal/model"
	"github.com/floorops/restaurant-reservation/internal/repository"
	"github.com/floorops/restaurant-reservation/internal/utils"
)

// AuthHandler issues access tokens for staff accounts.
type AuthHandler struct {
	Users        *repository.UserRepo
	Restaurants  *repository.RestaurantRepo
	JWTSecret    string
	AccessTTLMin int
	BcryptCost   int
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *repository.UserRepo, restaurants *repository.RestaurantRepo, secret string, ttlMin, bcryptCost int) *AuthHandler {
	return &AuthHandler{Users: users, Restaurants: restaurants, JWTSecret: secret, AccessTTLMin: ttlMin, BcryptCost: bcryptCost}
}

// Login handles POST /v1/auth/login.  It verifies the staff credentials and
// returns a short-lived HS256 access token scoped to the user's restaurant.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	user, err := h.Users.GetByEmail(c.Request().Context(), body.Email)
	if err == sql.ErrNoRows {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if !user.IsActive || !utils.VerifyPassword(user.PasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := utils.NewAccessToken(h.JWTSecret, user.ID, user.RestaurantID, user.Role, h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token.Token,
		"expires_at":   token.Exp,
		"role":         user.Role,
	})
}

// CreateStaff handles POST /v1/staff.  Managers can add HOST or MANAGER
// accounts to their own restaurant; the caller's restaurant scope is taken
// from the token, never from the body.
func (h *AuthHandler) CreateStaff(c echo.Context) error {
	rid, err := restaurantID(c)
	if err != nil {
		return err
	}
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Email) == "" || len(body.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and a password of at least 8 characters are required"})
	}
	if body.Role != model.RoleHost && body.Role != model.RoleManager {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be HOST or MANAGER"})
	}

	id, err := h.Users.Create(c.Request().Context(), rid, body.Email, body.Password, body.Role, h.BcryptCost)
	if err == repository.ErrEmailExists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "email": strings.ToLower(strings.TrimSpace(body.Email)), "role": body.Role})
}

// Me handles GET /v1/me and echoes the authenticated identity back.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	user, err := h.Users.GetByID(c.Request().Context(), uid)
	if err == sql.ErrNoRows {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	out := echo.Map{
		"id":            user.ID,
		"email":         user.Email,
		"role":          user.Role,
		"restaurant_id": user.RestaurantID,
	}
	if rest, err := h.Restaurants.GetByID(c.Request().Context(), user.RestaurantID); err == nil {
		out["restaurant_name"] = rest.Name
	}
	return c.JSON(http.StatusOK, out)
}
