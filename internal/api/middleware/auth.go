package middleware

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SujalTiwari1/dtrepo/internal/core"
	"github.com/SujalTiwari1/dtrepo/internal/db"
)

const (
	cookieName          = "portal_auth"
	tokenDuration       = 24 * time.Hour
	settingKeyJWTSecret = "jwt_secret"

	actorContextKey = "actor"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type AuthMiddleware struct {
	secret []byte
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message,omitempty"`
}

type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	Role          string `json:"role,omitempty"`
}

func NewAuthMiddleware() (*AuthMiddleware, error) {
	a := &AuthMiddleware{}

	secret, err := a.getOrCreateSecret()
	if err != nil {
		return nil, err
	}
	a.secret = secret

	return a, nil
}

func (a *AuthMiddleware) getOrCreateSecret() ([]byte, error) {
	ctx := context.Background()
	setting, err := db.Settings.GetSetting(ctx, settingKeyJWTSecret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			secret := make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return nil, err
			}
			secretHex := hex.EncodeToString(secret)
			if err := db.Settings.SetSetting(ctx, settingKeyJWTSecret, secretHex, false); err != nil {
				return nil, err
			}
			return secret, nil
		}
		return nil, err
	}
	return hex.DecodeString(setting.Value)
}

func (a *AuthMiddleware) generateToken(user *db.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
			Issuer:    "portal",
			Subject:   user.ID,
		},
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

func (a *AuthMiddleware) getTokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	return ""
}

func (a *AuthMiddleware) setAuthCookie(c *gin.Context, token string) {
	c.SetCookie(cookieName, token, int(tokenDuration.Seconds()), "/", "", true, true)
}

func (a *AuthMiddleware) clearAuthCookie(c *gin.Context) {
	c.SetCookie(cookieName, "", -1, "/", "", true, true)
}

// actorFromRequest resolves the caller's verified identity, if any.
func (a *AuthMiddleware) actorFromRequest(c *gin.Context) (core.Actor, bool) {
	token := a.getTokenFromRequest(c)
	if token == "" {
		return core.Actor{}, false
	}
	claims, err := a.validateToken(token)
	if err != nil {
		return core.Actor{}, false
	}
	role, ok := core.ParseRole(claims.Role)
	if !ok {
		return core.Actor{}, false
	}
	return core.Actor{ID: claims.UserID, Email: claims.Email, Role: role}, true
}

func (a *AuthMiddleware) RegisterHandler(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request, password must be at least 6 characters"})
		return
	}

	role, ok := core.ParseRole(req.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	// Students and teachers self-register; staff and admin accounts are
	// created by an admin.
	if role == core.RoleStaff || role == core.RoleAdmin {
		actor, authed := a.actorFromRequest(c)
		if !authed || actor.Role != core.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "only admins can create staff accounts"})
			return
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	user := &db.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hashedPassword),
		Role:         string(role),
	}

	if err := db.Users.CreateUser(c.Request.Context(), user); err != nil {
		if db.IsConstraint(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email, "role": user.Role})
}

func (a *AuthMiddleware) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{Success: false, Message: "Invalid request"})
		return
	}

	user, err := db.Users.GetUserByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, LoginResponse{Success: false, Message: "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, LoginResponse{Success: false, Message: "Server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, LoginResponse{Success: false, Message: "Invalid email or password"})
		return
	}

	token, err := a.generateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{Success: false, Message: "Failed to generate token"})
		return
	}

	a.setAuthCookie(c, token)
	c.JSON(http.StatusOK, LoginResponse{Success: true, Token: token, Role: user.Role})
}

func (a *AuthMiddleware) LogoutHandler(c *gin.Context) {
	a.clearAuthCookie(c)
	c.JSON(http.StatusOK, LoginResponse{Success: true, Message: "Logged out"})
}

func (a *AuthMiddleware) StatusHandler(c *gin.Context) {
	actor, ok := a.actorFromRequest(c)
	if !ok {
		c.JSON(http.StatusOK, StatusResponse{Authenticated: false})
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Authenticated: true, Email: actor.Email, Role: string(actor.Role)})
}

func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := a.actorFromRequest(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// RequireRole gates a route group to the given roles. Must run after
// RequireAuth.
func (a *AuthMiddleware) RequireRole(roles ...core.Role) gin.HandlerFunc {
	allowed := make(map[core.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		actor, ok := Actor(c)
		if !ok || !allowed[actor.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}

// Actor returns the verified identity set by RequireAuth.
func Actor(c *gin.Context) (core.Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return core.Actor{}, false
	}
	actor, ok := v.(core.Actor)
	return actor, ok
}
