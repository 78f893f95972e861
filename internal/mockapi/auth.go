package mockapi

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"fleetconsole/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"

	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

type tokenClaims struct {
	UserID     int64  `json:"user_id"`
	Role       string `json:"role"`
	Type       string `json:"typ"`
	Generation int    `json:"gen"`
	jwt.RegisteredClaims
}

func (s *Server) issue(u models.User, typ string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	now := time.Now()
	claims := tokenClaims{
		UserID:     u.ID,
		Role:       u.Role,
		Type:       typ,
		Generation: gen,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        fmt.Sprintf("%d-%d", u.ID, now.UnixNano()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parse(raw, typ string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, errors.New("wrong token type")
	}
	if typ == tokenAccess {
		s.mu.RLock()
		gen := s.generation
		s.mu.RUnlock()
		if claims.Generation != gen {
			return nil, errors.New("token revoked")
		}
	}
	return claims, nil
}

// ExpireAccessTokens invalidates every access token issued so far.
// Refresh tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
}

func (s *Server) authResult(c *gin.Context, status int, u models.User) {
	access, err := s.issue(u, tokenAccess, s.cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}
	refresh, err := s.issue(u, tokenRefresh, s.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}
	c.JSON(status, models.AuthResult{AccessToken: access, RefreshToken: refresh, User: u})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	acc := s.findByEmail(req.Email)
	if acc == nil || bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	s.authResult(c, http.StatusOK, acc.User)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register
func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" || !strings.Contains(email, "@") || len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and a password of 8+ characters are required"})
		return
	}
	if s.findByEmail(email) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"field": "email", "error": "email is already registered"})
		return
	}

	hash := s.hash(req.Password)
	s.mu.Lock()
	code := s.newCode()
	s.pending[email] = pendingRegistration{Name: strings.TrimSpace(req.Name), Email: email, PasswordHash: hash, Code: code}
	s.mu.Unlock()

	log.Printf("[MOCKAPI] confirmation code for %s: %s", email, code)
	c.JSON(http.StatusAccepted, gin.H{"message": "confirmation code sent"})
}

type confirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// POST /api/auth/confirm
func (s *Server) confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	s.mu.Lock()
	p, ok := s.pending[email]
	if !ok || p.Code != strings.TrimSpace(req.Code) {
		s.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"field": "code", "error": "confirmation code is invalid"})
		return
	}
	delete(s.pending, email)
	s.nextUserID++
	acc := &account{
		User:         models.User{ID: s.nextUserID, Name: p.Name, Email: p.Email, Role: "user"},
		PasswordHash: p.PasswordHash,
	}
	s.accounts[acc.ID] = acc
	s.mu.Unlock()

	s.authResult(c, http.StatusCreated, acc.User)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// POST /api/auth/refresh
func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
		return
	}
	claims, err := s.parse(req.RefreshToken, tokenRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token is invalid or expired"})
		return
	}
	acc := s.account(claims.UserID)
	if acc == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
		return
	}
	access, err := s.issue(acc.User, tokenAccess, s.cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access})
}

// requireAuth validates the bearer token and sets userID/userRole.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(raw, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := s.parse(strings.TrimPrefix(raw, "Bearer "), tokenAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is invalid or expired"})
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserRole, claims.Role)
		c.Next()
	}
}

func (s *Server) findByEmail(email string) *account {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if strings.ToLower(a.Email) == email {
			cp := *a
			return &cp
		}
	}
	return nil
}

func (s *Server) account(id int64) *account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}
