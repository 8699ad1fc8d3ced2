package handler

import (
	"encoding/binary"
	"errors"
	"net/http"
	"time"

	"anonpair/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jwt "github.com/golang-jwt/jwt/v5"
)

// AnonClaims carries the anonymous identity of a WebSocket client.
type AnonClaims struct {
	UID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// NewAnonID derives a negative identity from a random UUID. It stays within
// 53 bits so JavaScript clients can hold it exactly.
func NewAnonID() (models.UserID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return 0, err
	}
	n := int64(binary.BigEndian.Uint64(u[:8]) >> 11)
	return models.UserID(-(n + 1)), nil
}

// generateJWT signs an HS256 token for anonID.
func (h *Handler) generateJWT(anonID models.UserID, now time.Time) (string, error) {
	claims := AnonClaims{
		UID: int64(anonID),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    h.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}

// validateAndGetAnonID checks signature, issuer and expiry of tokenString.
func (h *Handler) validateAndGetAnonID(tokenString string) (models.UserID, error) {
	var claims AnonClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return h.JWTSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(h.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, err
	}
	id := models.UserID(claims.UID)
	if !id.IsAnon() {
		return 0, errors.New("token does not carry an anonymous id")
	}
	return id, nil
}

// GetAnonID mints an anonymous identity and returns its JWT.
func (h *Handler) GetAnonID(c *gin.Context) {
	anonID, err := NewAnonID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create identity"})
		return
	}

	token, err := h.generateJWT(anonID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "anon_id": int64(anonID)})
}
