package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"estate-core/internal/model"
	"estate-core/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ownerKey = "owner"

var (
	errNoToken      = errors.New("no bearer token")
	errUnknownOwner = errors.New("unknown account")
	errOwnerLookup  = errors.New("owner lookup failed")
)

// Authenticator resolves the acting owner from an HS256 bearer token. The
// token subject is the account id; role and subscription are always read
// from the owner store, never trusted from claims.
type Authenticator struct {
	secret []byte
	issuer string
	owners repository.OwnerStore
}

// NewAuthenticator creates an authenticator. An empty secret rejects every token.
func NewAuthenticator(secret, issuer string, owners repository.OwnerStore) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		issuer: issuer,
		owners: owners,
	}
}

// OptionalAuth attaches the owner when a token is sent. Requests without a
// token pass through anonymously; a bad token is still rejected.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := a.resolve(c)
		if errors.Is(err, errNoToken) {
			c.Next()
			return
		}
		if err != nil {
			a.abort(c, err)
			return
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}

// RequireAuth rejects requests without a valid token
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := a.resolve(c)
		if err != nil {
			a.abort(c, err)
			return
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := OwnerFromContext(c)
		if owner == nil || !owner.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access only"})
			return
		}
		c.Next()
	}
}

// OwnerFromContext returns the authenticated owner, or nil for anonymous requests
func OwnerFromContext(c *gin.Context) *model.Owner {
	v, ok := c.Get(ownerKey)
	if !ok {
		return nil
	}
	owner, _ := v.(*model.Owner)
	return owner
}

func (a *Authenticator) abort(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNoToken):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No bearer token"})
	case errors.Is(err, errUnknownOwner):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown account"})
	case errors.Is(err, errOwnerLookup):
		log.Printf("Auth lookup failed: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
	default:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
	}
}

func (a *Authenticator) resolve(c *gin.Context) (*model.Owner, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, errNoToken
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, jwt.ErrTokenMalformed
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

	ownerID, err := a.parseSubject(tokenStr)
	if err != nil {
		return nil, err
	}

	owner, err := a.owners.GetOwner(c.Request.Context(), ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: owner %d: %v", errOwnerLookup, ownerID, err)
	}
	if owner == nil {
		return nil, errUnknownOwner
	}
	return owner, nil
}

func (a *Authenticator) parseSubject(tokenStr string) (int64, error) {
	if len(a.secret) == 0 {
		return 0, jwt.ErrTokenUnverifiable
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return 0, err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, jwt.ErrTokenInvalidSubject
	}
	return id, nil
}
