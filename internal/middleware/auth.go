package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"requestdesk/internal/logging"
	"requestdesk/internal/model"
	"requestdesk/internal/service"
	"requestdesk/internal/workflow"
	"requestdesk/pkg/response"
)

const (
	actorKey         = "actor"
	AccessTokenName  = "access_token"
	RefreshTokenName = "refresh_token"
)

// Authenticator resolves an access token to the current user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// CookieOptions controls the auth cookies; Secure switches to SameSite=None
// for cross-origin deployments.
type CookieOptions struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (o CookieOptions) sameSite() http.SameSite {
	if o.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, o CookieOptions, accessToken, refreshToken string) {
	c.SetSameSite(o.sameSite())
	c.SetCookie(AccessTokenName, accessToken, int(o.AccessTTL.Seconds()), "/", "", o.Secure, true)
	c.SetCookie(RefreshTokenName, refreshToken, int(o.RefreshTTL.Seconds()), "/", "", o.Secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context, o CookieOptions) {
	c.SetSameSite(o.sameSite())
	c.SetCookie(AccessTokenName, "", -1, "/", "", o.Secure, true)
	c.SetCookie(RefreshTokenName, "", -1, "/", "", o.Secure, true)
}

// BearerToken returns the access token from the cookie, falling back to the
// Authorization header.
func BearerToken(c *gin.Context) (string, error) {
	if token, err := c.Cookie(AccessTokenName); err == nil && token != "" {
		return token, nil
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errors.New("Authorization is missing")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("Invalid authorization format. Expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// Auth authenticates every request and stores the caller as a workflow.Actor.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := BearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
				return
			}
			log.WithError(err).Error("authentication failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Something went wrong. Please try again."))
			return
		}

		c.Set(actorKey, workflow.ActorFromUser(user))
		c.Set(logging.UserIDKey, user.ID.String())
		c.Next()
	}
}

// CurrentActor returns the caller stored by Auth.
func CurrentActor(c *gin.Context) (workflow.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return workflow.Actor{}, false
	}
	a, ok := v.(workflow.Actor)
	return a, ok
}

// RequireRole lets the request through when the caller holds any of roles.
// ADMIN always passes. Must run after Auth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}
		if actor.IsAdmin() {
			c.Next()
			return
		}
		for _, r := range roles {
			if actor.Has(r) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}
