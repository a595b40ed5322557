package middleware

import (
	"net/http"
	"strings"

	"github.com/carlosgs05/proyectoNewton-sub000/internal/config"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
)

// TokenParser verifies a casdoor access token. *casdoorsdk.Client satisfies it.
type TokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

type errorBody struct {
	Message string `json:"message"`
}

// NewAdminGuard builds the middleware protecting the ETL endpoints. With no
// casdoor endpoint configured every request is let through.
func NewAdminGuard(cfg config.AuthConfig, logger utils.Logger) gin.HandlerFunc {
	if !cfg.Enabled() {
		logger.Warn("Admin guard disabled, CASDOOR_ENDPOINT is empty")
		return func(c *gin.Context) { c.Next() }
	}

	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return RequireAdmin(client, logger)
}

// RequireAdmin rejects requests without a valid bearer token of an admin user
func RequireAdmin(parser TokenParser, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Message: "Missing bearer token"})
			return
		}

		claims, err := parser.ParseJwtToken(token)
		if err != nil {
			logger.Warn("Rejected access token", "error", err, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Message: "Invalid access token"})
			return
		}

		if !claims.IsAdmin {
			logger.Warn("Non admin user on admin route", "user", claims.Name, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Message: "Forbidden - insufficient permissions"})
			return
		}

		c.Set("user_id", claims.Name)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
