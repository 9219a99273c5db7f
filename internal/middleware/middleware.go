package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/staybook/internal/helpers"
	"github.com/joshua-takyi/staybook/internal/models"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get("request_id")
		status := c.Writer.Status()

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "HTTP Request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// ErrorHandler provides centralized error handling
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID, _ := c.Get("request_id")

		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		if c.Writer.Written() {
			return
		}
		c.JSON(helpers.StatusFor(err.Err), helpers.ErrorBody(err.Err))
	}
}

type TokenVerifier interface {
	Validate(token string) (*helpers.CustomClaims, error)
}

func bearerToken(c *gin.Context) string {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.KindErrorResponse(msg, "unauthorized"))
}

func AuthMiddleware(verifier TokenVerifier, profiles models.ProfileRepo, secureCookies bool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "access token not found")
			return
		}

		claims, err := verifier.Validate(token)
		if err != nil {
			// Token validation failed, try to refresh
			refreshToken, refreshErr := c.Cookie("refresh_token")
			if refreshErr != nil || refreshToken == "" {
				unauthorized(c, err.Error())
				return
			}

			tokenRes, refreshErr := profiles.RefreshToken(c.Request.Context(), refreshToken)
			if refreshErr != nil || tokenRes == nil || tokenRes.AccessToken == "" {
				logger.Error("Token refresh failed", "error", refreshErr)
				unauthorized(c, "token expired and refresh failed")
				return
			}

			logger.Info("Token refreshed successfully", "expires_in", tokenRes.ExpiresIn)
			c.SetCookie("access_token", tokenRes.AccessToken, tokenRes.ExpiresIn, "/", "", secureCookies, true)
			c.SetCookie("refresh_token", tokenRes.RefreshToken, 3600*24*30, "/", "", secureCookies, true)

			token = tokenRes.AccessToken
			claims, err = verifier.Validate(token)
			if err != nil {
				unauthorized(c, "refreshed token validation failed")
				return
			}
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			logger.Error("Invalid user ID in token", "user_id", claims.Subject, "error", err)
			unauthorized(c, "invalid user id in token")
			return
		}

		enhanced := &helpers.EnhancedClaims{
			CustomClaims: claims,
			Role:         "guest",
			UserID:       userID.String(),
			Email:        claims.Email,
		}

		profile, err := profiles.GetProfile(c.Request.Context(), userID, token)
		if err != nil {
			logger.Info("Profile not found, using default role", "user_id", userID, "error", err)
		} else {
			if profile.Role != "" {
				enhanced.Role = profile.Role
			}
			enhanced.Username = profile.Username
			enhanced.Fullname = profile.FullName
			if profile.Email != "" {
				enhanced.Email = profile.Email
			}
		}

		c.Set("user", enhanced)
		c.Next()
	}
}
