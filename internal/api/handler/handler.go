package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TekupDK/tekup-sub000/internal/api/service"
	"github.com/TekupDK/tekup-sub000/internal/api/storage"
	"github.com/TekupDK/tekup-sub000/internal/auth"
	"github.com/TekupDK/tekup-sub000/internal/domain"
	"github.com/TekupDK/tekup-sub000/internal/realtime"
)

// IdentityKey is the gin-context key under which the auth middleware
// stores the verified identity.
const IdentityKey = "identity"

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger        *slog.Logger
	Verifier      auth.Verifier
	Hub           *realtime.Hub
	Store         *storage.Storage
	Jobs          *service.JobService
	Notifications *service.NotificationService
}

// IdentityFrom returns the verified identity the auth middleware stored
// on the request context.
func IdentityFrom(c *gin.Context) auth.Identity {
	v, _ := c.Get(IdentityKey)
	identity, _ := v.(auth.Identity)
	return identity
}

// writeDomainError maps well-known domain errors onto HTTP statuses;
// anything unrecognized becomes a 500 and is logged by the caller.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrTeamMemberNotFound),
		errors.Is(err, domain.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSchedulingConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrJobNotReschedulable), domain.IsInvalidTransition(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
