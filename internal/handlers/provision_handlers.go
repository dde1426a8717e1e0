package handlers

import (
	"net/http"
	"strings"

	"clawe/internal/middleware"
	"clawe/internal/services"

	"github.com/labstack/echo/v4"
)

// ProvisionHandlers exposes the tenant provisioning workflow. The route
// does its own bearer handling instead of sitting behind BearerAuth so
// the config check can run first and the error bodies keep the
// {"error": ...} shape clients depend on.
type ProvisionHandlers struct {
	provisionService services.ProvisionService
	verifier         middleware.TokenVerifier
	backendURL       string
}

func NewProvisionHandlers(provisionService services.ProvisionService, verifier middleware.TokenVerifier, backendURL string) *ProvisionHandlers {
	return &ProvisionHandlers{
		provisionService: provisionService,
		verifier:         verifier,
		backendURL:       backendURL,
	}
}

// ProvisionTenant handles POST /api/tenant/provision. Idempotent: safe
// to call multiple times for the same identity.
func (h *ProvisionHandlers) ProvisionTenant(c echo.Context) error {
	if h.backendURL == "" {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Backend URL not configured. Set CLAWE_BACKEND_URL in .env (e.g. http://127.0.0.1:3210 for local, or your hosted backend URL).",
		})
	}

	authHeader := c.Request().Header.Get("Authorization")
	authToken := middleware.ExtractBearerToken(authHeader)
	if authToken == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Missing Authorization header",
		})
	}

	subject, err := h.verifier.Verify(c.Request().Context(), authToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Invalid token",
		})
	}

	result, err := h.provisionService.Provision(c.Request().Context(), subject, authToken)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error() + h.connectivityHint(err),
		})
	}

	return c.JSON(http.StatusOK, result)
}

// connectivityHint appends an operator hint naming the configured
// endpoint when the failure smells like an unreachable backend.
// Presentation only; the status code is unaffected.
func (h *ProvisionHandlers) connectivityHint(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "dial tcp") {
		return " Is your Clawe backend running and reachable at " + h.backendURL + "?"
	}
	return ""
}
