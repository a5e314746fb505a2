package server

import (
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"github.com/encukou/prekapavac/internal/middleware"
	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "suggestionId" -> "suggestion ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// parseBody decodes the JSON request body into dest, answering 400 on failure.
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// respondError answers with the status matching err. Unexpected errors are
// logged before a generic 500 goes out.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		observability.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// currentUser returns the authenticated user ID. Routes behind AuthRequired
// always have one.
func currentUser(c *fiber.Ctx) uint {
	uid, _ := middleware.UserID(c)
	return uid
}

// viewer returns the caller's user ID for personalised reads, or nil when
// the request is anonymous.
func viewer(c *fiber.Ctx) *uint {
	if uid, ok := middleware.UserID(c); ok {
		return &uid
	}
	return nil
}

// viewerIsAdmin reports whether the caller may see hidden entities.
func (s *Server) viewerIsAdmin(c *fiber.Ctx) (bool, error) {
	uid, ok := middleware.UserID(c)
	if !ok {
		return false, nil
	}
	return s.users.IsAdmin(c.UserContext(), uid)
}
