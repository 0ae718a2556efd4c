package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"retire-rag/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAdminMiddleware(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	app := fiber.New()
	app.Get("/private", AdminMiddleware(jwtManager, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("username").(string))
	})

	adminToken, err := jwtManager.GenerateToken("alice", auth.RoleAdmin)
	require.NoError(t, err)
	userToken, err := jwtManager.GenerateToken("bob", "user")
	require.NoError(t, err)
	foreignToken, err := auth.NewJWTManager("other", time.Hour).GenerateToken("eve", auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing token", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc", want: http.StatusUnauthorized},
		{name: "wrong signing key", header: "Bearer " + foreignToken, want: http.StatusUnauthorized},
		{name: "non admin", header: "Bearer " + userToken, want: http.StatusForbidden},
		{name: "admin", header: "Bearer " + adminToken, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
