package pathnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "numeric id",
			path: "/api/users/123",
			want: "/api/users/:id",
		},
		{
			name: "uuid",
			path: "/api/users/648e3c3e-5549-425c-938e-6961b7b360a2",
			want: "/api/users/:id",
		},
		{
			name: "uppercase uuid",
			path: "/api/users/648E3C3E-5549-425C-938E-6961B7B360A2",
			want: "/api/users/:id",
		},
		{
			name: "mongo object id",
			path: "/orders/507f1f77bcf86cd799439011/items",
			want: "/orders/:id/items",
		},
		{
			name: "long random token",
			path: "/sessions/a1B2c3D4e5F6g7H8i9J0k1L2",
			want: "/sessions/:id",
		},
		{
			name: "username is preserved",
			path: "/api/users/alice",
			want: "/api/users/alice",
		},
		{
			name: "short alphanumeric preserved",
			path: "/api/v2/reports",
			want: "/api/v2/reports",
		},
		{
			name: "nineteen alnum chars preserved",
			path: "/t/a123456789012345678",
			want: "/t/a123456789012345678",
		},
		{
			name: "twenty alnum chars replaced",
			path: "/t/a1234567890123456789",
			want: "/t/:id",
		},
		{
			name: "segment with dash is not a token",
			path: "/docs/getting-started",
			want: "/docs/getting-started",
		},
		{
			name: "multiple volatile segments",
			path: "/projects/42/keys/648e3c3e-5549-425c-938e-6961b7b360a2",
			want: "/projects/:id/keys/:id",
		},
		{
			name: "empty path unchanged",
			path: "",
			want: "",
		},
		{
			name: "root path",
			path: "/",
			want: "/",
		},
		{
			name: "trailing slash dropped",
			path: "/api/users/123/",
			want: "/api/users/:id",
		},
		{
			name: "missing leading slash gets one",
			path: "api/users/99",
			want: "/api/users/:id",
		},
		{
			name: "short hex segment preserved",
			path: "/x/507f1f77bc",
			want: "/x/507f1f77bc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.path))
		})
	}
}

// Two call sites (worker and control plane) must always agree, so the
// function has to be a fixed point on its own output.
func TestCanonicalizeIdempotent(t *testing.T) {
	paths := []string{
		"/api/users/123",
		"/api/users/648e3c3e-5549-425c-938e-6961b7b360a2",
		"/orders/507f1f77bcf86cd799439011/items/9",
		"/api/users/alice",
		"/",
		"/a/b/c",
		"/sessions/a1B2c3D4e5F6g7H8i9J0k1L2/refresh",
	}
	for _, p := range paths {
		once := Canonicalize(p)
		assert.Equal(t, once, Canonicalize(once), "path %q", p)
	}
}

func TestCanonicalizeDeterministic(t *testing.T) {
	const p = "/projects/648e3c3e-5549-425c-938e-6961b7b360a2/traffic/1234"
	first := Canonicalize(p)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Canonicalize(p))
	}
}
