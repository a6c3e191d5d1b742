package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/stitchnstyle/pkg/config"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKeycloak serves the token endpoint and the two admin endpoints KeycloakStaff reads.
type fakeKeycloak struct {
	logins  atomic.Int32
	lookups atomic.Int32
	roles   map[string][]string
	groups  map[string][]string
}

func (f *fakeKeycloak) start(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/realms/shop/protocol/openid-connect/token", func(w http.ResponseWriter, _ *http.Request) {
		f.logins.Add(1)
		writeJSON(w, map[string]any{"access_token": "service-token", "expires_in": 300, "token_type": "Bearer"})
	})
	named := func(source map[string][]string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.lookups.Add(1)
			if r.Header.Get("Authorization") != "Bearer service-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			names, ok := source[chi.URLParam(r, "id")]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				writeJSON(w, map[string]string{"error": "User not found"})
				return
			}
			out := make([]map[string]string, 0, len(names))
			for _, n := range names {
				out = append(out, map[string]string{"name": n})
			}
			writeJSON(w, out)
		}
	}
	r.Get("/admin/realms/shop/users/{id}/role-mappings/realm", named(f.roles))
	r.Get("/admin/realms/shop/users/{id}/groups", named(f.groups))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func keycloakConfig(url string) config.KeycloakConfig {
	return config.KeycloakConfig{
		URL:         url,
		Realm:       "shop",
		ClientID:    "storefront",
		Secret:      "s3cret",
		StaffRoles:  []string{"designer"},
		StaffGroups: []string{"admins"},
		CacheTTL:    time.Minute,
	}
}

func TestKeycloakStaff_IsStaff(t *testing.T) {
	fake := &fakeKeycloak{
		roles: map[string][]string{
			"u-designer": {"default-roles-shop", "designer"},
			"u-admin":    {"default-roles-shop"},
			"u-customer": {"default-roles-shop"},
		},
		groups: map[string][]string{
			"u-admin":    {"admins"},
			"u-customer": {"newsletter"},
		},
	}
	srv := fake.start(t)
	k, err := NewKeycloakStaff(context.Background(), keycloakConfig(srv.URL))
	require.NoError(t, err)

	tests := []struct {
		subject string
		want    bool
	}{
		{subject: "u-designer", want: true},
		{subject: "u-admin", want: true},
		{subject: "u-customer", want: false},
		{subject: "not-in-keycloak", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			got, err := k.IsStaff(context.Background(), tt.subject)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, int32(1), fake.logins.Load(), "service token is reused")
}

func TestKeycloakStaff_CachesDecisions(t *testing.T) {
	// given
	fake := &fakeKeycloak{roles: map[string][]string{"u-designer": {"designer"}}}
	srv := fake.start(t)
	k, err := NewKeycloakStaff(context.Background(), keycloakConfig(srv.URL))
	require.NoError(t, err)
	now := time.Now()
	k.now = func() time.Time { return now }

	// when
	for range 3 {
		staff, err := k.IsStaff(context.Background(), "u-designer")
		require.NoError(t, err)
		require.True(t, staff)
	}
	lookupsBeforeExpiry := fake.lookups.Load()
	now = now.Add(2 * time.Minute)
	_, err = k.IsStaff(context.Background(), "u-designer")

	// then
	require.NoError(t, err)
	assert.Equal(t, int32(1), lookupsBeforeExpiry)
	assert.Equal(t, int32(2), fake.lookups.Load())
}

func TestNewKeycloakStaff_LoginFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]string{"error": "unauthorized_client"})
	}))
	t.Cleanup(srv.Close)

	_, err := NewKeycloakStaff(context.Background(), keycloakConfig(srv.URL))

	assert.ErrorContains(t, err, "service account login failed")
}
