package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/abgdnv/stitchnstyle/pkg/config"
)

const (
	// tokenRefreshMargin renews the service account token before Keycloak expires it.
	tokenRefreshMargin = 10 * time.Second
	maxCachedSubjects  = 4096
)

var _ StaffResolver = (*KeycloakStaff)(nil)

type staffDecision struct {
	staff   bool
	expires time.Time
}

// KeycloakStaff grants staff to users holding one of the configured realm roles or
// belonging to one of the configured groups. Decisions are cached for cfg.CacheTTL.
type KeycloakStaff struct {
	client *gocloak.GoCloak
	cfg    config.KeycloakConfig
	roles  map[string]struct{}
	groups map[string]struct{}
	now    func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	decisions   map[string]staffDecision
}

// NewKeycloakStaff logs in with the service account once so a bad configuration fails at startup.
func NewKeycloakStaff(ctx context.Context, cfg config.KeycloakConfig) (*KeycloakStaff, error) {
	k := &KeycloakStaff{
		client:    gocloak.NewClient(cfg.URL),
		cfg:       cfg,
		roles:     toSet(cfg.StaffRoles),
		groups:    toSet(cfg.StaffGroups),
		now:       time.Now,
		decisions: make(map[string]staffDecision),
	}
	if _, err := k.accessToken(ctx); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *KeycloakStaff) IsStaff(ctx context.Context, subject string) (bool, error) {
	k.mu.Lock()
	d, ok := k.decisions[subject]
	k.mu.Unlock()
	if ok && k.now().Before(d.expires) {
		return d.staff, nil
	}

	staff, err := k.lookup(ctx, subject)
	if err != nil {
		return false, err
	}

	k.mu.Lock()
	if len(k.decisions) >= maxCachedSubjects {
		clear(k.decisions)
	}
	k.decisions[subject] = staffDecision{staff: staff, expires: k.now().Add(k.cfg.CacheTTL)}
	k.mu.Unlock()
	return staff, nil
}

func (k *KeycloakStaff) lookup(ctx context.Context, subject string) (bool, error) {
	token, err := k.accessToken(ctx)
	if err != nil {
		return false, err
	}
	if len(k.roles) > 0 {
		roles, err := k.client.GetRealmRolesByUserID(ctx, token, k.cfg.Realm, subject)
		if err != nil {
			return false, unknownUserIsCustomer(err, "realm roles")
		}
		for _, role := range roles {
			if _, ok := k.roles[gocloak.PString(role.Name)]; ok {
				return true, nil
			}
		}
	}
	if len(k.groups) > 0 {
		groups, err := k.client.GetUserGroups(ctx, token, k.cfg.Realm, subject, gocloak.GetGroupsParams{})
		if err != nil {
			return false, unknownUserIsCustomer(err, "groups")
		}
		for _, group := range groups {
			if _, ok := k.groups[gocloak.PString(group.Name)]; ok {
				return true, nil
			}
		}
	}
	return false, nil
}

// accessToken returns the cached service account token, logging in again near its expiry.
func (k *KeycloakStaff) accessToken(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.token != "" && k.now().Before(k.tokenExpiry) {
		return k.token, nil
	}
	jwt, err := k.client.LoginClient(ctx, k.cfg.ClientID, k.cfg.Secret, k.cfg.Realm)
	if err != nil {
		return "", fmt.Errorf("keycloak service account login failed: %w", err)
	}
	k.token = jwt.AccessToken
	k.tokenExpiry = k.now().Add(time.Duration(jwt.ExpiresIn)*time.Second - tokenRefreshMargin)
	return k.token, nil
}

// unknownUserIsCustomer turns a 404 from the admin API into a plain "not staff": subjects
// signed by other issuers have no Keycloak account.
func unknownUserIsCustomer(err error, what string) error {
	var apiErr *gocloak.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return nil
	}
	return fmt.Errorf("failed to read keycloak %s: %w", what, err)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
