package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgdnv/stitchnstyle/pkg/config"
)

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	Staff   bool
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// StaffResolver decides whether subject is a designer/admin from an external source.
type StaffResolver interface {
	IsStaff(ctx context.Context, subject string) (bool, error)
}

// StaffDirectory knows which subjects are designers/admins: the configured subjects, plus
// whoever the optional resolver vouches for.
type StaffDirectory struct {
	subjects map[string]struct{}
	resolver StaffResolver
	logger   *slog.Logger
}

// NewStaffDirectory builds a directory from the configured subjects.
func NewStaffDirectory(subjects []string) *StaffDirectory {
	d := &StaffDirectory{subjects: make(map[string]struct{}, len(subjects))}
	for _, s := range subjects {
		if s != "" {
			d.subjects[s] = struct{}{}
		}
	}
	return d
}

// WithResolver consults r for subjects missing from the configured list. Resolver errors
// are logged and the caller is treated as a customer.
func (d *StaffDirectory) WithResolver(r StaffResolver, logger *slog.Logger) *StaffDirectory {
	d.resolver = r
	d.logger = logger
	return d
}

// Principal resolves subject into a principal.
func (d *StaffDirectory) Principal(ctx context.Context, subject string) Principal {
	p := Principal{Subject: subject}
	if subject == "" {
		return p
	}
	if _, ok := d.subjects[subject]; ok {
		p.Staff = true
		return p
	}
	if d.resolver == nil {
		return p
	}
	staff, err := d.resolver.IsStaff(ctx, subject)
	if err != nil {
		d.logger.WarnContext(ctx, "staff lookup failed, treating caller as customer", "subject", subject, "error", err)
		return p
	}
	p.Staff = staff
	return p
}

// NewVerifier builds the verifier selected by cfg.Mode.
func NewVerifier(ctx context.Context, cfg config.AuthConfig) (Verifier, error) {
	switch cfg.Mode {
	case config.AuthModeJWKS:
		return NewJWTVerifier(ctx, cfg.IdP)
	case config.AuthModeSecret:
		return NewSecretVerifier(cfg.Secret), nil
	default:
		return nil, fmt.Errorf("unknown auth mode: %q", cfg.Mode)
	}
}
