// Package tenancy holds the per-request tenant context and the resolver that
// fills it.
package tenancy

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrTenantAlreadySet = errors.New("tenant context already set for this request")
	ErrNilTenant        = errors.New("tenant id must not be nil")
)

// TenantContext is the resolved tenant for one inbound request. It is written
// at most once and must never be shared between requests.
type TenantContext struct {
	tenantID uuid.UUID
	set      bool
}

func New() *TenantContext {
	return &TenantContext{}
}

// ForTenant returns a context already set to id. Used by trusted internal paths.
func ForTenant(id uuid.UUID) *TenantContext {
	return &TenantContext{tenantID: id, set: id != uuid.Nil}
}

// SetTenant commits the tenant for the rest of the request.
func (t *TenantContext) SetTenant(id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNilTenant
	}
	if t.set {
		return ErrTenantAlreadySet
	}
	t.tenantID = id
	t.set = true
	return nil
}

// TenantID returns the tenant and whether one is set. Safe on a nil receiver.
func (t *TenantContext) TenantID() (uuid.UUID, bool) {
	if t == nil || !t.set {
		return uuid.Nil, false
	}
	return t.tenantID, true
}

func (t *TenantContext) HasTenant() bool {
	_, ok := t.TenantID()
	return ok
}

func (t *TenantContext) String() string {
	if id, ok := t.TenantID(); ok {
		return id.String()
	}
	return "<unset>"
}

type contextKey struct{}

// WithTenantContext attaches tc to ctx for the lifetime of one request.
func WithTenantContext(ctx context.Context, tc *TenantContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the request's tenant context, or an unset one when the
// resolver never ran.
func FromContext(ctx context.Context) *TenantContext {
	if tc, ok := ctx.Value(contextKey{}).(*TenantContext); ok && tc != nil {
		return tc
	}
	return New()
}
