package tenancy

import (
	"context"
	"strings"

	"jobtracker/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderTenantID carries an explicit tenant selection.
const HeaderTenantID = "X-Tenant-Id"

// State is the step a resolution finished in.
type State int

const (
	StateUnresolved State = iota
	StateHeaderChecked
	StateClaimChecked
	StateValidated
	StateSet
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateHeaderChecked:
		return "header_checked"
	case StateClaimChecked:
		return "claim_checked"
	case StateValidated:
		return "validated"
	case StateSet:
		return "set"
	case StateRejected:
		return "rejected"
	default:
		return "unresolved"
	}
}

type Source string

const (
	SourceNone   Source = ""
	SourceHeader Source = "header"
	SourceClaim  Source = "claim"
)

// TenantFinder looks a tenant up without any tenant filter applied.
type TenantFinder interface {
	FindTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// Hints are the raw inputs a request offers for tenant selection.
type Hints struct {
	Header   string
	Identity *models.Identity
}

// Resolution describes how a request's tenant was decided.
type Resolution struct {
	State    State
	Source   Source
	TenantID uuid.UUID
}

type Resolver struct {
	finder TenantFinder
	logger *zap.Logger
}

func NewResolver(finder TenantFinder, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{finder: finder, logger: logger}
}

// Resolve selects the request's tenant and commits it into tc. An unknown,
// inactive or unparsable hint never fails the request; it leaves tc unset.
func (r *Resolver) Resolve(ctx context.Context, tc *TenantContext, hints Hints) Resolution {
	res := Resolution{State: StateUnresolved}

	candidate, ok := parseTenantID(hints.Header)
	res.State = StateHeaderChecked
	if ok {
		res.Source = SourceHeader
	} else {
		res.State = StateClaimChecked
		if hints.Identity != nil {
			if candidate, ok = parseTenantID(hints.Identity.TenantClaim); ok {
				res.Source = SourceClaim
			}
		}
	}

	if res.Source == SourceNone {
		return res
	}
	res.TenantID = candidate

	tenant, err := r.finder.FindTenant(ctx, candidate)
	if err != nil {
		r.logger.Error("tenant lookup failed",
			zap.String("tenant_id", candidate.String()),
			zap.String("source", string(res.Source)),
			zap.Error(err))
		res.State = StateRejected
		return res
	}
	if tenant == nil || !tenant.IsActive {
		r.logger.Warn("invalid tenant id",
			zap.String("tenant_id", candidate.String()),
			zap.String("source", string(res.Source)))
		res.State = StateRejected
		return res
	}
	res.State = StateValidated

	if err := tc.SetTenant(tenant.ID); err != nil {
		r.logger.Warn("tenant context not set", zap.Error(err))
		res.State = StateRejected
		return res
	}
	res.State = StateSet
	r.logger.Debug("tenant context set",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("source", string(res.Source)))
	return res
}

func parseTenantID(raw string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
