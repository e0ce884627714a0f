package app

import (
	"context"
	"math/rand/v2"

	"github.com/corey/survey/internal/domain/survey"
	"github.com/corey/survey/internal/ports"
	"go.uber.org/zap"
)

// ResolutionSource records where an assigned group came from.
type ResolutionSource string

const (
	SourceRemote   ResolutionSource = "remote"
	SourceFallback ResolutionSource = "fallback"
)

// Fallback reasons.
const (
	ReasonUnconfigured = "unconfigured"
	ReasonRemoteError  = "remote error"
	ReasonOutOfRange   = "out of range"
)

// Resolution is the outcome of a group assignment.
type Resolution struct {
	Group  int
	Source ResolutionSource
	Reason string // empty for SourceRemote
}

// Resolver picks the respondent's group. It asks the allocation endpoint
// when one is configured and falls back to a uniform random group
// otherwise. It never fails: every path yields a group in [1, Groups].
type Resolver struct {
	alloc  ports.Allocator // nil = no endpoint
	layout survey.Layout
	log    *zap.Logger
	intN   func(n int) int
}

// NewResolver creates a resolver. alloc may be nil.
func NewResolver(alloc ports.Allocator, layout survey.Layout, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		alloc:  alloc,
		layout: layout,
		log:    log,
		intN:   rand.IntN,
	}
}

// Resolve returns a group for d.
func (r *Resolver) Resolve(ctx context.Context, d survey.Demographics) Resolution {
	if r.alloc == nil {
		r.log.Warn("allocation endpoint not configured, assigning random group")
		return r.fallback(ReasonUnconfigured)
	}

	g, err := r.alloc.Allocate(ctx, d)
	if err != nil {
		r.log.Error("group allocation failed, assigning random group", zap.Error(err))
		return r.fallback(ReasonRemoteError)
	}
	if g < 1 || g > r.layout.Groups() {
		r.log.Error("allocation endpoint returned group out of range",
			zap.Int("group", g), zap.Int("groups", r.layout.Groups()))
		return r.fallback(ReasonOutOfRange)
	}

	r.log.Info("group assigned", zap.Int("group", g), zap.String("stratum", d.Stratum()))
	return Resolution{Group: g, Source: SourceRemote}
}

func (r *Resolver) fallback(reason string) Resolution {
	g := r.intN(r.layout.Groups()) + 1
	r.log.Info("fallback group assigned", zap.Int("group", g), zap.String("reason", reason))
	return Resolution{Group: g, Source: SourceFallback, Reason: reason}
}
