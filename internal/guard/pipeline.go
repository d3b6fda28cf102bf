package guard

import (
	"context"
	"time"

	"sdr-juridico/backend/internal/session"
)

// Pipeline runs guards in order and stops at the first decision that is not allowed.
// It has no cycles: every guard runs at most once.
type Pipeline struct {
	guards []Guard
}

// NewPipeline returns a pipeline over guards. Nil guards are skipped.
func NewPipeline(guards ...Guard) Pipeline {
	out := make([]Guard, 0, len(guards))
	for _, g := range guards {
		if g != nil {
			out = append(out, g)
		}
	}
	return Pipeline{guards: out}
}

// Len returns the number of guards.
func (p Pipeline) Len() int { return len(p.guards) }

// Evaluate runs the guards. An empty pipeline denies as misconfigured.
func (p Pipeline) Evaluate(ctx context.Context, ev Evaluator) Decision {
	if len(p.guards) == 0 {
		return Decision{
			State:       StateDenied,
			Cause:       CauseMisconfigured,
			Reason:      "empty guard pipeline",
			Disposition: Disposition{Kind: DispositionRedirect, Target: PathUnauthorized},
			Err:         ErrNoCriteria,
		}
	}
	for _, g := range p.guards {
		d := g.Evaluate(ctx, ev)
		if d.State != StateAllowed {
			if d.Guard == "" {
				d.Guard = g.Name()
			}
			return d
		}
	}
	return allow()
}

// Ensurer starts or waits for session resolution. *session.Session implements it.
type Ensurer interface {
	Ensure(ctx context.Context, bound time.Duration) *session.Snapshot
}

// EvaluateSession waits at most bound for sess to resolve, then evaluates. A session still
// resolving after bound yields a pending decision.
func (p Pipeline) EvaluateSession(ctx context.Context, sess Ensurer, bound time.Duration, ev Evaluator) Decision {
	if sess != nil {
		sess.Ensure(ctx, bound)
	}
	return p.Evaluate(ctx, ev)
}
