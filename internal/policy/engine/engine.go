// Package engine provides the pluggable decision backends behind the permission evaluator.
// Every engine is compiled from the static permission catalog and must agree with it.
package engine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"sdr-juridico/backend/internal/permission"
)

// Engine names accepted by New.
const (
	NameCatalog = "catalog"
	NameOPA     = "opa"
	NameCedar   = "cedar"
)

// Input is one authorization question: may role perform action on resource.
type Input struct {
	Role     permission.Role
	Resource permission.Resource
	Action   permission.Action
}

// Engine decides an Input. An error means the decision could not be made; callers deny.
type Engine interface {
	Name() string
	Decide(ctx context.Context, in Input) (bool, error)
}

// HealthChecker is implemented by engines that can verify their compiled policy at runtime.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// New builds the engine named by name (catalog, opa or cedar).
func New(ctx context.Context, name string, log logrus.FieldLogger) (Engine, error) {
	switch name {
	case "", NameCatalog:
		return NewCatalogEngine(), nil
	case NameOPA:
		return NewOPAEngine(ctx, log)
	case NameCedar:
		return NewCedarEngine(log)
	default:
		return nil, fmt.Errorf("policy engine: unknown engine %q", name)
	}
}

// CatalogEngine answers from materialized catalog sets. It never errors.
type CatalogEngine struct {
	sets map[permission.Role]*permission.Set
}

// NewCatalogEngine materializes one set per known role.
func NewCatalogEngine() *CatalogEngine {
	sets := make(map[permission.Role]*permission.Set)
	for _, r := range permission.Roles() {
		sets[r] = permission.NewSet(r)
	}
	return &CatalogEngine{sets: sets}
}

// Name returns "catalog".
func (e *CatalogEngine) Name() string { return NameCatalog }

// Decide reports whether the role's catalog entry covers the input. Unknown roles are denied.
func (e *CatalogEngine) Decide(_ context.Context, in Input) (bool, error) {
	return e.sets[in.Role].Allows(in.Resource, in.Action), nil
}

// grantsByRole returns the catalog as role -> permissions, the shape both generated policies are built from.
func grantsByRole() map[permission.Role][]permission.Permission {
	out := make(map[permission.Role][]permission.Permission)
	for _, r := range permission.Roles() {
		out[r] = permission.PermissionsForRole(r)
	}
	return out
}
