package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/sirupsen/logrus"

	"sdr-juridico/backend/internal/logging"
	"sdr-juridico/backend/internal/permission"
)

const (
	regoPackage = "sdr.authz"
	regoQuery   = "data.sdr.authz.allow"
)

// regoTemplate receives the catalog as a JSON object keyed by role.
const regoTemplate = `package sdr.authz

default allow := false

grants := %s

allow if {
	some g in grants[input.role]
	g.resource == input.resource
	g.action in {input.action, "manage"}
}
`

// OPAEngine evaluates a Rego module generated from the permission catalog.
type OPAEngine struct {
	module   string
	prepared rego.PreparedEvalQuery
	log      logrus.FieldLogger
}

// NewOPAEngine generates and compiles the Rego module once. Returns an error if compilation fails.
func NewOPAEngine(ctx context.Context, log logrus.FieldLogger) (*OPAEngine, error) {
	module, err := RegoModule()
	if err != nil {
		return nil, err
	}
	prepared, err := rego.New(
		rego.Query(regoQuery),
		rego.Module("authz.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("opa: prepare: %w", err)
	}
	return &OPAEngine{module: module, prepared: prepared, log: logging.Component(log, "policy.opa")}, nil
}

// RegoModule renders the catalog as a Rego module in package sdr.authz.
func RegoModule() (string, error) {
	type grant struct {
		Resource string `json:"resource"`
		Action   string `json:"action"`
	}
	data := make(map[string][]grant)
	for role, perms := range grantsByRole() {
		gs := make([]grant, 0, len(perms))
		for _, p := range perms {
			gs = append(gs, grant{Resource: string(p.Resource), Action: string(p.Action)})
		}
		data[string(role)] = gs
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("opa: encode grants: %w", err)
	}
	return fmt.Sprintf(regoTemplate, b), nil
}

// Name returns "opa".
func (e *OPAEngine) Name() string { return NameOPA }

// Decide evaluates data.sdr.authz.allow for the input.
func (e *OPAEngine) Decide(ctx context.Context, in Input) (bool, error) {
	input := map[string]interface{}{
		"role":     string(in.Role),
		"resource": string(in.Resource),
		"action":   string(in.Action),
	}
	rs, err := e.prepared.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		e.log.WithError(err).WithField("role", in.Role).Warn("rego evaluation failed")
		return false, fmt.Errorf("opa: eval: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, errors.New("opa: query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("opa: unexpected result type %T", rs[0].Expressions[0].Value)
	}
	return allowed, nil
}

// HealthCheck recompiles the generated module and evaluates a known grant.
// Does not touch the database. Returns nil on success.
func (e *OPAEngine) HealthCheck(ctx context.Context) error {
	if _, err := ast.CompileModules(map[string]string{"authz.rego": e.module}); err != nil {
		return fmt.Errorf("compile generated policy: %w", err)
	}
	allowed, err := e.Decide(ctx, Input{
		Role:     permission.RolePlatformOperator,
		Resource: permission.ResourceOrganizations,
		Action:   permission.ActionRead,
	})
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("policy %s denied a catalog grant", regoPackage)
	}
	return nil
}
