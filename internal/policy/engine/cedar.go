package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	cedar "github.com/cedar-policy/cedar-go"
	"github.com/sirupsen/logrus"

	"sdr-juridico/backend/internal/logging"
	"sdr-juridico/backend/internal/permission"
)

const cedarNamespace = "Sdr"

// CedarEngine evaluates a Cedar policy set generated from the permission catalog.
type CedarEngine struct {
	policies *cedar.PolicySet
	text     string
	log      logrus.FieldLogger
}

// NewCedarEngine generates and parses the policy set. Returns an error if parsing fails.
func NewCedarEngine(log logrus.FieldLogger) (*CedarEngine, error) {
	text := CedarPolicies()
	ps, err := cedar.NewPolicySetFromBytes("catalog.cedar", []byte(text))
	if err != nil {
		return nil, fmt.Errorf("cedar: parse policies: %w", err)
	}
	return &CedarEngine{policies: ps, text: text, log: logging.Component(log, "policy.cedar")}, nil
}

// CedarPolicies renders one permit per catalog grant. A manage grant permits the CRUD actions
// and manage itself.
func CedarPolicies() string {
	grants := grantsByRole()
	roles := make([]string, 0, len(grants))
	for r := range grants {
		roles = append(roles, string(r))
	}
	sort.Strings(roles)

	var b strings.Builder
	for _, role := range roles {
		for _, p := range grants[permission.Role(role)] {
			actions := []permission.Action{p.Action}
			if p.Action == permission.ActionManage {
				actions = permission.Actions()
			}
			quoted := make([]string, len(actions))
			for i, a := range actions {
				quoted[i] = fmt.Sprintf(`%s::Action::%q`, cedarNamespace, a)
			}
			fmt.Fprintf(&b, "permit (\n  principal == %s::Role::%q,\n  action in [%s],\n  resource == %s::Resource::%q\n);\n\n",
				cedarNamespace, role, strings.Join(quoted, ", "), cedarNamespace, p.Resource)
		}
	}
	return b.String()
}

// Name returns "cedar".
func (e *CedarEngine) Name() string { return NameCedar }

// Decide authorizes Role::role performing Action::action on Resource::resource.
func (e *CedarEngine) Decide(_ context.Context, in Input) (bool, error) {
	req := cedar.Request{
		Principal: cedar.NewEntityUID(cedar.EntityType(cedarNamespace+"::Role"), cedar.String(in.Role)),
		Action:    cedar.NewEntityUID(cedar.EntityType(cedarNamespace+"::Action"), cedar.String(in.Action)),
		Resource:  cedar.NewEntityUID(cedar.EntityType(cedarNamespace+"::Resource"), cedar.String(in.Resource)),
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	}
	decision, diagnostic := cedar.Authorize(e.policies, cedar.EntityMap{}, req)
	if len(diagnostic.Errors) > 0 {
		e.log.WithField("errors", len(diagnostic.Errors)).Warn("cedar evaluation reported errors")
		return false, fmt.Errorf("cedar: %d evaluation errors", len(diagnostic.Errors))
	}
	return decision == cedar.Allow, nil
}

// HealthCheck evaluates a known catalog grant.
func (e *CedarEngine) HealthCheck(ctx context.Context) error {
	allowed, err := e.Decide(ctx, Input{
		Role:     permission.RolePlatformOperator,
		Resource: permission.ResourceOrganizations,
		Action:   permission.ActionRead,
	})
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("cedar policies denied a catalog grant")
	}
	return nil
}
