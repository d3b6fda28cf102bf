package server

import (
	"fmt"

	"sdr-juridico/backend/internal/guard"
	"sdr-juridico/backend/internal/permission"
	"sdr-juridico/backend/internal/server/interceptors"
)

// crudService names the gRPC service serving one org-scoped resource.
type crudService struct {
	resource permission.Resource
	service  string
	noun     string
	plural   string
}

var crudServices = []crudService{
	{permission.ResourceLeads, "sdr.lead.v1.LeadService", "Lead", "Leads"},
	{permission.ResourceClients, "sdr.client.v1.ClientService", "Client", "Clients"},
	{permission.ResourceCases, "sdr.case.v1.CaseService", "Case", "Cases"},
	{permission.ResourceDocuments, "sdr.document.v1.DocumentService", "Document", "Documents"},
	{permission.ResourceAgenda, "sdr.agenda.v1.AgendaService", "Event", "Events"},
	{permission.ResourceIntegrations, "sdr.integration.v1.IntegrationService", "Integration", "Integrations"},
	{permission.ResourceReports, "sdr.report.v1.ReportService", "Report", "Reports"},
	{permission.ResourceUsers, "sdr.user.v1.UserService", "User", "Users"},
}

// Method builds a full method name.
func Method(service, method string) string { return fmt.Sprintf("/%s/%s", service, method) }

// DefaultRules is the access table of the CRM's gRPC surface. Org-scoped CRUD methods need an
// operational organization plus the matching permission; settings need an org admin; the
// platform admin service needs a platform operator.
func DefaultRules() interceptors.Rules {
	rules := interceptors.Rules{}
	for _, s := range crudServices {
		methods := map[string]permission.Action{
			"Get" + s.noun:    permission.ActionRead,
			"List" + s.plural: permission.ActionRead,
			"Create" + s.noun: permission.ActionCreate,
			"Update" + s.noun: permission.ActionUpdate,
			"Delete" + s.noun: permission.ActionDelete,
		}
		for m, a := range methods {
			rules[Method(s.service, m)] = interceptors.Rule{Pipeline: guard.NewPipeline(
				guard.OrgActive(),
				guard.Permission(guard.Pair(s.resource, a)),
			)}
		}
	}

	orgAdmin := guard.NewPipeline(guard.OrgActive(), guard.OrgAdmin())
	rules[Method("sdr.settings.v1.SettingsService", "GetSettings")] = interceptors.Rule{Pipeline: guard.NewPipeline(
		guard.OrgActive(), guard.Permission(guard.Pair(permission.ResourceSettings, permission.ActionRead)))}
	rules[Method("sdr.settings.v1.SettingsService", "UpdateSettings")] = interceptors.Rule{Pipeline: orgAdmin}
	rules[Method("sdr.membership.v1.MembershipService", "AddMember")] = interceptors.Rule{Pipeline: orgAdmin}
	rules[Method("sdr.membership.v1.MembershipService", "RemoveMember")] = interceptors.Rule{Pipeline: orgAdmin}
	rules[Method("sdr.membership.v1.MembershipService", "UpdateRole")] = interceptors.Rule{Pipeline: orgAdmin}
	rules[Method("sdr.billing.v1.BillingService", "GetBilling")] = interceptors.Rule{Pipeline: guard.NewPipeline(
		guard.OrgActive(), guard.Permission(guard.Pair(permission.ResourceBilling, permission.ActionRead)))}
	// Organization status is readable while suspended so the client can render the suspended page.
	rules[Method("sdr.organization.v1.OrganizationService", "GetOrganization")] = interceptors.Rule{Pipeline: guard.NewPipeline(
		guard.Permission(guard.Pair(permission.ResourceOrganizations, permission.ActionRead)))}
	rules[Method("sdr.organization.v1.OrganizationService", "UpdateOrganization")] = interceptors.Rule{Pipeline: guard.NewPipeline(
		guard.OrgActive(), guard.Permission(guard.Pair(permission.ResourceOrganizations, permission.ActionUpdate)))}

	operator := guard.NewPipeline(guard.PlatformOperator())
	for _, m := range []string{"ListOrganizations", "CreateOrganization", "SuspendOrganization", "ReactivateOrganization"} {
		rules[Method("sdr.admin.v1.AdminService", m)] = interceptors.Rule{Pipeline: operator}
	}
	return rules
}
