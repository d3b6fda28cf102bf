// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev operator (dev@example.com) already exists.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"sdr-juridico/backend/internal/config"
	"sdr-juridico/backend/internal/db"
	"sdr-juridico/backend/internal/logging"
	memberdomain "sdr-juridico/backend/internal/membership/domain"
	membershiprepo "sdr-juridico/backend/internal/membership/repository"
	orgdomain "sdr-juridico/backend/internal/organization/domain"
	orgrepo "sdr-juridico/backend/internal/organization/repository"
	"sdr-juridico/backend/internal/security"
	userdomain "sdr-juridico/backend/internal/user/domain"
	userrepo "sdr-juridico/backend/internal/user/repository"
)

const (
	devOperatorEmail = "dev@example.com"
	devOperatorID    = "dev-user-001"
	devAdminID       = "dev-user-002"
	devLawyerID      = "dev-user-003"
	devFrozenID      = "dev-user-004"
	devOrgID         = "dev-org-001"
	devSuspendedID   = "dev-org-002"
)

type seedUser struct {
	user   userdomain.User
	orgID  string
	role   memberdomain.Role
	member bool
}

func main() {
	printTokens := flag.Bool("tokens", false, "Print a dev access token per seeded user (needs JWT_PRIVATE_KEY)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").Fatalf("config: %v", err)
	}
	log := logging.Component(logging.New(cfg.LogLevel, cfg.LogFormat), "seed")
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	orgs := orgrepo.NewPostgresRepository(conn)
	members := membershiprepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, devOperatorEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	seeded := []seedUser{
		{user: userdomain.User{ID: devOperatorID, Email: devOperatorEmail, Name: "Dev Operator", IsPlatformOperator: true}},
		{user: userdomain.User{ID: devAdminID, Email: "admin@example.com", Name: "Dev Admin"}, orgID: devOrgID, role: memberdomain.RoleAdmin, member: true},
		{user: userdomain.User{ID: devLawyerID, Email: "lawyer@example.com", Name: "Dev Lawyer"}, orgID: devOrgID, role: memberdomain.RoleAdvogado, member: true},
		{user: userdomain.User{ID: devFrozenID, Email: "frozen@example.com", Name: "Frozen Member"}, orgID: devSuspendedID, role: memberdomain.RoleGestor, member: true},
	}

	if existing != nil {
		log.Info("seed already applied (dev@example.com exists), skipping inserts")
	} else {
		now := time.Now().UTC()
		for _, o := range []*orgdomain.Org{
			{ID: devOrgID, Name: "Escritório Dev", Status: orgdomain.OrgStatusTrial, Plan: orgdomain.OrgPlanTrial, CreatedAt: now},
			{ID: devSuspendedID, Name: "Escritório Suspenso", Status: orgdomain.OrgStatusSuspended, Plan: orgdomain.OrgPlanBasic, CreatedAt: now},
		} {
			if err := orgs.CreateOrganization(ctx, o); err != nil {
				log.Fatalf("create org %s: %v", o.ID, err)
			}
		}
		for i, s := range seeded {
			u := s.user
			u.CreatedAt, u.UpdatedAt = now, now
			if err := users.Create(ctx, &u); err != nil {
				log.Fatalf("create user %s: %v", u.Email, err)
			}
			if !s.member {
				continue
			}
			m := &memberdomain.Membership{
				ID:        fmt.Sprintf("dev-membership-%03d", i+1),
				UserID:    u.ID,
				OrgID:     s.orgID,
				Role:      s.role,
				Active:    true,
				CreatedAt: now,
			}
			if err := members.CreateMembership(ctx, m); err != nil {
				log.Fatalf("create membership %s: %v", m.ID, err)
			}
		}
		log.Info("seed completed")
	}

	if !*printTokens {
		return
	}
	tokens, err := security.LoadProvider(cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	if err != nil {
		log.Fatalf("jwt keys: %v", err)
	}
	for _, s := range seeded {
		tok, exp, err := tokens.IssueAccess("dev-session-"+s.user.ID, s.user.ID)
		if err != nil {
			log.Fatalf("issue token for %s: %v", s.user.Email, err)
		}
		fmt.Printf("%s (expires %s)\n  %s\n", s.user.Email, exp.Format(time.RFC3339), tok)
	}
}
