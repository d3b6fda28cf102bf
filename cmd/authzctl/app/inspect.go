package app

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sdr-juridico/backend/internal/authz"
	"sdr-juridico/backend/internal/config"
	"sdr-juridico/backend/internal/db"
	"sdr-juridico/backend/internal/identity"
	membershiprepo "sdr-juridico/backend/internal/membership/repository"
	orgrepo "sdr-juridico/backend/internal/organization/repository"
	"sdr-juridico/backend/internal/permission"
	"sdr-juridico/backend/internal/policy/engine"
	"sdr-juridico/backend/internal/scope"
	"sdr-juridico/backend/internal/security"
	"sdr-juridico/backend/internal/session"
	userdomain "sdr-juridico/backend/internal/user/domain"
	userrepo "sdr-juridico/backend/internal/user/repository"
)

type stores struct {
	cfg     *config.Config
	conn    *sql.DB
	users   *userrepo.PostgresRepository
	orgs    *orgrepo.PostgresRepository
	members *membershiprepo.PostgresRepository
}

func openStores(ctx context.Context) (*stores, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &stores{
		cfg:     cfg,
		conn:    conn,
		users:   userrepo.NewPostgresRepository(conn),
		orgs:    orgrepo.NewPostgresRepository(conn),
		members: membershiprepo.NewPostgresRepository(conn),
	}, nil
}

func (s *stores) user(ctx context.Context, id string) (*userdomain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %q not found", id)
	}
	return u, nil
}

func newScopeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scope <user-id>",
		Short: "Resolve the working organization and role of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer st.conn.Close()

			u, err := st.user(ctx, args[0])
			if err != nil {
				return err
			}
			sc, err := scope.NewResolver(st.members, st.orgs, newLogger(cmd)).Resolve(ctx, u)
			if err != nil {
				return err
			}
			status := "-"
			if sc.HasOrg() {
				o, err := st.orgs.GetOrganizationByID(ctx, sc.ActiveOrgID)
				if err != nil {
					return err
				}
				if o != nil {
					status = string(o.Status)
				}
			}
			t := newTable(cmd.OutOrStdout(), "User", "Operator", "Org", "Org Status", "Role", "Member Role")
			if err := t.Append([]string{
				u.ID, strconv.FormatBool(sc.IsPlatformOperator), orDash(sc.ActiveOrgID), status,
				orDash(string(sc.Role)), orDash(string(sc.MemberRole)),
			}); err != nil {
				return err
			}
			return t.Render()
		},
	}
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <user-id> <resource> <action>",
		Short: "Evaluate one permission for a user through the cached and fresh paths",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, action := permission.Resource(args[1]), permission.Action(args[2])
			if !permission.New(resource, action).Valid() {
				return fmt.Errorf("%w: %s:%s", permission.ErrInvalidPermission, resource, action)
			}
			orgID, err := cmd.Flags().GetString("org")
			if err != nil {
				return err
			}
			engineName, err := cmd.Flags().GetString("engine")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, err := openStores(ctx)
			if err != nil {
				return err
			}
			defer st.conn.Close()

			u, err := st.user(ctx, args[0])
			if err != nil {
				return err
			}
			log := newLogger(cmd)
			if engineName == "" {
				engineName = st.cfg.PolicyEngine
			}
			eng, err := engine.New(ctx, engineName, log)
			if err != nil {
				return err
			}

			ident := identity.Static(u)
			scopes := scope.NewResolver(st.members, st.orgs, log)
			sess := session.New("authzctl", u.ID, session.Deps{
				Identity: ident,
				Scopes:   scopes,
				Orgs:     st.orgs,
				Log:      log,
				Timeout:  10 * time.Second,
			})
			snap, err := sess.Bootstrap(ctx)
			if err != nil {
				return fmt.Errorf("resolve session: %w", err)
			}
			ev := authz.New(sess, authz.Deps{Identity: ident, Scopes: scopes, Engine: eng, Log: log})
			res, err := ev.CheckTarget(ctx, resource, action, orgID)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout(), "Path", "Org", "Role", "Allowed", "Reason")
			if err := t.Append([]string{
				"cached", orDash(snap.Scope.ActiveOrgID), orDash(string(snap.Scope.Role)),
				strconv.FormatBool(ev.CanSync(resource, action)), "-",
			}); err != nil {
				return err
			}
			target := orgID
			if target == "" {
				target = snap.Scope.ActiveOrgID
			}
			if err := t.Append([]string{
				"fresh (" + eng.Name() + ")", orDash(target), orDash(string(snap.Scope.Role)),
				strconv.FormatBool(res.Allowed), orDash(res.Reason),
			}); err != nil {
				return err
			}
			return t.Render()
		},
	}
	cmd.Flags().String("org", "", "Check against this organization instead of the working one")
	cmd.Flags().String("engine", "", "Decision engine for the fresh path (defaults to POLICY_ENGINE)")
	return cmd
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a development access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			sessionID, err := cmd.Flags().GetString("session")
			if err != nil {
				return err
			}
			if sessionID == "" {
				sessionID = "authzctl-" + args[0]
			}
			tokens, err := security.LoadProvider(cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
			if err != nil {
				return err
			}
			tok, exp, err := tokens.IssueAccess(sessionID, args[0])
			if err != nil {
				return err
			}
			newLogger(cmd).WithField("expires_at", exp.Format(time.RFC3339)).Debug("token issued")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().String("session", "", "Session id claim (defaults to authzctl-<user-id>)")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
