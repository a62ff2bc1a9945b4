package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/talkauth/internal/audit"
	"github.com/dropDatabas3/talkauth/internal/auth"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

func newTokenCmd(cl *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Emitir e inspeccionar tokens de sesión"}

	var subject string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Emitir un token de sesión para una identidad",
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				return fmt.Errorf("--subject es requerido")
			}
			c, err := cl.container(cmd.Context())
			if err != nil {
				return err
			}
			tok, err := c.Codec.Issue(subject)
			if err != nil {
				return err
			}
			cl.print(map[string]any{
				"token":      tok.Raw,
				"jti":        tok.ID(),
				"expires_at": tok.ExpiresAt(),
			}, tok.Raw)
			return nil
		},
	}
	issue.Flags().StringVar(&subject, "subject", "", "ID de la identidad")

	inspect := &cobra.Command{
		Use:   "inspect <token>",
		Short: "Verificar un token y mostrar sus claims y estado de revocación",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := cl.container(ctx)
			if err != nil {
				return err
			}
			tok, err := c.Codec.Verify(args[0])
			if err != nil {
				return fmt.Errorf("token inválido: %w", err)
			}
			revoked, err := c.Revocations.IsRevoked(ctx, tok.ID())
			if err != nil {
				return err
			}
			cl.print(map[string]any{
				"subject":    tok.Subject(),
				"jti":        tok.ID(),
				"pat":        tok.IsPAT(),
				"expires_at": tok.ExpiresAt(),
				"revoked":    revoked,
			}, fmt.Sprintf("sub=%s jti=%s pat=%t exp=%s revoked=%t",
				tok.Subject(), tok.ID(), tok.IsPAT(), tok.ExpiresAt().Format(time.RFC3339), revoked))
			return nil
		},
	}

	cmd.AddCommand(issue, inspect)
	return cmd
}

func newRevokeCmd(cl *cli) *cobra.Command {
	var (
		jti string
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "revoke [token]",
		Short: "Revocar un token (por token completo o por --jti y --ttl)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := cl.container(ctx)
			if err != nil {
				return err
			}

			var exp time.Time
			switch {
			case len(args) == 1:
				tok, err := c.Codec.Verify(args[0])
				if err != nil {
					return fmt.Errorf("token inválido: %w", err)
				}
				jti, exp = tok.ID(), tok.ExpiresAt()
			case jti != "" && ttl > 0:
				exp = time.Now().Add(ttl)
			default:
				return fmt.Errorf("pasar un token, o --jti y --ttl")
			}

			if err := c.Revocations.Revoke(ctx, jti, exp); err != nil {
				return err
			}
			audit.Log(ctx, audit.TokenRevoked, logger.JTI(jti), logger.String("via", "authctl"))
			cl.print(map[string]any{"jti": jti, "revoked_until": exp}, "revoked "+jti)
			return nil
		},
	}
	cmd.Flags().StringVar(&jti, "jti", "", "jti a revocar")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Tiempo de vida restante del token (con --jti)")
	return cmd
}

func newCheckCmd(cl *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check <token>",
		Short: "Correr la estrategia bearer completa sobre un token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := cl.container(ctx)
			if err != nil {
				return err
			}
			res, err := checkToken(ctx, c.Engine, c.Bearer, args[0])
			if err != nil {
				return err
			}
			if res.Rejection != nil {
				cl.print(res.Rejection, "rejected: "+res.Rejection.Error())
				return nil
			}
			cl.print(map[string]any{"user": res.Identity}, "ok: "+res.Identity.ID)
			return nil
		},
	}
}

func checkToken(ctx context.Context, engine *auth.Engine, bearer auth.Strategy, raw string) (auth.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return auth.Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+raw)
	return engine.Authenticate(ctx, bearer, req)
}
