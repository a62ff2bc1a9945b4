package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/talkauth/internal/audit"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

func newAttemptsCmd(cl *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "attempts", Short: "Ventana de intentos de login fallidos"}

	show := &cobra.Command{
		Use:   "show <email>",
		Short: "Mostrar el contador de la ventana actual",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := cl.container(ctx)
			if err != nil {
				return err
			}
			n, err := c.Tracker.Count(ctx, args[0])
			if err != nil {
				return err
			}
			limit := c.Tracker.Threshold()
			cl.print(map[string]any{
				"email":     args[0],
				"count":     n,
				"threshold": limit,
				"exceeded":  n >= int64(limit),
			}, fmt.Sprintf("%s: %d/%d", args[0], n, limit))
			return nil
		},
	}

	var clearFlag bool
	reset := &cobra.Command{
		Use:   "reset <email>",
		Short: "Borrar la ventana (y opcionalmente el flag de challenge)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := cl.container(ctx)
			if err != nil {
				return err
			}
			if err := c.Tracker.Reset(ctx, args[0]); err != nil {
				return err
			}
			if clearFlag {
				if err := c.Tracker.SetChallengeRequirement(ctx, args[0], false); err != nil {
					return err
				}
			}
			audit.Log(ctx, audit.AttemptsReset, logger.Email(args[0]), logger.Bool("flag_cleared", clearFlag))
			cl.print(map[string]any{"email": args[0], "reset": true, "flag_cleared": clearFlag}, "reset "+args[0])
			return nil
		},
	}
	reset.Flags().BoolVar(&clearFlag, "clear-flag", false, "También levantar el flag de challenge del perfil")

	cmd.AddCommand(show, reset)
	return cmd
}
