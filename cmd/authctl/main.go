// Command authctl opera directamente sobre los stores de autenticación:
// revocar tokens, inspeccionarlos, ver y resetear ventanas de intentos, y
// aplicar migraciones.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/talkauth/internal/app"
	"github.com/dropDatabas3/talkauth/internal/config"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

type cli struct {
	configPath string
	out        string // "json" | "text"
	w          io.Writer

	c *app.Container
}

// container construye el contenedor la primera vez que un comando lo pide.
func (cl *cli) container(ctx context.Context) (*app.Container, error) {
	if cl.c != nil {
		return cl.c, nil
	}
	cfg, err := cl.config()
	if err != nil {
		return nil, err
	}
	// registry propio: las métricas del CLI no se exponen
	c, err := app.New(ctx, cfg, prometheus.NewRegistry())
	if err != nil {
		return nil, err
	}
	cl.c = c
	return c, nil
}

func (cl *cli) config() (*config.Config, error) {
	return config.Load(cl.configPath)
}

func (cl *cli) close() {
	if cl.c != nil {
		_ = cl.c.Close()
	}
}

// print escribe v como JSON indentado, o text si el formato es text.
func (cl *cli) print(v any, text string) {
	if cl.out == "json" {
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Fprintln(cl.w, string(b))
		return
	}
	fmt.Fprintln(cl.w, text)
}

func main() {
	_ = godotenv.Load()
	// los logs (y la auditoría) van a stderr; stdout queda para resultados
	logger.Init(logger.Config{Level: envOr("AUTHCTL_LOG_LEVEL", "info"), ServiceName: "authctl"})
	defer func() { _ = logger.Sync() }()

	cl := &cli{
		configPath: envOr("CONFIG_PATH", ""),
		out:        envOr("AUTHCTL_OUT", "text"),
		w:          os.Stdout,
	}
	defer cl.close()

	root := newRootCmd(cl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		cl.close()
		stop()
		os.Exit(1)
	}
}

func newRootCmd(cl *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Operaciones sobre el núcleo de autenticación",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cl.out != "json" && cl.out != "text" {
				return fmt.Errorf("--out debe ser json o text")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cl.configPath, "config", cl.configPath, "YAML de configuración (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&cl.out, "out", cl.out, "Formato de salida: json|text (env AUTHCTL_OUT)")

	root.AddCommand(
		newTokenCmd(cl),
		newRevokeCmd(cl),
		newCheckCmd(cl),
		newAttemptsCmd(cl),
		newMigrateCmd(cl),
	)
	return root
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
