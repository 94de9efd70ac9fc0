package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/DanielLetto2020/Letto-Dashboard/internal"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/auth"
	pkgconfig "github.com/DanielLetto2020/Letto-Dashboard/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// generateToken rotates the one-time login code, or prints a fresh
// master key with --master.
func generateToken(_ context.Context, cmd *cli.Command) error {
	if cmd.Bool("master") {
		key, err := auth.NewMasterKey()
		if err != nil {
			return err
		}
		fmt.Println(key)
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	code, err := auth.Generate(cfg.Auth.TokenFile, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(code)
	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "letto",
		Usage:  "Personal operations dashboard: aggregated host, git, workspace, and AI-session status over an authenticated HTTP API",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "token",
				Usage:  "Rotate the one-time login code (valid until midnight)",
				Action: generateToken,
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "master",
						Usage: "Print a fresh MASTER_KEY instead of rotating the code",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
