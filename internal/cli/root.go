// Package cli implements the sigoc command-line client. The root command is
// the composition root: it constructs the session manager and API client once
// and hands them to every subcommand; no package-level state.
package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigoc/sigoc-go/internal/config"
	"github.com/sigoc/sigoc-go/pkg/session"
	"github.com/sigoc/sigoc-go/pkg/sigoc"
)

// Version is set at build time.
var Version = "dev"

// app holds the wired dependencies shared by all subcommands.
type app struct {
	cfg     *config.Config
	manager *session.Manager
	client  *sigoc.Client
	logger  *slog.Logger
}

// NewRootCmd creates the sigoc root command.
func NewRootCmd() *cobra.Command {
	var (
		configPath string
		apiURL     string
		debug      bool
	)
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "sigoc",
		Short:         "Cliente de linha de comando do SIGOC",
		Long:          "sigoc consulta e registra processos no SIGOC (Sistema de Gestão de Obrigações de Controle).",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.init(configPath, apiURL, debug)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "caminho do arquivo de configuração")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "URL base da API (sobrepõe a configuração)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "habilita log de depuração")

	rootCmd.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newProcessosCommand(a),
		newUnidadesCommand(a),
		newSituacoesCommand(a),
		newTiposCommand(a),
	)

	return rootCmd
}

// init wires the dependency graph from configuration and flags.
func (a *app) init(configPath, apiURL string, debug bool) error {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if configPath == "" {
		var err error
		if configPath, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	a.cfg = cfg

	store, err := session.NewFileStore(cfg.TokenFile)
	if err != nil {
		return err
	}

	a.manager, err = session.NewManager(store, session.Config{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		Logger:     a.logger,
	})
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}

	a.client, err = sigoc.New(a.manager, a.logger)
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}
	return nil
}
