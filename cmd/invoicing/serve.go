package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	branchhttp "italiancorner/mydata_core/internal/adapters/http/branch"
	customerhttp "italiancorner/mydata_core/internal/adapters/http/customer"
	healthhttp "italiancorner/mydata_core/internal/adapters/http/health"
	historyhttp "italiancorner/mydata_core/internal/adapters/http/history"
	invoicehttp "italiancorner/mydata_core/internal/adapters/http/invoice"
	submissionhttp "italiancorner/mydata_core/internal/adapters/http/submission"
	"italiancorner/mydata_core/internal/infrastructure/http/middleware"
	"italiancorner/mydata_core/internal/infrastructure/http/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, err := loadRuntime(os.Stdout)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	var auth *middleware.JWTAuthenticator
	if cfg.Auth.Enabled {
		auth, err = middleware.NewJWTAuthenticator(cfg.Auth, log)
		if err != nil {
			return fmt.Errorf("configure authentication: %w", err)
		}
		log.Info("JWT authentication enabled", "issuer", cfg.Auth.IssuerURI)
	} else {
		log.Warn("JWT authentication disabled")
	}

	bulk := cfg.HTTP.WriteTimeoutBulk
	srv, err := server.New(server.Options{
		Config:        cfg,
		Logger:        log,
		HealthHandler: http.HandlerFunc(healthhttp.NewHandler(a.health, log).Status),
		Auth:          auth,
		Branches:      branchhttp.NewHandler(a.registry, a.sequencer, log),
		Invoices:      invoicehttp.NewHandler(a.invoices, log),
		Submissions:   submissionhttp.NewHandler(a.submissions, bulk, log),
		History:       historyhttp.NewHandler(a.ledger, a.submissions, bulk, log),
		Customers:     customerhttp.NewHandler(a.customers, log),
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	log.Info("Starting invoicing service",
		"version", cfg.App.Version,
		"env", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
		"sandbox", cfg.MyData.Sandbox,
	)
	return srv.Run(ctx)
}
