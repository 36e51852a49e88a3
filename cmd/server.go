/*
Copyright 2024 Gamehostify Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/caddyserver/certmagic"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/agusprema/gamehostify-checkout/api"
	"github.com/agusprema/gamehostify-checkout/config"
	trace "github.com/agusprema/gamehostify-checkout/internal/traces"
	"github.com/agusprema/gamehostify-checkout/model"
)

/*
serveTLS starts an HTTPS server with TLS enabled using CertMagic for automatic certificate management.
It accepts a gin.Engine instance as the router and a ServerConfig struct for server configurations.
If no domain is specified, the server will default to running on localhost.
*/
func serveTLS(r *gin.Engine, conf config.ServerConfig) error {
	certmagic.DefaultACME.Agreed = true
	certmagic.DefaultACME.Email = conf.Email
	cfg := certmagic.NewDefault()
	cfg.Storage = &certmagic.FileStorage{Path: "path/to/certmagic/storage"}

	domains := []string{conf.Domain}
	if conf.Domain == "" {
		log.Println("No domain specified, defaulting to localhost")
		domains = []string{"localhost"}
	}

	if err := cfg.ManageSync(context.Background(), domains); err != nil {
		return err
	}

	server := &http.Server{
		Addr:      ":" + conf.Port,
		Handler:   r,
		TLSConfig: cfg.TLSConfig(),
	}

	log.Printf("Starting HTTPS server on %s\n", conf.Port)
	if err := server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start HTTPS server: %v", err)
	}

	return nil
}

func initializeRouter(a *appInstance) *gin.Engine {
	return api.NewAPI(a.checkout).Router()
}

func initializeTracing(ctx context.Context) (func(context.Context) error, error) {
	shutdown, err := trace.SetupOTelSDK(ctx, "CHECKOUT")
	if err != nil {
		return nil, fmt.Errorf("error setting up OTel SDK: %v", err)
	}
	return shutdown, nil
}

func startServer(router *gin.Engine, cfg config.ServerConfig) error {
	if cfg.SSL {
		return serveTLS(router, cfg)
	}
	log.Printf("Starting server on http://localhost:%s", cfg.Port)
	return router.Run(":" + cfg.Port)
}

/*
serverCommands returns the Cobra command responsible for starting the
checkout server. It sets up the API routes and tracing before launching.
*/
func serverCommands(a *appInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start checkout server",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			router := initializeRouter(a)

			cfg, err := config.Fetch()
			if err != nil {
				log.Fatal(err)
			}

			if cfg.EnableTelemetry {
				shutdown, err := initializeTracing(ctx)
				if err != nil {
					log.Fatal(err)
				}
				defer func() {
					if err := shutdown(ctx); err != nil {
						log.Printf("Error during shutdown: %v", err)
					}
				}()
			}

			if err := startServer(router, cfg.Server); err != nil {
				log.Fatal(err)
			}
		},
	}

	return cmd
}

/*
resolveCommands returns the Cobra command that renders the instruction
document for a channel from the loaded catalog, reading action records from
a JSON file when provided. Useful for checking catalog templates without a
live payment.
*/
func resolveCommands(a *appInstance) *cobra.Command {
	var actionsFile string

	cmd := &cobra.Command{
		Use:   "resolve [channel-code]",
		Short: "render payment instructions for a channel",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var actions []model.PaymentAction
			if actionsFile != "" {
				raw, err := os.ReadFile(actionsFile)
				if err != nil {
					log.Fatal(err)
				}
				if err := json.Unmarshal(raw, &actions); err != nil {
					log.Fatal(err)
				}
			}

			resolved := a.checkout.ResolveInstructions(args[0], actions)
			if resolved == nil {
				log.Fatalf("no instructions available for channel %q", args[0])
			}

			out, err := json.MarshalIndent(resolved, "", "  ")
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(string(out))
		},
	}

	cmd.Flags().StringVar(&actionsFile, "actions", "", "JSON file with gateway action records")

	return cmd
}
