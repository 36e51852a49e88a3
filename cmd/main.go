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
	"fmt"
	"log"
	"os"

	checkout "github.com/agusprema/gamehostify-checkout"
	"github.com/agusprema/gamehostify-checkout/config"
	"github.com/agusprema/gamehostify-checkout/internal/notification"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CheckoutCLI represents the CLI application, encapsulating the root Cobra command.
type CheckoutCLI struct {
	cmd *cobra.Command
}

// appInstance holds the Checkout instance and its configuration, shared by
// every subcommand.
type appInstance struct {
	checkout *checkout.Checkout
	cnf      *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the Checkout instance
// before running any command.
func preRun(app *appInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("checkout.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newCheckout, err := checkout.NewCheckout()
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.checkout = newCheckout
		app.cnf = cnf

		return nil
	}
}

// NewCLI creates the command-line interface for the checkout service. It
// sets up the root command and the server/instruction subcommands.
func NewCLI() *CheckoutCLI {
	var configFile string
	a := &appInstance{}

	var rootCmd = &cobra.Command{
		Use:   "checkout",
		Short: "checkout payment orchestration service",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./checkout.json", "Configuration file for the checkout service")

	rootCmd.PersistentPreRunE = preRun(a)

	rootCmd.AddCommand(serverCommands(a))
	rootCmd.AddCommand(resolveCommands(a))

	return &CheckoutCLI{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w CheckoutCLI) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()
	cli := NewCLI()
	cli.executeCLI()
}
