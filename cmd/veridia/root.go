// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Veridia CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "veridia",
		Short: "Veridia - identity and session service",
		Long: `Veridia provides credential validation, server-side sessions,
atomic account registration, password recovery, and a user directory
over HTTP.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
