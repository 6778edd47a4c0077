/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sitrack-gin",
	Short: "Letter tracking API server",
	Long: `SiTrack Gin is a REST API server for tracking incoming government
letters through their processing workflow. It serves the role dashboards
(Admin, TU, Koordinator, Staff), the public tracking lookup, file
uploads and realtime change streaming.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command for tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}
