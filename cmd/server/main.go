// Package main is the entry point for the tactics server
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tactics-api",
	Short: "Tactical battle engine server",
	Long:  `Tactics API runs grid-based battles with line of sight, cover, and movement validation over a websocket gateway.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
