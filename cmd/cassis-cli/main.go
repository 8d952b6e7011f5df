// Command cassis-cli is the registry's command-line client.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{Use: "cassis-cli"}
	rootCmd.AddCommand(trustCmd())
	rootCmd.AddCommand(logCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
