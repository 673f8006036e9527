package main

import (
	"fmt"

	"github.com/spf13/cobra"

	app "github.com/kode4food/waypost"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			outputJSON(map[string]string{
				"name":    app.Name,
				"version": app.Version,
			})
			return
		}
		fmt.Printf("%s version %s\n", app.Name, app.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
