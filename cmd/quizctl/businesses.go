package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"bizquiz/internal/apiclient"
)

var businessesCmd = &cobra.Command{
	Use:   "businesses",
	Short: "List the business categories offered by the backend",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client := newAPIClient(cfg, nil)
		businesses, err := client.FetchBusinesses(cmd.Context())
		if apiclient.IsUnavailable(err) {
			return eris.Wrapf(err, "backend at %s is not reachable", client.BaseURL())
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(businesses) == 0 {
			fmt.Fprintln(out, "No business categories yet.")
			return nil
		}
		for _, business := range businesses {
			fmt.Fprintf(out, "%d\t%s\n", business.ID, business.Label)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(businessesCmd)
}
