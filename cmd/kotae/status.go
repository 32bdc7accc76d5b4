package main

import (
	"context"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/session"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *globalOptions) *cobra.Command {
	var (
		serverURL string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and model status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var status *session.Status
			if serverURL != "" {
				status, err = newAPIClient(serverURL).status(ctx)
			} else {
				a, aerr := newApp(opts)
				if aerr != nil {
					return aerr
				}
				defer a.Close()
				status, err = a.session.Status(ctx)
			}
			if err != nil {
				return err
			}
			return cli.WriteStatus(cmd.OutOrStdout(), status, format)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "query a running server instead of opening the index")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}
