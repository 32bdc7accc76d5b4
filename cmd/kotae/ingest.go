package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/spf13/cobra"
)

func newIngestCmd(opts *globalOptions) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Process and index documents",
		Long: `Extracts text from each file, splits it into chunks and adds them to the index.
Supported formats: .pdf .txt .md .docx .odt .rtf .xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()

			var upload func(path string) (int, error)
			if serverURL != "" {
				api := newAPIClient(serverURL)
				upload = func(path string) (int, error) {
					res, err := api.upload(ctx, path)
					if err != nil {
						return 0, err
					}
					if res.Error != "" {
						return 0, errors.New(res.Error)
					}
					return res.Chunks, nil
				}
			} else {
				a, err := newApp(opts)
				if err != nil {
					return err
				}
				defer a.Close()
				upload = func(path string) (int, error) {
					return uploadPath(ctx, a.session, path)
				}
			}

			failed := 0
			for _, path := range args {
				n, err := upload(path)
				if err != nil {
					failed++
				}
				cli.WriteUpload(out, filepath.Base(path), n, err)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "upload through a running server instead of opening the index")
	return cmd
}
