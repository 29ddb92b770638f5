// Command reportctl downloads or emails review reports through the API.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ukydev/fleetsheet/internal/report"
)

type options struct {
	apiURL   string
	token    string
	format   string
	from     string
	to       string
	filename string
	stamp    bool
}

func (o *options) request(args []string) report.Request {
	return report.Request{
		Kind:               args[0],
		ID:                 args[1],
		Format:             o.format,
		From:               o.from,
		To:                 o.to,
		Filename:           o.filename,
		IncludeGeneratedAt: o.stamp,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "Download or email vehicle review reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", envOr("API_BASE_URL", "http://localhost:8080"), "API base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("FLEETSHEET_TOKEN"), "bearer token")
	flags.StringVar(&opts.format, "format", "pdf", "pdf or excel")
	flags.StringVar(&opts.from, "from", "", "first review date, YYYY-MM-DD (vehicle reports)")
	flags.StringVar(&opts.to, "to", "", "last review date, YYYY-MM-DD (vehicle reports)")
	flags.StringVar(&opts.filename, "filename", "", "attachment filename override")
	flags.BoolVar(&opts.stamp, "stamp", false, "print the generation time in the report")

	var outDir string
	downloadCmd := &cobra.Command{
		Use:   "download [review|vehicle] [id]",
		Short: "Render a report and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts.apiURL, opts.token)
			data, filename, err := client.download(cmd.Context(), opts.request(args))
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, filepath.Base(filename))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", path, len(data))
			return nil
		},
	}
	downloadCmd.Flags().StringVar(&outDir, "out", ".", "directory to write the report to")

	var recipient string
	emailCmd := &cobra.Command{
		Use:   "email [review|vehicle] [id]",
		Short: "Render a report and email it as an attachment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts.apiURL, opts.token)
			filename, err := client.email(cmd.Context(), opts.request(args), recipient)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Emailed %s to %s\n", filename, recipient)
			return nil
		},
	}
	emailCmd.Flags().StringVar(&recipient, "recipient", "", "email address to send the report to")
	_ = emailCmd.MarkFlagRequired("recipient")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(emailCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Fatal("reportctl failed")
	}
}
