package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"wirecall/internal/service/iam"
)

func newIAMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iam",
		Short: "AWS Identity and Access Management",
	}
	cmd.AddCommand(newGenerateCredentialReportCmd(), newGetCredentialReportCmd())
	return cmd
}

func newGenerateCredentialReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-credential-report",
		Short: "Start generating the account credential report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			client, err := iam.New(cfg, dispatchOptions()...)
			if err != nil {
				return err
			}
			defer client.Close()

			out, err := client.GenerateCredentialReport(ctx, &iam.GenerateCredentialReportInput{})
			if err != nil {
				return err
			}
			return printResult(cmd, "Credential report", out)
		},
	}
}

func newGetCredentialReportCmd() *cobra.Command {
	var (
		wait     bool
		interval time.Duration
		raw      bool
	)
	cmd := &cobra.Command{
		Use:   "get-credential-report",
		Short: "Fetch the account credential report",
		Long: `Fetches the most recent credential report.

With --wait the report is generated first and polled until complete. With --raw
the decoded CSV content is written instead of the JSON result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			client, err := iam.New(cfg, dispatchOptions()...)
			if err != nil {
				return err
			}
			defer client.Close()

			var out *iam.GetCredentialReportOutput
			if wait {
				out, err = client.WaitForCredentialReport(ctx, interval)
			} else {
				out, err = client.GetCredentialReport(ctx, &iam.GetCredentialReportInput{})
			}
			if err != nil {
				return err
			}

			if raw {
				content, ok := out.Content.Get()
				if !ok {
					return errors.New("credential report has no content")
				}
				_, err := cmd.OutOrStdout().Write(content)
				return err
			}
			return printResult(cmd, "Credential report", out)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&wait, "wait", false, "Generate the report and wait until it is complete")
	f.DurationVar(&interval, "interval", 2*time.Second, "Polling interval for --wait")
	f.BoolVar(&raw, "raw", false, "Write the decoded report content")
	return cmd
}
