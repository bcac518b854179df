package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wirecall/internal/opt"
	"wirecall/internal/service/cognitosync"
)

func newCognitoSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cognito-sync",
		Short: "Amazon Cognito Sync",
	}
	cmd.AddCommand(newRegisterDeviceCmd(), newListDatasetsCmd())
	return cmd
}

func newRegisterDeviceCmd() *cobra.Command {
	var (
		poolID     string
		identityID string
		platform   string
		token      string
	)
	cmd := &cobra.Command{
		Use:   "register-device",
		Short: "Register a device to receive push sync notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := cognitosync.PlatformForName(strings.ToUpper(platform))
			if !p.IsKnown() {
				return fmt.Errorf("unknown platform %q", platform)
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			client, err := cognitosync.New(cfg, dispatchOptions()...)
			if err != nil {
				return err
			}
			defer client.Close()

			out, err := client.RegisterDevice(ctx, &cognitosync.RegisterDeviceInput{
				IdentityPoolID: opt.Of(poolID),
				IdentityID:     opt.Of(identityID),
				Platform:       opt.Of(p),
				Token:          opt.Of(token),
			})
			if err != nil {
				return err
			}
			return printResult(cmd, "Registered device", out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&poolID, "identity-pool-id", "", "Identity pool ID")
	f.StringVar(&identityID, "identity-id", "", "Identity ID")
	f.StringVar(&platform, "platform", "", "Push platform (APNS, APNS_SANDBOX, GCM, ADM)")
	f.StringVar(&token, "token", "", "Push token")
	for _, name := range []string{"identity-pool-id", "identity-id", "platform", "token"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newListDatasetsCmd() *cobra.Command {
	var (
		poolID     string
		identityID string
		maxResults int64
		all        bool
	)
	cmd := &cobra.Command{
		Use:   "list-datasets",
		Short: "List the datasets of an identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			client, err := cognitosync.New(cfg, dispatchOptions()...)
			if err != nil {
				return err
			}
			defer client.Close()

			in := &cognitosync.ListDatasetsInput{
				IdentityPoolID: opt.Of(poolID),
				IdentityID:     opt.Of(identityID),
			}
			if maxResults > 0 {
				in.MaxResults = opt.Of(maxResults)
			}

			if !all {
				out, err := client.ListDatasets(ctx, in)
				if err != nil {
					return err
				}
				return printResult(cmd, "Datasets", out)
			}

			var datasets []cognitosync.Dataset
			err = client.ListDatasetsPages(ctx, in, func(page *cognitosync.ListDatasetsOutput, lastPage bool) bool {
				datasets = append(datasets, page.Datasets...)
				return true
			})
			if err != nil {
				return err
			}
			return printResult(cmd, "Datasets", datasets)
		},
	}
	f := cmd.Flags()
	f.StringVar(&poolID, "identity-pool-id", "", "Identity pool ID")
	f.StringVar(&identityID, "identity-id", "", "Identity ID")
	f.Int64Var(&maxResults, "max-results", 0, "Page size")
	f.BoolVar(&all, "all", false, "Follow next tokens and print every dataset")
	_ = cmd.MarkFlagRequired("identity-pool-id")
	_ = cmd.MarkFlagRequired("identity-id")
	return cmd
}
