package main

import (
	"time"

	"github.com/spf13/cobra"

	"wirecall/internal/opt"
	"wirecall/internal/service/sts"
)

func newSTSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sts",
		Short: "AWS Security Token Service",
	}
	cmd.AddCommand(
		newGetCallerIdentityCmd(),
		newAssumeRoleCmd(),
		newGetSessionTokenCmd(),
		newDecodeAuthorizationMessageCmd(),
	)
	return cmd
}

func newSTSClient() (*sts.Client, error) {
	return sts.New(cfg, dispatchOptions()...)
}

func newGetCallerIdentityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-caller-identity",
		Short: "Show the account and ARN of the calling identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			client, err := newSTSClient()
			if err != nil {
				return err
			}
			defer client.Close()

			out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
			if err != nil {
				return err
			}
			return printResult(cmd, "Caller identity", out)
		},
	}
}

func newAssumeRoleCmd() *cobra.Command {
	var (
		roleARN      string
		sessionName  string
		duration     time.Duration
		externalID   string
		policy       string
		serialNumber string
		tokenCode    string
	)
	cmd := &cobra.Command{
		Use:   "assume-role",
		Short: "Request temporary credentials for a role",
		Long: `Calls AssumeRole and prints the issued credentials.

Example:
  wirecall sts assume-role --role-arn arn:aws:iam::123456789012:role/deploy --duration 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			client, err := newSTSClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if sessionName == "" {
				sessionName = sts.DefaultSessionName()
			}
			in := &sts.AssumeRoleInput{
				RoleArn:         opt.Of(roleARN),
				RoleSessionName: opt.Of(sessionName),
			}
			if duration > 0 {
				in.DurationSeconds = opt.Of(int64(duration / time.Second))
			}
			if externalID != "" {
				in.ExternalID = opt.Of(externalID)
			}
			if policy != "" {
				in.Policy = opt.Of(policy)
			}
			if serialNumber != "" {
				in.SerialNumber = opt.Of(serialNumber)
				in.TokenCode = opt.Of(tokenCode)
			}

			out, err := client.AssumeRole(ctx, in)
			if err != nil {
				return err
			}
			return printResult(cmd, "Assumed role", out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&roleARN, "role-arn", "", "ARN of the role to assume")
	f.StringVar(&sessionName, "session-name", "", "Role session name (generated when empty)")
	f.DurationVar(&duration, "duration", 0, "Session duration")
	f.StringVar(&externalID, "external-id", "", "External ID required by the role trust policy")
	f.StringVar(&policy, "policy", "", "Inline session policy JSON")
	f.StringVar(&serialNumber, "serial-number", "", "MFA device serial number")
	f.StringVar(&tokenCode, "token-code", "", "MFA token code")
	_ = cmd.MarkFlagRequired("role-arn")
	return cmd
}

func newGetSessionTokenCmd() *cobra.Command {
	var (
		duration     time.Duration
		serialNumber string
		tokenCode    string
	)
	cmd := &cobra.Command{
		Use:   "get-session-token",
		Short: "Request session credentials for the calling identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			client, err := newSTSClient()
			if err != nil {
				return err
			}
			defer client.Close()

			in := &sts.GetSessionTokenInput{}
			if duration > 0 {
				in.DurationSeconds = opt.Of(int64(duration / time.Second))
			}
			if serialNumber != "" {
				in.SerialNumber = opt.Of(serialNumber)
				in.TokenCode = opt.Of(tokenCode)
			}
			out, err := client.GetSessionToken(ctx, in)
			if err != nil {
				return err
			}
			return printResult(cmd, "Session token", out)
		},
	}
	f := cmd.Flags()
	f.DurationVar(&duration, "duration", 0, "Session duration")
	f.StringVar(&serialNumber, "serial-number", "", "MFA device serial number")
	f.StringVar(&tokenCode, "token-code", "", "MFA token code")
	return cmd
}

func newDecodeAuthorizationMessageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-authorization-message <encoded-message>",
		Short: "Decode the detail of an authorization failure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			client, err := newSTSClient()
			if err != nil {
				return err
			}
			defer client.Close()

			out, err := client.DecodeAuthorizationMessage(ctx, &sts.DecodeAuthorizationMessageInput{
				EncodedMessage: opt.Of(args[0]),
			})
			if err != nil {
				return err
			}
			return printResult(cmd, "Decoded message", out)
		},
	}
}
