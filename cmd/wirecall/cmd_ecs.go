package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"wirecall/internal/dispatch"
	"wirecall/internal/opt"
	"wirecall/internal/service/ecs"
)

func newECSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ecs",
		Short: "Amazon Elastic Container Service",
	}
	cmd.AddCommand(newDescribeTaskDefinitionCmd())
	return cmd
}

func newDescribeTaskDefinitionCmd() *cobra.Command {
	var tags bool
	cmd := &cobra.Command{
		Use:   "describe-task-definition <family[:revision]|arn>...",
		Short: "Describe one or more task definitions",
		Long: `Describes task definitions. Several definitions are fetched concurrently
on the shared worker pool and printed in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			client, err := ecs.New(cfg, dispatchOptions()...)
			if err != nil {
				return err
			}
			defer client.Close()

			futures := make([]*dispatch.Future[ecs.DescribeTaskDefinitionOutput], len(args))
			for i, name := range args {
				in := &ecs.DescribeTaskDefinitionInput{TaskDefinition: opt.Of(name)}
				if tags {
					in.Include = []string{"TAGS"}
				}
				futures[i] = client.DescribeTaskDefinitionAsync(ctx, in)
			}

			results := make([]*ecs.DescribeTaskDefinitionOutput, len(args))
			g, gctx := errgroup.WithContext(ctx)
			for i, f := range futures {
				i, f := i, f
				g.Go(func() error {
					outcome, err := f.Await(gctx)
					if err != nil {
						return err
					}
					results[i], err = outcome.Unwrap()
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if len(results) == 1 {
				return printResult(cmd, "Task definition", results[0])
			}
			return printResult(cmd, "Task definitions", results)
		},
	}
	cmd.Flags().BoolVar(&tags, "tags", false, "Include resource tags")
	return cmd
}
