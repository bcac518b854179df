package main

import (
	"github.com/spf13/cobra"

	"wirecall/internal/opt"
	"wirecall/internal/service/elasticache"
)

func newElastiCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elasticache",
		Short: "Amazon ElastiCache",
	}
	cmd.AddCommand(newDescribeReservedCacheNodesCmd())
	return cmd
}

func newDescribeReservedCacheNodesCmd() *cobra.Command {
	var (
		nodeID     string
		nodeType   string
		maxRecords int64
		marker     string
		all        bool
	)
	cmd := &cobra.Command{
		Use:   "describe-reserved-cache-nodes",
		Short: "List reserved cache nodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			client, err := elasticache.New(cfg, dispatchOptions()...)
			if err != nil {
				return err
			}
			defer client.Close()

			in := &elasticache.DescribeReservedCacheNodesInput{}
			if nodeID != "" {
				in.ReservedCacheNodeID = opt.Of(nodeID)
			}
			if nodeType != "" {
				in.CacheNodeType = opt.Of(nodeType)
			}
			if maxRecords > 0 {
				in.MaxRecords = opt.Of(maxRecords)
			}
			if marker != "" {
				in.Marker = opt.Of(marker)
			}

			if !all {
				out, err := client.DescribeReservedCacheNodes(ctx, in)
				if err != nil {
					return err
				}
				return printResult(cmd, "Reserved cache nodes", out)
			}

			var nodes []elasticache.ReservedCacheNode
			err = client.DescribeReservedCacheNodesPages(ctx, in, func(page *elasticache.DescribeReservedCacheNodesOutput, lastPage bool) bool {
				nodes = append(nodes, page.ReservedCacheNodes...)
				return true
			})
			if err != nil {
				return err
			}
			return printResult(cmd, "Reserved cache nodes", nodes)
		},
	}
	f := cmd.Flags()
	f.StringVar(&nodeID, "reserved-cache-node-id", "", "Only this reservation")
	f.StringVar(&nodeType, "cache-node-type", "", "Only reservations for this node type")
	f.Int64Var(&maxRecords, "max-records", 0, "Page size")
	f.StringVar(&marker, "marker", "", "Start after this marker")
	f.BoolVar(&all, "all", false, "Follow markers and print every page")
	return cmd
}
