package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/wfunc/pin-lock/internal/database"
	"github.com/wfunc/pin-lock/internal/models"
	"github.com/wfunc/pin-lock/internal/repository"
)

// NewEventsCommand 审计事件查询与清理
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Query or prune the audit trail",
	}
	cmd.AddCommand(newEventsListCommand(rootOpts))
	cmd.AddCommand(newEventsPruneCommand(rootOpts))
	return cmd
}

func withEvents(rootOpts *RootOptions, fn func(ctx context.Context, repo repository.AccessEventRepository) error) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return fn(ctx, repository.NewAccessEventRepository(db))
}

func newEventsListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		kind  string
		since time.Duration
		limit int
	)

	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List recent audit events, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEvents(rootOpts, func(ctx context.Context, repo repository.AccessEventRepository) error {
				query := &models.AccessEventQuery{Kind: kind, PageSize: limit}
				if since > 0 {
					t := time.Now().Add(-since)
					query.Since = &t
				}
				events, _, err := repo.List(ctx, query)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), rootOpts.Format, events)
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "事件类型")
	cmd.Flags().DurationVar(&since, "since", 0, "只显示最近一段时间的事件")
	cmd.Flags().IntVar(&limit, "limit", 20, "最多显示条数")
	return cmd
}

func newEventsPruneCommand(rootOpts *RootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:          "prune",
		Short:        "Delete audit events older than the given age",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEvents(rootOpts, func(ctx context.Context, repo repository.AccessEventRepository) error {
				n, err := repo.Prune(ctx, time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), rootOpts.Format, map[string]int64{"deleted": n})
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "删除早于该时长的事件")
	return cmd
}
