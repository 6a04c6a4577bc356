package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wfunc/pin-lock/internal/utils"
)

// NewTokenCommand 签发诊断接口令牌
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		operator string
		scope    string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:          "token",
		Short:        "Issue a diagnostics API token",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if scope != utils.ScopeRead && scope != utils.ScopeAdmin {
				return fmt.Errorf("invalid scope %q", scope)
			}

			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Diag.JWTSecret == "" {
				return fmt.Errorf("diag.jwt_secret is not configured")
			}

			token, err := utils.NewJWTManager(cfg.Diag.JWTSecret, ttl).GenerateToken(operator, scope)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "ops", "操作员名称")
	cmd.Flags().StringVar(&scope, "scope", utils.ScopeRead, "权限范围 (diag:read|diag:admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "有效期")
	return cmd
}
