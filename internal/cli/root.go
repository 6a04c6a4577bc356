package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wfunc/pin-lock/internal/config"
)

// RootOptions 全局参数
type RootOptions struct {
	ConfigPath string
	Format     string // "yaml" | "json"
}

// ValidFormats 支持的输出格式
var ValidFormats = []string{"yaml", "json"}

// NewRootCommand 创建 lockctl 根命令
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lockctl",
		Short: "PIN lock maintenance tool",
		Long:  "Inspect and maintain the persisted lock record, audit trail and diagnostics tokens.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range ValidFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "配置文件路径")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "yaml", "输出格式 (yaml|json)")

	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewWipeCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.ConfigPath)
}
