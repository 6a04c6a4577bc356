package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wfunc/pin-lock/internal/lock"
	"github.com/wfunc/pin-lock/internal/storage"
)

// NewWipeCommand 擦除记录区域，下次启动恢复出厂设置
func NewWipeCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:          "wipe",
		Short:        "Erase the persisted record so the next boot loads factory defaults",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("wipe removes every stored PIN; re-run with --yes to confirm")
			}

			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}

			medium, cleanup, err := openMedium(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			erased := bytes.Repeat([]byte{storage.ErasedByte}, lock.RecordSize)
			if err := medium.Write(cfg.Storage.Address, erased); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "erased %d bytes at address %d\n", lock.RecordSize, cfg.Storage.Address)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "确认擦除")
	return cmd
}
