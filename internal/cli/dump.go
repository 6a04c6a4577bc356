package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wfunc/pin-lock/internal/lock"
)

// RecordView 记录的可读形式，摘要只显示前缀
type RecordView struct {
	Address      int      `json:"address" yaml:"address"`
	State        string   `json:"state" yaml:"state"`
	Menu         string   `json:"menu" yaml:"menu"`
	Cursor       int      `json:"cursor" yaml:"cursor"`
	PINLength    int      `json:"pin_length" yaml:"pin_length"`
	AutoRelock   bool     `json:"auto_relock" yaml:"auto_relock"`
	RelockDelay  string   `json:"relock_delay" yaml:"relock_delay"`
	LockoutDelay string   `json:"lockout_delay" yaml:"lockout_delay"`
	FailCheck    bool     `json:"fail_check" yaml:"fail_check"`
	FailLimit    int      `json:"fail_limit" yaml:"fail_limit"`
	FailCount    int      `json:"fail_count" yaml:"fail_count"`
	Credentials  []string `json:"credentials" yaml:"credentials"`
}

// NewRecordView 转换记录
func NewRecordView(addr int, rec *lock.Record) *RecordView {
	v := &RecordView{
		Address:      addr,
		State:        rec.State.String(),
		Menu:         rec.Menu.String(),
		Cursor:       rec.Cursor,
		PINLength:    rec.PINLength,
		AutoRelock:   rec.AutoRelock,
		RelockDelay:  rec.RelockDelay.String(),
		LockoutDelay: rec.LockoutDelay.String(),
		FailCheck:    rec.FailCheck,
		FailLimit:    rec.FailLimit,
		FailCount:    rec.FailCount,
		Credentials:  []string{},
	}
	for _, d := range rec.Credentials.Digests() {
		v.Credentials = append(v.Credentials, d.Short())
	}
	return v
}

// NewDumpCommand 打印持久化的记录
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "dump",
		Short:        "Print the persisted lock record",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}

			medium, cleanup, err := openMedium(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := lock.LoadRecord(medium, cfg.Storage.Address, nil)
			if err != nil {
				return fmt.Errorf("记录无效，下次启动将使用默认配置: %w", err)
			}

			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, NewRecordView(cfg.Storage.Address, rec))
		},
	}
}
