package lock

import (
	"github.com/wfunc/pin-lock/internal/errors"
	"go.uber.org/zap"
)

// LoadRecord 从介质读取并解码记录
func LoadRecord(medium Medium, addr int, h Hasher) (*Record, error) {
	p, err := medium.Read(addr, RecordSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrStorageRead)
	}
	return DecodeRecord(p, h)
}

// Boot 启动流程：标记有效时恢复保存的状态，否则使用出厂默认值。
// 存储错误不会导致启动失败
func Boot(medium Medium, addr int, opts Options) *Machine {
	opts.setDefaults()

	rec, err := LoadRecord(medium, addr, opts.Hasher)
	loaded := err == nil
	if !loaded {
		opts.Logger.Warn("存储记录无效，使用默认配置",
			zap.Int("addr", addr),
			zap.Error(err))
		rec = DefaultRecord(opts.Hasher)
	}

	m := NewMachine(rec, opts)
	m.Start()

	if !loaded {
		m.emit(EventDefaultsLoaded, err.Error())
	} else {
		opts.Logger.Info("存储记录已恢复",
			zap.Stringer("state", rec.State),
			zap.Stringer("menu", rec.Menu),
			zap.Int("credentials", rec.Credentials.Len()))
	}

	return m
}
