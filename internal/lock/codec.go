package lock

import (
	"encoding/binary"
	"time"

	"github.com/wfunc/pin-lock/internal/errors"
)

// 存储格式
const (
	RecordMarker  byte = 0xA5 // 有效标记
	RecordVersion byte = 0x01 // 格式版本

	recordHeaderSize = 20
	// RecordSize 记录在介质上占用的固定字节数
	RecordSize = recordHeaderSize + MaxCredentials*DigestSize
)

// 字段偏移（大端序）
const (
	offMarker       = 0
	offVersion      = 1
	offPINLength    = 2
	offFlags        = 3
	offRelockDelay  = 4  // uint32 ms
	offLockoutDelay = 8  // uint32 ms
	offFailLimit    = 12 // uint16
	offFailCount    = 14 // uint16
	offState        = 16
	offMenu         = 17
	offCursor       = 18
	offCount        = 19
	offDigests      = recordHeaderSize
)

const (
	flagAutoRelock byte = 1 << 0
	flagFailCheck  byte = 1 << 1
)

// EncodeRecord 逐字段序列化，布局与内存对齐无关
func EncodeRecord(r *Record) []byte {
	buf := make([]byte, RecordSize)

	buf[offMarker] = RecordMarker
	buf[offVersion] = RecordVersion
	buf[offPINLength] = byte(r.PINLength)

	var flags byte
	if r.AutoRelock {
		flags |= flagAutoRelock
	}
	if r.FailCheck {
		flags |= flagFailCheck
	}
	buf[offFlags] = flags

	binary.BigEndian.PutUint32(buf[offRelockDelay:], uint32(r.RelockDelay/time.Millisecond))
	binary.BigEndian.PutUint32(buf[offLockoutDelay:], uint32(r.LockoutDelay/time.Millisecond))
	binary.BigEndian.PutUint16(buf[offFailLimit:], uint16(r.FailLimit))
	binary.BigEndian.PutUint16(buf[offFailCount:], uint16(r.FailCount))

	buf[offState] = byte(r.State)
	buf[offMenu] = byte(r.Menu)
	buf[offCursor] = byte(r.Cursor)

	digests := r.Credentials.Digests()
	buf[offCount] = byte(len(digests))
	for i, d := range digests {
		copy(buf[offDigests+i*DigestSize:], d[:])
	}

	return buf
}

// HasMarker 是否带有有效标记和当前版本
func HasMarker(p []byte) bool {
	return len(p) >= 2 && p[offMarker] == RecordMarker && p[offVersion] == RecordVersion
}

// DecodeRecord 反序列化并校验字段范围，任何不一致都返回 ErrStorageInconsistent
func DecodeRecord(p []byte, h Hasher) (*Record, error) {
	if len(p) < RecordSize {
		return nil, errors.Newf(errors.ErrStorageInconsistent, "记录长度不足: %d < %d", len(p), RecordSize)
	}
	if !HasMarker(p) {
		return nil, errors.Newf(errors.ErrStorageInconsistent, "标记不匹配: 0x%02X/0x%02X", p[offMarker], p[offVersion])
	}

	r := &Record{
		PINLength:    int(p[offPINLength]),
		Credentials:  NewCredentialStore(h),
		AutoRelock:   p[offFlags]&flagAutoRelock != 0,
		FailCheck:    p[offFlags]&flagFailCheck != 0,
		RelockDelay:  time.Duration(binary.BigEndian.Uint32(p[offRelockDelay:])) * time.Millisecond,
		LockoutDelay: time.Duration(binary.BigEndian.Uint32(p[offLockoutDelay:])) * time.Millisecond,
		FailLimit:    int(binary.BigEndian.Uint16(p[offFailLimit:])),
		FailCount:    int(binary.BigEndian.Uint16(p[offFailCount:])),
		State:        State(p[offState]),
		Menu:         MenuState(p[offMenu]),
		Cursor:       int(p[offCursor]),
	}

	switch {
	case r.PINLength < 1 || r.PINLength > MaxPINLength:
		return nil, errors.Newf(errors.ErrStorageInconsistent, "PIN长度无效: %d", r.PINLength)
	case r.FailLimit > MaxFailLimit:
		return nil, errors.Newf(errors.ErrStorageInconsistent, "失败上限无效: %d", r.FailLimit)
	case !r.State.resumable():
		return nil, errors.Newf(errors.ErrStorageInconsistent, "状态无效: %d", p[offState])
	case !r.Menu.valid():
		return nil, errors.Newf(errors.ErrStorageInconsistent, "菜单状态无效: %d", p[offMenu])
	case r.Cursor >= len(menuItems):
		return nil, errors.Newf(errors.ErrStorageInconsistent, "光标无效: %d", r.Cursor)
	}

	count := int(p[offCount])
	if count > MaxCredentials {
		return nil, errors.Newf(errors.ErrStorageInconsistent, "凭据数量无效: %d", count)
	}
	for i := 0; i < count; i++ {
		var d Digest
		copy(d[:], p[offDigests+i*DigestSize:])
		if err := r.Credentials.addDigest(d); err != nil {
			return nil, errors.Wrap(err, errors.ErrStorageInconsistent)
		}
	}

	return r, nil
}
