package lock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/pin-lock/internal/errors"
)

func TestRecordRoundTrip(t *testing.T) {
	h := testHasher(t)
	rec := DefaultRecord(h)
	for _, pin := range []string{"123456", "000000", "987654"} {
		require.NoError(t, rec.Credentials.Add(pin))
	}
	rec.PINLength = 6
	rec.AutoRelock = false
	rec.RelockDelay = 61 * time.Second
	rec.LockoutDelay = 10000 * time.Second
	rec.FailLimit = 999
	rec.FailCheck = false
	rec.FailCount = 42
	rec.State = StateLockout
	rec.Menu = MenuFailLimit
	rec.Cursor = 6

	p := EncodeRecord(rec)
	require.Len(t, p, RecordSize)
	assert.True(t, HasMarker(p))

	got, err := DecodeRecord(p, h)
	require.NoError(t, err)

	assert.Equal(t, rec.PINLength, got.PINLength)
	assert.Equal(t, rec.AutoRelock, got.AutoRelock)
	assert.Equal(t, rec.RelockDelay, got.RelockDelay)
	assert.Equal(t, rec.LockoutDelay, got.LockoutDelay)
	assert.Equal(t, rec.FailLimit, got.FailLimit)
	assert.Equal(t, rec.FailCheck, got.FailCheck)
	assert.Equal(t, rec.FailCount, got.FailCount)
	assert.Equal(t, rec.State, got.State)
	assert.Equal(t, rec.Menu, got.Menu)
	assert.Equal(t, rec.Cursor, got.Cursor)
	assert.Equal(t, rec.Credentials.Len(), got.Credentials.Len())
	assert.Equal(t, rec.Credentials.Digests(), got.Credentials.Digests())
	assert.True(t, got.Credentials.Verify("987654"))

	// 再次编码得到完全相同的字节
	assert.Equal(t, p, EncodeRecord(got))
}

func TestEncodeRecord_Layout(t *testing.T) {
	rec := DefaultRecord(testHasher(t))
	p := EncodeRecord(rec)

	assert.Equal(t, RecordMarker, p[0])
	assert.Equal(t, RecordVersion, p[1])
	assert.Equal(t, byte(4), p[2])
	assert.Equal(t, flagAutoRelock|flagFailCheck, p[3])
	assert.Equal(t, []byte{0x00, 0x00, 0x3A, 0x98}, p[4:8], "15000ms 大端序")
	assert.Equal(t, []byte{0x00, 0x03}, p[12:14])
	assert.Equal(t, byte(StateMenu), p[16])
	assert.Equal(t, byte(MenuAddPIN), p[17])
	assert.Equal(t, byte(0), p[19])
	assert.Equal(t, make([]byte, MaxCredentials*DigestSize), p[offDigests:], "空槽位填零")
}

func TestDecodeRecord_Invalid(t *testing.T) {
	h := testHasher(t)
	valid := func() []byte { return EncodeRecord(DefaultRecord(h)) }

	tests := []struct {
		name   string
		mutate func(p []byte) []byte
	}{
		{"空白介质", func(p []byte) []byte { return make([]byte, RecordSize) }},
		{"擦除后的EEPROM", func(p []byte) []byte {
			for i := range p {
				p[i] = 0xFF
			}
			return p
		}},
		{"长度不足", func(p []byte) []byte { return p[:RecordSize-1] }},
		{"版本不匹配", func(p []byte) []byte { p[offVersion] = 0x02; return p }},
		{"PIN长度为0", func(p []byte) []byte { p[offPINLength] = 0; return p }},
		{"PIN长度过大", func(p []byte) []byte { p[offPINLength] = 10; return p }},
		{"初始状态", func(p []byte) []byte { p[offState] = byte(StateInitial); return p }},
		{"未知状态", func(p []byte) []byte { p[offState] = 9; return p }},
		{"未知菜单", func(p []byte) []byte { p[offMenu] = 42; return p }},
		{"光标越界", func(p []byte) []byte { p[offCursor] = 8; return p }},
		{"凭据数量越界", func(p []byte) []byte { p[offCount] = MaxCredentials + 1; return p }},
		{"失败上限越界", func(p []byte) []byte { p[offFailLimit] = 0x03; p[offFailLimit+1] = 0xE8; return p }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord(tt.mutate(valid()), h)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrStorageInconsistent))
		})
	}
}
