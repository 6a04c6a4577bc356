package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite 错误包测试套件
type ErrorsTestSuite struct {
	suite.Suite
}

// 测试创建新错误
func (suite *ErrorsTestSuite) TestNew() {
	err := New(ErrInvalidParam)
	suite.NotNil(err)
	suite.Equal(ErrInvalidParam, err.Code)
	suite.Equal("无效的参数", err.Message)
	suite.Empty(err.Details)

	err = New(ErrCapacityExceeded, "容量: 10")
	suite.Equal(ErrCapacityExceeded, err.Code)
	suite.Equal("密码存储已满", err.Message)
	suite.Equal("容量: 10", err.Details)

	// 多个详情
	err = New(ErrStorageWrite, "写入失败", "地址: 0", "长度: 340")
	suite.Equal("写入失败; 地址: 0; 长度: 340", err.Details)
}

func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrOutOfRange, "索引 %d 超出 %d", 5, 3)
	suite.Equal(ErrOutOfRange, err.Code)
	suite.Equal("索引 5 超出 3", err.Details)
}

// 测试错误包装
func (suite *ErrorsTestSuite) TestWrap() {
	originalErr := errors.New("原始错误")
	wrappedErr := Wrap(originalErr, ErrStorageRead)
	suite.NotNil(wrappedErr)
	suite.Equal(ErrStorageRead, wrappedErr.Code)
	suite.Equal("原始错误", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)

	suite.Nil(Wrap(nil, ErrUnknown))

	// 包装已有的AppError，保留原始错误码
	appErr := New(ErrNotFound, "凭据不存在")
	wrappedAppErr := Wrap(appErr, ErrInvalidParam, "额外信息")
	suite.Equal(ErrNotFound, wrappedAppErr.Code)
	suite.Contains(wrappedAppErr.Details, "额外信息")
}

func (suite *ErrorsTestSuite) TestWrapf() {
	originalErr := errors.New("设备忙")
	wrappedErr := Wrapf(originalErr, ErrSerialPortOpen, "串口 %s 打开失败", "/dev/ttyUSB0")
	suite.Equal(ErrSerialPortOpen, wrappedErr.Code)
	suite.Equal("串口 /dev/ttyUSB0 打开失败", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)
}

// 测试错误码判断
func (suite *ErrorsTestSuite) TestIs() {
	err := New(ErrCapacityExceeded)
	suite.True(Is(err, ErrCapacityExceeded))
	suite.False(Is(err, ErrNotFound))
	suite.False(Is(nil, ErrCapacityExceeded))
	suite.False(Is(errors.New("标准错误"), ErrUnknown))

	// fmt.Errorf 包装后仍可识别
	wrapped := fmt.Errorf("boot: %w", New(ErrStorageInconsistent))
	suite.True(Is(wrapped, ErrStorageInconsistent))
}

func (suite *ErrorsTestSuite) TestGetCode() {
	suite.Equal(ErrTokenExpired, GetCode(New(ErrTokenExpired)))
	suite.Equal(ErrUnknown, GetCode(errors.New("标准错误")))
	suite.Equal(ErrorCode(0), GetCode(nil))
}

func (suite *ErrorsTestSuite) TestError() {
	err := &AppError{
		Code:    ErrNotFound,
		Message: "资源未找到",
	}
	suite.Equal("[1002] 资源未找到", err.Error())

	err.Details = "索引: 3"
	suite.Equal("[1002] 资源未找到: 索引: 3", err.Error())
}

func (suite *ErrorsTestSuite) TestUnwrap() {
	originalErr := errors.New("原始错误")
	suite.Equal(originalErr, Wrap(originalErr, ErrUnknown).Unwrap())
	suite.Nil(New(ErrUnknown).Unwrap())
}

func (suite *ErrorsTestSuite) TestWithCause() {
	cause := errors.New("磁盘已满")

	err := New(ErrStorageWrite)
	err.WithCause(cause)
	suite.Equal(cause, err.Cause)
	suite.Equal("磁盘已满", err.Details)

	// 保留原有Details
	err2 := New(ErrStorageWrite, "写入镜像失败")
	err2.WithCause(cause)
	suite.Equal("写入镜像失败", err2.Details)
}

// 测试HTTP状态码映射
func (suite *ErrorsTestSuite) TestHTTPStatus() {
	testCases := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrInvalidParam, 400},
		{ErrOutOfRange, 400},
		{ErrNotFound, 404},
		{ErrPermissionDenied, 403},
		{ErrTimeout, 408},
		{ErrAuthentication, 401},
		{ErrTokenInvalid, 401},
		{ErrDatabaseConnect, 503},
		{ErrStorageRead, 503},
		{ErrUnknown, 500},
	}

	for _, tc := range testCases {
		err := New(tc.code)
		suite.Equal(tc.expected, err.HTTPStatus(), "错误码 %d 应该返回HTTP状态码 %d", tc.code, tc.expected)
	}
}

func (suite *ErrorsTestSuite) TestIsRetryable() {
	for _, code := range []ErrorCode{ErrTimeout, ErrSerialTimeout, ErrDeviceOffline, ErrDatabaseConnect, ErrStorageWrite} {
		suite.True(IsRetryable(New(code)), "错误码 %d 应该是可重试的", code)
	}
	for _, code := range []ErrorCode{ErrInvalidParam, ErrNotFound, ErrCapacityExceeded} {
		suite.False(IsRetryable(New(code)), "错误码 %d 不应该是可重试的", code)
	}
	suite.False(IsRetryable(nil))
}

func (suite *ErrorsTestSuite) TestIsCritical() {
	for _, code := range []ErrorCode{ErrSerialPortOpen, ErrConfigLoad, ErrConfigMissing, ErrStorageBounds} {
		suite.True(IsCritical(New(code)), "错误码 %d 应该是严重错误", code)
	}
	// 存储数据无效可以通过默认值恢复，不是严重错误
	suite.False(IsCritical(New(ErrStorageInconsistent)))
	suite.False(IsCritical(nil))
}

func (suite *ErrorsTestSuite) TestStackCapture() {
	err := New(ErrUnknown)
	suite.NotEmpty(err.Stack)
	suite.NotEmpty(err.GetStack())
}

func (suite *ErrorsTestSuite) TestErrorResponse() {
	err := New(ErrNotFound, "事件不存在")
	response := NewErrorResponse(err)

	suite.False(response.Success)
	suite.Equal(err, response.Error)
	suite.Greater(response.Timestamp, int64(0))
}

func (suite *ErrorsTestSuite) TestUnknownErrorCode() {
	err := New(ErrorCode(99999))
	suite.Equal(ErrorCode(99999), err.Code)
	suite.Equal("未知错误", err.Message)
}

// 测试锁控相关错误
func (suite *ErrorsTestSuite) TestLockErrors() {
	lockErrors := map[ErrorCode]string{
		ErrCapacityExceeded:    "密码存储已满",
		ErrInvalidNumericInput: "无效的数字输入",
		ErrInvalidState:        "无效的状态",
		ErrInvalidDigest:       "无效的摘要",
		ErrLockedOut:           "设备处于锁定期",
	}

	for code, expectedMsg := range lockErrors {
		suite.Equal(expectedMsg, New(code).Message)
	}
}

// 测试存储相关错误
func (suite *ErrorsTestSuite) TestStorageErrors() {
	storageErrors := map[ErrorCode]string{
		ErrStorageRead:         "存储读取失败",
		ErrStorageWrite:        "存储写入失败",
		ErrStorageInconsistent: "存储数据无效",
		ErrStorageBounds:       "存储地址越界",
	}

	for code, expectedMsg := range storageErrors {
		suite.Equal(expectedMsg, New(code).Message)
	}
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}
