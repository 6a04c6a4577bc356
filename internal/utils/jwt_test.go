package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

// JWTTestSuite JWT工具测试套件
type JWTTestSuite struct {
	suite.Suite
	manager *JWTManager
}

func (suite *JWTTestSuite) SetupTest() {
	suite.manager = NewJWTManager("test-secret-key", time.Hour)
}

func (suite *JWTTestSuite) TestGenerateAndValidate() {
	token, err := suite.manager.GenerateToken("alice", ScopeRead)
	suite.Require().NoError(err)
	suite.NotEmpty(token)

	claims, err := suite.manager.ValidateToken(token)
	suite.Require().NoError(err)
	suite.Equal("alice", claims.Operator)
	suite.Equal(ScopeRead, claims.Scope)
	suite.Equal("alice", claims.Subject)
	suite.Len(claims.ID, 36)
}

// 测试验证无效令牌
func (suite *JWTTestSuite) TestValidateInvalidToken() {
	_, err := suite.manager.ValidateToken("invalid.token.here")
	suite.ErrorIs(err, ErrInvalidToken)

	_, err = suite.manager.ValidateToken("")
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *JWTTestSuite) TestWrongSecret() {
	other := NewJWTManager("other-secret", time.Hour)
	token, err := other.GenerateToken("mallory", ScopeAdmin)
	suite.Require().NoError(err)

	_, err = suite.manager.ValidateToken(token)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *JWTTestSuite) TestExpiredToken() {
	expired := NewJWTManager("test-secret-key", -time.Minute)
	token, err := expired.GenerateToken("bob", ScopeRead)
	suite.Require().NoError(err)

	_, err = suite.manager.ValidateToken(token)
	suite.ErrorIs(err, ErrExpiredToken)
}

func (suite *JWTTestSuite) TestUnexpectedSigningMethod() {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &OperatorClaims{Operator: "eve"})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	suite.Require().NoError(err)

	_, err = suite.manager.ValidateToken(raw)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *JWTTestSuite) TestEmptySecret() {
	empty := NewJWTManager("", time.Hour)
	_, err := empty.GenerateToken("x", ScopeRead)
	suite.ErrorIs(err, ErrEmptySecret)
	_, err = empty.ValidateToken("a.b.c")
	suite.ErrorIs(err, ErrEmptySecret)
}

func (suite *JWTTestSuite) TestHasScope() {
	suite.True((&OperatorClaims{Scope: ScopeAdmin}).HasScope(ScopeRead))
	suite.True((&OperatorClaims{Scope: ScopeRead}).HasScope(ScopeRead))
	suite.False((&OperatorClaims{Scope: ScopeRead}).HasScope(ScopeAdmin))
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTTestSuite))
}
