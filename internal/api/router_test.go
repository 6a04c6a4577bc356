package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/pin-lock/internal/controller"
	"github.com/wfunc/pin-lock/internal/lock"
	"github.com/wfunc/pin-lock/internal/models"
	"github.com/wfunc/pin-lock/internal/repository"
	"github.com/wfunc/pin-lock/internal/utils"
	"github.com/wfunc/pin-lock/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeStatus struct {
	snap lock.Snapshot
}

func (f *fakeStatus) Snapshot() lock.Snapshot   { return f.snap }
func (f *fakeStatus) Stats() controller.Stats { return controller.Stats{Ticks: 42} }

// RouterTestSuite 诊断接口测试套件
type RouterTestSuite struct {
	suite.Suite
	db     *gorm.DB
	repo   repository.AccessEventRepository
	status *fakeStatus
	router *Router
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.db = repository.SetupTestDB()
	suite.repo = repository.NewAccessEventRepository(suite.db)
}

func (suite *RouterTestSuite) TearDownSuite() {
	repository.CleanupTestDB(suite.db)
}

func (suite *RouterTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM access_events")
	suite.status = &fakeStatus{snap: lock.Snapshot{State: "locked", PINLength: 4, CredentialCapacity: 10}}
	suite.router = NewRouter(Options{
		Status:  suite.status,
		Events:  suite.repo,
		Mode:    gin.TestMode,
		Version: "test",
	})
}

func (suite *RouterTestSuite) get(path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func (suite *RouterTestSuite) TestHealth() {
	w, body := suite.get("/health")
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("ok", body["status"])
	suite.Equal("locked", body["state"])
	suite.Equal("test", body["version"])
}

func (suite *RouterTestSuite) TestStatus() {
	w, body := suite.get("/api/v1/status")
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(true, body["success"])

	data := body["data"].(map[string]interface{})
	suite.Equal("locked", data["state"])
	suite.Equal(float64(4), data["pin_length"])
}

func (suite *RouterTestSuite) TestStats() {
	w, body := suite.get("/api/v1/stats")
	suite.Equal(http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	suite.Equal(float64(42), data["controller"].(map[string]interface{})["ticks"])
}

func (suite *RouterTestSuite) TestMenu() {
	w, body := suite.get("/api/v1/menu")
	suite.Equal(http.StatusOK, w.Code)
	items := body["data"].([]interface{})
	suite.Len(items, len(lock.MenuItems()))
	suite.Equal(float64(0), items[0].(map[string]interface{})["index"])
}

func (suite *RouterTestSuite) TestEvents() {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, kind := range []string{"failed_attempt", "unlocked", "failed_attempt"} {
		suite.Require().NoError(suite.repo.Create(ctx, &models.AccessEvent{
			Kind:       kind,
			FromState:  "locked",
			ToState:    "locked",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	w, body := suite.get("/api/v1/events?kind=failed_attempt&page=1&page_size=10")
	suite.Equal(http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	suite.Len(data["events"].([]interface{}), 2)
	suite.Equal(float64(2), data["pagination"].(map[string]interface{})["total"])

	first := data["events"].([]interface{})[0].(map[string]interface{})
	id := first["event_id"].(string)

	w, body = suite.get("/api/v1/events/" + id)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(id, body["data"].(map[string]interface{})["event_id"])

	w, body = suite.get("/api/v1/events/missing")
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(false, body["success"])
}

func (suite *RouterTestSuite) TestEventsBadQuery() {
	w, _ := suite.get("/api/v1/events?page=abc")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestEventsDisabled() {
	suite.router = NewRouter(Options{Status: suite.status, Mode: gin.TestMode})
	w, _ := suite.get("/api/v1/events")
	suite.Equal(http.StatusInternalServerError, w.Code)
}

func (suite *RouterTestSuite) TestAuth() {
	jwt := utils.NewJWTManager("secret", time.Hour)
	suite.router = NewRouter(Options{Status: suite.status, JWT: jwt, Mode: gin.TestMode})

	w, _ := suite.get("/api/v1/status")
	suite.Equal(http.StatusUnauthorized, w.Code)

	// 健康检查不需要认证
	w, _ = suite.get("/health")
	suite.Equal(http.StatusOK, w.Code)

	token, err := jwt.GenerateToken("ops", utils.ScopeRead)
	suite.Require().NoError(err)
	w, _ = suite.get("/api/v1/status?token=" + token)
	suite.Equal(http.StatusOK, w.Code)
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func TestWebSocketStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := websocket.NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	status := &fakeStatus{snap: lock.Snapshot{State: "unlocked"}}
	hub.SetWelcome(func() *websocket.Message {
		msg, _ := websocket.NewMessage(websocket.MessageTypeStatus, status.Snapshot())
		return msg
	})

	router := NewRouter(Options{Status: status, Hub: hub, Mode: gin.TestMode})
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/status"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() websocket.Message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg websocket.Message
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	assert.Equal(t, websocket.MessageTypeConnected, read().Type)
	welcome := read()
	assert.Equal(t, websocket.MessageTypeStatus, welcome.Type)

	var snap lock.Snapshot
	require.NoError(t, json.Unmarshal(welcome.Data, &snap))
	assert.Equal(t, "unlocked", snap.State)
}
