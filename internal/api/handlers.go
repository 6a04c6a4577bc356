package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/pin-lock/internal/errors"
	"github.com/wfunc/pin-lock/internal/lock"
	"github.com/wfunc/pin-lock/internal/models"
	"github.com/wfunc/pin-lock/internal/websocket"
	"go.uber.org/zap"
)

// Response 统一成功响应
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Timestamp: time.Now().Unix()})
}

func fail(c *gin.Context, err error) {
	appErr, isApp := err.(*errors.AppError)
	if !isApp {
		appErr = errors.Wrap(err, errors.ErrUnknown)
	}
	c.JSON(appErr.HTTPStatus(), errors.NewErrorResponse(appErr))
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	snap := r.status.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": r.version,
		"state":   snap.State,
		"time":    time.Now().Unix(),
	})
}

// getStatus 当前状态快照
func (r *Router) getStatus(c *gin.Context) {
	ok(c, r.status.Snapshot())
}

// getStats 控制循环与推送统计
func (r *Router) getStats(c *gin.Context) {
	data := gin.H{"controller": r.status.Stats()}
	if r.hub != nil {
		data["ws_clients"] = r.hub.GetOnlineCount()
	}
	ok(c, data)
}

// MenuItem 主菜单项
type MenuItem struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// getMenu 主菜单项列表
func (r *Router) getMenu(c *gin.Context) {
	items := lock.MenuItems()
	out := make([]MenuItem, 0, len(items))
	for i, item := range items {
		out = append(out, MenuItem{Index: i, Name: item.String(), Label: item.Label()})
	}
	ok(c, out)
}

// listEvents 审计事件分页查询
func (r *Router) listEvents(c *gin.Context) {
	if r.events == nil {
		fail(c, errors.New(errors.ErrNotImplemented, "审计未启用"))
		return
	}

	var query models.AccessEventQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		fail(c, errors.Wrap(err, errors.ErrInvalidParam))
		return
	}

	events, page, err := r.events.List(c.Request.Context(), &query)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"events": events, "pagination": page})
}

// getEvent 按事件ID查询
func (r *Router) getEvent(c *gin.Context) {
	if r.events == nil {
		fail(c, errors.New(errors.ErrNotImplemented, "审计未启用"))
		return
	}

	event, err := r.events.FindByEventID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, event)
}

// handleWebSocket 状态推送
func (r *Router) handleWebSocket(c *gin.Context) {
	if r.hub == nil {
		fail(c, errors.New(errors.ErrNotImplemented, "推送未启用"))
		return
	}

	conn, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		r.log.Warn("WebSocket升级失败", zap.Error(err))
		return
	}

	client := websocket.NewClient(r.hub, conn)
	if !r.hub.Register(client) {
		conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()
}
