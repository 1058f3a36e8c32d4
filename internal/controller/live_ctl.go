package controller

import (
	"net/http"
	"shop_admin_v1_202610/internal/model"
	"shop_admin_v1_202610/pkg/rtdb"
	"time"

	"github.com/gin-gonic/gin"
)

// 心跳间隔
const liveHeartbeat = 30 * time.Second

// LiveController 以 SSE 推送某个路径的整棵子树
type LiveController struct {
	db        *rtdb.Database
	heartbeat time.Duration
}

func NewLiveController(db *rtdb.Database) *LiveController {
	return &LiveController{db: db, heartbeat: liveHeartbeat}
}

// Stream SSE 订阅数据变化
// @Summary SSE 实时推送数据变化
// @Description 每次推送完整子树（snapshot 事件）；节点不存在时 value 为 null。EventSource 可用 ?token= 认证
// @Tags Live
// @Param path path string true "数据路径，如 orders 或 products/{id}"
// @Produce text/event-stream
// @Router /api/v1/live/{path} [get]
func (ctrl *LiveController) Stream(c *gin.Context) {
	path, err := rtdb.CleanPath(c.Param("path"))
	if err != nil || path == "" {
		fail(c, http.StatusBadRequest, "无效的数据路径", nil)
		return
	}
	if rtdb.Root(path) == model.ColUsers {
		fail(c, http.StatusForbidden, "该路径不支持订阅", nil)
		return
	}

	snapshots := make(chan rtdb.Snapshot, 1)
	errs := make(chan error, 1)
	unsubscribe, err := ctrl.db.Subscribe(path, rtdb.Funcs(
		func(s rtdb.Snapshot) {
			// 只保留最新快照
			select {
			case snapshots <- s:
			default:
				select {
				case <-snapshots:
				default:
				}
				snapshots <- s
			}
		},
		func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
	))
	if err != nil {
		respondError(c, err)
		return
	}
	defer unsubscribe()

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(ctrl.heartbeat)
	defer ticker.Stop()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			return
		case <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"time": time.Now().Unix()})
			c.Writer.Flush()
		case s := <-snapshots:
			c.SSEvent("snapshot", gin.H{
				"path":    s.Path,
				"version": s.Version,
				"value":   s.Value,
			})
			c.Writer.Flush()
		case err := <-errs:
			c.SSEvent("error", gin.H{
				"code":    rtdb.CodeOf(err),
				"message": err.Error(),
			})
			c.Writer.Flush()
			return
		}
	}
}
