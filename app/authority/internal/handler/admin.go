// Package handler 权威节点管理端 HTTP 接口
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/xdooria-gdid/pkg/app"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/authority"
	"github.com/lk2023060901/xdooria-gdid/pkg/web"
)

// 业务错误码
const (
	CodeInvalidArgument = 1001
	CodeInternal        = 1500
)

// Inspector 只读的分配器视图，*authority.Allocator 满足
type Inspector interface {
	Snapshot(scope, sequence string) ([]authority.SequenceSnapshot, error)
	Stats() authority.Stats
}

// StatusResponse GET /api/v1/status
type StatusResponse struct {
	InstanceID  string          `json:"instance_id"`
	Version     app.Info        `json:"version"`
	Locations   []string        `json:"locations"`
	Allocations authority.Stats `json:"allocations"`
}

// Admin 管理端路由
type Admin struct {
	inspector  Inspector
	instanceID string
	locations  []string
	metrics    http.Handler
	metricPath string
}

// NewAdmin 创建管理端处理器；metrics 为空时不挂载指标路由
func NewAdmin(inspector Inspector, instanceID string, locations []string, metrics http.Handler, metricPath string) *Admin {
	if metricPath == "" {
		metricPath = "/metrics"
	}
	return &Admin{
		inspector:  inspector,
		instanceID: instanceID,
		locations:  locations,
		metrics:    metrics,
		metricPath: metricPath,
	}
}

// Register 注册路由
func (h *Admin) Register(r gin.IRouter) {
	r.GET("/healthz", h.health)
	if h.metrics != nil {
		r.GET(h.metricPath, gin.WrapH(h.metrics))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/status", h.status)
	v1.GET("/scopes/:scope", h.scope)
	v1.GET("/scopes/:scope/sequences/:sequence", h.sequence)
}

func (h *Admin) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Admin) status(c *gin.Context) {
	web.Success(c, StatusResponse{
		InstanceID:  h.instanceID,
		Version:     app.GetInfo(),
		Locations:   h.locations,
		Allocations: h.inspector.Stats(),
	})
}

func (h *Admin) scope(c *gin.Context) {
	h.snapshot(c, c.Param("scope"), "")
}

func (h *Admin) sequence(c *gin.Context) {
	h.snapshot(c, c.Param("scope"), c.Param("sequence"))
}

func (h *Admin) snapshot(c *gin.Context, scope, sequence string) {
	snaps, err := h.inspector.Snapshot(scope, sequence)
	if err != nil {
		if gdid.IsValidation(err) {
			web.Error(c, http.StatusBadRequest, CodeInvalidArgument, err.Error())
			return
		}
		web.Error(c, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	if snaps == nil {
		snaps = []authority.SequenceSnapshot{}
	}
	web.Success(c, snaps)
}
