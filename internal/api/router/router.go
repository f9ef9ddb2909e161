package router

import (
	"context"

	"resume-screener-go/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// RegisterRoutes 注册 API 路由
// apiKey 非空时业务路由启用 X-API-Key 鉴权，健康检查始终开放
func RegisterRoutes(h *server.Hertz, screeningHandler *handler.ScreeningHandler, apiKey string) {
	h.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api := h.Group("/api/v1")

	if apiKey != "" {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:X-API-Key", ""),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return key == apiKey, nil
			}),
		))
	}

	api.POST("/resumes/upload", screeningHandler.UploadResumes)
	api.POST("/job-roles", screeningHandler.CreateJobRole)
	api.GET("/candidates", screeningHandler.ListCandidates)
	api.PATCH("/candidates/:id/status", screeningHandler.UpdateCandidateStatus)
}
