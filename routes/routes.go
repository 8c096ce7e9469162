package routes

import (
	"net/http"
	"time"

	"I2I/controller"
	"I2I/logger"
	"I2I/pkg/sse"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS 允许任意来源、方法和请求头，并允许携带凭证。仅适合开发环境。
func CORS() gin.HandlerFunc {
	allow := cors.New(cors.Config{
		// 回显请求的 Origin，带凭证时浏览器不接受 "*"
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		ExposeHeaders:    []string{controller.JobIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
	return func(c *gin.Context) {
		// 同理 Allow-Headers 也不能是 "*"，预检时原样回显请求的头
		if c.Request.Method == http.MethodOptions {
			if h := c.GetHeader("Access-Control-Request-Headers"); h != "" {
				c.Header("Access-Control-Allow-Headers", h)
			}
		}
		allow(c)
	}
}

// Setup 注册路由；hub 为 nil 时不提供 /events，jobs 为 nil 时不提供 /jobs/:job_id
func Setup(mode string, gc *controller.GenerateController, hub *sse.Hub, jobs controller.JobReader) *gin.Engine {
	if mode == gin.ReleaseMode || mode == gin.TestMode {
		gin.SetMode(mode)
	}

	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery(true), CORS())

	r.GET("/", controller.HomeHandler)
	r.POST("/generate", gc.GenerateHandler)
	if hub != nil {
		r.GET("/events", sse.Handler(hub))
	}
	if jobs != nil {
		r.GET("/jobs/:job_id", controller.JobHandler(jobs))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})
	return r
}
