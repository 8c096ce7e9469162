package sse

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 处理 SSE 连接
// @Summary 订阅生成任务事件流（SSE）
// @Description 通过查询参数 `topic` 指定主题，缺省为 generate。每个生成任务在 processing、completed/failed 时各推送一次。
// @Tags SSE
// @Produce text/event-stream
// @Param topic query string false "topic"
// @Success 200 {string} string "event stream"
// @Router /events [get]
func Handler(h *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		topic := c.DefaultQuery("topic", JobTopic)

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
			return
		}

		// 每个连接一个带缓冲的通道
		msgCh := make(chan Message, 16)
		if !h.Subscribe(msgCh, topic) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event hub stopped"})
			return
		}
		defer h.Unsubscribe(msgCh, topic)

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Status(http.StatusOK)

		// 首次握手的注释行，部分代理需要它保持连接
		fmt.Fprint(c.Writer, ": connected\n\n")
		flusher.Flush()

		notify := c.Request.Context().Done()
		for {
			select {
			case <-notify:
				return
			case <-h.done:
				return
			case msg := <-msgCh:
				if msg.Event != "" {
					fmt.Fprintf(c.Writer, "event: %s\n", msg.Event)
				}
				fmt.Fprintf(c.Writer, "data: %s\n\n", msg.Data)
				flusher.Flush()
				zap.L().Debug("sse event sent", zap.String("topic", topic), zap.String("event", msg.Event))
			}
		}
	}
}
