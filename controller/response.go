package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResponseError 所有失败统一返回 {"error": "<message>"}
func ResponseError(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{"error": err.Error()})
}

// ResponseImage 返回 JPEG 图片
func ResponseImage(c *gin.Context, data []byte) {
	c.Data(http.StatusOK, "image/jpeg", data)
}
