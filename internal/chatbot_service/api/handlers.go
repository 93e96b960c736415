package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"EduConnect/internal/chatbot_service/service"
)

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service *service.Service
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.Service) *Handler {
	return &Handler{service: s}
}

// AskRequest 定义了提问请求的 JSON 结构。
type AskRequest struct {
	Query string `json:"query" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// Ask 处理学生的提问请求，并返回路由后的答案。
func (h *Handler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query and email are required"})
		return
	}

	answer, err := h.service.Ask(c.Request.Context(), req.Query, req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// 个人查询的回答不带 source；similarity 只在相似命中时返回。
	resp := gin.H{"answer": answer.Text}
	if answer.Source != "" {
		resp["source"] = answer.Source
	}
	if answer.Similar {
		resp["similarity"] = answer.Similarity
	}
	c.JSON(http.StatusOK, resp)
}

// Home 返回一个简单的存活信息，用于健康检查。
func (h *Handler) Home(c *gin.Context) {
	c.String(http.StatusOK, "EduConnect chatbot backend is running!")
}
