package model

// ChatRequest 对话请求
// Identity 为调用方在请求体里声明的身份（可选），
// 认证后的真实身份由认证中间件写入 context，两者不一致时拒绝
type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id,omitempty"`
	Identity       string `json:"identity,omitempty"`
}
