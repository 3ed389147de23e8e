package model

// ChatResponse 对话响应
type ChatResponse struct {
	Content        string   `json:"content"`
	Sources        []Source `json:"sources"`
	ModelUsed      string   `json:"model_used"`
	ConversationID string   `json:"conversation_id,omitempty"`
}

// Source 回答引用的来源文档片段
// 由多条相同 snippet 的原始引用折叠而来
type Source struct {
	Location              string  `json:"location"`                // 引用的分块标识
	Snippet               string  `json:"snippet"`                 // 片段文本（≤200字符）
	DocumentURL           *string `json:"document_url"`            // 预签名下载URL，未授权或解析失败时为 null
	DocumentAccessAllowed bool    `json:"document_access_allowed"` // 是否允许访问原始文档
}

// ErrorInfo 对外错误信息
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse 错误响应（所有API共用）
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// NewErrorResponse 从错误构造响应体
// 非 *AppError 的错误一律折叠为 ServiceError，不暴露内部细节
func NewErrorResponse(err error) (int, ErrorResponse) {
	appErr := AsAppError(err)
	return appErr.Status, ErrorResponse{Error: ErrorInfo{
		Code:    appErr.Code,
		Message: appErr.Message,
	}}
}
