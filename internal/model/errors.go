package model

import (
	"errors"
	"net/http"
)

// 对外暴露的错误码（固定集合，不得新增临时值）
const (
	CodeInvalidInput      = "InvalidInput"
	CodeAuthRequired      = "AuthRequired"
	CodeIdentityMismatch  = "IdentityMismatch"
	CodeNotFound          = "NotFound"
	CodeConfigUnavailable = "ConfigUnavailable"
	CodeKBQueryFailed     = "KnowledgeBaseQueryFailed"
	CodeServiceError      = "ServiceError"
)

// AppError 对外错误
// Code/Message 是用户安全的固定文案，内部细节只进日志
type AppError struct {
	Code    string
	Status  int
	Message string
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	return e.Code + ": " + e.Message
}

// NewInvalidInput 请求参数不合法
func NewInvalidInput(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Status: http.StatusBadRequest, Message: message}
}

// NewAuthRequired 配置要求认证但请求未携带身份
func NewAuthRequired() *AppError {
	return &AppError{Code: CodeAuthRequired, Status: http.StatusUnauthorized, Message: "authentication required"}
}

// NewIdentityMismatch 请求声明的身份与认证身份不一致
func NewIdentityMismatch() *AppError {
	return &AppError{Code: CodeIdentityMismatch, Status: http.StatusForbidden, Message: "identity mismatch"}
}

// NewNotFound 请求的资源不存在
func NewNotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Status: http.StatusNotFound, Message: message}
}

// NewConfigUnavailable 运行时配置缺失或不可读
func NewConfigUnavailable() *AppError {
	return &AppError{Code: CodeConfigUnavailable, Status: http.StatusServiceUnavailable, Message: "service configuration unavailable"}
}

// NewKBQueryFailed 知识库查询失败（不透出下游细节）
func NewKBQueryFailed() *AppError {
	return &AppError{Code: CodeKBQueryFailed, Status: http.StatusBadGateway, Message: "knowledge base query failed"}
}

// NewServiceError 兜底错误
func NewServiceError() *AppError {
	return &AppError{Code: CodeServiceError, Status: http.StatusInternalServerError, Message: "internal service error"}
}

// AsAppError 将任意错误规约为 *AppError
// 未知错误折叠为 ServiceError，保证对外只出现固定错误码
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewServiceError()
}
