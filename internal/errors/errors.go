// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType 定义错误类型
type ErrorType string

const (
	// 流水线错误分类
	ErrorTypeEmptyInput        ErrorType = "empty_input"        // 未组装出任何内容，用户可修正
	ErrorTypeTransport         ErrorType = "transport"          // 网络/5xx/429，可重试
	ErrorTypeTerminalRequest   ErrorType = "terminal_request"   // 认证/策略/请求格式错误，立即失败
	ErrorTypeEmptyResponse     ErrorType = "empty_response"     // 远端未返回任何文本
	ErrorTypeContractViolation ErrorType = "contract_violation" // 响应无法解析或缺少必需字段
	ErrorTypePersistence       ErrorType = "persistence"        // 历史读写失败，内部吸收
	ErrorTypeMetadataLookup    ErrorType = "metadata_lookup"    // 元数据查询失败，静默跳过
)

// AppError 应用程序错误结构
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // 用户友好的错误代码
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现错误链接
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError 创建新的 AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewEmptyInputError 创建空输入错误
func NewEmptyInputError(message string) *AppError {
	return NewAppError(ErrorTypeEmptyInput, message, nil)
}

// NewTransportError 创建可重试的传输错误
func NewTransportError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeTransport, message, originalError)
}

// NewTerminalRequestError 创建不可重试的请求错误
func NewTerminalRequestError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeTerminalRequest, message, originalError)
}

// NewEmptyResponseError 创建空响应错误
func NewEmptyResponseError(message string) *AppError {
	return NewAppError(ErrorTypeEmptyResponse, message, nil)
}

// NewContractViolationError 创建契约违反错误
func NewContractViolationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeContractViolation, message, originalError)
}

// NewPersistenceError 创建持久化错误
func NewPersistenceError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypePersistence, message, originalError)
}

// NewMetadataLookupError 创建元数据查询错误
func NewMetadataLookupError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeMetadataLookup, message, originalError)
}

// isType 检查错误链中是否存在指定类型的 AppError
func isType(err error, errType ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == errType
	}
	return false
}

// IsEmptyInputError 检查是否为空输入错误
func IsEmptyInputError(err error) bool {
	return isType(err, ErrorTypeEmptyInput)
}

// IsTransportError 检查是否为可重试的传输错误
func IsTransportError(err error) bool {
	return isType(err, ErrorTypeTransport)
}

// IsTerminalRequestError 检查是否为不可重试的请求错误
func IsTerminalRequestError(err error) bool {
	return isType(err, ErrorTypeTerminalRequest)
}

// IsEmptyResponseError 检查是否为空响应错误
func IsEmptyResponseError(err error) bool {
	return isType(err, ErrorTypeEmptyResponse)
}

// IsContractViolationError 检查是否为契约违反错误
func IsContractViolationError(err error) bool {
	return isType(err, ErrorTypeContractViolation)
}

// IsPersistenceError 检查是否为持久化错误
func IsPersistenceError(err error) bool {
	return isType(err, ErrorTypePersistence)
}

// generateErrorCode 根据错误类型生成错误代码
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeEmptyInput:
		return "EMPTY_INPUT"
	case ErrorTypeTransport:
		return "TRANSPORT_ERROR"
	case ErrorTypeTerminalRequest:
		return "TERMINAL_REQUEST"
	case ErrorTypeEmptyResponse:
		return "EMPTY_RESPONSE"
	case ErrorTypeContractViolation:
		return "CONTRACT_VIOLATION"
	case ErrorTypePersistence:
		return "PERSISTENCE_ERROR"
	case ErrorTypeMetadataLookup:
		return "METADATA_LOOKUP_FAILED"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError 包装现有错误
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		// 如果已经是 AppError，保留原有分类，只叠加消息
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	return NewAppError(errType, message, err)
}
