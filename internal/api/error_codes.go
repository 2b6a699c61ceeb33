// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"

	// 分析流水线相关错误
	ErrorEmptyInput        = "EMPTY_INPUT"
	ErrorTransport         = "TRANSPORT_ERROR"
	ErrorTerminalRequest   = "TERMINAL_REQUEST"
	ErrorEmptyResponse     = "EMPTY_RESPONSE"
	ErrorContractViolation = "CONTRACT_VIOLATION"

	// 历史与反馈相关错误
	ErrorHistoryNotFound    = "HISTORY_NOT_FOUND"
	ErrorPersistenceFailed  = "PERSISTENCE_ERROR"
	ErrorFeedbackInvalid    = "FEEDBACK_INVALID"

	// LLM服务相关错误
	ErrorLLMServiceUnavailable = "LLM_SERVICE_UNAVAILABLE"
	ErrorLLMConfigInvalid      = "LLM_CONFIG_INVALID"
	ErrorAPIKeyMissing         = "API_KEY_MISSING"

	// 语音相关错误
	ErrorSpeechFailed = "SPEECH_FAILED"
)
