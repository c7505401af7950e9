package errors

import "errors"

// ValidationError 字段校验失败，Message 为直接返回给调用方的静态文案
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidation 创建校验错误
func NewValidation(message string) error {
	return &ValidationError{Message: message}
}

// AsValidation 判断 err 链中是否包含校验错误
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
