package apperrors

import (
	"errors"
	"fmt"
)

// Kind 區分錯誤的類別，決定呼叫端與 HTTP/WebSocket 邊界的處理方式
type Kind string

const (
	KindAuth              Kind = "auth"               // 憑證無效或過期，連線會被關閉
	KindValidation        Kind = "validation"         // 輸入不合法，操作被拒絕但連線保持
	KindConflict          Kind = "conflict"           // 並發的競爭轉換，呼叫端應重新讀取狀態
	KindInvalidTransition Kind = "invalid_transition" // 目前狀態不允許該轉換
	KindPersistence       Kind = "persistence"        // 儲存層失敗，操作整體失敗
	KindTransient         Kind = "transient"          // 通知發送等暫時性失敗，不影響主要狀態
)

// Error 是帶有類別的應用層錯誤
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, cause ...error) *Error {
	e := &Error{Kind: kind, Message: message}
	if len(cause) > 0 {
		e.Err = cause[0]
	}
	return e
}

func Auth(message string, cause ...error) *Error {
	return newError(KindAuth, message, cause...)
}

func Validation(message string, cause ...error) *Error {
	return newError(KindValidation, message, cause...)
}

func Conflict(message string, cause ...error) *Error {
	return newError(KindConflict, message, cause...)
}

func InvalidTransition(message string, cause ...error) *Error {
	return newError(KindInvalidTransition, message, cause...)
}

func Persistence(message string, cause ...error) *Error {
	return newError(KindPersistence, message, cause...)
}

func Transient(message string, cause ...error) *Error {
	return newError(KindTransient, message, cause...)
}

// IsKind 回報錯誤鏈中是否含有指定類別的應用層錯誤
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
