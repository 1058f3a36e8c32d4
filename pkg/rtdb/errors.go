package rtdb

import (
	"errors"
	"fmt"
)

// ErrorCode 归一化后的错误类型
type ErrorCode string

const (
	CodeInvalidPath      ErrorCode = "invalid_path"
	CodePermissionDenied ErrorCode = "permission_denied"
	CodeUnavailable      ErrorCode = "unavailable"
	CodeInvalidData      ErrorCode = "invalid_data"
	CodeUnknown          ErrorCode = "unknown"
)

var (
	ErrInvalidPath = errors.New("rtdb: invalid path")
	ErrClosed      = errors.New("rtdb: database closed")
	ErrInvalidData = errors.New("rtdb: value is not JSON compatible")
)

// Error 存储层错误，Err 保留底层原始错误
type Error struct {
	Op   string
	Path string
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("rtdb %s %q: %s: %v", e.Op, e.Path, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrapErr 包装错误；已经是 *Error 的直接返回
func wrapErr(op, path string, code ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return err
	}
	switch {
	case errors.Is(err, ErrInvalidPath):
		code = CodeInvalidPath
	case errors.Is(err, ErrInvalidData):
		code = CodeInvalidData
	}
	return &Error{Op: op, Path: path, Code: code, Err: err}
}

// CodeOf 取出错误码，非存储层错误返回 CodeUnknown
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	if errors.Is(err, ErrInvalidPath) {
		return CodeInvalidPath
	}
	return CodeUnknown
}
