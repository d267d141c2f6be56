package domain

import (
	"errors"
	"fmt"
)

// ValidationError 入参不合法（缺少字段/分数超上限/类型错误），在任何写入之前返回。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError 业务状态冲突（月份已结算/自动细则不能手动打分/员工无考核），不产生部分写入。
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func Invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
