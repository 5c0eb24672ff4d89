package tailor

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest   = errors.New("请求参数无效")
	ErrModelFailed      = errors.New("模型调用失败")
	ErrEmptyModelOutput = errors.New("模型输出为空")
	ErrEmptyResult      = errors.New("规范化后没有任何内容")
	ErrRenderFailed     = errors.New("文档渲染失败")
	ErrStoreFailed      = errors.New("文档保存失败")
)

// TailorError 带运行 ID 与阶段信息的错误
type TailorError struct {
	Op      string
	RunID   string
	BaseErr error
	Detail  string
}

func (e *TailorError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 运行:%s): %s", e.BaseErr, e.Op, e.RunID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 运行:%s)", e.BaseErr, e.Op, e.RunID)
}

func (e *TailorError) Unwrap() error {
	return e.BaseErr
}

func newError(op, runID string, base error, cause error) *TailorError {
	e := &TailorError{Op: op, RunID: runID, BaseErr: base}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}
