package normalizer

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig 配置非法，New 返回的错误均可用 errors.Is 匹配
var ErrInvalidConfig = errors.New("规范化配置非法")

// ConfigError 指出具体哪个配置字段有问题
type ConfigError struct {
	Field   string
	Detail  string
	BaseErr error
}

func newConfigError(field, detail string, cause error) *ConfigError {
	return &ConfigError{Field: field, Detail: detail, BaseErr: cause}
}

func (e *ConfigError) Error() string {
	if e.BaseErr != nil {
		return fmt.Sprintf("%s (字段:%s): %s: %v", ErrInvalidConfig, e.Field, e.Detail, e.BaseErr)
	}
	return fmt.Sprintf("%s (字段:%s): %s", ErrInvalidConfig, e.Field, e.Detail)
}

func (e *ConfigError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
