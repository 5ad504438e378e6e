package split

import (
	"errors"
	"fmt"

	"github.com/talsania/maptoposter/internal/domain"
)

// Error 是拆分阶段的结构化错误（带 error_code，取值见 domain.ErrCode*）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case domain.ErrCodeDecodeFailed:
		return fmt.Sprintf("%s：无法解码图片 %q：%v", e.Code, e.Path, e.Err)
	case domain.ErrCodeInvalidImage:
		return fmt.Sprintf("%s：图片 %q 无法拆分：%v", e.Code, e.Path, e.Err)
	case domain.ErrCodeWriteFailed:
		return fmt.Sprintf("%s：写入 %q 失败：%v", e.Code, e.Path, e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
