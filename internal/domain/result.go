package domain

// DPI 是写入输出文件的分辨率元数据（dots per inch）。
type DPI struct {
	X int
	Y int
}

// DefaultDPI 与源图自带的 DPI 无关，两半固定使用。
var DefaultDPI = DPI{X: 600, Y: 600}

const (
	ErrCodeUsage        = "usage"
	ErrCodeNotFound     = "not_found"
	ErrCodeDecodeFailed = "decode_failed"
	ErrCodeInvalidImage = "invalid_image"
	ErrCodeWriteFailed  = "write_failed"
)

// HalfResult 描述已写出的一半。
type HalfResult struct {
	Side   Side
	Path   string
	Width  int
	Height int
}

// SplitResult 是一次拆分的完整结果。
type SplitResult struct {
	Input    string
	Width    int
	Height   int
	Midpoint int
	DPI      DPI

	Left  HalfResult
	Right HalfResult
}

// Half 按 side 取对应的结果。
func (r SplitResult) Half(side Side) HalfResult {
	if side == SideRight {
		return r.Right
	}
	return r.Left
}
