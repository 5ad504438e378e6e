package domain

import (
	"errors"
	"image"
)

// Side 标识拆分后的哪一半。
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ErrTooNarrow 表示图片宽度不足 2 像素，无法得到两个非空的半边。
var ErrTooNarrow = errors.New("图片宽度不足 2 像素，无法拆分")

// Geometry 是一次拆分的裁切几何（半开区间，坐标与源图 Bounds 一致）。
type Geometry struct {
	Midpoint int // 相对 Source.Min.X 的列偏移，等于 width/2

	Left  image.Rectangle
	Right image.Rectangle
}

// SplitGeometry 在水平中点把 bounds 切成左右两半。
//
// 约束：
// - midpoint = width / 2（向下取整）；奇数宽度时多出的一列归右半边，不做“对称修正”
// - 两半都保留完整高度
func SplitGeometry(bounds image.Rectangle) (Geometry, error) {
	w, h := bounds.Dx(), bounds.Dy()
	if w < 2 || h < 1 {
		return Geometry{}, ErrTooNarrow
	}

	mid := w / 2
	x := bounds.Min.X + mid
	return Geometry{
		Midpoint: mid,
		Left:     image.Rect(bounds.Min.X, bounds.Min.Y, x, bounds.Max.Y),
		Right:    image.Rect(x, bounds.Min.Y, bounds.Max.X, bounds.Max.Y),
	}, nil
}
