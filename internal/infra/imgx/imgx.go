package imgx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/talsania/maptoposter/internal/domain"
)

// ErrUnsupportedFormat 表示无法从扩展名推断出可编码的图片格式。
var ErrUnsupportedFormat = errors.New("不支持的图片格式")

// jpegQuality：与源图保持接近即可，95 在体积与质量之间比较均衡。
const jpegQuality = 95

// DecodeFile 打开并解码 path 指向的图片。
//
// 约束：
// - 支持的输入格式由 imaging 决定（JPEG/PNG/GIF/TIFF/BMP）
// - 文件句柄在所有返回路径上都会关闭；Close 的错误会并入返回值
func DecodeFile(path string) (img image.Image, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	img, err = imaging.Decode(f)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("图片尺寸无效")
	}
	return img, nil
}

// Crop 按 rect（源图坐标）裁切出一块新图；结果原点为 (0,0)，不与源图共享像素。
//
// 约束：结果保持源图的具体类型（调色板、位深不变），编码时才不会发生隐式的格式转换。
// 只有无法逐行拷贝的类型（例如 YCbCr）才退化为 imaging.Crop 的 8 位 NRGBA。
func Crop(img image.Image, rect image.Rectangle) image.Image {
	rect = rect.Intersect(img.Bounds())
	r := image.Rect(0, 0, rect.Dx(), rect.Dy())

	switch src := img.(type) {
	case *image.Paletted:
		dst := image.NewPaletted(r, append(color.Palette(nil), src.Palette...))
		copyRows(dst.Pix, dst.Stride, src.Pix[src.PixOffset(rect.Min.X, rect.Min.Y):], src.Stride, rect.Dx(), rect.Dy())
		return dst
	case *image.Gray:
		dst := image.NewGray(r)
		copyRows(dst.Pix, dst.Stride, src.Pix[src.PixOffset(rect.Min.X, rect.Min.Y):], src.Stride, rect.Dx(), rect.Dy())
		return dst
	case *image.Gray16:
		dst := image.NewGray16(r)
		copyRows(dst.Pix, dst.Stride, src.Pix[src.PixOffset(rect.Min.X, rect.Min.Y):], src.Stride, rect.Dx()*2, rect.Dy())
		return dst
	case *image.RGBA:
		dst := image.NewRGBA(r)
		copyRows(dst.Pix, dst.Stride, src.Pix[src.PixOffset(rect.Min.X, rect.Min.Y):], src.Stride, rect.Dx()*4, rect.Dy())
		return dst
	case *image.RGBA64:
		dst := image.NewRGBA64(r)
		copyRows(dst.Pix, dst.Stride, src.Pix[src.PixOffset(rect.Min.X, rect.Min.Y):], src.Stride, rect.Dx()*8, rect.Dy())
		return dst
	case *image.NRGBA:
		dst := image.NewNRGBA(r)
		copyRows(dst.Pix, dst.Stride, src.Pix[src.PixOffset(rect.Min.X, rect.Min.Y):], src.Stride, rect.Dx()*4, rect.Dy())
		return dst
	case *image.NRGBA64:
		dst := image.NewNRGBA64(r)
		copyRows(dst.Pix, dst.Stride, src.Pix[src.PixOffset(rect.Min.X, rect.Min.Y):], src.Stride, rect.Dx()*8, rect.Dy())
		return dst
	case *image.CMYK:
		dst := image.NewCMYK(r)
		copyRows(dst.Pix, dst.Stride, src.Pix[src.PixOffset(rect.Min.X, rect.Min.Y):], src.Stride, rect.Dx()*4, rect.Dy())
		return dst
	default:
		return imaging.Crop(img, rect)
	}
}

// copyRows 把 src 起点开始的 h 行、每行 rowBytes 字节拷贝到 dst。
func copyRows(dst []byte, dstStride int, src []byte, srcStride, rowBytes, h int) {
	for y := 0; y < h; y++ {
		copy(dst[y*dstStride:y*dstStride+rowBytes], src[y*srcStride:y*srcStride+rowBytes])
	}
}

// FormatFor 按扩展名推断输出格式（大小写不敏感；".jpg"/".jpeg"、".tif"/".tiff" 等同）。
func FormatFor(ext string) (imaging.Format, error) {
	if strings.TrimSpace(ext) == "" {
		return 0, fmt.Errorf("%w：缺少扩展名", ErrUnsupportedFormat)
	}
	f, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return 0, fmt.Errorf("%w：%q", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// Encode 把 img 编码为 format，并写入 dpi 元数据。
//
// 对不支持 DPI 元数据的格式（GIF/TIFF），DPI 会被静默丢弃，返回 tagged=false。
func Encode(img image.Image, format imaging.Format, dpi domain.DPI) (data []byte, tagged bool, err error) {
	var out bytes.Buffer
	if err := imaging.Encode(&out, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, false, err
	}

	data, tagged, err = TagDPI(out.Bytes(), format, dpi)
	if err != nil {
		return nil, false, err
	}
	if !tagged {
		zap.L().Named("imgx").Debug("DPI tag not supported by format; dropped",
			zap.Stringer("format", format), zap.Int("dpi_x", dpi.X), zap.Int("dpi_y", dpi.Y))
	}
	return data, tagged, nil
}
