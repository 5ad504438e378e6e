package split

import (
	"image"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/talsania/maptoposter/internal/config"
	"github.com/talsania/maptoposter/internal/domain"
	"github.com/talsania/maptoposter/internal/infra/fsx"
	"github.com/talsania/maptoposter/internal/infra/imgx"
)

// Options 控制一次拆分。
type Options struct {
	OutputDir string     // 原样使用，不创建；空串表示 config.DefaultOutputDir
	DPI       domain.DPI // 零值表示 domain.DefaultDPI
}

// Split 把 inputPath 拆成左右两半写到 outputDir，返回两个输出路径。
func Split(inputPath, outputDir string) (leftPath, rightPath string, err error) {
	res, err := Run(inputPath, Options{OutputDir: outputDir}, nil)
	if err != nil {
		return "", "", err
	}
	return res.Left.Path, res.Right.Path, nil
}

// Run 执行完整的拆分流程：解码 → 计算中点 → 裁切两半 → 推导文件名 → 编码写盘。
//
// 约束：
// - 严格串行、不可恢复：任一步失败立即返回 *Error
// - 左半边写成功后右半边失败时，不回滚已写出的左半边
// - 输出格式由输入扩展名推断；DPI 与源图元数据无关
func Run(inputPath string, opts Options, obs Observer) (domain.SplitResult, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	if opts.OutputDir == "" {
		opts.OutputDir = config.DefaultOutputDir
	}
	if opts.DPI == (domain.DPI{}) {
		opts.DPI = domain.DefaultDPI
	}
	log := zap.L().Named("split").With(zap.String("input", inputPath))

	src, err := imgx.DecodeFile(inputPath)
	if err != nil {
		return domain.SplitResult{}, &Error{Code: domain.ErrCodeDecodeFailed, Path: inputPath, Err: err}
	}

	b := src.Bounds()
	obs.OnDecoded(inputPath, b.Dx(), b.Dy())

	g, err := domain.SplitGeometry(b)
	if err != nil {
		return domain.SplitResult{}, &Error{Code: domain.ErrCodeInvalidImage, Path: inputPath, Err: err}
	}
	log.Debug("geometry", zap.Int("midpoint", g.Midpoint), zap.Stringer("left", g.Left), zap.Stringer("right", g.Right))

	halves := map[domain.Side]image.Image{
		domain.SideLeft:  imgx.Crop(src, g.Left),
		domain.SideRight: imgx.Crop(src, g.Right),
	}

	sides := []domain.Side{domain.SideLeft, domain.SideRight}
	for _, side := range sides {
		hb := halves[side].Bounds()
		obs.OnCropped(side, hb.Dx(), hb.Dy())
	}

	parts := domain.ParsePathParts(inputPath)
	res := domain.SplitResult{
		Input:    inputPath,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Midpoint: g.Midpoint,
		DPI:      opts.DPI,
	}

	for _, side := range sides {
		out := parts.OutputPath(opts.OutputDir, side)
		hb := halves[side].Bounds()
		if err := writeHalf(halves[side], parts, opts, side); err != nil {
			return domain.SplitResult{}, &Error{Code: domain.ErrCodeWriteFailed, Path: out, Err: err}
		}
		log.Debug("half written", zap.String("side", string(side)), zap.String("path", out))

		half := domain.HalfResult{Side: side, Path: out, Width: hb.Dx(), Height: hb.Dy()}
		if side == domain.SideRight {
			res.Right = half
		} else {
			res.Left = half
		}
	}

	for _, side := range sides {
		obs.OnSaved(side, res.Half(side).Path)
	}
	obs.OnDone(res)
	return res, nil
}

func writeHalf(img image.Image, parts domain.PathParts, opts Options, side domain.Side) error {
	format, err := imgx.FormatFor(parts.Ext)
	if err != nil {
		return err
	}
	data, _, err := imgx.Encode(img, format, opts.DPI)
	if err != nil {
		return err
	}
	return fsx.WriteFileReplace(filepath.Clean(opts.OutputDir), parts.FileName(side), data)
}
