package imgx

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/talsania/maptoposter/internal/domain"
)

// leftBlackRightWhite 构造一个“左黑右白”的图，用于验证裁切确实取到对应半边。
func leftBlackRightWhite(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, color.NRGBA{0, 0, 0, 255})
			} else {
				img.Set(x, y, color.NRGBA{255, 255, 255, 255})
			}
		}
	}
	return img
}

func TestDecodeFile_PNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.png")

	var buf bytes.Buffer
	if err := png.Encode(&buf, leftBlackRightWhite(40, 20)); err != nil {
		t.Fatalf("encode png 失败：%v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	img, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile 失败：%v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("尺寸不符合预期：%v", b)
	}
}

func TestDecodeFile_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.png")
	if err := os.WriteFile(path, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	if _, err := DecodeFile(path); err == nil {
		t.Fatalf("期望解码失败，但得到 nil")
	}
}

func TestDecodeFile_Missing(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "nope.png"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("期望 os.ErrNotExist，实际：%v", err)
	}
}

func TestCrop_RightHalf(t *testing.T) {
	src := leftBlackRightWhite(200, 100)
	got := Crop(src, image.Rect(100, 0, 200, 100))

	if _, ok := got.(*image.NRGBA); !ok {
		t.Fatalf("裁切结果应保持源图类型 *image.NRGBA，实际 %T", got)
	}
	gb := got.Bounds()
	if gb.Min != (image.Point{}) || gb.Dx() != 100 || gb.Dy() != 100 {
		t.Fatalf("裁切结果应以 (0,0) 为原点且为 100x100：%v", gb)
	}
	for y := 0; y < gb.Dy(); y++ {
		for x := 0; x < gb.Dx(); x++ {
			if c := color.NRGBAModel.Convert(got.At(x, y)); c != (color.NRGBA{255, 255, 255, 255}) {
				t.Fatalf("右半边 (%d,%d) 应为白色，实际 %v", x, y, c)
			}
		}
	}
}

func TestCrop_KeepsPalettedPalette(t *testing.T) {
	pal := color.Palette{color.NRGBA{19, 87, 155, 255}, color.NRGBA{240, 10, 30, 255}}
	src := image.NewPaletted(image.Rect(0, 0, 9, 4), pal)
	for y := 0; y < 4; y++ {
		for x := 0; x < 9; x++ {
			src.SetColorIndex(x, y, uint8((x+y)%2))
		}
	}

	got, ok := Crop(src, image.Rect(4, 0, 9, 4)).(*image.Paletted)
	if !ok {
		t.Fatalf("调色板图裁切后应仍是 *image.Paletted")
	}
	if len(got.Palette) != len(pal) || got.Palette[0] != pal[0] || got.Palette[1] != pal[1] {
		t.Fatalf("调色板不应变化：%v", got.Palette)
	}
	if got.Bounds() != image.Rect(0, 0, 5, 4) {
		t.Fatalf("裁切尺寸错误：%v", got.Bounds())
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			if got.ColorIndexAt(x, y) != src.ColorIndexAt(x+4, y) {
				t.Fatalf("(%d,%d) 索引不一致", x, y)
			}
		}
	}
}

func TestCrop_KeepsGray16Depth(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 5, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			src.SetGray16(x, y, color.Gray16{Y: uint16(0x1234 + x*0x0101 + y)})
		}
	}

	got, ok := Crop(src, image.Rect(2, 0, 5, 3)).(*image.Gray16)
	if !ok {
		t.Fatalf("16 位灰度图裁切后应仍是 *image.Gray16")
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if got.Gray16At(x, y) != src.Gray16At(x+2, y) {
				t.Fatalf("(%d,%d) 精度丢失：got=%v want=%v", x, y, got.Gray16At(x, y), src.Gray16At(x+2, y))
			}
		}
	}
}

func TestCrop_YCbCrFallsBackToNRGBA(t *testing.T) {
	src := image.NewYCbCr(image.Rect(0, 0, 8, 8), image.YCbCrSubsampleRatio420)
	got := Crop(src, image.Rect(4, 0, 8, 8))
	if _, ok := got.(*image.NRGBA); !ok {
		t.Fatalf("YCbCr 应退化为 *image.NRGBA，实际 %T", got)
	}
	if got.Bounds() != image.Rect(0, 0, 4, 8) {
		t.Fatalf("裁切尺寸错误：%v", got.Bounds())
	}
}

func TestFormatFor(t *testing.T) {
	cases := map[string]imaging.Format{
		".png":  imaging.PNG,
		".PNG":  imaging.PNG,
		".jpg":  imaging.JPEG,
		".jpeg": imaging.JPEG,
		".bmp":  imaging.BMP,
		".gif":  imaging.GIF,
		".tif":  imaging.TIFF,
	}
	for ext, want := range cases {
		got, err := FormatFor(ext)
		if err != nil {
			t.Fatalf("%q：不期望错误：%v", ext, err)
		}
		if got != want {
			t.Fatalf("%q：期望 %v，实际 %v", ext, want, got)
		}
	}

	for _, ext := range []string{"", ".webp", ".txt"} {
		if _, err := FormatFor(ext); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("%q：期望 ErrUnsupportedFormat，实际：%v", ext, err)
		}
	}
}

func TestEncode_PNGCarriesDPIAndDecodes(t *testing.T) {
	src := leftBlackRightWhite(30, 10)

	data, tagged, err := Encode(src, imaging.PNG, domain.DefaultDPI)
	if err != nil {
		t.Fatalf("Encode 失败：%v", err)
	}
	if !tagged {
		t.Fatalf("PNG 应写入 DPI")
	}

	dpi, ok, err := ReadDPI(data)
	if err != nil || !ok {
		t.Fatalf("ReadDPI 失败：ok=%v err=%v", ok, err)
	}
	if dpi != domain.DefaultDPI {
		t.Fatalf("期望 DPI=%v，实际 %v", domain.DefaultDPI, dpi)
	}

	// 插入 pHYs 后 CRC 必须正确，标准解码器才能读回。
	got, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode 失败：%v", err)
	}
	if got.Bounds().Dx() != 30 || got.Bounds().Dy() != 10 {
		t.Fatalf("尺寸不符合预期：%v", got.Bounds())
	}
}

func TestTagDPI_PNGReplacesExistingPHYs(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, leftBlackRightWhite(4, 4)); err != nil {
		t.Fatalf("encode png 失败：%v", err)
	}

	once, _, err := TagDPI(buf.Bytes(), imaging.PNG, domain.DPI{X: 72, Y: 72})
	if err != nil {
		t.Fatalf("TagDPI 失败：%v", err)
	}
	twice, _, err := TagDPI(once, imaging.PNG, domain.DefaultDPI)
	if err != nil {
		t.Fatalf("TagDPI 失败：%v", err)
	}

	if n := bytes.Count(twice, []byte("pHYs")); n != 1 {
		t.Fatalf("期望只有 1 个 pHYs，实际 %d", n)
	}
	dpi, ok, err := ReadDPI(twice)
	if err != nil || !ok || dpi != domain.DefaultDPI {
		t.Fatalf("期望 DPI=%v，实际 %v ok=%v err=%v", domain.DefaultDPI, dpi, ok, err)
	}
}

func TestEncode_JPEGCarriesDPI(t *testing.T) {
	data, tagged, err := Encode(leftBlackRightWhite(32, 16), imaging.JPEG, domain.DefaultDPI)
	if err != nil {
		t.Fatalf("Encode 失败：%v", err)
	}
	if !tagged {
		t.Fatalf("JPEG 应写入 DPI")
	}

	dpi, ok, err := ReadDPI(data)
	if err != nil || !ok || dpi != domain.DefaultDPI {
		t.Fatalf("期望 DPI=%v，实际 %v ok=%v err=%v", domain.DefaultDPI, dpi, ok, err)
	}

	got, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("jpeg.Decode 失败：%v", err)
	}
	gb := got.Bounds()
	if gb.Dx() != 32 || gb.Dy() != 16 {
		t.Fatalf("尺寸不符合预期：%v", gb)
	}
}

func TestTagDPI_JPEGPatchesExistingJFIF(t *testing.T) {
	data, _, err := Encode(leftBlackRightWhite(8, 8), imaging.JPEG, domain.DPI{X: 72, Y: 96})
	if err != nil {
		t.Fatalf("Encode 失败：%v", err)
	}

	out, tagged, err := TagDPI(data, imaging.JPEG, domain.DefaultDPI)
	if err != nil || !tagged {
		t.Fatalf("TagDPI 失败：tagged=%v err=%v", tagged, err)
	}
	if len(out) != len(data) {
		t.Fatalf("已有 JFIF 时应原地改写，长度不应变化：%d -> %d", len(data), len(out))
	}
	dpi, ok, err := ReadDPI(out)
	if err != nil || !ok || dpi != domain.DefaultDPI {
		t.Fatalf("期望 DPI=%v，实际 %v ok=%v err=%v", domain.DefaultDPI, dpi, ok, err)
	}
}

func TestEncode_BMPCarriesDPI(t *testing.T) {
	data, tagged, err := Encode(leftBlackRightWhite(6, 3), imaging.BMP, domain.DefaultDPI)
	if err != nil {
		t.Fatalf("Encode 失败：%v", err)
	}
	if !tagged {
		t.Fatalf("BMP 应写入 DPI")
	}
	dpi, ok, err := ReadDPI(data)
	if err != nil || !ok || dpi != domain.DefaultDPI {
		t.Fatalf("期望 DPI=%v，实际 %v ok=%v err=%v", domain.DefaultDPI, dpi, ok, err)
	}
}

func TestEncode_GIFDropsDPI(t *testing.T) {
	data, tagged, err := Encode(leftBlackRightWhite(6, 3), imaging.GIF, domain.DefaultDPI)
	if err != nil {
		t.Fatalf("Encode 失败：%v", err)
	}
	if tagged {
		t.Fatalf("GIF 不支持 DPI，应返回 tagged=false")
	}
	if len(data) == 0 {
		t.Fatalf("GIF 编码结果不应为空")
	}
}

func TestTagDPI_RejectsInvalid(t *testing.T) {
	if _, _, err := TagDPI([]byte("x"), imaging.PNG, domain.DPI{}); err == nil {
		t.Fatalf("DPI=0 应报错")
	}
	if _, _, err := TagDPI([]byte("not png"), imaging.PNG, domain.DefaultDPI); err == nil {
		t.Fatalf("非 PNG 数据应报错")
	}
}
