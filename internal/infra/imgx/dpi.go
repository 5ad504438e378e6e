package imgx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/disintegration/imaging"

	"github.com/talsania/maptoposter/internal/domain"
)

const metersPerInch = 0.0254

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	jfifIdent    = []byte("JFIF\x00")
)

// TagDPI 在已编码的图片数据中写入 DPI 元数据。
//
// - PNG：移除已有 pHYs，并在 IHDR 之后插入新的 pHYs（单位：米）
// - JPEG：SOI 之后若已有 JFIF APP0 则改写密度字段，否则插入一个
// - BMP：改写 BITMAPINFOHEADER 的 XPelsPerMeter/YPelsPerMeter
// - 其它格式：原样返回，tagged=false
func TagDPI(data []byte, format imaging.Format, dpi domain.DPI) ([]byte, bool, error) {
	if dpi.X <= 0 || dpi.Y <= 0 {
		return nil, false, fmt.Errorf("DPI 无效：%dx%d", dpi.X, dpi.Y)
	}

	switch format {
	case imaging.PNG:
		b, err := setPNGDPI(data, dpi)
		return b, err == nil, err
	case imaging.JPEG:
		b, err := setJPEGDPI(data, dpi)
		return b, err == nil, err
	case imaging.BMP:
		b, err := setBMPDPI(data, dpi)
		return b, err == nil, err
	default:
		return data, false, nil
	}
}

// ReadDPI 读出 PNG/JPEG/BMP 数据中的 DPI；没有 DPI 元数据时 ok=false。
func ReadDPI(data []byte) (dpi domain.DPI, ok bool, err error) {
	switch {
	case bytes.HasPrefix(data, pngSignature):
		return readPNGDPI(data)
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8:
		return readJPEGDPI(data)
	case len(data) >= 2 && data[0] == 'B' && data[1] == 'M':
		return readBMPDPI(data)
	default:
		return domain.DPI{}, false, errors.New("无法识别的图片数据")
	}
}

func dpiToPPM(d int) uint32 {
	return uint32(math.Round(float64(d) / metersPerInch))
}

func ppmToDPI(ppm uint32) int {
	return int(math.Round(float64(ppm) * metersPerInch))
}

// --- PNG ---

type pngChunk struct {
	typ  string
	data []byte
	raw  []byte // length + type + data + crc
}

func splitPNGChunks(data []byte) ([]pngChunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, errors.New("不是 PNG 数据")
	}
	rest := data[len(pngSignature):]
	var chunks []pngChunk
	for len(rest) > 0 {
		if len(rest) < 12 {
			return nil, errors.New("PNG chunk 截断")
		}
		n := binary.BigEndian.Uint32(rest[:4])
		if uint64(n)+12 > uint64(len(rest)) {
			return nil, errors.New("PNG chunk 截断")
		}
		size := int(n) + 12
		chunks = append(chunks, pngChunk{
			typ:  string(rest[4:8]),
			data: rest[8 : 8+int(n)],
			raw:  rest[:size],
		})
		rest = rest[size:]
	}
	if len(chunks) == 0 || chunks[0].typ != "IHDR" {
		return nil, errors.New("PNG 缺少 IHDR")
	}
	return chunks, nil
}

func setPNGDPI(data []byte, dpi domain.DPI) ([]byte, error) {
	chunks, err := splitPNGChunks(data)
	if err != nil {
		return nil, err
	}

	phys := make([]byte, 9)
	binary.BigEndian.PutUint32(phys[0:4], dpiToPPM(dpi.X))
	binary.BigEndian.PutUint32(phys[4:8], dpiToPPM(dpi.Y))
	phys[8] = 1 // unit: metre

	out := make([]byte, 0, len(data)+12+len(phys))
	out = append(out, pngSignature...)
	for i, c := range chunks {
		if c.typ == "pHYs" {
			continue
		}
		out = append(out, c.raw...)
		if i == 0 {
			// pHYs 必须出现在第一个 IDAT 之前；紧跟 IHDR 最简单。
			out = appendPNGChunk(out, "pHYs", phys)
		}
	}
	return out, nil
}

func appendPNGChunk(out []byte, typ string, data []byte) []byte {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	out = append(out, hdr[:]...)
	out = append(out, data...)

	crc := crc32.NewIEEE()
	_, _ = crc.Write(hdr[4:])
	_, _ = crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	return append(out, sum[:]...)
}

func readPNGDPI(data []byte) (domain.DPI, bool, error) {
	chunks, err := splitPNGChunks(data)
	if err != nil {
		return domain.DPI{}, false, err
	}
	for _, c := range chunks {
		if c.typ != "pHYs" {
			continue
		}
		if len(c.data) != 9 {
			return domain.DPI{}, false, errors.New("pHYs 长度无效")
		}
		if c.data[8] != 1 {
			// unit=0 只表示像素宽高比，没有绝对分辨率。
			return domain.DPI{}, false, nil
		}
		return domain.DPI{
			X: ppmToDPI(binary.BigEndian.Uint32(c.data[0:4])),
			Y: ppmToDPI(binary.BigEndian.Uint32(c.data[4:8])),
		}, true, nil
	}
	return domain.DPI{}, false, nil
}

// --- JPEG ---

// jfifAt 判断 data[off:] 是否是一个 JFIF APP0 段，返回段起点（含 marker）。
func jfifAt(data []byte, off int) bool {
	if len(data) < off+18 {
		return false
	}
	if data[off] != 0xFF || data[off+1] != 0xE0 {
		return false
	}
	segLen := int(binary.BigEndian.Uint16(data[off+2 : off+4]))
	if segLen < 16 || off+2+segLen > len(data) {
		return false
	}
	return bytes.Equal(data[off+4:off+9], jfifIdent)
}

func setJPEGDPI(data []byte, dpi domain.DPI) ([]byte, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, errors.New("不是 JPEG 数据")
	}
	if dpi.X > math.MaxUint16 || dpi.Y > math.MaxUint16 {
		return nil, fmt.Errorf("JPEG 密度超出范围：%dx%d", dpi.X, dpi.Y)
	}

	// 段布局：FFE0 len(2) "JFIF\0" version(2) units(1) Xdensity(2) Ydensity(2) Xthumb(1) Ythumb(1)
	if jfifAt(data, 2) {
		out := append([]byte(nil), data...)
		out[13] = 1
		binary.BigEndian.PutUint16(out[14:16], uint16(dpi.X))
		binary.BigEndian.PutUint16(out[16:18], uint16(dpi.Y))
		return out, nil
	}

	app0 := make([]byte, 18)
	app0[0], app0[1] = 0xFF, 0xE0
	binary.BigEndian.PutUint16(app0[2:4], 16)
	copy(app0[4:9], jfifIdent)
	app0[9], app0[10] = 1, 1 // JFIF 1.01
	app0[11] = 1             // units: dots per inch
	binary.BigEndian.PutUint16(app0[12:14], uint16(dpi.X))
	binary.BigEndian.PutUint16(app0[14:16], uint16(dpi.Y))

	out := make([]byte, 0, len(data)+len(app0))
	out = append(out, data[:2]...)
	out = append(out, app0...)
	out = append(out, data[2:]...)
	return out, nil
}

func readJPEGDPI(data []byte) (domain.DPI, bool, error) {
	if !jfifAt(data, 2) {
		return domain.DPI{}, false, nil
	}
	x := int(binary.BigEndian.Uint16(data[14:16]))
	y := int(binary.BigEndian.Uint16(data[16:18]))
	switch data[13] {
	case 1:
		return domain.DPI{X: x, Y: y}, true, nil
	case 2:
		// dots per cm
		return domain.DPI{X: int(math.Round(float64(x) * 2.54)), Y: int(math.Round(float64(y) * 2.54))}, true, nil
	default:
		return domain.DPI{}, false, nil
	}
}

// --- BMP ---

const (
	bmpFileHeaderLen = 14
	bmpInfoHeaderLen = 40
	bmpXPPMOffset    = bmpFileHeaderLen + 24
	bmpYPPMOffset    = bmpFileHeaderLen + 28
)

func checkBMP(data []byte) error {
	if len(data) < bmpFileHeaderLen+bmpInfoHeaderLen || data[0] != 'B' || data[1] != 'M' {
		return errors.New("不是 BMP 数据")
	}
	if binary.LittleEndian.Uint32(data[14:18]) < bmpInfoHeaderLen {
		return errors.New("BMP 头不含分辨率字段")
	}
	return nil
}

func setBMPDPI(data []byte, dpi domain.DPI) ([]byte, error) {
	if err := checkBMP(data); err != nil {
		return nil, err
	}
	out := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(out[bmpXPPMOffset:], dpiToPPM(dpi.X))
	binary.LittleEndian.PutUint32(out[bmpYPPMOffset:], dpiToPPM(dpi.Y))
	return out, nil
}

func readBMPDPI(data []byte) (domain.DPI, bool, error) {
	if err := checkBMP(data); err != nil {
		return domain.DPI{}, false, err
	}
	x := binary.LittleEndian.Uint32(data[bmpXPPMOffset:])
	y := binary.LittleEndian.Uint32(data[bmpYPPMOffset:])
	if x == 0 || y == 0 {
		return domain.DPI{}, false, nil
	}
	return domain.DPI{X: ppmToDPI(x), Y: ppmToDPI(y)}, true, nil
}
