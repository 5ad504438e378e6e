package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是工作目录下可选的配置文件名。
	FileName = "splitposter.json"
	// DefaultOutputDir 是输出目录的内置默认值（相对工作目录）。
	DefaultOutputDir = "posters"
	// DefaultDPI 是写入两半的固定 DPI。
	DefaultDPI = 600
	// MaxDPI 受 JFIF 密度字段（uint16）限制。
	MaxDPI = 65535
)

// FileConfig 对应 splitposter.json 的解析结构。
// 只有两项可配：输出目录与 DPI 常量；CLI 不暴露任何参数。
type FileConfig struct {
	OutputDir *string `json:"output_dir"`
	DPI       int     `json:"dpi"`
}

// EffectiveConfig 是合并默认值后的最终配置。
type EffectiveConfig struct {
	OutputDir string
	DPI       int
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
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

// Default 返回不读任何文件时的配置。
func Default() EffectiveConfig {
	return EffectiveConfig{OutputDir: DefaultOutputDir, DPI: DefaultDPI}
}

// LoadEffective 读取 <cwd>/splitposter.json（可选）并与默认值合并。
//
// 规则（固定）：
// - 文件不存在：直接使用默认值
// - output_dir：出现则不能为空白；原样使用（相对路径相对进程工作目录），不校验是否存在
// - dpi：0 表示未指定；否则必须在 [1, 65535]
func LoadEffective(cwd string) (EffectiveConfig, error) {
	cfgPath := filepath.Join(cwd, FileName)

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return Default(), nil
	}
	return merge(fc, cfgPath)
}

func merge(fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	eff := Default()

	if fc.OutputDir != nil {
		dir := strings.TrimSpace(*fc.OutputDir)
		if dir == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("output_dir 不能为空")}
		}
		eff.OutputDir = filepath.Clean(dir)
	}

	if fc.DPI != 0 {
		if fc.DPI < 1 || fc.DPI > MaxDPI {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("dpi 必须在 [1, %d]，实际是 %d", MaxDPI, fc.DPI)}
		}
		eff.DPI = fc.DPI
	}

	return eff, nil
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
