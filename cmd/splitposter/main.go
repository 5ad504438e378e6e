package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/talsania/maptoposter/internal/app/split"
	"github.com/talsania/maptoposter/internal/config"
	"github.com/talsania/maptoposter/internal/domain"
	"github.com/talsania/maptoposter/internal/logging"
)

func main() {
	logger := logging.New(os.Getenv(logging.EnvLevel))
	undo := zap.ReplaceGlobals(logger)

	code := runCmd(os.Args[1:], os.Stdout, os.Stderr)

	_ = logger.Sync()
	undo()
	if code != 0 {
		os.Exit(code)
	}
}

// runCmd 返回进程退出码。
//
// 约定：
// - 参数个数 != 1：打印用法到 stdout，退出码 1，不触碰文件系统
// - 输入不存在：打印错误到 stdout，退出码 1
// - 配置/解码/写入失败：错误写 stderr，退出码 1
func runCmd(args []string, stdout, stderr io.Writer) int {
	log := zap.L().Named("cli")
	if len(args) != 1 {
		log.Debug("bad arguments", zap.String("code", domain.ErrCodeUsage), zap.Int("count", len(args)))
		printUsage(stdout)
		return 1
	}

	input := args[0]
	if _, err := os.Stat(input); err != nil {
		log.Debug("input not found", zap.String("code", domain.ErrCodeNotFound), zap.Error(err))
		fmt.Fprintf(stdout, "Error: File '%s' not found\n", input)
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	eff, err := config.LoadEffective(cwd)
	if err != nil {
		log.Debug("config rejected", zap.String("code", config.Code(err)), zap.Error(err))
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	_, err = split.Run(input, split.Options{
		OutputDir: eff.OutputDir,
		DPI:       domain.DPI{X: eff.DPI, Y: eff.DPI},
	}, newConsole(stdout))
	if err != nil {
		log.Debug("split failed", zap.String("code", split.Code(err)), zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: splitposter <input_image_path>
Example: splitposter posters/ahmedabad_midnight_blue_20260218_123456.png
`)
}
