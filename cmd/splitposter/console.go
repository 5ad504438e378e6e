package main

import (
	"fmt"
	"io"

	"github.com/talsania/maptoposter/internal/app/split"
	"github.com/talsania/maptoposter/internal/domain"
)

var _ split.Observer = (*console)(nil)

// console 把拆分事件渲染成面向用户的进度行（写 stdout）。
type console struct {
	w io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) OnDecoded(input string, width, height int) {
	fmt.Fprintf(c.w, "Original image: %dx%d pixels\n", width, height)
}

func (c *console) OnCropped(side domain.Side, width, height int) {
	fmt.Fprintf(c.w, "%s half: %dx%d pixels\n", sideTitle(side), width, height)
}

func (c *console) OnSaved(side domain.Side, path string) {
	// 第一行前空一行，把“保存结果”与尺寸信息分开。
	if side == domain.SideLeft {
		fmt.Fprintln(c.w)
	}
	fmt.Fprintf(c.w, "✓ Saved %s half: %s\n", side, path)
}

// OnDone 的比例说明只是描述性文字，不代表对输出尺寸做过校验。
func (c *console) OnDone(res domain.SplitResult) {
	fmt.Fprintf(c.w, "\nEach poster is now 5:7 ratio at %d DPI\n", res.DPI.X)
}

func sideTitle(side domain.Side) string {
	if side == domain.SideRight {
		return "Right"
	}
	return "Left"
}
