package domain

import (
	"path/filepath"
	"strings"
)

// PathParts 是输入文件名拆出的 stem 与扩展名（扩展名含前导 '.'，可能为空）。
type PathParts struct {
	Stem string
	Ext  string
}

// ParsePathParts 从输入路径取出 stem/ext。
//
// 扩展名规则：从文件名最后一个 '.' 开始，且该 '.' 既不是首字符也不是末字符。
// 例如 ".bashrc" 没有扩展名，"foo." 也没有；"a.tar.gz" 的扩展名是 ".gz"。
func ParsePathParts(p string) PathParts {
	name := filepath.Base(p)
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return PathParts{Stem: name}
	}
	return PathParts{Stem: name[:i], Ext: name[i:]}
}

// FileName 返回 side 对应的输出文件名："{stem}_{side}{ext}"。
func (pp PathParts) FileName(side Side) string {
	return pp.Stem + "_" + string(side) + pp.Ext
}

// OutputPath 把输出文件名拼到 dir 下；dir 原样使用，不校验是否存在。
func (pp PathParts) OutputPath(dir string, side Side) string {
	return filepath.Join(dir, pp.FileName(side))
}
