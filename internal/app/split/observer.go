package split

import "github.com/talsania/maptoposter/internal/domain"

// Observer 把“进度信息”从拆分流程中解耦出来。
//
// 约束：split 包只发事件，不做任何输出；如何展示由 CLI 决定。
// 事件严格按顺序发出：OnDecoded → OnCropped(left) → OnCropped(right)
// → OnSaved(left) → OnSaved(right) → OnDone。失败时后续事件不再发出。
type Observer interface {
	OnDecoded(input string, width, height int)
	OnCropped(side domain.Side, width, height int)
	OnSaved(side domain.Side, path string)
	OnDone(res domain.SplitResult)
}

type nopObserver struct{}

func (nopObserver) OnDecoded(string, int, int) {}
func (nopObserver) OnCropped(domain.Side, int, int) {}
func (nopObserver) OnSaved(domain.Side, string) {}
func (nopObserver) OnDone(domain.SplitResult) {}
