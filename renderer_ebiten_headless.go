//go:build headless

// renderer_ebiten_headless.go - headless-build stand-in for NewEbitenRenderer
//
// Mirrors video_backend_headless.go's pattern of swapping in a stub
// under the same function name for the headless build tag.

package jit

func NewEbitenRenderer(keys *byte) (*HeadlessRenderer, error) {
	return NewHeadlessRenderer(), nil
}
