// renderer_headless.go - no-op Renderer for tests and cmd/gbconform
//
// Grounded on video_backend_headless.go's HeadlessVideoOutput: a
// frame-count-only stand-in satisfying the interface without a window.
// Unlike video_backend_headless.go this has no build tag: it's the
// explicit RendererBackendHeadless choice, always compiled so tests and
// cmd/gbconform can select it regardless of how the binary was built.

package jit

import "sync"

type HeadlessRenderer struct {
	mu         sync.Mutex
	LineCount  uint64
	LastLine   byte
}

func NewHeadlessRenderer() *HeadlessRenderer { return &HeadlessRenderer{} }

func (h *HeadlessRenderer) UpdateLine(ly byte, mem *Memory) {
	h.LineCount++
	h.LastLine = ly
}

func (h *HeadlessRenderer) Lock()   { h.mu.Lock() }
func (h *HeadlessRenderer) Unlock() { h.mu.Unlock() }
