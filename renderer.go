// renderer.go - Renderer contract (§6 "Renderer")
//
// The pixel compositor itself (background/window/sprite priority) is an
// external collaborator out of scope for this core (§1); what the core
// owns is the call site the scheduler (scheduler.go) invokes once per
// visible scanline, under a lock, and the lifecycle around it. Grounded
// on video_interface.go's VideoOutput interface and backend-selector
// function.

package jit

// Renderer is implemented by the pixel compositor. UpdateLine is called
// by the scheduler for every line with LY<144 (§4.6 rule 3), under
// Lock/Unlock, mirroring the real renderer/CPU-thread handoff in §5.
type Renderer interface {
	UpdateLine(ly byte, mem *Memory)
	Lock()
	Unlock()
}

// RendererBackend names the concrete Renderer implementations this repo
// ships, mirroring video_interface.go's VIDEO_BACKEND_EBITEN constant.
type RendererBackend int

const (
	RendererBackendHeadless RendererBackend = iota
	RendererBackendEbiten
)

// NewRenderer constructs a Renderer for the given backend, following
// video_interface.go's NewVideoOutput(backend int) shape. keys should
// point at the owning GuestState's Keys field, the same aliasing
// convention memory.go uses for joypad reads — the ebiten backend writes
// through it from its input callback; the headless backend ignores it.
func NewRenderer(backend RendererBackend, keys *byte) (Renderer, error) {
	switch backend {
	case RendererBackendHeadless:
		return NewHeadlessRenderer(), nil
	case RendererBackendEbiten:
		return NewEbitenRenderer(keys)
	}
	return nil, &EmitError{Detail: "unknown renderer backend"}
}
