//go:build !headless

// renderer_ebiten.go - ebiten-backed Renderer
//
// Grounded on video_backend_ebiten.go's EbitenOutput: an ebiten.Game
// implementation owning a window, a frame buffer, and key-state
// tracking via inpututil, plus the same clipboard-paste hookup. The
// pixel compositor itself (background/window/sprite priority) is an
// external collaborator out of scope for this core (§1) — UpdateLine
// here only exercises the per-scanline call site and key-to-joypad
// wiring the spec assigns to this contract; a real compositor would
// replace the placeholder row fill below with actual pixel fetch.

package jit

import (
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"
)

const (
	gbScreenW = 160
	gbScreenH = 144
)

// EbitenRenderer owns the display window and the one cross-thread touch
// point for input: Update writes into the GuestState.Keys byte
// the dispatcher's memory map reads from under no lock (§5).
type EbitenRenderer struct {
	mu          sync.Mutex
	frameBuffer [gbScreenW * gbScreenH * 4]byte
	image       *ebiten.Image

	keys       *byte
	fullscreen bool

	clipboardOK bool
	// pastedROMPath receives a path whenever the user pastes one with
	// ctrl+shift+V, mirroring video_backend_ebiten.go's clipboard
	// paste hookup; cmd/gbjit reads PastedPathCh() to hot-swap the
	// running ROM while the window stays open.
	pastedROMPath chan string

	scale int
}

func NewEbitenRenderer(keys *byte) (*EbitenRenderer, error) {
	r := &EbitenRenderer{keys: keys, pastedROMPath: make(chan string, 1), scale: 4}
	r.image = ebiten.NewImage(gbScreenW, gbScreenH)
	ebiten.SetWindowSize(gbScreenW*r.scale, gbScreenH*r.scale)
	ebiten.SetWindowTitle("gbz80jit")
	ebiten.SetWindowResizable(true)
	r.clipboardOK = clipboard.Init() == nil
	return r, nil
}

// SetScale resizes the window to an integer multiple of the Game Boy's
// 160x144 resolution; cmd/gbjit calls this once from its -s/--scale flag.
func (r *EbitenRenderer) SetScale(scale int) {
	r.scale = scale
	ebiten.SetWindowSize(gbScreenW*scale, gbScreenH*scale)
}

// SetKeys redirects key-state writes at a new GuestState's Keys field,
// letting one window outlive the ROM session it started with (the
// clipboard-paste hot-swap path in cmd/gbjit).
func (r *EbitenRenderer) SetKeys(keys *byte) {
	r.mu.Lock()
	r.keys = keys
	r.mu.Unlock()
}

// PastedPathCh exposes the clipboard-paste channel to cmd/gbjit.
func (r *EbitenRenderer) PastedPathCh() <-chan string { return r.pastedROMPath }

// UpdateLine fills one scanline of the display framebuffer. The real
// pixel values (background/window/sprite compositing) come from the
// external compositor this core never implements; this placeholder
// renders LCDC's on/off state as a flat row so the window reflects
// whether the PPU is enabled at all.
func (r *EbitenRenderer) UpdateLine(ly byte, mem *Memory) {
	if ly >= gbScreenH {
		return
	}
	shade := byte(0xFF)
	if mem.IOReg(0xFF40)&0x80 == 0 { // LCDC bit 7: LCD/PPU enable
		shade = 0x00
	}
	row := int(ly) * gbScreenW * 4
	for x := 0; x < gbScreenW; x++ {
		off := row + x*4
		r.frameBuffer[off] = shade
		r.frameBuffer[off+1] = shade
		r.frameBuffer[off+2] = shade
		r.frameBuffer[off+3] = 0xFF
	}
}

func (r *EbitenRenderer) Lock()   { r.mu.Lock() }
func (r *EbitenRenderer) Unlock() { r.mu.Unlock() }

// keyBindings implements §6's mapping: X->A, Z->B, arrows->D-pad,
// Enter->Start, Backspace->Select, Escape->quit (handled in Update, which
// ends the game loop), Alt+Enter toggles fullscreen.
var keyBindings = map[ebiten.Key]KeyBit{
	ebiten.KeyX:         KeyA,
	ebiten.KeyZ:         KeyB,
	ebiten.KeyArrowUp:    KeyUp,
	ebiten.KeyArrowDown:  KeyDown,
	ebiten.KeyArrowLeft:  KeyLeft,
	ebiten.KeyArrowRight: KeyRight,
	ebiten.KeyEnter:      KeyStart,
	ebiten.KeyBackspace:  KeySelect,
}

// Update implements ebiten.Game: poll every bound key each frame and
// latch GuestState.Keys accordingly (the same plain-byte, no-lock
// convention documented on GuestState.KeyDown/KeyUp).
func (r *EbitenRenderer) Update() error {
	r.mu.Lock()
	keys := r.keys
	r.mu.Unlock()

	if keys != nil {
		for key, bit := range keyBindings {
			if ebiten.IsKeyPressed(key) {
				*keys |= byte(bit)
			} else {
				*keys &^= byte(bit)
			}
		}
	}
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) && inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		r.fullscreen = !r.fullscreen
		ebiten.SetFullscreen(r.fullscreen)
	}
	if r.clipboardOK && ebiten.IsKeyPressed(ebiten.KeyControl) && ebiten.IsKeyPressed(ebiten.KeyShift) &&
		inpututil.IsKeyJustPressed(ebiten.KeyV) {
		if path := strings.TrimSpace(string(clipboard.Read(clipboard.FmtText))); path != "" {
			select {
			case r.pastedROMPath <- path:
			default:
			}
		}
	}
	return nil
}

func (r *EbitenRenderer) Draw(screen *ebiten.Image) {
	r.mu.Lock()
	r.image.WritePixels(r.frameBuffer[:])
	r.mu.Unlock()
	opts := &ebiten.DrawImageOptions{}
	sx := float64(screen.Bounds().Dx()) / gbScreenW
	sy := float64(screen.Bounds().Dy()) / gbScreenH
	opts.GeoM.Scale(sx, sy)
	screen.DrawImage(r.image, opts)
}

func (r *EbitenRenderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Run starts the ebiten game loop; it blocks until the window closes or
// RunGame returns an error, matching ebiten's ownership of the main
// thread on most platforms. cmd/gbjit drives the dispatcher on a
// separate goroutine while this call owns the main thread, consistent
// with §5's two-thread model.
func (r *EbitenRenderer) Run() error {
	return ebiten.RunGame(r)
}
