// cmd/gbjit - command-line front-end (§6 "Command-line interface")
//
// Grounded on main.go's hand-parsed os.Args loop: no flag package, just
// a manual scan for recognized switches followed by the positional ROM
// path, reporting usage errors the same fmt.Println+os.Exit(1) way.

package main

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	jit "github.com/gbz80jit/core"
)

func usage() {
	fmt.Println("Usage: gbjit [-O N|--opt-level=N] [-s N|--scale=N] rom.gb")
}

func main() {
	optLevel := 2
	scale := 4
	var romPath string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-O":
			i++
			if i >= len(args) {
				usage()
				os.Exit(1)
			}
			optLevel = parseIntClamped(args[i], 0, 3)
		case len(arg) > len("--opt-level=") && arg[:len("--opt-level=")] == "--opt-level=":
			optLevel = parseIntClamped(arg[len("--opt-level="):], 0, 3)
		case arg == "-s":
			i++
			if i >= len(args) {
				usage()
				os.Exit(1)
			}
			scale = parseIntClamped(args[i], 1, 8)
		case len(arg) > len("--scale=") && arg[:len("--scale=")] == "--scale=":
			scale = parseIntClamped(arg[len("--scale="):], 1, 8)
		case romPath == "":
			romPath = arg
		default:
			usage()
			os.Exit(1)
		}
	}

	if romPath == "" {
		usage()
		os.Exit(1)
	}

	if err := run(romPath, optLevel, scale); err != nil {
		fmt.Fprintf(os.Stderr, "gbjit: %v\n", err)
		os.Exit(1)
	}
}

func parseIntClamped(s string, lo, hi int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return lo
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// session bundles one loaded ROM's dispatcher and the state it owns, so
// a pasted ROM path (renderer_ebiten.go's clipboard hookup) can swap the
// running game out from under a window that stays open for the whole
// process lifetime.
type session struct {
	romPath string
	cart    *jit.Cartridge
	mem     *jit.Memory
	disp    *jit.Dispatcher
}

func run(romPath string, optLevel, scale int) error {
	renderer, err := jit.NewRenderer(jit.RendererBackendEbiten, new(byte))
	if err != nil {
		return err
	}
	if scaler, ok := renderer.(interface{ SetScale(int) }); ok {
		scaler.SetScale(scale)
	}
	audio, err := jit.NewAudioSink(jit.AudioBackendOto)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	cur, err := newSession(romPath, optLevel, renderer, audio)
	if err != nil {
		return err
	}
	go cur.disp.Run()

	if pasteable, ok := renderer.(interface {
		PastedPathCh() <-chan string
	}); ok {
		go func() {
			for path := range pasteable.PastedPathCh() {
				mu.Lock()
				prev := cur
				next, err := newSession(path, optLevel, renderer, audio)
				if err != nil {
					fmt.Fprintf(os.Stderr, "gbjit: could not load pasted ROM %q: %v\n", path, err)
					mu.Unlock()
					continue
				}
				cur = next
				mu.Unlock()

				prev.disp.Stop()
				saveSession(prev)
				go next.disp.Run()
				fmt.Printf("gbjit: switched to %q (%s)\n", next.cart.Title, next.cart.MBC)
			}
		}()
	}

	runner, ok := renderer.(interface{ Run() error })
	var runErr error
	if ok {
		runErr = runner.Run()
	} else {
		runErr = cur.disp.Run()
	}

	mu.Lock()
	final := cur
	mu.Unlock()
	final.disp.Stop()
	saveSession(final)

	return runErr
}

func newSession(romPath string, optLevel int, renderer jit.Renderer, audio jit.AudioSink) (*session, error) {
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return nil, &jit.OpenError{Path: romPath, Err: err}
	}

	cart, err := jit.ParseCartridge(rom)
	if err != nil {
		return nil, &jit.MapError{Path: romPath, Err: err}
	}
	if !cart.HeaderValid {
		fmt.Fprintf(os.Stderr, "gbjit: warning: %q has an invalid header checksum, continuing anyway\n", romPath)
	}
	fmt.Printf("gbjit: %q (%s, %d ROM bank(s), %d RAM bank(s))\n", cart.Title, cart.MBC, cart.ROMBanks, cart.RAMBanks)

	state := jit.NewGuestState()
	if keyer, ok := renderer.(interface{ SetKeys(*byte) }); ok {
		keyer.SetKeys(&state.Keys)
	}
	cache := jit.NewBlockCache(cart.ROMBanks)
	mem := jit.NewMemory(cart, &state.Keys, renderer, audio, cache)

	savePath := savePathFor(romPath)
	if saveData, err := os.ReadFile(savePath); err == nil {
		if err := jit.LoadSave(mem, cart, savePath, saveData); err != nil {
			fmt.Fprintf(os.Stderr, "gbjit: %v\n", err)
		}
	}

	emitter := jit.NewClosureEmitter()
	disp := jit.NewDispatcher(state, mem, cache, emitter, func(ly byte) {
		renderer.Lock()
		renderer.UpdateLine(ly, mem)
		renderer.Unlock()
	}, optLevel)

	return &session{romPath: romPath, cart: cart, mem: mem, disp: disp}, nil
}

func saveSession(s *session) {
	if err := writeSave(s.mem, s.cart, savePathFor(s.romPath)); err != nil {
		fmt.Fprintf(os.Stderr, "gbjit: %v\n", err)
	}
}

func writeSave(mem *jit.Memory, cart *jit.Cartridge, path string) error {
	if jit.ExpectedSaveSize(cart) == 0 {
		return nil
	}
	return os.WriteFile(path, mem.ExternalRAM(), 0o644)
}

func savePathFor(romPath string) string {
	for i := len(romPath) - 1; i >= 0 && romPath[i] != '/'; i-- {
		if romPath[i] == '.' {
			return romPath[:i] + ".sav"
		}
	}
	return romPath + ".sav"
}
