// audio_headless.go - no-op AudioSink for tests and cmd/gbconform
//
// Grounded on audio_backend_headless.go's headless stand-in: the same
// "satisfy the interface, do nothing" shape, retargeted at AudioSink.

package jit

import "sync"

// HeadlessAudioSink records register writes (for tests asserting P2-style
// write sequences) but never touches a real audio device.
type HeadlessAudioSink struct {
	mu     sync.Mutex
	Writes []HeadlessAudioWrite
}

type HeadlessAudioWrite struct {
	Addr  uint16
	Value byte
}

func NewHeadlessAudioSink() *HeadlessAudioSink { return &HeadlessAudioSink{} }

func (h *HeadlessAudioSink) ChannelUpdate(addr uint16, value byte) {
	h.Writes = append(h.Writes, HeadlessAudioWrite{Addr: addr, Value: value})
}

func (h *HeadlessAudioSink) Lock()   { h.mu.Lock() }
func (h *HeadlessAudioSink) Unlock() { h.mu.Unlock() }
