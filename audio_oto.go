//go:build !headless

// audio_oto.go - oto-backed AudioSink
//
// Grounded on audio_backend_oto.go's OtoPlayer: an oto.Context plus a
// pull-style Read([]byte) callback feeding the device. The actual
// channel synthesizer is out of scope (§1) — this backend owns the
// register-write passthrough and a silent PCM stream so the device
// stays open and the lock/unlock discipline around ChannelUpdate is
// exercised exactly as the spec describes it, ready for a real
// synthesizer to replace OtoAudioSink.Read's silence generator.

package jit

import (
	"sync"

	"github.com/ebitengine/oto/v3"
)

const otoSampleRate = 44100

// OtoAudioSink plays a continuous silent stream through oto while
// recording the latest value written to each audio register, mirroring
// audio_backend_oto.go's ring-buffer-fed player without the channel
// synthesis that lives outside this core's scope.
type OtoAudioSink struct {
	mu   sync.Mutex
	ctx  *oto.Context
	play *oto.Player

	regs [0xFF40 - 0xFF10]byte
}

func NewOtoAudioSink() (*OtoAudioSink, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   otoSampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, err
	}
	<-ready

	sink := &OtoAudioSink{ctx: ctx}
	sink.play = ctx.NewPlayer(sink)
	sink.play.Play()
	return sink, nil
}

// Read implements io.Reader for oto's pull model. With no synthesizer
// wired in, it feeds silence so the device stream never underruns.
func (o *OtoAudioSink) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func (o *OtoAudioSink) ChannelUpdate(addr uint16, value byte) {
	if addr >= 0xFF10 && addr < 0xFF40 {
		o.regs[addr-0xFF10] = value
	}
}

func (o *OtoAudioSink) Lock()   { o.mu.Lock() }
func (o *OtoAudioSink) Unlock() { o.mu.Unlock() }

// Close stops playback and releases the device.
func (o *OtoAudioSink) Close() {
	if o.play != nil {
		o.play.Close()
	}
}
