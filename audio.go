// audio.go - AudioSink contract (§6 "Audio")
//
// Channel synthesis is out of scope (§1); the core owns only the
// register-write passthrough memory.go's Write calls under a lock when
// a guest store lands in 0xFF10-0xFF3F. Grounded on video_interface.go's
// interface-plus-backend-selector shape, mirrored here for audio.

package jit

// AudioSink is implemented by the channel synthesizer. ChannelUpdate is
// called from inside memory_write for every store in 0xFF10-0xFF3F,
// bracketed by Lock/Unlock (§4.5, §5).
type AudioSink interface {
	ChannelUpdate(addr uint16, value byte)
	Lock()
	Unlock()
}

// AudioBackend names the concrete AudioSink implementations this repo
// ships, mirroring audio_chip.go's backend-selector constants.
type AudioBackend int

const (
	AudioBackendHeadless AudioBackend = iota
	AudioBackendOto
)

// NewAudioSink constructs an AudioSink for the given backend.
func NewAudioSink(backend AudioBackend) (AudioSink, error) {
	switch backend {
	case AudioBackendHeadless:
		return NewHeadlessAudioSink(), nil
	case AudioBackendOto:
		return NewOtoAudioSink()
	}
	return nil, &EmitError{Detail: "unknown audio backend"}
}
