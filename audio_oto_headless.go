//go:build headless

// audio_oto_headless.go - headless-build stand-in for NewOtoAudioSink
//
// Mirrors audio_backend_headless.go's pattern: the headless build tag
// swaps in a stub under the same function name so audio.go's
// unconditional call site compiles either way.

package jit

func NewOtoAudioSink() (*HeadlessAudioSink, error) {
	return NewHeadlessAudioSink(), nil
}
