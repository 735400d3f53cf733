package stations

import (
	"encoding/binary"
	"log"
)

// PCMScale is the int16 → float divisor. 32767, not 32768: -32768 maps slightly below -1.
const PCMScale = 32767

type S2PCMToSamples struct{}

func NewS2PCMToSamples() *S2PCMToSamples { return &S2PCMToSamples{} }

// Run reads every byte pair as a little-endian int16 sample, RIFF header included.
// A trailing odd byte is dropped.
func (s *S2PCMToSamples) Run(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)

	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		samples[i] = float32(v) / PCMScale
	}

	log.Printf(
		"[S2][OK] samples=%d approx_sec=%.1f",
		n,
		float64(n)/16000,
	)

	return samples
}
