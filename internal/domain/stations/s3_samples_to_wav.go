package stations

import (
	"bytes"
	"encoding/binary"
	"math"
)

const (
	DefaultSampleRate = 16000
	WAVHeaderSize     = 44
)

type S3SamplesToWAV struct {
	sampleRate int
}

func NewS3SamplesToWAV(sampleRate int) *S3SamplesToWAV {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &S3SamplesToWAV{sampleRate: sampleRate}
}

// Run writes mono PCM16 WAV. Samples are clamped to [-1, 1].
func (s *S3SamplesToWAV) Run(samples []float32) []byte {
	const (
		channels       = 1
		bitsPerSample  = 16
		bytesPerSample = bitsPerSample / 8
	)

	dataSize := len(samples) * bytesPerSample
	byteRate := s.sampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	buf := &bytes.Buffer{}
	buf.Grow(WAVHeaderSize + dataSize)

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(s.sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataSize))

	pcm := make([]byte, dataSize)
	for i, f := range samples {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(toPCM16(f)))
	}
	_, _ = buf.Write(pcm)

	return buf.Bytes()
}

func toPCM16(f float32) int16 {
	if f != f { // NaN
		return 0
	}
	if f > 1 {
		f = 1
	} else if f < -1 {
		f = -1
	}
	return int16(math.Round(float64(f) * PCMScale))
}
