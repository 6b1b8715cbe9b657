package ai

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"
)

const mimeWAV = "audio/wav"

// wavFromPCM wraps 16-bit little-endian mono PCM in a RIFF/WAVE header.
func wavFromPCM(pcm []byte, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)

	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// pcmSampleRate extracts the rate from a MIME type such as
// "audio/L16;codec=pcm;rate=24000". ok is false for non-PCM types.
func pcmSampleRate(mimeType string) (rate int, ok bool) {
	parts := strings.Split(mimeType, ";")
	if len(parts) == 0 || !strings.EqualFold(strings.TrimSpace(parts[0]), "audio/L16") {
		return 0, false
	}

	rate = 24000
	for _, p := range parts[1:] {
		key, value, found := strings.Cut(strings.TrimSpace(p), "=")
		if !found || key != "rate" {
			continue
		}
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			rate = n
		}
	}

	return rate, true
}
