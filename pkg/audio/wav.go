package audio

import (
	"bytes"
	"fmt"
	"io"

	wav "github.com/youpy/go-wav"
)

// EncodeWAV renders float32 samples as a 16-bit PCM mono WAV file
// (44-byte RIFF/WAVE header plus sample_count*2 data bytes, little-endian).
// Samples are clamped to [-1, 1] before scaling to int16.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio: invalid sample rate %d", sampleRate)
	}
	wavSamples := make([]wav.Sample, len(samples))
	for i, v := range samples {
		if v < -1 {
			v = -1
		}
		if v > 1 {
			v = 1
		}
		wavSamples[i] = wav.Sample{Values: [2]int{int(v * 32767), 0}}
	}
	var buf bytes.Buffer
	writer := wav.NewWriter(&buf, uint32(len(wavSamples)), 1, uint32(sampleRate), 16)
	if err := writer.WriteSamples(wavSamples); err != nil {
		return nil, fmt.Errorf("audio: write wav: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeWAV reads a mono or stereo WAV file back into float32 samples.
// Stereo input is averaged down to mono.
func DecodeWAV(r io.Reader) (samples []float32, sampleRate int, err error) {
	// The RIFF parser needs ReadAt; buffer the input to provide it.
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: read wav: %w", err)
	}
	reader := wav.NewReader(bytes.NewReader(raw))
	format, err := reader.Format()
	if err != nil {
		return nil, 0, fmt.Errorf("audio: wav format: %w", err)
	}
	channels := int(format.NumChannels)
	if channels < 1 || channels > 2 {
		return nil, 0, fmt.Errorf("audio: unsupported channel count %d", channels)
	}
	for {
		read, err := reader.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("audio: read wav samples: %w", err)
		}
		for _, s := range read {
			var v float64
			if channels == 1 {
				v = reader.FloatValue(s, 0)
			} else {
				v = (reader.FloatValue(s, 0) + reader.FloatValue(s, 1)) / 2
			}
			samples = append(samples, float32(v))
		}
	}
	return samples, int(format.SampleRate), nil
}
