package runner

import (
	"context"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/oldbird-go/internal/errors"
)

// ChunkCallback receives one chunk of mono samples scaled to [-1, 1].
type ChunkCallback func(samples []float32) error

// FeedWAV streams a WAV recording through the callback in chunks of
// chunkSize samples. Recordings are expected to be mono at the given
// sample rate; the BirdVox dataset is. A recording at any other rate
// is rejected, since staged clip indices are converted back to seconds
// with the configured rate and a mismatch would silently shift every
// detection time. Returns the total number of samples fed.
func FeedWAV(ctx context.Context, filePath string, sampleRate, chunkSize int, callback ChunkCallback) (int64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, errors.New(fmt.Errorf("failed to open recording: %w", err)).
			Component("runner").
			Category(errors.CategoryFileIO).
			FileContext(filePath).
			Build()
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return 0, errors.Newf("input is not a valid WAV audio file").
			Component("runner").
			Category(errors.CategoryAudio).
			FileContext(filePath).
			Build()
	}
	if decoder.NumChans != 1 {
		return 0, errors.Newf("expected mono recording, got %d channels", decoder.NumChans).
			Component("runner").
			Category(errors.CategoryAudio).
			FileContext(filePath).
			Build()
	}
	if int(decoder.SampleRate) != sampleRate {
		return 0, errors.Newf("expected sample rate %d Hz, got %d Hz", sampleRate, decoder.SampleRate).
			Component("runner").
			Category(errors.CategoryAudio).
			FileContext(filePath).
			Build()
	}

	divisor, err := sampleDivisor(int(decoder.BitDepth))
	if err != nil {
		return 0, err
	}

	buf := &audio.IntBuffer{
		Data: make([]int, chunkSize),
		Format: &audio.Format{
			SampleRate:  int(decoder.SampleRate),
			NumChannels: int(decoder.NumChans),
		},
	}

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return total, fmt.Errorf("reading samples: %w", err)
		}
		if n == 0 {
			break
		}

		chunk := make([]float32, n)
		for i, sample := range buf.Data[:n] {
			chunk[i] = float32(sample) / divisor
		}
		if err := callback(chunk); err != nil {
			return total, err
		}
		total += int64(n)
	}

	return total, nil
}

func sampleDivisor(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16:
		return 32768, nil
	case 24:
		return 8388608, nil
	case 32:
		return 2147483648, nil
	default:
		return 0, errors.Newf("unsupported bit depth: %d", bitDepth).
			Component("runner").
			Category(errors.CategoryAudio).
			Build()
	}
}
