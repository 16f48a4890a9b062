// Package encoder compresses finalized recordings for upload.
package encoder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const (
	BlockSize     = 4096
	BitsPerSample = 16
)

// FLAC encodes little-endian PCM16 mono samples into a complete FLAC stream.
// A trailing odd byte is dropped.
func FLAC(pcm []byte, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, errors.New("flac: sample rate must be positive")
	}
	nSamples := len(pcm) / 2

	var buf bytes.Buffer
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     1,
		BitsPerSample: BitsPerSample,
		NSamples:      0,
	}
	enc, err := flac.NewEncoder(&buf, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)

	block := make([]int32, 0, BlockSize)
	for i := 0; i < nSamples; i += BlockSize {
		end := min(i+BlockSize, nSamples)
		block = block[:0]
		for j := i; j < end; j++ {
			block = append(block, int32(int16(binary.LittleEndian.Uint16(pcm[2*j:]))))
		}
		if err := writeBlock(enc, block, sampleRate); err != nil {
			enc.Close()
			return nil, err
		}
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing flac encoder: %w", err)
	}
	return buf.Bytes(), nil
}

func writeBlock(enc *flac.Encoder, samples []int32, sampleRate int) error {
	subframe := &frame.Subframe{
		SubHeader: frame.SubHeader{
			Pred: frame.PredVerbatim,
		},
		Samples:  samples,
		NSamples: len(samples),
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(samples)),
			SampleRate:    uint32(sampleRate),
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{subframe},
	}

	if err := enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	return nil
}
