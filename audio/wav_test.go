package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestBuildWAVLength(t *testing.T) {
	for _, n := range []int{0, 1, 2, 1023, 32000} {
		pcm := make([]byte, n)
		got := BuildWAV(pcm, SampleRate, Channels, BitsPerSample)
		if len(got) != WAVHeaderSize+n {
			t.Errorf("len(BuildWAV(%d bytes)) = %d, want %d", n, len(got), WAVHeaderSize+n)
		}
	}
}

func TestBuildWAVHeaderFields(t *testing.T) {
	pcm := make([]byte, 3200)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	wav := BuildWAV(pcm, SampleRate, Channels, BitsPerSample)

	f, err := ParseWAVHeader(wav)
	if err != nil {
		t.Fatal(err)
	}
	if f.SampleRate != 16000 || f.Channels != 1 || f.BitsPerSample != 16 {
		t.Errorf("format = {%d, %d, %d}, want {16000, 1, 16}", f.SampleRate, f.Channels, f.BitsPerSample)
	}
	if f.AudioFormat != 1 {
		t.Errorf("AudioFormat = %d, want 1 (PCM)", f.AudioFormat)
	}
	if f.ByteRate != 32000 {
		t.Errorf("ByteRate = %d, want 32000", f.ByteRate)
	}
	if f.BlockAlign != 2 {
		t.Errorf("BlockAlign = %d, want 2", f.BlockAlign)
	}
	if f.DataSize != uint32(len(pcm)) {
		t.Errorf("DataSize = %d, want %d", f.DataSize, len(pcm))
	}
	if riff := binary.LittleEndian.Uint32(wav[4:8]); riff != uint32(36+len(pcm)) {
		t.Errorf("RIFF size = %d, want %d", riff, 36+len(pcm))
	}
	if !bytes.Equal(wav[WAVHeaderSize:], pcm) {
		t.Error("samples were modified")
	}
}

func TestBuildWAVStereo(t *testing.T) {
	wav := BuildWAV(make([]byte, 8), 44100, 2, 16)
	f, err := ParseWAVHeader(wav)
	if err != nil {
		t.Fatal(err)
	}
	if f.ByteRate != 44100*2*2 || f.BlockAlign != 4 {
		t.Errorf("ByteRate=%d BlockAlign=%d, want %d 4", f.ByteRate, f.BlockAlign, 44100*4)
	}
}

func TestParseWAVHeaderRejectsGarbage(t *testing.T) {
	if _, err := ParseWAVHeader([]byte("short")); !errors.Is(err, ErrNotWAV) {
		t.Errorf("short input: err = %v, want ErrNotWAV", err)
	}
	if _, err := ParseWAVHeader(make([]byte, WAVHeaderSize)); !errors.Is(err, ErrNotWAV) {
		t.Errorf("zeroed header: err = %v, want ErrNotWAV", err)
	}
}
