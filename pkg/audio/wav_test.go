package audio_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/MrWong99/dictsy/pkg/audio"
)

func TestEncodeWAV_RoundTrip(t *testing.T) {
	t.Parallel()

	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	f := audio.Format{SampleRate: 16000, Channels: 1}
	wav := audio.EncodeWAV(pcm, f)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("len = %d, want %d", len(wav), 44+len(pcm))
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 32000 {
		t.Errorf("byte rate = %d, want 32000", got)
	}

	info, err := audio.ParseWAV(wav)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 {
		t.Errorf("format = %dHz %dch, want 16000Hz 1ch", info.SampleRate, info.Channels)
	}
	if !bytes.Equal(wav[info.DataOffset:], pcm) {
		t.Errorf("data = %v, want %v", wav[info.DataOffset:], pcm)
	}
}

func TestParseWAV_SkipsExtraChunks(t *testing.T) {
	t.Parallel()

	header := audio.WAVHeader(audio.Format{SampleRate: 22050, Channels: 2}, 2)
	// Insert an odd-sized LIST chunk between fmt and data.
	var wav []byte
	wav = append(wav, header[:36]...)
	wav = append(wav, "LIST"...)
	wav = binary.LittleEndian.AppendUint32(wav, 3)
	wav = append(wav, 'a', 'b', 'c', 0) // padded to even
	wav = append(wav, header[36:]...)
	wav = append(wav, 0x07, 0x08)

	info, err := audio.ParseWAV(wav)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if info.SampleRate != 22050 || info.Channels != 2 {
		t.Errorf("format = %dHz %dch, want 22050Hz 2ch", info.SampleRate, info.Channels)
	}
	if got := wav[info.DataOffset:]; !bytes.Equal(got, []byte{0x07, 0x08}) {
		t.Errorf("data = %v", got)
	}
}

func TestParseWAV_Invalid(t *testing.T) {
	t.Parallel()

	notWave := make([]byte, 44)
	copy(notWave, "RIFF")
	copy(notWave[8:], "XXXX")

	noData := audio.WAVHeader(audio.Format{SampleRate: 16000, Channels: 1}, 0)[:36]

	tests := map[string][]byte{
		"too short": {0x01, 0x02},
		"not RIFF":  append([]byte("XXXX"), make([]byte, 40)...),
		"not WAVE":  notWave,
		"no data":   noData,
	}
	for name, in := range tests {
		if _, err := audio.ParseWAV(in); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
