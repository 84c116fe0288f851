package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Identify_Builtins(t *testing.T) {
	table := NewTable()

	tests := []struct {
		name   string
		sample []byte
		format string
	}{
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "PNG"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}, "JPEG"},
		{"gif", []byte("GIF89a"), "GIF"},
		{"bmp", []byte{0x42, 0x4D, 0x00, 0x00}, "BMP"},
		{"pdf", []byte("%PDF-1.7"), "PDF"},
		{"exe", []byte("MZ\x90\x00"), "EXE"},
		{"elf", []byte{0x7F, 0x45, 0x4C, 0x46, 0x02, 0x01}, "ELF"},
		{"id3 mp3", []byte("ID3\x04"), "MP3"},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, "MP3"},
		{"zip", []byte{0x50, 0x4B, 0x03, 0x04, 0x14}, "ZIP"},
		{"gzip", []byte{0x1F, 0x8B, 0x08}, "GZIP"},
		{"riff", []byte("RIFF\x24\x08\x00\x00WAVE"), "WAV/AVI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := table.Identify(tt.sample)
			require.True(t, ok)
			assert.Equal(t, tt.format, sig.Format)
		})
	}
}

func TestTable_Identify_NoMatch(t *testing.T) {
	table := NewTable()

	tests := []struct {
		name   string
		sample []byte
	}{
		{"plain text", []byte("2024-01-01 12:00:00 INFO Application started")},
		{"empty sample", nil},
		{"single byte", []byte{0x89}},
		{"png magic truncated", []byte{0x89, 0x50, 0x4E}},
		{"near miss", []byte{0x89, 0x50, 0x4E, 0x48}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := table.Identify(tt.sample)
			assert.False(t, ok)
		})
	}
}

func TestTable_Identify_LongestMatchWins(t *testing.T) {
	// JPEG's FF D8 FF is a longer prefix over the MP3 frame sync FF FB;
	// with overlapping custom magics the longer one must win.
	table, err := NewTableWith([]Signature{
		{Magic: []byte{0xAB}, Format: "short"},
		{Magic: []byte{0xAB, 0xCD, 0xEF}, Format: "long"},
	})
	require.NoError(t, err)

	sig, ok := table.Identify([]byte{0xAB, 0xCD, 0xEF, 0x00})
	require.True(t, ok)
	assert.Equal(t, "long", sig.Format)

	sig, ok = table.Identify([]byte{0xAB, 0x00})
	require.True(t, ok)
	assert.Equal(t, "short", sig.Format)
}

func TestNewTableWith_DuplicateMagic(t *testing.T) {
	_, err := NewTableWith([]Signature{
		{Magic: []byte{0x01, 0x02}, Format: "a"},
		{Magic: []byte{0x01, 0x02}, Format: "b"},
	})
	require.ErrorIs(t, err, ErrDuplicateMagic)
}

func TestNewTableWith_EmptyMagic(t *testing.T) {
	_, err := NewTableWith([]Signature{{Format: "empty"}})
	require.ErrorIs(t, err, ErrEmptyMagic)
}

func TestNewTable_BuiltinsValid(t *testing.T) {
	table := NewTable()
	assert.Equal(t, 16, table.Len())
	assert.Equal(t, 8, table.MaxMagicLen(), "MP4 ftyp box is the longest builtin")
}

func TestTable_Identify_Immutable(t *testing.T) {
	magic := []byte{0xAA, 0xBB}
	table, err := NewTableWith([]Signature{{Magic: magic, Format: "x"}})
	require.NoError(t, err)

	// mutating the caller's slice must not affect the table
	magic[0] = 0x00
	_, ok := table.Identify([]byte{0xAA, 0xBB, 0x01})
	assert.True(t, ok)
}
