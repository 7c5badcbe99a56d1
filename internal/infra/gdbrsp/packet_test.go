package gdbrsp

import (
	"bufio"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskprobe/taskprobe/internal/domain"
)

func TestChecksum(t *testing.T) {
	assert.Equal(t, byte(0x00), checksum(""))
	assert.Equal(t, byte('c'), checksum("c"))
	// Mod-256 wraparound.
	assert.Equal(t, byte(0x7f), checksum("m20000000,40"))
}

func TestFrame(t *testing.T) {
	assert.Equal(t, "$#00", frame(""))
	assert.Equal(t, "$OK#9a", frame("OK"))
	assert.Equal(t, "$m20000000,40#7f", frame("m20000000,40"))
}

func TestReadPacket(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "plain reply",
			input: "$OK#9a",
			want:  "OK",
		},
		{
			name:  "skips leading ack",
			input: "+$OK#9a",
			want:  "OK",
		},
		{
			name:  "skips leading nack",
			input: "-$OK#9a",
			want:  "OK",
		},
		{
			name:  "escaped byte",
			input: frame("a}\x03b"), // '}' 0x23 encodes '#'
			want:  "a#b",
		},
		{
			name:  "run length encoding",
			input: frame("0* "), // ' ' is 0x20, repeat count 3
			want:  "0000",
		},
		{
			name:    "bad checksum",
			input:   "$OK#00",
			wantErr: true,
		},
		{
			name:    "non-hex checksum",
			input:   "$OK#zz",
			wantErr: true,
		},
		{
			name:    "truncated stream",
			input:   "$OK",
			wantErr: true,
		},
		{
			name:    "truncated escape",
			input:   frame("a}"),
			wantErr: true,
		},
		{
			name:    "run length with no prior byte",
			input:   frame("*!"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bufio.NewReader(strings.NewReader(tt.input))

			got, err := readPacket(r)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadPacket_FragmentedStream(t *testing.T) {
	// A packet can arrive one byte at a time over TCP; the checksum bytes in
	// particular must be assembled across short reads, not rejected.
	r := bufio.NewReader(iotest.OneByteReader(strings.NewReader("$OK#9a")))

	got, err := readPacket(r)

	require.NoError(t, err)
	assert.Equal(t, "OK", got)
}

func TestDecodeHexLE(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint64
		wantErr bool
	}{
		{name: "single byte", input: "2a", want: 0x2a},
		{name: "32-bit register", input: "78563412", want: 0x12345678},
		{name: "64-bit register", input: "efcdab8967452301", want: 0x0123456789abcdef},
		{name: "extra bytes ignored", input: "78563412ffffffff00", want: 0xffffffff12345678},
		{name: "empty", input: "", want: 0},
		{name: "odd length", input: "123", wantErr: true},
		{name: "not hex", input: "zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeHexLE(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsErrorReply(t *testing.T) {
	assert.True(t, isErrorReply("E01"))
	assert.True(t, isErrorReply("Eff"))
	assert.True(t, isErrorReply("E0A"))
	assert.False(t, isErrorReply("OK"))
	assert.False(t, isErrorReply("E1"))
	assert.False(t, isErrorReply("E123"))
	assert.False(t, isErrorReply("Ezz"))
	assert.False(t, isErrorReply(""))
}

func TestParseAddressSpec(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     uint64
		wantErr  bool
	}{
		{name: "hex address", location: "*0x20000000", want: 0x20000000},
		{name: "decimal address", location: "*1024", want: 1024},
		{name: "symbolic location", location: "poll_task", wantErr: true},
		{name: "bare star", location: "*", wantErr: true},
		{name: "garbage after star", location: "*0xzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddressSpec(tt.location)

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
