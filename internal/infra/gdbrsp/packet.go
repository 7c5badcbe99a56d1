// Package gdbrsp implements a minimal GDB remote serial protocol client,
// enough to inspect a live target: memory reads, software breakpoints,
// continue/interrupt, and stop-reply dispatch.
package gdbrsp

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// checksum is the RSP mod-256 sum of the payload bytes.
func checksum(payload string) byte {
	var sum byte
	for i := 0; i < len(payload); i++ {
		sum += payload[i]
	}
	return sum
}

// frame wraps a payload in RSP packet framing: $payload#xx.
func frame(payload string) string {
	return fmt.Sprintf("$%s#%02x", payload, checksum(payload))
}

// readPacket reads one framed packet from r, verifies its checksum, and
// returns the decoded payload. Leading ack bytes ('+'/'-') are skipped.
func readPacket(r *bufio.Reader) (string, error) {
	// Skip to the packet start.
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '$' {
			break
		}
	}

	var body strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '#' {
			break
		}
		body.WriteByte(b)
	}

	// Both checksum bytes, even when the packet straddles a TCP segment.
	sumHex := make([]byte, 2)
	if _, err := io.ReadFull(r, sumHex); err != nil {
		return "", err
	}
	want, err := hex.DecodeString(string(sumHex))
	if err != nil {
		return "", fmt.Errorf("malformed checksum %q: %w", sumHex, err)
	}
	raw := body.String()
	if got := checksum(raw); got != want[0] {
		return "", fmt.Errorf("checksum mismatch: got %02x, want %02x", got, want[0])
	}

	return decodeBody(raw)
}

// decodeBody expands RSP escape sequences ('}' XOR 0x20) and run-length
// encoding ('*' repeats the previous character).
func decodeBody(raw string) (string, error) {
	var out strings.Builder
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '}':
			if i+1 >= len(raw) {
				return "", fmt.Errorf("truncated escape in packet %q", raw)
			}
			i++
			out.WriteByte(raw[i] ^ 0x20)
		case '*':
			if i+1 >= len(raw) || out.Len() == 0 {
				return "", fmt.Errorf("malformed run-length encoding in packet %q", raw)
			}
			i++
			count := int(raw[i]) - 29
			if count < 0 {
				return "", fmt.Errorf("invalid run length in packet %q", raw)
			}
			last := out.String()[out.Len()-1]
			for j := 0; j < count; j++ {
				out.WriteByte(last)
			}
		default:
			out.WriteByte(raw[i])
		}
	}
	return out.String(), nil
}

// decodeHexLE parses little-endian hex register/memory content into a uint64.
func decodeHexLE(s string) (uint64, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	if len(raw) > 8 {
		raw = raw[:8]
	}
	var v uint64
	for i := len(raw) - 1; i >= 0; i-- {
		v = v<<8 | uint64(raw[i])
	}
	return v, nil
}

// isErrorReply reports whether a reply is an RSP error ("Exx").
func isErrorReply(resp string) bool {
	return len(resp) == 3 && resp[0] == 'E' && isHexDigit(resp[1]) && isHexDigit(resp[2])
}

func isHexDigit(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'a' && b <= 'f':
		return true
	case b >= 'A' && b <= 'F':
		return true
	}
	return false
}
