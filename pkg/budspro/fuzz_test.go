// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"bytes"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// buildRandomFrame encodes a random frame with a random ID and payload.
func buildRandomFrame(rng *rand.Rand) (Frame, []byte) {
	f := NewFrame(uint8(rng.Intn(256)), make([]byte, rng.Intn(64)))
	rng.Read(f.Payload)
	if rng.Intn(4) == 0 {
		f.Flags |= FlagResponse
	}
	data, _ := f.Encode()
	return f, data
}

// ============================================================
// Receiver Fuzz Tests
// ============================================================

// TestFuzzReceiver_RandomBytes feeds random bytes to the receiver and
// verifies it doesn't crash or panic
func TestFuzzReceiver_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		rx := NewFrameReceiver()

		// Generate random byte sequence of random length (1-512 bytes)
		length := rng.Intn(512) + 1
		data := make([]byte, length)
		rng.Read(data)

		// Feed in random-sized chunks - should not panic
		for len(data) > 0 {
			n := rng.Intn(len(data)) + 1
			rx.Feed(data[:n])
			data = data[n:]
		}
	}
}

// TestFuzzReceiver_RandomFrames generates random valid frames and verifies
// they all decode regardless of chunking
func TestFuzzReceiver_RandomFrames(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		rx := NewFrameReceiver()
		f, data := buildRandomFrame(rng)

		var got []Frame
		for len(data) > 0 {
			n := rng.Intn(len(data)) + 1
			for _, res := range rx.Feed(data[:n]) {
				if res.Err != nil {
					t.Fatalf("Round %d: unexpected stream error: %v", i, res.Err)
				}
				got = append(got, res.Frame)
			}
			data = data[n:]
		}

		if len(got) != 1 {
			t.Fatalf("Round %d: decoded %d frames, want 1", i, len(got))
		}
		if got[0].ID != f.ID || !bytes.Equal(got[0].Payload, f.Payload) {
			t.Errorf("Round %d: frame mismatch: got %+v, want %+v", i, got[0], f)
		}
	}
}

// TestFuzzReceiver_CorruptedFrames corrupts one byte of a valid frame and
// verifies the receiver doesn't crash or panic
func TestFuzzReceiver_CorruptedFrames(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		rx := NewFrameReceiver()
		_, data := buildRandomFrame(rng)

		// Corrupt one byte anywhere in the frame
		idx := rng.Intn(len(data))
		data[idx] ^= byte(rng.Intn(255) + 1)

		// Feed corrupted frame plus padding so a corrupted length field
		// cannot leave the receiver waiting - should not panic
		data = append(data, make([]byte, MaxBodySize+frameOverhead+1)...)
		rx.Feed(data)
	}
}

// TestFuzzReceiver_TruncatedFrames drops random bytes from a frame and
// verifies the receiver doesn't crash or panic
func TestFuzzReceiver_TruncatedFrames(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		rx := NewFrameReceiver()
		_, data := buildRandomFrame(rng)

		numToRemove := rng.Intn(5) + 1
		for j := 0; j < numToRemove && len(data) > 1; j++ {
			idx := rng.Intn(len(data))
			data = append(data[:idx], data[idx+1:]...)
		}

		data = append(data, make([]byte, MaxBodySize+frameOverhead+1)...)
		rx.Feed(data)
	}
}

// TestFuzzReceiver_InterFrameGarbage inserts random garbage between valid
// frames and verifies every frame still decodes
func TestFuzzReceiver_InterFrameGarbage(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		rx := NewFrameReceiver()

		var stream []byte
		var want []Frame
		numFrames := rng.Intn(5) + 1
		for j := 0; j < numFrames; j++ {
			// Garbage without the start marker cannot open a false frame.
			garbage := make([]byte, rng.Intn(16))
			for k := range garbage {
				for {
					b := byte(rng.Intn(256))
					if b != StartOfFrame {
						garbage[k] = b
						break
					}
				}
			}
			stream = append(stream, garbage...)

			f, data := buildRandomFrame(rng)
			want = append(want, f)
			stream = append(stream, data...)
		}

		var got []Frame
		for _, res := range rx.Feed(stream) {
			if res.Err == nil {
				got = append(got, res.Frame)
			}
		}

		if len(got) != len(want) {
			t.Fatalf("Round %d: decoded %d frames, want %d", i, len(got), len(want))
		}
		for j := range want {
			if got[j].ID != want[j].ID || !bytes.Equal(got[j].Payload, want[j].Payload) {
				t.Errorf("Round %d: frame %d mismatch", i, j)
			}
		}
	}
}

// ============================================================
// CRC Fuzz Tests
// ============================================================

// TestFuzzCRC_RandomData tests CRC calculation with random data
func TestFuzzCRC_RandomData(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		length := rng.Intn(1000) + 1
		data := make([]byte, length)
		rng.Read(data)

		crc1 := CalculateCRC(data)
		crc2 := CalculateCRC(data)
		if crc1 != crc2 {
			t.Errorf("Round %d: CRC not deterministic: 0x%04X != 0x%04X", i, crc1, crc2)
		}

		// Appending the big-endian CRC must leave a zero residue; frame
		// validation depends on this.
		withCRC := append(append([]byte(nil), data...), byte(crc1>>8), byte(crc1))
		if CalculateCRC(withCRC) != 0 {
			t.Errorf("Round %d: non-zero residue 0x%04X", i, CalculateCRC(withCRC))
		}
	}
}

// ============================================================
// Parser Fuzz Tests
// ============================================================

// TestFuzzParseMessage_RandomBodies feeds random bodies to every known
// message ID and verifies parsing never panics and unknown IDs never fail
func TestFuzzParseMessage_RandomBodies(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		id := uint8(rng.Intn(256))
		body := make([]byte, rng.Intn(128))
		rng.Read(body)

		m, err := ParseMessage(id, body)
		if err == nil && m == nil {
			t.Errorf("Round %d: nil message without error for ID 0x%02X", i, id)
			continue
		}
		if _, ok := m.(*Unknown); ok && err != nil {
			t.Errorf("Round %d: unknown ID 0x%02X must never fail: %v", i, id, err)
		}
	}
}

// ============================================================
// Formatter Fuzz Tests
// ============================================================

// TestFuzzFormatter_RandomMessages tests formatting with random messages
func TestFuzzFormatter_RandomMessages(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		id := uint8(rng.Intn(256))
		body := make([]byte, rng.Intn(128))
		rng.Read(body)

		m, err := ParseMessage(id, body)
		if err != nil {
			m = &Malformed{ID: id, Raw: body, Err: err}
		}

		if FormatMessageName(id) == "" {
			t.Errorf("Round %d: FormatMessageName returned empty string", i)
		}
		if FormatMessage(m) == "" {
			t.Errorf("Round %d: FormatMessage returned empty string", i)
		}
	}
}
