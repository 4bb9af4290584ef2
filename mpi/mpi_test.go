package mpi

import (
	"bytes"
	"crypto/rand"
	"testing"
)

// TestWriteReadBinaryRoundTrip checks that WriteBinary/ReadBinary agree on
// big-endian, fixed-width encoding.
func TestWriteReadBinaryRoundTrip(t *testing.T) {
	x := FromUint64(0x0102030405060708)
	buf := make([]byte, 16)
	if !x.WriteBinary(buf, 16) {
		t.Fatalf("WriteBinary failed")
	}
	want := make([]byte, 16)
	copy(want[8:], []byte{1, 2, 3, 4, 5, 6, 7, 8})
	if !bytes.Equal(buf, want) {
		t.Fatalf("WriteBinary = %x, want %x", buf, want)
	}

	y := NewInt(16).ReadBinary(buf)
	if y.Cmp(x) != 0 {
		t.Fatalf("round trip: got %x, want %x", y.Bytes(), x.Bytes())
	}
}

// TestWriteBinaryTooNarrow checks that WriteBinary reports failure rather
// than silently truncating a value too wide for the destination.
func TestWriteBinaryTooNarrow(t *testing.T) {
	x := FromUint64(0x0102030405060708)
	buf := make([]byte, 4)
	if x.WriteBinary(buf, 4) {
		t.Fatalf("WriteBinary claimed success into a too-narrow buffer")
	}
}

// TestCondAssign checks CondAssign copies iff cond == 1.
func TestCondAssign(t *testing.T) {
	a := FromUint64(1)
	b := FromUint64(2)

	a.CondAssign(b, 0)
	if a.CmpInt(1) != 0 {
		t.Fatalf("CondAssign with cond=0 changed the value: got %x", a.Bytes())
	}

	a.CondAssign(b, 1)
	if a.CmpInt(2) != 0 {
		t.Fatalf("CondAssign with cond=1 did not copy: got %x", a.Bytes())
	}
}

// TestCondSwap checks CondSwap exchanges values iff cond == 1.
func TestCondSwap(t *testing.T) {
	a := FromUint64(1)
	b := FromUint64(2)

	a.CondSwap(b, 0)
	if a.CmpInt(1) != 0 || b.CmpInt(2) != 0 {
		t.Fatalf("CondSwap with cond=0 changed values: a=%x b=%x", a.Bytes(), b.Bytes())
	}

	a.CondSwap(b, 1)
	if a.CmpInt(2) != 0 || b.CmpInt(1) != 0 {
		t.Fatalf("CondSwap with cond=1 did not swap: a=%x b=%x", a.Bytes(), b.Bytes())
	}
}

// TestInvModIdentity checks a * a^-1 == 1 (mod m) for a small prime modulus.
func TestInvModIdentity(t *testing.T) {
	m := FromUint64(97)
	a := FromUint64(13)
	inv := NewInt(8).InvMod(a, m)

	prod := NewInt(16).Mul(a, inv)
	prod.Mod(prod, m)
	if prod.CmpInt(1) != 0 {
		t.Fatalf("13 * 13^-1 mod 97 = %x, want 1", prod.Bytes())
	}
}

// TestFillRandomFillsRequestedWidth checks that FillRandom's result fits in
// the requested nbyte width.
func TestFillRandomFillsRequestedWidth(t *testing.T) {
	x := NewInt(32)
	if err := x.FillRandom(rand.Reader, 32); err != nil {
		t.Fatalf("FillRandom: %v", err)
	}
	if len(x.Bytes()) > 32 {
		t.Fatalf("FillRandom produced a value wider than 32 bytes: %x", x.Bytes())
	}
}

// TestSubSignedAllowsNegative checks SubSigned does not clamp a negative
// result, unlike SubAbs.
func TestSubSignedAllowsNegative(t *testing.T) {
	a := FromUint64(1)
	b := FromUint64(2)
	x := NewInt(8).SubSigned(a, b)
	if x.Sign() >= 0 {
		t.Fatalf("SubSigned(1, 2) sign = %d, want negative", x.Sign())
	}
}
