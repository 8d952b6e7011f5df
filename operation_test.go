package registry

import (
	"bytes"
	"testing"
)

func sampleTrust() Trust {
	var to PublicKey
	for i := range to {
		to[i] = byte(i + 1)
	}
	var sig [SignatureSize]byte
	for i := range sig {
		sig[i] = byte(255 - i)
	}
	return Trust{TS: 1700000000, From: 3, To: to, Amount: 5000, Sig: sig}
}

func TestTrustSerializeSize(t *testing.T) {
	buf := sampleTrust().serialize()
	if len(buf) != trustSize {
		t.Fatalf("serialize: got %d bytes, want %d", len(buf), trustSize)
	}
	if buf[0] != TagTrust {
		t.Fatalf("tag byte = %q, want %q", buf[0], TagTrust)
	}
}

func TestTrustRoundTrip(t *testing.T) {
	want := sampleTrust()
	buf, err := TrustOp(want).Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	op, err := DeserializeOperation(buf)
	if err != nil {
		t.Fatalf("DeserializeOperation: %v", err)
	}
	if op.Tag != TagTrust {
		t.Fatalf("tag = %q, want %q", op.Tag, TagTrust)
	}
	if op.Trust != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", op.Trust, want)
	}
}

func TestTrustSighashExcludesSignature(t *testing.T) {
	a := sampleTrust()
	b := a
	b.Sig[0] ^= 0xff

	if a.Sighash() != b.Sighash() {
		t.Fatal("sighash must not depend on the signature bytes")
	}

	c := a
	c.Amount++
	if a.Sighash() == c.Sighash() {
		t.Fatal("sighash must depend on every non-signature field")
	}
}

func sampleTransfer() Transfer {
	return Transfer{
		TS: 42,
		Hops: []Hop{
			{From: 0, Amount: 100, To: 1},
			{From: 1, Amount: 100, To: 2},
		},
		Sigs: []PeerSig{
			{PeerIdx: 0, Sig: [SignatureSize]byte{1, 2, 3}},
		},
	}
}

func TestTransferRoundTrip(t *testing.T) {
	want := sampleTransfer()
	buf, err := TransferOp(want).Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	wantSize := transferHeaderSize + len(want.Hops)*hopSize + len(want.Sigs)*peerSigSize
	if len(buf) != wantSize {
		t.Fatalf("serialized size = %d, want %d", len(buf), wantSize)
	}

	op, err := DeserializeOperation(buf)
	if err != nil {
		t.Fatalf("DeserializeOperation: %v", err)
	}
	if op.Tag != TagTransfer {
		t.Fatalf("tag = %q, want %q", op.Tag, TagTransfer)
	}
	if len(op.Transfer.Hops) != len(want.Hops) || len(op.Transfer.Sigs) != len(want.Sigs) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", op.Transfer, want)
	}
	for i := range want.Hops {
		if op.Transfer.Hops[i] != want.Hops[i] {
			t.Fatalf("hop %d mismatch: got %+v, want %+v", i, op.Transfer.Hops[i], want.Hops[i])
		}
	}
}

func TestTransferSighashExcludesSignatures(t *testing.T) {
	a := sampleTransfer()
	b := a
	b.Sigs = append([]PeerSig(nil), a.Sigs...)
	b.Sigs[0].Sig[0] ^= 0xff

	if a.Sighash() != b.Sighash() {
		t.Fatal("sighash must not depend on signature bytes")
	}
}

func TestTransferHopOrderOnWire(t *testing.T) {
	// The on-wire hop layout is from, amount, to (not struct field order).
	buf, err := TransferOp(Transfer{
		TS:   0,
		Hops: []Hop{{From: 0x01020304, Amount: 0x05060708, To: 0x090a0b0c}},
	}).Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := []byte{0x04, 0x03, 0x02, 0x01, 0x08, 0x07, 0x06, 0x05, 0x0c, 0x0b, 0x0a, 0x09}
	got := buf[transferHeaderSize : transferHeaderSize+hopSize]
	if !bytes.Equal(got, want) {
		t.Fatalf("hop bytes = % x, want % x", got, want)
	}
}

func TestTransferRejectsTooManyHops(t *testing.T) {
	hops := make([]Hop, MaxHops+1)
	_, err := Transfer{Hops: hops}.serialize()
	if err == nil {
		t.Fatal("expected error for more than MaxHops hops")
	}
}

func TestDeserializeOperationUnknownTag(t *testing.T) {
	op, err := DeserializeOperation([]byte{'z', 1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error for an unknown tag: %v", err)
	}
	if op.Tag != TagUnknown {
		t.Fatalf("tag = %q, want %q", op.Tag, TagUnknown)
	}
}

func TestDeserializeOperationEmptyPayload(t *testing.T) {
	if _, err := DeserializeOperation(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
