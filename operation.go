package registry

import (
	"crypto/sha256"
	"encoding/binary"
)

// Tag values for the Operation union, also used as the first byte of the
// on-disk record.
const (
	TagTrust    byte = 't'
	TagTransfer byte = 'x'
	TagUnknown  byte = 'u'
)

const (
	trustSize        = 1 + 4 + 4 + PublicKeySize + 4 + SignatureSize // 109
	trustSighashSize = 1 + 4 + 4 + PublicKeySize + 4                 // 45

	hopSize            = 12 // from:u32 | amount:u32 | to:u32
	peerSigSize        = 4 + SignatureSize
	transferHeaderSize = 1 + 4 + 1 + 1 // tag | ts | nhops | nsigs
)

// MaxHops and MaxSigs are the single-byte length-prefix limits for a
// Transfer's hop and signature lists.
const (
	MaxHops = 255
	MaxSigs = 255
)

// Hop is one leg of a Transfer: amount moves from the key at index From to
// the key at index To.
type Hop struct {
	From   uint32
	Amount uint32
	To     uint32
}

// PeerSig is one sender's signature over a Transfer's sighash.
type PeerSig struct {
	PeerIdx uint32
	Sig     [SignatureSize]byte
}

// Trust is a unilateral credit grant: From extends Amount of credit to To.
type Trust struct {
	TS     uint32
	From   uint32
	To     PublicKey
	Amount uint32
	Sig    [SignatureSize]byte
}

// Transfer moves value along a chain of existing credit lines.
type Transfer struct {
	TS   uint32
	Hops []Hop
	Sigs []PeerSig
}

// Operation is the tagged union stored in the log: exactly one of Trust or
// Transfer is meaningful, selected by Tag.
type Operation struct {
	Tag      byte
	Trust    Trust
	Transfer Transfer
}

// TrustOp wraps t as an Operation.
func TrustOp(t Trust) Operation { return Operation{Tag: TagTrust, Trust: t} }

// TransferOp wraps t as an Operation.
func TransferOp(t Transfer) Operation { return Operation{Tag: TagTransfer, Transfer: t} }

// Serialize encodes op in the canonical little-endian wire format.
func (op Operation) Serialize() ([]byte, error) {
	switch op.Tag {
	case TagTrust:
		return op.Trust.serialize(), nil
	case TagTransfer:
		return op.Transfer.serialize()
	default:
		return nil, errKind(KindMalformedInput, "cannot serialize an unknown operation")
	}
}

// DeserializeOperation decodes buf, dispatching on its tag byte. An
// unrecognized tag decodes to a Tag: TagUnknown operation rather than an
// error, so forward-compatible log entries can still be skipped over.
func DeserializeOperation(buf []byte) (Operation, error) {
	if len(buf) == 0 {
		return Operation{}, errKind(KindMalformedInput, "empty operation payload")
	}
	switch buf[0] {
	case TagTrust:
		t, err := deserializeTrust(buf)
		if err != nil {
			return Operation{}, err
		}
		return TrustOp(t), nil
	case TagTransfer:
		t, err := deserializeTransfer(buf)
		if err != nil {
			return Operation{}, err
		}
		return TransferOp(t), nil
	default:
		return Operation{Tag: TagUnknown}, nil
	}
}

// Sighash is the digest signed by senders: SHA-256 of the serialization
// with every signature field excluded.
func (op Operation) Sighash() [32]byte {
	switch op.Tag {
	case TagTrust:
		return op.Trust.Sighash()
	case TagTransfer:
		return op.Transfer.Sighash()
	default:
		return [32]byte{}
	}
}

func (t Trust) serialize() []byte {
	buf := make([]byte, trustSize)
	buf[0] = TagTrust
	binary.LittleEndian.PutUint32(buf[1:5], t.TS)
	binary.LittleEndian.PutUint32(buf[5:9], t.From)
	copy(buf[9:9+PublicKeySize], t.To[:])
	binary.LittleEndian.PutUint32(buf[41:45], t.Amount)
	copy(buf[45:109], t.Sig[:])
	return buf
}

func deserializeTrust(buf []byte) (Trust, error) {
	if len(buf) != trustSize {
		return Trust{}, errKind(KindMalformedInput, "trust must be %d bytes, got %d", trustSize, len(buf))
	}
	var t Trust
	t.TS = binary.LittleEndian.Uint32(buf[1:5])
	t.From = binary.LittleEndian.Uint32(buf[5:9])
	copy(t.To[:], buf[9:9+PublicKeySize])
	t.Amount = binary.LittleEndian.Uint32(buf[41:45])
	copy(t.Sig[:], buf[45:109])
	return t, nil
}

// Sighash excludes the trailing 64-byte signature.
func (t Trust) Sighash() [32]byte {
	buf := t.serialize()
	return sha256.Sum256(buf[:trustSighashSize])
}

func (t Transfer) serialize() ([]byte, error) {
	if len(t.Hops) > MaxHops {
		return nil, errKind(KindMalformedInput, "transfer has too many hops: %d > %d", len(t.Hops), MaxHops)
	}
	if len(t.Sigs) > MaxSigs {
		return nil, errKind(KindMalformedInput, "transfer has too many signatures: %d > %d", len(t.Sigs), MaxSigs)
	}
	size := transferHeaderSize + len(t.Hops)*hopSize + len(t.Sigs)*peerSigSize
	buf := make([]byte, size)
	buf[0] = TagTransfer
	binary.LittleEndian.PutUint32(buf[1:5], t.TS)
	buf[5] = byte(len(t.Hops))
	buf[6] = byte(len(t.Sigs))

	off := transferHeaderSize
	for _, h := range t.Hops {
		binary.LittleEndian.PutUint32(buf[off:off+4], h.From)
		binary.LittleEndian.PutUint32(buf[off+4:off+8], h.Amount)
		binary.LittleEndian.PutUint32(buf[off+8:off+12], h.To)
		off += hopSize
	}
	for _, s := range t.Sigs {
		binary.LittleEndian.PutUint32(buf[off:off+4], s.PeerIdx)
		copy(buf[off+4:off+4+SignatureSize], s.Sig[:])
		off += peerSigSize
	}
	return buf, nil
}

func deserializeTransfer(buf []byte) (Transfer, error) {
	if len(buf) < transferHeaderSize {
		return Transfer{}, errKind(KindMalformedInput, "transfer header truncated")
	}
	nhops := int(buf[5])
	nsigs := int(buf[6])
	want := transferHeaderSize + nhops*hopSize + nsigs*peerSigSize
	if len(buf) != want {
		return Transfer{}, errKind(KindMalformedInput, "transfer size mismatch: want %d got %d", want, len(buf))
	}

	var t Transfer
	t.TS = binary.LittleEndian.Uint32(buf[1:5])

	off := transferHeaderSize
	t.Hops = make([]Hop, nhops)
	for i := range t.Hops {
		t.Hops[i].From = binary.LittleEndian.Uint32(buf[off : off+4])
		t.Hops[i].Amount = binary.LittleEndian.Uint32(buf[off+4 : off+8])
		t.Hops[i].To = binary.LittleEndian.Uint32(buf[off+8 : off+12])
		off += hopSize
	}
	t.Sigs = make([]PeerSig, nsigs)
	for i := range t.Sigs {
		t.Sigs[i].PeerIdx = binary.LittleEndian.Uint32(buf[off : off+4])
		copy(t.Sigs[i].Sig[:], buf[off+4:off+4+SignatureSize])
		off += peerSigSize
	}
	return t, nil
}

// Sighash excludes every PeerSig, covering only the header and hop list.
func (t Transfer) Sighash() [32]byte {
	buf, err := t.serialize()
	if err != nil {
		// length bounds were already checked by the caller that produced t
		return [32]byte{}
	}
	n := transferHeaderSize + len(t.Hops)*hopSize
	return sha256.Sum256(buf[:n])
}
