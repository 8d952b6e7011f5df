package registry

import (
	"encoding/hex"
	"encoding/json"
)

// jsonHop/jsonPeerSig/jsonOperation are the wire shapes for the HTTP
// boundary's newline-delimited JSON envelope: a "tag" discriminator plus
// hex-encoded keys and signatures.
type jsonHop struct {
	From   uint32 `json:"from"`
	Amount uint32 `json:"amount"`
	To     uint32 `json:"to"`
}

type jsonPeerSig struct {
	PeerIdx uint32 `json:"peer_idx"`
	Sig     string `json:"sig"`
}

type jsonOperation struct {
	Tag    string        `json:"tag"`
	TS     uint32        `json:"ts,omitempty"`
	From   *uint32       `json:"from,omitempty"`
	To     string        `json:"to,omitempty"`
	Amount *uint32       `json:"amount,omitempty"`
	Sig    string        `json:"sig,omitempty"`
	Hops   []jsonHop     `json:"hops,omitempty"`
	Sigs   []jsonPeerSig `json:"sigs,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (op Operation) MarshalJSON() ([]byte, error) {
	switch op.Tag {
	case TagTrust:
		t := op.Trust
		from, amount := t.From, t.Amount
		return json.Marshal(jsonOperation{
			Tag:    "t",
			TS:     t.TS,
			From:   &from,
			To:     t.To.Hex(),
			Amount: &amount,
			Sig:    hex.EncodeToString(t.Sig[:]),
		})
	case TagTransfer:
		t := op.Transfer
		hops := make([]jsonHop, len(t.Hops))
		for i, h := range t.Hops {
			hops[i] = jsonHop{From: h.From, Amount: h.Amount, To: h.To}
		}
		sigs := make([]jsonPeerSig, len(t.Sigs))
		for i, s := range t.Sigs {
			sigs[i] = jsonPeerSig{PeerIdx: s.PeerIdx, Sig: hex.EncodeToString(s.Sig[:])}
		}
		return json.Marshal(jsonOperation{Tag: "x", TS: t.TS, Hops: hops, Sigs: sigs})
	default:
		return json.Marshal(jsonOperation{Tag: "u"})
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (op *Operation) UnmarshalJSON(data []byte) error {
	var jo jsonOperation
	if err := json.Unmarshal(data, &jo); err != nil {
		return errKind(KindMalformedInput, "decode operation json: %v", err)
	}

	switch jo.Tag {
	case "t":
		if jo.From == nil || jo.Amount == nil {
			return errKind(KindMalformedInput, "trust operation missing from/amount")
		}
		to, err := ParsePublicKeyHex(jo.To)
		if err != nil {
			return err
		}
		sig, err := decodeSigHex(jo.Sig)
		if err != nil {
			return err
		}
		*op = TrustOp(Trust{TS: jo.TS, From: *jo.From, To: to, Amount: *jo.Amount, Sig: sig})
		return nil
	case "x":
		hops := make([]Hop, len(jo.Hops))
		for i, h := range jo.Hops {
			hops[i] = Hop{From: h.From, Amount: h.Amount, To: h.To}
		}
		sigs := make([]PeerSig, len(jo.Sigs))
		for i, s := range jo.Sigs {
			sig, err := decodeSigHex(s.Sig)
			if err != nil {
				return err
			}
			sigs[i] = PeerSig{PeerIdx: s.PeerIdx, Sig: sig}
		}
		*op = TransferOp(Transfer{TS: jo.TS, Hops: hops, Sigs: sigs})
		return nil
	case "u", "":
		*op = Operation{Tag: TagUnknown}
		return nil
	default:
		return errKind(KindMalformedInput, "unknown operation tag %q", jo.Tag)
	}
}

func decodeSigHex(s string) ([SignatureSize]byte, error) {
	var out [SignatureSize]byte
	if len(s) != SignatureSize*2 {
		return out, errKind(KindMalformedInput, "signature must be %d hex chars, got %d", SignatureSize*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, errKind(KindMalformedInput, "invalid signature hex: %v", err)
	}
	copy(out[:], b)
	return out, nil
}
