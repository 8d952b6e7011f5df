package registry

// State is the in-memory key table and line table, derived entirely by
// replaying the operation log from genesis.
type State struct {
	Keys       []PublicKey
	KeyIndexes map[PublicKey]uint32
	Lines      map[uint64]*Line
}

// NewState bootstraps a fresh state with genesis at key index 0.
func NewState(genesis PublicKey) *State {
	s := &State{
		Keys:       []PublicKey{genesis},
		KeyIndexes: make(map[PublicKey]uint32, 256),
		Lines:      make(map[uint64]*Line, 256),
	}
	s.KeyIndexes[genesis] = 0
	return s
}

// Validate checks op against state without mutating either. A nil error
// means Process(state, op) is safe to call next.
func Validate(state *State, op Operation) error {
	switch op.Tag {
	case TagTrust:
		return validateTrust(state, op.Trust)
	case TagTransfer:
		return validateTransfer(state, op.Transfer)
	default:
		return errKind(KindMalformedInput, "cannot validate an unknown operation")
	}
}

// Process applies op to state. The caller must have already called
// Validate successfully; Process never re-checks invariants.
func Process(state *State, op Operation) {
	switch op.Tag {
	case TagTrust:
		processTrust(state, op.Trust)
	case TagTransfer:
		processTransfer(state, op.Transfer)
	}
}

func validateTrust(state *State, t Trust) error {
	if idx, ok := state.KeyIndexes[t.To]; ok && idx == t.From {
		return errKind(KindSelfTrust, "can't trust yourself")
	}
	if int(t.From) >= len(state.Keys) {
		return errKind(KindUnknownKey, "from key doesn't exist")
	}
	if err := Verify(state.Keys[t.From], t.Sighash(), t.Sig); err != nil {
		return errKind(KindInvalidSignature, "invalid signature")
	}
	return nil
}

func processTrust(state *State, t Trust) {
	toIdx, ok := state.KeyIndexes[t.To]
	if !ok {
		toIdx = uint32(len(state.Keys))
		state.Keys = append(state.Keys, t.To)
		state.KeyIndexes[t.To] = toIdx
	}

	key := lineKey(t.From, toIdx)
	line, ok := state.Lines[key]
	if !ok {
		line = &Line{}
		if t.From < toIdx {
			line.Peers = [2]uint32{t.From, toIdx}
		} else {
			line.Peers = [2]uint32{toIdx, t.From}
		}
		state.Lines[key] = line
	}
	if t.From < toIdx {
		line.Trust[0] = t.Amount
	} else {
		line.Trust[1] = t.Amount
	}
}

func validateTransfer(state *State, t Transfer) error {
	deltas := make(map[uint32]int64, len(t.Hops)*2)

	for _, h := range t.Hops {
		if h.Amount == 0 {
			return errKind(KindZeroAmount, "hop can't have zero amount")
		}
		line, ok := state.Lines[lineKey(h.From, h.To)]
		if !ok {
			return errKind(KindNoLine, "no line available for transfer")
		}

		var available int64
		if h.From == line.Peers[0] {
			available = int64(line.Trust[0]) - line.Balance
		} else {
			available = int64(line.Trust[1]) + line.Balance
		}
		if int64(h.Amount) > available {
			return errKind(KindInsufficientCredit, "not enough credit in line")
		}

		deltas[h.From] -= int64(h.Amount)
		deltas[h.To] += int64(h.Amount)
	}

	seen := make(map[uint32]bool, len(t.Hops))
	for _, h := range t.Hops {
		if seen[h.From] {
			continue
		}
		seen[h.From] = true
		if deltas[h.From] < 0 && !hasSig(t.Sigs, h.From) {
			return errMissingSender(h.From)
		}
	}

	for _, sig := range t.Sigs {
		if int(sig.PeerIdx) >= len(state.Keys) {
			return errKind(KindUnknownKey, "signing key doesn't exist")
		}
		if err := Verify(state.Keys[sig.PeerIdx], t.Sighash(), sig.Sig); err != nil {
			return errKind(KindInvalidSignature, "invalid signature")
		}
	}
	return nil
}

func hasSig(sigs []PeerSig, peerIdx uint32) bool {
	for _, s := range sigs {
		if s.PeerIdx == peerIdx {
			return true
		}
	}
	return false
}

func processTransfer(state *State, t Transfer) {
	for _, h := range t.Hops {
		line := state.Lines[lineKey(h.From, h.To)]
		if line.Peers[0] == h.From {
			line.Balance += int64(h.Amount)
		} else {
			line.Balance -= int64(h.Amount)
		}
	}
}
