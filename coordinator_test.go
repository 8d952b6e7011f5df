package registry

import (
	"os"
	"testing"
)

func startTestCoordinator(t *testing.T, genesis PublicKey) *Coordinator {
	t.Helper()
	dir, err := os.MkdirTemp("", "registry-coordinator-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	c, err := StartCoordinator(dir, genesis, nil)
	if err != nil {
		t.Fatalf("StartCoordinator: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCoordinatorAppendAndList(t *testing.T) {
	genesis := newParticipant(t, 1)
	other := newParticipant(t, 2)
	c := startTestCoordinator(t, genesis.sk.Public())

	tr := signTrust(t, genesis, other.sk.Public(), 500)
	if err := c.AppendOperation(TrustOp(tr)); err != nil {
		t.Fatalf("AppendOperation: %v", err)
	}

	ops, err := c.ListOperations(nil, nil)
	if err != nil {
		t.Fatalf("ListOperations: %v", err)
	}
	if len(ops) != 1 || ops[0].Tag != TagTrust {
		t.Fatalf("ListOperations = %+v, want one trust", ops)
	}
}

func TestCoordinatorRejectsInvalidOperation(t *testing.T) {
	genesis := newParticipant(t, 1)
	c := startTestCoordinator(t, genesis.sk.Public())

	selfTrust := signTrust(t, genesis, genesis.sk.Public(), 1)
	err := c.AppendOperation(TrustOp(selfTrust))
	ce, ok := err.(*CoreError)
	if !ok || ce.Kind != KindSelfTrust {
		t.Fatalf("AppendOperation = %v, want KindSelfTrust", err)
	}

	if n := len(mustList(t, c)); n != 0 {
		t.Fatalf("a rejected operation must not be appended, log has %d entries", n)
	}
}

func mustList(t *testing.T, c *Coordinator) []Operation {
	t.Helper()
	ops, err := c.ListOperations(nil, nil)
	if err != nil {
		t.Fatalf("ListOperations: %v", err)
	}
	return ops
}

func TestCoordinatorGetKeyIndex(t *testing.T) {
	genesis := newParticipant(t, 1)
	other := newParticipant(t, 2)
	c := startTestCoordinator(t, genesis.sk.Public())

	if _, err := c.GetKeyIndex(other.sk.Public()); err == nil {
		t.Fatal("expected an error looking up a key that has never trusted anyone")
	}

	tr := signTrust(t, genesis, other.sk.Public(), 500)
	if err := c.AppendOperation(TrustOp(tr)); err != nil {
		t.Fatalf("AppendOperation: %v", err)
	}

	idx, err := c.GetKeyIndex(other.sk.Public())
	if err != nil {
		t.Fatalf("GetKeyIndex: %v", err)
	}
	if idx != 1 {
		t.Fatalf("GetKeyIndex = %d, want 1", idx)
	}
}

func TestCoordinatorBroadcastsAppendedOperations(t *testing.T) {
	genesis := newParticipant(t, 1)
	other := newParticipant(t, 2)
	c := startTestCoordinator(t, genesis.sk.Public())

	sub := c.Subscribe()
	defer c.Unsubscribe(sub)

	tr := signTrust(t, genesis, other.sk.Public(), 500)
	if err := c.AppendOperation(TrustOp(tr)); err != nil {
		t.Fatalf("AppendOperation: %v", err)
	}

	select {
	case op := <-sub.C():
		if op.Tag != TagTrust {
			t.Fatalf("broadcast op tag = %q, want %q", op.Tag, TagTrust)
		}
	default:
		t.Fatal("expected the appended operation to be broadcast")
	}
}

func TestCoordinatorBootstrapsFromExistingLog(t *testing.T) {
	genesis := newParticipant(t, 1)
	other := newParticipant(t, 2)
	dir, err := os.MkdirTemp("", "registry-coordinator-bootstrap-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)

	c1, err := StartCoordinator(dir, genesis.sk.Public(), nil)
	if err != nil {
		t.Fatalf("StartCoordinator: %v", err)
	}
	tr := signTrust(t, genesis, other.sk.Public(), 500)
	if err := c1.AppendOperation(TrustOp(tr)); err != nil {
		t.Fatalf("AppendOperation: %v", err)
	}
	if err := c1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2, err := StartCoordinator(dir, genesis.sk.Public(), nil)
	if err != nil {
		t.Fatalf("StartCoordinator reopen: %v", err)
	}
	defer c2.Close()

	idx, err := c2.GetKeyIndex(other.sk.Public())
	if err != nil {
		t.Fatalf("GetKeyIndex after bootstrap: %v", err)
	}
	if idx != 1 {
		t.Fatalf("GetKeyIndex = %d, want 1", idx)
	}
}
