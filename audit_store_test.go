package registry

import (
	"path/filepath"
	"testing"
)

func openTestAuditStore(t *testing.T) *AuditStore {
	t.Helper()
	dir := t.TempDir()
	a, err := OpenAuditStore(filepath.Join(dir, "audit.db"))
	if err != nil {
		t.Fatalf("OpenAuditStore: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestAuditStoreRecordsTrustAndTransfer(t *testing.T) {
	a := openTestAuditStore(t)

	if err := a.Record(TrustOp(sampleTrust())); err != nil {
		t.Fatalf("Record trust: %v", err)
	}
	if err := a.Record(TransferOp(sampleTransfer())); err != nil {
		t.Fatalf("Record transfer: %v", err)
	}

	var count int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM trusts`).Scan(&count); err != nil {
		t.Fatalf("query trusts: %v", err)
	}
	if count != 1 {
		t.Fatalf("trusts count = %d, want 1", count)
	}
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM transfers`).Scan(&count); err != nil {
		t.Fatalf("query transfers: %v", err)
	}
	if count != 1 {
		t.Fatalf("transfers count = %d, want 1", count)
	}
}

func TestAuditStoreRejectsUnknownOperation(t *testing.T) {
	a := openTestAuditStore(t)
	if err := a.Record(Operation{Tag: TagUnknown}); err == nil {
		t.Fatal("expected an error recording an unknown operation")
	}
}
