package db

import (
	"context"
	"testing"
)

func TestTxFromContext_Nil(t *testing.T) {
	tx := TxFromContext(context.Background())
	if tx != nil {
		t.Error("expected nil tx from empty context")
	}
}

func TestTxFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBTxKey, "not-a-tx")
	tx := TxFromContext(ctx)
	if tx != nil {
		t.Error("expected nil when context value is wrong type")
	}
}

func TestRunInTx_NoPool(t *testing.T) {
	r := NewTxRunner(nil)
	err := r.RunInTx(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil {
		t.Error("expected error when runner has no pool")
	}
}
