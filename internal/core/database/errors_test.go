package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapDBErrorNil(t *testing.T) {
	if err := wrapDBError("op", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestWrapDBErrorPassesTypedThrough(t *testing.T) {
	in := fmt.Errorf("%w: user 42", ErrNotFound)
	out := wrapDBError("getUserInfo", in)
	if !errors.Is(out, ErrNotFound) {
		t.Errorf("typed error lost its kind: %v", out)
	}
	if errors.Is(out, ErrPersistence) {
		t.Errorf("typed error double-wrapped as persistence: %v", out)
	}
}

func TestWrapDBErrorDeadline(t *testing.T) {
	out := wrapDBError("addMessage", fmt.Errorf("begin tx: %w", context.DeadlineExceeded))
	if !errors.Is(out, ErrResourceExhausted) {
		t.Errorf("deadline should map to ErrResourceExhausted, got %v", out)
	}
}

func TestWrapDBErrorPgCodes(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"23503", ErrNotFound},
		{"23505", ErrPersistence},
		{"23514", ErrPersistence},
		{"08006", ErrPersistence}, // connection failure falls through to the default
	}
	for _, tc := range cases {
		pgErr := &pgconn.PgError{Code: tc.code, Message: "boom"}
		out := wrapDBError("createChat", fmt.Errorf("insert: %w", pgErr))
		if !errors.Is(out, tc.want) {
			t.Errorf("code %s mapped to %v, want %v", tc.code, out, tc.want)
		}
	}
}

func TestWrapDBErrorGeneric(t *testing.T) {
	out := wrapDBError("insertDocument", errors.New("dial tcp: refused"))
	if !errors.Is(out, ErrPersistence) {
		t.Errorf("generic fault should map to ErrPersistence, got %v", out)
	}
}
