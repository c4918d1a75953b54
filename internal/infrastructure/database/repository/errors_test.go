package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestErrNotFound(t *testing.T) {
	// wrapped sentinels still match
	wrapped := fmt.Errorf("get batch job: %w", ErrNotFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped ErrNotFound should match errors.Is")
	}

	// the driver sentinel must not leak through as a miss
	if errors.Is(pgx.ErrNoRows, ErrNotFound) {
		t.Error("pgx.ErrNoRows must be translated, not aliased")
	}
}
