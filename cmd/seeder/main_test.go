package main

import (
	"testing"
	"time"

	"github.com/punchamoorthee/spinledger/internal/domain"
)

func TestSeedRows(t *testing.T) {
	now := time.Now()
	rows := seedRows(3, domain.MustAmount("250"), now)
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	for i, row := range rows {
		if row[0] != AccountID(i+1) || row[1] != int64(25000) || row[2] != now {
			t.Errorf("row %d = %v", i, row)
		}
	}
	if AccountID(7) != "player-0007" {
		t.Errorf("AccountID(7) = %s", AccountID(7))
	}
}
