package db

import "testing"

func TestOpen_AppliesMigrationsAndSeeds(t *testing.T) {
	d, err := Open("file:dbtest_open?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	v, err := CurrentVersion(d)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != 2 {
		t.Fatalf("version = %d, want 2", v)
	}
	var n int
	if err := d.QueryRow(`SELECT COUNT(*) FROM promotions`).Scan(&n); err != nil {
		t.Fatalf("count promotions: %v", err)
	}
	if n != 6 {
		t.Fatalf("seeded promotions = %d, want 6", n)
	}
}

func TestRollbackLast(t *testing.T) {
	d, err := Open("file:dbtest_rollback?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if err := RollbackLast(d); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	v, _ := CurrentVersion(d)
	if v != 1 {
		t.Fatalf("version after rollback = %d, want 1", v)
	}
	var n int
	if err := d.QueryRow(`SELECT COUNT(*) FROM promotions`).Scan(&n); err != nil {
		t.Fatalf("count promotions: %v", err)
	}
	if n != 0 {
		t.Fatalf("promotions after rollback = %d, want 0", n)
	}
}
