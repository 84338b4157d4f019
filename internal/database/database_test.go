package database

import (
	"context"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "leads.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return db
}

func TestInsertAndListLeads(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	leads := []*Lead{
		{Event: "identity_captured", Name: "Priya", Email: "priya@example.com", Domain: "Marketing", Subdomain: "Getting more leads", Role: "business-owner", Requirement: "more leads"},
		{Event: "identity_captured", Name: "Sam", Email: "sam@example.com", Domain: "Finance", Role: "freelancer"},
	}
	for _, l := range leads {
		if err := db.InsertLead(ctx, l); err != nil {
			t.Fatalf("InsertLead: %v", err)
		}
		if l.ID == 0 {
			t.Error("insert should populate the ID")
		}
	}

	got, err := db.RecentLeads(ctx, 10)
	if err != nil {
		t.Fatalf("RecentLeads: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(got))
	}
	// newest first; equal timestamps fall back to descending ID
	if got[0].Email != "sam@example.com" {
		t.Errorf("order: first lead %s", got[0].Email)
	}
	if got[1].Subdomain != "Getting more leads" {
		t.Errorf("fields not round-tripped: %+v", got[1])
	}

	n, err := db.CountLeads(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountLeads = %d, %v", n, err)
	}
}

func TestRecentLeadsLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := db.InsertLead(ctx, &Lead{Event: "identity_captured", Email: "x@example.com"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.RecentLeads(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("limit ignored: got %d", len(got))
	}
}

func TestInitializeIdempotent(t *testing.T) {
	db := testDB(t)
	if err := db.Initialize(); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
}
