package domain

import (
	"errors"
	"testing"
)

func testProducts() []Product {
	return []Product{
		{ID: "P1", Description: "apple", Embedding: []float32{1, 0}},
		{ID: "P2", Description: "pear", Embedding: []float32{0.9, 0.1}},
		{ID: "P3", Description: "car", Embedding: []float32{0, 1}},
	}
}

func TestNewCatalog_OrderAndLookup(t *testing.T) {
	c, err := NewCatalog(testProducts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantIDs := []string{"P1", "P2", "P3"}
	gotIDs := c.IDs()
	if len(gotIDs) != len(wantIDs) {
		t.Fatalf("IDs length: got %d, want %d", len(gotIDs), len(wantIDs))
	}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Errorf("IDs[%d]: got %s, want %s", i, gotIDs[i], wantIDs[i])
		}
	}

	p, ok := c.Get("P2")
	if !ok {
		t.Fatal("expected P2 to be found")
	}
	if p.Description != "pear" {
		t.Errorf("description: got %q, want %q", p.Description, "pear")
	}

	if _, ok := c.Get("nope"); ok {
		t.Error("expected unknown id to be not found")
	}

	if c.Dim() != 2 {
		t.Errorf("Dim: got %d, want 2", c.Dim())
	}
}

func TestNewCatalog_Errors(t *testing.T) {
	tests := []struct {
		name     string
		products []Product
	}{
		{"duplicate id", []Product{
			{ID: "P1", Embedding: []float32{1}},
			{ID: "P1", Embedding: []float32{2}},
		}},
		{"missing embedding", []Product{
			{ID: "P1", Embedding: nil},
		}},
		{"dimension mismatch", []Product{
			{ID: "P1", Embedding: []float32{1, 2}},
			{ID: "P2", Embedding: []float32{1, 2, 3}},
		}},
		{"empty id", []Product{
			{ID: "", Embedding: []float32{1}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.products)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrDataFormat) {
				t.Errorf("expected ErrDataFormat, got %v", err)
			}
		})
	}
}

func TestCatalog_Random(t *testing.T) {
	c, err := NewCatalog(testProducts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for range 20 {
		p, err := c.Random()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := c.Get(p.ID); !ok {
			t.Fatalf("Random returned unknown product %q", p.ID)
		}
	}
}

func TestCatalog_RandomEmpty(t *testing.T) {
	c, err := NewCatalog(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Random(); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}
}
