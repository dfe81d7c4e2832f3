package catalog

import (
	"strings"
	"testing"
)

func TestLoadCSV(t *testing.T) {
	data := "Make,Part Description,Price\n" +
		"HONDA,Hood Panel,450.50\n" +
		"HONDA,Front Bumper Cover,310\n"
	entries, err := LoadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Price != 450.50 || entries[0].Make != "HONDA" {
		t.Errorf("got %+v", entries[0])
	}
}

func TestLoadCSV_AltDescriptionHeader(t *testing.T) {
	entries, err := LoadCSV(strings.NewReader("Make,Description,Price\nHONDA,Hood,450\n"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("got %v, %d entries", err, len(entries))
	}
}

func TestLoadCSV_BadHeader(t *testing.T) {
	if _, err := LoadCSV(strings.NewReader("Make,Price\nHONDA,450\n")); err == nil {
		t.Error("expected error for missing description column")
	}
}

func TestLoadCSV_BadPrice(t *testing.T) {
	if _, err := LoadCSV(strings.NewReader("Make,Description,Price\nHONDA,Hood,free\n")); err == nil {
		t.Error("expected error for non-numeric price")
	}
}
