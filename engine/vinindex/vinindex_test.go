package vinindex

import (
	"errors"
	"strings"
	"testing"

	"github.com/AutoEstimateAI/autoestimate-mvp/engine/domain"
)

func testRows() []Row {
	return []Row{
		{VIN: "1HGBH41JXMN109186", Make: "HONDA", Model: "Civic", Year: 2018},
		{VIN: "1HGBH41JXMN109200", Make: "HONDA", Model: "Civic", Year: 2019},
		{VIN: "5YJ3E1EA1NF123456", Make: "TESLA", Model: "Model 3", Year: 2022},
	}
}

func TestResolve_ExactMatch(t *testing.T) {
	r := New(testRows())
	v, err := r.Resolve("1HGBH41JXMN109200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Make != "HONDA" || v.Model != "Civic" || v.Year != 2019 {
		t.Errorf("got %+v, want 2019 HONDA Civic", v)
	}
	if v.VIN != "1HGBH41JXMN109200" {
		t.Errorf("resolved vehicle should carry the requested VIN, got %q", v.VIN)
	}
}

func TestResolve_PrefixFallbackTakesFirstRow(t *testing.T) {
	r := New(testRows())
	// Same 11-char prefix as both Civic rows, unknown serial suffix.
	v, err := r.Resolve("1HGBH41JXMN999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Year != 2018 {
		t.Errorf("prefix fallback should take the first matching row, got year %d", v.Year)
	}
}

func TestResolve_NotFound(t *testing.T) {
	r := New(testRows())
	if _, err := r.Resolve("WVWZZZ1JZXW000001"); !errors.Is(err, domain.ErrVINNotFound) {
		t.Errorf("expected ErrVINNotFound, got %v", err)
	}
}

func TestResolve_ShortVINCannotUseFallback(t *testing.T) {
	r := New(testRows())
	if _, err := r.Resolve("1HGBH41JXM"); !errors.Is(err, domain.ErrVINNotFound) {
		t.Errorf("10-char VIN must not prefix-match, got %v", err)
	}
	// Exactly 11 chars is enough for the fallback.
	if _, err := r.Resolve("1HGBH41JXMN"); err != nil {
		t.Errorf("11-char VIN should prefix-match, got %v", err)
	}
}

func TestResolve_PrefixFallbackDisabled(t *testing.T) {
	r := New(testRows(), WithPrefixFallback(false))
	if _, err := r.Resolve("1HGBH41JXMN999999"); !errors.Is(err, domain.ErrVINNotFound) {
		t.Errorf("fallback disabled: expected ErrVINNotFound, got %v", err)
	}
	if _, err := r.Resolve("1HGBH41JXMN109186"); err != nil {
		t.Errorf("exact match must still work with fallback disabled: %v", err)
	}
}

func TestResolve_NormalisesInput(t *testing.T) {
	r := New(testRows())
	if _, err := r.Resolve("  1hgbh41jxmn109186 "); err != nil {
		t.Errorf("lookup should be case- and whitespace-insensitive: %v", err)
	}
}

func TestNew_DoesNotMutateInputRows(t *testing.T) {
	rows := []Row{{VIN: "  1hgbh41jxmn109186 ", Make: "HONDA", Model: "Civic", Year: 2018}}
	r := New(rows)

	if rows[0].VIN != "  1hgbh41jxmn109186 " {
		t.Errorf("caller's rows were modified: %q", rows[0].VIN)
	}
	if _, err := r.Resolve("1HGBH41JXMN109186"); err != nil {
		t.Errorf("registry should hold the normalised VIN: %v", err)
	}
}

func TestLoadCSV(t *testing.T) {
	data := "VIN,Make,Model,Year\n" +
		"1HGBH41JXMN109186,HONDA,Civic,2018\n" +
		"5YJ3E1EA1NF123456,TESLA,Model 3,2022\n"
	r, err := LoadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", r.Len())
	}
	v, err := r.Resolve("5YJ3E1EA1NF123456")
	if err != nil || v.Model != "Model 3" {
		t.Errorf("got %+v, %v", v, err)
	}
}

func TestLoadCSV_MissingColumn(t *testing.T) {
	if _, err := LoadCSV(strings.NewReader("VIN,Make,Model\nx,y,z\n")); err == nil {
		t.Error("expected error for missing year column")
	}
}

func TestLoadCSV_BadYear(t *testing.T) {
	if _, err := LoadCSV(strings.NewReader("VIN,Make,Model,Year\nx,y,z,notayear\n")); err == nil {
		t.Error("expected error for non-numeric year")
	}
}
