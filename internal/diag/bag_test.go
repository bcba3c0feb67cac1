package diag

import (
	"testing"

	"typeload/internal/source"
)

func mk(code Code, sev Severity, file source.FileID, start, end uint32) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  "msg",
		Primary:  source.Span{File: file, Start: start, End: end},
	}
}

func TestBag_AddRespectsLimit(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(mk(TranspileError, SevError, 1, 0, 1)) {
		t.Error("first Add should succeed")
	}
	if !bag.Add(mk(TranspileError, SevError, 1, 1, 2)) {
		t.Error("second Add should succeed")
	}
	if bag.Add(mk(TranspileError, SevError, 1, 2, 3)) {
		t.Error("Add past the limit should report a drop")
	}
	if bag.Len() != 2 {
		t.Errorf("Len = %d, want 2", bag.Len())
	}
}

func TestBag_HasErrors(t *testing.T) {
	bag := NewBag(10)
	bag.Add(mk(TranspileWarning, SevWarning, 1, 0, 1))
	if bag.HasErrors() {
		t.Error("warning-only bag should not report errors")
	}
	if !bag.HasWarnings() {
		t.Error("warning-only bag should report warnings")
	}
	bag.Add(mk(TranspileError, SevError, 1, 1, 2))
	if !bag.HasErrors() {
		t.Error("bag with an error should report errors")
	}
}

func TestBag_SortOrdersBySpanThenSeverity(t *testing.T) {
	bag := NewBag(10)
	bag.Add(mk(TranspileError, SevError, 2, 0, 1))
	bag.Add(mk(TranspileWarning, SevWarning, 1, 5, 6))
	bag.Add(mk(TranspileError, SevError, 1, 5, 6))
	bag.Add(mk(TranspileError, SevError, 1, 0, 1))
	bag.Sort()

	items := bag.Items()
	if items[0].Primary.File != 1 || items[0].Primary.Start != 0 {
		t.Errorf("first item = %+v, want file 1 offset 0", items[0].Primary)
	}
	// same span: error sorts before warning
	if items[1].Severity != SevError || items[2].Severity != SevWarning {
		t.Errorf("same-span ordering wrong: %v then %v", items[1].Severity, items[2].Severity)
	}
	if items[3].Primary.File != 2 {
		t.Errorf("last item should be file 2, got %+v", items[3].Primary)
	}
}

func TestBag_Dedup(t *testing.T) {
	bag := NewBag(10)
	bag.Add(mk(TranspileError, SevError, 1, 0, 1))
	bag.Add(mk(TranspileError, SevError, 1, 0, 1))
	bag.Add(mk(TranspileError, SevError, 1, 2, 3))
	bag.Dedup()
	if bag.Len() != 2 {
		t.Errorf("Len after Dedup = %d, want 2", bag.Len())
	}
}

func TestBag_MergeGrowsLimit(t *testing.T) {
	a := NewBag(1)
	a.Add(mk(TranspileError, SevError, 1, 0, 1))
	b := NewBag(2)
	b.Add(mk(TranspileError, SevError, 1, 1, 2))
	b.Add(mk(TranspileError, SevError, 1, 2, 3))

	a.Merge(b)
	if a.Len() != 3 {
		t.Errorf("Len after Merge = %d, want 3", a.Len())
	}
}

func TestBagReporter(t *testing.T) {
	bag := NewBag(10)
	r := BagReporter{Bag: bag}
	r.Report(CheckTypeMismatch, SevError, source.Span{File: 1, Start: 0, End: 4}, "boom", nil)
	if bag.Len() != 1 {
		t.Fatalf("Len = %d, want 1", bag.Len())
	}
	d := bag.Items()[0]
	if d.Code != CheckTypeMismatch || d.Message != "boom" {
		t.Errorf("unexpected diagnostic: %+v", d)
	}
}

func TestCode_String(t *testing.T) {
	if got := CheckTypeMismatch.String(); got != "TL3001" {
		t.Errorf("CheckTypeMismatch.String() = %q, want TL3001", got)
	}
}
