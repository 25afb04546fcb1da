package models

import (
	"reflect"
	"testing"
)

func TestExtractionRecordHelpers(t *testing.T) {
	r := ExtractionRecord{"VRID": "A1", "CRID": "C1", RawErrorTextKey: "raw"}

	if !r.HasRawText() || r.RawText() != "raw" {
		t.Errorf("raw text = %q", r.RawText())
	}
	if r.IsRawOnly() {
		t.Error("IsRawOnly() = true for a record with fields")
	}
	if got := r.StructuredKeys(); !reflect.DeepEqual(got, []string{"CRID", "VRID"}) {
		t.Errorf("StructuredKeys() = %v", got)
	}

	c := r.Clone()
	c["VRID"] = "B2"
	if r["VRID"] != "A1" {
		t.Error("Clone() shares storage with the original")
	}

	rawOnly := ExtractionRecord{RawErrorTextKey: "raw"}
	if !rawOnly.IsRawOnly() || len(rawOnly.StructuredKeys()) != 0 {
		t.Errorf("raw-only record misreported: %v", rawOnly)
	}

	var empty ExtractionRecord
	if empty.HasRawText() || empty.RawText() != "" || len(empty.StructuredKeys()) != 0 {
		t.Error("nil record should have no raw text or keys")
	}
}
