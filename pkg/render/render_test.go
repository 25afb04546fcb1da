package render

import (
	"reflect"
	"strings"
	"testing"

	"ConsignmentExtraction/pkg/models"
)

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"VRID":            "VRID",
		"Trailer_number":  "Trailer number",
		"CRID":            "CRID",
		"SerialNumberGPS": "Serial Number GPS",
		"seal_id":         "Seal id",
	}
	for in, want := range tests {
		if got := Label(in); got != want {
			t.Errorf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFields(t *testing.T) {
	record := models.ExtractionRecord{
		"Seal":                 "77",
		"CRID":                 "http://x/1",
		"VRID":                 "A1",
		"Trailer_number":       "",
		"Axles":                float64(3),
		models.RawErrorTextKey: "oops",
	}

	want := []Field{
		{Key: "VRID", Label: "VRID", Value: "A1"},
		{Key: "Trailer_number", Label: "Trailer number", Value: "N/A"},
		{Key: "CRID", Label: "CRID", Value: "http://x/1", Link: true},
		{Key: "Axles", Label: "Axles", Value: "3"},
		{Key: "Seal", Label: "Seal", Value: "77"},
	}

	if got := Fields(record); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %+v\nwant %+v", got, want)
	}
}

func TestText(t *testing.T) {
	full := Text(models.ExtractionResult{Record: models.ExtractionRecord{"VRID": "A1", "CRID": "C1"}})
	if full != "VRID: A1\nCRID: C1" {
		t.Errorf("Text() = %q", full)
	}

	mixed := Text(models.ExtractionResult{Record: models.ExtractionRecord{"VRID": "A1", models.RawErrorTextKey: "bad"}})
	if !strings.HasSuffix(mixed, "could not be parsed as JSON:\nbad") || !strings.HasPrefix(mixed, "VRID: A1") {
		t.Errorf("Text() = %q", mixed)
	}

	rawOnly := Text(models.ExtractionResult{Record: models.ExtractionRecord{models.RawErrorTextKey: "bad"}})
	if rawOnly != "Response from the model (not valid JSON):\nbad" {
		t.Errorf("Text() = %q", rawOnly)
	}

	if empty := Text(models.ExtractionResult{}); empty != "No details extracted or an error occurred." {
		t.Errorf("Text() = %q", empty)
	}
}
