package parsers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"ConsignmentExtraction/pkg/models"
)

// fenceRegex matches a whole answer wrapped in a markdown code block, optionally tagged with a language
var fenceRegex = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// primaryFieldDescriptions pairs each field name with the wording used in the prompt
var primaryFieldDescriptions = map[models.ExtractionField]string{
	models.VRID:            "VRID (Vehicle Registration ID)",
	models.TrailerNumber:   "Trailer_number (Trailer Number)",
	models.CRID:            "CRID (Consignment Reference ID)",
	models.SerialNumberGPS: "SerialNumberGPS (Serial Number GPS)",
}

// PrimaryPrompt returns the instruction sent with the main image.
// The GPS serial number is only requested when no dedicated image for it was supplied.
func PrimaryPrompt(includeSerialGPS bool) string {
	fields := []string{
		primaryFieldDescriptions[models.VRID],
		primaryFieldDescriptions[models.TrailerNumber],
		primaryFieldDescriptions[models.CRID],
	}
	if includeSerialGPS {
		fields = append(fields, primaryFieldDescriptions[models.SerialNumberGPS])
	}

	return fmt.Sprintf(`Extract the following details from the image: %s. For each field, if the detail is not present or clear, return "%s" as its value. Provide the output strictly in JSON format.`,
		strings.Join(fields, ", "), models.NotAvailable)
}

// SerialGPSPrompt returns the instruction sent with the S/N GPS image
func SerialGPSPrompt() string {
	return fmt.Sprintf(`Extract only %s from the image. If not present or clear, return "%s" as its value. Provide the output strictly in JSON format, like {"%s": "value"}.`,
		primaryFieldDescriptions[models.SerialNumberGPS], models.NotAvailable, models.SerialNumberGPS)
}

// cleanJSONResponse trims the answer and removes a surrounding markdown code fence
func cleanJSONResponse(rawText string) string {
	jsonStr := strings.TrimSpace(rawText)
	if m := fenceRegex.FindStringSubmatch(jsonStr); m != nil && m[2] != "" {
		jsonStr = strings.TrimSpace(m[2])
	}
	return jsonStr
}

// ParseResponse turns the model's answer into a record.
// An empty answer yields nil. An answer that is not a JSON object yields a record
// holding only the original text under models.RawErrorTextKey.
func ParseResponse(rawText string) models.ExtractionRecord {
	if rawText == "" {
		return nil
	}

	var record models.ExtractionRecord
	if err := json.Unmarshal([]byte(cleanJSONResponse(rawText)), &record); err != nil || record == nil {
		slog.Warn("parser.not_json", "error", err, "bytes", len(rawText))
		return models.ExtractionRecord{models.RawErrorTextKey: rawText}
	}

	return record
}
