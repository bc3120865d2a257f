package common

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	backtickFence = regexp.MustCompile("(?s)^```(?:json|JSON)?\\s*\n(.*?)\n```$")
	tildeFence    = regexp.MustCompile("(?s)^~~~(?:json|JSON)?\\s*\n(.*?)\n~~~$")
	inlineFence   = regexp.MustCompile("(?s)^```(?:json|JSON)?\\s*(.*?)\\s*```$")
	numberComma   = regexp.MustCompile(`(\d),(\d)`)
)

// CleanJSONResponse strips the formatting LLMs like to wrap JSON in:
// markdown code fences (``` or ~~~, multi-line or single-line), stray
// backticks, and thousands separators inside numbers (85,000 -> 85000).
func CleanJSONResponse(response string) string {
	text := strings.TrimSpace(response)

	if m := backtickFence.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	} else if m := tildeFence.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	} else if m := inlineFence.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	text = strings.TrimSpace(strings.Trim(text, "`"))

	// Numbers like 1,234,567 need repeated passes.
	for {
		cleaned := numberComma.ReplaceAllString(text, "$1$2")
		if cleaned == text {
			break
		}
		text = cleaned
	}
	return text
}

// ParseJSON cleans and unmarshals a JSON string into a type T.
// It handles common LLM quirks like surrounding markdown or extra text.
func ParseJSON[T any](response string) (T, error) {
	var zero T
	jsonStr := CleanJSONResponse(response)

	// Find first '{' and last '}'
	start := strings.IndexByte(jsonStr, '{')
	end := strings.LastIndexByte(jsonStr, '}')

	if start == -1 {
		return zero, fmt.Errorf("no JSON object found in response (missing '{')")
	}
	if end > start {
		jsonStr = jsonStr[start : end+1]
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, preview(jsonStr))
	}

	return result, nil
}

// ValidateJSON checks a cleaned LLM reply against a JSON schema document.
func ValidateJSON(schemaJSON, doc string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewStringLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("response does not match schema: %v", errs)
	}

	return nil
}

// ParseValidatedJSON validates the reply against a schema before
// unmarshalling it, so malformed agent output fails loudly.
func ParseValidatedJSON[T any](response, schemaJSON string) (T, error) {
	var zero T
	jsonStr := CleanJSONResponse(response)

	start := strings.IndexByte(jsonStr, '{')
	end := strings.LastIndexByte(jsonStr, '}')
	if start == -1 {
		return zero, fmt.Errorf("no JSON object found in response (missing '{')")
	}
	if end > start {
		jsonStr = jsonStr[start : end+1]
	}

	if err := ValidateJSON(schemaJSON, jsonStr); err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, preview(jsonStr))
	}
	return result, nil
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
