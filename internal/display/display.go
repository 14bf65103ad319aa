// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output, markdown reports and logs.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

import (
	"fmt"
	"strings"
)

// --- Severities ---

var severities = map[string]string{
	"error":   "Error",
	"warning": "Warning",
	"info":    "Info",
}

// Severity returns the human-readable name for a severity code.
// Unknown codes are returned as-is.
func Severity(code string) string {
	if name, ok := severities[code]; ok {
		return name
	}
	return code
}

// --- Outcomes ---

var outcomes = map[string]string{
	"valid":        "Passed",
	"invalid":      "Failed",
	"missing":      "Missing Property",
	"inapplicable": "Not Applicable",
}

// Outcome returns the human-readable name for a classification.
// "missing" -> "Missing Property".
func Outcome(code string) string {
	if name, ok := outcomes[code]; ok {
		return name
	}
	return code
}

// --- Predicates ---

var predicates = map[string]string{
	"equals":       "Equals",
	"matches":      "Matches",
	"greater_than": "Greater Than",
	"less_than":    "Less Than",
	"in_range":     "In Range",
	"in_list":      "In List",
	"is_true":      "Is True",
	"is_false":     "Is False",
}

// Predicate returns the human-readable name for a predicate kind.
// "greater_than" -> "Greater Than".
func Predicate(code string) string {
	if name, ok := predicates[code]; ok {
		return name
	}
	return code
}

// PredicateWithCode returns "Greater Than (greater_than)" format.
func PredicateWithCode(code string) string {
	if name, ok := predicates[code]; ok {
		return name + " (" + code + ")"
	}
	return code
}

// --- Run status ---

var statuses = map[string]string{
	"running":   "Running",
	"succeeded": "Succeeded",
	"failed":    "Failed",
}

// Status returns the human-readable name for a run status.
func Status(code string) string {
	if name, ok := statuses[code]; ok {
		return name
	}
	return code
}

// --- Functions ---

var functions = map[string]string{
	"comment-random":    "Comment Random Object",
	"comment-many":      "Comment Many Objects",
	"validate-property": "Validate Property",
	"apply-rules":       "Apply Rules",
}

// Function returns the human-readable name for an automation function.
func Function(code string) string {
	if name, ok := functions[code]; ok {
		return name
	}
	return code
}

// --- Object lists ---

// ObjectIDs joins up to max identifiers and summarises the rest.
// ["a","b","c"], 2 -> "a, b (+1 more)". max <= 0 means no limit.
func ObjectIDs(ids []string, max int) string {
	if max <= 0 || len(ids) <= max {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(ids[:max], ", "), len(ids)-max)
}
