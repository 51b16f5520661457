// Package util provides utility functions for the trust resolver.
package util

import (
	"strconv"
	"strings"

	"github.com/ortelius/pdvd-trust/model"
)

// GetSeverityRating returns the severity rating for a given CVSS score
func GetSeverityRating(score float64) string {
	switch {
	case score == 0:
		return "NONE"
	case score < 4.0:
		return "LOW"
	case score < 7.0:
		return "MEDIUM"
	case score < 9.0:
		return "HIGH"
	default:
		return "CRITICAL"
	}
}

// SeverityRating rates a CVSS v3 score string. It returns "" when the score
// is missing or not a number.
func SeverityRating(c *model.Cvss3) string {
	if c == nil {
		return ""
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(c.Score), 64)
	if err != nil || score < 0 || score > 10 {
		return ""
	}
	return GetSeverityRating(score)
}

// VulnerabilitySeverity prefers the catalog's own severity and falls back to
// the CVSS v3 rating, then "UNKNOWN"
func VulnerabilitySeverity(v model.Vulnerability) string {
	if v.Severity != nil && IsNotEmpty(*v.Severity) {
		return strings.ToUpper(*v.Severity)
	}
	if rating := SeverityRating(v.Cvss3); rating != "" {
		return rating
	}
	return "UNKNOWN"
}
