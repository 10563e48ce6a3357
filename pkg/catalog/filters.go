package catalog

import (
	"strings"
)

// SquidContracts are the Squid router addresses used as the default filter set.
var SquidContracts = []string{
	"0xce16F69375520ab01377ce7B88f5BA8C48F8D666",
	"0x492751eC3c57141deb205eC2da8bFcb410738630",
	"0xDC3D8e1Abe590BCa428a8a2FC4CfDbD1AcF57Bd9",
	"0xdf4fFDa22270c12d0b5b3788F1669D709476111E",
	"0xe6B3949F9bBF168f4E3EFc82bc8FD849868CC6d8",
}

// ValidAddress reports whether s passes the filter allow-list.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(strings.TrimSpace(s))
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote renders s as a single-quoted ClickHouse string literal.
func quote(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

// likeEscaper escapes LIKE metacharacters so a filter only ever matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsAny renders a case-insensitive "column contains one of values" predicate.
func containsAny(column string, values []string) string {
	if len(values) == 0 {
		return "0"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = column + " ILIKE " + quote("%"+likeEscaper.Replace(v)+"%")
	}
	return "(" + strings.Join(parts, "\n            OR ") + ")"
}
