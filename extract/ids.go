// Package extract recovers Glose catalog identifiers from arbitrary
// HTML through an ordered table of pattern rules.
package extract

import "regexp"

// Catalog ids are exactly 24 lowercase hexadecimal characters.
var catalogIDPattern = regexp.MustCompile(`^[a-f0-9]{24}$`)

// IsCatalogID reports whether s has the shape of a catalog identifier.
// Uppercase, wrong length, and non-hex input are all rejected.
func IsCatalogID(s string) bool {
	return catalogIDPattern.MatchString(s)
}
