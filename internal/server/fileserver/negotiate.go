package fileserver

import "github.com/munnerz/goautoneg"

type mediaType int

const (
	mediaHTML mediaType = iota
	mediaJSON
	mediaPlain
)

// listingTypes are the listing formats in order of preference on ties.
var listingTypes = []string{"text/html", "application/json", "text/plain"}

// negotiate picks the listing format from an Accept header. Anything
// unrecognised, including an empty header, falls back to HTML.
func negotiate(accept string) mediaType {
	switch goautoneg.Negotiate(accept, listingTypes) {
	case "application/json":
		return mediaJSON
	case "text/plain":
		return mediaPlain
	default:
		return mediaHTML
	}
}
