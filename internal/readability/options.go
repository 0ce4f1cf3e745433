package readability

import (
	"regexp"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

const (
	// DefaultMaxElemsToParse disables the element ceiling.
	DefaultMaxElemsToParse = 0
	// DefaultNTopCandidates is the size of the candidate shortlist.
	DefaultNTopCandidates = 5
	// DefaultCharThreshold is the minimum text length an attempt must reach.
	DefaultCharThreshold = 500
)

// Options controls a Parser. The zero value of every field selects the
// default, so callers only set what they want to change.
type Options struct {
	// MaxElemsToParse aborts parsing of documents with more elements than
	// this. Zero means unlimited.
	MaxElemsToParse int
	// NbTopCandidates is how many top candidates are compared when looking
	// for a shared ancestor.
	NbTopCandidates int
	// CharThreshold is the number of characters an attempt must produce to be
	// accepted without relaxing heuristics further.
	CharThreshold int
	// ClassesToPreserve are kept when class attributes are stripped.
	// "page" is always preserved.
	ClassesToPreserve []string
	// KeepClasses skips class stripping entirely.
	KeepClasses bool
	// Serializer renders the final container into Article.Content. Defaults
	// to the container's inner HTML.
	Serializer func(*html.Node) string
	// DisableJSONLD skips JSON-LD metadata.
	DisableJSONLD bool
	// AllowedVideoRegex matches iframe/object/embed sources that are kept as
	// video embeds.
	AllowedVideoRegex *regexp.Regexp
	// LinkDensityModifier is added to the 0.2 and 0.5 link density limits
	// used by conditional cleaning.
	LinkDensityModifier float64
	// Logger receives diagnostics. Nil disables logging.
	Logger *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.NbTopCandidates <= 0 {
		o.NbTopCandidates = DefaultNTopCandidates
	}
	if o.CharThreshold <= 0 {
		o.CharThreshold = DefaultCharThreshold
	}
	if o.MaxElemsToParse < 0 {
		o.MaxElemsToParse = DefaultMaxElemsToParse
	}
	preserve := make([]string, 0, len(DefaultClassesToPreserve)+len(o.ClassesToPreserve))
	seen := make(map[string]struct{})
	for _, c := range append(append([]string{}, DefaultClassesToPreserve...), o.ClassesToPreserve...) {
		if _, ok := seen[c]; ok || c == "" {
			continue
		}
		seen[c] = struct{}{}
		preserve = append(preserve, c)
	}
	o.ClassesToPreserve = preserve
	if o.Serializer == nil {
		o.Serializer = innerHTML
	}
	if o.AllowedVideoRegex == nil {
		o.AllowedVideoRegex = rxVideos
	}
	return o
}

// flags is the immutable set of heuristics active during one attempt.
type flags uint8

const (
	flagStripUnlikelys flags = 1 << iota
	flagWeightClasses
	flagCleanConditionally
)

// attemptFlags lists the heuristic combinations tried in order, each one
// more permissive than the last.
var attemptFlags = []flags{
	flagStripUnlikelys | flagWeightClasses | flagCleanConditionally,
	flagWeightClasses | flagCleanConditionally,
	flagCleanConditionally,
	0,
}

func (f flags) has(flag flags) bool {
	return f&flag != 0
}
