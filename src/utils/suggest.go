// Package utils contains small helpers shared by the CLI and config handling.
package utils

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/exp/slices"
)

type candidate struct {
	name     string
	distance int
}

// Suggest returns the members of haystack within maxSuggestionDistance edits of needle,
// closest first. Ties keep their order in haystack.
func Suggest(needle string, haystack []string, maxSuggestionDistance int) []string {
	r := []rune(needle)
	var candidates []candidate
	for _, straw := range haystack {
		if straw == "" {
			continue
		}
		if d := levenshtein.DistanceForStrings(r, []rune(straw), levenshtein.DefaultOptions); d <= maxSuggestionDistance {
			candidates = append(candidates, candidate{name: straw, distance: d})
		}
	}
	slices.SortStableFunc(candidates, func(a, b candidate) bool { return a.distance < b.distance })
	ret := make([]string, len(candidates))
	for i, c := range candidates {
		ret[i] = c.name
	}
	return ret
}

// PrettyPrintSuggestion turns the suggestions for needle into a message to append to an error,
// or the empty string if there aren't any.
// The question mark is spaced off so the suggestion can be selected without it.
func PrettyPrintSuggestion(needle string, haystack []string, maxSuggestionDistance int) string {
	options := Suggest(needle, haystack, maxSuggestionDistance)
	switch len(options) {
	case 0:
		return ""
	case 1:
		return "\nMaybe you meant " + options[0] + " ?"
	}
	return "\nMaybe you meant " + strings.Join(options[:len(options)-1], " , ") + " or " + options[len(options)-1] + " ?"
}
