package main

import "strings"

// stringSliceFlag accumulates repeated occurrences of a flag into a
// slice, the standard idiom for a repeatable flag.Value with the stdlib
// `flag` package (spec.md §6: "--include <kind> / --exclude <kind>
// (repeatable)").
type stringSliceFlag []string

func (s *stringSliceFlag) String() string { return strings.Join(*s, ",") }

func (s *stringSliceFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}
