package router

import (
	"fmt"
	"strings"
)

// Kind classifies a request target.
type Kind string

const (
	KindAPI      Kind = "api"
	KindStatic   Kind = "static"
	KindFallback Kind = "fallback"
)

// Rule is one entry in a route table: a path prefix and the kind of traffic
// it captures. A prefix matches its own path and any path below it on a
// segment boundary, so "/api" captures "/api" and "/api/widgets" but never
// "/apiary".
type Rule struct {
	Prefix string
	Kind   Kind
}

func (r Rule) matches(path string) bool {
	if r.Prefix == "/" {
		return true
	}
	return path == r.Prefix || strings.HasPrefix(path, r.Prefix+"/")
}

// Classification is the total result of classifying one path: exactly one
// kind, plus the rule that produced it.
type Classification struct {
	Kind Kind
	Rule Rule
}

// Table is an ordered route table. Ordering carries the routing contract:
// api rules come before anything else so no API path can be shadowed by a
// file of the same name, and the single fallback rule is always last.
type Table struct {
	rules []Rule
}

// NewTable validates rule ordering and returns the table. It fails when the
// table has no fallback, more than one, a fallback that is not last, or an
// api rule appearing after a static rule.
func NewTable(rules []Rule) (*Table, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("route table needs at least a fallback rule")
	}

	fallbacks := 0
	sawStatic := false
	for i, rule := range rules {
		switch rule.Kind {
		case KindAPI:
			if sawStatic {
				return nil, fmt.Errorf("api rule %q listed after a static rule; api rules must come first", rule.Prefix)
			}
		case KindStatic:
			sawStatic = true
		case KindFallback:
			fallbacks++
			if i != len(rules)-1 {
				return nil, fmt.Errorf("fallback rule must be last, found at position %d", i)
			}
		default:
			return nil, fmt.Errorf("rule %q has unknown kind %q", rule.Prefix, rule.Kind)
		}

		if !strings.HasPrefix(rule.Prefix, "/") {
			return nil, fmt.Errorf("rule prefix %q must start with /", rule.Prefix)
		}
	}
	if fallbacks != 1 {
		return nil, fmt.Errorf("route table needs exactly one fallback rule, found %d", fallbacks)
	}

	return &Table{rules: append([]Rule(nil), rules...)}, nil
}

// DefaultTable builds the canonical table for a set of API prefixes: the api
// rules in order, then a root fallback capturing everything else.
func DefaultTable(apiPrefixes []string) *Table {
	rules := make([]Rule, 0, len(apiPrefixes)+1)
	for _, prefix := range apiPrefixes {
		rules = append(rules, Rule{Prefix: prefix, Kind: KindAPI})
	}
	rules = append(rules, Rule{Prefix: "/", Kind: KindFallback})

	table, err := NewTable(rules)
	if err != nil {
		// Only reachable with malformed prefixes, which config validation
		// rejects before a table is ever built.
		panic(fmt.Sprintf("building default route table: %v", err))
	}
	return table
}

// Classify maps a path to exactly one classification by first-match over
// the ordered rules. It is pure: no filesystem or network I/O, so the
// static-vs-fallback decision a terminal action makes later (does this file
// exist?) never leaks into routing.
func (t *Table) Classify(path string) Classification {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	for _, rule := range t.rules {
		if rule.matches(path) {
			return Classification{Kind: rule.Kind, Rule: rule}
		}
	}

	// The trailing fallback rule matches every path; validation guarantees
	// it exists.
	last := t.rules[len(t.rules)-1]
	return Classification{Kind: last.Kind, Rule: last}
}

// Rules returns a copy of the ordered rules for display surfaces.
func (t *Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}
