package events

import (
	"fmt"
	"sort"
	"strings"
)

const (
	TypeServerInfo       = "server.info"
	TypePromotionApplied = "promotion.applied"
	TypePromotionFailed  = "promotion.failed"
	TypeConfigReloaded   = "config.reloaded"
)

// GroupTypes lists the event types published for each group name.
var GroupTypes = map[string][]string{
	"promotion": {TypePromotionApplied, TypePromotionFailed},
	"config":    {TypeConfigReloaded},
}

type Event struct {
	Type string
	Data any
}

// Filter reports whether an event should be delivered. A nil Filter passes
// everything.
type Filter func(Event) bool

// FilterTypes returns a Filter passing only the given types, or nil when
// types is empty.
func FilterTypes(types []string) Filter {
	if len(types) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return func(e Event) bool {
		_, ok := allowed[e.Type]
		return ok
	}
}

// NewFilter passes the include types, or everything when include is empty,
// minus the exclude types. It returns nil when both lists are empty.
func NewFilter(include, exclude []string) Filter {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	allow := FilterTypes(include)
	deny := FilterTypes(exclude)
	return func(e Event) bool {
		if deny != nil && deny(e) {
			return false
		}
		return allow == nil || allow(e)
	}
}

// ResolveGroups expands group names through GroupTypes. An unknown name is
// an error.
func ResolveGroups(groups []string) ([]string, error) {
	var types []string
	for _, g := range groups {
		members, ok := GroupTypes[g]
		if !ok {
			return nil, fmt.Errorf("unknown event group %q (want one of %s)", g, strings.Join(groupNames(), ", "))
		}
		types = append(types, members...)
	}
	return types, nil
}

// FilterGroups returns a Filter passing the types of the given groups, or
// nil when groups is empty.
func FilterGroups(groups []string) (Filter, error) {
	types, err := ResolveGroups(groups)
	if err != nil {
		return nil, err
	}
	return FilterTypes(types), nil
}

func groupNames() []string {
	names := make([]string, 0, len(GroupTypes))
	for name := range GroupTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Send delivers e on ch without blocking. It reports false when ch is nil,
// full, or f rejects the event.
func Send(ch chan<- Event, f Filter, e Event) bool {
	if ch == nil || (f != nil && !f(e)) {
		return false
	}
	select {
	case ch <- e:
		return true
	default:
		return false
	}
}
