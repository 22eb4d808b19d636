package scraper

import (
	"fmt"
	"slices"
	"strings"
)

var registry = map[string]Scraper{}

// Register makes a source available by name. Registering a name twice panics.
func Register(s Scraper) {
	name := strings.ToLower(s.Name())
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("scraper: source %q registered twice", name))
	}
	registry[name] = s
}

func Get(name string) (Scraper, bool) {
	s, ok := registry[strings.ToLower(name)]
	return s, ok
}

// Names lists the registered sources.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
