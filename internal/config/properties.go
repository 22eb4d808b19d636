package config

import (
	"sort"
	"strings"
)

// UnknownProperty is the display name reported for ids missing from the mapping.
const UnknownProperty = "Unknown Property"

// Properties maps a property display name to the Stayflexi hotel id.
// envconfig decodes it from "name:id,name:id".
type Properties map[string]string

// Property is one entry of the mapping.
type Property struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

func DefaultProperties() Properties {
	return Properties{
		"EdenBeachResort":       "30357",
		"Villa Shakti":          "27724",
		"Le Pondy Beachside":    "27723",
		"Le Royce Villa":        "27722",
		"Le Poshe Suite":        "27721",
		"Le Poshe Luxury":       "27720",
		"Le Poshe Beach View":   "27719",
		"La Villa Heritage":     "27711",
		"La Tamara suite":       "27710",
		"La Tamara Luxury":      "27709",
		"La Paradise Residency": "27707",
		"La Paradise Luxury":    "27706",
		"La Antilia Luxury":     "27704",
		"La Millionaire Resort": "31550",
		"Le Park Resort":        "32470",
	}
}

// Name returns the display name for a hotel id.
func (p Properties) Name(id string) string {
	for name, pid := range p {
		if pid == id {
			return name
		}
	}

	return UnknownProperty
}

// ID looks a property up by display name (case-insensitive) or by id.
func (p Properties) ID(nameOrID string) (string, bool) {
	for name, pid := range p {
		if pid == nameOrID || strings.EqualFold(name, nameOrID) {
			return pid, true
		}
	}

	return "", false
}

// Sorted returns the mapping ordered by hotel id.
func (p Properties) Sorted() []Property {
	out := make([]Property, 0, len(p))
	for name, id := range p {
		out = append(out, Property{Name: name, ID: id})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == out[j].ID {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	return out
}
