package extract

import "strings"

// Input is what every field strategy sees.
type Input struct {
	Text       string
	Lines      []string
	PropertyID string
}

func NewInput(raw, propertyID string) Input {
	return Input{Text: raw, Lines: Lines(raw), PropertyID: propertyID}
}

// Strategy is one way of reading a field; ok is false when it does not apply.
type Strategy[T any] struct {
	Name string
	Fn   func(Input) (T, bool)
}

// Chain is an ordered list of strategies, first match wins.
type Chain[T any] []Strategy[T]

// Run returns the first successful value and the name of the strategy that produced it.
func (c Chain[T]) Run(in Input) (T, string, bool) {
	for _, s := range c {
		if v, ok := s.Fn(in); ok {
			return v, s.Name, true
		}
	}

	var zero T
	return zero, "", false
}

// Lines splits text into trimmed, non-empty lines.
func Lines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
