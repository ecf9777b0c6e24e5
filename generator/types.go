package generator

// StyleDirective controls how many lines the generated post should have.
type StyleDirective int

const (
	StyleOneLine StyleDirective = iota + 1
	StyleTwoLines
	StyleThreeLines
	StyleFourLines
	StyleFiveLines
)

// Styles lists every directive in order; selection is uniform over it.
var Styles = []StyleDirective{
	StyleOneLine,
	StyleTwoLines,
	StyleThreeLines,
	StyleFourLines,
	StyleFiveLines,
}

var styleInstructions = map[StyleDirective]string{
	StyleOneLine:    "Write ONE short line only. One thought. Under 200 characters. End with a full stop or a question mark. Do not start another idea after that.",
	StyleTwoLines:   `Write TWO short lines. Line 1 is one thought. Line 2 is a second thought. Put ONE blank line (\n\n) between them. Each line must end with a full stop or a question mark. Do not add more lines.`,
	StyleThreeLines: `Write THREE short lines. Each line is its own small thought about my work. Put a blank line (\n\n) between each line. Each line must end clean. Do not add a fourth line.`,
	StyleFourLines:  `Write FOUR short lines. Treat it like a mini log of today. Put blank lines (\n\n) between lines. Each line must end clean. Do not add a fifth line.`,
	StyleFiveLines:  `Write FIVE short lines max. Each line is one clear point. Put blank lines (\n\n) between lines. Each line must end clean. Stop after five lines.`,
}

// Instruction returns the prompt text for the directive.
func (s StyleDirective) Instruction() string {
	return styleInstructions[s]
}

func (s StyleDirective) String() string {
	switch s {
	case StyleOneLine:
		return "1-line"
	case StyleTwoLines:
		return "2-line"
	case StyleThreeLines:
		return "3-line"
	case StyleFourLines:
		return "4-line"
	case StyleFiveLines:
		return "5-line"
	default:
		return "unknown"
	}
}

// MarshalText renders the directive as its short name in JSON responses.
func (s StyleDirective) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Post is the result of one composition.
type Post struct {
	Topic string         `json:"topic,omitempty"`
	Style StyleDirective `json:"style"`
	Raw   string         `json:"raw"`
	Text  string         `json:"text"`
}
