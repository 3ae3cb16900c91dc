// Package tone maps record states to badge colour classes.
package tone

// Tone is the colour class of a status badge.
type Tone string

const (
	Success Tone = "success"
	Warning Tone = "warning"
	Danger  Tone = "danger"
	Info    Tone = "info"
	Neutral Tone = "neutral"
)

// RGB returns the fill colour used when a tone is rendered in documents.
func (t Tone) RGB() (int, int, int) {
	switch t {
	case Success:
		return 198, 239, 206
	case Warning:
		return 255, 235, 156
	case Danger:
		return 255, 199, 206
	case Info:
		return 189, 215, 238
	default:
		return 242, 242, 242
	}
}

// Hex returns the RGB fill as an upper-case hex string without '#'.
func (t Tone) Hex() string {
	r, g, b := t.RGB()
	const digits = "0123456789ABCDEF"
	out := make([]byte, 0, 6)
	for _, c := range []int{r, g, b} {
		out = append(out, digits[c>>4], digits[c&0x0f])
	}
	return string(out)
}
