package display

// Severity picks the color of a notice line.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// NoticeLine renders a single transient message, e.g. "! Could not download prayer times."
func NoticeLine(sev Severity, message string) string {
	switch sev {
	case SeverityError:
		return Red("✗ " + message)
	case SeverityWarning:
		return Yellow("! " + message)
	}
	return Gray("· " + message)
}

// Countdown renders the remaining-time text of the next prayer.
func Countdown(text string) string {
	return Green(text)
}
