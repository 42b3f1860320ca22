package prayer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Format constants for display modes.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatFull               = "full"
)

// ShortNames maps schedule keys to single-character abbreviations.
var ShortNames = map[string]string{
	Fajr:    "İ",
	Sunrise: "G",
	Dhuhr:   "Ö",
	Asr:     "İk",
	Maghrib: "A",
	Isha:    "Y",
}

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Key       string // Schedule key, e.g. "Asr"
	Name      string // Display name, e.g. "İkindi"
	ShortName string // Abbreviated name, e.g. "İk"
	Time      string // Formatted prayer time, e.g. "15:45" or "3:45 PM"
	Remaining string // Countdown text, e.g. "2s 15d"
	Hours     int    // Whole hours remaining
	Minutes   int    // Remaining minutes after hours
}

// FormatOutput formats the next-prayer view according to the chosen mode.
// timeFormat should be "15:04" for 24h or "3:04 PM" for 12h.
//
// If mode contains "{{", it is treated as a custom Go template string.
// Available template fields: .Key, .Name, .ShortName, .Time, .Remaining, .Hours, .Minutes
//
// Example: "{{.Name}} {{.Remaining}}" -> "İkindi 2s 15d"
func FormatOutput(v NextView, mode string, timeFormat string) string {
	timeStr := v.Time.Format(timeFormat)
	short := ShortNames[v.Key]

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, FormatData{
			Key:       v.Key,
			Name:      v.Name,
			ShortName: short,
			Time:      timeStr,
			Remaining: v.Text,
			Hours:     v.Hours,
			Minutes:   v.Minutes,
		})
	}

	switch mode {
	case FormatTimeRemaining:
		return v.Text
	case FormatNextPrayerTime:
		return timeStr
	case FormatNameAndTime:
		return fmt.Sprintf("%s %s", v.Name, timeStr)
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s %s", v.Name, v.Text)
	case FormatShortNameAndTime:
		return fmt.Sprintf("%s %s", short, timeStr)
	case FormatShortNameAndRemain:
		return fmt.Sprintf("%s %s", short, v.Text)
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", v.Name, timeStr, v.Text)
	default:
		return fmt.Sprintf("%s %s", v.Name, timeStr)
	}
}

// formatCustom executes a user-provided Go template string against the FormatData.
func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}
