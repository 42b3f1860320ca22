package prayer

import "fmt"

// DisplayNames maps schedule keys to the Turkish names shown to the user.
var DisplayNames = map[string]string{
	Fajr:    "İmsak",
	Sunrise: "Güneş",
	Dhuhr:   "Öğle",
	Asr:     "İkindi",
	Maghrib: "Akşam",
	Isha:    "Yatsı",
}

// specialNames replace the display name of two entries during Ramadan.
var specialNames = map[string]string{
	Fajr:    "Sahur",
	Maghrib: "İftar",
}

// DisplayName returns the user-facing name of a schedule key.
func DisplayName(key string, special bool) string {
	if special {
		if name, ok := specialNames[key]; ok {
			return name
		}
	}
	if name, ok := DisplayNames[key]; ok {
		return name
	}
	return key
}

// RemainingText renders the countdown. Renamed Ramadan entries read
// "İftara 2s 20d" (or "İftara 20d" under an hour); everything else reads "2s 20d".
func RemainingText(key, name string, hours, minutes int, special bool) string {
	if _, renamed := specialNames[key]; special && renamed {
		if hours > 0 {
			return fmt.Sprintf("%sa %ds %dd", name, hours, minutes)
		}
		return fmt.Sprintf("%sa %dd", name, minutes)
	}
	return fmt.Sprintf("%ds %dd", hours, minutes)
}
