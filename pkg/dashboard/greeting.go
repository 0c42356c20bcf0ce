package dashboard

import "time"

type Greeting string

const (
	GreetingLunch     Greeting = "lunch"
	GreetingSnack     Greeting = "snack"
	GreetingMorning   Greeting = "morning"
	GreetingAfternoon Greeting = "afternoon"
	GreetingEvening   Greeting = "evening"
)

var greetingMessages = map[Greeting]string{
	GreetingLunch:     "お昼ご飯の時間です！🍱",
	GreetingSnack:     "おやつの時間です！🍪",
	GreetingMorning:   "おはようございます！🌅",
	GreetingAfternoon: "こんにちは！☀️",
	GreetingEvening:   "こんばんは！🌙",
}

// GreetingAt picks the greeting for the wall-clock time of t. Lunch and snack
// time take precedence over the part of the day.
func GreetingAt(t time.Time) Greeting {
	hour, minute := t.Hour(), t.Minute()

	switch {
	case hour == 13 || (hour == 14 && minute == 0):
		return GreetingLunch
	case hour == 17 && minute < 30:
		return GreetingSnack
	case hour >= 5 && hour < 12:
		return GreetingMorning
	case hour >= 12 && hour < 18:
		return GreetingAfternoon
	default:
		return GreetingEvening
	}
}

func (g Greeting) Message() string {
	return greetingMessages[g]
}
