package registration

// Option is a selectable answer in the registration form.
type Option struct {
	Value string
	Label string
	Hint  string
}

// GoalOptions are the answers for "primary goal" (step 2).
var GoalOptions = []Option{
	{Value: "weight-loss", Label: "Abnehmen", Hint: "🔥"},
	{Value: "muscle-gain", Label: "Muskelaufbau", Hint: "💪"},
	{Value: "fitness", Label: "Allgemeine Fitness", Hint: "⚡"},
	{Value: "strength", Label: "Kraft steigern", Hint: "🏋️"},
	{Value: "endurance", Label: "Ausdauer verbessern", Hint: "🏃"},
	{Value: "health", Label: "Gesundheit fördern", Hint: "❤️"},
}

// LevelOptions are the answers for "current fitness level" (step 2).
var LevelOptions = []Option{
	{Value: "beginner", Label: "Anfänger", Hint: "Wenig bis keine Erfahrung"},
	{Value: "intermediate", Label: "Fortgeschritten", Hint: "Regelmäßiges Training seit einigen Monaten"},
	{Value: "advanced", Label: "Erfahren", Hint: "Jahrelange Trainingserfahrung"},
}

// TimeOptions are the answers for "available time per week" (step 3).
var TimeOptions = []Option{
	{Value: "1-2h", Label: "1-2 Stunden", Hint: "Perfekt für den Einstieg"},
	{Value: "3-4h", Label: "3-4 Stunden", Hint: "Gute Balance"},
	{Value: "5-6h", Label: "5-6 Stunden", Hint: "Ambitioniert"},
	{Value: "7h+", Label: "7+ Stunden", Hint: "Sehr engagiert"},
}

// PreferredTimeOptions are the answers for "preferred training time" (step 3).
var PreferredTimeOptions = []Option{
	{Value: "morning", Label: "Morgens", Hint: "🌅"},
	{Value: "afternoon", Label: "Mittags", Hint: "☀️"},
	{Value: "evening", Label: "Abends", Hint: "🌙"},
}

// Challenges is the multi-select list of step 4.
var Challenges = []string{
	"Zeitmangel",
	"Motivation aufrechterhalten",
	"Richtige Ernährung",
	"Verletzungen/Schmerzen",
	"Stress im Alltag",
	"Selbstdisziplin",
	"Plateau überwinden",
	"Work-Life-Balance",
}

// HearAboutUsOptions are the answers for "how did you hear about us" (step 4).
var HearAboutUsOptions = []Option{
	{Value: "instagram", Label: "Instagram"},
	{Value: "tiktok", Label: "TikTok"},
	{Value: "youtube", Label: "YouTube"},
	{Value: "google", Label: "Google Suche"},
	{Value: "friend", Label: "Freunde/Familie"},
	{Value: "other", Label: "Sonstiges"},
}

func hasOption(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

func isChallenge(c string) bool {
	for _, v := range Challenges {
		if v == c {
			return true
		}
	}
	return false
}
