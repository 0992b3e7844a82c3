package tasks

import "lernapp-service/internal/domain"

type item struct {
	prompt string
	answer string
}

var banks = map[domain.Subject]map[domain.Difficulty][]item{
	domain.SubjectGerman: {
		domain.DifficultyEasy: {
			{`Wie schreibt man "Haus" in der Mehrzahl?`, "Häuser"},
			{"Der/Die/Das... Katze?", "Die"},
			{`Wie heißt das Gegenteil von "groß"?`, "klein"},
			{"Ergänze: Ich ___ zur Schule. (gehen)", "gehe"},
			{"Wie viele Buchstaben hat das Alphabet?", "26"},
		},
		domain.DifficultyMedium: {
			{`Konjugiere "haben" in der 3. Person Singular:`, "hat"},
			{`Was ist der Genitiv von "der Mann"?`, "des Mannes"},
			{"Ergänze das Adjektiv: Das rot__ Auto", "rote"},
			{`Wie heißt die Steigerung von "gut"?`, "besser"},
			{"Setze das richtige Pronomen ein: ___ bin müde.", "Ich"},
		},
		domain.DifficultyHard: {
			{`Bilde das Perfekt: "Ich lese ein Buch"`, "Ich habe ein Buch gelesen"},
			{"Was ist ein Substantiv? (Ein Wort für...)", "Personen, Tiere oder Dinge"},
			{`Konjugiere "werden" im Präteritum, 1. Person Singular:`, "wurde"},
			{"Ergänze: Trotz d__ Regen__ gehen wir spazieren.", "des Regens"},
			{`Was bedeutet "Metapher"?`, "Sprachliches Bild"},
		},
	},
	domain.SubjectEnglish: {
		domain.DifficultyEasy: {
			{`Translate: "Hund"`, "dog"},
			{`What is the plural of "child"?`, "children"},
			{"Complete: I ___ happy. (am/is/are)", "am"},
			{"What color is the sun?", "yellow"},
			{`How do you say "Guten Morgen" in English?`, "good morning"},
		},
		domain.DifficultyMedium: {
			{`What is the past tense of "go"?`, "went"},
			{"Complete: She ___ to school yesterday. (go)", "went"},
			{`What is the opposite of "big"?`, "small"},
			{`Form the comparative of "good":`, "better"},
			{"Complete: I have ___ working here for 5 years.", "been"},
		},
		domain.DifficultyHard: {
			{"What is the third conditional structure?", "If + past perfect, would have + past participle"},
			{"Complete: I wish I ___ studied harder. (past)", "had"},
			{"What is a gerund?", "verb + ing used as noun"},
			{`Form the passive: "They built the house."`, "The house was built"},
			{"Complete: By next year, I ___ have graduated.", "will"},
		},
	},
}
