package extract

import "regexp"

// Patterns avoid \b because RE2 word boundaries are ASCII-only and names such
// as "Moskała" or "Łukasz" must match whole. A leading non-capturing group
// stands in for the left boundary; Extract checks the right one.
var (
	// "Kamil Moskała 7:10 PM"
	nameWithTimePattern = regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(\p{Lu}\p{Ll}+)[ \t]+(\p{Lu}\p{Ll}+)\s+\d{1,2}:\d{2}(?:\s?[AaPp][Mm])?`)

	// ". Anna Nowak" after a sentence end.
	sentencePersonPattern = regexp.MustCompile(`[.!?]\s+(\p{Lu}\p{Ll}+)[ \t]+(\p{Lu}\p{Ll}+)`)

	// "Message to Anna" or "Message to Anna Nowak"
	messageToPattern = regexp.MustCompile(`(?:^|[^\p{L}\p{N}])Message to (\p{Lu}\p{Ll}+(?:[ \t]+\p{Lu}\p{Ll}+)?)`)

	// "#launch-plan" at the start of a word.
	hashtagPattern = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_-]+)`)

	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// An amount with a trailing currency code or symbol, or a leading symbol.
	// The outer groups stop amounts from starting in the middle of a number
	// and codes from ending in the middle of a word.
	moneyPattern = regexp.MustCompile(
		`(?:^|[^\p{L}\p{N}.,])(` +
			`[$€£]\s?` + amount +
			`|` + amount + `\s?(?:PLN|USD|EUR|GBP|CHF|zł|zl|[$€£])` +
			`)(?:$|[^\p{L}])`)

	capitalizedWordPattern = regexp.MustCompile(`\p{Lu}\p{Ll}+`)
)

const amount = `(?:\d{1,3}(?:[ ,.]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)`

// sentenceStarters are capitalized words that commonly open a sentence and
// are never the given name in ". Given Family".
var sentenceStarters = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "There": true,
	"Please": true, "Thanks": true, "Thank": true, "Hello": true, "Hi": true,
	"We": true, "You": true, "It": true, "If": true, "In": true, "On": true,
	"At": true, "For": true, "And": true, "But": true, "See": true,
	"Dear": true, "Dzień": true, "Dzięki": true, "Cześć": true, "Proszę": true,
}

// DefaultGivenNames are common given names in the target locale. A pair of
// capitalized words led by one of them is taken as a person.
var DefaultGivenNames = []string{
	// Polish
	"Adam", "Agnieszka", "Aleksandra", "Andrzej", "Anna", "Barbara", "Bartosz",
	"Beata", "Dariusz", "Dominik", "Ewa", "Grzegorz", "Jakub", "Jan", "Joanna",
	"Kamil", "Karolina", "Katarzyna", "Krzysztof", "Łukasz", "Maciej", "Magdalena",
	"Małgorzata", "Marcin", "Marek", "Maria", "Marta", "Michał", "Monika",
	"Natalia", "Paweł", "Piotr", "Rafał", "Robert", "Stanisław", "Szymon",
	"Tomasz", "Wojciech", "Zofia",
	// English
	"Alice", "Bob", "Chris", "David", "Emily", "Emma", "James", "John",
	"Kate", "Laura", "Mark", "Mary", "Michael", "Sarah", "Tom",
}
