package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/witness/extract"
)

const taggingResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "text": {
            "type": "string"
          },
          "category": {
            "type": "string"
          }
        },
        "required": ["text", "category"],
        "additionalProperties": false
      }
    }
  },
  "required": ["entities"],
  "additionalProperties": false
}`

const taggingPromptTemplate = `Find the names of people, organizations and places in the given text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- The text field must be copied exactly as it appears in the input, including capitalization and diacritics.
- The category field must be exactly one of: %s.
- Include full names when both given and family name appear ("Anna Nowak", not "Anna").
- Do not include email addresses, channel names, product names or generic words.
- The input may be in English or Polish, and may be a fragment of a chat, an email or a screen capture.
- If nothing is found, return "entities": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "Kamil Moskała 7:10 PM Czy wysłałeś ofertę do Allegro? Jestem w Krakowie do piątku"
Output:
{
  "entities": [
    {"text":"Kamil Moskała","category":"personal_name"},
    {"text":"Allegro","category":"organization"},
    {"text":"Krakowie","category":"place"}
  ]
}

Example (informal, no names):
Input: "ok sounds good see u tmrw"
Output:
{
  "entities": []
}`

var taggingCategories = []string{
	string(extract.PersonalName),
	string(extract.Organization),
	string(extract.Place),
}

// buildSystemPrompt creates the system prompt with categories embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(taggingPromptTemplate,
		taggingResponseSchema,
		strings.Join(taggingCategories, ", "))
}
