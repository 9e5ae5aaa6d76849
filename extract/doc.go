// Package extract recognizes typed entities in observed text.
//
// Extraction is heuristic and pattern based. Stages run in a fixed order and
// each one adds only entities whose value is not already present, compared
// case-insensitively:
//
//  1. "Given Family HH:MM [AM|PM]" chat headers (person)
//  2. conversational markers ". Given Family", "Message to Name" (person)
//     and #channel references (project)
//  3. the configured Tagger (person, company, location)
//  4. the first email address
//  5. the first money amount with a currency
//  6. two capitalized words led by a known given name (person)
//
// Confidence values per stage live in Confidences.
package extract
