package gemini

import "fmt"

// nameParsingPrompt asks the model to split a full name into components. The
// JSON shape matches what ParseFullName decodes; keep the two in sync.
func nameParsingPrompt(fullName string) string {
	return fmt.Sprintf(`What is the person's first_name, middle_name, and last_name: %s?

Return the result as a JSON object with the keys "first_name", "middle_name",
and "last_name". If a component is unknown, return "unknown" as its value.
For example:

    full_name: Milton Davila
    {"first_name": "Milton", "middle_name": "unknown", "last_name": "Davila"}`, fullName)
}

// directorPrompt asks the model to name the directors of a title, giving it
// the surrounding source fields as identifying context.
func directorPrompt(title TitleContext) string {
	return fmt.Sprintf(`Who is the director of this %s named %s with cast %s produced in %s released in %d?

Return the result as a JSON object with a single key "directors". If there is
more than one director, join their full names with commas:

    {"directors": "First Middle Last, First Middle Last"}

If you don't know the answer, return {"directors": "unknown"}.`,
		title.Type, title.Title, title.Cast, title.Country, title.ReleaseYear)
}
