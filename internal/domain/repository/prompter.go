package repository

// Prompter defines the interactive console surface. Prompting is strictly
// sequential; it is never called from inside a fan-out.
type Prompter interface {
	// Ask prints a prompt and returns the trimmed line the user typed.
	Ask(prompt string) (string, error)

	// Say prints user-facing text (review blocks, notices) verbatim.
	Say(text string)
}
