package designer

// Host supplies the interactive dialogs of the editor.
type Host interface {
	// Confirm asks a yes/no question.
	Confirm(message string) bool
	// Prompt asks for a value, pre-filled with def. ok is false when the
	// user cancelled.
	Prompt(message, def string) (value string, ok bool)
}

// Prompts holds the pre-filled values offered by the styling prompts.
type Prompts struct {
	Font            string
	Text            string
	BackgroundImage string
}

// DefaultPrompts returns the stock prompt values.
func DefaultPrompts() Prompts {
	return Prompts{
		Font:            `normal 2vw "Roboto", sans-serif`,
		Text:            "Hello, world!",
		BackgroundImage: "https://cdn.example.com/sample.jpg",
	}
}

// Prompt and confirmation messages.
const (
	MessageNewDocument     = "Create new document?"
	MessageFont            = "Font:"
	MessageText            = "Text:"
	MessageBackgroundImage = "Background image:"
)

// StaticHost answers every dialog without user interaction. It backs
// non-interactive callers such as the HTTP API.
type StaticHost struct {
	// Confirmed is the answer to every confirmation.
	Confirmed bool
	// Value answers every prompt. An empty Value accepts the default.
	Value string
	// Cancel makes every prompt report cancellation.
	Cancel bool
}

func (h StaticHost) Confirm(string) bool { return h.Confirmed }

func (h StaticHost) Prompt(_, def string) (string, bool) {
	if h.Cancel {
		return "", false
	}
	if h.Value == "" {
		return def, true
	}
	return h.Value, true
}
