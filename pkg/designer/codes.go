package designer

import (
	"github.com/matzehuels/gridcraft/pkg/errors"
)

// Code is a toolbar command code.
type Code string

// Toolbar command codes, in toolbar order.
const (
	CodeNew                Code = "new"
	CodeUndo               Code = "undo"
	CodeRedo               Code = "redo"
	CodeRemove             Code = "remove"
	CodeBringToFront       Code = "bringToFront"
	CodeSendToBack         Code = "sendToBack"
	CodeSetFont            Code = "setFont"
	CodeSetText            Code = "setText"
	CodeSetBackgroundImage Code = "setBackgroundImage"
)

var codes = []Code{
	CodeNew,
	CodeUndo, CodeRedo,
	CodeRemove, CodeBringToFront, CodeSendToBack,
	CodeSetFont, CodeSetText, CodeSetBackgroundImage,
}

var labels = map[Code]string{
	CodeNew:                "New",
	CodeUndo:               "Undo",
	CodeRedo:               "Redo",
	CodeRemove:             "Remove",
	CodeBringToFront:       "Bring to front",
	CodeSendToBack:         "Send to back",
	CodeSetFont:            "Set font",
	CodeSetText:            "Set text",
	CodeSetBackgroundImage: "Set background image",
}

// Codes returns every command code in toolbar order.
func Codes() []Code {
	out := make([]Code, len(codes))
	copy(out, codes)
	return out
}

// Label returns the button caption of c.
func (c Code) Label() string {
	return labels[c]
}

// Contextual reports whether c acts on the selected cell.
func (c Code) Contextual() bool {
	switch c {
	case CodeRemove, CodeBringToFront, CodeSendToBack,
		CodeSetFont, CodeSetText, CodeSetBackgroundImage:
		return true
	}
	return false
}

// Group returns the toolbar group index of c. Buttons of different groups are
// drawn with a separator between them.
func (c Code) Group() int {
	switch c {
	case CodeNew:
		return 0
	case CodeUndo, CodeRedo:
		return 1
	case CodeRemove, CodeBringToFront, CodeSendToBack:
		return 2
	}
	return 3
}

// ValidateCommandCode checks that s names a toolbar command.
func ValidateCommandCode(s string) error {
	if _, ok := labels[Code(s)]; !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown command code %q", s)
	}
	return nil
}

// ParseCode validates s and returns it as a Code.
func ParseCode(s string) (Code, error) {
	if err := ValidateCommandCode(s); err != nil {
		return "", err
	}
	return Code(s), nil
}

// =============================================================================
// Toolbar
// =============================================================================

// Toolbar is the enablement state of the toolbar buttons.
type Toolbar struct {
	Open         bool `json:"open"`
	CanUndo      bool `json:"can_undo"`
	CanRedo      bool `json:"can_redo"`
	HasSelection bool `json:"has_selection"`
}

// Enabled reports whether the button for c is clickable.
func (t Toolbar) Enabled(c Code) bool {
	switch {
	case c == CodeNew:
		return true
	case c == CodeUndo:
		return t.Open && t.CanUndo
	case c == CodeRedo:
		return t.Open && t.CanRedo
	case c.Contextual():
		return t.Open && t.HasSelection
	}
	return false
}
