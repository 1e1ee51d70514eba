package ui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Tips is the formula help shown by the tips command and the form.
const Tips = `# Formula Tips

- Use ` + "`+`, `-`, `*`, `/`" + ` for math, ` + "`%`" + ` for remainders and ` + "`^`" + ` for powers.
- Use parentheses ` + "`( )`" + ` to group operations.
- Add VAT with ` + "`amount * (1 + vat)`" + `.
- Names are letters, digits and underscores and may not start with a digit.
- ` + "`sqrt`, `round`, `min`, `max`" + ` and the other built-in functions take their arguments in parentheses.
`

// RenderTips renders Tips for a terminal of the given width.
func RenderTips(width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(Tips)
	if err != nil {
		return "", fmt.Errorf("failed to render tips: %w", err)
	}
	return out, nil
}
