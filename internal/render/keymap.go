package render

import "github.com/charmbracelet/bubbles/key"

// keyMap is a stateless table of bindings used only to render the
// help line; the producer does its own independent byte-level
// decoding (internal/input) and never consults this table for
// dispatch. Grounded on the teacher's tui.NavigationKeyMap shape.
type keyMap struct {
	Down      key.Binding
	Up        key.Binding
	PageDown  key.Binding
	PageUp    key.Binding
	Start     key.Binding
	End       key.Binding
	Search    key.Binding
	RSearch   key.Binding
	NextMatch key.Binding
	PrevMatch key.Binding
	Percent   key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		PageDown:  key.NewBinding(key.WithKeys(" ", "f"), key.WithHelp("space", "page down")),
		PageUp:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "page up")),
		Start:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "top")),
		End:       key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "end")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		RSearch:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "search back")),
		NextMatch: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		PrevMatch: key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "prev")),
		Percent:   key.NewBinding(key.WithKeys("%"), key.WithHelp("%", "goto %")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

// helpLine renders a single-line reminder of the bindings above,
// joined the way the teacher's screens render their own help footers.
func (k keyMap) helpLine() string {
	bindings := []key.Binding{
		k.Down, k.Up, k.PageDown, k.PageUp, k.Search, k.RSearch,
		k.NextMatch, k.PrevMatch, k.Percent, k.Quit,
	}
	s := ""
	for i, b := range bindings {
		if i > 0 {
			s += "  "
		}
		h := b.Help()
		s += h.Key + " " + h.Desc
	}
	return s
}
