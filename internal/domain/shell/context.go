package shell

import "github.com/equinetracker/equinetracker/internal/domain/model"

// Context is the per-request barn context of the signed-in user.
// It is rebuilt on every page load and never persisted.
type Context struct {
	User        *model.User  `json:"user"`
	CurrentBarn *model.Barn  `json:"current_barn"`
	UserBarns   []model.Barn `json:"user_barns"`
}

// Resolve derives the barn context from a loaded user and the full barn list.
// CurrentBarn is the first barn whose id equals the user's current_barn_id.
// UserBarns keeps the order of barns and includes only associated barn ids.
// When the user has no current barn, resolution is skipped and only the user is set.
func Resolve(user *model.User, barns []model.Barn) Context {
	ctx := Context{User: user, UserBarns: []model.Barn{}}
	if !user.HasCurrentBarn() {
		return ctx
	}

	current := user.CurrentBarn()
	for i := range barns {
		if barns[i].ID == current {
			b := barns[i]
			ctx.CurrentBarn = &b
			break
		}
	}

	ctx.UserBarns = AssociatedBarns(user, barns)
	return ctx
}

// AssociatedBarns returns the barns the user may switch between, in the order
// of barns. It is empty, never nil, when the user has no associated barns.
func AssociatedBarns(user *model.User, barns []model.Barn) []model.Barn {
	out := []model.Barn{}
	if user == nil || len(user.AssociatedBarns) == 0 {
		return out
	}
	for _, b := range barns {
		if user.IsAssociatedWith(b.ID) {
			out = append(out, b)
		}
	}
	return out
}

// Mode is the render gate state.
type Mode int

const (
	// ModeNoContext renders only the page content.
	ModeNoContext Mode = iota
	// ModeInContext renders the full shell chrome around the page content.
	ModeInContext
)

func (m Mode) String() string {
	if m == ModeInContext {
		return "in-context"
	}
	return "no-context"
}

// Mode reports whether the shell chrome should be rendered.
// A user without a current_barn_id always gets the bare content slot.
func (c Context) Mode() Mode {
	if c.User.HasCurrentBarn() {
		return ModeInContext
	}
	return ModeNoContext
}

// Selector is the barn selector variant shown in the sidebar header.
type Selector int

const (
	// SelectorNone shows nothing beyond the "Switch Barn" link.
	SelectorNone Selector = iota
	// SelectorCard shows a compact card with the current barn's name and location.
	SelectorCard
	// SelectorDropdown lets the user switch between associated barns.
	SelectorDropdown
)

func (s Selector) String() string {
	switch s {
	case SelectorCard:
		return "card"
	case SelectorDropdown:
		return "dropdown"
	default:
		return "none"
	}
}

// Selector picks the barn selector variant:
// a dropdown for more than one switchable barn, otherwise a card when a current barn is resolved.
func (c Context) Selector() Selector {
	switch {
	case len(c.UserBarns) > 1:
		return SelectorDropdown
	case c.CurrentBarn != nil:
		return SelectorCard
	default:
		return SelectorNone
	}
}

// SelectorLabel is the dropdown trigger text.
func (c Context) SelectorLabel() string {
	if c.CurrentBarn == nil || c.CurrentBarn.Name == "" {
		return "Select Barn"
	}
	return c.CurrentBarn.Name
}
