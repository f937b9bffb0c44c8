// Package viewmodel shapes shell state into the structs templates render.
package viewmodel

import (
	"github.com/equinetracker/equinetracker/internal/domain/model"
	"github.com/equinetracker/equinetracker/internal/domain/shell"
)

const (
	// Brand is the sidebar and mobile header title.
	Brand = "EquineTracker"
	// Tagline sits under the brand in the sidebar header.
	Tagline = "Professional Horse Management"
)

// User represents the signed-in user as shown in the sidebar footer.
type User struct {
	ID      string
	Email   string
	Name    string
	Initial string
	Role    string
}

// Barn is a barn row for the selector, card or selection page.
type Barn struct {
	ID       string
	Name     string
	Location string
	Current  bool
}

// NavLink is a rendered sidebar link.
type NavLink struct {
	Title  string
	URL    string
	Icon   string
	Active bool
	// Exact disables prefix matching when the client re-highlights after a partial swap.
	Exact bool
}

// Shell is everything the sidebar, mobile header and footer need.
type Shell struct {
	InContext     bool
	Brand         string
	Tagline       string
	Selector      string
	SelectorLabel string
	CurrentBarn   *Barn
	UserBarns     []Barn
	Nav           []NavLink
	QuickActions  []NavLink
	SwitchBarnURL string
	SettingsURL   string
	// Seq is the barn_switch_seq the switch forms echo back.
	Seq    int64
	Footer User
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CurrentPath     string
	CSRFToken       string
	IsAuthenticated bool
	User            *User
	Shell           Shell
	// LoadError renders the retry banner when the user or barn list could not be loaded.
	LoadError bool
	// SwitchFailed renders the barn switch error banner after a surfaced failure.
	SwitchFailed bool
}

// Page is the template root for every shell page: layout plus page content.
type Page struct {
	Layout
	Content any
}

// NewShell builds the chrome view for sc with navigation highlighted for currentPath.
func NewShell(sc shell.Context, currentPath string) Shell {
	out := Shell{
		InContext:     sc.Mode() == shell.ModeInContext,
		Brand:         Brand,
		Tagline:       Tagline,
		Selector:      sc.Selector().String(),
		SelectorLabel: sc.SelectorLabel(),
		UserBarns:     make([]Barn, 0, len(sc.UserBarns)),
		Nav:           links(shell.NavigationItems(), currentPath),
		QuickActions:  links(shell.QuickActions(), currentPath),
		SwitchBarnURL: shell.PageURL(shell.PageBarnSelection),
		SettingsURL:   shell.PageURL(shell.PageBarnSelection),
		Footer:        footerUser(sc.User),
	}
	current := sc.User.CurrentBarn()
	if sc.CurrentBarn != nil {
		b := barn(*sc.CurrentBarn, current)
		out.CurrentBarn = &b
	}
	for _, b := range sc.UserBarns {
		out.UserBarns = append(out.UserBarns, barn(b, current))
	}
	if sc.User != nil {
		out.Seq = sc.User.BarnSwitchSeq
	}
	return out
}

// NewBarns converts barns for the selection page, marking currentID.
func NewBarns(barns []model.Barn, currentID string) []Barn {
	out := make([]Barn, 0, len(barns))
	for _, b := range barns {
		out = append(out, barn(b, currentID))
	}
	return out
}

func barn(b model.Barn, currentID string) Barn {
	return Barn{ID: b.ID, Name: b.Name, Location: b.Location, Current: currentID != "" && b.ID == currentID}
}

func links(items []shell.NavItem, currentPath string) []NavLink {
	out := make([]NavLink, len(items))
	for i, it := range items {
		out[i] = NavLink{
			Title:  it.Title,
			URL:    it.URL,
			Icon:   it.Icon,
			Active: shell.IsActive(currentPath, it),
			Exact:  it.Page == shell.PageDashboard,
		}
	}
	return out
}

func footerUser(u *model.User) User {
	fu := User{
		Initial: u.Initial(),
		Name:    u.DisplayName(),
		Role:    u.DisplayRole(),
	}
	if u != nil {
		fu.ID = u.ID
		fu.Email = u.Email
	}
	return fu
}
