package viewmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinetracker/equinetracker/internal/domain/model"
	"github.com/equinetracker/equinetracker/internal/domain/shell"
)

func strPtr(s string) *string { return &s }

func barns() []model.Barn {
	return []model.Barn{{ID: "b1", Name: "North"}, {ID: "b2", Name: "South", Location: "Ocala"}}
}

func TestNewShell_Dropdown(t *testing.T) {
	u := &model.User{ID: "1", FullName: "Jane Doe", Role: "user", CurrentBarnID: strPtr("b2"),
		AssociatedBarns: []string{"b1", "b2"}, BarnSwitchSeq: 3}
	s := NewShell(shell.Resolve(u, barns()), "/horses/123")

	assert.True(t, s.InContext)
	assert.Equal(t, Brand, s.Brand)
	assert.Equal(t, Tagline, s.Tagline)
	assert.Equal(t, "dropdown", s.Selector)
	assert.Equal(t, "South", s.SelectorLabel)
	require.Len(t, s.UserBarns, 2)
	assert.False(t, s.UserBarns[0].Current)
	assert.True(t, s.UserBarns[1].Current)
	assert.Equal(t, int64(3), s.Seq)
	assert.Equal(t, "/barnselection", s.SwitchBarnURL)
	assert.Equal(t, "/barnselection", s.SettingsURL)

	require.Len(t, s.Nav, 7)
	require.Len(t, s.QuickActions, 5)
	var active []string
	for _, l := range s.Nav {
		if l.Active {
			active = append(active, l.Title)
		}
	}
	assert.Equal(t, []string{"Horses"}, active)
}

func TestNewShell_Card(t *testing.T) {
	u := &model.User{ID: "1", FullName: "Jane", CurrentBarnID: strPtr("b2"), AssociatedBarns: []string{"b2"}}
	s := NewShell(shell.Resolve(u, barns()), "/dashboard")

	assert.Equal(t, "card", s.Selector)
	require.NotNil(t, s.CurrentBarn)
	assert.Equal(t, "South", s.CurrentBarn.Name)
	assert.Equal(t, "Ocala", s.CurrentBarn.Location)
	assert.True(t, s.Nav[0].Active)
	for _, l := range s.Nav[1:] {
		assert.False(t, l.Active, l.Title)
	}
}

func TestNewShell_NoContext(t *testing.T) {
	s := NewShell(shell.Resolve(&model.User{ID: "1"}, nil), "/dashboard")
	assert.False(t, s.InContext)
	assert.Equal(t, "none", s.Selector)
	assert.Equal(t, "Select Barn", s.SelectorLabel)
	assert.Empty(t, s.UserBarns)
}

func TestNewShell_FooterFallbacks(t *testing.T) {
	tests := []struct {
		name string
		user *model.User
		want User
	}{
		{"nil user", nil, User{Initial: "U", Name: "User", Role: "Loading..."}},
		{"empty fields", &model.User{ID: "1"}, User{ID: "1", Initial: "U", Name: "User", Role: "Loading..."}},
		{"populated", &model.User{ID: "1", FullName: "élise Moreau", Role: "admin", Email: "e@x"},
			User{ID: "1", Email: "e@x", Initial: "é", Name: "élise Moreau", Role: "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewShell(shell.Resolve(tt.user, nil), "/")
			assert.Equal(t, tt.want, s.Footer)
		})
	}
}

func TestNewBarns(t *testing.T) {
	out := NewBarns(barns(), "b1")
	require.Len(t, out, 2)
	assert.True(t, out[0].Current)
	assert.False(t, out[1].Current)

	none := NewBarns(barns(), "")
	for _, b := range none {
		assert.False(t, b.Current)
	}
}

func TestNewShell_OnlyDashboardIsExact(t *testing.T) {
	s := NewShell(shell.Resolve(nil, nil), "/")
	for _, l := range append(s.Nav, s.QuickActions...) {
		assert.Equal(t, l.URL == "/dashboard", l.Exact, l.Title)
	}
}
