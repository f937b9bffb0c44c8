package shell

import (
	"testing"

	"github.com/equinetracker/equinetracker/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func scenarioBarns() []model.Barn {
	return []model.Barn{
		{ID: "b1", Name: "North", Location: "Lexington, KY"},
		{ID: "b2", Name: "South", Location: "Ocala, FL"},
	}
}

func TestResolve_NoCurrentBarnSkipsResolution(t *testing.T) {
	t.Parallel()

	for _, id := range []*string{nil, strPtr("")} {
		user := &model.User{ID: "1", CurrentBarnID: id, AssociatedBarns: []string{"b1", "b2"}}
		ctx := Resolve(user, scenarioBarns())

		assert.Same(t, user, ctx.User)
		assert.Nil(t, ctx.CurrentBarn)
		assert.Empty(t, ctx.UserBarns)
		assert.Equal(t, ModeNoContext, ctx.Mode())
	}
}

func TestResolve_NilUser(t *testing.T) {
	t.Parallel()

	ctx := Resolve(nil, scenarioBarns())
	assert.Nil(t, ctx.User)
	assert.Equal(t, ModeNoContext, ctx.Mode())
	assert.Equal(t, SelectorNone, ctx.Selector())
}

func TestResolve_CurrentBarnIsFullRecord(t *testing.T) {
	t.Parallel()

	barns := scenarioBarns()
	user := &model.User{ID: "1", CurrentBarnID: strPtr("b1")}
	ctx := Resolve(user, barns)

	require.NotNil(t, ctx.CurrentBarn)
	assert.Equal(t, barns[0], *ctx.CurrentBarn)

	// The context owns its copy.
	barns[0].Name = "Renamed"
	assert.Equal(t, "North", ctx.CurrentBarn.Name)
}

func TestResolve_FirstMatchWinsOnDuplicateIDs(t *testing.T) {
	t.Parallel()

	barns := []model.Barn{{ID: "b1", Name: "First"}, {ID: "b1", Name: "Second"}}
	ctx := Resolve(&model.User{CurrentBarnID: strPtr("b1")}, barns)

	require.NotNil(t, ctx.CurrentBarn)
	assert.Equal(t, "First", ctx.CurrentBarn.Name)
}

func TestResolve_UserBarnsKeepListOrder(t *testing.T) {
	t.Parallel()

	barns := []model.Barn{
		{ID: "b3", Name: "East"},
		{ID: "b1", Name: "North"},
		{ID: "b4", Name: "West"},
		{ID: "b2", Name: "South"},
	}
	user := &model.User{CurrentBarnID: strPtr("b1"), AssociatedBarns: []string{"b2", "b9", "b1", "b3"}}
	ctx := Resolve(user, barns)

	ids := make([]string, 0, len(ctx.UserBarns))
	for _, b := range ctx.UserBarns {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"b3", "b1", "b2"}, ids)
}

func TestResolve_NoAssociatedBarnsUsesCard(t *testing.T) {
	t.Parallel()

	user := &model.User{CurrentBarnID: strPtr("b2")}
	ctx := Resolve(user, scenarioBarns())

	assert.Empty(t, ctx.UserBarns)
	assert.NotNil(t, ctx.UserBarns, "empty slice keeps JSON output as []")
	assert.Equal(t, SelectorCard, ctx.Selector())
	assert.Equal(t, ModeInContext, ctx.Mode())
}

func TestResolve_CurrentBarnMissingFromList(t *testing.T) {
	t.Parallel()

	user := &model.User{CurrentBarnID: strPtr("b9"), AssociatedBarns: []string{"b1", "b2"}}
	ctx := Resolve(user, scenarioBarns())

	assert.Nil(t, ctx.CurrentBarn)
	assert.Equal(t, SelectorDropdown, ctx.Selector())
	assert.Equal(t, "Select Barn", ctx.SelectorLabel())
	assert.Equal(t, ModeInContext, ctx.Mode())
}

func TestResolve_BarnListUnavailable(t *testing.T) {
	t.Parallel()

	user := &model.User{CurrentBarnID: strPtr("b2"), AssociatedBarns: []string{"b1", "b2"}}
	ctx := Resolve(user, nil)

	assert.Nil(t, ctx.CurrentBarn)
	assert.Empty(t, ctx.UserBarns)
	assert.Equal(t, SelectorNone, ctx.Selector())
	assert.Equal(t, ModeInContext, ctx.Mode())
}

func TestResolve_ScenarioTwoAssociatedBarns(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "1", CurrentBarnID: strPtr("b2"), AssociatedBarns: []string{"b1", "b2"}}
	ctx := Resolve(user, scenarioBarns())

	require.NotNil(t, ctx.CurrentBarn)
	assert.Equal(t, "b2", ctx.CurrentBarn.ID)
	assert.Equal(t, "South", ctx.CurrentBarn.Name)
	require.Len(t, ctx.UserBarns, 2)
	assert.Equal(t, "North", ctx.UserBarns[0].Name)
	assert.Equal(t, "South", ctx.UserBarns[1].Name)
	assert.Equal(t, SelectorDropdown, ctx.Selector())
	assert.Equal(t, "South", ctx.SelectorLabel())
}

func TestResolve_ScenarioSingleAssociatedBarn(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "1", CurrentBarnID: strPtr("b2"), AssociatedBarns: []string{"b2"}}
	ctx := Resolve(user, scenarioBarns())

	require.Len(t, ctx.UserBarns, 1)
	assert.Equal(t, "South", ctx.UserBarns[0].Name)
	assert.Equal(t, SelectorCard, ctx.Selector())
	require.NotNil(t, ctx.CurrentBarn)
	assert.Equal(t, "South", ctx.CurrentBarn.Name)
}

func TestAssociatedBarns_IgnoresCurrentBarn(t *testing.T) {
	t.Parallel()

	user := &model.User{ID: "1", AssociatedBarns: []string{"b2", "b1", "b9"}}
	got := AssociatedBarns(user, scenarioBarns())
	require.Len(t, got, 2)
	assert.Equal(t, "North", got[0].Name)
	assert.Equal(t, "South", got[1].Name)

	assert.NotNil(t, AssociatedBarns(&model.User{ID: "1"}, scenarioBarns()))
	assert.Empty(t, AssociatedBarns(nil, scenarioBarns()))
}

func TestModeAndSelector_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no-context", ModeNoContext.String())
	assert.Equal(t, "in-context", ModeInContext.String())
	assert.Equal(t, "none", SelectorNone.String())
	assert.Equal(t, "card", SelectorCard.String())
	assert.Equal(t, "dropdown", SelectorDropdown.String())
}
