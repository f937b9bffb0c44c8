package devseed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/equinetracker/equinetracker/internal/core"
	"github.com/equinetracker/equinetracker/internal/domain/model"
	"github.com/equinetracker/equinetracker/internal/mocks"
)

// repoBarns adapts the barn repository mock to BarnUpserter.
type repoBarns struct{ core.BarnRepository }

func (r repoBarns) UpsertBarn(ctx context.Context, req *model.UpsertBarnRequest) (*model.Barn, error) {
	return r.Upsert(ctx, req)
}

func expectBarns(barns *mocks.MockBarnRepository) []string {
	var ids []string
	for _, b := range DemoBarns() {
		ids = append(ids, b.ID)
		barns.EXPECT().Upsert(gomock.Any(), &b).Return(&model.Barn{ID: b.ID, Name: b.Name}, nil)
	}
	return ids
}

func TestRun_SelectsFirstBarnForNewUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	barns := mocks.NewMockBarnRepository(ctrl)
	users := mocks.NewMockUserRepository(ctrl)
	ids := expectBarns(barns)

	users.EXPECT().Upsert(gomock.Any(), &model.UpsertUserRequest{ID: "dev-user", FullName: "Dev Rider", Role: "admin"}).
		Return(&model.User{ID: "dev-user"}, nil)
	users.EXPECT().SetAssociatedBarns(gomock.Any(), "dev-user", ids).Return(nil)
	users.EXPECT().UpdateCurrentBarn(gomock.Any(), core.UpdateCurrentBarnParams{UserID: "dev-user", BarnID: ids[0]}).
		Return(&model.User{ID: "dev-user"}, nil)

	err := Run(context.Background(), Deps{Barns: repoBarns{barns}, Users: users},
		User{ID: "dev-user", FullName: "Dev Rider", Role: "admin"})
	require.NoError(t, err)
}

func TestRun_KeepsExistingSelection(t *testing.T) {
	ctrl := gomock.NewController(t)
	barns := mocks.NewMockBarnRepository(ctrl)
	users := mocks.NewMockUserRepository(ctrl)
	ids := expectBarns(barns)

	current := "dev-barn-south"
	users.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(&model.User{ID: "dev-user", CurrentBarnID: &current}, nil)
	users.EXPECT().SetAssociatedBarns(gomock.Any(), "dev-user", ids).Return(nil)

	require.NoError(t, Run(context.Background(), Deps{Barns: repoBarns{barns}, Users: users}, User{ID: "dev-user"}))
}

func TestRun_StopsOnBarnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	barns := mocks.NewMockBarnRepository(ctrl)
	users := mocks.NewMockUserRepository(ctrl)
	barns.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	err := Run(context.Background(), Deps{Barns: repoBarns{barns}, Users: users}, User{ID: "dev-user"})
	assert.ErrorContains(t, err, "seed barn dev-barn-north")
}

func TestRun_Validation(t *testing.T) {
	assert.Error(t, Run(context.Background(), Deps{}, User{ID: "x"}))

	ctrl := gomock.NewController(t)
	d := Deps{Barns: repoBarns{mocks.NewMockBarnRepository(ctrl)}, Users: mocks.NewMockUserRepository(ctrl)}
	assert.Error(t, Run(context.Background(), d, User{ID: "  "}))
}
