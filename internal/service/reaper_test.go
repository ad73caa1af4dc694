package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/komunitas-inovasi/komunitas/internal/domain/model"
	"github.com/komunitas-inovasi/komunitas/internal/mocks"
	"github.com/komunitas-inovasi/komunitas/internal/testutil"
)

func newReaperFixture(t *testing.T) (*UploadReaperService, *mocks.MockPropertyRepository, *mocks.MockUploadStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPropertyRepository(ctrl)
	uploads := mocks.NewMockUploadStore(ctrl)
	svc, err := NewUploadReaperService(UploadReaperServiceOptions{
		Properties: repo,
		Uploads:    uploads,
		MinAge:     time.Hour,
		Clock:      testutil.FixedTimeFunc(testutil.TestTime()),
		Logger:     discardLogger(),
	})
	require.NoError(t, err)
	return svc, repo, uploads
}

func TestNewUploadReaperService_RequiresDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := NewUploadReaperService(UploadReaperServiceOptions{Uploads: mocks.NewMockUploadStore(ctrl)})
	assert.Error(t, err)
	_, err = NewUploadReaperService(UploadReaperServiceOptions{Properties: mocks.NewMockPropertyRepository(ctrl)})
	assert.Error(t, err)
}

func TestUploadReaperService_RemovesOldOrphans(t *testing.T) {
	svc, repo, uploads := newReaperFixture(t)
	now := testutil.TestTime()

	repo.EXPECT().List(gomock.Any()).Return([]*model.Property{
		{ID: "1", Photo: testutil.StringPtr("/uploads/kept.jpg")},
		{ID: "2"},
	}, nil)
	uploads.EXPECT().List(gomock.Any()).Return([]model.StoredUpload{
		{PublicPath: "/uploads/kept.jpg", Size: 10, ModifiedAt: now.Add(-48 * time.Hour)},
		{PublicPath: "/uploads/orphan.jpg", Size: 20, ModifiedAt: now.Add(-2 * time.Hour)},
		{PublicPath: "/uploads/fresh.jpg", Size: 30, ModifiedAt: now.Add(-time.Minute)},
	}, nil)
	uploads.EXPECT().Remove(gomock.Any(), "/uploads/orphan.jpg").Return(nil)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReapResult{Scanned: 3, Removed: 1, Freed: 20}, result)
}

func TestUploadReaperService_ContinuesPastRemoveErrors(t *testing.T) {
	svc, repo, uploads := newReaperFixture(t)
	old := testutil.TestTime().Add(-2 * time.Hour)

	repo.EXPECT().List(gomock.Any()).Return(nil, nil)
	uploads.EXPECT().List(gomock.Any()).Return([]model.StoredUpload{
		{PublicPath: "/uploads/a.jpg", Size: 1, ModifiedAt: old},
		{PublicPath: "/uploads/b.jpg", Size: 2, ModifiedAt: old},
	}, nil)
	uploads.EXPECT().Remove(gomock.Any(), "/uploads/a.jpg").Return(errors.New("permission denied"))
	uploads.EXPECT().Remove(gomock.Any(), "/uploads/b.jpg").Return(nil)

	result, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, int64(2), result.Freed)
}

func TestUploadReaperService_ListErrors(t *testing.T) {
	svc, repo, uploads := newReaperFixture(t)

	repo.EXPECT().List(gomock.Any()).Return(nil, errors.New("mongo down"))
	_, err := svc.RunOnce(context.Background())
	assert.ErrorContains(t, err, "list properties")

	repo.EXPECT().List(gomock.Any()).Return(nil, nil)
	uploads.EXPECT().List(gomock.Any()).Return(nil, errors.New("disk gone"))
	_, err = svc.RunOnce(context.Background())
	assert.ErrorContains(t, err, "list uploads")
}

func TestUploadReaperService_StopsOnCancel(t *testing.T) {
	svc, repo, uploads := newReaperFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo.EXPECT().List(gomock.Any()).Return(nil, nil)
	uploads.EXPECT().List(gomock.Any()).Return([]model.StoredUpload{
		{PublicPath: "/uploads/a.jpg", ModifiedAt: testutil.TestTime().Add(-2 * time.Hour)},
	}, nil)

	_, err := svc.RunOnce(ctx)
	assert.True(t, isContextCancellation(err))
}
