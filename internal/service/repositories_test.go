package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doc2dev/doc2dev/internal/models"
)

// fullRegistry extends fakeRegistry with the reader/delete surface.
type fullRegistry struct {
	*fakeRegistry
	deleteErr error
}

func (r *fullRegistry) GetRepositoryByID(_ context.Context, id string) (*models.Repository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.byID(id)
	if rec == nil {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *fullRegistry) ListRepositories(_ context.Context) ([]models.Repository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Repository, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out, nil
}

func (r *fullRegistry) DeleteRepository(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for path, rec := range r.records {
		if models.MustRecordIDString(rec.ID) == id {
			delete(r.records, path)
			return nil
		}
	}
	return nil
}

type fakeDropper struct {
	mu      sync.Mutex
	dropped []string
	err     error
}

func (d *fakeDropper) DropChunkTable(_ context.Context, table string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropped = append(d.dropped, table)
	return d.err
}

func seedRepo(t *testing.T, reg *fullRegistry, path string) *models.Repository {
	t.Helper()
	rec, err := reg.CreateRepository(context.Background(), "Widgets", "", path, "https://github.com/"+path, models.RepoStatusCompleted)
	require.NoError(t, err)
	return rec
}

func TestDeleteDropsChunkTableAndRecord(t *testing.T) {
	reg := &fullRegistry{fakeRegistry: newFakeRegistry()}
	dropper := &fakeDropper{}
	svc := NewRepositoryService(reg, dropper)

	rec := seedRepo(t, reg, "acme/widget-kit")
	id := models.MustRecordIDString(rec.ID)

	require.NoError(t, svc.Delete(context.Background(), id))

	assert.Equal(t, []string{"acme_widget_kit"}, dropper.dropped)

	got, err := reg.GetRepositoryByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, got)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteProceedsWhenTableDropFails(t *testing.T) {
	reg := &fullRegistry{fakeRegistry: newFakeRegistry()}
	dropper := &fakeDropper{err: errors.New("table locked")}
	svc := NewRepositoryService(reg, dropper)

	rec := seedRepo(t, reg, "acme/widgets")
	id := models.MustRecordIDString(rec.ID)

	require.NoError(t, svc.Delete(context.Background(), id))

	got, err := reg.GetRepositoryByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, got, "record must be deleted despite drop failure")
}

func TestDeleteUnknownIDIsNoop(t *testing.T) {
	reg := &fullRegistry{fakeRegistry: newFakeRegistry()}
	dropper := &fakeDropper{}
	svc := NewRepositoryService(reg, dropper)

	require.NoError(t, svc.Delete(context.Background(), "repository:missing"))
	assert.Empty(t, dropper.dropped)
}

func TestGetByPath(t *testing.T) {
	reg := &fullRegistry{fakeRegistry: newFakeRegistry()}
	svc := NewRepositoryService(reg, &fakeDropper{})

	seedRepo(t, reg, "acme/widgets")

	got, err := svc.GetByPath(context.Background(), "acme/widgets")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "acme/widgets", got.Path)

	missing, err := svc.GetByPath(context.Background(), "acme/unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
