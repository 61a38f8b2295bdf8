package upload

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salesintake/internal/domain"
	"salesintake/internal/port"
)

func readyItem() *domain.IntakeItem {
	item := testItem("payload")
	item.Status = domain.ItemStatusReady
	return item
}

func TestWorkspace_StageReplacesAndIsolatesOwners(t *testing.T) {
	w := NewWorkspace()
	first, second := readyItem(), readyItem()

	w.Stage("alice", first)
	w.Stage("alice", second)
	w.Stage("bob", readyItem())

	got, ok := w.Current("alice")
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)

	w.Discard("alice")
	_, ok = w.Current("alice")
	assert.False(t, ok)
	_, ok = w.Current("bob")
	assert.True(t, ok)
}

func TestWorkspace_BeginUpload(t *testing.T) {
	t.Run("no active item", func(t *testing.T) {
		_, err := NewWorkspace().BeginUpload("alice")
		assert.ErrorIs(t, err, domain.ErrNoActiveItem)
	})

	t.Run("rejected item", func(t *testing.T) {
		w := NewWorkspace()
		w.Stage("alice", &domain.IntakeItem{
			Name:   "notes.txt",
			Status: domain.ItemStatusError,
			Error:  "Unsupported file type",
			Cause:  domain.ErrUnsupportedFileType,
		})
		_, err := w.BeginUpload("alice")
		assert.ErrorIs(t, err, domain.ErrItemNotUploadable)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	})

	t.Run("already uploading", func(t *testing.T) {
		w := NewWorkspace()
		w.Stage("alice", readyItem())
		_, err := w.BeginUpload("alice")
		require.NoError(t, err)
		_, err = w.BeginUpload("alice")
		assert.ErrorIs(t, err, domain.ErrUploadInProgress)
	})

	t.Run("retry after failure clears the error", func(t *testing.T) {
		w := NewWorkspace()
		item := readyItem()
		item.Status = domain.ItemStatusError
		item.Error = "file upload to storage failed: timeout"
		item.Progress = 40
		w.Stage("alice", item)

		snap, err := w.BeginUpload("alice")
		require.NoError(t, err)
		assert.Equal(t, domain.ItemStatusUploading, snap.Status)
		cur, _ := w.Current("alice")
		assert.Empty(t, cur.Error)
		assert.Equal(t, 0, cur.Progress)
	})
}

func TestWorkspace_FinishFailureKeepsItemInError(t *testing.T) {
	w := NewWorkspace()
	item := readyItem()
	w.Stage("alice", item)
	_, err := w.BeginUpload("alice")
	require.NoError(t, err)

	w.SetProgress("alice", item.ID, 60)
	w.SetProgress("alice", item.ID, 30)
	w.Finish("alice", item.ID, errors.New("file upload to storage failed: reset"))

	cur, ok := w.Current("alice")
	require.True(t, ok)
	assert.Equal(t, domain.ItemStatusError, cur.Status)
	assert.Equal(t, 60, cur.Progress)
	assert.Equal(t, "file upload to storage failed: reset", cur.Error)
	assert.True(t, cur.Uploadable())
}

func TestWorkspace_FinishIgnoresReplacedItem(t *testing.T) {
	w := NewWorkspace()
	old := readyItem()
	w.Stage("alice", old)
	_, err := w.BeginUpload("alice")
	require.NoError(t, err)

	replacement := readyItem()
	w.Stage("alice", replacement)
	w.Finish("alice", old.ID, nil)

	cur, ok := w.Current("alice")
	require.True(t, ok)
	assert.Equal(t, replacement.ID, cur.ID)
}

func TestWorkspace_TrackClearsOnSuccess(t *testing.T) {
	o, m := newTestOrchestrator(false)
	w := NewWorkspace()
	item := readyItem()
	w.Stage("42", item)

	m.storage.On("Upload", mock.Anything, mock.Anything).Run(streamBody).Return(&port.UploadOutput{}, nil)
	m.registry.On("RegisterUpload", mock.Anything, testCred, mock.Anything).Return(nil)

	snap, err := w.BeginUpload("42")
	require.NoError(t, err)
	op := o.Start(context.Background(), Request{Principal: testPrincipal(), Credential: testCred, Item: snap})
	_, err = w.Track("42", snap.ID, op)

	require.NoError(t, err)
	_, ok := w.Current("42")
	assert.False(t, ok)
}

func TestWorkspace_ConcurrentAccess(t *testing.T) {
	w := NewWorkspace()
	item := readyItem()
	w.Stage("alice", item)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(2)
		go func(pct int) {
			defer wg.Done()
			w.SetProgress("alice", item.ID, pct)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = w.Current("alice")
		}()
	}
	wg.Wait()

	cur, _ := w.Current("alice")
	assert.Equal(t, 50, cur.Progress)
}
