package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stubd/stubd/pkg/endpoint"
	"github.com/stubd/stubd/pkg/store/file"
)

type memSource struct {
	endpoints []*endpoint.Endpoint
	err       error
}

func (m *memSource) List(context.Context) ([]*endpoint.Endpoint, error) {
	return m.endpoints, m.err
}

func (m *memSource) Get(_ context.Context, id string) (*endpoint.Endpoint, error) {
	for _, e := range m.endpoints {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, errors.New("not found")
}

func textEndpoint(id, path string) *endpoint.Endpoint {
	return &endpoint.Endpoint{
		ID: id, Path: path, Method: endpoint.MethodGet,
		ResponseType: endpoint.TypeText,
		Responses:    []endpoint.ResponseRule{{Text: "ok"}},
	}
}

func TestSnapshotVersionIncrements(t *testing.T) {
	src := &memSource{endpoints: []*endpoint.Endpoint{textEndpoint("a", "/a")}}
	reg, err := New(src, nil)
	require.NoError(t, err)

	first := reg.Current()
	require.NotNil(t, first)
	assert.Equal(t, uint64(1), first.Version)
	assert.Len(t, first.Endpoints, 1)
	assert.Equal(t, "a", first.Get("a").ID)
	assert.Nil(t, first.Get("missing"))

	src.endpoints = append(src.endpoints, textEndpoint("b", "/b"))
	require.NoError(t, reg.Refresh(context.Background()))

	second := reg.Current()
	assert.Equal(t, uint64(2), second.Version)
	assert.Len(t, second.Endpoints, 2)

	// The earlier snapshot is untouched: in-flight requests keep a
	// consistent view.
	assert.Len(t, first.Endpoints, 1)
}

func TestNewFailsWhenSourceFails(t *testing.T) {
	src := &memSource{err: errors.New("disk gone")}
	_, err := New(src, nil)
	require.Error(t, err)
}

func TestListenerRefreshesOnMutation(t *testing.T) {
	fs, err := file.New(file.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	defer fs.Close()

	reg, err := New(fs.Endpoints(), nil)
	require.NoError(t, err)
	fs.Subscribe(reg.Listener())

	require.Empty(t, reg.Current().Endpoints)

	require.NoError(t, fs.Endpoints().Create(context.Background(), textEndpoint("a", "/a")))

	snap := reg.Current()
	assert.Equal(t, uint64(2), snap.Version)
	require.Len(t, snap.Endpoints, 1)
	assert.Equal(t, "a", snap.Endpoints[0].ID)
}

func TestListenerIgnoresOtherEntities(t *testing.T) {
	src := &memSource{}
	reg, err := New(src, nil)
	require.NoError(t, err)

	reg.Listener()("assets", "create", "a1")
	assert.Equal(t, uint64(1), reg.Current().Version)
}

func TestWatchPicksUpExternalEdits(t *testing.T) {
	dir := t.TempDir()
	fs, err := file.New(file.Config{DataDir: dir})
	require.NoError(t, err)
	defer fs.Close()
	require.NoError(t, fs.Save())

	reg, err := New(fs.Endpoints(), nil)
	require.NoError(t, err)
	defer reg.Close()
	fs.Subscribe(reg.Listener())
	require.NoError(t, reg.Watch(fs.Path(), fs.Reload))

	// Simulate an out-of-process edit by writing through a second store
	// over the same directory.
	other, err := file.New(file.Config{DataDir: dir})
	require.NoError(t, err)
	require.NoError(t, other.Endpoints().Create(context.Background(), textEndpoint("ext", "/ext")))
	require.NoError(t, other.Save())
	require.NoError(t, other.Close())

	require.Eventually(t, func() bool {
		snap := reg.Current()
		return len(snap.Endpoints) == 1 && snap.Endpoints[0].ID == "ext"
	}, 3*time.Second, 50*time.Millisecond)
}
