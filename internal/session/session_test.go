package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedictaitor/uiprobe/internal/driver"
	"github.com/benedictaitor/uiprobe/internal/session"
	"github.com/benedictaitor/uiprobe/internal/testutil"
)

// fakeBackend scripts Provision for manager tests.
type fakeBackend struct {
	name      string
	err       error
	driver    *testutil.FakeDriver
	teardowns int
	provision int
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Provision(ctx context.Context) (driver.Driver, session.Teardown, error) {
	b.provision++
	if b.err != nil {
		return nil, nil, b.err
	}
	return b.driver, func(context.Context) error {
		b.teardowns++
		return nil
	}, nil
}

func TestManager_AcquireFirstSuccess(t *testing.T) {
	primary := &fakeBackend{name: "local", driver: testutil.NewFakeDriver()}
	secondary := &fakeBackend{name: "grid", driver: testutil.NewFakeDriver()}

	mgr := session.NewManager([]session.Backend{primary, secondary}, nil)
	sess, err := mgr.Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "local", sess.Backend)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, primary.provision)
	// The chain stops at the first success.
	assert.Equal(t, 0, secondary.provision)
}

func TestManager_FallbackOrder(t *testing.T) {
	first := &fakeBackend{name: "local", err: errors.New("binary missing")}
	second := &fakeBackend{name: "managed", err: errors.New("not on PATH")}
	third := &fakeBackend{name: "grid", driver: testutil.NewFakeDriver()}

	mgr := session.NewManager([]session.Backend{first, second, third}, nil)
	sess, err := mgr.Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "grid", sess.Backend)
	assert.Equal(t, 1, first.provision)
	assert.Equal(t, 1, second.provision)
}

func TestManager_AllBackendsFail(t *testing.T) {
	first := &fakeBackend{name: "local", err: errors.New("binary missing")}
	second := &fakeBackend{name: "grid", err: errors.New("credentials rejected")}

	mgr := session.NewManager([]session.Backend{first, second}, nil)
	_, err := mgr.Acquire(context.Background())
	require.Error(t, err)
	require.True(t, session.IsProvisioning(err))

	// Every attempt is preserved for the failure message.
	var pe *session.ProvisioningError
	require.ErrorAs(t, err, &pe)
	require.Len(t, pe.Attempts, 2)
	assert.Equal(t, "local", pe.Attempts[0].Backend)
	assert.Equal(t, "grid", pe.Attempts[1].Backend)
	assert.Contains(t, err.Error(), "binary missing")
	assert.Contains(t, err.Error(), "credentials rejected")
}

func TestManager_ReleaseOnce(t *testing.T) {
	backend := &fakeBackend{name: "local", driver: testutil.NewFakeDriver()}
	mgr := session.NewManager([]session.Backend{backend}, nil)

	sess, err := mgr.Acquire(context.Background())
	require.NoError(t, err)

	mgr.Release(context.Background(), sess)
	mgr.Release(context.Background(), sess)

	assert.Equal(t, 1, backend.driver.QuitCount, "driver quits exactly once")
	assert.Equal(t, 1, backend.teardowns, "teardown runs exactly once")
}

func TestManager_ReleaseNil(t *testing.T) {
	mgr := session.NewManager(nil, nil)
	assert.NotPanics(t, func() {
		mgr.Release(context.Background(), nil)
	})
}
