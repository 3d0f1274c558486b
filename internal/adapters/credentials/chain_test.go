package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const adminKey = "freeflow/admin/token"

type mockStore struct {
	mock.Mock
}

func newMockStore(t *testing.T) *mockStore {
	t.Helper()
	store := &mockStore{}
	t.Cleanup(func() { store.AssertExpectations(t) })
	return store
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Put(ctx context.Context, key string, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newTestChain(t *testing.T) (*Chain, *mockStore, *mockStore) {
	t.Helper()
	first := newMockStore(t)
	second := newMockStore(t)
	chain, err := NewChain(first, second)
	require.NoError(t, err)
	return chain, first, second
}

func TestNewChainRejectsMissingStores(t *testing.T) {
	t.Parallel()

	_, err := NewChain()
	require.Error(t, err)

	_, err = NewChain(newMockStore(t), nil)
	assert.ErrorContains(t, err, "credential store 1 is nil")
}

func TestChainGetReturnsFirstHit(t *testing.T) {
	t.Parallel()

	chain, first, _ := newTestChain(t)
	first.On("Get", mock.Anything, adminKey).Return("from-pass", nil).Once()

	value, err := chain.Get(context.Background(), adminKey)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestChainGetFallsThroughWhenPassIsMissing(t *testing.T) {
	t.Parallel()

	chain, first, second := newTestChain(t)
	first.On("Get", mock.Anything, adminKey).Return("", ErrPassUnavailable).Once()
	second.On("Get", mock.Anything, adminKey).Return("from-file", nil).Once()

	value, err := chain.Get(context.Background(), adminKey)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestChainGetKeepsNotFoundAcrossStores(t *testing.T) {
	t.Parallel()

	chain, first, second := newTestChain(t)
	first.On("Get", mock.Anything, adminKey).Return("", ErrPassUnavailable).Once()
	second.On("Get", mock.Anything, adminKey).Return("", domain.ErrSecretNotFound).Once()

	_, err := chain.Get(context.Background(), adminKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorIs(t, err, ErrPassUnavailable)
}

func TestChainStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	chain, first, _ := newTestChain(t)
	first.On("Get", mock.Anything, adminKey).Return("", context.Canceled).Once()
	first.On("Put", mock.Anything, adminKey, "tok").Return(context.DeadlineExceeded).Once()

	_, err := chain.Get(context.Background(), adminKey)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, chain.Put(context.Background(), adminKey, "tok"), context.DeadlineExceeded)
}

func TestChainPutWritesFirstAcceptingStore(t *testing.T) {
	t.Parallel()

	chain, first, second := newTestChain(t)
	first.On("Put", mock.Anything, adminKey, "tok").Return(errors.New("gpg: no secret key")).Once()
	second.On("Put", mock.Anything, adminKey, "tok").Return(nil).Once()

	require.NoError(t, chain.Put(context.Background(), adminKey, "tok"))
}

func TestChainPutReportsEveryFailure(t *testing.T) {
	t.Parallel()

	chain, first, second := newTestChain(t)
	first.On("Put", mock.Anything, adminKey, "tok").Return(errors.New("gpg failed")).Once()
	second.On("Put", mock.Anything, adminKey, "tok").Return(errors.New("disk full")).Once()

	err := chain.Put(context.Background(), adminKey, "tok")
	require.Error(t, err)
	assert.ErrorContains(t, err, "gpg failed")
	assert.ErrorContains(t, err, "disk full")
}

func TestChainDeleteClearsEveryStore(t *testing.T) {
	t.Parallel()

	chain, first, second := newTestChain(t)
	first.On("Delete", mock.Anything, adminKey).Return(ErrPassUnavailable).Once()
	second.On("Delete", mock.Anything, adminKey).Return(nil).Once()

	require.NoError(t, chain.Delete(context.Background(), adminKey))
}

func TestChainDeleteReportsRealFailures(t *testing.T) {
	t.Parallel()

	chain, first, second := newTestChain(t)
	first.On("Delete", mock.Anything, adminKey).Return(nil).Once()
	second.On("Delete", mock.Anything, adminKey).Return(errors.New("permission denied")).Once()

	assert.ErrorContains(t, chain.Delete(context.Background(), adminKey), "permission denied")
}
