package service

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Capstonepdm/Katipudroid/internal/models"
	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
	"github.com/Capstonepdm/Katipudroid/internal/repository/memory"
)

type mockFeedbackRepo struct {
	mock.Mock
}

func (m *mockFeedbackRepo) Create(ctx context.Context, f *models.Feedback) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *mockFeedbackRepo) List(ctx context.Context, limit int) ([]models.Feedback, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Feedback), args.Error(1)
}

func (m *mockFeedbackRepo) RatingDistribution(ctx context.Context) (map[int]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}

type recordingNotifier struct {
	created []*models.Feedback
}

func (n *recordingNotifier) FeedbackCreated(f *models.Feedback) {
	n.created = append(n.created, f)
}

type feedbackFixture struct {
	svc      *FeedbackService
	repo     *memory.FeedbackRepository
	notifier *recordingNotifier
	tokens   *VerificationTokenManager
	clock    *clockwork.FakeClock
}

func newFeedbackFixture() *feedbackFixture {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC))
	repo := memory.NewFeedbackRepository()
	notifier := &recordingNotifier{}
	tokens := NewVerificationTokenManager("test-secret", 10*time.Minute, clock)
	svc := NewFeedbackService(repo, notifier, tokens, NewCacheService(clock), clock)
	return &feedbackFixture{svc: svc, repo: repo, notifier: notifier, tokens: tokens, clock: clock}
}

func validInput() models.FeedbackInput {
	return models.FeedbackInput{
		Name:      "  Ana ",
		Email:     "Ana@Example.com",
		Message:   "  Love the dragon levels!  ",
		Rating:    4,
		IPAddress: "10.0.0.1",
		UserAgent: "Mozilla/5.0",
	}
}

func TestFeedbackService_WriteCreatesOneRecord(t *testing.T) {
	f := newFeedbackFixture()

	created, err := f.svc.Write(context.Background(), validInput())
	require.NoError(t, err)

	all := f.repo.All()
	require.Len(t, all, 1)
	stored := all[0]
	assert.Equal(t, created.ID, stored.ID)
	assert.Equal(t, "Ana", stored.Name)
	assert.Equal(t, "ana@example.com", stored.Email)
	assert.Equal(t, "Love the dragon levels!", stored.Message)
	assert.Equal(t, 4, stored.Rating)
	assert.Equal(t, models.FeedbackStatusNew, stored.Status)
	assert.Equal(t, f.clock.Now().UTC(), stored.CreatedAt)
	require.NotNil(t, stored.IPAddress)
	assert.Equal(t, "10.0.0.1", *stored.IPAddress)

	require.Len(t, f.notifier.created, 1)
	assert.Equal(t, created.ID, f.notifier.created[0].ID)
}

func TestFeedbackService_RejectsBadRatingBeforeStore(t *testing.T) {
	repo := new(mockFeedbackRepo)
	svc := NewFeedbackService(repo, nil, nil, nil, clockwork.NewFakeClock())

	for _, rating := range []int{0, 6, -1} {
		in := validInput()
		in.Rating = rating
		_, err := svc.Write(context.Background(), in)
		assert.True(t, apperror.IsValidation(err), "rating %d", rating)
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFeedbackService_RejectsEmptyFields(t *testing.T) {
	f := newFeedbackFixture()

	cases := map[string]func(*models.FeedbackInput){
		"Name is required":    func(in *models.FeedbackInput) { in.Name = "   " },
		"Email is required":   func(in *models.FeedbackInput) { in.Email = "" },
		"Message is required": func(in *models.FeedbackInput) { in.Message = "\n" },
	}
	for want, mutate := range cases {
		in := validInput()
		mutate(&in)
		_, err := f.svc.Write(context.Background(), in)
		assert.Equal(t, want, apperror.MessageOf(err))
	}
	assert.Empty(t, f.repo.All())
}

func TestFeedbackService_WriteStorageError(t *testing.T) {
	repo := new(mockFeedbackRepo)
	repo.On("Create", mock.Anything, mock.Anything).Return(errStorageDown)
	notifier := &recordingNotifier{}
	svc := NewFeedbackService(repo, notifier, nil, nil, clockwork.NewFakeClock())

	_, err := svc.Write(context.Background(), validInput())
	assert.True(t, apperror.IsStorageUnavailable(err))
	assert.Empty(t, notifier.created)
}

func TestFeedbackService_SubmitVerified(t *testing.T) {
	f := newFeedbackFixture()
	token, _, err := f.tokens.Issue("ana@example.com")
	require.NoError(t, err)

	created, err := f.svc.SubmitVerified(context.Background(), token, validInput())
	require.NoError(t, err)
	assert.Equal(t, "Ana", created.Name)

	_, err = f.svc.SubmitVerified(context.Background(), token, validInput())
	assert.True(t, apperror.Is(err, apperror.ErrCodeDuplicateSubmission))
	assert.Len(t, f.repo.All(), 1)
}

func TestFeedbackService_SubmitVerifiedRejects(t *testing.T) {
	f := newFeedbackFixture()
	ctx := context.Background()

	_, err := f.svc.SubmitVerified(ctx, "", validInput())
	assert.True(t, apperror.Is(err, apperror.ErrCodeUnauthorized))

	_, err = f.svc.SubmitVerified(ctx, "garbage", validInput())
	assert.True(t, apperror.Is(err, apperror.ErrCodeUnauthorized))

	other, _, err := f.tokens.Issue("someone@else.com")
	require.NoError(t, err)
	_, err = f.svc.SubmitVerified(ctx, other, validInput())
	assert.Equal(t, apperror.ErrEmailMismatch, err)

	expired, _, err := f.tokens.Issue("ana@example.com")
	require.NoError(t, err)
	f.clock.Advance(11 * time.Minute)
	_, err = f.svc.SubmitVerified(ctx, expired, validInput())
	assert.True(t, apperror.Is(err, apperror.ErrCodeUnauthorized))

	assert.Empty(t, f.repo.All())
}

func TestFeedbackService_FailedWriteKeepsTokenUsable(t *testing.T) {
	clock := clockwork.NewFakeClock()
	repo := new(mockFeedbackRepo)
	repo.On("Create", mock.Anything, mock.Anything).Return(errStorageDown).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	tokens := NewVerificationTokenManager("s", 10*time.Minute, clock)
	svc := NewFeedbackService(repo, nil, tokens, NewCacheService(clock), clock)

	token, _, err := tokens.Issue("ana@example.com")
	require.NoError(t, err)

	_, err = svc.SubmitVerified(context.Background(), token, validInput())
	assert.True(t, apperror.IsStorageUnavailable(err))

	_, err = svc.SubmitVerified(context.Background(), token, validInput())
	assert.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestFeedbackService_ListAndSummary(t *testing.T) {
	f := newFeedbackFixture()
	ctx := context.Background()

	for _, rating := range []int{5, 4, 4} {
		in := validInput()
		in.Rating = rating
		_, err := f.svc.Write(ctx, in)
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}

	items, err := f.svc.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].CreatedAt.After(items[1].CreatedAt))

	summary, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 4.3, summary.Average)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 2, 5: 1}, summary.Distribution)
}

func TestFeedbackService_SummaryEmpty(t *testing.T) {
	f := newFeedbackFixture()

	summary, err := f.svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.Average)
	assert.Len(t, summary.Distribution, 5)
}
