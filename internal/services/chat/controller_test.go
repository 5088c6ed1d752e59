package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/deepgram/pdfchat/internal/domain/chat"
	"github.com/deepgram/pdfchat/internal/domain/chat/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBackend mocks the question-answering backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Ask(ctx context.Context, question string) (*models.Answer, error) {
	args := m.Called(ctx, question)
	answer, _ := args.Get(0).(*models.Answer)
	return answer, args.Error(1)
}

// blockingBackend holds every request until released
type blockingBackend struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
	answer  *models.Answer
	err     error
}

func newBlockingBackend(answer *models.Answer, err error) *blockingBackend {
	return &blockingBackend{
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
		answer:  answer,
		err:     err,
	}
}

func (b *blockingBackend) Ask(ctx context.Context, question string) (*models.Answer, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.answer, b.err
}

func (b *blockingBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestSubmitRefundPolicyScenario(t *testing.T) {
	backend := &MockBackend{}
	backend.On("Ask", mock.Anything, "What is the refund policy?").Return(&models.Answer{
		Content: models.String("Refunds are allowed within 30 days."),
		Citations: []models.Citation{
			{SourceID: models.String("policy.pdf"), PageNumber: models.Int(2)},
		},
	}, nil).Once()

	controller := NewController(backend)
	accepted := controller.Submit(context.Background(), "What is the refund policy?")
	require.True(t, accepted)

	snapshot := controller.Snapshot()
	assert.False(t, snapshot.Busy)
	require.Len(t, snapshot.Transcript, 2)

	user := snapshot.Transcript[0]
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "What is the refund policy?", user.Text())
	assert.Empty(t, user.Citations)

	assistant := snapshot.Transcript[1]
	assert.Equal(t, models.RoleAssistant, assistant.Role)
	assert.Equal(t, "Refunds are allowed within 30 days.", assistant.Text())
	require.Len(t, assistant.Citations, 1)
	assert.Equal(t, "policy.pdf", *assistant.Citations[0].SourceID)
	assert.Equal(t, 2, *assistant.Citations[0].PageNumber)
	assert.Nil(t, assistant.Citations[0].Excerpt)

	backend.AssertExpectations(t)
}

func TestSubmitFailureScenario(t *testing.T) {
	backend := &MockBackend{}
	backend.On("Ask", mock.Anything, "hello").Return(nil, fmt.Errorf("%w: connection refused", chat.ErrTransport)).Once()

	controller := NewController(backend)
	require.True(t, controller.Submit(context.Background(), "hello"))

	snapshot := controller.Snapshot()
	assert.False(t, snapshot.Busy)
	assert.Equal(t, []models.Turn{
		{Role: models.RoleUser, Content: models.String("hello")},
		{Role: models.RoleAssistant, Content: models.String("Sorry, I encountered an error. Please try again.")},
	}, snapshot.Transcript)
	assert.Nil(t, snapshot.Transcript[1].Citations)

	backend.AssertExpectations(t)
}

func TestSubmitRejectsBlankInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tabs and newlines", "\t\n  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &MockBackend{}
			controller := NewController(backend)
			controller.UpdateInput(tt.input)

			assert.False(t, controller.Submit(context.Background(), tt.input))

			snapshot := controller.Snapshot()
			assert.Empty(t, snapshot.Transcript)
			assert.False(t, snapshot.Busy)
			assert.Equal(t, tt.input, snapshot.PendingInput)
			backend.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitPreservesUntrimmedContent(t *testing.T) {
	backend := &MockBackend{}
	backend.On("Ask", mock.Anything, "where is page 3?").Return(&models.Answer{
		Content: models.String("Here."),
	}, nil).Once()

	controller := NewController(backend)
	require.True(t, controller.Submit(context.Background(), "  where is page 3?\n"))

	transcript := controller.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "  where is page 3?\n", transcript[0].Text())
	backend.AssertExpectations(t)
}

func TestBusyGate(t *testing.T) {
	backend := newBlockingBackend(&models.Answer{Content: models.String("first")}, nil)
	controller := NewController(backend)
	controller.UpdateInput("first question")

	done, accepted := controller.Dispatch(context.Background(), "first question")
	require.True(t, accepted)
	<-backend.started

	// Pending input is cleared on acceptance, not on settlement
	assert.Equal(t, "", controller.PendingInput())
	assert.True(t, controller.Busy())
	assert.Len(t, controller.Transcript(), 1)

	// Typing ahead is allowed, submitting is not
	controller.UpdateInput("second question")
	assert.False(t, controller.Submit(context.Background(), "second question"))
	_, accepted = controller.Dispatch(context.Background(), "second question")
	assert.False(t, accepted)
	assert.Len(t, controller.Transcript(), 1)
	assert.Equal(t, "second question", controller.PendingInput())

	close(backend.release)
	<-done

	assert.False(t, controller.Busy())
	assert.Equal(t, 1, backend.Calls())
	assert.Len(t, controller.Transcript(), 2)
}

func TestConcurrentSubmitsIssueOneRequest(t *testing.T) {
	backend := newBlockingBackend(&models.Answer{Content: models.String("ok")}, nil)
	controller := NewController(backend)

	var wg sync.WaitGroup
	var mu sync.Mutex
	acceptedCount := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if controller.Submit(context.Background(), fmt.Sprintf("question %d", i)) {
				mu.Lock()
				acceptedCount++
				mu.Unlock()
			}
		}(i)
	}

	<-backend.started
	// Give the losers time to hit the gate before releasing the winner
	time.Sleep(50 * time.Millisecond)
	close(backend.release)
	wg.Wait()

	assert.Equal(t, 1, acceptedCount)
	assert.Equal(t, 1, backend.Calls())
	assert.Len(t, controller.Transcript(), 2)
}

func TestFailureRecovery(t *testing.T) {
	backend := &MockBackend{}
	backend.On("Ask", mock.Anything, "first").Return(nil, fmt.Errorf("%w: status 500", chat.ErrProtocol)).Once()
	backend.On("Ask", mock.Anything, "second").Return(&models.Answer{Content: models.String("answer")}, nil).Once()

	controller := NewController(backend)
	require.True(t, controller.Submit(context.Background(), "first"))
	assert.False(t, controller.Busy())

	require.True(t, controller.Submit(context.Background(), "second"))
	transcript := controller.Transcript()
	require.Len(t, transcript, 4)
	assert.Equal(t, models.ApologyMessage, transcript[1].Text())
	assert.Equal(t, "answer", transcript[3].Text())

	backend.AssertExpectations(t)
}

func TestEveryQuestionGetsOneAnswer(t *testing.T) {
	outcomes := []error{nil, chat.ErrTransport, nil, chat.ErrProtocol, errors.New("boom"), nil}
	call := 0
	backend := chat.BackendFunc(func(ctx context.Context, question string) (*models.Answer, error) {
		err := outcomes[call%len(outcomes)]
		call++
		if err != nil {
			return nil, err
		}
		return &models.Answer{Content: models.String("answer to " + question)}, nil
	})

	controller := NewController(backend)
	inputs := []string{"a", "", "b", "   ", "c", "d", "e", "f"}
	accepted := 0
	for _, input := range inputs {
		if controller.Submit(context.Background(), input) {
			accepted++
		}

		transcript := controller.Transcript()
		assert.Len(t, transcript, 2*accepted)
		for i, turn := range transcript {
			if i%2 == 0 {
				assert.Equal(t, models.RoleUser, turn.Role)
			} else {
				assert.Equal(t, models.RoleAssistant, turn.Role)
				assert.NotNil(t, turn.Content)
			}
		}
	}
	assert.Equal(t, 6, accepted)
}

func TestCitationTolerance(t *testing.T) {
	tests := []struct {
		name            string
		answer          *models.Answer
		wantContent     *string
		wantCitationLen int
	}{
		{
			name:            "answer with empty citations",
			answer:          &models.Answer{Content: models.String("yes"), Citations: []models.Citation{}},
			wantContent:     models.String("yes"),
			wantCitationLen: 0,
		},
		{
			name:            "answer with nil citations",
			answer:          &models.Answer{Content: models.String("yes")},
			wantContent:     models.String("yes"),
			wantCitationLen: 0,
		},
		{
			name:            "no content at all",
			answer:          &models.Answer{},
			wantContent:     nil,
			wantCitationLen: 0,
		},
		{
			name: "citation without any fields",
			answer: &models.Answer{
				Content:   models.String("see source"),
				Citations: []models.Citation{{}},
			},
			wantContent:     models.String("see source"),
			wantCitationLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller := NewController(chat.BackendFunc(func(ctx context.Context, question string) (*models.Answer, error) {
				return tt.answer, nil
			}))

			require.True(t, controller.Submit(context.Background(), "question"))
			transcript := controller.Transcript()
			require.Len(t, transcript, 2)

			assistant := transcript[1]
			assert.Equal(t, tt.wantContent, assistant.Content)
			assert.NotNil(t, assistant.Citations)
			assert.Len(t, assistant.Citations, tt.wantCitationLen)
		})
	}
}

func TestNilAnswerIsFailure(t *testing.T) {
	controller := NewController(chat.BackendFunc(func(ctx context.Context, question string) (*models.Answer, error) {
		return nil, nil
	}))

	require.True(t, controller.Submit(context.Background(), "question"))
	transcript := controller.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, models.ApologyMessage, transcript[1].Text())
}

func TestTimeoutSynthesizesFailure(t *testing.T) {
	backend := newBlockingBackend(&models.Answer{Content: models.String("late")}, nil)
	controller := NewController(backend, WithTimeout(20*time.Millisecond))

	require.True(t, controller.Submit(context.Background(), "slow question"))

	transcript := controller.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, models.ApologyMessage, transcript[1].Text())
	assert.False(t, controller.Busy())
}

func TestSubscribeReceivesEveryChange(t *testing.T) {
	controller := NewController(chat.BackendFunc(func(ctx context.Context, question string) (*models.Answer, error) {
		return &models.Answer{Content: models.String("ok")}, nil
	}))

	var snapshots []models.Snapshot
	unsubscribe := controller.Subscribe(func(s models.Snapshot) {
		snapshots = append(snapshots, s)
	})

	controller.UpdateInput("hi")
	controller.Submit(context.Background(), "hi")

	require.Len(t, snapshots, 3)
	assert.Equal(t, "hi", snapshots[0].PendingInput)
	assert.True(t, snapshots[1].Busy)
	assert.Len(t, snapshots[1].Transcript, 1)
	assert.Equal(t, "", snapshots[1].PendingInput)
	assert.False(t, snapshots[2].Busy)
	assert.Len(t, snapshots[2].Transcript, 2)

	unsubscribe()
	unsubscribe()
	controller.UpdateInput("ignored")
	assert.Len(t, snapshots, 3)
}

func TestSnapshotIsACopy(t *testing.T) {
	controller := NewController(chat.BackendFunc(func(ctx context.Context, question string) (*models.Answer, error) {
		return &models.Answer{
			Content:   models.String("ok"),
			Citations: []models.Citation{{SourceID: models.String("policy.pdf"), PageNumber: models.Int(2)}},
		}, nil
	}))
	require.True(t, controller.Submit(context.Background(), "question"))

	snapshot := controller.Snapshot()
	snapshot.Transcript[0] = models.NewUserTurn("tampered")
	*snapshot.Transcript[1].Content = "tampered"
	*snapshot.Transcript[1].Citations[0].PageNumber = 99
	snapshot.Transcript[1].Citations[0] = models.Citation{SourceID: models.String("tampered.pdf")}

	transcript := controller.Transcript()
	assert.Equal(t, "question", transcript[0].Text())
	assert.Equal(t, "ok", transcript[1].Text())
	require.Len(t, transcript[1].Citations, 1)
	assert.Equal(t, "policy.pdf", *transcript[1].Citations[0].SourceID)
	assert.Equal(t, 2, *transcript[1].Citations[0].PageNumber)
}

func TestAnswerIsCopiedIntoTranscript(t *testing.T) {
	answer := &models.Answer{
		Content:   models.String("ok"),
		Citations: []models.Citation{{SourceID: models.String("policy.pdf")}},
	}
	controller := NewController(chat.BackendFunc(func(ctx context.Context, question string) (*models.Answer, error) {
		return answer, nil
	}))
	require.True(t, controller.Submit(context.Background(), "question"))

	*answer.Content = "changed later"
	*answer.Citations[0].SourceID = "changed.pdf"

	transcript := controller.Transcript()
	assert.Equal(t, "ok", transcript[1].Text())
	assert.Equal(t, "policy.pdf", *transcript[1].Citations[0].SourceID)
}
