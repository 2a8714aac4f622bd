package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "solidarlink/pkg/domain"
)

type AuditSuite struct {
	suite.Suite
	store     *InMemoryStore
	publisher *Publisher
}

func TestAuditSuite(t *testing.T) {
	suite.Run(t, new(AuditSuite))
}

func (s *AuditSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.publisher = NewPublisher(slog.New(slog.DiscardHandler))
}

func (s *AuditSuite) TestWorkerDrainsInbox() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewWorker(s.store, s.publisher.Inbox(), slog.New(slog.DiscardHandler))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	caseID := id.NewCaseID()
	s.publisher.Emit(Event{
		ActorID: id.NewUserID(),
		CaseID:  caseID,
		Action:  ActionCaseCreated,
	})
	s.publisher.Emit(Event{
		ActorID: id.NewUserID(),
		CaseID:  caseID,
		Action:  ActionCaseTaken,
	})

	s.Require().Eventually(func() bool {
		return s.store.Len() == 2
	}, time.Second, 5*time.Millisecond)

	events, err := s.store.ListByCase(context.Background(), caseID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(ActionCaseCreated, events[0].Action)
	s.False(events[0].Timestamp.IsZero())

	cancel()
	<-done
}

func (s *AuditSuite) TestEmitNeverBlocksWhenFull() {
	// No worker running: fill the inbox past capacity.
	for i := 0; i < defaultInboxSize+10; i++ {
		s.publisher.Emit(Event{Action: ActionCaseUpdated})
	}
	s.EqualValues(10, s.publisher.Dropped())
}
