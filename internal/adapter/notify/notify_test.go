package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"

	"sacco-backend/internal/adapter/notify"
	"sacco-backend/internal/adapter/repository/gormdb"
	"sacco-backend/internal/domain/member"
	"sacco-backend/internal/domain/notification"
	"sacco-backend/internal/testutil/dbtest"
)

type counter struct{ got []notification.Message }

func (c *counter) Notify(_ context.Context, m notification.Message) { c.got = append(c.got, m) }

func TestInApp_StoresUnread(t *testing.T) {
	db := dbtest.Open(t)
	repo := gormdb.NewNotificationRepository(db)
	userID := dbtest.Member(t, db, member.RoleMember)
	n := notify.NewInApp(repo)
	ctx := context.Background()

	n.Notify(ctx, notification.Message{UserID: userID, Kind: notification.KindPaymentReceived, Title: "Payment received", Body: "ok"})
	n.Notify(ctx, notification.Message{Kind: notification.KindActionExpired})

	count, err := repo.CountUnread(ctx, userID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	rows, err := repo.ListByUser(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "ok", rows[0].Message)
	require.False(t, rows[0].Read)
}

func TestKafka_PublishesKeyedEvents(t *testing.T) {
	p := mocks.NewAsyncProducer(t, nil)
	var sent []byte
	p.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "user-1" {
			return errors.New("unexpected key " + string(key))
		}
		sent, err = msg.Value.Encode()
		return err
	})
	p.ExpectInputAndFail(sarama.ErrOutOfBrokers)

	k := notify.NewKafka(p, "sacco.notifications")
	k.Notify(context.Background(), notification.Message{UserID: "user-1", Kind: notification.KindLoanApproved, Title: "Loan approved"})
	k.Notify(context.Background(), notification.Message{UserID: "user-2", Kind: notification.KindLoanDisbursed})
	require.NoError(t, k.Close())

	var ev notify.Event
	require.NoError(t, json.Unmarshal(sent, &ev))
	require.Equal(t, notification.KindLoanApproved, ev.Kind)
	require.Equal(t, "user-1", ev.UserID)
	require.False(t, ev.OccurredAt.IsZero())
}

// stalledProducer never reads its input.
type stalledProducer struct {
	sarama.AsyncProducer
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func (s *stalledProducer) Input() chan<- *sarama.ProducerMessage { return s.input }
func (s *stalledProducer) Errors() <-chan *sarama.ProducerError  { return s.errors }
func (s *stalledProducer) AsyncClose()                           { close(s.errors) }

func TestKafka_NotifyDropsWhenInputFull(t *testing.T) {
	p := &stalledProducer{input: make(chan *sarama.ProducerMessage, 1), errors: make(chan *sarama.ProducerError)}
	k := notify.NewKafka(p, "sacco.notifications")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			k.Notify(context.Background(), notification.Message{UserID: "user-1", Kind: notification.KindPaymentReceived})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a stalled producer")
	}

	require.EqualValues(t, 2, k.Dropped())
	require.Len(t, p.input, 1)
	require.NoError(t, k.Close())
}

func TestFanout_SkipsNil(t *testing.T) {
	a, b := &counter{}, &counter{}
	f := notify.Fanout{a, nil, b}
	f.Notify(context.Background(), notification.Message{UserID: "u", Kind: notification.KindMemberActivated})
	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)
}
