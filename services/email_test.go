package services

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/lac-hong-legacy/guessword_api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestEmailService(t *testing.T, fail map[string]bool) (*EmailService, *[]sentMail) {
	t.Helper()

	var outbox []sentMail
	svc := &EmailService{
		smtpHost:  "smtp.example.com",
		smtpPort:  "587",
		fromEmail: "stand@example.com",
		fromName:  "Devine le mot",
		sendMail: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			if fail[to[0]] {
				return errors.New("mailbox unavailable")
			}
			outbox = append(outbox, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
			return nil
		},
	}
	require.NoError(t, svc.loadTemplates())
	return svc, &outbox
}

func TestNotifyWinnersEmailsOnlyEmailContacts(t *testing.T) {
	svc, outbox := newTestEmailService(t, nil)

	sent := svc.NotifyWinners(model.DistributionRecord{
		DistributedAt: baseTime,
		Winners: []model.Winner{
			{Handle: "alice", Contact: "+15550000001"},
			{Handle: "bob", Contact: "bob@example.com"},
			{Handle: "carol", Contact: "carol@example.com"},
		},
	})

	assert.Equal(t, 2, sent)
	require.Len(t, *outbox, 2)
	first := (*outbox)[0]
	assert.Equal(t, "smtp.example.com:587", first.addr)
	assert.Equal(t, "stand@example.com", first.from)
	assert.Equal(t, []string{"bob@example.com"}, first.to)
	assert.Contains(t, first.msg, "Félicitations bob")
	assert.Contains(t, first.msg, "<strong>2</strong> sur 3")
	assert.True(t, strings.HasPrefix(first.msg, "From: Devine le mot <stand@example.com>\r\n"))
}

func TestNotifyWinnersKeepsGoingAfterFailure(t *testing.T) {
	svc, outbox := newTestEmailService(t, map[string]bool{"bob@example.com": true})

	sent := svc.NotifyWinners(model.DistributionRecord{
		DistributedAt: baseTime,
		Winners: []model.Winner{
			{Handle: "bob", Contact: "bob@example.com"},
			{Handle: "carol", Contact: "carol@example.com"},
		},
	})

	assert.Equal(t, 1, sent)
	require.Len(t, *outbox, 1)
	assert.Equal(t, []string{"carol@example.com"}, (*outbox)[0].to)
}

func TestNotifyWinnersDisabled(t *testing.T) {
	svc := &EmailService{}
	assert.False(t, svc.Enabled())
	assert.Zero(t, svc.NotifyWinners(model.DistributionRecord{Winners: []model.Winner{{Handle: "bob", Contact: "bob@example.com"}}}))
}

type countingNotifier struct {
	rounds []model.DistributionRecord
}

func (n *countingNotifier) NotifyWinners(rec model.DistributionRecord) int {
	n.rounds = append(n.rounds, rec)
	return len(rec.Winners)
}

func TestStartDistributionNotifiesWinners(t *testing.T) {
	store := newTestStore(t)
	notifier := &countingNotifier{}
	svc := NewDistributionService(NewStoreServiceWith(store), identityPermuter{}, newFakeClock(baseTime.Add(time.Hour)).Now,
		WithWinnerNotifier(notifier))
	ctx := context.Background()

	for i, handle := range []string{"alice", "bob", "carol"} {
		require.NoError(t, store.AppendSession(ctx, session(handle, handle+"@example.com", model.SessionWon, 30+i, baseTime)))
	}

	rec, err := svc.StartDistribution(ctx)
	require.NoError(t, err)
	require.Len(t, notifier.rounds, 1)
	assert.Equal(t, *rec, notifier.rounds[0])
}
