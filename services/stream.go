package services

import (
	"sync"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/shared"
	log "github.com/sirupsen/logrus"
)

const (
	STREAM_SVC = "stream_svc"

	StreamEventReady = "ready"
	StreamEventReply = "reply"

	subscriberBuffer = 16
)

// StreamService fans oracle replies out to the /stream subscribers.
// A subscriber that falls behind loses events rather than blocking the game.
type StreamService struct {
	context.DefaultService

	mu          sync.Mutex
	nextID      uint64
	subscribers map[uint64]chan dto.StreamEvent
	closed      bool
}

func NewStreamService() *StreamService {
	return &StreamService{subscribers: map[uint64]chan dto.StreamEvent{}}
}

func (svc StreamService) Id() string {
	return STREAM_SVC
}

func (svc *StreamService) Configure(ctx *context.Context) error {
	svc.subscribers = map[uint64]chan dto.StreamEvent{}
	return svc.DefaultService.Configure(ctx)
}

func (svc *StreamService) Start() error {
	return nil
}

// Subscribe registers a listener. The returned cancel func must be called
// once the listener goes away; the channel is closed afterwards.
func (svc *StreamService) Subscribe() (<-chan dto.StreamEvent, func()) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	ch := make(chan dto.StreamEvent, subscriberBuffer)
	if svc.closed {
		close(ch)
		return ch, func() {}
	}

	id := svc.nextID
	svc.nextID++
	svc.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { svc.unsubscribe(id) })
	}
}

func (svc *StreamService) unsubscribe(id uint64) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if ch, ok := svc.subscribers[id]; ok {
		delete(svc.subscribers, id)
		close(ch)
	}
}

// Publish delivers event to every subscriber without blocking.
func (svc *StreamService) Publish(event dto.StreamEvent) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	for id, ch := range svc.subscribers {
		select {
		case ch <- event:
		default:
			log.WithField("subscriber", id).Warn("Stream subscriber is full, dropping event")
		}
	}
}

// PublishReply encodes an oracle reply as a reply event.
func (svc *StreamService) PublishReply(reply dto.AskResponse) {
	data, err := shared.JSONAPI.Marshal(reply)
	if err != nil {
		log.Errorf("Failed to encode stream reply: %v", err)
		return
	}
	svc.Publish(dto.StreamEvent{Name: StreamEventReply, Data: data})
}

func (svc *StreamService) SubscriberCount() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.subscribers)
}

func (svc *StreamService) Shutdown() {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.closed = true
	for id, ch := range svc.subscribers {
		delete(svc.subscribers, id)
		close(ch)
	}
}
