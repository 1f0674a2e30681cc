package mockoracle

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/BiggestJib/Lottery-raffle/internal/core/ports"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// requestFee is charged to the subscription per fulfilled request.
const requestFee = uint64(100)

type subscription struct {
	balance   uint64
	consumers []ports.RandomnessConsumer
}

type pendingRequest struct {
	subId    uint64
	numWords uint32
	delay    time.Duration
}

// Coordinator is a local, in-process stand-in for the verifiable-randomness
// service, used on ephemeral networks and in tests. It mimics the billing
// model of the live oracle: requests are rejected unless the subscription
// exists, is funded and lists the consumer.
type Coordinator struct {
	lock      *sync.Mutex
	blockTime time.Duration
	auto      bool

	nextSubId uint64
	subs      map[uint64]*subscription
	pending   map[string]pendingRequest
	closed    bool
}

func NewCoordinator(blockTime time.Duration, autoFulfill bool) *Coordinator {
	return &Coordinator{
		lock:      &sync.Mutex{},
		blockTime: blockTime,
		auto:      autoFulfill,
		nextSubId: 1,
		subs:      make(map[uint64]*subscription),
		pending:   make(map[string]pendingRequest),
	}
}

func (c *Coordinator) RequestRandomWords(
	ctx context.Context, req ports.RandomnessRequest,
) (string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	sub, ok := c.subs[req.SubscriptionId]
	if !ok {
		return "", fmt.Errorf("subscription %d not found", req.SubscriptionId)
	}
	if sub.balance < requestFee {
		return "", fmt.Errorf("subscription %d not funded", req.SubscriptionId)
	}
	if len(sub.consumers) <= 0 {
		return "", fmt.Errorf("subscription %d has no consumers", req.SubscriptionId)
	}
	if req.NumWords <= 0 {
		return "", fmt.Errorf("missing number of words")
	}

	// The fee is reserved up front so a subscription can only hold as many
	// pending requests as it can pay for.
	sub.balance -= requestFee

	requestId := uuid.New().String()
	c.pending[requestId] = pendingRequest{
		subId:    req.SubscriptionId,
		numWords: req.NumWords,
		delay:    time.Duration(req.Confirmations) * c.blockTime,
	}

	if c.auto {
		go c.autoFulfill(requestId)
	}

	log.Debugf("mock oracle: registered request %s", requestId)
	return requestId, nil
}

// Fulfill delivers random words for a pending request. Tests drive this
// directly; with auto-fulfillment enabled it fires after the simulated
// confirmation delay.
func (c *Coordinator) Fulfill(
	ctx context.Context, requestId string, randomWords []uint64,
) error {
	c.lock.Lock()
	req, ok := c.pending[requestId]
	if !ok {
		c.lock.Unlock()
		return fmt.Errorf("request %s not found", requestId)
	}
	consumers := append([]ports.RandomnessConsumer{}, c.subs[req.subId].consumers...)
	c.lock.Unlock()

	if len(randomWords) <= 0 {
		randomWords = makeRandomWords(req.numWords)
	}

	for _, consumer := range consumers {
		if err := consumer.FulfillRandomWords(ctx, requestId, randomWords); err != nil {
			// The request stays pending, a later retry can still deliver it.
			return err
		}
	}

	c.lock.Lock()
	delete(c.pending, requestId)
	c.lock.Unlock()
	return nil
}

func (c *Coordinator) CreateSubscription(ctx context.Context) (uint64, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	id := c.nextSubId
	c.nextSubId++
	c.subs[id] = &subscription{}
	return id, nil
}

func (c *Coordinator) FundSubscription(
	ctx context.Context, id uint64, amount uint64,
) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	sub, ok := c.subs[id]
	if !ok {
		return fmt.Errorf("subscription %d not found", id)
	}
	sub.balance += amount
	return nil
}

func (c *Coordinator) AddConsumer(
	ctx context.Context, id uint64, consumer ports.RandomnessConsumer,
) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	sub, ok := c.subs[id]
	if !ok {
		return fmt.Errorf("subscription %d not found", id)
	}
	sub.consumers = append(sub.consumers, consumer)
	return nil
}

func (c *Coordinator) Close() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.closed = true
}

func (c *Coordinator) autoFulfill(requestId string) {
	for {
		c.lock.Lock()
		req, ok := c.pending[requestId]
		closed := c.closed
		c.lock.Unlock()
		if !ok || closed {
			return
		}

		delay := req.delay
		if delay <= 0 {
			delay = c.blockTime
		}
		time.Sleep(delay)

		if err := c.Fulfill(context.Background(), requestId, nil); err != nil {
			log.WithError(err).Warnf(
				"mock oracle: failed to fulfill request %s, retrying", requestId,
			)
			continue
		}
		return
	}
}

func makeRandomWords(num uint32) []uint64 {
	words := make([]uint64, 0, num)
	for i := uint32(0); i < num; i++ {
		var buf [8]byte
		// nolint:all
		rand.Read(buf[:])
		words = append(words, binary.BigEndian.Uint64(buf[:]))
	}
	return words
}
