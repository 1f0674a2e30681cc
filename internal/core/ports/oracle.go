package ports

import "context"

// RandomnessRequest carries the parameters forwarded to the oracle when a
// draw is triggered.
type RandomnessRequest struct {
	KeyHash          string
	SubscriptionId   uint64
	Confirmations    uint32
	CallbackGasLimit uint32
	NumWords         uint32
}

// RandomnessOracle is the request side of the verifiable-randomness service.
// Requests are asynchronous: the returned id correlates a later fulfillment
// delivered to the registered RandomnessConsumer.
type RandomnessOracle interface {
	RequestRandomWords(ctx context.Context, req RandomnessRequest) (string, error)
	Close()
}

// RandomnessConsumer receives oracle fulfillments. The oracle delivers at
// most one fulfillment per request, but consumers must still reject replays.
type RandomnessConsumer interface {
	FulfillRandomWords(ctx context.Context, requestId string, randomWords []uint64) error
}

// SubscriptionManager is implemented by oracles that handle their own
// billing subscriptions, like the local mock coordinator. Live deployments
// manage subscriptions out of band.
type SubscriptionManager interface {
	CreateSubscription(ctx context.Context) (uint64, error)
	FundSubscription(ctx context.Context, id uint64, amount uint64) error
	AddConsumer(ctx context.Context, id uint64, consumer RandomnessConsumer) error
}
