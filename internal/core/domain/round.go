package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	UndefinedStage RaffleStage = iota
	OpenStage
	CalculatingStage
)

type RaffleStage int

func (s RaffleStage) String() string {
	switch s {
	case OpenStage:
		return "OPEN"
	case CalculatingStage:
		return "CALCULATING"
	default:
		return "UNDEFINED"
	}
}

type Stage struct {
	Code  RaffleStage
	Ended bool
}

type Player struct {
	Address string
	Amount  uint64
}

// Round is one open-calculating-open cycle of the raffle. The registry of
// players is append-only while the round is open and the order decides the
// winner index at fulfillment time.
type Round struct {
	Id                string
	EntranceFee       uint64
	StartingTimestamp int64
	EndingTimestamp   int64
	Stage             Stage
	Players           []Player
	RequestId         string
	Winner            string
	Prize             uint64
	RandomWord        uint64
	Version           uint
	Changes           []RaffleEvent
}

func NewRound(entranceFee uint64) *Round {
	return &Round{
		Id:          uuid.New().String(),
		EntranceFee: entranceFee,
		Players:     make([]Player, 0),
		Changes:     make([]RaffleEvent, 0),
	}
}

func NewRoundFromEvents(events []RaffleEvent) *Round {
	r := &Round{}

	for _, event := range events {
		r.On(event, true)
	}

	r.Changes = append([]RaffleEvent{}, events...)

	return r
}

func (r *Round) Events() []RaffleEvent {
	return r.Changes
}

func (r *Round) On(event RaffleEvent, replayed bool) {
	switch e := event.(type) {
	case RoundStarted:
		r.Stage.Code = OpenStage
		r.Id = e.Id
		r.EntranceFee = e.EntranceFee
		r.StartingTimestamp = e.Timestamp
	case PlayerEntered:
		if r.Players == nil {
			r.Players = make([]Player, 0)
		}
		r.Players = append(r.Players, Player{Address: e.Address, Amount: e.Amount})
	case DrawRequested:
		r.Stage.Code = CalculatingStage
		r.RequestId = e.RequestId
	case DrawAborted:
		r.Stage.Code = OpenStage
		r.RequestId = ""
	case WinnerSelected:
		r.Stage.Code = OpenStage
		r.Stage.Ended = true
		r.Winner = e.Winner
		r.Prize = e.Prize
		r.RandomWord = e.RandomWord
		r.EndingTimestamp = e.Timestamp
	}

	if replayed {
		r.Version++
	}
}

func (r *Round) Start() ([]RaffleEvent, error) {
	empty := Stage{}
	if r.Stage != empty {
		return nil, fmt.Errorf("not in a valid stage to start the round")
	}

	event := RoundStarted{
		Id:          r.Id,
		EntranceFee: r.EntranceFee,
		Timestamp:   time.Now().Unix(),
	}
	r.raise(event)

	return []RaffleEvent{event}, nil
}

func (r *Round) Enter(address string, amount uint64) ([]RaffleEvent, error) {
	if !r.IsOpen() {
		return nil, ErrRaffleNotOpen
	}
	if len(address) <= 0 {
		return nil, fmt.Errorf("missing player address")
	}
	if amount < r.EntranceFee {
		return nil, ErrInsufficientPayment
	}

	event := PlayerEntered{
		Id:      r.Id,
		Address: address,
		Amount:  amount,
	}
	r.raise(event)

	return []RaffleEvent{event}, nil
}

func (r *Round) StartCalculating(requestId string) ([]RaffleEvent, error) {
	if !r.IsOpen() {
		return nil, ErrRaffleNotOpen
	}
	if len(r.Players) <= 0 {
		return nil, fmt.Errorf("no players in the round")
	}
	if len(requestId) <= 0 {
		return nil, fmt.Errorf("missing randomness request id")
	}

	event := DrawRequested{
		Id:        r.Id,
		RequestId: requestId,
		Timestamp: time.Now().Unix(),
	}
	r.raise(event)

	return []RaffleEvent{event}, nil
}

func (r *Round) AbortDraw(reason string) []RaffleEvent {
	if !r.IsCalculating() {
		return nil
	}
	event := DrawAborted{
		Id:        r.Id,
		Reason:    reason,
		Timestamp: time.Now().Unix(),
	}
	r.raise(event)

	return []RaffleEvent{event}
}

// SelectWinner picks the winner with the first random word, modulo the
// registry length. The modulo bias on the word range is accepted.
func (r *Round) SelectWinner(
	requestId string, randomWords []uint64, prize uint64,
) ([]RaffleEvent, error) {
	if !r.IsCalculating() {
		return nil, ErrNotCalculating
	}
	if requestId != r.RequestId {
		return nil, ErrRequestMismatch
	}
	if len(randomWords) <= 0 {
		return nil, fmt.Errorf("missing random words")
	}

	winnerIndex := randomWords[0] % uint64(len(r.Players))
	event := WinnerSelected{
		Id:         r.Id,
		Winner:     r.Players[winnerIndex].Address,
		Prize:      prize,
		RandomWord: randomWords[0],
		Timestamp:  time.Now().Unix(),
	}
	r.raise(event)

	return []RaffleEvent{event}, nil
}

func (r *Round) IsOpen() bool {
	return r.Stage.Code == OpenStage && !r.Stage.Ended
}

func (r *Round) IsCalculating() bool {
	return r.Stage.Code == CalculatingStage
}

func (r *Round) IsEnded() bool {
	return r.Stage.Ended
}

func (r *Round) PlayerAt(index int) (Player, error) {
	if index < 0 || index >= len(r.Players) {
		return Player{}, fmt.Errorf("player index %d out of range", index)
	}
	return r.Players[index], nil
}

func (r *Round) TotEntryAmount() uint64 {
	tot := uint64(0)
	for _, p := range r.Players {
		tot += p.Amount
	}
	return tot
}

func (r *Round) raise(event RaffleEvent) {
	if r.Changes == nil {
		r.Changes = make([]RaffleEvent, 0)
	}
	r.Changes = append(r.Changes, event)
	r.On(event, false)
}
