package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/BiggestJib/Lottery-raffle/internal/core/application"
	"github.com/BiggestJib/Lottery-raffle/internal/core/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type listener struct {
	id string
	ch chan domain.RaffleEvent
}

type Handler struct {
	svc application.Service

	listenersLock *sync.Mutex
	listeners     []*listener
}

func NewHandler(service application.Service) *Handler {
	h := &Handler{
		svc:           service,
		listenersLock: &sync.Mutex{},
		listeners:     make([]*listener, 0),
	}

	go h.listenToEvents()

	return h
}

type enterRequest struct {
	Player string `json:"player"`
	Amount uint64 `json:"amount"`
}

func (h *Handler) EnterRaffle(c *gin.Context) {
	req := enterRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.EnterRaffle(c.Request.Context(), req.Player, req.Amount); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) GetRaffle(c *gin.Context) {
	ctx := c.Request.Context()
	round, err := h.svc.GetCurrentRound(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	balance, err := h.svc.GetBalance(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	recentWinner := ""
	if winner, err := h.svc.GetRecentWinner(ctx); err == nil {
		recentWinner = winner.Address
	}

	c.JSON(http.StatusOK, gin.H{
		"round_id":       round.Id,
		"stage":          round.Stage.Code.String(),
		"entrance_fee":   h.svc.EntranceFee(),
		"draw_interval":  h.svc.DrawInterval(),
		"players":        len(round.Players),
		"balance":        balance,
		"last_draw_time": round.StartingTimestamp,
		"recent_winner":  recentWinner,
	})
}

func (h *Handler) GetPlayer(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player index"})
		return
	}

	player, err := h.svc.GetPlayer(c.Request.Context(), index)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address": player.Address,
		"amount":  player.Amount,
	})
}

func (h *Handler) CheckUpkeep(c *gin.Context) {
	status, err := h.svc.CheckUpkeep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, upkeepJSON(status))
}

func (h *Handler) PerformUpkeep(c *gin.Context) {
	requestId, err := h.svc.PerformUpkeep(c.Request.Context())
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": requestId})
}

type abortRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) AbortDraw(c *gin.Context) {
	req := abortRequest{}
	// The body is optional, an empty reason is accepted.
	// nolint:all
	c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "aborted by operator"
	}

	if err := h.svc.AbortDraw(c.Request.Context(), req.Reason); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type fulfillRequest struct {
	RequestId   string   `json:"request_id"`
	RandomWords []uint64 `json:"random_words"`
}

func (h *Handler) FulfillRandomWords(c *gin.Context) {
	req := fulfillRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.RequestId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing request id"})
		return
	}

	if err := h.svc.FulfillRandomWords(
		c.Request.Context(), req.RequestId, req.RandomWords,
	); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) GetRound(c *gin.Context) {
	round, err := h.svc.GetRoundWithId(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, roundJSON(round))
}

func (h *Handler) GetWinners(c *gin.Context) {
	winners, err := h.svc.GetAllWinners(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list := make([]gin.H, 0, len(winners))
	for _, w := range winners {
		list = append(list, gin.H{
			"round_id":  w.RoundId,
			"address":   w.Address,
			"prize":     w.Prize,
			"timestamp": w.Timestamp,
		})
	}
	c.JSON(http.StatusOK, gin.H{"winners": list})
}

func (h *Handler) StreamEvents(c *gin.Context) {
	l := &listener{
		id: uuid.New().String(),
		ch: make(chan domain.RaffleEvent, 16),
	}

	h.listenersLock.Lock()
	h.listeners = append(h.listeners, l)
	h.listenersLock.Unlock()

	defer h.removeListener(l.id)

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-l.ch:
			if !ok {
				return false
			}
			name, payload := eventJSON(event)
			c.SSEvent(name, payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) listenToEvents() {
	for event := range h.svc.GetEventsChannel(context.Background()) {
		h.listenersLock.Lock()
		for _, l := range h.listeners {
			select {
			case l.ch <- event:
			default:
			}
		}
		h.listenersLock.Unlock()
	}
}

func (h *Handler) removeListener(id string) {
	h.listenersLock.Lock()
	defer h.listenersLock.Unlock()

	for i, l := range h.listeners {
		if l.id == id {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			return
		}
	}
}

func errStatus(err error) int {
	var notReady domain.DrawNotReadyError
	switch {
	case errors.Is(err, domain.ErrInsufficientPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrRaffleNotOpen),
		errors.Is(err, domain.ErrNotCalculating),
		errors.Is(err, domain.ErrRequestMismatch):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTransferFailed):
		return http.StatusBadGateway
	case errors.As(err, &notReady):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func upkeepJSON(status *application.UpkeepStatus) gin.H {
	return gin.H{
		"ready":        status.Ready,
		"time_elapsed": status.TimeElapsed,
		"open":         status.Open,
		"balance":      status.Balance,
		"players":      status.Players,
		"stage":        status.Stage.String(),
	}
}

func roundJSON(round *domain.Round) gin.H {
	players := make([]string, 0, len(round.Players))
	for _, p := range round.Players {
		players = append(players, p.Address)
	}
	return gin.H{
		"id":           round.Id,
		"stage":        round.Stage.Code.String(),
		"ended":        round.Stage.Ended,
		"entrance_fee": round.EntranceFee,
		"players":      players,
		"request_id":   round.RequestId,
		"winner":       round.Winner,
		"prize":        round.Prize,
		"started_at":   round.StartingTimestamp,
		"ended_at":     round.EndingTimestamp,
	}
}

func eventJSON(event domain.RaffleEvent) (string, gin.H) {
	switch e := event.(type) {
	case domain.RoundStarted:
		return "round_started", gin.H{"round_id": e.Id, "timestamp": e.Timestamp}
	case domain.PlayerEntered:
		return "player_entered", gin.H{
			"round_id": e.Id, "player": e.Address, "amount": e.Amount,
		}
	case domain.DrawRequested:
		return "draw_requested", gin.H{
			"round_id": e.Id, "request_id": e.RequestId, "timestamp": e.Timestamp,
		}
	case domain.DrawAborted:
		return "draw_aborted", gin.H{
			"round_id": e.Id, "reason": e.Reason, "timestamp": e.Timestamp,
		}
	case domain.WinnerSelected:
		return "winner_selected", gin.H{
			"round_id": e.Id, "winner": e.Winner, "prize": e.Prize,
			"timestamp": e.Timestamp,
		}
	default:
		return "unknown", gin.H{}
	}
}
