package badgerdb

import (
	"encoding/json"
	"fmt"

	"github.com/BiggestJib/Lottery-raffle/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/timshannon/badgerhold/v4"
)

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}

type eventDTO struct {
	Type string
	Data []byte
}

func serializeEvents(events []domain.RaffleEvent) ([][]byte, error) {
	buf := make([][]byte, 0, len(events))
	for _, event := range events {
		dto := eventDTO{Type: eventType(event)}
		if len(dto.Type) <= 0 {
			return nil, fmt.Errorf("unknown event type %T", event)
		}
		data, err := json.Marshal(event)
		if err != nil {
			return nil, err
		}
		dto.Data = data

		serialized, err := json.Marshal(dto)
		if err != nil {
			return nil, err
		}
		buf = append(buf, serialized)
	}
	return buf, nil
}

func deserializeEvents(buf [][]byte) ([]domain.RaffleEvent, error) {
	events := make([]domain.RaffleEvent, 0, len(buf))
	for _, serialized := range buf {
		dto := eventDTO{}
		if err := json.Unmarshal(serialized, &dto); err != nil {
			return nil, err
		}

		event, err := decodeEvent(dto)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func eventType(event domain.RaffleEvent) string {
	switch event.(type) {
	case domain.RoundStarted:
		return "round_started"
	case domain.PlayerEntered:
		return "player_entered"
	case domain.DrawRequested:
		return "draw_requested"
	case domain.DrawAborted:
		return "draw_aborted"
	case domain.WinnerSelected:
		return "winner_selected"
	default:
		return ""
	}
}

func decodeEvent(dto eventDTO) (domain.RaffleEvent, error) {
	switch dto.Type {
	case "round_started":
		event := domain.RoundStarted{}
		if err := json.Unmarshal(dto.Data, &event); err != nil {
			return nil, err
		}
		return event, nil
	case "player_entered":
		event := domain.PlayerEntered{}
		if err := json.Unmarshal(dto.Data, &event); err != nil {
			return nil, err
		}
		return event, nil
	case "draw_requested":
		event := domain.DrawRequested{}
		if err := json.Unmarshal(dto.Data, &event); err != nil {
			return nil, err
		}
		return event, nil
	case "draw_aborted":
		event := domain.DrawAborted{}
		if err := json.Unmarshal(dto.Data, &event); err != nil {
			return nil, err
		}
		return event, nil
	case "winner_selected":
		event := domain.WinnerSelected{}
		if err := json.Unmarshal(dto.Data, &event); err != nil {
			return nil, err
		}
		return event, nil
	default:
		return nil, fmt.Errorf("unknown event type %s", dto.Type)
	}
}
