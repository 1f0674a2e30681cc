package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/BiggestJib/Lottery-raffle/internal/core/domain"
	dbtypes "github.com/BiggestJib/Lottery-raffle/internal/infrastructure/db/types"
	_ "github.com/mattn/go-sqlite3"
)

const winnerStoreFile = "winners.sqlite3"

type winnerRepository struct {
	db *sql.DB
}

func NewWinnerRepository(config ...interface{}) (dbtypes.WinnerStore, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}

	dsn := ":memory:"
	if len(baseDir) > 0 {
		dsn = filepath.Join(baseDir, winnerStoreFile)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open winner store: %s", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS winners (
			round_id TEXT PRIMARY KEY,
			address TEXT NOT NULL,
			prize INTEGER NOT NULL,
			random_word TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		);
	`); err != nil {
		return nil, fmt.Errorf("failed to init winner store: %s", err)
	}

	return &winnerRepository{db}, nil
}

func (r *winnerRepository) AddWinner(
	ctx context.Context, record domain.WinnerRecord,
) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO winners
			(round_id, address, prize, random_word, timestamp)
			VALUES (?, ?, ?, ?, ?)`,
		record.RoundId, record.Address, int64(record.Prize),
		strconv.FormatUint(record.RandomWord, 10), record.Timestamp,
	)
	return err
}

func (r *winnerRepository) GetRecentWinner(
	ctx context.Context,
) (*domain.WinnerRecord, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT round_id, address, prize, random_word, timestamp
			FROM winners ORDER BY timestamp DESC, rowid DESC LIMIT 1`,
	)
	record, err := scanWinner(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no winner selected yet")
		}
		return nil, err
	}
	return record, nil
}

func (r *winnerRepository) GetAllWinners(
	ctx context.Context,
) ([]domain.WinnerRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT round_id, address, prize, random_word, timestamp
			FROM winners ORDER BY timestamp DESC, rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.WinnerRecord, 0)
	for rows.Next() {
		record, err := scanWinner(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (r *winnerRepository) Close() {
	// nolint:all
	r.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWinner(row scanner) (*domain.WinnerRecord, error) {
	var record domain.WinnerRecord
	var prize int64
	var word string
	if err := row.Scan(
		&record.RoundId, &record.Address, &prize, &word, &record.Timestamp,
	); err != nil {
		return nil, err
	}
	record.Prize = uint64(prize)

	parsed, err := strconv.ParseUint(word, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid random word in winner store: %s", err)
	}
	record.RandomWord = parsed
	return &record, nil
}
