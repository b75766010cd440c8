package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stackarena/stackarena-backend/game"
	"github.com/stackarena/stackarena-backend/models"
)

var ErrGameNotFound = errors.New("game not found")

// GameStore keeps the full session snapshot (seats, move log, derived state)
// in MongoDB and maintains a small index row in PostgreSQL for per-user
// listing. It implements game.SnapshotStore.
type GameStore struct{}

func NewGameStore() *GameStore { return &GameStore{} }

func (s *GameStore) collection() *mongo.Collection {
	return MongoDBClient.Database(mongoDatabase).Collection("game_sessions")
}

// SaveSnapshot upserts the snapshot by game ID and refreshes the index row.
func (s *GameStore) SaveSnapshot(ctx context.Context, snap *game.Snapshot) error {
	filter := bson.M{"gameID": snap.GameID}
	update := bson.M{"$set": snap}
	opts := options.Update().SetUpsert(true)
	if _, err := s.collection().UpdateOne(ctx, filter, update, opts); err != nil {
		return err
	}
	return s.saveIndexRow(snap)
}

func (s *GameStore) saveIndexRow(snap *game.Snapshot) error {
	if PostgreSQLDB == nil {
		return nil
	}
	players := make([]string, 0, len(snap.Seats))
	for _, username := range snap.Seats {
		if username != "" {
			players = append(players, username)
		}
	}
	_, err := PostgreSQLDB.Exec(
		`INSERT INTO games (id, game_type, status, players, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, players = EXCLUDED.players, updated_at = now()`,
		snap.GameID, snap.GameType, string(snap.Status), pq.Array(players), snap.CreatedAt)
	return err
}

// storedSnapshot mirrors game.Snapshot but decodes the rule-specific state
// into a bson.M so it round-trips to JSON as a plain object.
type storedSnapshot struct {
	GameID    string      `bson:"gameID"`
	GameType  string      `bson:"gameType"`
	Status    string      `bson:"status"`
	Seats     []string    `bson:"seats"`
	Moves     []game.Move `bson:"moves"`
	State     bson.M      `bson:"state"`
	Winners   []string    `bson:"winners"`
	Version   uint64      `bson:"version"`
	CreatedAt time.Time   `bson:"createdAt"`
}

// LoadSnapshot fetches the persisted snapshot of a game that is no longer
// live in the registry.
func (s *GameStore) LoadSnapshot(ctx context.Context, gameID string) (*game.Snapshot, error) {
	var doc storedSnapshot
	err := s.collection().FindOne(ctx, bson.M{"gameID": gameID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &game.Snapshot{
		GameID:    doc.GameID,
		GameType:  doc.GameType,
		Status:    game.Status(doc.Status),
		Seats:     doc.Seats,
		Moves:     doc.Moves,
		State:     doc.State,
		Winners:   doc.Winners,
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// ListUserGames returns the index rows of every game username took part in.
func (s *GameStore) ListUserGames(username string) ([]models.GameRecord, error) {
	rows, err := PostgreSQLDB.Query(
		"SELECT id, game_type, status, players, created_at, updated_at FROM games WHERE $1 = ANY(players) ORDER BY updated_at DESC",
		username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []models.GameRecord
	for rows.Next() {
		var record models.GameRecord
		err := rows.Scan(&record.ID, &record.GameType, &record.Status, pq.Array(&record.Players),
			&record.CreatedAt, &record.UpdatedAt)
		if err != nil {
			return nil, err
		}
		games = append(games, record)
	}
	return games, rows.Err()
}
