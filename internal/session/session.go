// Package session persists game state between utterances in redis, so the
// host can crash or restart mid-game without losing the board. The move
// list is the source of truth; the game is reconstructed by replaying it.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session is one game's durable state. Undone holds popped moves so redo
// can replay them; any new move clears it.
type Session struct {
	ID        string    `json:"id"`
	MovesUCI  []string  `json:"moves_uci"`
	Undone    []string  `json:"undone,omitempty"`
	Flipped   bool      `json:"flipped"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(redisURL string, ttl time.Duration) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required for session store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}, nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Create starts a fresh session at the initial position.
func (s *Store) Create(ctx context.Context) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		MovesUCI:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads a session by id, nil when it never existed or expired.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// PushMove records a played move and clears the redo stack.
func (s *Store) PushMove(ctx context.Context, sess *Session, uci string) error {
	sess.MovesUCI = append(sess.MovesUCI, uci)
	sess.Undone = nil
	return s.save(ctx, sess)
}

// Undo pops the last move onto the redo stack. False when there is
// nothing to undo.
func (s *Store) Undo(ctx context.Context, sess *Session) (bool, error) {
	n := len(sess.MovesUCI)
	if n == 0 {
		return false, nil
	}
	last := sess.MovesUCI[n-1]
	sess.MovesUCI = sess.MovesUCI[:n-1]
	sess.Undone = append(sess.Undone, last)
	return true, s.save(ctx, sess)
}

// Redo replays the most recently undone move.
func (s *Store) Redo(ctx context.Context, sess *Session) (bool, error) {
	n := len(sess.Undone)
	if n == 0 {
		return false, nil
	}
	mv := sess.Undone[n-1]
	sess.Undone = sess.Undone[:n-1]
	sess.MovesUCI = append(sess.MovesUCI, mv)
	return true, s.save(ctx, sess)
}

// Reset wipes the session back to the initial position.
func (s *Store) Reset(ctx context.Context, sess *Session) error {
	sess.MovesUCI = []string{}
	sess.Undone = nil
	return s.save(ctx, sess)
}

// SetMoves replaces the move list wholesale, used when an opening line is
// set up.
func (s *Store) SetMoves(ctx context.Context, sess *Session, movesUCI []string) error {
	sess.MovesUCI = append([]string(nil), movesUCI...)
	sess.Undone = nil
	return s.save(ctx, sess)
}

// SetFlipped persists board orientation.
func (s *Store) SetFlipped(ctx context.Context, sess *Session, flipped bool) error {
	sess.Flipped = flipped
	return s.save(ctx, sess)
}

func (s *Store) save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now()
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(sess.ID), raw, s.ttl).Err()
}

// Reconstruct replays the session's moves onto a fresh game.
func Reconstruct(sess *Session) (*nchess.Game, error) {
	game := nchess.NewGame()
	for _, mv := range sess.MovesUCI {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("replay %s: %w", mv, err)
		}
	}
	return game, nil
}

func sessionKey(id string) string { return "vc:session:" + strings.TrimSpace(id) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
