// Package session is the authority for team sessions: it issues codes,
// admits at most two players, assigns the seq of every guess and records who
// found the title. Sessions live in memory only.
package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"rapantix/internal/normalize"
	"rapantix/internal/types"
)

const (
	MaxPlayers   = 2
	CodeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeAttempts = 50

	RoleHost  = "host"
	RoleGuest = "guest"
)

var (
	ErrInvalid   = errors.New("invalid request")
	ErrNotFound  = errors.New("session not found")
	ErrFull      = errors.New("session is full")
	ErrNotJoined = errors.New("join session first")
	ErrNoCode    = errors.New("unable to generate unique session code")
)

type player struct {
	joinedAt   time.Time
	foundTitle bool
}

type session struct {
	code       string
	hostID     string
	createdAt  time.Time
	updatedAt  time.Time
	minStreams int
	song       types.Song
	titleKey   string
	players    map[string]*player
	guesses    []types.GuessEvent
	guessIndex map[string]types.GuessEvent
	nextSeq    int
}

// Store holds every live session.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates an empty store. Sessions idle for longer than ttl are
// dropped; a ttl of zero keeps them forever.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func cleanCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func cleanID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: missing clientId", ErrInvalid)
	}
	return id, nil
}

// Create opens a session hosted by clientID for song.
func (s *Store) Create(clientID string, minStreams int, song types.Song) (types.TeamState, error) {
	clientID, err := cleanID(clientID)
	if err != nil {
		return types.TeamState{}, err
	}
	if strings.TrimSpace(song.Artist) == "" || strings.TrimSpace(song.Title) == "" || strings.TrimSpace(song.Lyrics) == "" {
		return types.TeamState{}, fmt.Errorf("%w: incomplete song payload", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	code, err := s.generateCodeLocked()
	if err != nil {
		return types.TeamState{}, err
	}
	now := s.now()
	sess := &session{
		code:       code,
		hostID:     clientID,
		createdAt:  now,
		updatedAt:  now,
		minStreams: max(0, minStreams),
		song:       song,
		titleKey:   normalize.Title(song.Title),
		players:    map[string]*player{clientID: {joinedAt: now}},
		guessIndex: make(map[string]types.GuessEvent),
		nextSeq:    1,
	}
	s.sessions[code] = sess
	return sess.stateFor(clientID), nil
}

// Join admits clientID to session code. Joining again is a no-op.
func (s *Store) Join(code, clientID string) (types.TeamState, error) {
	clientID, err := cleanID(clientID)
	if err != nil {
		return types.TeamState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookupLocked(code)
	if err != nil {
		return types.TeamState{}, err
	}
	if _, ok := sess.players[clientID]; !ok {
		if len(sess.players) >= MaxPlayers {
			return types.TeamState{}, ErrFull
		}
		sess.players[clientID] = &player{joinedAt: s.now()}
	}
	sess.updatedAt = s.now()
	return sess.stateFor(clientID), nil
}

// State returns the snapshot of session code as seen by clientID.
func (s *Store) State(code, clientID string) (types.TeamState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.memberLocked(code, clientID)
	if err != nil {
		return types.TeamState{}, err
	}
	sess.updatedAt = s.now()
	return sess.stateFor(clientID), nil
}

// AddGuess appends word to the session log under the next seq. A word whose
// comparison key is already logged is not appended; the existing event is
// returned with accepted set to false.
func (s *Store) AddGuess(code, clientID, word string) (types.GuessEvent, bool, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return types.GuessEvent{}, false, fmt.Errorf("%w: missing word", ErrInvalid)
	}
	key := normalize.Key(word)
	if key == "" {
		return types.GuessEvent{}, false, fmt.Errorf("%w: invalid word", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.memberLocked(code, clientID)
	if err != nil {
		return types.GuessEvent{}, false, err
	}
	if existing, ok := sess.guessIndex[key]; ok {
		return existing, false, nil
	}

	now := s.now()
	event := types.GuessEvent{
		Seq:       sess.nextSeq,
		Word:      word,
		ClientID:  strings.TrimSpace(clientID),
		CreatedAt: now,
	}
	sess.nextSeq++
	sess.guesses = append(sess.guesses, event)
	sess.guessIndex[key] = event
	sess.updatedAt = now
	return event, true, nil
}

// GuessTitle checks title against the session's song and records the
// success for clientID.
func (s *Store) GuessTitle(code, clientID, title string) (bool, types.TeamState, error) {
	if strings.TrimSpace(title) == "" {
		return false, types.TeamState{}, fmt.Errorf("%w: missing title", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.memberLocked(code, clientID)
	if err != nil {
		return false, types.TeamState{}, err
	}
	id := strings.TrimSpace(clientID)
	correct := normalize.Title(title) == sess.titleKey
	if correct {
		sess.players[id].foundTitle = true
	}
	sess.updatedAt = s.now()
	return correct, sess.stateFor(id), nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) sweepLocked() int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	expired := lo.Filter(lo.Keys(s.sessions), func(code string, _ int) bool {
		return now.Sub(s.sessions[code].updatedAt) > s.ttl
	})
	for _, code := range expired {
		delete(s.sessions, code)
	}
	return len(expired)
}

func (s *Store) lookupLocked(code string) (*session, error) {
	code = cleanCode(code)
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", ErrInvalid)
	}
	s.sweepLocked()
	sess, ok := s.sessions[code]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *Store) memberLocked(code, clientID string) (*session, error) {
	id, err := cleanID(clientID)
	if err != nil {
		return nil, err
	}
	sess, err := s.lookupLocked(code)
	if err != nil {
		return nil, err
	}
	if _, ok := sess.players[id]; !ok {
		return nil, ErrNotJoined
	}
	return sess, nil
}

func (s *Store) generateCodeLocked() (string, error) {
	limit := big.NewInt(int64(len(codeAlphabet)))
	for range codeAttempts {
		b := make([]byte, CodeLength)
		for i := range b {
			n, err := rand.Int(rand.Reader, limit)
			if err != nil {
				return "", fmt.Errorf("generate code: %w", err)
			}
			b[i] = codeAlphabet[n.Int64()]
		}
		code := string(b)
		if _, taken := s.sessions[code]; !taken {
			return code, nil
		}
	}
	return "", ErrNoCode
}

func (sess *session) stateFor(clientID string) types.TeamState {
	you := false
	teammate := false
	for id, p := range sess.players {
		if !p.foundTitle {
			continue
		}
		if id == clientID {
			you = true
		} else {
			teammate = true
		}
	}
	role := RoleGuest
	if sess.hostID == clientID {
		role = RoleHost
	}
	return types.TeamState{
		Code:               sess.code,
		Role:               role,
		PlayerCount:        len(sess.players),
		IsFull:             len(sess.players) >= MaxPlayers,
		MinStreams:         sess.minStreams,
		Song:               sess.song,
		TitleFound:         you || teammate,
		YouFoundTitle:      you,
		TeammateFoundTitle: teammate,
		Guesses:            append([]types.GuessEvent{}, sess.guesses...),
	}
}
