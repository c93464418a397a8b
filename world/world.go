package world

import (
	"errors"
	"fmt"
	"sort"
)

var ErrDuplicateLocal = errors.New("roster already has a local player")

// Roster maps player ids to players. At most one entry is the local player.
type Roster struct {
	players map[string]*Player
}

func NewRoster() *Roster {
	return &Roster{
		players: make(map[string]*Player),
	}
}

// Add inserts p under its id, replacing a previous entry with that id.
func (r *Roster) Add(p *Player) error {
	if p.IsLocal() {
		if local := r.Local(); local != nil && local.ID != p.ID {
			return fmt.Errorf("add %s: %w (%s)", p.ID, ErrDuplicateLocal, local.ID)
		}
	}
	r.players[p.ID] = p
	return nil
}

func (r *Roster) Get(ID string) *Player {
	return r.players[ID]
}

// Remove deletes the entry and returns it, or nil when absent.
func (r *Roster) Remove(ID string) *Player {
	p := r.players[ID]
	delete(r.players, ID)
	return p
}

// Rekey moves the entry stored under oldID to newID and updates the
// player's id to match. The player object itself is kept.
func (r *Roster) Rekey(oldID, newID string) (*Player, bool) {
	p, ok := r.players[oldID]
	if !ok {
		return nil, false
	}
	delete(r.players, oldID)
	p.ID = newID
	r.players[newID] = p
	return p, true
}

// Reset empties the roster.
func (r *Roster) Reset() {
	r.players = make(map[string]*Player)
}

func (r *Roster) Len() int {
	return len(r.players)
}

// Local returns the locally authoritative entry, if any.
func (r *Roster) Local() *Player {
	for _, p := range r.players {
		if p.IsLocal() {
			return p
		}
	}
	return nil
}

// ForEach visits entries in id order.
func (r *Roster) ForEach(callback func(string, *Player)) {
	for _, ID := range r.IDs() {
		callback(ID, r.players[ID])
	}
}

func (r *Roster) IDs() []string {
	IDs := make([]string, 0, len(r.players))
	for ID := range r.players {
		IDs = append(IDs, ID)
	}
	sort.Strings(IDs)
	return IDs
}

// Players returns the entries in id order.
func (r *Roster) Players() []*Player {
	players := make([]*Player, 0, len(r.players))
	r.ForEach(func(_ string, p *Player) {
		players = append(players, p)
	})
	return players
}
