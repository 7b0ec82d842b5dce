package matchmaker

import "math/rand"

// Queue holds pending quick-match entries in arrival order. It is not safe
// for concurrent use; the coordinator serializes access.
type Queue struct {
	entries []Entry
	coin    func() bool
}

func NewQueue() *Queue {
	return &Queue{coin: func() bool { return rand.Intn(2) == 0 }}
}

// SetCoin replaces the random source used for random-vs-random pairings.
func (q *Queue) SetCoin(coin func() bool) { q.coin = coin }

// Enqueue replaces any entry for the same connection, then tries to pair the
// candidate. If no compatible opponent exists the candidate is appended.
// alive is asked about the chosen opponent; a dead one is dropped and the
// candidate is queued instead of scanning further.
func (q *Queue) Enqueue(e Entry, alive func(conn string) bool) (Match, bool) {
	q.Remove(e.Conn)

	m, ok := q.TryMatch(e)
	if ok && alive != nil && !alive(m.Opponent.Conn) {
		ok = false
	}
	if !ok {
		q.entries = append(q.entries, e)
		return Match{}, false
	}
	return m, true
}

// TryMatch scans in insertion order and removes the first compatible entry.
func (q *Queue) TryMatch(c Entry) (Match, bool) {
	for i, other := range q.entries {
		if other.Conn == c.Conn || other.Username == c.Username {
			continue
		}
		if other.TimeControl != c.TimeControl {
			continue
		}
		color, ok := ResolveColors(c.Pref, other.Pref, q.coin)
		if !ok {
			continue
		}
		q.entries = append(q.entries[:i:i], q.entries[i+1:]...)
		return Match{Candidate: c, Opponent: other, CandidateColor: color}, true
	}
	return Match{}, false
}

// Remove deletes the entry for conn. It reports whether one existed.
func (q *Queue) Remove(conn string) bool {
	for i, e := range q.entries {
		if e.Conn == conn {
			q.entries = append(q.entries[:i:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveUser deletes every entry owned by username and returns them.
func (q *Queue) RemoveUser(username string) []Entry {
	var removed []Entry
	kept := q.entries[:0:0]
	for _, e := range q.entries {
		if e.Username == username {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return removed
}

func (q *Queue) Contains(conn string) bool {
	for _, e := range q.entries {
		if e.Conn == conn {
			return true
		}
	}
	return false
}

func (q *Queue) Len() int { return len(q.entries) }

// snapshot returns a copy in queue order.
func (q *Queue) snapshot() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}
