// Package presence tracks which usernames are online and on which connections.
package presence

import "sort"

type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Registry maps usernames to their live connections. A username is present
// iff it has at least one connection. Not safe for concurrent use.
type Registry struct {
	byUser map[string][]string // username -> conn ids, oldest first
	byConn map[string]Identity // conn id -> identity
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string][]string),
		byConn: make(map[string]Identity),
	}
}

// Announce registers conn under username. Re-announcing on the same
// connection refreshes the role; announcing a different username moves it.
// It reports whether the set of online usernames changed.
func (r *Registry) Announce(conn, username, role string) bool {
	if prev, ok := r.byConn[conn]; ok {
		if prev.Username == username {
			r.byConn[conn] = Identity{Username: username, Role: role}
			return false
		}
		r.Release(conn)
	}
	_, wasOnline := r.byUser[username]
	r.byUser[username] = append(r.byUser[username], conn)
	r.byConn[conn] = Identity{Username: username, Role: role}
	return !wasOnline
}

// Release removes conn. gone reports that it was the username's last connection.
func (r *Registry) Release(conn string) (username string, gone bool) {
	id, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	delete(r.byConn, conn)

	conns := r.byUser[id.Username]
	for i, c := range conns {
		if c == conn {
			conns = append(conns[:i:i], conns[i+1:]...)
			break
		}
	}
	if len(conns) == 0 {
		delete(r.byUser, id.Username)
		return id.Username, true
	}
	r.byUser[id.Username] = conns
	return id.Username, false
}

func (r *Registry) IsOnline(username string) bool {
	_, ok := r.byUser[username]
	return ok
}

func (r *Registry) Identity(conn string) (Identity, bool) {
	id, ok := r.byConn[conn]
	return id, ok
}

func (r *Registry) connections(username string) []string {
	out := make([]string, len(r.byUser[username]))
	copy(out, r.byUser[username])
	return out
}

// AnyAvailable returns the oldest connection of username for which busy is false.
func (r *Registry) AnyAvailable(username string, busy func(conn string) bool) (string, bool) {
	for _, c := range r.byUser[username] {
		if busy == nil || !busy(c) {
			return c, true
		}
	}
	return "", false
}

// Snapshot lists each online username once, sorted, with the role of its oldest connection.
func (r *Registry) Snapshot() []Identity {
	out := make([]Identity, 0, len(r.byUser))
	for _, conns := range r.byUser {
		out = append(out, r.byConn[conns[0]])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (r *Registry) Len() int { return len(r.byUser) }
