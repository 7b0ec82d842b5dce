package session

import nchess "github.com/corentings/chess/v2"

// StartingFEN is the standard initial position.
var StartingFEN = nchess.NewGame().FEN()

// ValidFEN reports whether fen parses as a chess position. Legality of the
// move that produced it is not checked.
func ValidFEN(fen string) bool {
	if fen == "" {
		return false
	}
	_, err := nchess.FEN(fen)
	return err == nil
}
