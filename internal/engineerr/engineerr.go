// Package engineerr defines the sentinel error taxonomy shared across
// board, engine, and uci: InitError, ProtocolWarning, InvalidMove,
// ParseWarning, SearchAborted, and OutOfMemory. Call sites wrap one of
// these with fmt.Errorf("%w: ...", ...) and callers use errors.Is to
// classify, matching the plain-sentinel idiom the rest of the module
// already uses (see board/fen.go's ParseFENTolerant warnings).
package engineerr

import "errors"

var (
	// ErrInit marks a fatal construction-time failure (magic bitboard
	// search exhaustion, a malformed embedded weight file) that the
	// process cannot recover from and should abort on.
	ErrInit = errors.New("init error")

	// ErrProtocolWarning marks a non-fatal UCI protocol-level anomaly. The
	// uci package ignores unrecognized commands and out-of-range option
	// values; with debug output enabled it logs an unrecognized command to
	// stderr as an "info string" line wrapping this sentinel.
	ErrProtocolWarning = errors.New("protocol warning")

	// ErrInvalidMove marks a move string or encoded move that failed
	// parsing or legality validation.
	ErrInvalidMove = errors.New("invalid move")

	// ErrParseWarning marks a best-effort FEN field that was defaulted
	// or ignored rather than rejected outright.
	ErrParseWarning = errors.New("parse warning")

	// ErrSearchAborted marks a search that returned early because the
	// stop flag was set or a limit was hit mid-iteration.
	ErrSearchAborted = errors.New("search aborted")

	// ErrOutOfMemory marks a failed allocation (transposition table,
	// NNUE weight buffers) that was recovered from rather than left to
	// crash the process.
	ErrOutOfMemory = errors.New("out of memory")
)
