package repository

import "errors"

// ErrCorpusUnavailable marks a verse corpus accessor that could not be
// reached or timed out. Callers must surface it as "service degraded",
// never as an empty result set.
var ErrCorpusUnavailable = errors.New("verse corpus unavailable")
