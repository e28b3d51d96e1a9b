package artwork

import "fmt"

// ResolveCurrent returns the URI of the track the player is on.
// A stopped player or an empty queue yields a NoCurrentTrack ResolveError.
func ResolveCurrent(s Session) (string, error) {
	if err := s.SendCommand("currentsong"); err != nil {
		return "", fmt.Errorf("currentsong: %w", err)
	}
	uri, ok, err := s.ReceiveNamedPair("file")
	if err != nil {
		return "", fmt.Errorf("currentsong: %w", err)
	}
	if err := s.FinishResponse(); err != nil {
		return "", fmt.Errorf("currentsong: %w", err)
	}
	if !ok || uri == "" {
		return "", &ResolveError{Kind: NoCurrentTrack}
	}
	return uri, nil
}
