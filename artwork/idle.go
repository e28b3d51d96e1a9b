package artwork

import "fmt"

// WaitForPlayerEvent blocks until the server reports a change of the player
// subsystem and returns the changed subsystem names.
//
// There is no timeout. The wait ends early only when the session is closed
// from another goroutine, which surfaces as a transport error.
func WaitForPlayerEvent(s Session) ([]string, error) {
	if err := s.SendCommand("idle", "player"); err != nil {
		return nil, fmt.Errorf("idle: %w", err)
	}
	var changed []string
	for {
		v, ok, err := s.ReceiveNamedPair("changed")
		if err != nil {
			return nil, fmt.Errorf("idle: %w", err)
		}
		if !ok {
			break
		}
		changed = append(changed, v)
	}
	if err := s.FinishResponse(); err != nil {
		return nil, fmt.Errorf("idle: %w", err)
	}
	return changed, nil
}
