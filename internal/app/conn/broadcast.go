package conn

import "encoding/json"

// Send marshals frame and queues it for userID. It reports whether the frame
// was queued; unknown users and full queues are not errors.
func (r *Registry) Send(userID string, frame any) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		r.logger.Error().Err(err).Msg("Error marshaling frame for unicast")
		return false
	}

	s, ok := r.Get(userID)
	if !ok {
		r.logger.Debug().Str("user_id", userID).Msg("Unicast target not registered, dropping frame")
		return false
	}

	return s.Send(data) == nil
}

// SendTo marshals frame and queues it on s directly, for replies to a socket
// that may not be registered yet.
func SendTo(s Socket, frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return s.Send(data)
}

// Broadcast delivers frame to every user in userIDs except excludeUserID.
// Empty ids are skipped, each recipient receives the frame at most once, and
// the number of queued deliveries is returned.
func (r *Registry) Broadcast(userIDs []string, frame any, excludeUserID string) int {
	data, err := json.Marshal(frame)
	if err != nil {
		r.logger.Error().Err(err).Msg("Error marshaling frame for broadcast")
		return 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	seen := make(map[string]struct{}, len(userIDs))

	for _, id := range userIDs {
		if id == "" || id == excludeUserID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		s, ok := r.sockets[id]
		if !ok {
			continue
		}

		if err := s.Send(data); err != nil {
			r.logger.Warn().Err(err).Str("user_id", id).Msg("Broadcast delivery dropped")
			continue
		}
		delivered++
	}

	return delivered
}
