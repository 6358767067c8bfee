package handlers

import "net/http"

// StatsResponse is the operator-facing counters snapshot.
type StatsResponse struct {
	UsersOnline       int      `json:"users_online"`
	OnlineUsernames   []string `json:"online_usernames"`
	Participants      []string `json:"participants"`
	TotalMessages     int      `json:"total_messages"`
	DroppedDeliveries uint64   `json:"dropped_deliveries"`
}

// Stats reports live relay counters: who is online right now, everyone who
// ever took part, message totals, and delivery drops.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	online := h.hub.Snapshot()
	h.JSON(w, http.StatusOK, StatsResponse{
		UsersOnline:       len(online),
		OnlineUsernames:   online,
		Participants:      h.log.Participants(),
		TotalMessages:     h.log.Len(),
		DroppedDeliveries: h.hub.Dropped(),
	})
}
