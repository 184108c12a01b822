package discovery

import (
	"sync"

	"github.com/fentz26/mcphub/internal/models"
)

// snapshot is the server list the endpoint serves from.
type snapshot struct {
	mu      sync.RWMutex
	servers []models.Server
}

func newSnapshot(servers []models.Server) *snapshot {
	return &snapshot{servers: cloneServers(servers)}
}

func (s *snapshot) replace(servers []models.Server) {
	c := cloneServers(servers)
	s.mu.Lock()
	s.servers = c
	s.mu.Unlock()
}

func (s *snapshot) list() []models.Server {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneServers(s.servers)
}

func cloneServers(in []models.Server) []models.Server {
	out := make([]models.Server, len(in))
	for i, srv := range in {
		out[i] = srv.Clone()
	}
	return out
}
