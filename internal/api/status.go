package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// Status is the operator-facing snapshot of a node's pool and vote
// accounting: the (combined, local, in_flight, consensused) tuple plus the
// block number currently being assembled.
type Status struct {
	RunID                string `json:"run_id"`
	BlockNum             *uint64 `json:"block_num"`
	UTXOLen              int    `json:"utxo_len"`
	LocalTxPoolLen       int    `json:"local_tx_pool_len"`
	ProposedTxPoolLen    int    `json:"proposed_tx_pool_len"`
	ConsensusedTxPoolLen int    `json:"consensused_tx_pool_len"`
}

// StatusProvider is implemented by whatever owns the node's live state
// (normally a thin wrapper around orchestrator.Orchestrator and
// compute.State) and produces a point-in-time snapshot — never a live
// reference, per the no-shared-memory design.
type StatusProvider interface {
	Status() Status
}

// StatusServer is the operator-only status/healthz surface. It is
// distinct from the out-of-scope wallet/block-query REST surface.
type StatusServer struct {
	router   *mux.Router
	provider StatusProvider
}

// NewStatusServer builds the router.
func NewStatusServer(provider StatusProvider) *StatusServer {
	s := &StatusServer{router: mux.NewRouter(), provider: provider}

	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	return s
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.provider.Status()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *StatusServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Serve blocks, accepting connections on addr.
func (s *StatusServer) Serve(addr string) error {
	log.Printf("api: status server listening on %s", addr)
	if err := http.ListenAndServe(addr, s.router); err != nil {
		return fmt.Errorf("status server failed: %w", err)
	}
	return nil
}
