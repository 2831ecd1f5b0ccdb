package game

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/rpsarena/backend/internal/model"
	"github.com/rpsarena/backend/internal/protocol"
)

// Reporter posts final scores to the matchmaking result endpoint. Reporting
// is best effort: the match already played out, only metadata is at stake.
type Reporter struct {
	url    string
	client *http.Client
}

// NewReporter targets the matchmaking service's base URL. An empty URL
// returns nil, which disables reporting.
func NewReporter(matchmakingURL string) *Reporter {
	if matchmakingURL == "" {
		return nil
	}
	return &Reporter{
		url:    matchmakingURL,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Report posts one final score, in match player order.
func (r *Reporter) Report(ctx context.Context, gameID model.ID, gamesWon [2]uint32) {
	body, err := json.Marshal(protocol.GameResultRequest{GameID: gameID, GamesWon: gamesWon})
	if err != nil {
		log.Printf("[REPORT] marshal result for game %s failed: %v", gameID, err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url+"/game/result", bytes.NewReader(body))
	if err != nil {
		log.Printf("[REPORT] build result request for game %s failed: %v", gameID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("[REPORT] result post for game %s failed: %v", gameID, err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.Printf("[REPORT] result post for game %s returned %s", gameID, resp.Status)
	}
}
