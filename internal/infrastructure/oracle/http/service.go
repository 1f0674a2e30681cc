package httporacle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BiggestJib/Lottery-raffle/internal/core/ports"
)

// service requests randomness from a remote coordinator over HTTP. The
// fulfillment arrives later on the daemon's callback endpoint, authenticated
// with the shared oracle token.
type service struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewService(baseURL, token string) (ports.RandomnessOracle, error) {
	if len(baseURL) <= 0 {
		return nil, fmt.Errorf("missing oracle url")
	}
	if len(token) <= 0 {
		return nil, fmt.Errorf("missing oracle token")
	}
	return &service{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type randomWordsRequest struct {
	KeyHash          string `json:"key_hash"`
	SubscriptionId   uint64 `json:"subscription_id"`
	Confirmations    uint32 `json:"confirmations"`
	CallbackGasLimit uint32 `json:"callback_gas_limit"`
	NumWords         uint32 `json:"num_words"`
}

type randomWordsResponse struct {
	RequestId string `json:"request_id"`
}

func (s *service) RequestRandomWords(
	ctx context.Context, req ports.RandomnessRequest,
) (string, error) {
	body, err := json.Marshal(randomWordsRequest{
		KeyHash:          req.KeyHash,
		SubscriptionId:   req.SubscriptionId,
		Confirmations:    req.Confirmations,
		CallbackGasLimit: req.CallbackGasLimit,
		NumWords:         req.NumWords,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, s.baseURL+"/v1/requests", bytes.NewReader(body),
	)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to reach oracle: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	decoded := randomWordsResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("invalid oracle response: %s", err)
	}
	if len(decoded.RequestId) <= 0 {
		return "", fmt.Errorf("oracle response missing request id")
	}
	return decoded.RequestId, nil
}

func (s *service) Close() {
	s.client.CloseIdleConnections()
}
