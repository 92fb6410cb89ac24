package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"tournament-funding-system/models"
	"tournament-funding-system/services"
	"tournament-funding-system/utils"
)

// PaymentEvent is a confirmed on-chain payment reported by the settlement
// layer. The core treats the transaction hash as an opaque attestation.
type PaymentEvent struct {
	TournamentID    string    `json:"tournament_id"`
	Kind            string    `json:"kind"` // "initial_fee" or "guarantee"
	TransactionHash string    `json:"transaction_hash"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
}

// PaymentWatcher polls the blockchain settlement layer for confirmed
// payments and advances the matching tournaments.
type PaymentWatcher struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Fees       *services.FeeService
	Guarantees *services.GuaranteeService
}

func NewPaymentWatcher(fees *services.FeeService, guarantees *services.GuaranteeService) *PaymentWatcher {
	baseURL := os.Getenv("SETTLEMENT_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("SETTLEMENT_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("SETTLEMENT_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("SETTLEMENT_SERVICE_TOKEN environment variable is required")
	}

	return &PaymentWatcher{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: utils.HTTPClient,
		Fees:       fees,
		Guarantees: guarantees,
	}
}

// GetConfirmedPayments fetches payments confirmed since the watermark.
func (w *PaymentWatcher) GetConfirmedPayments(ctx context.Context, since time.Time) ([]PaymentEvent, error) {
	u, err := url.Parse(fmt.Sprintf("%s/api/v1/payments/confirmed", w.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.Token)

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call settlement service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("settlement service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Payments []PaymentEvent `json:"payments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode settlement service response: %w", err)
	}
	return response.Payments, nil
}

// Poll applies confirmed payments on a fixed interval until ctx is done.
// The watermark only advances on a fully processed batch, so a transient
// failure is retried with the same window next tick.
func (w *PaymentWatcher) Poll(ctx context.Context, pollInterval time.Duration) {
	log.Println("[PaymentWatcher] Starting payment confirmation polling...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[PaymentWatcher] Stopping payment polling")
			return
		case <-ticker.C:
			batchStart := time.Now().UTC()
			payments, err := w.GetConfirmedPayments(ctx, lastSyncTime)
			if err != nil {
				log.Printf("[PaymentWatcher] Error polling payments: %v", err)
				continue
			}
			if len(payments) == 0 {
				continue
			}

			log.Printf("[PaymentWatcher] Received %d confirmed payment(s)", len(payments))
			allApplied := true
			for _, p := range payments {
				if err := w.apply(p); err != nil {
					// Guard failures mean the payment was already applied or
					// the tournament moved on — not worth retrying the batch.
					if models.ErrKind(err) != "" {
						log.Printf("[PaymentWatcher] Skipping payment %s for %s: %v",
							p.TransactionHash, p.TournamentID, err)
						continue
					}
					log.Printf("[PaymentWatcher] Failed to apply payment %s for %s: %v",
						p.TransactionHash, p.TournamentID, err)
					allApplied = false
				}
			}
			if allApplied {
				lastSyncTime = batchStart
			}
		}
	}
}

func (w *PaymentWatcher) apply(p PaymentEvent) error {
	switch p.Kind {
	case "initial_fee":
		_, err := w.Fees.PayInitialFee(p.TournamentID, p.TransactionHash)
		return err
	case "guarantee":
		_, err := w.Guarantees.PayGuarantee(p.TournamentID, p.TransactionHash)
		return err
	default:
		log.Printf("[PaymentWatcher] Unknown payment kind %q for tournament %s", p.Kind, p.TournamentID)
		return nil
	}
}
