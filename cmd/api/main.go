package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"cookiemail-rewards/internal/config"
	"cookiemail-rewards/internal/modal"
	"cookiemail-rewards/internal/settlement"
	"cookiemail-rewards/internal/store"
	"cookiemail-rewards/internal/workflows"
)

type reviewReq struct {
	Submission modal.TaskSubmission   `json:"submission"`
	Status     modal.SubmissionStatus `json:"status"`
	Reason     string                 `json:"reason"`
}

type referralReq struct {
	UserID         string          `json:"userId"`
	ReferredUserID string          `json:"referredUserId"`
	Amount         decimal.Decimal `json:"amount"`
}

type startReq struct {
	WithdrawalID string `json:"withdrawalId"`
}

type startResp struct {
	WorkflowID string `json:"workflowId"`
	RunID      string `json:"runId"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	st := newStore(cfg)
	coord := settlement.NewCoordinator(st)

	tc, err := client.Dial(client.Options{HostPort: cfg.TemporalHostPort})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer tc.Close()

	r := chi.NewRouter()

	// Settle a reviewed task submission: status transition plus, on approval
	// of a positive reward, the wallet credit. The admin client sends the
	// full submission record it is looking at.
	r.Post("/submissions/review", func(w http.ResponseWriter, r *http.Request) {
		var req reviewReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Submission.ID == "" {
			http.Error(w, "invalid body: {\"submission\":{...},\"status\":\"Approved|Rejected\",\"reason\":\"...\"}", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := coord.Settle(ctx, req.Submission, req.Status, req.Reason); err != nil {
			var pe *store.PersistenceError
			if errors.As(err, &pe) {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, map[string]any{"ok": true})
	})

	// Credit a referral bonus when an invited user qualifies.
	r.Post("/referrals/credit", func(w http.ResponseWriter, r *http.Request) {
		var req referralReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.ReferredUserID == "" {
			http.Error(w, "invalid body: {\"userId\":\"...\",\"referredUserId\":\"...\",\"amount\":10}", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := coord.CreditReferral(ctx, req.UserID, req.Amount, req.ReferredUserID); err != nil {
			var pe *store.PersistenceError
			if errors.As(err, &pe) {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, map[string]any{"ok": true})
	})

	// Pending review queue straight from the store.
	r.Get("/submissions/pending", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		rows, err := st.List(ctx, store.CollectionTaskSubmissions, map[string]string{"status": string(modal.SubmissionPending)})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, rows)
	})

	// Start a withdrawal workflow for a requested withdrawal.
	r.Post("/withdrawals/start", func(w http.ResponseWriter, r *http.Request) {
		var req startReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WithdrawalID == "" {
			http.Error(w, "invalid body: {\"withdrawalId\":\"...\"}", http.StatusBadRequest)
			return
		}

		// One workflow per withdrawal request; duplicates are rejected.
		wid := "withdraw-" + req.WithdrawalID

		opts := client.StartWorkflowOptions{
			ID:                                       wid,
			TaskQueue:                                workflows.TaskQueue,
			WorkflowExecutionTimeout:                 24 * time.Hour,
			WorkflowExecutionErrorWhenAlreadyStarted: true,
			WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		we, err := tc.ExecuteWorkflow(ctx, opts, workflows.ProcessWithdrawal, req.WithdrawalID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, startResp{WorkflowID: we.GetID(), RunID: we.GetRunID()})
	})

	r.Get("/withdrawals/{workflowId}/case", func(w http.ResponseWriter, r *http.Request) {
		var pc modal.PayoutCase
		if ok := queryInto(w, r, tc, "payout_case", &pc); ok {
			writeJSON(w, pc)
		}
	})

	r.Get("/withdrawals/{workflowId}/review", func(w http.ResponseWriter, r *http.Request) {
		var task modal.ReviewTask
		if ok := queryInto(w, r, tc, "pending_review", &task); ok {
			writeJSON(w, task)
		}
	})

	r.Get("/withdrawals/{workflowId}/audit", func(w http.ResponseWriter, r *http.Request) {
		var events []modal.AuditEvent
		if ok := queryInto(w, r, tc, "audit_log", &events); ok {
			writeJSON(w, events)
		}
	})

	r.Post("/withdrawals/{workflowId}/decision", func(w http.ResponseWriter, r *http.Request) {
		workflowID := chi.URLParam(r, "workflowId")
		runID := r.URL.Query().Get("runId")

		var d modal.ReviewDecision
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil || d.TaskID == "" {
			http.Error(w, "invalid body: {\"taskId\":\"...\",\"approved\":true,\"notes\":\"...\",\"decider\":\"...\"}", http.StatusBadRequest)
			return
		}
		if d.Decider == "" {
			d.Decider = "ops-agent"
		}
		d.DecidedAt = time.Now().UTC()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := tc.SignalWorkflow(ctx, workflowID, runID, workflows.WithdrawalDecisionSignal, d); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string]any{"ok": true})
	})

	registerUIRoutes(r, tc)
	log.Printf("api listening on %s", cfg.APIAddr)
	log.Fatal(http.ListenAndServe(cfg.APIAddr, r))
}

func newStore(cfg config.Config) store.Store {
	if cfg.StoreURL != "" {
		return store.NewRESTStore(cfg.StoreURL, cfg.StoreAPIKey)
	}
	log.Println("STORE_URL not set; using in-memory store")
	return store.NewMemStore()
}

// queryInto runs a workflow query and decodes the answer; on failure it has
// already written the error response and returns false.
func queryInto(w http.ResponseWriter, r *http.Request, tc client.Client, query string, out any) bool {
	workflowID := chi.URLParam(r, "workflowId")
	runID := r.URL.Query().Get("runId")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	qr, err := tc.QueryWorkflow(ctx, workflowID, runID, query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return false
	}
	if err := qr.Get(out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
