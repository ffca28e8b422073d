package main

import (
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"cookiemail-rewards/internal/activities"
	"cookiemail-rewards/internal/config"
	"cookiemail-rewards/internal/modal"
	"cookiemail-rewards/internal/store"
	"cookiemail-rewards/internal/workflows"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalHostPort})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer c.Close()

	var st store.Store
	if cfg.StoreURL != "" {
		st = store.NewRESTStore(cfg.StoreURL, cfg.StoreAPIKey)
	} else {
		st = store.NewMemStore()
		log.Println("STORE_URL not set; using in-memory store")
	}

	w := worker.New(c, workflows.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ProcessWithdrawal)

	a := &activities.Activities{
		Store: st,
		// Stub gateway until the payment provider adapter lands.
		Payouts:          activities.StaticGateway{Status: modal.PayoutSent},
		AutoApproveLimit: cfg.WithdrawLimit(),
	}
	w.RegisterActivity(a)

	log.Printf("worker started (taskQueue=%s)\n", workflows.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker exited: %v", err)
	}
}
