package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"cookiemail-rewards/internal/config"
	"cookiemail-rewards/internal/workflows"
)

// Starts one withdrawal workflow from the command line, for dev and demos.
// In production the API starts workflows when a user requests a withdrawal.
func main() {
	var withdrawalID string
	flag.StringVar(&withdrawalID, "withdrawal", "", "withdrawal request id (random if empty)")
	flag.Parse()

	if withdrawalID == "" {
		withdrawalID = uuid.NewString()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalHostPort})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer c.Close()

	opts := client.StartWorkflowOptions{
		ID:                                       "withdraw-" + withdrawalID,
		TaskQueue:                                workflows.TaskQueue,
		WorkflowExecutionTimeout:                 24 * time.Hour,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
		WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	we, err := c.ExecuteWorkflow(ctx, opts, workflows.ProcessWithdrawal, withdrawalID)
	if err != nil {
		log.Fatalf("unable to execute workflow: %v", err)
	}

	log.Printf("started workflow: WorkflowID=%s RunID=%s\n", we.GetID(), we.GetRunID())

	ctx2, cancel2 := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel2()

	var result string
	if err := we.Get(ctx2, &result); err != nil {
		log.Fatalf("unable to get workflow result: %v", err)
	}
	log.Printf("workflow result: %s\n", result)
}
