package main

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"

	"cookiemail-rewards/internal/modal"
	"cookiemail-rewards/internal/workflows"
)

type uiServer struct {
	tc client.Client
	t  *template.Template
}

type uiReviewRow struct {
	WorkflowID string
	RunID      string
	Review     modal.ReviewTask
}

type uiIndexData struct {
	Tab     string
	Query   string
	Reviews []uiReviewRow
	Hits    []uiReviewRow // reuse row type for search results
	Error   string
}

type uiDetailData struct {
	WorkflowID string
	RunID      string
	Case       modal.PayoutCase
	Review     modal.ReviewTask
	Audit      []modal.AuditEvent
	Error      string
}

func registerUIRoutes(r chi.Router, tc client.Client) {
	t := template.Must(template.New("base").Parse(uiTemplates))
	s := &uiServer{tc: tc, t: t}

	r.Get("/ui", s.handleIndex)
	r.Get("/ui/wf/{workflowId}", s.handleDetail)
	r.Post("/ui/wf/{workflowId}/decision", s.handleDecision)
}

// handleIndex lists withdrawal workflows waiting on a reviewer. It also
// supports searching all executions by withdrawal ID via visibility query.
func (s *uiServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	if tab == "" {
		tab = "reviews"
	}
	q := r.URL.Query().Get("q")

	data := uiIndexData{Tab: tab, Query: q}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	var query string
	switch tab {
	case "reviews":
		// Only running workflows, so the pending_review query is relevant.
		query = `ExecutionStatus = "Running"`
	case "search":
		if q == "" {
			_ = s.t.ExecuteTemplate(w, "index", data)
			return
		}
		query = `WorkflowId STARTS_WITH "withdraw-` + q + `"`
	default:
		tab = "reviews"
		data.Tab = "reviews"
		query = `ExecutionStatus = "Running"`
	}

	resp, err := s.tc.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
		Query:    query,
		PageSize: 200,
	})
	if err != nil {
		data.Error = err.Error()
		_ = s.t.ExecuteTemplate(w, "index", data)
		return
	}

	if tab == "reviews" {
		for _, ex := range resp.Executions {
			if ex.Execution == nil {
				continue
			}
			wid := ex.Execution.WorkflowId
			rid := ex.Execution.RunId

			review, err := s.queryPendingReview(r.Context(), wid, rid)
			if err != nil {
				// Transient query failures and unrelated workflows are skipped.
				continue
			}
			if review.ID == "" {
				continue
			}

			data.Reviews = append(data.Reviews, uiReviewRow{
				WorkflowID: wid,
				RunID:      rid,
				Review:     review,
			})

			if len(data.Reviews) >= 100 {
				break
			}
		}

		_ = s.t.ExecuteTemplate(w, "index", data)
		return
	}

	for _, ex := range resp.Executions {
		if ex.Execution == nil {
			continue
		}
		data.Hits = append(data.Hits, uiReviewRow{
			WorkflowID: ex.Execution.WorkflowId,
			RunID:      ex.Execution.RunId,
		})
	}

	_ = s.t.ExecuteTemplate(w, "index", data)
}

// handleDetail shows one withdrawal workflow: payout case, pending review
// (if any), and the audit log.
func (s *uiServer) handleDetail(w http.ResponseWriter, r *http.Request) {
	wid := chi.URLParam(r, "workflowId")
	rid := r.URL.Query().Get("runId")

	data := uiDetailData{WorkflowID: wid, RunID: rid}

	pc, err := s.queryPayoutCase(r.Context(), wid, rid)
	if err != nil {
		data.Error = err.Error()
		_ = s.t.ExecuteTemplate(w, "detail", data)
		return
	}
	data.Case = pc

	review, _ := s.queryPendingReview(r.Context(), wid, rid)
	data.Review = review

	audit, _ := s.queryAudit(r.Context(), wid, rid)
	data.Audit = audit

	_ = s.t.ExecuteTemplate(w, "detail", data)
}

// handleDecision handles the approve/reject form for a withdrawal review.
func (s *uiServer) handleDecision(w http.ResponseWriter, r *http.Request) {
	wid := chi.URLParam(r, "workflowId")
	rid := r.URL.Query().Get("runId")

	approved := r.FormValue("approved") == "true"
	taskID := r.FormValue("taskId")
	notes := r.FormValue("notes")
	decider := r.FormValue("decider")
	if decider == "" {
		decider = "ops-agent"
	}

	d := modal.ReviewDecision{
		TaskID:    taskID,
		Approved:  approved,
		Notes:     notes,
		Decider:   decider,
		DecidedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := s.tc.SignalWorkflow(ctx, wid, rid, workflows.WithdrawalDecisionSignal, d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/ui/wf/"+wid+"?runId="+rid, http.StatusSeeOther)
}

func (s *uiServer) queryPayoutCase(ctx context.Context, wid, rid string) (modal.PayoutCase, error) {
	cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	qr, err := s.tc.QueryWorkflow(cctx, wid, rid, "payout_case")
	if err != nil {
		return modal.PayoutCase{}, err
	}
	var pc modal.PayoutCase
	return pc, qr.Get(&pc)
}

func (s *uiServer) queryPendingReview(ctx context.Context, wid, rid string) (modal.ReviewTask, error) {
	cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	qr, err := s.tc.QueryWorkflow(cctx, wid, rid, "pending_review")
	if err != nil {
		return modal.ReviewTask{}, err
	}
	var t modal.ReviewTask
	return t, qr.Get(&t)
}

func (s *uiServer) queryAudit(ctx context.Context, wid, rid string) ([]modal.AuditEvent, error) {
	cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	qr, err := s.tc.QueryWorkflow(cctx, wid, rid, "audit_log")
	if err != nil {
		return nil, err
	}
	var events []modal.AuditEvent
	return events, qr.Get(&events)
}

// uiTemplates holds the back-office pages. In a real application these would
// live in separate .html files.
const uiTemplates = `
{{define "index"}}
<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>CookieMail Back Office</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    .tabs a { margin-right: 12px; }
    table { border-collapse: collapse; width: 100%; margin-top: 12px; }
    th, td { border: 1px solid #ddd; padding: 8px; }
    .err { color: #b00020; }
    .muted { color: #666; }
  </style>
</head>
<body>
  <h2>CookieMail Withdrawal Reviews</h2>

  <div class="tabs">
    <a href="/ui?tab=reviews">Reviews</a>
    <a href="/ui?tab=search">Search</a>
  </div>

  {{if .Error}}<p class="err">{{.Error}}</p>{{end}}

  {{if eq .Tab "reviews"}}
    <h3>Open Reviews</h3>
    <p class="muted">Running withdrawal workflows with a pending reviewer decision.</p>
    <table>
      <thead><tr><th>Review</th><th>Withdrawal</th><th>Title</th><th>Workflow</th></tr></thead>
      <tbody>
      {{range .Reviews}}
        <tr>
          <td>{{.Review.ID}}</td>
          <td>{{.Review.WithdrawalID}}</td>
          <td>{{.Review.Title}}</td>
          <td><a href="/ui/wf/{{.WorkflowID}}?runId={{.RunID}}">{{.WorkflowID}}</a></td>
        </tr>
      {{end}}
      </tbody>
    </table>
  {{else}}
    <h3>Search by Withdrawal ID</h3>
    <form method="get" action="/ui">
      <input type="hidden" name="tab" value="search"/>
      <input name="q" placeholder="wd-42" value="{{.Query}}" style="width: 320px;"/>
      <button type="submit">Search</button>
    </form>

    {{if .Query}}
      <h4>Results</h4>
      <table>
        <thead><tr><th>Withdrawal</th><th>Workflow</th></tr></thead>
        <tbody>
        {{range .Hits}}
          <tr>
            <td>{{$.Query}}</td>
            <td><a href="/ui/wf/{{.WorkflowID}}?runId={{.RunID}}">{{.WorkflowID}}</a></td>
          </tr>
        {{end}}
        </tbody>
      </table>
    {{end}}
  {{end}}
</body>
</html>
{{end}}

{{define "detail"}}
<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>Withdrawal Detail</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    .err { color: #b00020; }
    pre { background: #f7f7f7; padding: 12px; overflow: auto; }
    table { border-collapse: collapse; width: 100%; margin-top: 12px; }
    th, td { border: 1px solid #ddd; padding: 8px; }
  </style>
</head>
<body>
  <a href="/ui">← Back</a>
  <h2>Withdrawal Detail</h2>

  {{if .Error}}<p class="err">{{.Error}}</p>{{end}}

  <p><b>WorkflowID:</b> {{.WorkflowID}}<br/>
     <b>RunID:</b> {{.RunID}}</p>

  <h3>Payout Case</h3>
  <table>
    <tbody>
      <tr><th>Withdrawal</th><td>{{.Case.WithdrawalID}}</td></tr>
      <tr><th>User</th><td>{{.Case.UserID}}</td></tr>
      <tr><th>Amount</th><td>{{.Case.Amount}}</td></tr>
      <tr><th>Method</th><td>{{.Case.Method}}</td></tr>
      <tr><th>Wallet Balance</th><td>{{.Case.WalletBalance}}</td></tr>
      <tr><th>Auto-approvable</th><td>{{.Case.AutoApprovable}}</td></tr>
    </tbody>
  </table>

  <h3>Pending Review</h3>
  {{if .Review.ID}}
    <p><b>{{.Review.Title}}</b><br/>{{.Review.Reason}}</p>

    <form method="post" action="/ui/wf/{{.WorkflowID}}/decision?runId={{.RunID}}">
      <input type="hidden" name="taskId" value="{{.Review.ID}}"/>
      <label>Decider: <input name="decider" value="ops-agent"/></label><br/><br/>
      <label>Notes:<br/><textarea name="notes" rows="3" cols="80"></textarea></label><br/><br/>
      <button name="approved" value="true" type="submit">Approve</button>
      <button name="approved" value="false" type="submit">Reject</button>
    </form>
  {{else}}
    <p>(No pending review)</p>
  {{end}}

  <h3>Audit Log</h3>
  <table>
    <thead><tr><th>Time</th><th>Kind</th><th>Message</th></tr></thead>
    <tbody>
      {{range .Audit}}
        <tr>
          <td>{{.At}}</td>
          <td>{{.Kind}}</td>
          <td>{{.Message}}</td>
        </tr>
      {{end}}
    </tbody>
  </table>
</body>
</html>
{{end}}
`
