package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/morezero/agent-orchestrator/pkg/catalog"
	"github.com/morezero/agent-orchestrator/pkg/dispatcher"
	"github.com/morezero/agent-orchestrator/pkg/registry"
)

const handlersLogPrefix = "server:handlers"

// apiKeyHeader carries the shared secret when ORCHESTRATOR_API_KEY is set.
const apiKeyHeader = "X-API-Key"

// Handler returns the HTTP API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.HandleFunc("/agents", s.handleAgents())
	mux.HandleFunc("/marketplace", s.handleMarketplace())
	mux.HandleFunc("/tasks", s.handleTasks())
	return mux
}

func (s *Server) handleAgents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		writeJSON(w, http.StatusOK, s.reg.Describe())
	}
}

// handleMarketplace lists agent listings, optionally filtered by ?version=<constraint>.
func (s *Server) handleMarketplace() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		listings, err := catalog.FilterByVersion(
			catalog.Listings(s.reg.ListAgents(), s.catalog),
			r.URL.Query().Get("version"),
		)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if listings == nil {
			listings = []catalog.Listing{}
		}
		writeJSON(w, http.StatusOK, listings)
	}
}

// handleTasks runs one task. Routing failures and agent faults are 200 with
// ok=false; only malformed requests get a 4xx.
func (s *Server) handleTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		if !s.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, taskError("UNAUTHORIZED", "missing or invalid API key"))
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTaskBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, taskError(dispatcher.CodeInvalidRequest, "request body too large"))
				return
			}
			writeJSON(w, http.StatusBadRequest, taskError(dispatcher.CodeInvalidRequest, "failed to read request body"))
			return
		}

		req, err := dispatcher.ParseTaskRequest(body)
		if err != nil {
			writeRegistryError(w, err)
			return
		}

		ctx := r.Context()
		if s.cfg != nil && s.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
			defer cancel()
		}

		res, err := s.disp.PostTask(ctx, req.Name, req.Payload)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// authorized reports whether r carries the configured API key. With no key
// configured every request is allowed.
func (s *Server) authorized(r *http.Request) bool {
	if s.cfg == nil || s.cfg.APIKey == "" {
		return true
	}
	got := r.Header.Get(apiKeyHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.APIKey)) == 1
}

func taskError(code, message string) *dispatcher.TaskResponse {
	return &dispatcher.TaskResponse{OK: false, Data: map[string]any{}, Error: message, Code: code}
}

func writeRegistryError(w http.ResponseWriter, err error) {
	var re *registry.RegistryError
	if errors.As(err, &re) {
		writeJSON(w, http.StatusBadRequest, taskError(re.Code, re.Message))
		return
	}
	slog.Error(fmt.Sprintf("%s - task request failed: %v", handlersLogPrefix, err))
	writeJSON(w, http.StatusInternalServerError, taskError("INTERNAL", "internal error"))
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - json encode: %v", handlersLogPrefix, err))
	}
}

// homePageTemplate is the HTML for the orchestrator home page (white bg, black/blue text).
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Agent Orchestrator</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .stat { font-weight: bold; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
    code { background: #f5f5f5; padding: 0 0.25rem; }
  </style>
</head>
<body>
  <h1>Agent Orchestrator</h1>
  <p class="meta">{{.CatalogName}} {{.CatalogVersion}}. Submit tasks with <code>POST /tasks</code>.</p>

  <section>
    <h2>Statistics</h2>
    <p>Registered agents: <span class="stat">{{len .Agents}}</span></p>
    <p>Routed tasks: <span class="stat">{{len .Routes}}</span></p>
  </section>

  <section>
    <h2>Agents</h2>
    {{if not .Agents}}
    <p>No agents registered.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>Agent</th><th>Description</th><th>Version</th><th>Tier</th><th>Rate</th><th>Tasks</th></tr>
      </thead>
      <tbody>
        {{range .Agents}}
        <tr>
          <td>{{.Name}}</td>
          <td>{{.Description}}</td>
          <td>{{.Version}}</td>
          <td>{{.Pricing.Tier}}</td>
          <td>{{.Pricing.Rate}}</td>
          <td>{{range .Tasks}}<code>{{.}}</code> {{end}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>

  <section>
    <h2>Routes</h2>
    <table>
      <thead>
        <tr><th>Task</th><th>Agent</th></tr>
      </thead>
      <tbody>
        {{range .Routes}}
        <tr><td><code>{{.Task}}</code></td><td>{{.Agent}}</td></tr>
        {{end}}
      </tbody>
    </table>
  </section>
</body>
</html>
`

type homeAgent struct {
	catalog.Listing
	Tasks []string
}

type homeRoute struct {
	Task  string
	Agent string
}

// homeData is the data passed to the home page template.
type homeData struct {
	CatalogName    string
	CatalogVersion string
	Agents         []homeAgent
	Routes         []homeRoute
}

// handleHome returns an HTTP handler for the orchestrator home page.
func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, s.homeData()); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", handlersLogPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

func (s *Server) homeData() homeData {
	data := homeData{CatalogName: s.catalog.Name, CatalogVersion: s.catalog.Version}

	infos := s.reg.Describe()
	listings := catalog.Listings(s.reg.ListAgents(), s.catalog)
	for i, l := range listings {
		data.Agents = append(data.Agents, homeAgent{Listing: l, Tasks: infos[i].Tasks})
	}

	for task, agentName := range s.reg.Routes() {
		data.Routes = append(data.Routes, homeRoute{Task: task, Agent: agentName})
	}
	sort.Slice(data.Routes, func(i, j int) bool { return data.Routes[i].Task < data.Routes[j].Task })
	return data
}
