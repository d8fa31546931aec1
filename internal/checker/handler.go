package checker

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"

	"github.com/mkalinin42/fastvuln/internal/middleware"
)

// Task methods dispatched by the orchestration layer.
const (
	MethodPutFlag  = "putflag"
	MethodGetFlag  = "getflag"
	MethodPutNoise = "putnoise"
	MethodGetNoise = "getnoise"
	MethodExploit  = "exploit"
	MethodHavoc    = "havoc"
)

// Results understood by the orchestration layer.
const (
	ResultOK            = "OK"
	ResultMumble        = "MUMBLE"
	ResultInternalError = "INTERNAL_ERROR"
)

// TaskMessage is the task descriptor the orchestration layer posts for
// each phase invocation.
type TaskMessage struct {
	TaskID      int64  `json:"taskId"`
	Method      string `json:"method"`
	Address     string `json:"address"`
	TeamName    string `json:"teamName"`
	Flag        string `json:"flag"`
	VariantID   int    `json:"variantId"`
	TaskChainID string `json:"taskChainId"`
	AttackInfo  string `json:"attackInfo"`
}

// TaskResult is the response returned for each task. AttackInfo carries
// the reference to a planted flag; Flag carries an exploited one.
type TaskResult struct {
	Result     string `json:"result"`
	Message    string `json:"message,omitempty"`
	AttackInfo string `json:"attackInfo,omitempty"`
	Flag       string `json:"flag,omitempty"`
}

// ServiceInfo describes the checker to the orchestration layer.
type ServiceInfo struct {
	ServiceName     string `json:"serviceName"`
	FlagVariants    int    `json:"flagVariants"`
	NoiseVariants   int    `json:"noiseVariants"`
	HavocVariants   int    `json:"havocVariants"`
	ExploitVariants int    `json:"exploitVariants"`
}

// TaskHandler serves the checker orchestration protocol: POST / runs a
// phase, GET /service reports the variant counts.
type TaskHandler struct {
	// Checker runs the phases.
	Checker *Checker
	// Store persists the chain ledger the phases share across rounds.
	Store ChainStore
	// ServicePort is the port the target service listens on; the task's
	// address field selects the host.
	ServicePort int
	// RequestTimeout bounds every HTTP call a phase makes.
	RequestTimeout time.Duration
	// Log is the structured logger for task handling.
	Log *zap.Logger
}

// Info responds with the checker's service description.
func (h *TaskHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ServiceInfo{
		ServiceName:     "fastvuln",
		FlagVariants:    1,
		NoiseVariants:   1,
		HavocVariants:   0,
		ExploitVariants: 1,
	})
}

// ServeTask decodes a task message, runs the requested phase and reports
// the outcome in the orchestration layer's result vocabulary. Mumble
// faults map to MUMBLE; everything unexpected maps to INTERNAL_ERROR.
func (h *TaskHandler) ServeTask(w http.ResponseWriter, r *http.Request) {
	var task TaskMessage
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeJSON(w, http.StatusBadRequest, TaskResult{
			Result:  ResultInternalError,
			Message: "invalid task message",
		})
		return
	}

	log := h.Log.With(
		zap.String("method", task.Method),
		zap.String("chain", task.TaskChainID),
		zap.Int64("task", task.TaskID),
	)
	log.Info("task started")

	result := h.run(r.Context(), task, log)

	log.Info("task finished", zap.String("result", result.Result))
	writeJSON(w, http.StatusOK, result)
}

func (h *TaskHandler) run(ctx context.Context, task TaskMessage, log *zap.Logger) TaskResult {
	if task.Method == MethodHavoc {
		// No havoc variants; accept and do nothing.
		return TaskResult{Result: ResultOK}
	}

	client, err := NewClient(h.serviceURL(task), h.RequestTimeout, log)
	if err != nil {
		return TaskResult{Result: ResultInternalError, Message: err.Error()}
	}
	db := BindChain(h.Store, task.TaskChainID)

	switch task.Method {
	case MethodPutFlag:
		attackInfo, err := h.Checker.PutFlag(ctx, client, db, task.Flag)
		if err != nil {
			return resultFor(err, log)
		}
		return TaskResult{Result: ResultOK, AttackInfo: attackInfo}
	case MethodGetFlag:
		if err := h.Checker.GetFlag(ctx, client, db, task.Flag); err != nil {
			return resultFor(err, log)
		}
		return TaskResult{Result: ResultOK}
	case MethodPutNoise:
		if err := h.Checker.PutNoise(ctx, client, db); err != nil {
			return resultFor(err, log)
		}
		return TaskResult{Result: ResultOK}
	case MethodGetNoise:
		if err := h.Checker.GetNoise(ctx, client, db); err != nil {
			return resultFor(err, log)
		}
		return TaskResult{Result: ResultOK}
	case MethodExploit:
		flag, err := h.Checker.Exploit(ctx, client, task.AttackInfo)
		if err != nil {
			return resultFor(err, log)
		}
		return TaskResult{Result: ResultOK, Flag: flag}
	default:
		return TaskResult{Result: ResultInternalError, Message: "unknown method " + task.Method}
	}
}

func (h *TaskHandler) serviceURL(task TaskMessage) string {
	return "http://" + net.JoinHostPort(task.Address, strconv.Itoa(h.ServicePort))
}

func resultFor(err error, log *zap.Logger) TaskResult {
	var mumble *MumbleError
	if errors.As(err, &mumble) {
		log.Warn("mumble", zap.Error(err))
		return TaskResult{Result: ResultMumble, Message: mumble.Message}
	}
	log.Error("internal error", zap.Error(err))
	return TaskResult{Result: ResultInternalError, Message: err.Error()}
}

// NewRouter constructs the checker's HTTP handler.
//
// Routes:
//
//	POST /         → TaskHandler.ServeTask
//	GET  /service  → TaskHandler.Info
func NewRouter(handler *TaskHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestLogging(logger))

	r.Post("/", handler.ServeTask)
	r.Get("/service", handler.Info)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
