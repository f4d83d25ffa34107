package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mitchellh/mapstructure"

	"inputbridge/host"
	"inputbridge/inject"
	"inputbridge/metrics"
)

const (
	MethodInputText        = "inputText"
	MethodInputTextAndWait = "inputTextAndWait"
)

// Reply codes. An empty code means success.
const (
	CodeInvalidArgument       = "INVALID_ARGUMENT"
	CodeAccessibilityDisabled = "ACCESSIBILITY_SERVICE_DISABLED"
	CodeNotImplemented        = "NOT_IMPLEMENTED"
	CodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
	CodeNoActiveWindow        = "NO_ACTIVE_WINDOW"
	CodeNoFocusedEditable     = "NO_FOCUSED_EDITABLE_ELEMENT"
	CodeActionRejected        = "ACTION_REJECTED"
	CodeInjectionFailed       = "INJECTION_FAILED"
)

// MethodCall is one named call from the application shell.
type MethodCall struct {
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Reply answers a MethodCall.
type Reply struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	// ID identifies a dispatched injection in the bridge's logs.
	ID string `json:"id,omitempty"`
}

func (r Reply) OK() bool { return r.Code == "" }

// Status maps the reply code to an HTTP status.
func (r Reply) Status() int {
	switch r.Code {
	case "":
		return http.StatusOK
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeAccessibilityDisabled:
		return http.StatusPreconditionFailed
	case CodeNotImplemented:
		return http.StatusNotImplemented
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

// Dispatcher hands text to the background injection service.
type Dispatcher interface {
	Dispatch(text string) (string, error)
	DispatchAndWait(ctx context.Context, text string) error
}

// CallHandler validates method calls and forwards accepted ones to the
// injection service.
type CallHandler struct {
	capability host.Capability
	service    Dispatcher
	metrics    *metrics.Metrics
	log        *slog.Logger
}

func NewCallHandler(capability host.Capability, service Dispatcher, m *metrics.Metrics, log *slog.Logger) *CallHandler {
	return &CallHandler{capability: capability, service: service, metrics: m, log: log}
}

func (h *CallHandler) Handle(ctx context.Context, call MethodCall) Reply {
	reply := h.handle(ctx, call)

	method := call.Method
	if method != MethodInputText && method != MethodInputTextAndWait {
		method = "other"
	}
	code := reply.Code
	if code == "" {
		code = "OK"
	}
	h.metrics.Calls.WithLabelValues(method, code).Inc()
	return reply
}

func (h *CallHandler) handle(ctx context.Context, call MethodCall) Reply {
	if call.Method != MethodInputText && call.Method != MethodInputTextAndWait {
		h.log.Warn("unknown method", "method", call.Method)
		return Reply{Code: CodeNotImplemented, Message: "Method " + call.Method + " is not implemented"}
	}

	text, err := decodeText(call.Arguments)
	if err != nil {
		h.log.Warn("rejected call", "method", call.Method, "err", err)
		return Reply{Code: CodeInvalidArgument, Message: "Text argument was null"}
	}

	if !h.capability.Enabled(ctx) {
		if err := h.capability.RequestEnablement(ctx); err != nil {
			h.log.Error("could not open accessibility settings", "err", err)
		}
		return Reply{Code: CodeAccessibilityDisabled, Message: "Please enable the accessibility service"}
	}

	if call.Method == MethodInputTextAndWait {
		return injectionReply(h.service.DispatchAndWait(ctx, text))
	}

	id, err := h.service.Dispatch(text)
	if err != nil {
		h.log.Error("dispatch refused", "err", err)
		return Reply{Code: CodeServiceUnavailable, Message: err.Error()}
	}
	return Reply{ID: id}
}

var errMissingText = errors.New("missing text argument")

type inputTextArgs struct {
	Text *string `mapstructure:"text"`
}

func decodeText(arguments map[string]any) (string, error) {
	var args inputTextArgs
	if err := mapstructure.Decode(arguments, &args); err != nil {
		return "", err
	}
	if args.Text == nil {
		return "", errMissingText
	}
	return *args.Text, nil
}

func injectionReply(err error) Reply {
	switch {
	case err == nil:
		return Reply{}
	case errors.Is(err, inject.ErrServiceUnavailable):
		return Reply{Code: CodeServiceUnavailable, Message: err.Error()}
	case errors.Is(err, inject.ErrNoActiveWindow):
		return Reply{Code: CodeNoActiveWindow, Message: err.Error()}
	case errors.Is(err, inject.ErrNoFocusedEditable):
		return Reply{Code: CodeNoFocusedEditable, Message: err.Error()}
	case errors.Is(err, inject.ErrActionRejected):
		return Reply{Code: CodeActionRejected, Message: err.Error()}
	default:
		return Reply{Code: CodeInjectionFailed, Message: err.Error()}
	}
}
