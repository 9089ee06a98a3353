package handler

import (
	"time"

	"github.com/deppfellow/demo-backend/internal/middleware"
	"github.com/deppfellow/demo-backend/internal/server"
	"github.com/deppfellow/demo-backend/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// Handler holds shared application dependencies for concrete handlers.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed endpoint: it receives a bound and validated
// request and returns a response value or an error.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// ResponseHandler decides how a successful result is written and which
// New Relic attributes it adds.
type ResponseHandler interface {
	Handle(c echo.Context, result any) error
	GetOperation() string
	AddAttributes(txn *newrelic.Transaction, result any)
}

// JSONResponseHandler writes JSON responses with a given status code.
type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result any) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

// AddAttributes records the size of list results. http.status_code is set
// by EnhanceTracing.
func (h JSONResponseHandler) AddAttributes(txn *newrelic.Transaction, result any) {
	if txn == nil {
		return
	}
	if items, ok := result.(interface{ Len() int }); ok {
		txn.AddAttribute("response.items", items.Len())
	}
}

// phase times one step of a request for both the log line and the
// transaction.
type phase struct {
	name  string
	start time.Time
	took  time.Duration
}

func startPhase(name string) *phase {
	return &phase{name: name, start: time.Now()}
}

// end stops the clock and tags txn (which may be nil) with
// "<name>.status" and "<name>.duration_ms".
func (p *phase) end(txn *newrelic.Transaction, err error) {
	p.took = time.Since(p.start)
	if txn == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failed"
	}
	txn.AddAttribute(p.name+".status", status)
	txn.AddAttribute(p.name+".duration_ms", p.took.Milliseconds())
}

func (p *phase) log(e *zerolog.Event) *zerolog.Event {
	return e.Dur(p.name+"_duration", p.took)
}

// handleRequest binds and validates req, runs handler and writes the
// result. Errors are returned untouched for the global error handler;
// 5xx ones are reported to New Relic by EnhanceTracing.
func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (any, error),
	responseHandler ResponseHandler,
) error {
	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", c.Path())
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("route", c.Path()).
		Logger()

	total := startPhase("total")

	validating := startPhase("validation")
	err := validation.BindAndValidate(c, req)
	validating.end(txn, err)
	if err != nil {
		validating.log(logger.Debug()).Err(err).Msg("request rejected")
		return err
	}

	running := startPhase("handler")
	result, err := handler(c, req)
	running.end(txn, err)
	total.end(txn, err)
	if err != nil {
		total.log(running.log(logger.Debug())).Err(err).Msg("handler returned an error")
		return err
	}

	responseHandler.AddAttributes(txn, result)
	total.log(running.log(validating.log(logger.Debug()))).Msg("request handled")

	return responseHandler.Handle(c, result)
}

// Handle wraps a typed handler with binding, validation, logging and
// tracing. A fresh T is allocated for every request:
//
//	r.POST("/api/data", handler.Handle[model.CreateItemPayload](h.Item.CreateItem, http.StatusCreated))
func Handle[T any, Req interface {
	*T
	validation.Validatable
}, Res any](
	handler HandlerFunc[Req, Res],
	status int,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, Req(new(T)), func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, JSONResponseHandler{status: status})
	}
}
