// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package rpc implements typed procedures served over HTTP in the tRPC wire
// format: queries are GET requests with a JSON "input" query parameter,
// mutations are POST requests with a JSON body.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/appcontext"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Kind distinguishes read-only queries from mutations.
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

// Access is the authorization level a procedure requires.
type Access int

const (
	// Public procedures can be called without a session.
	Public Access = iota
	// Protected procedures require a signed-in user.
	Protected
	// AdminOnly procedures require a signed-in admin.
	AdminOnly
)

func (a Access) String() string {
	switch a {
	case Protected:
		return "protected"
	case AdminOnly:
		return "admin"
	default:
		return "public"
	}
}

// HandlerFunc implements a procedure.
type HandlerFunc func(ctx context.Context, call *Call) (any, error)

// Call is a single procedure invocation.
type Call struct {
	validate *validator.Validate
	// User is the signed-in user, nil for anonymous calls to public procedures.
	User  *models.User
	input []byte
}

// Bind decodes the call input into v and validates it using its
// `validate` struct tags. Failures are returned as BAD_REQUEST errors.
func (c *Call) Bind(v any) error {
	raw := bytes.TrimSpace(c.input)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return Wrap(CodeBadRequest, "Invalid input: malformed JSON", err)
	}

	if err := c.validate.Struct(v); err != nil {
		return Wrap(CodeBadRequest, validationMessage(err), err)
	}

	return nil
}

// Procedure is a registered procedure.
type Procedure struct {
	handler HandlerFunc
	Name    string
	Kind    Kind
	Access  Access
}

// Router holds the registered procedures and dispatches calls to them.
type Router struct {
	procedures map[string]*Procedure
	validate   *validator.Validate
	metrics    *Metrics
}

// NewRouter creates an empty router. metrics may be nil.
func NewRouter(metrics *Metrics) *Router {
	return &Router{
		procedures: make(map[string]*Procedure),
		validate:   newValidator(),
		metrics:    metrics,
	}
}

// Query registers a read-only procedure.
func (r *Router) Query(name string, access Access, h HandlerFunc) {
	r.add(name, KindQuery, access, h)
}

// Mutation registers a procedure that changes state.
func (r *Router) Mutation(name string, access Access, h HandlerFunc) {
	r.add(name, KindMutation, access, h)
}

func (r *Router) add(name string, kind Kind, access Access, h HandlerFunc) {
	if _, exists := r.procedures[name]; exists {
		panic(fmt.Sprintf("rpc: procedure %q registered twice", name))
	}
	r.procedures[name] = &Procedure{Name: name, Kind: kind, Access: access, handler: h}
}

// Procedure returns the procedure registered under name.
func (r *Router) Procedure(name string) (*Procedure, bool) {
	p, ok := r.procedures[name]
	return p, ok
}

// Names returns the registered procedure names in sorted order.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered procedures.
func (r *Router) Len() int {
	return len(r.procedures)
}

// Call invokes the named procedure. The returned error is always an *Error.
func (r *Router) Call(ctx context.Context, name string, kind Kind, user *models.User, input []byte) (any, error) {
	start := time.Now()

	data, err := r.call(ctx, name, kind, user, input)

	var code Code
	if err != nil {
		code = err.Code
	}
	if r.metrics != nil {
		if _, known := r.procedures[name]; !known {
			name = "unknown"
		}
		r.metrics.observe(name, code, time.Since(start))
	}

	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Router) call(ctx context.Context, name string, kind Kind, user *models.User, input []byte) (any, *Error) {
	p, ok := r.procedures[name]
	if !ok {
		return nil, Errorf(CodeNotFound, "No procedure found on path %q", name)
	}

	if p.Kind != kind {
		return nil, Errorf(CodeMethodNotSupported, "Unsupported %s call to %s procedure %q", kind, p.Kind, name)
	}

	switch p.Access {
	case Protected:
		if user == nil {
			return nil, NewError(CodeUnauthorized, "You must be logged in")
		}
	case AdminOnly:
		if user == nil {
			return nil, NewError(CodeUnauthorized, "You must be logged in")
		}
		if !user.IsAdmin() {
			return nil, NewError(CodeForbidden, "Admin access required")
		}
	}

	data, err := p.handler(ctx, &Call{validate: r.validate, User: user, input: input})
	if err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			return nil, rpcErr
		}
		return nil, Wrap(CodeInternal, "Internal server error", err)
	}

	return data, nil
}

type resultEnvelope struct {
	Result struct {
		Data any `json:"data"`
	} `json:"result"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// Handler serves procedures at a route with a :procedure path parameter.
func (r *Router) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("procedure")
		req := c.Request()

		var (
			kind  Kind
			input []byte
		)
		switch req.Method {
		case http.MethodGet:
			kind = KindQuery
			input = []byte(c.QueryParam("input"))
		case http.MethodPost:
			kind = KindMutation
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return writeError(c, name, Wrap(CodeBadRequest, "Could not read request body", err))
			}
			input = body
		default:
			return writeError(c, name, Errorf(CodeMethodNotSupported, "Unsupported method %s", req.Method))
		}

		data, err := r.Call(req.Context(), name, kind, appcontext.CurrentUser(c), input)
		if err != nil {
			var rpcErr *Error
			if !errors.As(err, &rpcErr) {
				rpcErr = Wrap(CodeInternal, "Internal server error", err)
			}
			return writeError(c, name, rpcErr)
		}

		var env resultEnvelope
		env.Result.Data = data
		return c.JSON(http.StatusOK, env)
	}
}

func writeError(c echo.Context, name string, err *Error) error {
	status := err.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "rpc_error", "procedure", name, "code", err.Code, "error", err)
	} else {
		slog.DebugContext(c.Request().Context(), "rpc_error", "procedure", name, "code", err.Code, "message", err.Message)
	}

	return c.JSON(status, errorEnvelope{Error: errorBody{
		Code:       err.Code,
		Message:    err.Message,
		HTTPStatus: status,
	}})
}
