package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/shopwise/internal/api/middleware"
	"github.com/example/shopwise/internal/api/response"
	"github.com/example/shopwise/internal/command"
	"github.com/example/shopwise/internal/domain"
	"github.com/example/shopwise/internal/query"
	"github.com/go-chi/chi/v5"
)

var ErrMalformedBody = domain.New(domain.ErrValidation, "Invalid request body")

type Handlers struct {
	commands *command.Handler
	queries  *query.Handler
}

func NewHandlers(commands *command.Handler, queries *query.Handler) *Handlers {
	return &Handlers{
		commands: commands,
		queries:  queries,
	}
}

func (h *Handlers) health(w http.ResponseWriter, _ *http.Request) {
	response.Message(w, http.StatusOK, "ok")
}

// Helper functions

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// decodeBody reads a single JSON value of at most maxBodyBytes. An empty
// body leaves dst untouched. Decode failures come back as validation errors
// naming what was wrong.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			return domain.New(domain.ErrValidation, "Body contains malformed JSON")
		case errors.As(err, &syntaxErr):
			return domain.New(domain.ErrValidation, fmt.Sprintf("Body contains malformed JSON at character %d", syntaxErr.Offset))
		case errors.As(err, &typeErr):
			if typeErr.Field != "" {
				return domain.Invalid(typeErr.Field, fmt.Sprintf("Body contains incorrect JSON type for field %q", typeErr.Field))
			}
			return domain.New(domain.ErrValidation, fmt.Sprintf("Body contains incorrect JSON type at character %d", typeErr.Offset))
		case errors.As(err, &tooLarge):
			return domain.New(domain.ErrValidation, fmt.Sprintf("Body must not be larger than %d bytes", tooLarge.Limit))
		default:
			return ErrMalformedBody
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.New(domain.ErrValidation, "Body must only contain a single JSON value")
	}
	return nil
}

func pathID(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return 0
	}
	return n
}

func pageRequest(r *http.Request) query.PageRequest {
	return query.PageRequest{Page: queryInt(r, "page"), Limit: queryInt(r, "limit")}
}

// queryDate accepts a calendar date or an RFC 3339 timestamp. endOfDay moves
// a bare date to its last instant so the bound is inclusive.
func queryDate(r *http.Request, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, domain.Invalid(key, "Invalid date, expected YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func writePage[T any](w http.ResponseWriter, page query.Page[T]) {
	response.List(w, page.Items, page.Total, page.CurrentPage, page.TotalPages)
}

func customerID(r *http.Request) string {
	return middleware.PrincipalID(r.Context())
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, s *command.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
