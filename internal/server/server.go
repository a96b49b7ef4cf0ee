package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/drakos74/cv-scratch/internal/api"
	"github.com/rs/zerolog/log"
)

type Action string

type Method string

const (
	Data Action = "data"
	Api  Action = "api"

	GET  Method = "GET"
	POST Method = "POST"
)

// Handler executes a request and returns the payload and the status code.
// A zero code on error is reported as an internal server error.
type Handler func(r *http.Request) ([]byte, int, error)

// Observer is notified of the status code of every handled request.
type Observer func(route string, code int)

type Route struct {
	Action Action
	Path   string
	Method Method
	Exec   Handler
}

// Pattern is the url path the route is served on.
func (r Route) Pattern() string {
	if r.Path != "" {
		return fmt.Sprintf("/%s/%s", r.Action, r.Path)
	}
	return fmt.Sprintf("/%s", r.Action)
}

type Server struct {
	name     string
	port     int
	debug    bool
	lock     *sync.Mutex
	routes   []Route
	handlers map[string]http.Handler
	observer Observer
}

func NewServer(name string, port int) *Server {
	return &Server{
		name:     name,
		port:     port,
		lock:     new(sync.Mutex),
		routes:   make([]Route, 0),
		handlers: make(map[string]http.Handler),
		observer: func(route string, code int) {},
	}
}

// Debug sets the server to debug mode
func (s *Server) Debug() *Server {
	s.debug = true
	return s
}

// Observe registers an observer for the request outcomes.
func (s *Server) Observe(observer Observer) *Server {
	s.observer = observer
	return s
}

// AddRoute adds the given route to the server
func (s *Server) AddRoute(method Method, action Action, path string, exec Handler) *Server {
	s.routes = append(s.routes, Route{
		Action: action,
		Path:   path,
		Method: method,
		Exec:   exec,
	})
	return s
}

// Add adds the given routes to the server
func (s *Server) Add(route ...Route) *Server {
	s.routes = append(s.routes, route...)
	return s
}

// Mount serves a plain http handler on the given path, outside of the request lock.
func (s *Server) Mount(path string, handler http.Handler) *Server {
	s.handlers[path] = handler
	return s
}

func (s *Server) handle(pattern string, routes map[Method]Route) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		route, ok := routes[Method(r.Method)]
		if !ok {
			w.WriteHeader(http.StatusMethodNotAllowed)
			s.observer(pattern, http.StatusMethodNotAllowed)
			return
		}
		// one request at a time, the last event determines the state
		s.lock.Lock()
		defer s.lock.Unlock()

		action := api.NewSignal(fmt.Sprintf("%s %s", route.Method, pattern)).Create()
		if s.debug {
			log.Debug().
				Str("id", action.ID).
				Str("action", action.Name).
				Str("query", r.URL.RawQuery).
				Msg("started execution")
		}

		b, code, err := route.Exec(r)
		if err != nil {
			code = s.error(w, err, code)
		} else {
			if code == 0 {
				code = http.StatusOK
			}
			s.respond(w, b, code)
		}
		s.observer(pattern, code)

		if s.debug {
			log.Debug().
				Str("id", action.ID).
				Str("action", action.Name).
				Int("code", code).
				Float64("duration", action.Since().Seconds()).
				Msg("completed execution")
		}
	}
}

// Handler builds the http handler serving all routes.
// Routes sharing a pattern are told apart by their method, the last one added wins.
func (s *Server) Handler() http.Handler {
	patterns := make([]string, 0)
	methods := make(map[string]map[Method]Route)
	for _, route := range s.routes {
		pattern := route.Pattern()
		if _, ok := methods[pattern]; !ok {
			patterns = append(patterns, pattern)
			methods[pattern] = make(map[Method]Route)
		}
		methods[pattern][route.Method] = route
	}
	mux := http.NewServeMux()
	for _, pattern := range patterns {
		mux.HandleFunc(pattern, s.handle(pattern, methods[pattern]))
	}
	for path, handler := range s.handlers {
		mux.Handle(path, handler)
	}
	return mux
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("server", s.name).Int("port", s.port).Msg("starting server")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("could not start server: %w", err)
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Str("server", s.name).Msg("stopping server")
		if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not stop server: %w", err)
		}
		return nil
	}
}

func (s *Server) respond(w http.ResponseWriter, b []byte, code int) {
	if len(b) > 0 {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(code)
	_, err := w.Write(b)
	if err != nil {
		log.Error().Err(err).Msg("could not write response")
	}
}

func (s *Server) error(w http.ResponseWriter, err error, code int) int {
	if code == 0 || code == http.StatusOK {
		code = http.StatusInternalServerError
	}
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("code", code).Msg("error for http request")
	} else {
		log.Warn().Err(err).Int("code", code).Msg("rejected http request")
	}
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	s.respond(w, b, code)
	return code
}

func Live() Route {
	return Route{
		Action: Data,
		Path:   "live",
		Method: GET,
		Exec: func(r *http.Request) (payload []byte, code int, err error) {
			return []byte{}, http.StatusOK, nil
		},
	}
}

// JsonRead decodes the request body into v, an empty body leaves v untouched.
func JsonRead(r *http.Request, debug bool, v interface{}) error {
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if debug {
		log.Info().
			Str("url", fmt.Sprintf("%+v", r.URL)).
			Str("remote-address", r.RemoteAddr).
			Str("method", r.Method).
			Str("body", string(body)).
			Msg("received payload")
	}
	if len(body) > 0 {
		err = json.Unmarshal(body, v)
		if err != nil {
			return err
		}
	}
	return nil
}

// QueryInt parses an integer query parameter, returning def when it is absent.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("could not parse '%s' for '%s': %w", v, key, err)
	}
	return i, nil
}
