package lab

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/drakos74/cv-scratch/internal/guide"
	"github.com/drakos74/cv-scratch/internal/math/ml"
	"github.com/drakos74/cv-scratch/internal/metrics"
	"github.com/drakos74/cv-scratch/internal/pixel"
	"github.com/drakos74/cv-scratch/internal/quiz"
	"github.com/drakos74/cv-scratch/internal/server"
	"github.com/rs/zerolog/log"
)

var errBadRequest = errors.New("bad request")

// Service exposes the sessions over the http api.
type Service struct {
	registry *Registry
	metrics  *metrics.Metrics
	debug    bool
}

// NewService creates the api over the given registry.
func NewService(registry *Registry, m *metrics.Metrics, debug bool) *Service {
	return &Service{
		registry: registry,
		metrics:  m,
		debug:    debug,
	}
}

// Server builds the http server for all routes.
func (s *Service) Server(name string, port int) *server.Server {
	srv := server.NewServer(name, port).
		Add(server.Live()).
		Add(s.Routes()...).
		Mount("/metrics", s.metrics.Handler()).
		Observe(func(route string, code int) {
			s.metrics.Requests.WithLabelValues(route, fmt.Sprintf("%d", code)).Inc()
		})
	if s.debug {
		srv.Debug()
	}
	return srv
}

// Routes lists the api routes.
func (s *Service) Routes() []server.Route {
	return []server.Route{
		{Action: server.Api, Path: "guide", Method: server.GET, Exec: s.guide},
		{Action: server.Api, Path: "session", Method: server.POST, Exec: s.open},
		{Action: server.Api, Path: "session/close", Method: server.POST, Exec: s.close},
		{Action: server.Api, Path: "dataset", Method: server.GET, Exec: s.dataset},
		{Action: server.Api, Path: "dataset/regenerate", Method: server.POST, Exec: s.regenerate},
		{Action: server.Api, Path: "dataset", Method: server.POST, Exec: s.replace},
		{Action: server.Api, Path: "knn", Method: server.POST, Exec: s.classify},
		{Action: server.Api, Path: "knn/history", Method: server.GET, Exec: s.history},
		{Action: server.Api, Path: "compare", Method: server.POST, Exec: s.compare},
		{Action: server.Api, Path: "kmeans", Method: server.GET, Exec: s.kmeans},
		{Action: server.Api, Path: "kmeans/step", Method: server.POST, Exec: s.step},
		{Action: server.Api, Path: "kmeans/reset", Method: server.POST, Exec: s.reset},
		{Action: server.Api, Path: "kmeans/converge", Method: server.POST, Exec: s.converge},
		{Action: server.Api, Path: "pixel", Method: server.GET, Exec: s.pixel},
		{Action: server.Api, Path: "pixel/paint", Method: server.POST, Exec: s.paint},
		{Action: server.Api, Path: "pixel/resize", Method: server.POST, Exec: s.resize},
		{Action: server.Api, Path: "pixel/features", Method: server.GET, Exec: s.features},
		{Action: server.Api, Path: "pipeline", Method: server.GET, Exec: s.pipeline},
		{Action: server.Api, Path: "pipeline", Method: server.POST, Exec: s.configure},
		{Action: server.Api, Path: "quiz", Method: server.GET, Exec: s.quiz},
		{Action: server.Api, Path: "quiz/answer", Method: server.POST, Exec: s.answer},
		{Action: server.Api, Path: "quiz/reset", Method: server.POST, Exec: s.restart},
	}
}

// status maps the domain errors to http status codes.
func status(err error) int {
	switch {
	case errors.Is(err, ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, ml.ErrInvalidArgument),
		errors.Is(err, pixel.ErrInvalidArgument),
		errors.Is(err, guide.ErrInvalidArgument),
		errors.Is(err, quiz.ErrInvalidOption),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ml.ErrInvalidState),
		errors.Is(err, quiz.ErrFinished):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func reply(v interface{}, err error) ([]byte, int, error) {
	if err != nil {
		return nil, status(err), err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("could not encode response: %w", err)
	}
	return b, http.StatusOK, nil
}

func (s *Service) session(r *http.Request) (*Session, error) {
	return s.registry.Get(r.URL.Query().Get("session"))
}

func (s *Service) read(r *http.Request, v interface{}) error {
	if err := server.JsonRead(r, s.debug, v); err != nil {
		return fmt.Errorf("could not decode request: %v: %w", err, errBadRequest)
	}
	return nil
}

func (s *Service) guide(r *http.Request) ([]byte, int, error) {
	return reply(guide.NewIndex(), nil)
}

// DatasetResponse describes the points of a session.
type DatasetResponse struct {
	Session string                  `json:"session"`
	K       int                     `json:"k"`
	Points  []ml.Point              `json:"points"`
	Summary map[ml.Label]ml.Summary `json:"summary"`
}

func datasetResponse(session *Session) DatasetResponse {
	return DatasetResponse{
		Session: session.ID,
		K:       session.Sandbox.K(),
		Points:  session.Sandbox.Points(),
		Summary: session.Sandbox.Summary(),
	}
}

func (s *Service) open(r *http.Request) ([]byte, int, error) {
	session, err := s.registry.Open()
	if err != nil {
		return reply(nil, err)
	}
	s.metrics.Sessions.Set(float64(s.registry.Size()))
	return reply(datasetResponse(session), nil)
}

func (s *Service) close(r *http.Request) ([]byte, int, error) {
	if err := s.registry.Close(r.URL.Query().Get("session")); err != nil {
		return reply(nil, err)
	}
	s.metrics.Sessions.Set(float64(s.registry.Size()))
	return reply(map[string]bool{"closed": true}, nil)
}

func (s *Service) dataset(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	return reply(datasetResponse(session), nil)
}

func (s *Service) regenerate(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	if err := session.Sandbox.Regenerate(); err != nil {
		return reply(nil, err)
	}
	return reply(datasetResponse(session), nil)
}

// DatasetRequest replaces the points of a session.
type DatasetRequest struct {
	Points []ml.Point `json:"points"`
}

func (s *Service) replace(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	var req DatasetRequest
	if err := s.read(r, &req); err != nil {
		return reply(nil, err)
	}
	if err := session.Sandbox.Replace(req.Points); err != nil {
		return reply(nil, err)
	}
	return reply(datasetResponse(session), nil)
}

// QueryRequest is a click on the classifier plot.
// Both coordinates are required.
type QueryRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	// K optionally updates the neighbour count before classifying.
	K *int `json:"k,omitempty"`
}

func (s *Service) query(r *http.Request) (*Session, QueryRequest, error) {
	var query QueryRequest
	session, err := s.session(r)
	if err != nil {
		return nil, query, err
	}
	if err := s.read(r, &query); err != nil {
		return nil, query, err
	}
	if query.X == nil || query.Y == nil {
		return nil, query, fmt.Errorf("query needs both x and y: %w", errBadRequest)
	}
	if query.K != nil {
		if err := session.Sandbox.SetK(*query.K); err != nil {
			return nil, query, err
		}
	}
	return session, query, nil
}

func (s *Service) classify(r *http.Request) ([]byte, int, error) {
	session, query, err := s.query(r)
	if err != nil {
		return reply(nil, err)
	}
	prediction, err := session.Sandbox.Click(*query.X, *query.Y)
	if err != nil {
		return reply(nil, err)
	}
	s.metrics.Classifications.WithLabelValues(string(prediction.Label)).Inc()
	return reply(prediction, nil)
}

func (s *Service) history(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	return reply(session.Sandbox.History(), nil)
}

func (s *Service) compare(r *http.Request) ([]byte, int, error) {
	session, query, err := s.query(r)
	if err != nil {
		return reply(nil, err)
	}
	comparison, err := session.Sandbox.Compare(*query.X, *query.Y)
	if err != nil {
		return reply(nil, err)
	}
	if !comparison.Agree() {
		log.Info().
			Str("session", session.ID).
			Str("knn", string(comparison.KNN)).
			Str("reference", string(comparison.Reference)).
			Str("forest", string(comparison.Forest)).
			Msg("classifiers disagree")
	}
	return reply(comparison, nil)
}

// KMeansResponse is the k-means state with its display helpers.
type KMeansResponse struct {
	ml.State
	Sizes []int `json:"sizes"`
	// Moved is how far the centroids travelled in the last step.
	Moved float64 `json:"moved"`
}

func kmeansResponse(before, after ml.State) KMeansResponse {
	return KMeansResponse{
		State: after,
		Sizes: after.Sizes(),
		Moved: ml.Displacement(before.Centroids, after.Centroids),
	}
}

func (s *Service) kmeans(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	state := session.Sandbox.KMeans()
	return reply(kmeansResponse(state, state), nil)
}

func (s *Service) step(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	before := session.Sandbox.KMeans()
	after, err := session.Sandbox.Step()
	if err != nil {
		return reply(nil, err)
	}
	s.metrics.Steps.WithLabelValues(after.Phase.String()).Inc()
	return reply(kmeansResponse(before, after), nil)
}

func (s *Service) reset(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	session.Sandbox.Reset()
	state := session.Sandbox.KMeans()
	return reply(kmeansResponse(state, state), nil)
}

func (s *Service) converge(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	return reply(session.Sandbox.Converge())
}

func (s *Service) pixel(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	return reply(session.Grid.Snapshot(), nil)
}

// PaintRequest edits a single cell of a grid layer.
type PaintRequest struct {
	Mode  pixel.Mode `json:"mode"`
	Index int        `json:"index"`
	// Value is the grayscale level.
	Value int `json:"value"`
	// Color is the #rrggbb colour for the rgb layer.
	Color string `json:"color"`
}

func (s *Service) paint(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	var paint PaintRequest
	if err := s.read(r, &paint); err != nil {
		return reply(nil, err)
	}
	switch paint.Mode {
	case pixel.Binary:
		err = session.Grid.Toggle(paint.Index)
	case pixel.Grayscale:
		err = session.Grid.PaintGray(paint.Index, paint.Value)
	case pixel.RGB:
		var c pixel.Color
		c, err = pixel.ParseHex(paint.Color)
		if err == nil {
			err = session.Grid.PaintRGB(paint.Index, c)
		}
	default:
		err = fmt.Errorf("unknown mode '%s': %w", paint.Mode, pixel.ErrInvalidArgument)
	}
	if err != nil {
		return reply(nil, err)
	}
	return reply(session.Grid.Snapshot(), nil)
}

// ResizeRequest changes the grid dimensions.
type ResizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Service) resize(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	var resize ResizeRequest
	if err := s.read(r, &resize); err != nil {
		return reply(nil, err)
	}
	if err := session.Grid.Resize(resize.Width, resize.Height); err != nil {
		return reply(nil, err)
	}
	return reply(session.Grid.Snapshot(), nil)
}

func (s *Service) features(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	mode := pixel.Mode(r.URL.Query().Get("mode"))
	features, err := session.Grid.Features(mode)
	return reply(map[string]interface{}{
		"mode":     mode,
		"features": features,
	}, err)
}

// PipelineResponse is the current stage view with the preprocessing settings.
type PipelineResponse struct {
	View     guide.View     `json:"view"`
	Settings guide.Settings `json:"settings"`
}

// PipelineRequest moves the pipeline and optionally changes its settings.
type PipelineRequest struct {
	Stage    guide.Stage     `json:"stage,omitempty"`
	Next     bool            `json:"next,omitempty"`
	Settings *guide.Settings `json:"settings,omitempty"`
}

func pipelineResponse(p *guide.Pipeline) PipelineResponse {
	return PipelineResponse{
		View:     p.View(),
		Settings: p.Settings(),
	}
}

func (s *Service) pipeline(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	return reply(pipelineResponse(session.Pipeline), nil)
}

func (s *Service) configure(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	var req PipelineRequest
	if err := s.read(r, &req); err != nil {
		return reply(nil, err)
	}
	if req.Settings != nil {
		if err := session.Pipeline.Configure(*req.Settings); err != nil {
			return reply(nil, err)
		}
	}
	if req.Stage != "" {
		if err := session.Pipeline.Select(req.Stage); err != nil {
			return reply(nil, err)
		}
	}
	if req.Next {
		session.Pipeline.Next()
	}
	return reply(pipelineResponse(session.Pipeline), nil)
}

// QuizResponse is the question being asked and the score so far.
type QuizResponse struct {
	Index    int            `json:"index"`
	Question *quiz.Question `json:"question,omitempty"`
	Result   quiz.Result    `json:"result"`
}

func quizResponse(q *quiz.Session) QuizResponse {
	resp := QuizResponse{Result: q.Result()}
	if idx, question, err := q.Current(); err == nil {
		resp.Index = idx
		resp.Question = &question
	}
	return resp
}

func (s *Service) quiz(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	return reply(quizResponse(session.Quiz), nil)
}

// AnswerRequest selects an option of the current question.
type AnswerRequest struct {
	Option int `json:"option"`
}

// AnswerResponse is the feedback for an answer and the next question.
type AnswerResponse struct {
	Outcome quiz.Outcome `json:"outcome"`
	Next    QuizResponse `json:"next"`
}

func (s *Service) answer(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	var req AnswerRequest
	if err := s.read(r, &req); err != nil {
		return reply(nil, err)
	}
	outcome, err := session.Quiz.Answer(req.Option)
	if err != nil {
		return reply(nil, err)
	}
	s.metrics.Answer(outcome.Right)
	return reply(AnswerResponse{
		Outcome: outcome,
		Next:    quizResponse(session.Quiz),
	}, nil)
}

func (s *Service) restart(r *http.Request) ([]byte, int, error) {
	session, err := s.session(r)
	if err != nil {
		return reply(nil, err)
	}
	session.Quiz.Reset()
	return reply(quizResponse(session.Quiz), nil)
}
