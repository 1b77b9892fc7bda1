package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"scenario-quiz-service/internal/app"
	"scenario-quiz-service/internal/domain"
	"scenario-quiz-service/internal/progression"
)

const writeWait = 10 * time.Second

type WSHandler struct {
	service  *app.QuizService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler accepts any origin when allowedOrigins is empty.
func NewWSHandler(service *app.QuizService, log *zap.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log.Named("WSHandler"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option *int `json:"option"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and plays one quiz over the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizName := r.URL.Query().Get("quiz")
	username := r.URL.Query().Get("user")
	if quizName == "" || username == "" {
		http.Error(w, "missing quiz or user", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	p := newWSPresenter(conn)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		p.readLoop()
	}()

	summary, err := h.service.Play(r.Context(), quizName, username, p)
	switch {
	case err == nil:
		h.log.Debug("ws quiz finished",
			zap.String("quiz", quizName),
			zap.String("username", username),
			zap.Int("score_percentage", summary.ScorePercentage),
		)
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrInvalidQuiz), errors.Is(err, domain.ErrLearnerRequired):
		_ = p.RenderError(r.Context(), err)
	default:
		h.log.Info("ws quiz interrupted",
			zap.String("quiz", quizName),
			zap.String("username", username),
			zap.Error(err),
		)
	}

	close(p.done)
	_ = p.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	<-readerDone
}

// wsPresenter implements progression.Presenter over a websocket. A single
// reader goroutine feeds answers so CaptureSelection can honour deadlines.
type wsPresenter struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	answers chan int
	stop    chan struct{} // learner asked to end the quiz
	closed  chan struct{} // reader exited
	done    chan struct{} // quiz run returned
	readErr error
}

func newWSPresenter(conn *websocket.Conn) *wsPresenter {
	return &wsPresenter{
		conn:    conn,
		answers: make(chan int),
		stop:    make(chan struct{}),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (p *wsPresenter) readLoop() {
	defer close(p.closed)
	stopped := false
	for {
		var inbound inboundMessage
		if err := p.conn.ReadJSON(&inbound); err != nil {
			p.readErr = err
			return
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
				_ = p.send("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			select {
			case p.answers <- *payload.Option:
			case <-p.done:
				return
			}
		case "stop":
			if !stopped {
				stopped = true
				close(p.stop)
			}
		default:
			_ = p.send("error", errorPayload{Message: "unsupported message type"})
		}
	}
}

func (p *wsPresenter) RenderScenario(_ context.Context, view domain.ScenarioView) error {
	return p.send("scenario", view)
}

func (p *wsPresenter) CaptureSelection(ctx context.Context) (int, error) {
	select {
	case idx := <-p.answers:
		return idx, nil
	case <-p.stop:
		return 0, progression.ErrStop
	case <-p.closed:
		return 0, fmt.Errorf("connection closed: %w", p.readErr)
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (p *wsPresenter) RenderOutcome(_ context.Context, outcome domain.Outcome) error {
	return p.send("outcome", outcome)
}

func (p *wsPresenter) RenderSummary(_ context.Context, summary domain.Summary) error {
	return p.send("summary", summary)
}

func (p *wsPresenter) RenderError(_ context.Context, err error) error {
	return p.send("error", errorPayload{Message: err.Error()})
}

func (p *wsPresenter) send(typ string, payload any) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(outboundMessage{Type: typ, Payload: payload})
}

func (p *wsPresenter) write(messageType int, data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteControl(messageType, data, time.Now().Add(writeWait))
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
