package sessions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/deepgram/pdfchat/internal/api/v1/middleware"
	"github.com/deepgram/pdfchat/internal/connections"
	"github.com/deepgram/pdfchat/internal/domain/chat/models"
	"github.com/deepgram/pdfchat/internal/services/chat"
	"github.com/deepgram/pdfchat/pkg/httpext"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

// TextRequest is the body of input updates and submissions. Blank text is
// allowed through so the controller can reject it without a transcript change.
type TextRequest struct {
	Text *string `json:"text" validate:"required,max=4000"`
}

type SessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	models.Snapshot
}

type SubmitResponse struct {
	Accepted bool `json:"accepted"`
	SessionResponse
}

func NewSessionResponse(session *chat.Session) SessionResponse {
	return SessionResponse{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
		Snapshot:  session.Controller.Snapshot(),
	}
}

func HandleCreate(manager *chat.Manager, w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetTokenValidation(r).Subject
	session := manager.Create(owner)

	httpext.JsonResponse(w, http.StatusCreated, NewSessionResponse(session))
}

func HandleGet(manager *chat.Manager, w http.ResponseWriter, r *http.Request) {
	session, ok := lookup(manager, w, r)
	if !ok {
		return
	}

	httpext.JsonResponse(w, http.StatusOK, NewSessionResponse(session))
}

func HandleUpdateInput(manager *chat.Manager, w http.ResponseWriter, r *http.Request) {
	session, ok := lookup(manager, w, r)
	if !ok {
		return
	}

	text, ok := decodeText(w, r)
	if !ok {
		return
	}

	session.Controller.UpdateInput(text)
	httpext.JsonResponse(w, http.StatusOK, NewSessionResponse(session))
}

// HandleSubmit starts a question and returns before the backend answers.
// Progress is observed through GET or the stream.
func HandleSubmit(manager *chat.Manager, w http.ResponseWriter, r *http.Request) {
	session, ok := lookup(manager, w, r)
	if !ok {
		return
	}

	text, ok := decodeText(w, r)
	if !ok {
		return
	}

	// The request context ends with this response; the session context lives
	// as long as the session is mounted.
	_, accepted := session.Controller.Dispatch(session.Context(), text)

	status := http.StatusAccepted
	if !accepted {
		status = http.StatusOK
		log.Debug().
			Str("session_id", session.ID).
			Bool("busy", session.Controller.Busy()).
			Msg("Submission rejected")
	}

	httpext.JsonResponse(w, status, SubmitResponse{
		Accepted:        accepted,
		SessionResponse: NewSessionResponse(session),
	})
}

func HandleDelete(manager *chat.Manager, conns *connections.Manager, w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	owner := middleware.GetTokenValidation(r).Subject

	if !manager.Delete(id, owner) {
		httpext.JsonError(w, "Session not found", http.StatusNotFound)
		return
	}

	if closed := conns.CloseSession(id); closed > 0 {
		log.Info().Str("session_id", id).Int("streams", closed).Msg("Closed session streams")
	}
	w.WriteHeader(http.StatusNoContent)
}

// Lookup resolves the {id} route variable to a session owned by the caller.
// Sessions of other subjects are reported as missing.
func Lookup(manager *chat.Manager, r *http.Request) (*chat.Session, bool) {
	validation := middleware.GetTokenValidation(r)
	if validation == nil {
		return nil, false
	}
	return manager.Get(mux.Vars(r)["id"], validation.Subject)
}

func lookup(manager *chat.Manager, w http.ResponseWriter, r *http.Request) (*chat.Session, bool) {
	session, ok := Lookup(manager, r)
	if !ok {
		httpext.JsonError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Client sent malformed JSON request")
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return "", false
	}

	if err := validate.Struct(req); err != nil {
		log.Warn().Err(err).Msg("Request validation failed")
		httpext.JsonError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return "", false
	}

	return *req.Text, true
}
