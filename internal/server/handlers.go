package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MrWong99/dictsy/internal/answer/hint"
	"github.com/MrWong99/dictsy/internal/observe"
	"github.com/MrWong99/dictsy/internal/problem"
	"github.com/MrWong99/dictsy/internal/speech"
	"github.com/MrWong99/dictsy/pkg/audio"
)

// maxBody caps request bodies.
const maxBody = 64 << 10

const surface = "http"

type problemResponse struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type checkRequest struct {
	ProblemID int    `json:"problem_id"`
	Answer    string `json:"answer"`
}

type checkResponse struct {
	Correct             bool        `json:"correct"`
	Verdict             string      `json:"verdict"`
	Answer              string      `json:"answer"`
	Reference           string      `json:"reference"`
	NormalizedAnswer    string      `json:"normalized_answer"`
	NormalizedReference string      `json:"normalized_reference"`
	Hints               []hint.Hint `json:"hints"`
}

type voiceResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

type voicesResponse struct {
	Voices   []voiceResponse `json:"voices"`
	Selected string          `json:"selected"`
}

type speakRequest struct {
	ProblemID int    `json:"problem_id"`
	Voice     string `json:"voice"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleNext handles GET /api/problems/next. Without exclude it returns a
// uniformly random problem.
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	picker := s.picker.Load()
	if picker == nil {
		writeError(w, http.StatusServiceUnavailable, "problems are still loading")
		return
	}

	var (
		p   problem.Problem
		err error
	)
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		id, convErr := strconv.Atoi(raw)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, "exclude must be an integer")
			return
		}
		p, err = picker.Pick(id)
	} else {
		p, err = picker.First()
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.metrics.RecordNext(r.Context(), surface)
	writeJSON(w, http.StatusOK, problemResponse{ID: p.ID, Text: p.Text})
}

// handleCheck handles POST /api/check.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if !decode(w, r, &req) {
		return
	}
	ref, ok := s.lookup(w, req.ProblemID)
	if !ok {
		return
	}

	n := s.normalizer.Load()
	normAnswer, normRef := n.Normalize(req.Answer), n.Normalize(ref.Text)
	verdict := n.Judge(req.Answer, ref.Text)

	resp := checkResponse{
		Correct:             normAnswer == normRef,
		Verdict:             verdict.String(),
		Answer:              req.Answer,
		Reference:           ref.Text,
		NormalizedAnswer:    normAnswer,
		NormalizedReference: normRef,
		Hints:               []hint.Hint{},
	}
	if m := s.hints.Load(); m != nil && !resp.Correct {
		if hints := m.Hints(normAnswer, normRef); hints != nil {
			resp.Hints = hints
		}
	}

	s.metrics.RecordCheck(r.Context(), resp.Verdict, surface)
	observe.Logger(r.Context()).Debug("answer checked", "problem_id", ref.ID, "verdict", resp.Verdict)
	writeJSON(w, http.StatusOK, resp)
}

// handleVoices handles GET /api/voices.
func (s *Server) handleVoices(w http.ResponseWriter, _ *http.Request) {
	resp := voicesResponse{Voices: []voiceResponse{}}
	if s.speaker != nil {
		for _, v := range s.speaker.Voices() {
			resp.Voices = append(resp.Voices, voiceResponse{ID: v.ID, Name: v.Name, Language: v.Language})
		}
		if v, ok := s.speaker.Selected(); ok {
			resp.Selected = v.Name
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSpeak handles POST /api/speak. The body is a WAV file of the
// problem text spoken by the requested voice, or the default voice when
// none is given.
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if s.speaker == nil || !s.speaker.Available() {
		writeError(w, http.StatusServiceUnavailable, "speech is not configured")
		return
	}
	var req speakRequest
	if !decode(w, r, &req) {
		return
	}
	p, ok := s.lookup(w, req.ProblemID)
	if !ok {
		return
	}

	pcm, voice, err := s.speaker.Synthesize(r.Context(), p.Text, req.Voice)
	switch {
	case errors.Is(err, speech.ErrUnknownVoice):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, speech.ErrNoVoice), errors.Is(err, speech.ErrNoProvider):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		observe.Logger(r.Context()).Warn("synthesis failed", "problem_id", p.ID, "voice", voice.Name, "err", err)
		writeError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	wav := audio.EncodeWAV(pcm, s.speaker.Format())
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.Header().Set("X-Dictsy-Voice", voice.Name)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}

// lookup resolves a problem id, writing the error response on failure.
func (s *Server) lookup(w http.ResponseWriter, id int) (problem.Problem, bool) {
	picker := s.picker.Load()
	if picker == nil {
		writeError(w, http.StatusServiceUnavailable, "problems are still loading")
		return problem.Problem{}, false
	}
	p, err := picker.Lookup(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown problem_id "+strconv.Itoa(id))
		return problem.Problem{}, false
	}
	return p, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
