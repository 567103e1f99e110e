package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tartampluch/go-keepintouch/internal/config"
	"github.com/tartampluch/go-keepintouch/internal/engine"
	"github.com/tartampluch/go-keepintouch/internal/store"
)

func (s *CalendarServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]string{"status": config.HTTPStatusHealthy})
}

// handleCalendarRequest serves the ICS content with HTTP caching support.
func (s *CalendarServer) handleCalendarRequest(w http.ResponseWriter, r *http.Request) {
	item := s.snap.Load()

	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				// If server content is not newer than client cache, return 304.
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}

// handleListContacts returns the latest resolved entries, optionally filtered
// by ?urgency=due|due_soon|not_due|none.
func (s *CalendarServer) handleListContacts(w http.ResponseWriter, r *http.Request) {
	item := s.snap.Load()
	if item == nil {
		writeNotReady(w)
		return
	}

	filter := r.URL.Query().Get(config.QueryUrgency)
	var want engine.Urgency
	if filter != "" {
		u, ok := engine.ParseUrgency(filter)
		if !ok {
			writeBadRequest(w, config.ErrUnknownUrgency)
			return
		}
		want = u
	}

	out := ContactListDTO{
		Today:    item.today.Format(config.DateFormatFullDash),
		Contacts: make([]ContactDTO, 0, len(item.entries)),
	}
	for _, e := range item.entries {
		if want != "" && e.Decision.Urgency() != want {
			continue
		}
		out.Contacts = append(out.Contacts, toContactDTO(e))
	}
	writeSuccess(w, out)
}

func (s *CalendarServer) handleGetContact(w http.ResponseWriter, r *http.Request) {
	item := s.snap.Load()
	if item == nil {
		writeNotReady(w)
		return
	}

	i, ok := item.byUID[chi.URLParam(r, config.ParamUID)]
	if !ok {
		writeNotFound(w, config.HTTPMsgNotFound)
		return
	}
	writeSuccess(w, toContactDTO(item.entries[i]))
}

// handleResolve runs the scheduler on a profile supplied by the caller.
func (s *CalendarServer) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, config.ErrRequestBody)
		return
	}

	profile, err := req.Profile()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	today := s.today()
	if req.Today != "" {
		if today, err = parseDay(req.Today); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
	}

	resolver := s.Resolver
	if resolver == nil {
		resolver = engine.NewResolver(nil)
	}
	writeSuccess(w, toDecisionDTO(resolver.Resolve(profile, today)))
}

// handleRecordInteraction stores an interaction (today by default) and asks
// for a new sync so the feed reflects it.
func (s *CalendarServer) handleRecordInteraction(w http.ResponseWriter, r *http.Request) {
	if s.Recorder == nil {
		writeError(w, http.StatusNotImplemented, config.HTTPMsgNoRecorder, config.HTTPCodeUnsupported)
		return
	}

	var req InteractionRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeBadRequest(w, config.ErrRequestBody)
			return
		}
	}

	at := s.today()
	if req.Date != "" {
		d, err := parseDay(req.Date)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		at = d
	}

	uid := chi.URLParam(r, config.ParamUID)
	if err := s.Recorder.RecordInteraction(r.Context(), uid, at); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w, config.HTTPMsgNotFound)
			return
		}
		slog.Error(config.ErrStoreWrite,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyUID, uid,
			config.LogKeyError, err)
		writeInternalError(w)
		return
	}

	if s.OnInteraction != nil {
		s.OnInteraction()
	}
	writeSuccess(w, map[string]string{
		config.ParamUID: uid,
		"date":          at.Format(config.DateFormatFullDash),
	})
}

// decodeBody reads a size-limited JSON body and rejects unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, config.MaxRequestBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
