package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/vakit/internal/cache"
	"github.com/smokyabdulrahman/vakit/internal/coordinator"
	"github.com/smokyabdulrahman/vakit/internal/geo"
	"github.com/smokyabdulrahman/vakit/internal/prayer"
)

// Coordinator is the part of *coordinator.Coordinator the API drives.
type Coordinator interface {
	State() coordinator.State
	Next(now time.Time) (prayer.NextView, bool)
	ChangeLocation(ctx context.Context, lat, lon float64, label string) (coordinator.State, error)
	UseCurrentLocation(ctx context.Context) coordinator.State
	Refresh(ctx context.Context) coordinator.State
}

// Handler serves the JSON API.
type Handler struct {
	coord Coordinator
	log   zerolog.Logger
	now   func() time.Time
}

func NewHandler(c Coordinator, log zerolog.Logger) *Handler {
	return &Handler{coord: c, log: log, now: time.Now}
}

type prayerTime struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Time string `json:"time"`
}

type nextResponse struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
	Hours     int    `json:"hours"`
	Minutes   int    `json:"minutes"`
}

type stateResponse struct {
	Phase       coordinator.Phase    `json:"phase"`
	NeedsPicker bool                 `json:"needs_picker"`
	Location    *locationResponse    `json:"location,omitempty"`
	Special     bool                 `json:"special"`
	Hijri       string               `json:"hijri,omitempty"`
	Timezone    string               `json:"timezone,omitempty"`
	FetchedAt   *time.Time           `json:"fetched_at,omitempty"`
	Stale       bool                 `json:"stale"`
	Schedule    []prayerTime         `json:"schedule,omitempty"`
	Next        *nextResponse        `json:"next,omitempty"`
	Notices     []coordinator.Notice `json:"notices,omitempty"`
}

type locationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	City      string   `json:"city"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stateView(h.coord.State()))
}

func (h *Handler) GetNext(w http.ResponseWriter, r *http.Request) {
	v, ok := h.coord.Next(h.now())
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no prayer schedule available")
		return
	}
	writeJSON(w, http.StatusOK, toNextResponse(v))
}

// SetLocation handles a pin drop on the map.
func (h *Handler) SetLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}
	if !geo.ValidCoordinate(*req.Latitude, *req.Longitude) {
		writeError(w, http.StatusBadRequest, "latitude must be within [-90, 90] and longitude within [-180, 180]")
		return
	}

	s, err := h.coord.ChangeLocation(r.Context(), *req.Latitude, *req.Longitude, req.City)
	if err != nil {
		h.log.Debug().Err(err).Msg("location rejected")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.stateView(s))
}

func (h *Handler) UseCurrentLocation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stateView(h.coord.UseCurrentLocation(r.Context())))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stateView(h.coord.Refresh(r.Context())))
}

func (h *Handler) stateView(s coordinator.State) stateResponse {
	resp := stateResponse{
		Phase:       s.Phase,
		NeedsPicker: s.NeedsPicker,
		Notices:     s.Notices,
	}
	if s.Location != nil {
		resp.Location = toLocationResponse(*s.Location)
	}
	if e := s.Entry; e != nil {
		fetched := e.FetchedAt
		resp.Special = e.Special
		resp.Hijri = e.Hijri
		resp.Timezone = e.Timezone
		resp.FetchedAt = &fetched
		resp.Stale = !e.Fresh(h.now())
		for _, key := range prayer.Order {
			c, _ := e.Schedule.Clock(key)
			resp.Schedule = append(resp.Schedule, prayerTime{
				Key:  key,
				Name: prayer.DisplayName(key, e.Special),
				Time: c.String(),
			})
		}
		next := toNextResponse(prayer.ComputeNext(e.Schedule, coordinator.InZone(h.now(), e.Timezone), e.Special))
		resp.Next = &next
	}
	return resp
}

func toLocationResponse(loc cache.Location) *locationResponse {
	label := loc.City
	if label == "" {
		label = geo.CoordinateLabel(loc.Latitude, loc.Longitude)
	}
	return &locationResponse{Latitude: loc.Latitude, Longitude: loc.Longitude, Label: label}
}

func toNextResponse(v prayer.NextView) nextResponse {
	return nextResponse{
		Key:       v.Key,
		Name:      v.Name,
		Time:      v.Time.Format("15:04"),
		Remaining: v.Text,
		Hours:     v.Hours,
		Minutes:   v.Minutes,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
