package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/satwatch/satwatch/internal/metrics"
	"github.com/satwatch/satwatch/internal/passes"
	"github.com/satwatch/satwatch/internal/propagation"
	"github.com/satwatch/satwatch/internal/storage"
	"github.com/satwatch/satwatch/internal/transform"
)

// earthRadiusKm is the WGS84 equatorial radius, used for the reported
// altitude approximation (geocentric radius minus equatorial radius).
const earthRadiusKm = 6378.137

// defaultPositionsLimit caps the positions endpoint when no limit is given.
const defaultPositionsLimit = 500

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func validCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// listSatellites returns the satellite catalog from storage.
func (s *Server) listSatellites(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "storage not configured")
		return
	}

	sats, err := s.db.ListSatellites(r.Context())
	if err != nil {
		s.logger.Error("listing satellites", "error", err)
		writeError(w, http.StatusInternalServerError, "listing satellites failed")
		return
	}
	if sats == nil {
		sats = []storage.Satellite{}
	}
	writeJSON(w, http.StatusOK, sats)
}

// positionResponse is one satellite's current geodetic state.
type positionResponse struct {
	NORADID    int       `json:"norad_id"`
	Name       string    `json:"name"`
	LatDeg     float64   `json:"lat"`
	LonDeg     float64   `json:"lon"`
	AltitudeKm float64   `json:"altitude_km"`
	SpeedKmS   float64   `json:"speed_km_s"`
	At         time.Time `json:"at"`
}

// positions propagates the loaded dataset to now and reports each
// satellite's subpoint, altitude, and speed.
func (s *Server) positions(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no element-set dataset loaded")
		return
	}

	limit := defaultPositionsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	sets := ds.Satellites
	if len(sets) > limit {
		sets = sets[:limit]
	}

	now := s.now().UTC()
	states, _, _ := s.pool.PropagateBatch(r.Context(), sets, now)

	out := make([]positionResponse, 0, len(states))
	for _, st := range states {
		ecef := transform.ECIToECEF(st.Position, transform.GMST(st.At))
		lat, lon := transform.ECEFToGeodetic(ecef)
		out = append(out, positionResponse{
			NORADID:    st.NORADID,
			Name:       st.Name,
			LatDeg:     lat,
			LonDeg:     lon,
			AltitudeKm: transform.Magnitude(st.Position) - earthRadiusKm,
			SpeedKmS:   transform.Magnitude(st.Velocity),
			At:         st.At,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// snapshotResponse is one recorded satellite state.
type snapshotResponse struct {
	NORADID  int        `json:"norad_id"`
	TakenAt  time.Time  `json:"taken_at"`
	Position [3]float64 `json:"position_km"`
	Velocity [3]float64 `json:"velocity_km_s"`
}

// latestSnapshots returns the most recent recorded state per satellite.
func (s *Server) latestSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "storage not configured")
		return
	}

	limit := defaultPositionsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	snaps, err := s.db.LatestSnapshots(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, "listing snapshots failed")
		return
	}

	out := make([]snapshotResponse, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snapshotResponse{
			NORADID:  snap.NORADID,
			TakenAt:  snap.TakenAt,
			Position: snap.Position,
			Velocity: snap.Velocity,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// passResponse is the result of one prediction run.
type passResponse struct {
	NORADID         int                 `json:"norad_id"`
	Name            string              `json:"name"`
	Start           time.Time           `json:"start"`
	DurationMinutes int                 `json:"duration_minutes"`
	StepSeconds     int                 `json:"step_seconds"`
	MinElevationDeg float64             `json:"min_elevation_deg"`
	Windows         []passes.PassWindow `json:"windows"`
}

// predictPasses serves both /api/v1/passes?norad_id= and
// /api/v1/satellites/{noradID}/passes.
func (s *Server) predictPasses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	noradStr := r.PathValue("noradID")
	if noradStr == "" {
		noradStr = q.Get("norad_id")
	}
	if noradStr == "" {
		writeError(w, http.StatusBadRequest, "norad_id is required")
		return
	}
	noradID, err := strconv.Atoi(noradStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "norad_id must be an integer")
		return
	}

	ds := s.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no element-set dataset loaded")
		return
	}
	set, ok := ds.Find(noradID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown satellite")
		return
	}

	obs, ok := s.resolveObserver(w, r)
	if !ok {
		return
	}

	duration := s.defaults.DurationMinutes
	if v := q.Get("duration"); v != "" {
		if duration, err = strconv.Atoi(v); err != nil || duration < 1 {
			writeError(w, http.StatusBadRequest, "duration must be a positive number of minutes")
			return
		}
	}
	step := s.defaults.StepSeconds
	if v := q.Get("step"); v != "" {
		if step, err = strconv.Atoi(v); err != nil || step < 1 {
			writeError(w, http.StatusBadRequest, "step must be a positive number of seconds")
			return
		}
	}
	minEl := s.defaults.MinElevationDeg
	if v := q.Get("min_el"); v != "" {
		if minEl, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "min_el must be a number")
			return
		}
	}

	prop, err := propagation.New(set)
	if err != nil {
		s.logger.Warn("unusable element set", "norad_id", noradID, "error", err)
		writeError(w, http.StatusBadRequest, "element set rejected by orbital model")
		return
	}

	start := s.now().UTC()
	windows, err := passes.Predict(r.Context(), prop, obs, start, duration, step, minEl)
	if err != nil {
		s.logger.Warn("pass prediction failed", "norad_id", noradID, "error", err)
		writeError(w, http.StatusBadRequest, "pass prediction failed")
		return
	}
	metrics.IncPredictions()

	if windows == nil {
		windows = []passes.PassWindow{}
	}
	writeJSON(w, http.StatusOK, passResponse{
		NORADID:         noradID,
		Name:            set.Name,
		Start:           start,
		DurationMinutes: duration,
		StepSeconds:     step,
		MinElevationDeg: minEl,
		Windows:         windows,
	})
}

// resolveObserver builds the ground observer from station_id or lat/lon
// query parameters. On failure it writes the error response and returns
// ok=false.
func (s *Server) resolveObserver(w http.ResponseWriter, r *http.Request) (transform.Observer, bool) {
	q := r.URL.Query()

	if idStr := q.Get("station_id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "station_id must be an integer")
			return transform.Observer{}, false
		}
		if s.db == nil {
			writeError(w, http.StatusServiceUnavailable, "storage not configured")
			return transform.Observer{}, false
		}
		st, err := s.db.GetStation(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown station")
			return transform.Observer{}, false
		}
		if err != nil {
			s.logger.Error("loading station", "station_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "loading station failed")
			return transform.Observer{}, false
		}
		return transform.NewObserver(st.Lat, st.Lon), true
	}

	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" || lonStr == "" {
		writeError(w, http.StatusBadRequest, "lat and lon (or station_id) are required")
		return transform.Observer{}, false
	}
	lat, latErr := strconv.ParseFloat(latStr, 64)
	lon, lonErr := strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil {
		writeError(w, http.StatusBadRequest, "lat and lon must be numbers")
		return transform.Observer{}, false
	}
	if !validCoordinates(lat, lon) {
		writeError(w, http.StatusUnprocessableEntity, "lat must be in [-90,90] and lon in [-180,180]")
		return transform.Observer{}, false
	}
	return transform.NewObserver(lat, lon), true
}

// stationRequest is the create/update payload for a ground station.
type stationRequest struct {
	Name *string `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

func (s *Server) decodeStation(w http.ResponseWriter, r *http.Request) (stationRequest, bool) {
	var req stationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if !validCoordinates(req.Lat, req.Lon) {
		writeError(w, http.StatusUnprocessableEntity, "lat must be in [-90,90] and lon in [-180,180]")
		return req, false
	}
	return req, true
}

func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "storage not configured")
		return false
	}
	return true
}

func (s *Server) createStation(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	req, ok := s.decodeStation(w, r)
	if !ok {
		return
	}

	id, err := s.db.CreateStation(r.Context(), req.Name, req.Lat, req.Lon)
	if err != nil {
		s.logger.Error("creating station", "error", err)
		writeError(w, http.StatusInternalServerError, "creating station failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) listStations(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}

	stations, err := s.db.ListStations(r.Context())
	if err != nil {
		s.logger.Error("listing stations", "error", err)
		writeError(w, http.StatusInternalServerError, "listing stations failed")
		return
	}
	if stations == nil {
		stations = []storage.Station{}
	}
	writeJSON(w, http.StatusOK, stations)
}

// stationID parses the {id} path value, writing a 400 on failure.
func stationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "station id must be an integer")
		return 0, false
	}
	return id, true
}

func (s *Server) getStation(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	id, ok := stationID(w, r)
	if !ok {
		return
	}

	st, err := s.db.GetStation(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown station")
		return
	}
	if err != nil {
		s.logger.Error("loading station", "station_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "loading station failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) updateStation(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	id, ok := stationID(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeStation(w, r)
	if !ok {
		return
	}

	err := s.db.UpdateStation(r.Context(), id, req.Name, req.Lat, req.Lon)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown station")
		return
	}
	if err != nil {
		s.logger.Error("updating station", "station_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "updating station failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteStation(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	id, ok := stationID(w, r)
	if !ok {
		return
	}

	err := s.db.DeleteStation(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown station")
		return
	}
	if err != nil {
		s.logger.Error("deleting station", "station_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "deleting station failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
