package main

import (
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sguter90/fieldmaestro/pkg/relay"
)

const maxFrameSize = 64 * 1024

// FrameResponse reports what happened to a pushed frame
type FrameResponse struct {
	Status string `json:"status"`
	Parcel string `json:"parcel,omitempty"`
	relay.DispatchResult
}

// frameHandler accepts a raw device frame, maps it onto the target parcel's
// sensors and ingests every mapped value in-process
func (rm *RouteManager) frameHandler(w http.ResponseWriter, r *http.Request) {
	format := mux.Vars(r)["format"]

	p, ok := rm.services.Parsers.Get(format)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown frame format: "+format)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxFrameSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read frame")
		return
	}
	if len(body) > maxFrameSize {
		writeError(w, http.StatusRequestEntityTooLarge, "Frame too large")
		return
	}

	frame := strings.TrimSpace(string(body))
	if frame == "" {
		writeError(w, http.StatusBadRequest, "Empty frame")
		return
	}

	fr := relay.New(
		relay.Config{ParcelMarker: rm.parcelMarker},
		p,
		rm.dbManager,
		ingestSink(rm.services.Ingest),
		rm.services.Spool,
		rm.logger,
	)

	if err := fr.Discover(r.Context()); err != nil {
		rm.writeStoreError(w, err, "", "discover sensors")
		return
	}

	result := fr.HandleFrame(r.Context(), "http/"+format, frame)

	resp := FrameResponse{Status: "success", DispatchResult: result}
	if d := fr.Target(); d != nil {
		resp.Parcel = d.Name
	}

	writeJSON(w, http.StatusOK, resp)
}
