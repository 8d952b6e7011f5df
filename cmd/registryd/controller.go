package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	registry "github.com/cassiscash/registry"
)

// registryController wraps a Coordinator with HTTP handlers for the
// registry's HTTP boundary.
type registryController struct {
	coord *registry.Coordinator
}

// Append handles POST /append: decode one JSON-encoded operation and
// submit it to the coordinator.
func (rc *registryController) Append(w http.ResponseWriter, r *http.Request) {
	var op registry.Operation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := rc.coord.AppendOperation(op); err != nil {
		writeCoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Log handles GET /log?from=&to=&live=: writes historical operations as
// newline-delimited JSON, then, if live=true, keeps the connection open
// and streams newly appended operations until the client disconnects.
func (rc *registryController) Log(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, hasFrom := parseUintParam(q, "from")
	to, hasTo := parseUintParam(q, "to")
	live := q.Get("live") == "true"

	var fromPtr, toPtr *uint32
	if hasFrom {
		fromPtr = &from
	}
	if hasTo {
		toPtr = &to
	}

	ops, err := rc.coord.ListOperations(fromPtr, toPtr)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	enc := json.NewEncoder(w)
	flusher, canFlush := w.(http.Flusher)

	for _, op := range ops {
		if err := enc.Encode(op); err != nil {
			return
		}
	}
	if canFlush {
		flusher.Flush()
	}
	if !live {
		return
	}

	sub := rc.coord.Subscribe()
	defer rc.coord.Unsubscribe(sub)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Lagged():
			return
		case op, ok := <-sub.C():
			if !ok {
				return
			}
			if err := enc.Encode(op); err != nil {
				return
			}
			if canFlush {
				flusher.Flush()
			}
		}
	}
}

// Idx handles GET /idx/{pubkey}: looks up a participant's key-table index,
// writing the decimal index as plain text.
func (rc *registryController) Idx(w http.ResponseWriter, r *http.Request) {
	hexKey := muxVar(r, "pubkey")
	pk, err := registry.ParsePublicKeyHex(hexKey)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	idx, err := rc.coord.GetKeyIndex(pk)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%d", idx)
}

// Lines handles GET /lines: dumps a snapshot of every credit line.
func (rc *registryController) Lines(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(rc.coord.GetLines())
}

func muxVar(r *http.Request, name string) string { return mux.Vars(r)[name] }

func parseUintParam(q map[string][]string, name string) (uint32, bool) {
	vals, ok := q[name]
	if !ok || len(vals) == 0 || vals[0] == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(vals[0], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func writeCoreError(w http.ResponseWriter, err error) {
	ce, ok := err.(*registry.CoreError)
	if !ok {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	switch ce.Kind {
	case registry.KindUnknownKey:
		http.Error(w, ce.Msg, http.StatusNotFound)
	case registry.KindIOError, registry.KindCorruption:
		http.Error(w, ce.Msg, http.StatusInternalServerError)
	default:
		http.Error(w, ce.Msg, http.StatusBadRequest)
	}
}
