package api

import (
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/sincaw/vodstream/cmd/vodstream/server/utils"
	"github.com/sincaw/vodstream/pkg"
	"github.com/sincaw/vodstream/pkg/rangeserve"
)

const greeting = "Hello Video Streaming!"

var (
	logger = utils.Logger()
)

// GreetingHandler handles root path
func (a *Api) GreetingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(greeting)); err != nil {
		logger.Error("write content fail: ", err)
	}
}

// VideoHandler streams the configured default video
func (a *Api) VideoHandler(w http.ResponseWriter, r *http.Request) {
	res := rangeserve.Resource{
		Path:      a.config.Stream.Video,
		MediaType: a.config.Stream.VideoMime,
	}
	a.serveRange(w, r, "video", res)
}

// ResourceHandler streams a catalog resource by id, a trailing file extension is tolerated
func (a *Api) ResourceHandler(w http.ResponseWriter, r *http.Request) {
	var (
		key = mux.Vars(r)["id"]
		l   = logger.With("api", "resource", "request_id", requestID(r), "id", key)
	)

	e, err := a.lookup(key)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			l.Debug("unknown resource")
			rangeserve.WriteError(w, fmt.Errorf("%w: %q", rangeserve.ErrResourceNotFound, key))
			return
		}
		l.Error("get catalog entry fail ", err)
		responseServerError(w, err)
		return
	}

	full, err := utils.SafeJoin(a.config.Scanner.MediaRoot, e.Path)
	if err != nil {
		l.Warnf("reject catalog path %q: %v", e.Path, err)
		rangeserve.WriteError(w, fmt.Errorf("%w: %q", rangeserve.ErrResourceNotFound, key))
		return
	}

	a.serveRange(w, r, "resource", rangeserve.Resource{Path: full, MediaType: e.Mime})
}

func (a *Api) lookup(key string) (*pkg.Entry, error) {
	e, err := a.db.Get(key)
	if err == nil || !errors.Is(err, pkg.ErrNotFound) {
		return e, err
	}
	if ext := path.Ext(key); ext != "" {
		return a.db.Get(key[:len(key)-len(ext)])
	}
	return nil, err
}

func (a *Api) serveRange(w http.ResponseWriter, r *http.Request, route string, res rangeserve.Resource) {
	l := logger.With("api", route, "request_id", requestID(r), "range", r.Header.Get(rangeserve.HeaderRange))

	ret := a.responder.Serve(w, r, res)
	a.metrics.observeRange(route, ret)

	switch ret.State {
	case rangeserve.StateCompleted:
		l.Debugf("partial response %s, %d bytes", ret.Window.ContentRange(), ret.Written)
	case rangeserve.StateFailed:
		if rangeserve.StatusCode(ret.Err) == http.StatusInternalServerError {
			l.Error("range request fail ", ret.Err)
		} else {
			l.Info("reject range request: ", ret.Err)
		}
	case rangeserve.StateAborted:
		if r.Context().Err() != nil {
			l.Debugf("client gone after %d bytes of %s", ret.Written, ret.Window.ContentRange())
		} else {
			l.Errorf("abort transfer after %d bytes of %s: %v", ret.Written, ret.Window.ContentRange(), ret.Err)
		}
		panic(http.ErrAbortHandler)
	}
}

// ListHandler handles catalog list call
func (a *Api) ListHandler(w http.ResponseWriter, r *http.Request) {
	l := logger.With("api", "list", "request_id", requestID(r))
	vars := r.URL.Query()
	limit, err := getIntVal(vars, "limit", defaultPageLimit, 1)
	if err == nil && limit > maxPageLimit {
		err = fmt.Errorf("wrong limit %d, max %d", limit, maxPageLimit)
	}
	if err != nil {
		l.Info("parse limit fail ", err)
		responseBadRequest(w, err)
		return
	}

	offset, err := getIntVal(vars, "offset", 0, 0)
	if err != nil {
		l.Info("parse offset fail ", err)
		responseBadRequest(w, err)
		return
	}

	entries, err := a.db.Range(offset, limit)
	if err != nil {
		l.Error("range catalog fail ", err)
		responseServerError(w, err)
		return
	}
	total, err := a.db.Count()
	if err != nil {
		l.Error("get total items fail ", err)
		responseServerError(w, err)
		return
	}

	items := bson.A{}
	for _, e := range entries {
		items = append(items, bson.M{
			"id":      e.ID,
			"path":    e.Path,
			"mime":    e.Mime,
			"modTime": e.ModTime,
			"url":     utils.LocalResource(uriResource, e.ID),
		})
	}
	content, err := bson.MarshalExtJSON(bson.M{"data": items, "total": total}, false, true)
	if err != nil {
		l.Error("marshal result fail ", err)
		responseServerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(content)
	if err != nil {
		l.Error("write content fail: ", err)
	}
}

// ScanHandler triggers a library scan
func (a *Api) ScanHandler(w http.ResponseWriter, r *http.Request) {
	a.scanner.Trigger()
	w.WriteHeader(http.StatusAccepted)
}
