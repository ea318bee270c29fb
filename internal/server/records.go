package server

import (
	"net/http"
	"strings"

	"github.com/jscorp/hostpanel/internal/store"
)

// recordRoutes is the handler set every collection exposes.
type recordRoutes interface {
	collection() string
	list(w http.ResponseWriter, r *http.Request)
	get(w http.ResponseWriter, r *http.Request)
	create(w http.ResponseWriter, r *http.Request)
	update(w http.ResponseWriter, r *http.Request)
	delete(w http.ResponseWriter, r *http.Request)
}

// resource serves one typed collection. Q is the partial-update shape
// decoded from PUT bodies.
type resource[T any, P store.Entity[T], Q store.Patch[T]] struct {
	coll *store.Collection[T, P]
}

func newResource[T any, P store.Entity[T], Q store.Patch[T]](coll *store.Collection[T, P]) *resource[T, P, Q] {
	return &resource[T, P, Q]{coll: coll}
}

func (res *resource[T, P, Q]) collection() string {
	return res.coll.Name()
}

// list returns the whole collection, or the records matching ?q= in the
// comma-separated ?fields=.
func (res *resource[T, P, Q]) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var fields []string
	for _, f := range strings.Split(query.Get("fields"), ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}

	items, err := res.coll.Search(r.Context(), query.Get("q"), fields)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (res *resource[T, P, Q]) get(w http.ResponseWriter, r *http.Request) {
	item, err := res.coll.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (res *resource[T, P, Q]) create(w http.ResponseWriter, r *http.Request) {
	var item T
	if !decodeJSON(w, r, &item) {
		return
	}
	created, err := res.coll.Create(r.Context(), item)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/"+res.coll.Name()+"/"+P(created).Meta().ID)
	writeJSON(w, http.StatusCreated, created)
}

func (res *resource[T, P, Q]) update(w http.ResponseWriter, r *http.Request) {
	var patch Q
	if !decodeJSON(w, r, &patch) {
		return
	}
	updated, err := res.coll.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// delete is idempotent: an unknown id still answers 204.
func (res *resource[T, P, Q]) delete(w http.ResponseWriter, r *http.Request) {
	if _, err := res.coll.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeInternal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
