package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robert-malhotra/go-stac-api/internal/logging"
	"github.com/robert-malhotra/go-stac-api/internal/validation"
	"github.com/robert-malhotra/go-stac-api/pkg/apierr"
	"github.com/robert-malhotra/go-stac-api/pkg/pagination"
	"github.com/robert-malhotra/go-stac-api/pkg/render"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

func collectionKey(c *stac.Collection) string { return c.Name }

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	req, err := s.pager.Parse(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	fetched, err := s.store.ListCollections(r.Context(), req.Window())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	page := pagination.Paginate(req, fetched, collectionKey)

	l := s.linker(r)
	out := make([]*render.Object, 0, len(page.Items))
	for _, c := range page.Items {
		out = append(out, render.Collection(c, l))
	}
	links := []*render.Object{
		render.LinkObject("self", l.URL("collections")),
		render.LinkObject("root", l.Root()),
		render.LinkObject("parent", l.Root()),
	}
	links = append(links, page.Links(selfURL(l, r, "collections"))...)
	respondJSON(w, r, http.StatusOK, render.CollectionList(out, links))
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCollection(r.Context(), chi.URLParam(r, "collection"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if notModified(w, r, c.ETag) {
		return
	}
	respondJSON(w, r, http.StatusOK, render.Collection(c, s.linker(r)))
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeCollection(r, render.Create)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	c := &stac.Collection{}
	in.Apply(c, render.Create)
	created, err := s.store.CreateCollection(r.Context(), c)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("collection", created.Name).Msg("collection created")
	s.respondCreated(w, r, created.ETag, render.Collection(created, s.linker(r)))
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	mode := modeOf(r)
	name := chi.URLParam(r, "collection")
	in, err := s.decodeCollection(r, mode)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := checkPathID(in.Present, in.Name, name); err != nil {
		s.respondError(w, r, err)
		return
	}
	var removed []string
	updated, err := s.store.UpdateCollection(r.Context(), name, func(c *stac.Collection) error {
		if err := checkPreconditions(r, c.ETag); err != nil {
			return err
		}
		removed = in.Apply(c, mode)
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(removed) > 0 {
		logging.Ctx(r.Context()).Info().Str("collection", name).Strs("providers", removed).Msg("providers removed")
	}
	w.Header().Set("ETag", quoteETag(updated.ETag))
	respondJSON(w, r, http.StatusOK, render.Collection(updated, s.linker(r)))
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	err := s.store.DeleteCollection(r.Context(), name, func(c *stac.Collection) error {
		return checkPreconditions(r, c.ETag)
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("collection", name).Msg("collection deleted")
	respondJSON(w, r, http.StatusOK, render.Deleted(name, s.linker(r).URL("collections")))
}

func (s *Server) decodeCollection(r *http.Request, mode render.Mode) (*render.CollectionInput, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	in, err := render.DecodeCollection(body)
	if err != nil {
		return nil, err
	}
	if err := validation.Collection(in, mode); err != nil {
		return nil, err
	}
	return in, nil
}

// respondCreated writes 201 with the Location of the new resource.
func (s *Server) respondCreated(w http.ResponseWriter, r *http.Request, etag string, obj *render.Object) {
	if self, ok := selfHref(obj); ok {
		w.Header().Set("Location", self)
	}
	w.Header().Set("ETag", quoteETag(etag))
	respondJSON(w, r, http.StatusCreated, obj)
}

// modeOf maps the write method to its decode mode.
func modeOf(r *http.Request) render.Mode {
	if r.Method == http.MethodPatch {
		return render.Merge
	}
	return render.Replace
}

// checkPathID rejects a payload id that differs from the id in the path.
func checkPathID(present render.Presence, payloadID, pathID string) error {
	if present.Has("name") && payloadID != pathID {
		return apierr.Validation("id: The id in the payload does not match the id in the URL.")
	}
	return nil
}
