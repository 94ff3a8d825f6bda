package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/robert-malhotra/go-stac-api/internal/logging"
	"github.com/robert-malhotra/go-stac-api/internal/store"
	"github.com/robert-malhotra/go-stac-api/internal/validation"
	"github.com/robert-malhotra/go-stac-api/pkg/pagination"
	"github.com/robert-malhotra/go-stac-api/pkg/render"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	q := r.URL.Query()
	req, err := s.pager.Parse(q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.store.GetCollection(r.Context(), collection); err != nil {
		s.respondError(w, r, err)
		return
	}
	filter := store.ItemFilter{Collections: []string{collection}}
	if raw := q.Get("bbox"); raw != "" {
		if filter.Bbox, err = store.ParseBbox(raw); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if raw := q.Get("datetime"); raw != "" {
		if filter.Datetime, err = store.ParseDatetime(raw); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	l := s.linker(r)
	links := []*render.Object{
		render.LinkObject("self", l.URL("collections", collection, "items")),
		render.LinkObject("root", l.Root()),
		render.LinkObject("parent", l.URL("collections", collection)),
	}
	s.respondItemPage(w, r, filter, req, links, selfURL(l, r, "collections", collection, "items"), nil)
}

func itemKey(it *stac.Item) string { return it.Key() }

// respondItemPage lists one page of items matching filter as a
// FeatureCollection. A non-nil postBody is attached to the next and
// previous links so that clients can repeat a POST search.
func (s *Server) respondItemPage(w http.ResponseWriter, r *http.Request, filter store.ItemFilter, req pagination.Request,
	links []*render.Object, self *url.URL, postBody map[string]any) {
	fetched, err := s.store.ListItems(r.Context(), filter, req.Window())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	page := pagination.Paginate(req, fetched, itemKey)

	l := s.linker(r)
	features := make([]*render.Object, 0, len(page.Items))
	for _, it := range page.Items {
		obj, err := s.renderItem(r.Context(), it, l)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		features = append(features, obj)
	}
	for _, link := range page.Links(self) {
		if postBody != nil {
			link.Set("method", http.MethodPost)
			link.Set("body", postBody)
		}
		links = append(links, link)
	}
	respondJSON(w, r, http.StatusOK, render.FeatureCollection(features, links, s.now()))
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.store.GetItem(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "item"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if notModified(w, r, it.ETag) {
		return
	}
	obj, err := s.renderItem(r.Context(), it, s.linker(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, obj)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	in, err := s.decodeItem(r, render.Create)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	it := &stac.Item{Collection: collection}
	if err := applyItem(in, it, render.Create); err != nil {
		s.respondError(w, r, err)
		return
	}
	created, err := s.store.CreateItem(r.Context(), it)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("collection", collection).Str("item", created.Name).Msg("item created")
	obj, err := s.renderItem(r.Context(), created, s.linker(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondCreated(w, r, created.ETag, obj)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	mode := modeOf(r)
	collection, name := chi.URLParam(r, "collection"), chi.URLParam(r, "item")
	in, err := s.decodeItem(r, mode)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := checkPathID(in.Present, in.Name, name); err != nil {
		s.respondError(w, r, err)
		return
	}
	updated, err := s.store.UpdateItem(r.Context(), collection, name, func(it *stac.Item) error {
		if err := checkPreconditions(r, it.ETag); err != nil {
			return err
		}
		return applyItem(in, it, mode)
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	obj, err := s.renderItem(r.Context(), updated, s.linker(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("ETag", quoteETag(updated.ETag))
	respondJSON(w, r, http.StatusOK, obj)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	collection, name := chi.URLParam(r, "collection"), chi.URLParam(r, "item")
	err := s.store.DeleteItem(r.Context(), collection, name, func(it *stac.Item) error {
		return checkPreconditions(r, it.ETag)
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("collection", collection).Str("item", name).Msg("item deleted")
	respondJSON(w, r, http.StatusOK, render.Deleted(name, s.linker(r).URL("collections", collection, "items")))
}

func (s *Server) decodeItem(r *http.Request, mode render.Mode) (*render.ItemInput, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	in, err := render.DecodeItem(body)
	if err != nil {
		return nil, err
	}
	if err := validation.Item(in, mode); err != nil {
		return nil, err
	}
	return in, nil
}

// applyItem applies the payload and checks the resulting datetime rules.
func applyItem(in *render.ItemInput, it *stac.Item, mode render.Mode) error {
	if err := in.Apply(it, mode); err != nil {
		return err
	}
	return validation.ItemProperties(it.Properties)
}

// renderItem renders it with its assets embedded.
func (s *Server) renderItem(ctx context.Context, it *stac.Item, l render.Linker) (*render.Object, error) {
	assets, err := s.store.ListAssets(ctx, it.Collection, it.Name)
	if err != nil {
		return nil, err
	}
	return render.Item(it, assets, l), nil
}
