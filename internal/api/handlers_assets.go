package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robert-malhotra/go-stac-api/internal/logging"
	"github.com/robert-malhotra/go-stac-api/internal/validation"
	"github.com/robert-malhotra/go-stac-api/pkg/render"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	collection, item := chi.URLParam(r, "collection"), chi.URLParam(r, "item")
	assets, err := s.store.ListAssets(r.Context(), collection, item)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	l := s.linker(r)
	links := []*render.Object{
		render.LinkObject("self", l.URL("collections", collection, "items", item, "assets")),
		render.LinkObject("root", l.Root()),
		render.LinkObject("parent", l.URL("collections", collection, "items", item)),
		render.LinkObject("item", l.URL("collections", collection, "items", item)),
		render.LinkObject("collection", l.URL("collections", collection)),
	}
	respondJSON(w, r, http.StatusOK, render.AssetList(assets, links))
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAsset(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "item"), chi.URLParam(r, "asset"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if notModified(w, r, a.ETag) {
		return
	}
	respondJSON(w, r, http.StatusOK, render.Asset(a, s.linker(r)))
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	collection, item := chi.URLParam(r, "collection"), chi.URLParam(r, "item")
	in, err := s.decodeAsset(r, render.Create)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	a := &stac.Asset{Collection: collection, Item: item}
	in.Apply(a, render.Create)
	if err := s.checker.Check(r.Context(), a); err != nil {
		s.respondError(w, r, err)
		return
	}
	created, err := s.store.CreateAsset(r.Context(), a)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Str("collection", collection).
		Str("item", item).
		Str("asset", created.Name).
		Msg("asset created")
	s.respondCreated(w, r, created.ETag, render.Asset(created, s.linker(r)))
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	mode := modeOf(r)
	collection, item, name := chi.URLParam(r, "collection"), chi.URLParam(r, "item"), chi.URLParam(r, "asset")
	in, err := s.decodeAsset(r, mode)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := checkPathID(in.Present, in.Name, name); err != nil {
		s.respondError(w, r, err)
		return
	}
	ctx := r.Context()
	current, err := s.store.GetAsset(ctx, collection, item, name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := checkPreconditions(r, current.ETag); err != nil {
		s.respondError(w, r, err)
		return
	}
	// The file check talks to object storage and stays outside the store
	// transaction.
	candidate := current.Clone()
	in.Apply(candidate, mode)
	if err := s.checker.Check(ctx, candidate); err != nil {
		s.respondError(w, r, err)
		return
	}
	updated, err := s.store.UpdateAsset(ctx, collection, item, name, func(a *stac.Asset) error {
		if a.ETag != current.ETag {
			return errConflict
		}
		in.Apply(a, mode)
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("ETag", quoteETag(updated.ETag))
	respondJSON(w, r, http.StatusOK, render.Asset(updated, s.linker(r)))
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	collection, item, name := chi.URLParam(r, "collection"), chi.URLParam(r, "item"), chi.URLParam(r, "asset")
	err := s.store.DeleteAsset(r.Context(), collection, item, name, func(a *stac.Asset) error {
		return checkPreconditions(r, a.ETag)
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Str("collection", collection).
		Str("item", item).
		Str("asset", name).
		Msg("asset deleted")
	respondJSON(w, r, http.StatusOK, render.Deleted(name, s.linker(r).URL("collections", collection, "items", item, "assets")))
}

func (s *Server) decodeAsset(r *http.Request, mode render.Mode) (*render.AssetInput, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	in, err := render.DecodeAsset(body)
	if err != nil {
		return nil, err
	}
	if err := validation.Asset(in, mode); err != nil {
		return nil, err
	}
	return in, nil
}
