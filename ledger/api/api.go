package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/andrebq/pressbox/internal/logutil"
	"github.com/andrebq/pressbox/ledger"
	"github.com/julienschmidt/httprouter"
)

type (
	// Protector guards the mutating half of the content API, usually the
	// accounts/api security realm.
	Protector interface {
		Protect(http.Handler) http.Handler
	}

	postPayload struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
)

// AsHandler exposes the content of store: posts as JSON under /posts and
// every stored asset at its own path. Reads are public, any mutation goes
// through protect first.
func AsHandler(ctx context.Context, store *ledger.L, protect Protector) (http.Handler, error) {
	router := httprouter.New()
	router.HandlerFunc("GET", "/posts", listPosts(store))
	router.HandlerFunc("GET", "/posts/:id", getPost(store))
	router.Handler("POST", "/posts", protect.Protect(http.HandlerFunc(createPost(store))))
	router.Handler("PUT", "/posts/:id", protect.Protect(http.HandlerFunc(updatePost(store))))
	router.Handler("DELETE", "/posts/:id", protect.Protect(http.HandlerFunc(deletePost(store))))

	assets, err := store.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	// longer paths first, so that the index.html defaults below never
	// shadow a real asset
	sort.Sort(sort.Reverse(sort.StringSlice(assets)))
	for _, s := range assets {
		router.HandlerFunc("GET", fmt.Sprintf("/%v", s), serveAsset(store, s))
		if path.Base(s) == "index.html" {
			dir := path.Dir(s)
			if dir == "." {
				dir = "/"
			} else {
				dir = fmt.Sprintf("/%v/", strings.Trim(dir, "/"))
			}
			router.HandlerFunc("GET", dir, serveAsset(store, s))
		}
	}
	return router, nil
}

func listPosts(store *ledger.L) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := store.ListPosts(r.Context())
		if err != nil {
			log := logutil.GetOrDefault(r.Context())
			log.Error().Err(err).Msg("Unable to list posts")
			http.Error(w, "unable to list posts", http.StatusBadGateway)
			return
		}
		if posts == nil {
			posts = []ledger.Post{}
		}
		writeJSON(w, http.StatusOK, posts)
	}
}

func getPost(store *ledger.L) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := postID(w, r)
		if !ok {
			return
		}
		post, err := store.GetPost(r.Context(), id)
		if err != nil {
			writePostError(w, r, id, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func createPost(store *ledger.L) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := decodePostPayload(w, r)
		if !ok {
			return
		}
		post, err := store.CreatePost(r.Context(), payload.Title, payload.Body)
		if err != nil {
			log := logutil.GetOrDefault(r.Context())
			log.Error().Err(err).Msg("Unable to store post")
			http.Error(w, "unable to store post", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusCreated, post)
	}
}

func updatePost(store *ledger.L) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := postID(w, r)
		if !ok {
			return
		}
		payload, ok := decodePostPayload(w, r)
		if !ok {
			return
		}
		post, err := store.UpdatePost(r.Context(), id, payload.Title, payload.Body)
		if err != nil {
			writePostError(w, r, id, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func deletePost(store *ledger.L) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := postID(w, r)
		if !ok {
			return
		}
		err := store.DeletePost(r.Context(), id)
		if err != nil {
			writePostError(w, r, id, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func serveAsset(store *ledger.L, assetPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// buffering the asset keeps the sqlite read short instead of
		// holding it for as long as the client takes to drain the body
		var buf bytes.Buffer
		mt, err := store.CopyAsset(r.Context(), &buf, assetPath)
		if err != nil {
			log := logutil.GetOrDefault(r.Context())
			log.Error().Err(err).Str("asset", assetPath).Msg("Unable to fetch asset")
			http.Error(w, "unable to fetch desired asset", http.StatusBadGateway)
			return
		}
		if utf8.Valid(buf.Bytes()) {
			w.Header().Add("Content-Type", fmt.Sprintf("%v; charset=utf-8", mt))
		} else {
			w.Header().Add("Content-Type", mt)
		}
		w.Header().Add("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	params := httprouter.ParamsFromContext(r.Context())
	id, err := strconv.ParseInt(params.ByName("id"), 10, 64)
	if err != nil {
		http.Error(w, "post id must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decodePostPayload(w http.ResponseWriter, r *http.Request) (postPayload, bool) {
	var payload postPayload
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil || payload.Title == "" {
		http.Error(w, "post must contain at least a title", http.StatusBadRequest)
		return postPayload{}, false
	}
	return payload, true
}

func writePostError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	var notFound ledger.PostNotFound
	if errors.As(err, &notFound) {
		http.Error(w, notFound.Error(), http.StatusNotFound)
		return
	}
	log := logutil.GetOrDefault(r.Context())
	log.Error().Err(err).Int64("post", id).Msg("Unable to access post")
	http.Error(w, "unable to access post", http.StatusBadGateway)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
