package publish

import (
	"net/http"
	"os"

	"messagewall/pkg/utils"
)

// Handler serves the published object under the fixed key, forwarding the
// stored Content-Type and Cache-Control so client-side caches revalidate
// exactly as the publisher demanded.
func Handler(p Publisher, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		body, meta, err := p.Get(key)
		if err != nil {
			if os.IsNotExist(err) {
				utils.JSONError(w, http.StatusNotFound, "snapshot not published yet")
				return
			}
			utils.JSONError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if meta.ContentType != "" {
			w.Header().Set("Content-Type", meta.ContentType)
		}
		if meta.CacheControl != "" {
			w.Header().Set("Cache-Control", meta.CacheControl)
		}
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(body)
		}
	}
}
