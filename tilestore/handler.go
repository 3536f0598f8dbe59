package tilestore

import (
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/multun/mvt"
	"github.com/multun/mvt/codec"
)

// HandlerOptions configures NewHandler.
type HandlerOptions struct {
	// Codec is the codec tiles were published with. Defaults to codec.Identity.
	Codec codec.Codec

	// Extension is the file extension of tile names. Defaults to DefaultExtension.
	Extension string

	// Logger receives request failures. Defaults to mvt.NoopLogger.
	Logger *mvt.Logger
}

type handler struct {
	store Store
	opts  HandlerOptions
}

// NewHandler returns an http.Handler serving GET /{z}/{x}/{y}.{ext} from
// store. Tiles compressed with an HTTP content coding are sent as stored when
// the client accepts that coding and decompressed otherwise.
func NewHandler(store Store, opts HandlerOptions) http.Handler {
	if opts.Codec == nil {
		opts.Codec = codec.Identity{}
	}
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if opts.Logger == nil {
		opts.Logger = mvt.NoopLogger()
	}
	return &handler{store: store, opts: opts}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if ext := path.Ext(r.URL.Path); ext != "" && ext != "."+h.opts.Extension {
		http.NotFound(w, r)
		return
	}
	key, err := ParseKey(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	data, err := h.store.Get(ctx, key.Path(h.opts.Extension))
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.opts.Logger.ErrorContext(ctx, "tile read failed", "tile", key.String(), "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	c := h.opts.Codec
	header := w.Header()
	header.Set("Vary", "Accept-Encoding")
	switch enc := c.ContentEncoding(); {
	case enc != "" && acceptsEncoding(r, enc):
		header.Set("Content-Encoding", enc)
	case c.Name() != (codec.Identity{}).Name():
		if data, err = c.Decompress(data); err != nil {
			h.opts.Logger.ErrorContext(ctx, "tile decompress failed", "tile", key.String(), "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}
	header.Set("Content-Type", mvt.ContentType)
	header.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}

// acceptsEncoding reports whether the Accept-Encoding header allows enc
// with a non-zero quality. An entry naming enc takes precedence over "*".
func acceptsEncoding(r *http.Request, enc string) bool {
	named, wildcard := -1.0, -1.0
	for _, v := range r.Header.Values("Accept-Encoding") {
		for _, part := range strings.Split(v, ",") {
			name, params, _ := strings.Cut(part, ";")
			name = strings.TrimSpace(name)
			switch {
			case strings.EqualFold(name, enc):
				named = max(named, quality(params))
			case name == "*":
				wildcard = max(wildcard, quality(params))
			}
		}
	}
	if named >= 0 {
		return named > 0
	}
	return wildcard > 0
}

// quality returns the q parameter of an Accept-Encoding entry, 1 when it is
// absent and 0 when it is malformed.
func quality(params string) float64 {
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || q < 0 {
			return 0
		}
		return min(q, 1)
	}
	return 1
}
