package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/linemark/internal/config"
	"github.com/MrSnakeDoc/linemark/internal/domain"
	"github.com/MrSnakeDoc/linemark/internal/exchange"
	"github.com/MrSnakeDoc/linemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linemark/internal/logger"
)

type importResult struct {
	Added     int               `json:"added"`
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

type migrateRequest struct {
	Scope string `json:"scope"`
}

type migrateResult struct {
	Moved int    `json:"moved"`
	Key   string `json:"key"`
}

type encryptionStatus struct {
	Enabled bool   `json:"enabled"`
	Secret  string `json:"secret"` // masked
}

// optionsPatch lists the options settable over HTTP. Absent fields are
// left unchanged.
type optionsPatch struct {
	EncryptionEnabled *bool    `json:"encryption_enabled,omitempty"`
	StorageScope      *string  `json:"storage_scope,omitempty"`
	GroupSortOrder    *string  `json:"group_sort_order,omitempty"`
	AutoDetectChanges *bool    `json:"auto_detect_changes,omitempty"`
	NodeScale         *float64 `json:"node_scale,omitempty"`
	SaveDelay         *string  `json:"save_delay,omitempty"` // Go duration, e.g. "750ms"
}

type optionsView struct {
	EncryptionEnabled bool    `json:"encryption_enabled"`
	EncryptionSecret  string  `json:"encryption_secret"`
	StorageScope      string  `json:"storage_scope"`
	GroupSortOrder    string  `json:"group_sort_order"`
	AutoDetectChanges bool    `json:"auto_detect_changes"`
	NodeScale         float64 `json:"node_scale"`
	SaveDelay         string  `json:"save_delay"`
}

func viewOf(o config.Options) optionsView {
	return optionsView{
		EncryptionEnabled: o.EncryptionEnabled,
		EncryptionSecret:  o.EncryptionSecret,
		StorageScope:      string(o.StorageScope),
		GroupSortOrder:    o.GroupSortOrder,
		AutoDetectChanges: o.AutoDetectChanges,
		NodeScale:         o.NodeScale,
		SaveDelay:         o.SaveDelay.String(),
	}
}

// Export streams every bookmark as ?format= (markdown by default).
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := exchange.Markdown
		if raw := r.URL.Query().Get("format"); raw != "" {
			parsed, err := exchange.ParseFormat(raw)
			if err != nil {
				writeError(w, d, err)
				return
			}
			f = parsed
		}

		// render first so that a failure still yields a JSON error
		var buf bytes.Buffer
		if err := d.Service.Export(&buf, f); err != nil {
			writeError(w, d, err)
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="bookmarks.`+f.Extension()+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

// Import reads the request body as ?format=.
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := exchange.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, d, err)
			return
		}
		limit := d.MaxBodyBytes
		if limit <= 0 {
			limit = defaultMaxBody
		}
		added, err := d.Service.Import(io.LimitReader(r.Body, limit), f)
		if err != nil {
			// only parsing can fail here
			writeError(w, d, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		writeJSON(w, http.StatusOK, importResult{Added: len(added), Bookmarks: added})
	}
}

// Flush forces the pending save.
func Flush(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Service.Flush(r.Context()); err != nil {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Migrate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req migrateRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, d, err)
			return
		}
		scope, err := domain.ParseScope(req.Scope)
		if err != nil {
			writeError(w, d, err)
			return
		}
		moved, err := d.Service.Migrate(r.Context(), scope)
		if err != nil {
			writeError(w, d, err)
			return
		}
		d.Logger.Info("storage migrated via endpoint",
			logger.String("scope", string(scope)),
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, migrateResult{Moved: moved, Key: d.Service.Key()})
	}
}

func Encryption(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, encryptionStatus{
			Enabled: d.Service.Options().EncryptionEnabled,
			Secret:  d.Service.EncryptionSecret(),
		})
	}
}

func RotateKey(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		masked, err := d.Service.RotateKey(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, encryptionStatus{
			Enabled: d.Service.Options().EncryptionEnabled,
			Secret:  masked,
		})
	}
}

func GetOptions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, viewOf(d.Service.Options()))
	}
}

// ReloadOptions rereads the options file and returns the result.
func ReloadOptions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := d.Service.ReloadOptions()
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(opts))
	}
}

func PatchOptions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p optionsPatch
		if err := decode(r, d, &p); err != nil {
			writeError(w, d, err)
			return
		}
		var delay time.Duration
		if p.SaveDelay != nil {
			parsed, err := time.ParseDuration(*p.SaveDelay)
			if err != nil || parsed < 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "save_delay must be a non-negative duration"})
				return
			}
			delay = parsed
		}

		opts, err := d.Service.UpdateOptions(func(o *config.Options) {
			if p.EncryptionEnabled != nil {
				o.EncryptionEnabled = *p.EncryptionEnabled
			}
			if p.StorageScope != nil {
				o.StorageScope = domain.Scope(*p.StorageScope)
			}
			if p.GroupSortOrder != nil {
				o.GroupSortOrder = *p.GroupSortOrder
			}
			if p.AutoDetectChanges != nil {
				o.AutoDetectChanges = *p.AutoDetectChanges
			}
			if p.NodeScale != nil {
				o.NodeScale = *p.NodeScale
			}
			if p.SaveDelay != nil {
				o.SaveDelay = delay
			}
		})
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(opts))
	}
}
