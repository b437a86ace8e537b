package testutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/smeta/internal/api"
	"github.com/alexanderramin/smeta/internal/domain"
)

const spreadsheetType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// NewServer serves b over HTTP with the paths the API client uses. Every
// route but login requires a bearer token minted by b.
func NewServer(t *testing.T, b *Backend) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(Handler(b))
	t.Cleanup(srv.Close)
	return srv
}

// Handler routes requests to b.
func Handler(b *Backend) http.Handler {
	h := &handler{b: b}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", h.login)

	mux.HandleFunc("GET /plans", h.auth(h.listPlans))
	mux.HandleFunc("POST /plans", h.auth(h.createPlan))
	mux.HandleFunc("GET /plans/import-template", h.auth(h.template))
	mux.HandleFunc("GET /plans/{id}", h.auth(h.getPlan))
	mux.HandleFunc("DELETE /plans/{id}", h.auth(h.deletePlan))
	mux.HandleFunc("POST /plans/{id}/versions", h.auth(h.createVersion))
	mux.HandleFunc("PATCH /plans/{id}/versions/{vid}/status", h.auth(h.setStatus))
	mux.HandleFunc("DELETE /plans/{id}/versions/latest", h.auth(h.deleteLatest))
	mux.HandleFunc("GET /plans/{id}/versions/{vid}/export", h.auth(h.export))
	mux.HandleFunc("POST /plans/{id}/items", h.auth(h.addItem))
	mux.HandleFunc("POST /plans/{id}/import", h.auth(h.importItems))

	mux.HandleFunc("GET /items/{id}", h.auth(h.getItem))
	mux.HandleFunc("PUT /items/{id}", h.auth(h.updateItem))
	mux.HandleFunc("DELETE /items/{id}", h.auth(h.deleteItem))
	mux.HandleFunc("POST /items/{id}/revert", h.auth(h.revertItem))

	mux.HandleFunc("POST /executions", h.auth(h.createExecution))
	mux.HandleFunc("GET /executions/by-item/{id}", h.auth(h.listExecutions))
	mux.HandleFunc("DELETE /executions/{id}", h.auth(h.deleteExecution))

	mux.HandleFunc("GET /lookups/enstru", h.auth(h.searchEnstru))
	mux.HandleFunc("GET /lookups/enstru/{code}/ktp", h.auth(h.checkKtp))
	mux.HandleFunc("GET /lookups/mkei", h.auth(h.searchMkei))
	mux.HandleFunc("GET /lookups/cost-items", h.auth(h.costItems))
	mux.HandleFunc("GET /lookups/funding-sources", h.auth(h.fundingSources))
	mux.HandleFunc("GET /lookups/agsk", h.auth(h.searchAgsk))
	mux.HandleFunc("GET /lookups/kato", h.auth(h.searchKato))
	return mux
}

type handler struct {
	b *Backend
}

func (h *handler) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeError(w, &api.APIError{Status: http.StatusUnauthorized, Detail: "Not authenticated"})
			return
		}
		if err := h.b.VerifyToken(tok); err != nil {
			writeError(w, err)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
		return
	}
	if len(apiErr.Errors) > 0 {
		writeJSON(w, apiErr.Status, map[string]any{"detail": map[string]any{"message": apiErr.Detail, "errors": apiErr.Errors}})
		return
	}
	writeJSON(w, apiErr.Status, map[string]any{"detail": apiErr.Detail})
}

func reply[T any](w http.ResponseWriter, v T, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func replyEmpty(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, &api.APIError{Status: http.StatusUnprocessableEntity, Detail: "invalid " + name}
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &api.APIError{Status: http.StatusUnprocessableEntity, Detail: "invalid body: " + err.Error()}
	}
	return nil
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, &api.APIError{Status: http.StatusUnprocessableEntity, Detail: "invalid form"})
		return
	}
	res, err := h.b.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	reply(w, res, err)
}

func (h *handler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.b.ListPlans(r.Context())
	reply(w, plans, err)
}

func (h *handler) createPlan(w http.ResponseWriter, r *http.Request) {
	var in domain.PlanPayload
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.b.CreatePlan(r.Context(), in)
	reply(w, p, err)
}

func (h *handler) getPlan(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		p, err := h.b.GetPlan(r.Context(), id)
		reply(w, p, err)
	})
}

func (h *handler) deletePlan(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) { replyEmpty(w, h.b.DeletePlan(r.Context(), id)) })
}

func (h *handler) createVersion(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		v, err := h.b.CreateVersion(r.Context(), id)
		reply(w, v, err)
	})
}

func (h *handler) setStatus(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(planID int64) {
		withID(w, r, "vid", func(versionID int64) {
			var in domain.StatusPayload
			if err := decodeBody(r, &in); err != nil {
				writeError(w, err)
				return
			}
			v, err := h.b.SetVersionStatus(r.Context(), planID, versionID, in.Status)
			reply(w, v, err)
		})
	})
}

func (h *handler) deleteLatest(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) { replyEmpty(w, h.b.DeleteLatestVersion(r.Context(), id)) })
}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(planID int64) {
		withID(w, r, "vid", func(versionID int64) {
			data, err := h.b.exportWorkbook(planID, versionID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeWorkbook(w, http.StatusOK, "export.xlsx", data)
		})
	})
}

func (h *handler) template(w http.ResponseWriter, r *http.Request) {
	data, err := h.b.templateWorkbook()
	if err != nil {
		writeError(w, err)
		return
	}
	writeWorkbook(w, http.StatusOK, "import_template.xlsx", data)
}

func writeWorkbook(w http.ResponseWriter, status int, name string, data []byte) {
	w.Header().Set("Content-Type", spreadsheetType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (h *handler) addItem(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(planID int64) {
		var in domain.ItemPayload
		if err := decodeBody(r, &in); err != nil {
			writeError(w, err)
			return
		}
		it, err := h.b.AddItem(r.Context(), planID, in)
		reply(w, it, err)
	})
}

func (h *handler) importItems(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(planID int64) {
		f, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, &api.APIError{Status: http.StatusUnprocessableEntity, Detail: "file is required"})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			writeError(w, err)
			return
		}
		out, err := h.b.importWorkbook(planID, data)
		switch {
		case err != nil:
			writeError(w, err)
		case out.annotated != nil:
			writeWorkbook(w, http.StatusBadRequest, "import_errors.xlsx", out.annotated)
		case len(out.errors) > 0:
			writeError(w, &api.APIError{Status: http.StatusBadRequest, Detail: out.message, Errors: out.errors})
		default:
			writeJSON(w, http.StatusOK, map[string]string{"message": out.message})
		}
	})
}

func (h *handler) getItem(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		it, err := h.b.GetItem(r.Context(), id)
		reply(w, it, err)
	})
}

func (h *handler) updateItem(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		var in domain.ItemPayload
		if err := decodeBody(r, &in); err != nil {
			writeError(w, err)
			return
		}
		it, err := h.b.UpdateItem(r.Context(), id, in)
		reply(w, it, err)
	})
}

func (h *handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) { replyEmpty(w, h.b.DeleteItem(r.Context(), id)) })
}

func (h *handler) revertItem(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		it, err := h.b.RevertItem(r.Context(), id)
		reply(w, it, err)
	})
}

func (h *handler) createExecution(w http.ResponseWriter, r *http.Request) {
	var in domain.ExecutionPayload
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	e, err := h.b.CreateExecution(r.Context(), in)
	reply(w, e, err)
}

func (h *handler) listExecutions(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		execs, err := h.b.ListExecutions(r.Context(), id)
		reply(w, execs, err)
	})
}

func (h *handler) deleteExecution(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) { replyEmpty(w, h.b.DeleteExecution(r.Context(), id)) })
}

func (h *handler) searchEnstru(w http.ResponseWriter, r *http.Request) {
	out, err := h.b.SearchEnstru(r.Context(), r.URL.Query().Get("q"))
	reply(w, out, err)
}

func (h *handler) checkKtp(w http.ResponseWriter, r *http.Request) {
	out, err := h.b.CheckKtp(r.Context(), r.PathValue("code"))
	reply(w, out, err)
}

func (h *handler) searchMkei(w http.ResponseWriter, r *http.Request) {
	out, err := h.b.SearchMkei(r.Context(), r.URL.Query().Get("q"))
	reply(w, out, err)
}

func (h *handler) costItems(w http.ResponseWriter, r *http.Request) {
	out, err := h.b.CostItems(r.Context())
	reply(w, out, err)
}

func (h *handler) fundingSources(w http.ResponseWriter, r *http.Request) {
	out, err := h.b.FundingSources(r.Context())
	reply(w, out, err)
}

func (h *handler) searchAgsk(w http.ResponseWriter, r *http.Request) {
	out, err := h.b.SearchAgsk(r.Context(), r.URL.Query().Get("q"))
	reply(w, out, err)
}

func (h *handler) searchKato(w http.ResponseWriter, r *http.Request) {
	var parent *int64
	if s := r.URL.Query().Get("parent_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, &api.APIError{Status: http.StatusUnprocessableEntity, Detail: "invalid parent_id"})
			return
		}
		parent = &id
	}
	out, err := h.b.SearchKato(r.Context(), parent, r.URL.Query().Get("q"))
	reply(w, out, err)
}

func withID(w http.ResponseWriter, r *http.Request, name string, fn func(int64)) {
	id, err := pathID(r, name)
	if err != nil {
		writeError(w, err)
		return
	}
	fn(id)
}

// Client returns an API client for srv signed in as the default user.
func Client(t *testing.T, b *Backend, srv *httptest.Server) *api.Client {
	t.Helper()
	return api.New(api.Config{BaseURL: srv.URL}, api.StaticToken(b.MintToken(TestUser, 24*time.Hour)), nil)
}
