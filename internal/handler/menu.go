package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/menu"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/pricing"
)

// MenuCatalog is the read side of the menu.
// Satisfied by *menu.Catalog; narrow interface for testability.
type MenuCatalog interface {
	Get(id string) (menu.Item, error)
	List(f menu.ListFilter) []menu.Item
	Categories() []menu.Category
}

type MenuHandler struct {
	catalog MenuCatalog
}

func NewMenuHandler(catalog MenuCatalog) *MenuHandler {
	return &MenuHandler{catalog: catalog}
}

// RegisterRoutes is expected to be mounted at /menu.
func (h *MenuHandler) RegisterRoutes(r chi.Router, guard Guard) {
	r.Use(guard(enum.AccessReadOnly))
	r.Get("/categories", h.Categories)
	r.Get("/items", h.ListItems)
	r.Get("/items/{id}", h.GetItem)
}

type menuItemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Image    string `json:"image,omitempty"`
}

func toMenuItemResponse(it menu.Item) menuItemResponse {
	return menuItemResponse{
		ID:       it.ID,
		Name:     it.Name,
		Price:    pricing.Format(it.Price),
		Category: it.Category,
		Image:    it.Image,
	}
}

func (h *MenuHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Categories())
}

// ListItems handles GET /menu/items?category=&q=.
func (h *MenuHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items := h.catalog.List(menu.ListFilter{
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
	})
	resp := make([]menuItemResponse, len(items))
	for i, it := range items {
		resp[i] = toMenuItemResponse(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MenuHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, menu.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(it))
}
