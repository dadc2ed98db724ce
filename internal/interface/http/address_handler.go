package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/galactic-postbox/internal/application"
	"github.com/oksasatya/galactic-postbox/pkg/response"
)

type AddressHandler struct {
	Addresses *application.AddressService
	Logger    *logrus.Logger
}

func NewAddressHandler(addresses *application.AddressService, logger *logrus.Logger) *AddressHandler {
	return &AddressHandler{Addresses: addresses, Logger: logger}
}

// Catalog GET /api/addresses
func (h *AddressHandler) Catalog(c *gin.Context) {
	entries, err := h.Addresses.ListCatalog(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := make([]catalogView, 0, len(entries))
	for _, e := range entries {
		out = append(out, catalogView{Address: e.Address.Address, Movie: e.Movie, IsCustom: e.IsCustom, Taken: e.Taken})
	}
	response.Success(c, http.StatusOK, response.H{"addresses": out})
}

// Search GET /api/addresses/search?q=&size=
func (h *AddressHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	found, err := h.Addresses.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := make([]directoryView, 0, len(found))
	for _, e := range found {
		out = append(out, directoryView{Address: e.Address, Movie: e.Movie, Username: e.Username, IsCustom: e.IsCustom})
	}
	response.Success(c, http.StatusOK, response.H{"addresses": out})
}
