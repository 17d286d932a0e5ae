package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anmol-chhetri-G/Security-Web/internal/usecase"
)

// LookupHandler exposes the OSINT lookup endpoints.
type LookupHandler struct {
	lookup *usecase.LookupService
}

// NewLookupHandler constructs LookupHandler.
func NewLookupHandler(lookup *usecase.LookupService) *LookupHandler {
	return &LookupHandler{lookup: lookup}
}

// RegisterRoutes binds the lookup routes.
func (h *LookupHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/username/:username", h.username)
	r.GET("/ip/:ip", h.ip)
	r.GET("/domain/:domain", h.domain)
}

// Username godoc
// @Summary Probe platforms for a username
// @Tags Lookup
// @Produce json
// @Param username path string true "Username to probe"
// @Success 200 {object} usecase.UsernameScanResult
// @Failure 400 {object} ErrorResponse
// @Router /api/lookup/username/{username} [get]
func (h *LookupHandler) username(c *gin.Context) {
	result, err := h.lookup.ScanUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		RespondWithMappedError(c, err, nil,
			http.StatusInternalServerError, "Username scan failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// IP godoc
// @Summary Geolocate an IPv4 address
// @Tags Lookup
// @Produce json
// @Param ip path string true "IPv4 address"
// @Success 200 {object} usecase.IPInfo
// @Failure 400 {object} ErrorResponse
// @Router /api/lookup/ip/{ip} [get]
func (h *LookupHandler) ip(c *gin.Context) {
	info, err := h.lookup.IPLookup(c.Request.Context(), c.Param("ip"))
	if err != nil {
		RespondWithMappedError(c, err, nil,
			http.StatusInternalServerError, "IP lookup failed")
		return
	}

	c.JSON(http.StatusOK, info)
}

// Domain godoc
// @Summary Resolve DNS and WHOIS data for a domain
// @Tags Lookup
// @Produce json
// @Param domain path string true "Domain name"
// @Success 200 {object} usecase.DomainInfo
// @Failure 400 {object} ErrorResponse
// @Router /api/lookup/domain/{domain} [get]
func (h *LookupHandler) domain(c *gin.Context) {
	info, err := h.lookup.DomainLookup(c.Request.Context(), c.Param("domain"))
	if err != nil {
		RespondWithMappedError(c, err, nil,
			http.StatusInternalServerError, "Domain lookup failed")
		return
	}

	c.JSON(http.StatusOK, info)
}
