package clan

import (
	"net/http"
	"net/url"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/keizu/pkg/genealogy"
	"github.com/Ramsey-B/keizu/pkg/models"
	"github.com/Ramsey-B/keizu/pkg/utils"
)

// Handler serves the clan API
type Handler struct {
	service *genealogy.ClanService
}

func NewHandler(service *genealogy.ClanService) *Handler {
	return &Handler{service: service}
}

// Register registers clan routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.CreateClan)
	g.POST("/resolve", h.ResolveClan)
	g.GET("/name/:name", h.GetClanByName)
	g.GET("/exists/:name", h.ClanNameExists)
	g.POST("/relationship/:parentId/:subId", h.AddSubClan)
	g.GET("/:id", h.GetClan)
	g.PUT("/:id", h.UpdateClanName)
	g.DELETE("/:id", h.DeleteClan)
}

// ExistsResponse is the response of a clan name existence check
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// CreateClan creates a clan, rejecting names another clan already uses
func (h *Handler) CreateClan(c echo.Context) error {
	req, err := utils.BindRequest[models.ClanRequest](c)
	if err != nil {
		return err
	}

	clan, err := h.service.CreateClan(c.Request().Context(), req.ClanName)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, clan)
}

// ResolveClan returns the clan owning any of the requested names, merging the names into it,
// or creates one
func (h *Handler) ResolveClan(c echo.Context) error {
	req, err := utils.BindRequest[models.ClanRequest](c)
	if err != nil {
		return err
	}

	clan, err := h.service.CreateOrGetClan(c.Request().Context(), req.ClanName)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, clan)
}

// GetClan gets a clan by identifier
func (h *Handler) GetClan(c echo.Context) error {
	clan, err := h.service.GetClan(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, clan)
}

// GetClanByName gets the clan using a name in any language
func (h *Handler) GetClanByName(c echo.Context) error {
	name, err := nameParam(c)
	if err != nil {
		return err
	}

	clan, err := h.service.GetClanByName(c.Request().Context(), name)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, clan)
}

// ClanNameExists reports whether any clan uses a name
func (h *Handler) ClanNameExists(c echo.Context) error {
	name, err := nameParam(c)
	if err != nil {
		return err
	}

	exists, err := h.service.ClanNameExists(c.Request().Context(), name)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ExistsResponse{Exists: exists})
}

// UpdateClanName merges new localized names into a clan
func (h *Handler) UpdateClanName(c echo.Context) error {
	req, err := utils.BindRequest[models.ClanRequest](c)
	if err != nil {
		return err
	}

	clan, err := h.service.UpdateClanName(c.Request().Context(), c.Param("id"), req.ClanName)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, clan)
}

// DeleteClan deletes a clan
func (h *Handler) DeleteClan(c echo.Context) error {
	if err := h.service.DeleteClan(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// AddSubClan links a sub-clan under a parent clan
func (h *Handler) AddSubClan(c echo.Context) error {
	if err := h.service.LinkSubClan(c.Request().Context(), c.Param("parentId"), c.Param("subId")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func nameParam(c echo.Context) (string, error) {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return "", httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid clan name: %v", err)
	}
	return name, nil
}
