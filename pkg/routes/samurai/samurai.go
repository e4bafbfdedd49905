package samurai

import (
	"net/http"
	"net/url"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/keizu/pkg/genealogy"
	"github.com/Ramsey-B/keizu/pkg/models"
	"github.com/Ramsey-B/keizu/pkg/utils"
)

// Handler serves the samurai API
type Handler struct {
	service *genealogy.SamuraiService
}

func NewHandler(service *genealogy.SamuraiService) *Handler {
	return &Handler{service: service}
}

// Register registers samurai routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.CreateSamurai)
	g.GET("/search", h.SearchByNickName)
	g.POST("/relationship", h.AddRelationship)
	g.POST("/relationship/:parentId/:childId", h.AddRelationshipByPath)
	g.GET("/offspring/:id", h.GetOffspring)
	g.GET("/:id", h.GetSamurai)
	g.DELETE("/:id", h.DeleteSamurai)
	g.POST("/:id/clan/:clanName", h.AddToClan)
}

// CreateSamurai creates a samurai
func (h *Handler) CreateSamurai(c echo.Context) error {
	req, err := utils.BindRequest[models.CreateSamuraiRequest](c)
	if err != nil {
		return err
	}

	samurai, err := h.service.CreatePerson(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, samurai)
}

// GetSamurai gets a samurai by identifier
func (h *Handler) GetSamurai(c echo.Context) error {
	samurai, err := h.service.GetPerson(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, samurai)
}

// DeleteSamurai deletes a samurai and its relationships
func (h *Handler) DeleteSamurai(c echo.Context) error {
	if err := h.service.DeletePerson(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// SearchByNickName finds samurai whose nickname contains the nickname query parameter
func (h *Handler) SearchByNickName(c echo.Context) error {
	results, err := h.service.SearchByNickName(c.Request().Context(), c.QueryParam("nickname"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, results)
}

// AddRelationship links a parent to a child from a request body
func (h *Handler) AddRelationship(c echo.Context) error {
	req, err := utils.BindRequest[models.AddRelationshipRequest](c)
	if err != nil {
		return err
	}

	if err := h.service.LinkParentChild(c.Request().Context(), req.ParentIdentifier, req.ChildIdentifier, req.RelationshipType); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// AddRelationshipByPath links a parent to a child from path parameters and the rType query parameter
func (h *Handler) AddRelationshipByPath(c echo.Context) error {
	err := h.service.LinkParentChild(c.Request().Context(), c.Param("parentId"), c.Param("childId"), c.QueryParam("rType"))
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// GetOffspring returns the descendant tree of a samurai
func (h *Handler) GetOffspring(c echo.Context) error {
	tree, err := h.service.GetDescendantTree(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tree)
}

// AddToClan moves a samurai into a clan, creating the clan if needed
func (h *Handler) AddToClan(c echo.Context) error {
	clanName, err := url.PathUnescape(c.Param("clanName"))
	if err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid clan name: %v", err)
	}

	samurai, err := h.service.AddSamuraiToClan(c.Request().Context(), c.Param("id"), clanName)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, samurai)
}
