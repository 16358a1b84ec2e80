package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/training-centre-booking/internal/service"
)

// OfferingHandler serves the training-centre catalogue: public browsing
// plus admin maintenance.
type OfferingHandler struct {
    Directory Directory
}

func NewOfferingHandler(d Directory) *OfferingHandler { return &OfferingHandler{Directory: d} }

var searchParams = []string{"name", "location", "from", "open", "page", "page_size"}

// List handles GET /v1/training-centres. Without query parameters it
// returns every offering; with any of name, location, from, open, page or
// page_size it returns one page of matches.
func (h *OfferingHandler) List(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    filtered := false
    for _, p := range searchParams {
        if c.QueryParam(p) != "" {
            filtered = true
            break
        }
    }
    if !filtered {
        all, err := h.Directory.FindAll(ctx)
        if err != nil {
            return writeError(c, err)
        }
        return c.JSON(http.StatusOK, echo.Map{"data": all, "total": len(all)})
    }

    page, _ := strconv.Atoi(c.QueryParam("page"))
    size, _ := strconv.Atoi(c.QueryParam("page_size"))
    open, _ := strconv.ParseBool(c.QueryParam("open"))
    res, err := h.Directory.Search(ctx, service.OfferingQuery{
        Name:     strings.TrimSpace(c.QueryParam("name")),
        Location: strings.TrimSpace(c.QueryParam("location")),
        From:     strings.TrimSpace(c.QueryParam("from")),
        OnlyOpen: open,
        Page:     page,
        PageSize: size,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "data":      res.Items,
        "total":     res.Total,
        "page":      res.Page,
        "page_size": res.PageSize,
    })
}

// Get handles GET /v1/training-centres/:id.
func (h *OfferingHandler) Get(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid training centre id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    o, err := h.Directory.Find(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

// FindByName handles POST /v1/training-centres/search with {"name": ...}.
func (h *OfferingHandler) FindByName(c echo.Context) error {
    var body struct {
        Name string `json:"name"`
    }
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "invalid body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    o, err := h.Directory.FindByName(ctx, body.Name)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

func (h *OfferingHandler) Create(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return writeError(c, err)
    }
    var in service.OfferingInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    o, err := h.Directory.Create(ctx, p, in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, o)
}

func (h *OfferingHandler) Update(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return writeError(c, err)
    }
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid training centre id")
    }
    var in service.OfferingUpdate
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    o, err := h.Directory.Update(ctx, p, id, in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

func (h *OfferingHandler) Delete(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return writeError(c, err)
    }
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid training centre id")
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Directory.Delete(ctx, p, id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
