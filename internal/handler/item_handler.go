package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"recorss/internal/model"
	"recorss/internal/service"
)

type ItemHandler struct {
	service service.ItemService
}

func NewItemHandler(service service.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

func (h *ItemHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/update/:id/:value", h.Update)
	g.GET("/items", h.List)
}

type itemResponse struct {
	ID          string  `json:"id"`
	FeedSource  string  `json:"feedSource"`
	Title       string  `json:"title"`
	Link        string  `json:"link"`
	Verdict     string  `json:"verdict"`
	UserLabel   *string `json:"userLabel,omitempty"`
	Description string  `json:"description,omitempty"`
	Author      string  `json:"author,omitempty"`
	Category    string  `json:"category,omitempty"`
	PubDate     string  `json:"pubDate,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

type itemListResponse struct {
	Items []itemResponse `json:"items"`
}

// Update records a reader's like (1) or dislike (0) for an item. A like
// redirects to the article; a dislike answers "OK".
func (h *ItemHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid id"})
	}

	var label model.Label
	switch c.Param("value") {
	case "1":
		label = model.LabelPositive
	case "0":
		label = model.LabelNegative
	default:
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid value"})
	}

	item, err := h.service.SetUserLabel(c.Request().Context(), id, label)
	if err != nil {
		return writeServiceError(c, err)
	}

	if label == model.LabelPositive && item.Link != "" {
		return c.Redirect(http.StatusFound, item.Link)
	}
	return c.String(http.StatusOK, "OK")
}

// List returns stored items, newest first.
func (h *ItemHandler) List(c echo.Context) error {
	var params service.ItemListParams

	if raw := c.QueryParam("feed"); raw != "" {
		params.FeedSource = &raw
	}

	if raw := c.QueryParam("verdict"); raw != "" {
		verdict, err := model.ParseLabel(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid verdict"})
		}
		params.Verdict = &verdict
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid limit"})
		}
		params.Limit = limit
	}

	items, err := h.service.List(c.Request().Context(), params)
	if err != nil {
		return writeServiceError(c, err)
	}

	response := itemListResponse{Items: make([]itemResponse, len(items))}
	for i, it := range items {
		response.Items[i] = toItemResponse(it)
	}
	return c.JSON(http.StatusOK, response)
}

func toItemResponse(it model.Item) itemResponse {
	resp := itemResponse{
		ID:          strconv.FormatInt(it.ID, 10),
		FeedSource:  it.FeedSource,
		Title:       it.Title,
		Link:        it.Link,
		Verdict:     it.Verdict.String(),
		Description: it.Description,
		Author:      it.Author,
		Category:    it.Category,
		PubDate:     it.PubDate,
		CreatedAt:   it.CreatedAt.UTC().Format(time.RFC3339),
	}
	if it.UserLabel != nil {
		label := it.UserLabel.String()
		resp.UserLabel = &label
	}
	return resp
}
