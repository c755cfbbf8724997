package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flight-agent/internal/api/dto"
	"github.com/spec-kit/flight-agent/internal/integrations/search"
	apperrors "github.com/spec-kit/flight-agent/pkg/util/errorutil"
)

// Searcher forwards query parameters to a fixed upstream.
type Searcher interface {
	Search(ctx context.Context, params map[string]any) (json.RawMessage, error)
}

// SearchHandler proxies flight search and place autocomplete. All failures
// are reported as 403 with the envelope.
type SearchHandler struct {
	flights Searcher
	places  Searcher
}

// NewSearchHandler constructs handler.
func NewSearchHandler(flights, places Searcher) *SearchHandler {
	return &SearchHandler{flights: flights, places: places}
}

// Flights handles GET|POST /flights/search.
func (h *SearchHandler) Flights(c *fiber.Ctx) error {
	return h.proxy(c, h.flights, func(body []byte) (json.RawMessage, error) {
		var req dto.FlightSearchRequest
		err := json.Unmarshal(body, &req)
		return req.FlightData, err
	})
}

// Places handles GET|POST /autocomplete/places.
func (h *SearchHandler) Places(c *fiber.Ctx) error {
	return h.proxy(c, h.places, func(body []byte) (json.RawMessage, error) {
		var req dto.PlacesSearchRequest
		err := json.Unmarshal(body, &req)
		return req.PlacesData, err
	})
}

func (h *SearchHandler) proxy(c *fiber.Ctx, upstream Searcher, extract func([]byte) (json.RawMessage, error)) error {
	params, err := searchParams(c, extract)
	if err != nil {
		return apperrors.WithStatus(err, http.StatusForbidden)
	}

	body, err := upstream.Search(c.UserContext(), params)
	if err != nil {
		return apperrors.WithStatus(err, http.StatusForbidden)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(http.StatusOK).Send(body)
}

// searchParams reads the nested payload from the body. A GET without a body
// forwards its own query string instead; repeated keys stay repeated.
func searchParams(c *fiber.Ctx, extract func([]byte) (json.RawMessage, error)) (map[string]any, error) {
	body := c.Body()
	if len(body) == 0 && c.Method() == fiber.MethodGet && c.Context().QueryArgs().Len() > 0 {
		return queryParams(c), nil
	}

	raw, err := extract(body)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	return search.DecodeParams(raw)
}

func queryParams(c *fiber.Ctx) map[string]any {
	multi := map[string][]any{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		multi[k] = append(multi[k], string(value))
	})

	params := make(map[string]any, len(multi))
	for k, values := range multi {
		if len(values) == 1 {
			params[k] = values[0]
			continue
		}
		params[k] = values
	}
	return params
}
