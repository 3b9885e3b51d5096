package api

import (
	"context"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/livecast/internal/api/models"
)

// registerLEDRoutes registers manual LED overrides. Without LED control the
// routes are left out.
func (s *Server) registerLEDRoutes() {
	leds := s.options.LEDController
	if leds == nil {
		s.logger.Debug("LED controller not available, skipping LED routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "control-led",
		Method:      http.MethodPost,
		Path:        "/api/leds",
		Summary:     "Control LED",
		Description: "Override an LED. The status LED follows the session state again on the next transition.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.LEDRequest) (*struct{}, error) {
		if !slices.Contains(leds.Available(), input.Body.Type) {
			return nil, huma.Error400BadRequest("LED " + input.Body.Type + " is not available on this board")
		}
		if err := leds.Set(input.Body.Type, input.Body.Enabled, input.Body.Pattern); err != nil {
			return nil, huma.Error400BadRequest("Failed to control LED", err)
		}
		return nil, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/leds/capabilities",
		Summary:     "Get LED Capabilities",
		Tags:        []string{"leds"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.LEDCapabilitiesResponse, error) {
		resp := &models.LEDCapabilitiesResponse{}
		resp.Body.AvailableTypes = leds.Available()
		resp.Body.AvailablePatterns = leds.Patterns()
		return resp, nil
	})
}
