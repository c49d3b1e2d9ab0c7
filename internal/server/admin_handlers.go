package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags returns evaluated feature-flag state for the current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)

	if s.featureFlags == nil {
		return c.JSON(fiber.Map{"evaluated": map[string]bool{}})
	}

	return c.JSON(fiber.Map{
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}

// ClearGeocodeCache handles POST /api/admin/geocode-cache/clear. Useful
// after correcting bad upstream geocoder data.
func (s *Server) ClearGeocodeCache(c *fiber.Ctx) error {
	if s.geocoder != nil {
		s.geocoder.Clear()
	}
	return c.JSON(fiber.Map{"success": true})
}
