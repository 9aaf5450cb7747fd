package httpapi

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dberezins/threatlens/internal/server/models"
)

type scanResp struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Input     string    `json:"input"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

func toScanResp(s *models.Scan) scanResp {
	return scanResp{
		ID:        s.ID,
		Type:      string(s.Type),
		Input:     s.Input,
		Result:    s.Result,
		CreatedAt: s.CreatedAt,
	}
}

type predictSQLReq struct {
	Query string `json:"query" validate:"required"`
}

func (s *Server) handlePredictSQL(c *fiber.Ctx) error {
	var req predictSQLReq
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}
	if err := validate.Struct(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}

	scan, err := s.scans.ScanQuery(c.Context(), accountID(c), req.Query)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"result": scan.Result})
}

type predictURLReq struct {
	URL string `json:"url" validate:"required"`
}

func (s *Server) handlePredictPhishing(c *fiber.Ctx) error {
	var req predictURLReq
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}
	if err := validate.Struct(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}

	scan, err := s.scans.ScanURL(c.Context(), accountID(c), req.URL)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"result": scan.Result})
}

func (s *Server) handlePredictFile(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}

	f, err := header.Open()
	if err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return message(c, fiber.StatusBadRequest, "All input is required")
	}

	scan, err := s.scans.ScanFile(c.Context(), accountID(c), header.Filename, data)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"result": scan.Result})
}

func (s *Server) handleScanHistory(c *fiber.Ctx) error {
	list, err := s.scans.History(c.Context(), accountID(c))
	if err != nil {
		return fail(c, err)
	}

	out := make([]scanResp, 0, len(list))
	for _, scan := range list {
		out = append(out, toScanResp(scan))
	}

	return c.JSON(out)
}
