package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"browserless-relay/internal/domain"
	"browserless-relay/internal/http/middleware"
	"browserless-relay/internal/infra/browserless"
	"browserless-relay/internal/infra/logging"
)

// Renderer is the outbound side of the relay.
type Renderer interface {
	Screenshot(ctx context.Context, url string, opts browserless.ScreenshotOptions) ([]byte, error)
	PDF(ctx context.Context, url string, opts browserless.PDFOptions) ([]byte, error)
}

// RenderService maps query strings onto render calls and render outcomes onto
// HTTP responses.
type RenderService struct {
	Renderer Renderer
}

// NewRenderService creates a new RenderService instance.
func NewRenderService(r Renderer) *RenderService {
	return &RenderService{Renderer: r}
}

// HandleScreenshot renders the url query parameter as a PNG.
func (svc *RenderService) HandleScreenshot(c *fiber.Ctx) error {
	target, opts, err := validateAndExtractScreenshotParams(c)
	if err != nil {
		return err
	}
	payload, err := svc.Renderer.Screenshot(c.UserContext(), target, opts)
	return respond(c, domain.KindScreenshot, target, payload, err)
}

// HandlePDF renders the url query parameter as a PDF document.
func (svc *RenderService) HandlePDF(c *fiber.Ctx) error {
	target, opts, err := validateAndExtractPDFParams(c)
	if err != nil {
		return err
	}
	payload, err := svc.Renderer.PDF(c.UserContext(), target, opts)
	return respond(c, domain.KindPDF, target, payload, err)
}

func respond(c *fiber.Ctx, kind domain.Kind, target string, payload []byte, err error) error {
	if err != nil {
		return renderFailure(c, kind, target, err)
	}
	c.Set(fiber.HeaderContentType, kind.ContentType())
	return c.Status(fiber.StatusOK).Send(payload)
}

// renderFailure is the single place where failed render calls are logged.
// The returned error carries no upstream body and no token.
func renderFailure(c *fiber.Ctx, kind domain.Kind, target string, err error) error {
	requestID := middleware.RequestID(c)

	var upErr *browserless.UpstreamError
	if errors.As(err, &upErr) && upErr.StatusCode != 0 {
		logging.Error("Rendering service returned an error",
			"endpoint", string(kind),
			"url", target,
			"status", upErr.StatusCode,
			"body", upErr.Body,
			"request_id", requestID,
		)
		return fiber.NewError(fiber.StatusBadGateway,
			fmt.Sprintf("Rendering service returned status %d", upErr.StatusCode))
	}

	logging.Error("Rendering request failed",
		"endpoint", string(kind),
		"url", target,
		"error", err,
		"request_id", requestID,
	)

	switch {
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "Rendering service timed out")
	case errors.Is(err, domain.ErrResponseTooLarge):
		return fiber.NewError(fiber.StatusBadGateway, "Rendered output exceeds the allowed size")
	case errors.Is(err, domain.ErrUpstreamTransport):
		return fiber.NewError(fiber.StatusBadGateway, "Rendering service unreachable")
	default:
		return fiber.NewError(fiber.StatusBadGateway, "Rendering failed")
	}
}

// validateAndExtractScreenshotParams validates query parameters for a screenshot.
func validateAndExtractScreenshotParams(c *fiber.Ctx) (string, browserless.ScreenshotOptions, error) {
	opts := browserless.DefaultScreenshotOptions()

	target, err := requireURL(c)
	if err != nil {
		return "", opts, err
	}

	if opts.FullPage, err = queryBool(c, "fullPage", opts.FullPage); err != nil {
		return "", opts, err
	}
	if opts.Width, err = queryPositiveInt(c, "width"); err != nil {
		return "", opts, err
	}
	if opts.Height, err = queryPositiveInt(c, "height"); err != nil {
		return "", opts, err
	}
	if opts.WaitForTimeout, err = queryNonNegativeInt(c, "waitForTimeout", opts.WaitForTimeout); err != nil {
		return "", opts, err
	}
	opts.WaitUntil = utils.CopyString(c.Query("waitUntil", opts.WaitUntil))

	return target, opts, nil
}

// validateAndExtractPDFParams validates query parameters for a PDF.
func validateAndExtractPDFParams(c *fiber.Ctx) (string, browserless.PDFOptions, error) {
	opts := browserless.DefaultPDFOptions()

	target, err := requireURL(c)
	if err != nil {
		return "", opts, err
	}

	if opts.Landscape, err = queryBool(c, "landscape", opts.Landscape); err != nil {
		return "", opts, err
	}
	if opts.DisplayHeaderFooter, err = queryBool(c, "displayHeaderFooter", opts.DisplayHeaderFooter); err != nil {
		return "", opts, err
	}
	if opts.PrintBackground, err = queryBool(c, "printBackground", opts.PrintBackground); err != nil {
		return "", opts, err
	}
	if opts.SinglePage, err = queryBool(c, "singlePage", opts.SinglePage); err != nil {
		return "", opts, err
	}
	if opts.Scale, err = queryScale(c, "scale", opts.Scale); err != nil {
		return "", opts, err
	}
	if opts.WaitForTimeout, err = queryNonNegativeInt(c, "waitForTimeout", opts.WaitForTimeout); err != nil {
		return "", opts, err
	}
	opts.WaitUntil = utils.CopyString(c.Query("waitUntil", opts.WaitUntil))

	return target, opts, nil
}

// requireURL returns the url parameter verbatim; it is not checked for scheme or format.
// Query values alias the request buffer, so the result is copied.
func requireURL(c *fiber.Ctx) (string, error) {
	target := utils.CopyString(c.Query("url"))
	if target == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid URL: missing")
	}
	return target, nil
}

func invalidParam(name, want string) error {
	return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid %s: must be %s", name, want))
}

func queryBool(c *fiber.Ctx, name string, def bool) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, invalidParam(name, "a boolean")
	}
	return v, nil
}

// queryPositiveInt returns nil when the parameter is absent.
func queryPositiveInt(c *fiber.Ctx, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return nil, invalidParam(name, "a positive integer")
	}
	return &v, nil
}

func queryNonNegativeInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def, invalidParam(name, "a non-negative integer")
	}
	return v, nil
}

func queryScale(c *fiber.Ctx, name string, def float64) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return def, invalidParam(name, "a positive number")
	}
	return v, nil
}
