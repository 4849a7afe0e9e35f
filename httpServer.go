package main

import (
	"bytes"
	"image/png"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const statusPage = `<!DOCTYPE html>
<html>
<head><title>Snow Kiosk</title></head>
<body style="background:#111;color:#eee;font-family:monospace">
<h1>Snow Kiosk</h1>
<p><img src="/frame" width="640" style="image-rendering:pixelated"></p>
<p><a href="/snow">snow json</a></p>
<script>setInterval(()=>{document.querySelector("img").src="/frame?t="+Date.now()},2000)</script>
</body>
</html>`

// httpServer exposes the kiosk on :8081: the live panel frame, the current
// snow numbers, and a brightness control. Blocking; run in its own goroutine.
func httpServer(a *App) {
	app := fiber.New()

	app.Get("/", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/html")
		return c.SendString(statusPage)
	})

	app.Get("/frame", func(c *fiber.Ctx) error {
		frame := a.presenter.LastFrame()
		var buf bytes.Buffer
		if err := png.Encode(&buf, frame); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to encode image")
		}
		c.Set("Content-Type", "image/png")
		c.Set("Content-Length", strconv.Itoa(buf.Len()))
		return c.Send(buf.Bytes())
	})

	app.Get("/snow", func(c *fiber.Ctx) error {
		return c.JSON(a.Hill())
	})

	app.Post("/brightness", func(c *fiber.Ctx) error {
		var body struct {
			Index *int `json:"index"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid JSON")
		}
		if body.Index == nil {
			a.CycleBrightness()
		} else if *body.Index < 0 || *body.Index >= len(brightnessProfiles) {
			return c.Status(fiber.StatusBadRequest).SendString("Index out of range")
		} else {
			a.SetBrightnessProfile(*body.Index)
		}
		return c.JSON(fiber.Map{"profile": a.BrightnessName()})
	})

	// The external updater reports the newest release here; the update
	// screen compares it against the local VERSION file.
	app.Post("/version", func(c *fiber.Ctx) error {
		var body struct {
			Latest string `json:"latest"`
		}
		if err := c.BodyParser(&body); err != nil || body.Latest == "" {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid JSON")
		}
		a.SetLatestVersion(body.Latest)
		return c.JSON(fiber.Map{"current": getLocalVersion(), "latest": body.Latest})
	})

	port := ":8081"
	log.Println("Starting Fiber server on", port)
	log.Fatal(app.Listen(port))
}
