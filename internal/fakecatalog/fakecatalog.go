// Package fakecatalog serves an in-memory trust catalog over HTTP for tests.
// It implements the same routes as the real catalog on a loopback listener.
package fakecatalog

import (
	"encoding/json"
	"net"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/ortelius/pdvd-trust/model"
)

// Response is a canned reply that replaces the normal handler for a path
type Response struct {
	Status int
	Body   string
}

// Catalog is the data served by the fake. Keys are canonical PURL strings or CVE ids.
type Catalog struct {
	Packages        map[string]model.Package
	Refs            map[string]model.PackageRef
	Versions        map[string][]model.PackageRef
	Dependencies    map[string][]model.PackageRef
	Dependents      map[string][]model.PackageRef
	Vulnerabilities map[string]model.Vulnerability
	Overrides       map[string]Response
}

// Request is a request observed by the fake
type Request struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// Server is a running fake catalog
type Server struct {
	URL string

	app      *fiber.App
	catalog  *Catalog
	mu       sync.Mutex
	requests []Request
}

// Start serves the catalog on 127.0.0.1 until the test ends
func Start(t testing.TB, catalog *Catalog) *Server {
	t.Helper()
	if catalog == nil {
		catalog = &Catalog{}
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("fakecatalog: listen: %v", err)
	}

	s := &Server{
		URL:     "http://" + ln.Addr().String(),
		catalog: catalog,
	}
	s.app = s.newApp()

	go func() {
		_ = s.app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = s.app.Shutdown()
	})
	return s
}

// Requests returns the requests received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "fakecatalog",
		DisableStartupMessage: true,
		Immutable:             true,
	})

	app.Use(fiberrecover.New())
	app.Use(s.record)
	app.Use(s.override)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	api := app.Group("/api")
	api.Get("/package", s.getPackage)
	api.Post("/package", s.lookupBatch)
	api.Post("/package/versions", s.positional(s.catalog.Versions))
	api.Post("/package/dependencies", s.positional(s.catalog.Dependencies))
	api.Post("/package/dependents", s.positional(s.catalog.Dependents))
	api.Get("/vulnerability", s.getVulnerability)

	return app
}

func (s *Server) record(c *fiber.Ctx) error {
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: c.Method(),
		Path:   c.Path(),
		Query:  string(c.Request().URI().QueryString()),
		Body:   append([]byte(nil), c.Body()...),
	})
	s.mu.Unlock()
	return c.Next()
}

func (s *Server) override(c *fiber.Ctx) error {
	r, ok := s.catalog.Overrides[c.Path()]
	if !ok {
		return c.Next()
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(r.Status).SendString(r.Body)
}

func (s *Server) getPackage(c *fiber.Ctx) error {
	pkg, ok := s.catalog.Packages[c.Query("purl")]
	if !ok {
		return c.Status(fiber.StatusNotFound).SendString("package not found")
	}
	return c.JSON(pkg)
}

func (s *Server) lookupBatch(c *fiber.Ctx) error {
	var list []string
	if err := json.Unmarshal(c.Body(), &list); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	refs := make([]model.PackageRef, 0, len(list))
	for _, p := range list {
		if ref, ok := s.catalog.Refs[p]; ok {
			refs = append(refs, ref)
		}
	}
	return c.JSON(refs)
}

// positional answers one entry per requested identifier, in request order
func (s *Server) positional(data map[string][]model.PackageRef) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var list []string
		if err := json.Unmarshal(c.Body(), &list); err != nil {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}

		out := make([][]model.PackageRef, 0, len(list))
		for _, p := range list {
			refs := data[p]
			if refs == nil {
				refs = []model.PackageRef{}
			}
			out = append(out, refs)
		}
		return c.JSON(out)
	}
}

func (s *Server) getVulnerability(c *fiber.Ctx) error {
	vuln, ok := s.catalog.Vulnerabilities[c.Query("cve")]
	if !ok {
		return c.Status(fiber.StatusNotFound).SendString("vulnerability not found")
	}
	return c.JSON(vuln)
}
