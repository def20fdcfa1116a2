package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/image/colornames"

	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-drone-voronoi/pkg/region"
)

//go:embed scenario.schema.json
var scenarioSchema string

// DefaultServerColor is used when a server record has no usable colour.
var DefaultServerColor = colornames.Lightgray

type scenarioSchemas struct {
	root, server, drone *jsonschema.Schema
}

var loadScenarioSchemas = sync.OnceValues(func() (*scenarioSchemas, error) {
	const url = "scenario.schema.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, strings.NewReader(scenarioSchema)); err != nil {
		return nil, fmt.Errorf("failed to add scenario schema: %w", err)
	}
	var s scenarioSchemas
	var err error
	if s.root, err = c.Compile(url); err != nil {
		return nil, fmt.Errorf("failed to compile scenario schema: %w", err)
	}
	if s.server, err = c.Compile(url + "#/definitions/server"); err != nil {
		return nil, fmt.Errorf("failed to compile server schema: %w", err)
	}
	if s.drone, err = c.Compile(url + "#/definitions/drone"); err != nil {
		return nil, fmt.Errorf("failed to compile drone schema: %w", err)
	}
	return &s, nil
})

type serverRecord struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Color    string `json:"color"`
}

type droneRecord struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Server   string `json:"server"`
}

// DroneSpec is a validated drone record. Destination may name a server that
// does not exist; the session resolves it.
type DroneSpec struct {
	Name        string
	Position    geometry.Point2D
	Destination string
}

// Scenario is a parsed document. A nil slice means the collection was absent
// and the session keeps what it had.
type Scenario struct {
	Servers []region.Server
	Drones  []DroneSpec
	Report  LoadReport
}

// ReadScenario reads and parses a scenario file.
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDocument, err)
	}
	return ParseScenario(data)
}

// ParseScenario parses a scenario document. Only an empty or structurally
// invalid document is an error; bad records are skipped with a diagnostic.
func ParseScenario(data []byte) (*Scenario, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoDocument
	}
	schemas, err := loadScenarioSchemas()
	if err != nil {
		return nil, err
	}

	// 1. Structural check of the whole document
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := schemas.root.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	sc := &Scenario{}

	// 2. Servers
	if records, ok := sc.collection(root, "servers"); ok {
		sc.Servers = make([]region.Server, 0, len(records))
		for i, raw := range records {
			subject := fmt.Sprintf("servers[%d]", i)
			var rec serverRecord
			if !sc.decode(schemas.server, raw, &rec, subject) {
				continue
			}
			pos, err := geometry.ParsePoint(rec.Position)
			if err != nil {
				sc.Report.reject(KindInput, subject, "server %s skipped: %v", rec.Name, err)
				continue
			}
			clr := DefaultServerColor
			if rec.Color != "" {
				if c, err := ParseColor(rec.Color); err != nil {
					sc.Report.warn(KindInput, subject, "server %s: %v, using default colour", rec.Name, err)
				} else {
					clr = c
				}
			}
			sc.Servers = append(sc.Servers, region.Server{Name: rec.Name, Position: pos, Color: clr})
		}
	}

	// 3. Drones
	if records, ok := sc.collection(root, "drones"); ok {
		sc.Drones = make([]DroneSpec, 0, len(records))
		for i, raw := range records {
			subject := fmt.Sprintf("drones[%d]", i)
			var rec droneRecord
			if !sc.decode(schemas.drone, raw, &rec, subject) {
				continue
			}
			pos, err := geometry.ParsePoint(rec.Position)
			if err != nil {
				sc.Report.reject(KindInput, subject, "drone %s skipped: %v", rec.Name, err)
				continue
			}
			sc.Drones = append(sc.Drones, DroneSpec{Name: rec.Name, Position: pos, Destination: rec.Server})
		}
	}
	return sc, nil
}

// collection extracts a top level array, warning when it is absent or not an array.
func (sc *Scenario) collection(root map[string]json.RawMessage, key string) ([]json.RawMessage, bool) {
	raw, ok := root[key]
	if !ok {
		sc.Report.warn(KindInput, key, "no %q array in document", key)
		return nil, false
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		sc.Report.warn(KindInput, key, "%q is not an array", key)
		return nil, false
	}
	return records, true
}

// decode validates one record against its schema and unmarshals it into dst.
func (sc *Scenario) decode(sch *jsonschema.Schema, raw json.RawMessage, dst any, subject string) bool {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		sc.Report.reject(KindInput, subject, "undecodable record: %v", err)
		return false
	}
	if err := sch.Validate(v); err != nil {
		sc.Report.reject(KindValidation, subject, "record skipped: %v", err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		sc.Report.reject(KindInput, subject, "undecodable record: %v", err)
		return false
	}
	return true
}

// ParseColor accepts an SVG colour name or #rgb, #rrggbb, #aarrggbb.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("unknown colour %q", s)
	}
	hex := s[1:]
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("malformed colour %q", s)
	}
	switch len(hex) {
	case 3:
		r, g, b := uint8(n>>8&0xf), uint8(n>>4&0xf), uint8(n&0xf)
		return color.RGBA{R: r * 0x11, G: g * 0x11, B: b * 0x11, A: 0xff}, nil
	case 6:
		return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, nil
	case 8:
		return color.RGBA{A: uint8(n >> 24), R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
	}
	return color.RGBA{}, fmt.Errorf("malformed colour %q", s)
}
