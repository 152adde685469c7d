package model

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// RGBA returns the color as a CZML rgba array.
func (c Color) RGBA() []int {
	return []int{int(c.R), int(c.G), int(c.B), int(c.A)}
}

// DefaultColor is used for vehicle classes missing from the color table.
var DefaultColor = Color{255, 255, 255, 255} // white

// defaultColors maps SUMO vehicle classes to point colors.
var defaultColors = map[string]Color{
	"passenger":     {0, 0, 255, 255},     // blue
	"bicycle":       {255, 255, 0, 255},   // yellow
	"pedestrian":    {0, 128, 0, 255},     // green
	"person":        {34, 139, 34, 255},   // forestgreen
	"truck":         {255, 0, 0, 255},     // red
	"trailer":       {255, 128, 114, 255}, // salmon
	"bus":           {148, 0, 211, 255},   // darkviolet
	"coach":         {75, 0, 130, 255},    // indigo
	"moped":         {255, 140, 0, 255},   // darkorange
	"motorcycle":    {128, 0, 0, 255},     // maroon
	"taxi":          {255, 215, 0, 255},   // goldenrod
	"emergency":     {220, 20, 60, 255},   // crimson
	"delivery":      {0, 255, 255, 255},   // aqua
	"tram":          {106, 90, 205, 255},  // slateblue
	"rail_urban":    {65, 105, 225, 255},  // royalblue
	"rail_electric": {144, 238, 144, 255}, // lightgreen
	"rail":          {0, 0, 139, 255},     // darkblue
	"evehicle":      {128, 128, 0, 255},   // olive
	"e-scooter":     {152, 251, 152, 255}, // palegreen
	"ship":          {0, 0, 0, 255},       // black
}

// DefaultModelURI is used for vehicle classes without a glTF asset.
const DefaultModelURI = "./3Dmodels/notavailable.glb"

var defaultModels = map[string]string{
	"passenger":  "./3Dmodels/CesiumMilkTruck.glb",
	"pedestrian": "./3Dmodels/Cesium_Man.glb",
}

// DefaultModelTypes is the allow-list of the 3D-model document: classes
// outside it are dropped before orientation is solved.
var DefaultModelTypes = []string{"passenger", "pedestrian"}

// Appearance resolves per-class display properties. Overrides take
// precedence over the built-in tables.
type Appearance struct {
	Colors map[string]Color
	Models map[string]string
}

// ColorFor returns the point color for a vehicle class.
func (a Appearance) ColorFor(vehicleType string) Color {
	if c, ok := a.Colors[vehicleType]; ok {
		return c
	}
	return ColorForType(vehicleType)
}

// ModelFor returns the glTF link for a vehicle class.
func (a Appearance) ModelFor(vehicleType string) string {
	if m, ok := a.Models[vehicleType]; ok {
		return m
	}
	return ModelForType(vehicleType)
}

// ColorForType returns the built-in point color for a vehicle class.
func ColorForType(vehicleType string) Color {
	if c, ok := defaultColors[vehicleType]; ok {
		return c
	}
	return DefaultColor
}

// ModelForType returns the built-in glTF link for a vehicle class.
func ModelForType(vehicleType string) string {
	if m, ok := defaultModels[vehicleType]; ok {
		return m
	}
	return DefaultModelURI
}
