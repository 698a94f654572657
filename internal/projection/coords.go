package projection

import "math"

// ImageToGeo maps a source raster pixel to the geographic coordinate it
// represents under the equirectangular source convention.
func ImageToGeo(x, y float64, width, height int) (lon, lat float64) {
	lon = (x/float64(width) - 0.5) * 360
	lat = (0.5 - y/float64(height)) * 180
	return math.Max(-180, math.Min(180, lon)), math.Max(-90, math.Min(90, lat))
}

// GeoToImage maps a geographic coordinate to source raster pixel space,
// clamped to the valid pixel range.
func GeoToImage(lon, lat float64, width, height int) (x, y float64) {
	x = (lon/360 + 0.5) * float64(width)
	y = (0.5 - lat/180) * float64(height)
	return math.Max(0, math.Min(float64(width-1), x)), math.Max(0, math.Min(float64(height-1), y))
}

// ValidateCoordinates reports whether lon/lat lie in [-180,180]×[-90,90].
func ValidateCoordinates(lon, lat float64) bool {
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}
