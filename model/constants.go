package model

// SceneFileFormat is an enum type for recognized raster asset types
type SceneFileFormat string

// COG corresponds to cloud-optimized GeoTIFF assets
const COG SceneFileFormat = "cog"

// GeoTIFF corresponds to plain .TIF files with geospatial info
const GeoTIFF SceneFileFormat = "geotiff"

// STACTimeFormat is the layout used when writing datetimes back out
const STACTimeFormat = "2006-01-02T15:04:05.999999Z"
