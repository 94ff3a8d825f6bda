package stac

// MediaType describes an asset media type accepted by the API.
type MediaType struct {
	Mime        string
	Description string
	Extensions  string
}

// MediaTypes lists every accepted Asset media type.
var MediaTypes = []MediaType{
	{"application/x.ascii-grid+zip", "Zipped ESRI ASCII raster format (.asc)", ".zip"},
	{"application/x.ascii-xyz+zip", "Zipped XYZ (.xyz)", ".zip"},
	{"application/x.e00+zip", "Zipped e00", ".zip"},
	{"image/tiff; application=geotiff", "GeoTIFF", ".tiff or .tif"},
	{"application/x.geotiff+zip", "Zipped GeoTIFF", ".zip"},
	{"application/x.tiff+zip", "Zipped TIFF", ".zip"},
	{"application/x.png+zip", "Zipped PNG", ".zip"},
	{"application/x.jpeg+zip", "Zipped JPEG", ".zip"},
	{"application/vnd.google-earth.kml+xml", "KML", ".kml"},
	{"application/vnd.google-earth.kmz", "Zipped KML", ".kmz"},
	{"application/x.dxf+zip", "Zipped DXF", ".zip"},
	{"application/gml+xml", "GML", ".gml or .xml"},
	{"application/x.gml+zip", "Zipped GML", ".zip"},
	{"application/vnd.las", "LIDAR", ".las"},
	{"application/vnd.laszip", "Zipped LIDAR", ".laz or .zip"},
	{"application/x.shapefile+zip", "Zipped Shapefile", ".zip"},
	{"application/x.filegdb+zip", "Zipped File Geodatabase", ".zip"},
	{"application/x.ms-access+zip", "Zipped Personal Geodatabase", ".zip"},
	{"application/x.ms-excel+zip", "Zipped Excel", ".zip"},
	{"application/x.tab+zip", "Zipped Mapinfo-TAB", ".zip"},
	{"application/x.tab-raster+zip", "Zipped Mapinfo-Raster-TAB", ".zip"},
	{"application/x.csv+zip", "Zipped CSV", ".zip"},
	{"text/csv", "CSV", ".csv"},
	{"application/geopackage+sqlite3", "Geopackage", ".gpkg"},
	{"application/x.geopackage+zip", "Zipped Geopackage", ".zip"},
	{"application/geo+json", "GeoJSON", ".json or .geojson"},
	{"application/x.geojson+zip", "Zipped GeoJSON", ".zip"},
	{"application/x.interlis; version=2.3", "Interlis 2", ".xtf or .xml"},
	{"application/x.interlis+zip; version=2.3", "Zipped XTF (2.3)", ".zip"},
	{"application/x.interlis; version=1", "Interlis 1", ".itf"},
	{"application/x.interlis+zip; version=1", "Zipped ITF", ".zip"},
	{"image/tiff; application=geotiff; profile=cloud-optimized", "Cloud Optimized GeoTIFF (COG)", ".tiff or .tif"},
	{"application/pdf", "PDF", ".pdf"},
	{"application/x.pdf+zip", "Zipped PDF", ".zip"},
	{"application/json", "JSON", ".json"},
	{"application/x.json+zip", "Zipped JSON", ".zip"},
	{"application/x-netcdf", "NetCDF", ".nc"},
	{"application/x.netcdf+zip", "Zipped NetCDF", ".zip"},
	{"application/xml", "XML", ".xml"},
	{"application/x.xml+zip", "Zipped XML", ".zip"},
	{"application/vnd.mapbox-vector-tile", "mbtiles", "???"},
	{"text/plain", "Text", ".txt"},
	{"text/x.plain+zip", "Zipped text", ".zip"},
}

// IsMediaType reports whether mime is an accepted asset media type.
func IsMediaType(mime string) bool {
	for _, m := range MediaTypes {
		if m.Mime == mime {
			return true
		}
	}
	return false
}
