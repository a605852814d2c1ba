// Package geotifftest writes small GeoTIFF files for tests.
package geotifftest

import (
	"fmt"
	"strconv"

	"github.com/airbusgeo/godal"
)

// SampleType selects the band data type.
type SampleType int

const (
	Float32 SampleType = iota
	Uint16
	Int16
)

// Compression schemes.
const (
	None = iota
	LZW
	Deflate
)

// Options describes a single-band north-up raster. Values are row-major.
type Options struct {
	Width, Height int
	Values        []float64
	Type          SampleType
	OriginX       float64 // left edge
	OriginY       float64 // top edge
	PixelSize     float64 // 0 means 1
	EPSG          int     // 0 means 4326
	NoSRS         bool
	NoData        string // parsed with strconv.ParseFloat; empty means none
	Compression   int
	Predictor     int // 2 horizontal, 3 floating point
	Tiled         bool
}

// Write creates the GeoTIFF at path.
func Write(path string, opts Options) (err error) {
	if opts.Width <= 0 || opts.Height <= 0 || len(opts.Values) != opts.Width*opts.Height {
		return fmt.Errorf("geotifftest: %d values for %dx%d", len(opts.Values), opts.Width, opts.Height)
	}
	if opts.PixelSize == 0 {
		opts.PixelSize = 1
	}
	if opts.EPSG == 0 {
		opts.EPSG = 4326
	}
	godal.RegisterAll()

	dtype := godal.Float32
	switch opts.Type {
	case Uint16:
		dtype = godal.UInt16
	case Int16:
		dtype = godal.Int16
	}

	ds, err := godal.Create(godal.GTiff, path, 1, dtype, opts.Width, opts.Height, godal.CreationOption(creationOptions(opts)...))
	if err != nil {
		return fmt.Errorf("geotifftest: create %s: %w", path, err)
	}
	defer func() {
		if cerr := ds.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("geotifftest: close %s: %w", path, cerr)
		}
	}()

	gt := [6]float64{opts.OriginX, opts.PixelSize, 0, opts.OriginY, 0, -opts.PixelSize}
	if err := ds.SetGeoTransform(gt); err != nil {
		return fmt.Errorf("geotifftest: set geotransform: %w", err)
	}
	if !opts.NoSRS {
		sr, err := godal.NewSpatialRefFromEPSG(opts.EPSG)
		if err != nil {
			return fmt.Errorf("geotifftest: EPSG:%d: %w", opts.EPSG, err)
		}
		defer sr.Close()
		if err := ds.SetSpatialRef(sr); err != nil {
			return fmt.Errorf("geotifftest: set spatial reference: %w", err)
		}
	}

	band := ds.Bands()[0]
	if opts.NoData != "" {
		nd, err := strconv.ParseFloat(opts.NoData, 64)
		if err != nil {
			return fmt.Errorf("geotifftest: no-data %q: %w", opts.NoData, err)
		}
		if err := band.SetNoData(nd); err != nil {
			return fmt.Errorf("geotifftest: set no-data: %w", err)
		}
	}
	if err := band.Write(0, 0, opts.Values, opts.Width, opts.Height); err != nil {
		return fmt.Errorf("geotifftest: write band: %w", err)
	}
	return nil
}

func creationOptions(opts Options) []string {
	var co []string
	switch opts.Compression {
	case LZW:
		co = append(co, "COMPRESS=LZW")
	case Deflate:
		co = append(co, "COMPRESS=DEFLATE")
	}
	if opts.Predictor > 1 {
		co = append(co, "PREDICTOR="+strconv.Itoa(opts.Predictor))
	}
	if opts.Tiled {
		co = append(co, "TILED=YES", "BLOCKXSIZE=16", "BLOCKYSIZE=16")
	}
	return co
}
