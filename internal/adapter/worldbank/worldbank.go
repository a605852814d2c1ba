// Package worldbank reads the bulk CSV downloads of the World Bank
// indicators API.
package worldbank

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
)

// metadataLines precede the header row in every API_*.csv member.
const metadataLines = 4

// Client downloads indicator archives through a domain.Fetcher.
type Client struct {
	fetcher domain.Fetcher
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a World Bank client rooted at baseURL, e.g.
// https://api.worldbank.org/v2/en/indicator.
func NewClient(fetcher domain.Fetcher, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// IndicatorURL returns the CSV archive URL for an indicator code.
func (c *Client) IndicatorURL(code string) string {
	return fmt.Sprintf("%s/%s?downloadformat=csv", c.baseURL, url.PathEscape(code))
}

// Series downloads the archive for code and parses every country row.
func (c *Client) Series(ctx context.Context, code string) ([]domain.CountrySeries, error) {
	body, err := c.fetcher.Fetch(ctx, c.IndicatorURL(code))
	if err != nil {
		return nil, err
	}
	series, err := Parse(body, code)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("indicator parsed", "indicator", code, "countries", len(series))
	return series, nil
}

// Parse opens the indicator archive and decodes its data member.
func Parse(archive []byte, code string) ([]domain.CountrySeries, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("%w: indicator %s archive: %v", domain.ErrParse, code, err)
	}
	member, err := selectMember(zr.File, code)
	if err != nil {
		return nil, err
	}
	rc, err := member.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrParse, member.Name, err)
	}
	defer rc.Close()

	series, err := ParseCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", member.Name, err)
	}
	return series, nil
}

// selectMember picks the data file: API_<code>*.csv that is not a metadata file.
func selectMember(files []*zip.File, code string) (*zip.File, error) {
	prefix := "API_" + code
	for _, f := range files {
		name := f.Name
		if strings.HasPrefix(name, prefix) && !strings.Contains(name, "Metadata") && strings.HasSuffix(name, ".csv") {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: no data file for indicator %s in archive", domain.ErrParse, code)
}

// ParseCSV decodes the body of an API_*.csv member: four metadata lines, a
// header naming the country and indicator columns, then one column per year.
func ParseCSV(r io.Reader) ([]domain.CountrySeries, error) {
	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return nil, err
	}
	for i := 0; i < metadataLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("%w: truncated metadata block", domain.ErrParse)
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", domain.ErrParse, err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var out []domain.CountrySeries
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", domain.ErrParse, row, err)
		}
		s, err := cols.series(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		out = append(out, s)
	}
	return out, nil
}

type columns struct {
	countryName, countryCode, indicatorName, indicatorCode int
	years                                                  map[int]int // column index -> year
}

func mapHeader(header []string) (columns, error) {
	c := columns{countryName: -1, countryCode: -1, indicatorName: -1, indicatorCode: -1, years: map[int]int{}}
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch h {
		case "Country Name":
			c.countryName = i
		case "Country Code":
			c.countryCode = i
		case "Indicator Name":
			c.indicatorName = i
		case "Indicator Code":
			c.indicatorCode = i
		default:
			if len(h) == 4 {
				if y, err := strconv.Atoi(h); err == nil {
					c.years[i] = y
				}
			}
		}
	}
	if c.countryName < 0 || c.countryCode < 0 {
		return columns{}, fmt.Errorf("%w: header lacks Country Name/Country Code", domain.ErrParse)
	}
	return c, nil
}

func (c columns) series(rec []string) (domain.CountrySeries, error) {
	s := domain.CountrySeries{
		CountryName:   field(rec, c.countryName),
		CountryCode:   field(rec, c.countryCode),
		IndicatorName: field(rec, c.indicatorName),
		IndicatorCode: field(rec, c.indicatorCode),
		Values:        map[int]float64{},
	}
	for i, year := range c.years {
		raw := field(rec, i)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.CountrySeries{}, fmt.Errorf("%w: %s %d value %q", domain.ErrParse, s.CountryCode, year, raw)
		}
		s.Values[year] = v
	}
	return s, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func skipBOM(br *bufio.Reader) error {
	r, _, err := br.ReadRune()
	if err != nil {
		return fmt.Errorf("%w: empty file", domain.ErrParse)
	}
	if r != '\uFEFF' {
		return br.UnreadRune()
	}
	return nil
}
