package timetable

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
	appErrors "github.com/Skywind5487/tnfsh-timetable-core/pkg/errors"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/fetch"
)

const lunchMarker = "午休"

// Crawler fetches and parses one entity's weekly grid page.
type Crawler struct {
	client *fetch.Client
	logger *zap.Logger
}

// NewCrawler constructs a timetable crawler.
func NewCrawler(client *fetch.Client, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{client: client, logger: logger}
}

var (
	reClockPair = regexp.MustCompile(`^(\d{2})(\d{2})$`)
	reSpaces    = regexp.MustCompile(`[\s\x{00a0}]+`)
)

// Fetch downloads the target's grid page and parses it.
func (c *Crawler) Fetch(ctx context.Context, info models.TargetInfo) (*models.Timetable, error) {
	doc, err := c.client.Document(ctx, c.client.ResolveURL(info.URL), fetch.Backoff(time.Second, 10*time.Second, 3))
	if err != nil {
		return nil, err
	}
	t, err := c.Parse(doc, info)
	if err != nil {
		return nil, err
	}
	c.logger.Info("timetable fetched", zap.String("target", info.Target), zap.String("id", info.ID()))
	return t, nil
}

// Parse extracts the 5×N course matrix, the period clock and the
// lunch-break sidecar from a grid page. The upstream table is laid out one
// row per period with one cell per weekday; the result is transposed so
// indexing becomes [weekday][period].
func (c *Crawler) Parse(doc *goquery.Document, info models.TargetInfo) (*models.Timetable, error) {
	rows := findGridRows(doc)
	if len(rows) == 0 {
		return nil, appErrors.ErrFetch.Withf("no timetable grid found on page for %s", info.Target)
	}

	t := &models.Timetable{
		Target:     info.Target,
		Category:   info.Category,
		Role:       info.Role(),
		ID:         info.ID(),
		URL:        info.URL,
		LastUpdate: parseLastUpdate(doc),
	}

	var periodRows [][]*models.CourseInfo
	for _, cells := range rows {
		name, times, ok := parsePeriodCells(cells[0], cells[1])
		if !ok {
			c.logger.Warn("skipping grid row without a parsable period", zap.String("target", info.Target))
			continue
		}

		courses := make([]*models.CourseInfo, 0, 5)
		for _, cell := range cells[2:] {
			courses = append(courses, parseCourseCell(cell))
		}

		if strings.Contains(name, lunchMarker) {
			t.LunchBreak = courses
			t.LunchBreakPeriods = append(t.LunchBreakPeriods, models.Period{Name: name, Time: times})
			continue
		}

		t.Periods = append(t.Periods, models.Period{Name: name, Time: times})
		periodRows = append(periodRows, courses)
	}

	t.Table = transpose(periodRows)

	if err := t.Validate(); err != nil {
		return nil, appErrors.ErrValidation.With("parsed timetable violates grid invariants").Because(err)
	}
	return t, nil
}

// findGridRows returns the rows of the first table that has rows of exactly
// 7 cells once decorative merge cells (inline border style) are discarded;
// rows of any other width are skipped.
func findGridRows(doc *goquery.Document) [][]*goquery.Selection {
	var result [][]*goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var rows [][]*goquery.Selection
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			var cells []*goquery.Selection
			row.Find("td").Each(func(_ int, td *goquery.Selection) {
				if style, ok := td.Attr("style"); ok && strings.Contains(style, "border") {
					return
				}
				cells = append(cells, td)
			})
			if len(cells) == 7 {
				rows = append(rows, cells)
			}
		})
		if len(rows) > 0 {
			result = rows
			return false
		}
		return true
	})
	return result
}

// parsePeriodCells reads the period name and the "HHMM｜HHMM" time pair,
// normalising clock values to "HH:MM".
func parsePeriodCells(nameCell, timeCell *goquery.Selection) (string, models.TimeInfo, bool) {
	name := cleanCellText(nameCell.Text())
	raw := cleanCellText(timeCell.Text())
	parts := strings.Split(raw, "｜")
	if name == "" || len(parts) != 2 {
		return "", models.TimeInfo{}, false
	}
	return name, models.TimeInfo{Start: normalizeClock(parts[0]), End: normalizeClock(parts[1])}, true
}

func normalizeClock(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := reClockPair.FindStringSubmatch(raw); m != nil {
		return m[1] + ":" + m[2]
	}
	return raw
}

// parseCourseCell parses one grid cell. Every <p> containing an <a>
// contributes counterpart participants; every <p> without one contributes
// subject text. A cell with neither is a free period (nil).
func parseCourseCell(td *goquery.Selection) *models.CourseInfo {
	var counterparts []models.CounterPart
	var subjectParts []string

	td.Find("p").Each(func(_ int, p *goquery.Selection) {
		links := p.Find("a")
		if links.Length() > 0 {
			links.Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				name := cleanCellText(a.Text())
				if name != "" || href != "" {
					counterparts = append(counterparts, models.CounterPart{Participant: name, URL: href})
				}
			})
			return
		}
		if text := cleanCellText(p.Text()); text != "" {
			subjectParts = append(subjectParts, text)
		}
	})

	subject := strings.Join(subjectParts, "")
	if subject == "" && len(counterparts) == 0 {
		return nil
	}
	return &models.CourseInfo{Subject: subject, Counterpart: counterparts}
}

// parseLastUpdate extracts the update stamp from the centred paragraph
// above the grid.
func parseLastUpdate(doc *goquery.Document) string {
	last := "unknown"
	doc.Find(`p[align="center"]`).EachWithBreak(func(_ int, p *goquery.Selection) bool {
		spans := p.Find("span")
		if spans.Length() > 1 {
			if text := cleanCellText(spans.Eq(1).Text()); text != "" {
				last = text
				return false
			}
		}
		return true
	})
	return last
}

func transpose(periodRows [][]*models.CourseInfo) [][]*models.CourseInfo {
	table := make([][]*models.CourseInfo, 5)
	for w := range table {
		table[w] = make([]*models.CourseInfo, len(periodRows))
		for p, row := range periodRows {
			if w < len(row) {
				table[w][p] = row[w]
			}
		}
	}
	return table
}

func cleanCellText(raw string) string {
	s := strings.ReplaceAll(raw, " ", "")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}
