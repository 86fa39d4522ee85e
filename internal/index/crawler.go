package index

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Skywind5487/tnfsh-timetable-core/internal/models"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/config"
	appErrors "github.com/Skywind5487/tnfsh-timetable-core/pkg/errors"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/fetch"
)

// Crawler fetches and parses the upstream directory pages into a FullIndex.
type Crawler struct {
	client *fetch.Client
	cfg    config.UpstreamConfig
	logger *zap.Logger
}

// NewCrawler constructs an index crawler.
func NewCrawler(client *fetch.Client, cfg config.UpstreamConfig, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{client: client, cfg: cfg, logger: logger}
}

var (
	reLastUpdate = regexp.MustCompile(`\d{3,4}[./-]\d{1,2}[./-]\d{1,2}`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Fetch issues three concurrent GETs — the root page plus speculative
// fetches of the default teacher/class directory pages. The root's row
// scan is authoritative: when it points elsewhere, or when a speculative
// fetch failed, the directory page is re-fetched at the root-specified URL.
func (c *Crawler) Fetch(ctx context.Context) (*models.FullIndex, error) {
	var rootDoc, teacherDoc, classDoc *goquery.Document
	var teacherErr, classErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := c.client.Document(gctx, c.client.ResolveURL(c.cfg.RootPage), fetch.Backoff(4*time.Second, 10*time.Second, 3))
		rootDoc = doc
		return err
	})
	g.Go(func() error {
		teacherDoc, teacherErr = c.client.Document(gctx, c.client.ResolveURL(c.cfg.TeacherIndexPage), fetch.Backoff(4*time.Second, 10*time.Second, 3))
		return nil
	})
	g.Go(func() error {
		classDoc, classErr = c.client.Document(gctx, c.client.ResolveURL(c.cfg.ClassIndexPage), fetch.Backoff(4*time.Second, 10*time.Second, 3))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	teacherURL, classURL, lastUpdate := c.parseRoot(rootDoc)

	if teacherURL != "" && (teacherURL != c.cfg.TeacherIndexPage || teacherErr != nil) {
		c.logger.Info("re-fetching teacher directory at root-specified url", zap.String("url", teacherURL))
		teacherDoc, teacherErr = c.client.Document(ctx, c.client.ResolveURL(teacherURL), fetch.Backoff(4*time.Second, 10*time.Second, 3))
	}
	if teacherErr != nil {
		return nil, teacherErr
	}
	if classURL != "" && (classURL != c.cfg.ClassIndexPage || classErr != nil) {
		c.logger.Info("re-fetching class directory at root-specified url", zap.String("url", classURL))
		classDoc, classErr = c.client.Document(ctx, c.client.ResolveURL(classURL), fetch.Backoff(4*time.Second, 10*time.Second, 3))
	}
	if classErr != nil {
		return nil, classErr
	}

	idx := &models.FullIndex{
		LastUpdate: lastUpdate,
		Teacher:    parseDirectory(teacherDoc),
		Class:      parseDirectory(classDoc),
	}
	if len(idx.Teacher) == 0 || len(idx.Class) == 0 {
		return nil, appErrors.ErrValidation.With("directory pages yielded no categories; upstream layout may have changed")
	}
	idx.BuildViews()
	c.logger.Info("index fetched",
		zap.Int("teacher_categories", len(idx.Teacher)),
		zap.Int("class_categories", len(idx.Class)),
		zap.String("last_update", idx.LastUpdate))
	return idx, nil
}

// parseRoot scans the root page's table rows for the authoritative
// directory links and the site-wide last-update stamp.
func (c *Crawler) parseRoot(doc *goquery.Document) (teacherURL, classURL, lastUpdate string) {
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if lastUpdate == "" {
			if m := reLastUpdate.FindString(row.Text()); m != "" {
				lastUpdate = m
			}
		}
		row.Find("a").Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok {
				return
			}
			href = strings.TrimSpace(href)
			switch {
			case strings.Contains(href, "TeachIndex"):
				teacherURL = href
			case strings.Contains(href, "ClassIndex"):
				classURL = href
			}
		})
	})
	if teacherURL == "" || classURL == "" {
		c.logger.Warn("root page did not name both directory pages; keeping defaults",
			zap.String("teacher", teacherURL), zap.String("class", classURL))
	}
	return teacherURL, classURL, lastUpdate
}

// parseDirectory walks a directory page's rows. A row is a category header
// iff it contains a <span> and no <a>; link rows add entries under the
// current category.
func parseDirectory(doc *goquery.Document) models.CategoryMap {
	result := make(models.CategoryMap)
	category := ""

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find("a").Length() == 0 {
			if row.Find("span").Length() > 0 {
				if name := cleanText(row.Text()); name != "" {
					category = name
				}
			}
			return
		}
		if category == "" {
			return
		}
		row.Find("a").Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok {
				return
			}
			name := normalizeLinkText(a.Text())
			if name == "" || strings.TrimSpace(href) == "" {
				return
			}
			info := models.TargetInfo{Target: name, Category: category, URL: strings.TrimSpace(href)}
			if result[category] == nil {
				result[category] = make(map[string]models.TargetInfo)
			}
			result[category][info.ID()] = info
		})
	})
	return result
}

// normalizeLinkText prefers a CJK-only run; otherwise it strips whitespace
// and trims the legacy three-character upstream prefix off the front.
func normalizeLinkText(raw string) string {
	s := strings.ReplaceAll(raw, " ", "")
	s = reWhitespace.ReplaceAllString(s, "")
	if m := reHanRun.FindString(s); m != "" && len([]rune(m)) >= 2 {
		return m
	}
	runes := []rune(s)
	if len(runes) > 3 {
		return string(runes[3:])
	}
	return s
}

func cleanText(raw string) string {
	s := strings.ReplaceAll(raw, " ", "")
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}
