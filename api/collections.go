package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"altimpact.dev/item"
	"altimpact.dev/store"
)

type createCollectionRequest struct {
	Items []string `json:"items"`
	Title string   `json:"title"`
}

func (a *API) createCollection(c echo.Context) error {
	var req createCollectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body must be {items:[tiid,...], title}")
	}
	if len(req.Items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "items must not be empty")
	}

	cid, err := item.NewCollectionID()
	if err != nil {
		a.Logger.WithError(err).Error("generate collection id failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create collection")
	}
	col := item.NewCollection(cid, req.Title, req.Items, c.RealIP())
	if u, ok := UserFromContext(c); ok {
		col.OwnerAPIKey = u.APIKey
	}
	if err := a.Store.CreateCollection(c.Request().Context(), col); err != nil {
		a.Logger.WithError(err).Error("create collection failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create collection")
	}
	return c.JSON(http.StatusCreated, col)
}

// cidAndFormat splits a ":cid" path param such as "ab12cd.csv" into the bare
// id and the requested export format ("json" by default).
func cidAndFormat(raw string) (cid, format string) {
	if idx := strings.LastIndex(raw, "."); idx > 0 {
		ext := raw[idx+1:]
		if ext == "csv" || ext == "json" {
			return raw[:idx], ext
		}
	}
	return raw, "json"
}

type collectionResponse struct {
	*item.Collection
	Items             []*item.Item `json:"item_details"`
	CurrentlyUpdating bool         `json:"currently_updating"`
}

func (a *API) loadCollectionItems(c echo.Context, col *item.Collection) ([]*item.Item, bool, error) {
	ctx := c.Request().Context()
	items := make([]*item.Item, 0, len(col.TIIDs))
	updating := false
	for _, tiid := range col.TIIDs {
		it, err := a.Store.GetItem(ctx, tiid)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, false, err
		}
		items = append(items, it)
		if n, ok, err := a.Registry.Get(ctx, tiid); err == nil && ok && n > 0 {
			updating = true
		}
	}
	return items, updating, nil
}

func (a *API) getCollection(c echo.Context) error {
	cid, format := cidAndFormat(c.Param("cid"))
	ctx := c.Request().Context()

	col, err := a.Store.GetCollection(ctx, cid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no such collection")
		}
		a.Logger.WithError(err).Error("get collection failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load collection")
	}

	items, updating, err := a.loadCollectionItems(c, col)
	if err != nil {
		a.Logger.WithError(err).Error("load collection items failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load collection items")
	}

	if format == "csv" {
		return writeCollectionCSV(c, col, items)
	}

	status := http.StatusOK
	if updating {
		status = statusStillUpdating
	}
	return c.JSON(status, collectionResponse{Collection: col, Items: items, CurrentlyUpdating: updating})
}

// writeCollectionCSV flattens each item's metrics into one column per
// metric name, sorted for deterministic column order across exports.
func writeCollectionCSV(c echo.Context, col *item.Collection, items []*item.Item) error {
	metricNames := map[string]bool{}
	for _, it := range items {
		for name := range it.Metrics {
			metricNames[name] = true
		}
	}
	columns := make([]string, 0, len(metricNames))
	for name := range metricNames {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, col.CID))
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	header := append([]string{"tiid", "title"}, columns...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, it := range items {
		row := make([]string, 0, len(header))
		row = append(row, it.TIID, biblioTitle(it))
		for _, name := range columns {
			if rec, ok := it.Metrics[name]; ok {
				row = append(row, strconv.FormatFloat(rec.Values.Raw, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func biblioTitle(it *item.Item) string {
	if title, ok := it.Biblio["title"].(string); ok {
		return title
	}
	return ""
}

// resubmitCollection re-admits every member item for a fresh pipeline pass
// by setting their needs_aliases marker again; the Orchestrator's
// poll loop picks them up the same way it does newly-created items. It also
// clears each item's completed-provider tracking immediately, so a reader
// who fetches the item before the next admission tick doesn't see it
// reported done for providers that are actually about to be re-run (the
// Orchestrator clears this too on admission, but doing it here as well
// keeps the item's visible state consistent the instant a resubmit lands).
func (a *API) resubmitCollection(c echo.Context) error {
	cid, _ := cidAndFormat(c.Param("cid"))
	ctx := c.Request().Context()

	col, err := a.Store.GetCollection(ctx, cid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no such collection")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load collection")
	}

	for _, tiid := range col.TIIDs {
		it, err := a.Store.GetItem(ctx, tiid)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			a.Logger.WithField("tiid", tiid).WithError(err).Error("resubmit: load item failed")
			continue
		}
		now := time.Now().UTC()
		it.NeedsAliases = &now
		it.Completed = nil
		it.Touch()
		if err := a.Store.SaveItem(ctx, it); err != nil {
			a.Logger.WithField("tiid", tiid).WithError(err).Error("resubmit: save item failed")
		}
	}
	return c.JSON(http.StatusOK, col)
}
