package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"altimpact.dev/item"
	"altimpact.dev/store"
)

// statusStillUpdating is the non-standard "accepted, still computing" poll
// status: 210 means the Progress Registry is still positive for this
// tiid, 200 means the payload is authoritative.
const statusStillUpdating = 210

// itemResponse wraps an item with the presentation-only currently_updating
// flag; this bit lives in the Progress Registry, not the stored document.
type itemResponse struct {
	*item.Item
	CurrentlyUpdating bool `json:"currently_updating"`
}

func (a *API) getItem(c echo.Context) error {
	tiid := c.Param("tiid")
	ctx := c.Request().Context()

	it, err := a.Store.GetItem(ctx, tiid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no such item")
		}
		a.Logger.WithField("tiid", tiid).WithError(err).Error("get item failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load item")
	}

	updating := false
	if n, ok, err := a.Registry.Get(ctx, tiid); err == nil && ok && n > 0 {
		updating = true
	}

	status := http.StatusOK
	if updating {
		status = statusStillUpdating
	}
	return c.JSON(status, itemResponse{Item: it, CurrentlyUpdating: updating})
}
