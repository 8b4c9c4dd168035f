package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"altimpact.dev/item"
	"altimpact.dev/store"
)

// getOrCreateItem coalesces onto an existing item carrying (ns, nid) among
// its aliases, or admits a brand-new one (invariant 2, scenario S3).
func (a *API) getOrCreateItem(ctx context.Context, ns, nid string) (string, error) {
	canon := item.CanonicalNamespace(ns)
	if tiid, ok, err := a.Store.FindTIIDByAlias(ctx, canon, nid); err != nil {
		return "", err
	} else if ok {
		return tiid, nil
	}

	tiid, err := item.NewTIID()
	if err != nil {
		return "", err
	}
	it := item.NewItem(tiid, []item.Alias{{Namespace: canon, ID: nid}})
	if err := a.Store.CreateItem(ctx, it); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Lost a race against another admission of the same tiid
			// (vanishingly unlikely given 96 bits of randomness); fall
			// back to whatever alias lookup now resolves.
			if tiid, ok, ferr := a.Store.FindTIIDByAlias(ctx, canon, nid); ferr == nil && ok {
				return tiid, nil
			}
		}
		return "", err
	}
	return tiid, nil
}

func (a *API) createItem(c echo.Context) error {
	ns := item.CleanID(c.Param("ns"))
	nid := item.CleanID(c.Param("nid"))
	if ns == "" || nid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "namespace and id are required")
	}

	tiid, err := a.getOrCreateItem(c.Request().Context(), ns, nid)
	if err != nil {
		a.Logger.WithError(err).Error("create item failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create item")
	}
	return c.JSON(http.StatusCreated, map[string]string{"tiid": tiid})
}

func (a *API) createItems(c echo.Context) error {
	var pairs [][2]string
	if err := c.Bind(&pairs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body must be [[namespace,id],...]")
	}

	tiids := make([]string, len(pairs))
	for i, pair := range pairs {
		ns := item.CleanID(pair[0])
		nid := item.CleanID(pair[1])
		if ns == "" || nid == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "every pair needs a namespace and id")
		}
		tiid, err := a.getOrCreateItem(c.Request().Context(), ns, nid)
		if err != nil {
			a.Logger.WithError(err).Error("bulk create item failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "could not create items")
		}
		tiids[i] = tiid
	}
	return c.JSON(http.StatusCreated, tiids)
}

func (a *API) lookupTIID(c echo.Context) error {
	ns := item.CanonicalNamespace(item.CleanID(c.Param("ns")))
	nid := item.CleanID(c.Param("nid"))

	tiid, ok, err := a.Store.FindTIIDByAlias(c.Request().Context(), ns, nid)
	if err != nil {
		a.Logger.WithError(err).Error("tiid lookup failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no item carries that alias")
	}
	return c.Redirect(http.StatusSeeOther, "/item/"+tiid)
}
