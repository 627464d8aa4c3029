package main

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// adminOverviewHandler godoc
//
//	@Summary		Admin overview totals
//	@Description	Returns revenue, order, customer and product totals plus a twelve month sales chart.
//	@Tags			admin-dashboard
//	@Produce		json
//	@Param			year	query		int	false	"Sales chart year (default: current year)"
//	@Success		200		{object}	admindashboard.Overview
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/dashboard [get]
func (app *application) adminOverviewHandler(w http.ResponseWriter, r *http.Request) {
	year := time.Now().UTC().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 2000 || y > 9999 {
			app.badRequestResponse(w, r, errInvalidRequest("invalid year"))
			return
		}
		year = y
	}

	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	out, err := app.store.Dashboard.GetOverview(ctx, year)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, out)
}
