package main

import (
	"net/http"
)

func (app *application) routes() *http.ServeMux {
	mux := http.NewServeMux()

	var (
		base = func(next http.Handler) http.Handler {
			return app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
				commonContext(app.timeout(next)))))
		}
		session = func(next http.Handler) http.Handler {
			return app.recoverPanic(noCache(app.sessionManager.LoadAndSave(
				app.loadProfile(base(next)))))
		}
		mustProfile = func(next http.Handler) http.Handler {
			return session(app.mustProfile(next))
		}
	)

	mux.Handle("POST /api/profiles", session(http.HandlerFunc(app.profileCreatePOST)))
	mux.Handle("GET /api/profiles", session(http.HandlerFunc(app.profilesGET)))
	mux.Handle("POST /api/profiles/{id}/select", session(http.HandlerFunc(app.profileSelectPOST)))
	mux.Handle("GET /api/profile", mustProfile(http.HandlerFunc(app.profileGET)))
	mux.Handle("POST /api/profile/mode", mustProfile(http.HandlerFunc(app.profileModePOST)))
	mux.Handle("POST /api/profile/boundary-hour", mustProfile(http.HandlerFunc(app.profileBoundaryHourPOST)))

	mux.Handle("GET /api/today", mustProfile(http.HandlerFunc(app.todayGET)))
	mux.Handle("POST /api/today/change-day", mustProfile(http.HandlerFunc(app.todayChangeDayPOST)))
	mux.Handle("GET /api/preview", mustProfile(http.HandlerFunc(app.previewGET)))

	mux.Handle("POST /api/plans", mustProfile(http.HandlerFunc(app.planCreatePOST)))
	mux.Handle("GET /api/plans", mustProfile(http.HandlerFunc(app.plansGET)))
	mux.Handle("GET /api/plans/{planID}", mustProfile(http.HandlerFunc(app.planGET)))
	mux.Handle("POST /api/plans/{planID}/activate", mustProfile(http.HandlerFunc(app.planActivatePOST)))
	mux.Handle("POST /api/plans/{planID}/rename", mustProfile(http.HandlerFunc(app.planRenamePOST)))
	mux.Handle("DELETE /api/plans/{planID}", mustProfile(http.HandlerFunc(app.planDELETE)))
	mux.Handle("POST /api/plans/{planID}/days", mustProfile(http.HandlerFunc(app.planDayAddPOST)))
	mux.Handle("POST /api/plans/{planID}/days/{dayID}", mustProfile(http.HandlerFunc(app.planDayUpdatePOST)))
	mux.Handle("DELETE /api/plans/{planID}/days/{dayID}", mustProfile(http.HandlerFunc(app.planDayDELETE)))
	mux.Handle("POST /api/plans/{planID}/days/reorder", mustProfile(http.HandlerFunc(app.planDaysReorderPOST)))

	mux.Handle("POST /api/cycles", mustProfile(http.HandlerFunc(app.cycleCreatePOST)))
	mux.Handle("GET /api/cycles", mustProfile(http.HandlerFunc(app.cyclesGET)))
	mux.Handle("GET /api/cycles/{cycleID}", mustProfile(http.HandlerFunc(app.cycleGET)))
	mux.Handle("POST /api/cycles/{cycleID}/activate", mustProfile(http.HandlerFunc(app.cycleActivatePOST)))
	mux.Handle("DELETE /api/cycles/{cycleID}", mustProfile(http.HandlerFunc(app.cycleDELETE)))
	mux.Handle("POST /api/cycles/{cycleID}/items", mustProfile(http.HandlerFunc(app.cycleItemAddPOST)))
	mux.Handle("DELETE /api/cycles/{cycleID}/items/{itemID}", mustProfile(http.HandlerFunc(app.cycleItemDELETE)))
	mux.Handle("POST /api/cycles/{cycleID}/items/reorder", mustProfile(http.HandlerFunc(app.cycleItemsReorderPOST)))
	mux.Handle("POST /api/cycle/reset", mustProfile(http.HandlerFunc(app.cycleResetPOST)))

	mux.Handle("GET /api/records/{date}", mustProfile(http.HandlerFunc(app.recordGET)))
	mux.Handle("POST /api/records/{date}/complete", mustProfile(http.HandlerFunc(app.recordCompletePOST)))
	mux.Handle("POST /api/records/{date}/backfill", mustProfile(http.HandlerFunc(app.recordBackfillPOST)))
	mux.Handle("POST /api/records/{date}/sets", mustProfile(http.HandlerFunc(app.recordSetPOST)))

	mux.Handle("GET /api/healthy", session(http.HandlerFunc(app.healthy)))

	return mux
}
