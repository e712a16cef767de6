package handler

import (
	"net/http"
	"strconv"

	"github.com/boddenberg/rotessa-go/internal/domain"
	"github.com/boddenberg/rotessa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Transaction schedules
// ============================================================

func getScheduleHandler(svc *service.Billing, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transaction-schedules/{scheduleId}")
		defer span.End()

		id, err := pathID(r, "scheduleId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		schedule, err := svc.GetSchedule(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, schedule)
	}
}

func createScheduleHandler(svc *service.Billing, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transaction-schedules")
		defer span.End()

		var req domain.ScheduleRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		schedule, err := svc.CreateSchedule(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		logger.Info("transaction schedule created",
			zap.Int64("schedule_id", schedule.ID),
			zap.String("amount", schedule.Amount.String()),
		)
		writeJSON(w, http.StatusCreated, schedule)
	}
}

func updateScheduleHandler(svc *service.Billing, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/transaction-schedules/{scheduleId}")
		defer span.End()

		id, err := pathID(r, "scheduleId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		strategy, err := domain.ParseUpdateStrategy(r.URL.Query().Get("strategy"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		var req domain.TransactionScheduleUpdate
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		schedule, err := svc.UpdateSchedule(ctx, strategy, id, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, schedule)
	}
}

func deleteScheduleHandler(svc *service.Billing, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transaction-schedules/{scheduleId}")
		defer span.End()

		id, err := pathID(r, "scheduleId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := svc.DeleteSchedule(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Transaction report
// ============================================================

func transactionReportHandler(svc *service.Billing, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transaction-report")
		defer span.End()

		q := r.URL.Query()
		query := domain.ReportQuery{
			StartDate: q.Get("start_date"),
			EndDate:   q.Get("end_date"),
			Status:    domain.TransactionStatus(q.Get("status")),
			Filter:    domain.TransactionStatus(q.Get("filter")),
		}
		if v := q.Get("page"); v != "" {
			page, err := strconv.Atoi(v)
			if err != nil {
				handleServiceError(w, &domain.ErrValidation{Field: "page", Message: "must be an integer"}, logger)
				return
			}
			query.Page = page
		}

		rows, err := svc.Report(ctx, query)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.TransactionReportItem]{
			Data:  rows,
			Total: len(rows),
			Page:  query.Page,
		})
	}
}
