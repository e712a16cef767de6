package rotessa

import (
	"context"

	"github.com/boddenberg/rotessa-go/internal/domain"
)

// TransactionSchedulesAPI wraps the /transaction_schedules endpoints.
type TransactionSchedulesAPI struct {
	get                        Endpoint[*domain.TransactionSchedule]
	create                     Endpoint[*domain.TransactionSchedule]
	createWithCustomIdentifier Endpoint[*domain.TransactionSchedule]
	update                     Endpoint[*domain.TransactionSchedule]
	updateViaPost              Endpoint[*domain.TransactionSchedule]
	delete                     Endpoint[struct{}]
}

func newTransactionSchedulesAPI(e *Executor) *TransactionSchedulesAPI {
	return &TransactionSchedulesAPI{
		get:                        Bind[*domain.TransactionSchedule](e, TransactionSchedulesGet),
		create:                     Bind[*domain.TransactionSchedule](e, TransactionSchedulesCreate),
		createWithCustomIdentifier: Bind[*domain.TransactionSchedule](e, TransactionSchedulesCreateWithCustomIdentifier),
		update:                     Bind[*domain.TransactionSchedule](e, TransactionSchedulesUpdate),
		updateViaPost:              Bind[*domain.TransactionSchedule](e, TransactionSchedulesUpdateViaPost),
		delete:                     Bind[struct{}](e, TransactionSchedulesDelete),
	}
}

func (a *TransactionSchedulesAPI) Get(ctx context.Context, id int64) (*domain.TransactionSchedule, error) {
	return a.get(ctx, Args{PathParams: idParams(id)})
}

func (a *TransactionSchedulesAPI) Create(ctx context.Context, in domain.TransactionScheduleCreate) (*domain.TransactionSchedule, error) {
	return a.create(ctx, Args{Body: in})
}

func (a *TransactionSchedulesAPI) CreateWithCustomIdentifier(ctx context.Context, in domain.TransactionScheduleCreateWithCustomIdentifier) (*domain.TransactionSchedule, error) {
	return a.createWithCustomIdentifier(ctx, Args{Body: in})
}

// Update changes amount or comment through PATCH /transaction_schedules/{id}.
func (a *TransactionSchedulesAPI) Update(ctx context.Context, id int64, in domain.TransactionScheduleUpdate) (*domain.TransactionSchedule, error) {
	return a.update(ctx, Args{PathParams: idParams(id), Body: in})
}

// UpdateViaPost changes amount or comment through POST /transaction_schedules/update_via_post.
func (a *TransactionSchedulesAPI) UpdateViaPost(ctx context.Context, in domain.TransactionScheduleUpdateViaPost) (*domain.TransactionSchedule, error) {
	return a.updateViaPost(ctx, Args{Body: in})
}

// UpdateWith runs Update or UpdateViaPost as chosen by strategy.
func (a *TransactionSchedulesAPI) UpdateWith(ctx context.Context, strategy domain.UpdateStrategy, id int64, in domain.TransactionScheduleUpdate) (*domain.TransactionSchedule, error) {
	if strategy == domain.UpdateViaPost {
		return a.UpdateViaPost(ctx, domain.TransactionScheduleUpdateViaPost{ID: id, TransactionScheduleUpdate: in})
	}
	return a.Update(ctx, id, in)
}

// Delete removes a schedule. The provider answers with an empty body.
func (a *TransactionSchedulesAPI) Delete(ctx context.Context, id int64) error {
	_, err := a.delete(ctx, Args{PathParams: idParams(id)})
	return err
}
