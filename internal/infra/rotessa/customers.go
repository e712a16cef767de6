package rotessa

import (
	"context"

	"github.com/boddenberg/rotessa-go/internal/domain"
)

// CustomersAPI wraps the /customers endpoints.
type CustomersAPI struct {
	list                  Endpoint[[]domain.Customer]
	get                   Endpoint[*domain.CustomerDetail]
	getByCustomIdentifier Endpoint[*domain.CustomerDetail]
	create                Endpoint[*domain.CustomerDetail]
	update                Endpoint[*domain.CustomerDetail]
	updateViaPost         Endpoint[*domain.CustomerDetail]
}

func newCustomersAPI(e *Executor) *CustomersAPI {
	return &CustomersAPI{
		list:                  Bind[[]domain.Customer](e, CustomersList),
		get:                   Bind[*domain.CustomerDetail](e, CustomersGet),
		getByCustomIdentifier: Bind[*domain.CustomerDetail](e, CustomersGetByCustomIdentifier),
		create:                Bind[*domain.CustomerDetail](e, CustomersCreate),
		update:                Bind[*domain.CustomerDetail](e, CustomersUpdate),
		updateViaPost:         Bind[*domain.CustomerDetail](e, CustomersUpdateViaPost),
	}
}

// List returns every customer.
func (a *CustomersAPI) List(ctx context.Context) ([]domain.Customer, error) {
	return a.list(ctx, Args{})
}

// Get returns one customer with banking details and nested activity.
func (a *CustomersAPI) Get(ctx context.Context, id int64) (*domain.CustomerDetail, error) {
	return a.get(ctx, Args{PathParams: idParams(id)})
}

// GetByCustomIdentifier looks a customer up by the caller's own identifier.
func (a *CustomersAPI) GetByCustomIdentifier(ctx context.Context, identifier string) (*domain.CustomerDetail, error) {
	return a.getByCustomIdentifier(ctx, Args{Body: map[string]string{"custom_identifier": identifier}})
}

// Create registers a new customer.
func (a *CustomersAPI) Create(ctx context.Context, in domain.CustomerCreate) (*domain.CustomerDetail, error) {
	return a.create(ctx, Args{Body: in})
}

// Update changes a customer through PATCH /customers/{id}.
func (a *CustomersAPI) Update(ctx context.Context, id int64, in domain.CustomerUpdate) (*domain.CustomerDetail, error) {
	return a.update(ctx, Args{PathParams: idParams(id), Body: in})
}

// UpdateViaPost changes a customer through POST /customers/update_via_post.
func (a *CustomersAPI) UpdateViaPost(ctx context.Context, in domain.CustomerUpdateViaPost) (*domain.CustomerDetail, error) {
	return a.updateViaPost(ctx, Args{Body: in})
}

// UpdateWith runs Update or UpdateViaPost as chosen by strategy. There is no
// fallback from one to the other.
func (a *CustomersAPI) UpdateWith(ctx context.Context, strategy domain.UpdateStrategy, id int64, in domain.CustomerUpdate) (*domain.CustomerDetail, error) {
	if strategy == domain.UpdateViaPost {
		return a.UpdateViaPost(ctx, domain.CustomerUpdateViaPost{ID: id, CustomerUpdate: in})
	}
	return a.Update(ctx, id, in)
}
