package rotessa

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"

	"github.com/boddenberg/rotessa-go/internal/domain"
)

// ============================================================
// Endpoint manifest
// ============================================================

// ParamIn is where a parameter travels.
type ParamIn string

const (
	InPath  ParamIn = "path"
	InQuery ParamIn = "query"
	InBody  ParamIn = "body"
)

// ParamType is the declared wire type of a parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeDecimal ParamType = "decimal"
	TypeDate    ParamType = "date"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
)

// ParamSpec describes one path, query or body parameter.
type ParamSpec struct {
	Name     string
	In       ParamIn
	Type     ParamType
	Required bool
	Enum     []string
	Fields   []ParamSpec // object-typed params only
}

// EndpointSpec describes one provider endpoint.
type EndpointSpec struct {
	Name    string
	Method  string
	Path    string
	Params  []ParamSpec
	Returns bool // false when the endpoint legitimately answers with no body
}

// ParamsIn returns the params declared at the given location.
func (s EndpointSpec) ParamsIn(in ParamIn) []ParamSpec {
	var out []ParamSpec
	for _, p := range s.Params {
		if p.In == in {
			out = append(out, p)
		}
	}
	return out
}

var placeholderRE = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Placeholders returns the `{name}` tokens of a path template, in order.
func Placeholders(template string) []string {
	matches := placeholderRE.FindAllStringSubmatch(template, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

func enumOf[T ~string](values ...T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

var (
	idParam = ParamSpec{Name: "id", In: InPath, Type: TypeInteger, Required: true}

	addressFields = []ParamSpec{
		{Name: "address_1", Type: TypeString},
		{Name: "address_2", Type: TypeString},
		{Name: "city", Type: TypeString},
		{Name: "province_code", Type: TypeString},
		{Name: "postal_code", Type: TypeString},
	}

	customerBody = []ParamSpec{
		{Name: "custom_identifier", In: InBody, Type: TypeString},
		{Name: "name", In: InBody, Type: TypeString, Required: true},
		{Name: "email", In: InBody, Type: TypeString},
		{Name: "customer_type", In: InBody, Type: TypeString, Enum: enumOf(domain.CustomerPersonal, domain.CustomerBusiness)},
		{Name: "home_phone", In: InBody, Type: TypeString},
		{Name: "phone", In: InBody, Type: TypeString},
		{Name: "bank_name", In: InBody, Type: TypeString},
		{Name: "institution_number", In: InBody, Type: TypeString},
		{Name: "transit_number", In: InBody, Type: TypeString},
		{Name: "account_number", In: InBody, Type: TypeString},
		{Name: "routing_number", In: InBody, Type: TypeString},
		{Name: "bank_account_type", In: InBody, Type: TypeString, Enum: enumOf(domain.BankAccountSavings, domain.BankAccountChecking)},
		{Name: "authorization_type", In: InBody, Type: TypeString, Enum: enumOf(domain.AuthorizationInPerson, domain.AuthorizationOnline)},
		{Name: "address", In: InBody, Type: TypeObject, Fields: addressFields},
	}

	scheduleBody = []ParamSpec{
		{Name: "amount", In: InBody, Type: TypeDecimal, Required: true},
		{Name: "frequency", In: InBody, Type: TypeString, Required: true, Enum: enumOf(domain.Frequencies()...)},
		{Name: "process_date", In: InBody, Type: TypeDate, Required: true},
		{Name: "installments", In: InBody, Type: TypeInteger},
		{Name: "comment", In: InBody, Type: TypeString},
	}

	scheduleUpdateBody = []ParamSpec{
		{Name: "amount", In: InBody, Type: TypeDecimal},
		{Name: "comment", In: InBody, Type: TypeString},
	}

	statusEnum = enumOf(domain.TransactionStatuses()...)
)

func optional(params []ParamSpec) []ParamSpec {
	out := make([]ParamSpec, len(params))
	for i, p := range params {
		p.Required = false
		out[i] = p
	}
	return out
}

func with(head []ParamSpec, tail ...ParamSpec) []ParamSpec {
	out := make([]ParamSpec, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}

// Provider endpoints.
var (
	CustomersList = EndpointSpec{
		Name: "customers.list", Method: http.MethodGet, Path: "/customers", Returns: true,
	}
	CustomersGet = EndpointSpec{
		Name: "customers.get", Method: http.MethodGet, Path: "/customers/{id}", Returns: true,
		Params: []ParamSpec{idParam},
	}
	CustomersGetByCustomIdentifier = EndpointSpec{
		Name: "customers.getByCustomIdentifier", Method: http.MethodPost, Path: "/customers/show_with_custom_identifier", Returns: true,
		Params: []ParamSpec{{Name: "custom_identifier", In: InBody, Type: TypeString, Required: true}},
	}
	CustomersCreate = EndpointSpec{
		Name: "customers.create", Method: http.MethodPost, Path: "/customers", Returns: true,
		Params: customerBody,
	}
	CustomersUpdate = EndpointSpec{
		Name: "customers.update", Method: http.MethodPatch, Path: "/customers/{id}", Returns: true,
		Params: with([]ParamSpec{idParam}, optional(customerBody)...),
	}
	CustomersUpdateViaPost = EndpointSpec{
		Name: "customers.updateViaPost", Method: http.MethodPost, Path: "/customers/update_via_post", Returns: true,
		Params: with([]ParamSpec{{Name: "id", In: InBody, Type: TypeInteger, Required: true}}, optional(customerBody)...),
	}

	TransactionSchedulesGet = EndpointSpec{
		Name: "transactionSchedules.get", Method: http.MethodGet, Path: "/transaction_schedules/{id}", Returns: true,
		Params: []ParamSpec{idParam},
	}
	TransactionSchedulesCreate = EndpointSpec{
		Name: "transactionSchedules.create", Method: http.MethodPost, Path: "/transaction_schedules", Returns: true,
		Params: with([]ParamSpec{{Name: "customer_id", In: InBody, Type: TypeInteger, Required: true}}, scheduleBody...),
	}
	TransactionSchedulesCreateWithCustomIdentifier = EndpointSpec{
		Name: "transactionSchedules.createWithCustomIdentifier", Method: http.MethodPost, Path: "/transaction_schedules/create_with_custom_identifier", Returns: true,
		Params: with([]ParamSpec{{Name: "custom_identifier", In: InBody, Type: TypeString, Required: true}}, scheduleBody...),
	}
	TransactionSchedulesUpdate = EndpointSpec{
		Name: "transactionSchedules.update", Method: http.MethodPatch, Path: "/transaction_schedules/{id}", Returns: true,
		Params: with([]ParamSpec{idParam}, scheduleUpdateBody...),
	}
	TransactionSchedulesUpdateViaPost = EndpointSpec{
		Name: "transactionSchedules.updateViaPost", Method: http.MethodPost, Path: "/transaction_schedules/update_via_post", Returns: true,
		Params: with([]ParamSpec{{Name: "id", In: InBody, Type: TypeInteger, Required: true}}, scheduleUpdateBody...),
	}
	TransactionSchedulesDelete = EndpointSpec{
		Name: "transactionSchedules.delete", Method: http.MethodDelete, Path: "/transaction_schedules/{id}", Returns: false,
		Params: []ParamSpec{idParam},
	}

	TransactionReportList = EndpointSpec{
		Name: "transactionReport.list", Method: http.MethodGet, Path: "/transaction_report", Returns: true,
		Params: []ParamSpec{
			{Name: "start_date", In: InQuery, Type: TypeDate, Required: true},
			{Name: "end_date", In: InQuery, Type: TypeDate},
			{Name: "status", In: InQuery, Type: TypeString, Enum: statusEnum},
			{Name: "filter", In: InQuery, Type: TypeString, Enum: statusEnum},
			{Name: "page", In: InQuery, Type: TypeInteger},
		},
	}
)

// Manifest returns every supported endpoint.
func Manifest() []EndpointSpec {
	return []EndpointSpec{
		CustomersList,
		CustomersGet,
		CustomersGetByCustomIdentifier,
		CustomersCreate,
		CustomersUpdate,
		CustomersUpdateViaPost,
		TransactionSchedulesGet,
		TransactionSchedulesCreate,
		TransactionSchedulesCreateWithCustomIdentifier,
		TransactionSchedulesUpdate,
		TransactionSchedulesUpdateViaPost,
		TransactionSchedulesDelete,
		TransactionReportList,
	}
}

// ValidateManifest checks that every path placeholder is declared as a path
// param and vice versa, and that endpoint names are unique.
func ValidateManifest(specs []EndpointSpec) error {
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if seen[s.Name] {
			return fmt.Errorf("manifest: duplicate endpoint %q", s.Name)
		}
		seen[s.Name] = true

		switch s.Method {
		case http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete:
		default:
			return fmt.Errorf("manifest: %s: unsupported method %q", s.Name, s.Method)
		}

		placeholders := Placeholders(s.Path)
		declared := make([]string, 0)
		for _, p := range s.ParamsIn(InPath) {
			declared = append(declared, p.Name)
		}
		sort.Strings(placeholders)
		sort.Strings(declared)
		if fmt.Sprint(placeholders) != fmt.Sprint(declared) {
			return fmt.Errorf("manifest: %s: path %q placeholders %v do not match path params %v",
				s.Name, s.Path, placeholders, declared)
		}
	}
	return nil
}
