package listorders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/transport/http/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

type service interface {
	GetOrders(ctx context.Context, query order.QueryOrdersModel) ([]order.Order, error)
	GetOrphans(ctx context.Context, limit, offset int) ([]order.Order, error)
}

const defaultLimit = 50

var (
	decoder  = newDecoder()
	validate = validator.New()
)

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

type queryOrdersRequest struct {
	Ids      []string `schema:"ids"      validate:"dive,uuid"`
	StaffIds []string `schema:"staffIds" validate:"dive,uuid"`
	Limit    int      `schema:"limit"    validate:"gte=0,lte=500"`
	Offset   int      `schema:"offset"   validate:"gte=0"`
}

func (q *queryOrdersRequest) ToModel() order.QueryOrdersModel {
	limit := q.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	return order.QueryOrdersModel{
		Ids:      parseIDs(q.Ids),
		StaffIds: parseIDs(q.StaffIds),
		Limit:    limit,
		Offset:   q.Offset,
	}
}

// parseIDs expects ids that already passed validation.
func parseIDs(raw []string) []uuid.UUID {
	if len(raw) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		ids[i] = uuid.MustParse(s)
	}

	return ids
}

func decodeQuery(r *http.Request) (*queryOrdersRequest, error) {
	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		return nil, err
	}

	if err := validate.Struct(query); err != nil {
		return nil, err
	}

	return query, nil
}

// ListOrders returns settled orders with their items.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	query, err := decodeQuery(r)
	if err != nil {
		response.BadRequest(w, err)
		slog.Error("Error decoding request", "error", err)

		return
	}

	orders, err := service.GetOrders(r.Context(), query.ToModel())
	if err != nil {
		response.Fail(w, err)

		return
	}

	response.JSON(w, http.StatusOK, orders)
}

// ListOrphans returns orders that were stored without items.
func ListOrphans(w http.ResponseWriter, r *http.Request, service service) {
	query, err := decodeQuery(r)
	if err != nil {
		response.BadRequest(w, err)
		slog.Error("Error decoding request", "error", err)

		return
	}

	model := query.ToModel()
	orders, err := service.GetOrphans(r.Context(), model.Limit, model.Offset)
	if err != nil {
		response.Fail(w, err)

		return
	}

	response.JSON(w, http.StatusOK, orders)
}
