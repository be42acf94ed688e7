package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/shipbridge/internal/domain/order"
	"github.com/xenking/shipbridge/internal/domain/shipping"
)

const orderColumns = `id, shipping_method, shipping_address, selected_rate, currency,
	subtotal, total, shipping_cost, notes, shipping_status,
	COALESCE(shipment_id, ''), shipping_note, updated_at`

const (
	getOrderSQL            = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	getOrderByShipmentSQL  = `SELECT ` + orderColumns + ` FROM orders WHERE shipment_id = $1`
	listOrdersByStatusSQL  = `SELECT ` + orderColumns + ` FROM orders WHERE shipping_status = $1 ORDER BY updated_at DESC LIMIT $2`
	listOrderItemsSQL      = `SELECT product_id, variant_id, product_title, variant_title, sku, quantity, weight_value, weight_unit, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY position`
	updateOrderShippingSQL = `UPDATE orders SET
		shipping_status = $2,
		shipment_id = COALESCE(NULLIF($3, ''), shipment_id),
		shipping_note = $4,
		updated_at = NOW()
		WHERE id = $1 AND COALESCE(NULLIF(shipping_status, ''), 'pending') = $5`
	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
	insertOrderSQL = `INSERT INTO orders (id, shipping_method, shipping_address, selected_rate, currency,
		subtotal, total, shipping_cost, notes, shipping_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	insertOrderItemSQL = `INSERT INTO order_items (order_id, position, product_id, variant_id, product_title,
		variant_title, sku, quantity, weight_value, weight_unit, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

type selectedRateJSON struct {
	CarrierID   string `json:"carrier_id"`
	ServiceCode string `json:"service_code"`
	Cost        *int64 `json:"cost,omitempty"`
}

// Get loads an order with its line items.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	return r.getOne(ctx, getOrderSQL, id)
}

// FindByShipmentID loads the order that owns a provider shipment.
func (r *OrderRepository) FindByShipmentID(ctx context.Context, shipmentID string) (*order.Order, error) {
	return r.getOne(ctx, getOrderByShipmentSQL, shipmentID)
}

// ListByShippingStatus returns up to limit orders in the given status,
// most recently updated first. Line items are not loaded.
func (r *OrderRepository) ListByShippingStatus(ctx context.Context, status shipping.Status, limit int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByStatusSQL, string(status), limit)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}
	return orders, nil
}

// UpdateShipping persists a shipping status change if the stored status is
// still upd.From (an empty status counts as pending). An empty ShipmentID
// keeps the stored one.
func (r *OrderRepository) UpdateShipping(ctx context.Context, id string, upd order.ShippingUpdate) error {
	tag, err := r.pool.Exec(ctx, updateOrderShippingSQL,
		id, string(upd.Status), upd.ShipmentID, upd.Note, string(upd.From.OrPending()))
	if err != nil {
		return errors.Wrapf(err, "update shipping for order %q", id)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, orderExistsSQL, id).Scan(&exists); err != nil {
		return errors.Wrapf(err, "check order %q", id)
	}
	if !exists {
		return errors.Wrapf(order.ErrNotFound, "order %q", id)
	}
	return errors.Wrapf(order.ErrStatusConflict, "order %q expected %s", id, upd.From.OrPending())
}

// Create inserts an order and its line items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	var address, rate []byte
	if o.ShippingAddress != nil {
		b, err := json.Marshal(o.ShippingAddress)
		if err != nil {
			return errors.Wrap(err, "marshal shipping address")
		}
		address = b
	}
	if sr := o.SelectedRate; sr != nil {
		b, err := json.Marshal(selectedRateJSON{CarrierID: sr.CarrierID, ServiceCode: sr.ServiceCode, Cost: sr.Cost})
		if err != nil {
			return errors.Wrap(err, "marshal selected rate")
		}
		rate = b
	}
	currency := o.Currency
	if currency == "" {
		currency = shipping.DefaultCurrency
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertOrderSQL,
			o.ID, string(o.ShippingMethod), address, rate, currency,
			o.Subtotal, o.Total, o.ShippingCost, o.Notes, string(o.ShippingStatus.OrPending()),
		); err != nil {
			return errors.Wrapf(err, "insert order %q", o.ID)
		}
		for i, li := range o.Items {
			var (
				weight decimal.NullDecimal
				unit   *string
			)
			if li.Weight != nil {
				weight = decimal.NewNullDecimal(decimal.NewFromFloat(li.Weight.Value))
				u := string(li.Weight.Unit)
				unit = &u
			}
			if _, err := tx.Exec(ctx, insertOrderItemSQL,
				o.ID, i, li.ProductID, li.VariantID, li.ProductTitle, li.VariantTitle, li.SKU,
				li.Quantity, weight, unit, li.UnitPrice,
			); err != nil {
				return errors.Wrapf(err, "insert item %d of order %q", i, o.ID)
			}
		}
		return nil
	})
}

func (r *OrderRepository) getOne(ctx context.Context, query, arg string) (*order.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	items, err := r.items(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepository) items(ctx context.Context, orderID string) ([]order.LineItem, error) {
	rows, err := r.pool.Query(ctx, listOrderItemsSQL, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "query items of order %q", orderID)
	}
	defer rows.Close()

	var items []order.LineItem
	for rows.Next() {
		var (
			li     order.LineItem
			weight decimal.NullDecimal
			unit   *string
		)
		if err := rows.Scan(&li.ProductID, &li.VariantID, &li.ProductTitle, &li.VariantTitle,
			&li.SKU, &li.Quantity, &weight, &unit, &li.UnitPrice); err != nil {
			return nil, errors.Wrap(err, "scan order item")
		}
		if weight.Valid && unit != nil {
			li.Weight = &shipping.Weight{Value: weight.Decimal.InexactFloat64(), Unit: shipping.WeightUnit(*unit)}
		}
		items = append(items, li)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate order items")
	}
	return items, nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o       order.Order
		method  string
		status  string
		address []byte
		rate    []byte
	)
	err := row.Scan(&o.ID, &method, &address, &rate, &o.Currency,
		&o.Subtotal, &o.Total, &o.ShippingCost, &o.Notes, &status,
		&o.ShipmentID, &o.ShippingNote, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan order")
	}

	o.ShippingMethod = order.ShippingMethod(method)
	o.ShippingStatus = shipping.Status(status)
	if len(address) > 0 {
		var a shipping.Address
		if err := json.Unmarshal(address, &a); err != nil {
			return nil, errors.Wrapf(err, "decode address of order %q", o.ID)
		}
		o.ShippingAddress = &a
	}
	if len(rate) > 0 {
		var sr selectedRateJSON
		if err := json.Unmarshal(rate, &sr); err != nil {
			return nil, errors.Wrapf(err, "decode selected rate of order %q", o.ID)
		}
		o.SelectedRate = &order.SelectedRate{CarrierID: sr.CarrierID, ServiceCode: sr.ServiceCode, Cost: sr.Cost}
	}
	return &o, nil
}
